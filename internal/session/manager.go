package session

import (
	"errors"
	"sync"

	"github.com/archgraph/core/internal/models"
)

// RequirementSource resolves the requirement set for a stage.
type RequirementSource interface {
	Requirements(stageID string) ([]models.Requirement, bool)
}

// ErrUnknownStage is returned by Open when the requirement source does not
// know the stage.
var ErrUnknownStage = errors.New("unknown stage")

type key struct {
	stageID string
	userID  string
}

// Manager keeps one independent session per (stage, user) pair. It guards
// only its own index; each session has its own lock and graph.
type Manager struct {
	mu       sync.RWMutex
	sessions map[key]*Session
	source   RequirementSource
	opts     []Option
}

// NewManager creates a manager. source may be nil, in which case sessions
// start with no requirements.
func NewManager(source RequirementSource, opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[key]*Session),
		source:   source,
		opts:     opts,
	}
}

func (m *Manager) Get(stageID, userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[key{stageID, userID}]
	return s, ok
}

// Open returns the session for (stage, user), creating one seeded with the
// stage's requirements when none exists. created reports whether a new
// session was made. With a requirement source, stages it does not know are
// refused with ErrUnknownStage; without one, sessions start empty.
func (m *Manager) Open(stageID, userID string) (s *Session, created bool, err error) {
	if s, ok := m.Get(stageID, userID); ok {
		return s, false, nil
	}

	var reqs []models.Requirement
	if m.source != nil {
		var ok bool
		if reqs, ok = m.source.Requirements(stageID); !ok {
			return nil, false, ErrUnknownStage
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{stageID, userID}
	if s, ok := m.sessions[k]; ok {
		return s, false, nil
	}

	s = New(stageID, userID, m.opts...)
	if reqs != nil {
		s.SetRequirements(reqs)
	}
	m.sessions[k] = s
	return s, true, nil
}

// Delete ends a session. Later requests for the pair start a fresh one.
func (m *Manager) Delete(stageID, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{stageID, userID}
	if _, ok := m.sessions[k]; !ok {
		return false
	}
	delete(m.sessions, k)
	return true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
