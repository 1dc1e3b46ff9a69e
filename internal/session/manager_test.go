package session

import (
	"testing"

	"github.com/archgraph/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string][]models.Requirement

func (m mapSource) Requirements(stageID string) ([]models.Requirement, bool) {
	reqs, ok := m[stageID]
	return reqs, ok
}

func TestManager(t *testing.T) {
	m := NewManager(mapSource{"stage-1": starterRequirements}, WithLogger(quietLogger()))

	t.Run("creates sessions seeded from the source", func(t *testing.T) {
		s, created, err := m.Open("stage-1", "alice")

		require.NoError(t, err)
		assert.True(t, created)
		assert.Len(t, s.Requirements(), 3)
		assert.Len(t, s.Snapshot().ValidationResults, 3)
	})

	t.Run("unknown stage is refused", func(t *testing.T) {
		before := m.Len()

		s, created, err := m.Open("stage-9", "alice")

		assert.ErrorIs(t, err, ErrUnknownStage)
		assert.Nil(t, s)
		assert.False(t, created)
		assert.Equal(t, before, m.Len())
	})

	t.Run("returns the same session for the same key", func(t *testing.T) {
		a, _, err := m.Open("stage-1", "alice")
		require.NoError(t, err)
		b, created, err := m.Open("stage-1", "alice")
		require.NoError(t, err)

		assert.Same(t, a, b)
		assert.False(t, created)
	})

	t.Run("sessions are isolated per user", func(t *testing.T) {
		alice, _, _ := m.Open("stage-1", "alice")
		bob, _, _ := m.Open("stage-1", "bob")

		alice.AddNode(map[string]any{"type": "server"}, models.Position{}, "")

		assert.Equal(t, 1, alice.Snapshot().NodeCount)
		assert.Zero(t, bob.Snapshot().NodeCount)
	})

	t.Run("get and delete", func(t *testing.T) {
		_, ok := m.Get("stage-1", "carol")
		assert.False(t, ok)

		first, _, err := m.Open("stage-1", "carol")
		require.NoError(t, err)
		first.AddNode(map[string]any{"type": "server"}, models.Position{}, "")
		_, ok = m.Get("stage-1", "carol")
		require.True(t, ok)

		before := m.Len()
		assert.True(t, m.Delete("stage-1", "carol"))
		assert.False(t, m.Delete("stage-1", "carol"))
		assert.Equal(t, before-1, m.Len())

		again, created, err := m.Open("stage-1", "carol")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotSame(t, first, again)
		assert.Zero(t, again.Snapshot().NodeCount)
	})
}

func TestManagerNilSource(t *testing.T) {
	m := NewManager(nil, WithLogger(quietLogger()))

	s, _, err := m.Open("any", "user")
	require.NoError(t, err)

	assert.Empty(t, s.Requirements())
	assert.Equal(t, 1, m.Len())
}

func TestBusSubscribers(t *testing.T) {
	bus := NewBus()
	var a, b int
	bus.Subscribe(func(Event) { a++ })
	stop := bus.Subscribe(func(Event) { b++ })

	bus.Publish(Event{Type: EventCleared})
	stop()
	bus.Publish(Event{Type: EventCleared})

	assert.Equal(t, 2, a)
	assert.Equal(t, 1, b)
}
