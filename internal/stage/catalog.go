// Package stage loads stage definitions, the external unit of mission
// progression that supplies a requirement set to each design session.
package stage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/archgraph/core/internal/models"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateStage       = errors.New("duplicate stage id")
	ErrDuplicateRequirement = errors.New("duplicate requirement id")
	ErrInvalidStage         = errors.New("invalid stage definition")
)

var stageValidate = validator.New()

type Stage struct {
	ID           string               `yaml:"id" json:"id" validate:"required"`
	Title        string               `yaml:"title" json:"title"`
	Description  string               `yaml:"description,omitempty" json:"description,omitempty"`
	Requirements []models.Requirement `yaml:"requirements" json:"requirements" validate:"dive"`
}

// Catalog is an in-memory index of stages.
//
// Thread Safety: Catalog is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	stages map[string]Stage
	logger *slog.Logger
}

func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{stages: make(map[string]Stage), logger: logger}
}

// Parse decodes and checks a single YAML stage document.
func Parse(data []byte) (Stage, error) {
	var s Stage
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Stage{}, fmt.Errorf("%w: %v", ErrInvalidStage, err)
	}
	if err := stageValidate.Struct(s); err != nil {
		return Stage{}, fmt.Errorf("%w: %v", ErrInvalidStage, err)
	}
	if err := ValidateRequirements(s.Requirements); err != nil {
		return Stage{}, fmt.Errorf("stage %s: %w", s.ID, err)
	}
	return s, nil
}

// ValidateRequirements checks field constraints and id uniqueness. Unknown
// kinds are accepted; the engine reports them as not completed.
func ValidateRequirements(reqs []models.Requirement) error {
	seen := make(map[string]bool, len(reqs))
	for i := range reqs {
		if err := stageValidate.Struct(&reqs[i]); err != nil {
			return fmt.Errorf("%w: requirement %d: %v", ErrInvalidStage, i, err)
		}
		if seen[reqs[i].ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateRequirement, reqs[i].ID)
		}
		seen[reqs[i].ID] = true
	}
	return nil
}

func LoadFile(path string) (Stage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stage{}, fmt.Errorf("reading stage file %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Stage{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadDir reads every .yaml/.yml file in dir into a new catalog.
func LoadDir(dir string, logger *slog.Logger) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stages dir %s: %w", dir, err)
	}

	c := NewCatalog(logger)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		s, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if err := c.Add(s); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
	}

	c.logger.Info("loaded stages", "dir", dir, "count", c.Len())
	return c, nil
}

func (c *Catalog) Add(s Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.stages[s.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStage, s.ID)
	}

	known := make(map[models.ValidationKind]bool, len(models.Kinds))
	for _, k := range models.Kinds {
		known[k] = true
	}
	for _, r := range s.Requirements {
		if !known[r.Kind] {
			c.logger.Warn("stage uses an unknown requirement kind", "stage_id", s.ID, "requirement_id", r.ID, "kind", r.Kind)
		}
	}

	c.stages[s.ID] = s
	return nil
}

func (c *Catalog) Get(id string) (Stage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.stages[id]
	if ok {
		s.Requirements = slices.Clone(s.Requirements)
	}
	return s, ok
}

// Requirements returns a copy of the stage's requirements in file order.
func (c *Catalog) Requirements(stageID string) ([]models.Requirement, bool) {
	s, ok := c.Get(stageID)
	if !ok {
		return nil, false
	}
	return s.Requirements, true
}

// List returns all stages sorted by id.
func (c *Catalog) List() []Stage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Stage, 0, len(c.stages))
	for _, s := range c.stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.stages)
}
