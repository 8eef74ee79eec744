package village

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"village-planner/internal/agent"
)

// BuildingSpec defines a building type.
type BuildingSpec struct {
	Key               string `yaml:"key" json:"key"`
	Name              string `yaml:"name" json:"name"`
	Width             int    `yaml:"width" json:"width"`   // cells
	Height            int    `yaml:"height" json:"height"` // cells
	ConstructionTurns int    `yaml:"construction_turns" json:"construction_turns"`
	Role              string `yaml:"role" json:"role"` // villager living in the building

	role agent.Role
}

type catalogFile struct {
	Buildings []BuildingSpec `yaml:"buildings"`
}

// Catalog provides lookup of building types by key.
type Catalog struct {
	specs map[string]*BuildingSpec
	keys  []string
}

// LoadCatalog loads buildings.yaml.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read building catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates a building catalog.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse building catalog: %w", err)
	}
	c := &Catalog{specs: make(map[string]*BuildingSpec, len(f.Buildings))}
	for i := range f.Buildings {
		s := &f.Buildings[i]
		if s.Key == "" {
			return nil, fmt.Errorf("building %d: missing key", i)
		}
		if _, dup := c.specs[s.Key]; dup {
			return nil, fmt.Errorf("building %q: duplicate key", s.Key)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("building %q: size must be positive", s.Key)
		}
		role, err := agent.ParseRole(s.Role)
		if err != nil {
			return nil, fmt.Errorf("building %q: %w", s.Key, err)
		}
		s.role = role
		if s.Name == "" {
			s.Name = s.Key
		}
		c.specs[s.Key] = s
		c.keys = append(c.keys, s.Key)
	}
	return c, nil
}

// Get returns the spec for key.
func (c *Catalog) Get(key string) (BuildingSpec, bool) {
	s, ok := c.specs[key]
	if !ok {
		return BuildingSpec{}, false
	}
	return *s, true
}

// Keys returns the building keys in file order.
func (c *Catalog) Keys() []string {
	return c.keys
}

// Count returns the number of building types.
func (c *Catalog) Count() int {
	return len(c.specs)
}
