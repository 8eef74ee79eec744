package village

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Placement puts one building at a cell position.
type Placement struct {
	Key string `yaml:"key"`
	X   int    `yaml:"x"`
	Y   int    `yaml:"y"`
}

// Layout is the initial arrangement of a village.
type Layout struct {
	Placements []Placement `yaml:"placements"`
}

// LoadLayout loads layout.yaml.
func LoadLayout(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return &l, nil
}
