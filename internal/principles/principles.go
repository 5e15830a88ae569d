package principles

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Principle is one read-only entry of the UX principle catalog.
type Principle struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	Rationale   string   `json:"rationale" yaml:"rationale"`
	Examples    []string `json:"examples" yaml:"examples"`
}

var (
	catalog []Principle
	byID    map[string]Principle
)

func init() {
	var doc struct {
		Principles []Principle `yaml:"principles"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		panic(fmt.Sprintf("principles: parse embedded catalog: %v", err))
	}
	catalog = doc.Principles
	byID = make(map[string]Principle, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}
}

// All returns the full catalog in declaration order.
func All() []Principle {
	out := make([]Principle, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns the principle with the given ID.
func Get(id string) (Principle, bool) {
	p, ok := byID[id]
	return p, ok
}
