package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"passenger-insights/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogEntry is the fixed display text of one insight.
type CatalogEntry struct {
	Key       string   `yaml:"key"`
	Label     string   `yaml:"label"`
	Title     string   `yaml:"title"`
	Heading   string   `yaml:"heading"`
	Narrative string   `yaml:"narrative"`
	Panels    []string `yaml:"panels,omitempty"`
}

// Catalog holds display text in selector order.
type Catalog struct {
	entries []CatalogEntry
	byKey   map[string]int
}

type catalogFile struct {
	Insights []CatalogEntry `yaml:"insights"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog parses a catalog document. Keys must be unique and every entry
// needs a label, heading and narrative.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	c := &Catalog{byKey: make(map[string]int, len(f.Insights))}
	for i, e := range f.Insights {
		switch {
		case e.Key == "":
			return nil, fmt.Errorf("catalog: entry %d has no key", i)
		case e.Label == "" || e.Heading == "" || e.Narrative == "":
			return nil, fmt.Errorf("catalog: %s: label, heading and narrative are required", e.Key)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate key %s", e.Key)
		}
		c.byKey[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Lookup returns the entry for key.
func (c *Catalog) Lookup(key string) (CatalogEntry, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[i], true
}

// Keys lists catalog keys in selector order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len is the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// NarrativeBlock returns the entry's fixed narrative.
func (e CatalogEntry) NarrativeBlock() models.Narrative {
	return models.Narrative{Heading: e.Heading, Body: e.Narrative}
}
