package services

import (
	"fmt"

	"passenger-insights/models"
)

// Insight is one analytical view. Implementations hold no state; every call
// is a pure read of the dataset.
type Insight interface {
	Key() string
	Archetype() models.Archetype
	Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error)
	Stats(ds *models.Dataset) models.StatsBlock
}

// Definition binds an insight to its display text.
type Definition struct {
	Text    CatalogEntry
	Insight Insight
}

// Option is one entry of the published selector list.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Registry maps insight keys to definitions in selector order.
type Registry struct {
	defs  []Definition
	byKey map[string]int
}

// NewRegistry pairs every catalog entry with exactly one insight. Selector
// order follows the catalog. An entry without an insight, an insight without
// an entry, or a duplicate key fails.
func NewRegistry(catalog *Catalog, insights ...Insight) (*Registry, error) {
	byKey := make(map[string]Insight, len(insights))
	for _, in := range insights {
		if _, dup := byKey[in.Key()]; dup {
			return nil, fmt.Errorf("registry: insight %s registered twice", in.Key())
		}
		if _, ok := RequiredShape(in.Archetype()); !ok {
			return nil, fmt.Errorf("registry: insight %s has unknown archetype %q", in.Key(), in.Archetype())
		}
		byKey[in.Key()] = in
	}

	r := &Registry{byKey: make(map[string]int, catalog.Len())}
	for _, key := range catalog.Keys() {
		in, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("registry: catalog entry %s has no insight", key)
		}
		text, _ := catalog.Lookup(key)
		r.byKey[key] = len(r.defs)
		r.defs = append(r.defs, Definition{Text: text, Insight: in})
		delete(byKey, key)
	}
	for _, in := range insights {
		if _, left := byKey[in.Key()]; left {
			return nil, fmt.Errorf("registry: insight %s has no catalog entry", in.Key())
		}
	}
	return r, nil
}

// DefaultRegistry registers the built-in insights against the embedded catalog.
func DefaultRegistry() (*Registry, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return NewRegistry(catalog, DefaultInsights()...)
}

// DefaultInsights returns one instance of every built-in insight.
func DefaultInsights() []Insight {
	return []Insight{
		survivalCounts{},
		ageDistribution{},
		fareByClass{},
		ageVsFare{},
		survivalByClass{},
		ageByClass{},
		ageClassHeatmap{},
		genderSurvival{},
		multiFactor{},
		dataOverview{},
	}
}

// Resolve looks up a key. Unregistered keys return *models.UnknownInsightError.
func (r *Registry) Resolve(key string) (Definition, error) {
	i, ok := r.byKey[key]
	if !ok {
		return Definition{}, &models.UnknownInsightError{Key: key}
	}
	return r.defs[i], nil
}

// Keys lists registered keys in selector order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.defs))
	for i, d := range r.defs {
		keys[i] = d.Text.Key
	}
	return keys
}

// Options is the published selector list.
func (r *Registry) Options() []Option {
	opts := make([]Option, len(r.defs))
	for i, d := range r.defs {
		opts[i] = Option{Key: d.Text.Key, Label: d.Text.Label}
	}
	return opts
}

// Assemble builds the presentation triple for one definition. A chart
// failure is recorded in ChartError; narrative and stats are always filled.
func Assemble(def Definition, ds *models.Dataset) *models.Presentation {
	p := &models.Presentation{
		Key:       def.Text.Key,
		Label:     def.Text.Label,
		Narrative: def.Text.NarrativeBlock(),
		Stats:     def.Insight.Stats(ds),
	}
	chart, err := def.Insight.Chart(ds, def.Text)
	if err != nil {
		p.ChartError = err.Error()
	} else {
		p.Chart = chart
	}
	return p
}
