package services

import (
	"passenger-insights/models"
)

// StatsBuilder accumulates an ordered stats block. Metrics appear in the
// order they are added.
type StatsBuilder struct {
	block models.StatsBlock
}

// NewStatsBuilder creates an empty builder.
func NewStatsBuilder() *StatsBuilder {
	return &StatsBuilder{block: models.StatsBlock{Metrics: []models.Metric{}}}
}

// Add appends a metric.
func (b *StatsBuilder) Add(label, value string) *StatsBuilder {
	b.block.Metrics = append(b.block.Metrics, models.Metric{Label: label, Value: value})
	return b
}

// Row appends a line to the overview table.
func (b *StatsBuilder) Row(label, value string) *StatsBuilder {
	b.block.Table = append(b.block.Table, models.Metric{Label: label, Value: value})
	return b
}

// Build returns the finished block.
func (b *StatsBuilder) Build() models.StatsBlock {
	return b.block
}

// withSuffix appends suffix unless the value is NotApplicable.
func withSuffix(value, suffix string) string {
	if value == NotApplicable {
		return value
	}
	return value + suffix
}
