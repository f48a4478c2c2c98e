package services

import (
	"fmt"

	"passenger-insights/models"
)

// ============================================================================
// INSIGHT STRATEGIES
// ============================================================================
// One stateless type per key. Chart and Stats read the same aggregations so
// the numbers on screen agree with the numbers in the panel.
// ============================================================================

var (
	outcomeColors = []string{"#e74c3c", "#27ae60"}
	classColors   = []string{"#8b4513", "#ff8c00", "#32cd32"}
	genderColors  = []string{"#e91e63", "#2196f3"}
)

func countText(m models.Measure) string {
	if !m.Defined {
		return NotApplicable
	}
	return FormatInt(int(m.Value))
}

func classTitle(c models.Class) string {
	return fmt.Sprintf("%s Class", c)
}

// ── 1. survival_counts ─────────────────────────────────────────────────────

type survivalCounts struct{}

func (survivalCounts) Key() string                  { return "survival_counts" }
func (survivalCounts) Archetype() models.Archetype { return models.ArchetypeBar }

func (s survivalCounts) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	counts := GroupCount(ds, Outcomes, ByOutcome)
	meta := ChartMeta{
		Title:     text.Title,
		XAxis:     "Outcome",
		YAxis:     "Number of Passengers",
		Colors:    outcomeColors,
		ValueText: countText,
	}
	return BuildChart(s.Archetype(), meta, ChartInput{Pairs: []PairSeries{PairsFromCounts("Passengers", counts)}})
}

func (survivalCounts) Stats(ds *models.Dataset) models.StatsBlock {
	counts := GroupCount(ds, Outcomes, ByOutcome)
	died, survived := counts[0], counts[1]
	return NewStatsBuilder().
		Add("Total Passengers", FormatInt(ds.Len())).
		Add("Deaths", FormatCountShare(died.Count, died.Share)).
		Add("Survivors", FormatCountShare(survived.Count, survived.Share)).
		Add("Odds of Survival", FormatOdds(ds.Len(), survived.Count)).
		Build()
}

// ── 2. age_distribution ────────────────────────────────────────────────────

type ageDistribution struct{}

func (ageDistribution) Key() string                  { return "age_distribution" }
func (ageDistribution) Archetype() models.Archetype { return models.ArchetypeHistogram }

func (a ageDistribution) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	ages := Extract(ds, Age, All)
	meta := ChartMeta{
		Title:  text.Title,
		XAxis:  "Age (years)",
		YAxis:  "Number of Passengers",
		Bins:   25,
		Colors: []string{"#3498db"},
	}
	spec, err := BuildChart(a.Archetype(), meta, ChartInput{Values: []ValueSeries{{Name: "Age", Values: ages}}})
	if err != nil {
		return nil, err
	}
	if mean := MeanWhere(ds, Age, All); mean.Defined {
		spec.Annotations = append(spec.Annotations, models.Annotation{
			Axis:  "x",
			Value: mean.Value,
			Text:  "Mean: " + FormatYears(mean, 1),
		})
	}
	return spec, nil
}

func (ageDistribution) Stats(ds *models.Dataset) models.StatsBlock {
	summary := Describe(Extract(ds, Age, All))
	total := float64(ds.Len())
	children := Count(ds, func(p models.Passenger) bool { return p.Age < 18 })
	youngAdults := Count(ds, func(p models.Passenger) bool { return p.Age >= 20 && p.Age < 40 })
	return NewStatsBuilder().
		Add("Average Age", FormatYears(summary.Mean, 1)).
		Add("Median Age", FormatYears(summary.Median, 1)).
		Add("Children (<18)", FormatCountShare(children, Ratio(float64(children), total))).
		Add("Young Adults (20-40)", FormatCountShare(youngAdults, Ratio(float64(youngAdults), total))).
		Add("Age Range", FormatRange(summary.Min, summary.Max, "years")).
		Build()
}

// ── 3. fare_by_class ───────────────────────────────────────────────────────

type fareByClass struct{}

func (fareByClass) Key() string                  { return "fare_by_class" }
func (fareByClass) Archetype() models.Archetype { return models.ArchetypeBox }

func (f fareByClass) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	series := make([]ValueSeries, len(models.Classes))
	for i, c := range models.Classes {
		series[i] = ValueSeries{Name: string(c), Values: Extract(ds, Fare, IsClass(c))}
	}
	meta := ChartMeta{Title: text.Title, XAxis: "Passenger Class", YAxis: "Fare", Colors: classColors}
	return BuildChart(f.Archetype(), meta, ChartInput{Values: series})
}

func (fareByClass) Stats(ds *models.Dataset) models.StatsBlock {
	means := GroupMean(ds, ClassLabels(), ByClass, Fare)
	first := Find(means, string(models.First)).Value
	third := Find(means, string(models.Third)).Value
	firstMax := Describe(Extract(ds, Fare, IsClass(models.First))).Max
	return NewStatsBuilder().
		Add("First Class Average", FormatCurrency(first)).
		Add("First Class Max", FormatCurrency(firstMax)).
		Add("Second Class Average", FormatCurrency(Find(means, string(models.Second)).Value)).
		Add("Third Class Average", FormatCurrency(third)).
		Add("Price Ratio (1st:3rd)", FormatProportion(first, third)).
		Build()
}

// ── 4. age_vs_fare ─────────────────────────────────────────────────────────

type ageVsFare struct{}

func (ageVsFare) Key() string                  { return "age_vs_fare" }
func (ageVsFare) Archetype() models.Archetype { return models.ArchetypeScatter }

func (a ageVsFare) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	meta := ChartMeta{Title: text.Title, XAxis: "Age (years)", YAxis: "Fare", Colors: outcomeColors}
	return BuildChart(a.Archetype(), meta, ChartInput{XY: outcomeScatter(ds, Age, Fare)})
}

// outcomeScatter splits an x/y extract into Died and Survived series.
func outcomeScatter(ds *models.Dataset, x, y ValueFunc) []XYSeries {
	series := make([]XYSeries, len(Outcomes))
	for i, label := range Outcomes {
		survived := label == OutcomeSurvived
		series[i] = XYSeries{
			Name: label,
			X:    Extract(ds, x, DidSurvive(survived)),
			Y:    Extract(ds, y, DidSurvive(survived)),
		}
	}
	return series
}

func (ageVsFare) Stats(ds *models.Dataset) models.StatsBlock {
	median := Describe(Extract(ds, Fare, All)).Median
	above := func(p models.Passenger) bool { return median.Defined && p.Fare > median.Value }
	atOrBelow := func(p models.Passenger) bool { return median.Defined && p.Fare <= median.Value }
	young := func(p models.Passenger) bool { return p.Age < 40 }
	old := func(p models.Passenger) bool { return p.Age >= 40 }

	high := SurvivalRate(ds, above)
	low := SurvivalRate(ds, atOrBelow)
	return NewStatsBuilder().
		Add("Median Fare", FormatCurrency(median)).
		Add("High Fare (above median)", withSuffix(FormatPercent(high), " survived")).
		Add("Low Fare (at or below median)", withSuffix(FormatPercent(low), " survived")).
		Add("Wealth Advantage", withSuffix(FormatPercent(Diff(high, low)), " better survival")).
		Add("Young + Wealthy", withSuffix(FormatPercent(SurvivalRate(ds, And(young, above))), " survived")).
		Add("Old + Poor", withSuffix(FormatPercent(SurvivalRate(ds, And(old, atOrBelow))), " survived")).
		Build()
}

// ── 5. survival_by_class ───────────────────────────────────────────────────

type survivalByClass struct{}

func (survivalByClass) Key() string                  { return "survival_by_class" }
func (survivalByClass) Archetype() models.Archetype { return models.ArchetypeBar }

func (s survivalByClass) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	rates := GroupMean(ds, ClassLabels(), ByClass, Survival)
	meta := ChartMeta{
		Title:     text.Title,
		XAxis:     "Passenger Class",
		YAxis:     "Survival Rate",
		Colors:    classColors,
		ValueText: FormatPercent,
	}
	return BuildChart(s.Archetype(), meta, ChartInput{Pairs: []PairSeries{PairsFromGroups("Survival Rate", rates)}})
}

func (survivalByClass) Stats(ds *models.Dataset) models.StatsBlock {
	b := NewStatsBuilder()
	for _, c := range models.Classes {
		total := Count(ds, IsClass(c))
		survivors := Count(ds, And(IsClass(c), DidSurvive(true)))
		b.Add(classTitle(c), FormatFraction(survivors, total, "survived"))
	}
	rates := GroupMean(ds, ClassLabels(), ByClass, Survival)
	gap := Diff(Find(rates, string(models.First)).Value, Find(rates, string(models.Third)).Value)
	return b.Add("Class Advantage", withSuffix(FormatPercent(gap), " gap between 1st & 3rd")).Build()
}

// ── 6. age_by_class ────────────────────────────────────────────────────────

type ageByClass struct{}

func (ageByClass) Key() string                  { return "age_by_class" }
func (ageByClass) Archetype() models.Archetype { return models.ArchetypeViolin }

func (a ageByClass) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	series := make([]ValueSeries, len(models.Classes))
	for i, c := range models.Classes {
		series[i] = ValueSeries{Name: string(c), Values: Extract(ds, Age, IsClass(c))}
	}
	meta := ChartMeta{Title: text.Title, XAxis: "Age (years)", YAxis: "Density", Colors: classColors}
	return BuildChart(a.Archetype(), meta, ChartInput{Values: series})
}

func (ageByClass) Stats(ds *models.Dataset) models.StatsBlock {
	means := GroupMean(ds, ClassLabels(), ByClass, Age)
	b := NewStatsBuilder()
	for _, c := range models.Classes {
		b.Add(classTitle(c)+" Average", FormatYears(Find(means, string(c)).Value, 1))
	}
	gap := Diff(Find(means, string(models.First)).Value, Find(means, string(models.Third)).Value)
	return b.Add("Age Gap", withSuffix(FormatYears(gap, 1), " between 1st & 3rd class")).Build()
}

// ── 7. age_class_heatmap ───────────────────────────────────────────────────

type ageClassHeatmap struct{}

func (ageClassHeatmap) Key() string                  { return "age_class_heatmap" }
func (ageClassHeatmap) Archetype() models.Archetype { return models.ArchetypeHeatmap }

func survivalGrid(ds *models.Dataset) models.Grid {
	return Pivot(ds, AgeBins.Labels, ClassLabels(), ByAgeGroup, ByClass, Survival)
}

func (h ageClassHeatmap) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	grid := survivalGrid(ds)
	meta := ChartMeta{Title: text.Title, XAxis: "Passenger Class", YAxis: "Age Group"}
	return BuildChart(h.Archetype(), meta, ChartInput{Grid: &grid})
}

func (ageClassHeatmap) Stats(ds *models.Dataset) models.StatsBlock {
	grid := survivalGrid(ds)
	b := NewStatsBuilder()
	best, okBest := grid.Max()
	worst, okWorst := grid.Min()
	b.Add("Best Survival Rate", cellRate(best, okBest)).
		Add("Best Group", cellName(best, okBest)).
		Add("Worst Survival Rate", cellRate(worst, okWorst)).
		Add("Worst Group", cellName(worst, okWorst))

	gap := models.Undefined()
	if okBest && okWorst {
		gap = models.Defined(best.Value - worst.Value)
	}
	return b.Add("Maximum Advantage Gap", FormatPercent(gap)).Build()
}

func cellRate(c models.GridCell, ok bool) string {
	if !ok {
		return NotApplicable
	}
	return FormatPercent(models.Defined(c.Value))
}

func cellName(c models.GridCell, ok bool) string {
	if !ok {
		return NotApplicable
	}
	return fmt.Sprintf("%s in %s Class", c.Row, c.Col)
}

// ── 8. gender_survival ─────────────────────────────────────────────────────

type genderSurvival struct{}

func (genderSurvival) Key() string                  { return "gender_survival" }
func (genderSurvival) Archetype() models.Archetype { return models.ArchetypeBar }

func (g genderSurvival) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	rates := GroupMean(ds, SexLabels(), BySex, Survival)
	pairs := PairSeries{Name: "Survival Rate"}
	for i, s := range models.Sexes {
		pairs.Pairs = append(pairs.Pairs, Pair{Label: s.Title(), Value: rates[i].Value})
	}
	meta := ChartMeta{
		Title:     text.Title,
		XAxis:     "Gender",
		YAxis:     "Survival Rate",
		Colors:    genderColors,
		ValueText: FormatPercent,
	}
	return BuildChart(g.Archetype(), meta, ChartInput{Pairs: []PairSeries{pairs}})
}

func (genderSurvival) Stats(ds *models.Dataset) models.StatsBlock {
	rates := GroupMean(ds, SexLabels(), BySex, Survival)
	female := Find(rates, string(models.Female)).Value
	male := Find(rates, string(models.Male)).Value

	b := NewStatsBuilder()
	for _, s := range []struct {
		label string
		sex   models.Sex
	}{{"Women", models.Female}, {"Men", models.Male}} {
		total := Count(ds, IsSex(s.sex))
		survivors := Count(ds, And(IsSex(s.sex), DidSurvive(true)))
		b.Add(s.label, FormatFraction(survivors, total, "survived"))
	}
	return b.
		Add("Gender Advantage", withSuffix(FormatTimes(female, male), " more likely (women)")).
		Add("Absolute Difference", FormatPercent(Diff(female, male))).
		Build()
}
