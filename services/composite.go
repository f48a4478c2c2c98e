package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"passenger-insights/models"
)

// ── 9. multi_factor ────────────────────────────────────────────────────────

type multiFactor struct{}

func (multiFactor) Key() string                  { return "multi_factor" }
func (multiFactor) Archetype() models.Archetype { return models.ArchetypeComposite }

var defaultPanelTitles = []string{
	"Survival by Gender & Class",
	"Age Distribution by Survival",
	"Fare vs Age (by Survival)",
	"Class Distribution",
}

// panelJob is one independently computed sub-chart. aggregate returns an
// error wrapping models.ErrUndefined when its subgroup has no rows.
type panelJob struct {
	archetype models.Archetype
	meta      ChartMeta
	aggregate func(ds *models.Dataset) (ChartInput, error)
}

func undefinedPanel(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrUndefined, fmt.Sprintf(format, args...))
}

func genderClassLabel(s models.Sex, c models.Class) string {
	return s.Title() + " " + string(c)
}

func (multiFactor) panels() []panelJob {
	return []panelJob{
		{
			archetype: models.ArchetypeBar,
			meta:      ChartMeta{XAxis: "Group", YAxis: "Survival Rate", ValueText: FormatPercent},
			aggregate: func(ds *models.Dataset) (ChartInput, error) {
				var rows []string
				for _, s := range models.Sexes {
					for _, c := range models.Classes {
						rows = append(rows, genderClassLabel(s, c))
					}
				}
				byGroup := func(p models.Passenger) string { return genderClassLabel(p.Sex, p.Class) }
				tab := CrossTabulate(ds, rows, Outcomes, byGroup, ByOutcome)

				pairs := PairSeries{Name: "Survival Rate"}
				for r, label := range tab.Rows {
					share := tab.Shares[r][1]
					if !share.Defined {
						return ChartInput{}, undefinedPanel("no passengers in group %s", label)
					}
					pairs.Pairs = append(pairs.Pairs, Pair{Label: label, Value: share})
				}
				return ChartInput{Pairs: []PairSeries{pairs}}, nil
			},
		},
		{
			archetype: models.ArchetypeHistogram,
			meta:      ChartMeta{XAxis: "Age (years)", YAxis: "Number of Passengers", Colors: []string{"#27ae60", "#e74c3c"}},
			aggregate: func(ds *models.Dataset) (ChartInput, error) {
				var series []ValueSeries
				for _, label := range []string{OutcomeSurvived, OutcomeDied} {
					ages := Extract(ds, Age, DidSurvive(label == OutcomeSurvived))
					if len(ages) == 0 {
						return ChartInput{}, undefinedPanel("no passengers with outcome %s", label)
					}
					series = append(series, ValueSeries{Name: label, Values: ages})
				}
				return ChartInput{Values: series}, nil
			},
		},
		{
			archetype: models.ArchetypeScatter,
			meta:      ChartMeta{XAxis: "Age (years)", YAxis: "Fare", Colors: outcomeColors},
			aggregate: func(ds *models.Dataset) (ChartInput, error) {
				series := outcomeScatter(ds, Age, Fare)
				for _, s := range series {
					if len(s.X) == 0 {
						return ChartInput{}, undefinedPanel("no passengers with outcome %s", s.Name)
					}
				}
				return ChartInput{XY: series}, nil
			},
		},
		{
			archetype: models.ArchetypePie,
			meta:      ChartMeta{Colors: classColors},
			aggregate: func(ds *models.Dataset) (ChartInput, error) {
				counts := GroupCount(ds, ClassLabels(), ByClass)
				if ds.Len() == 0 {
					return ChartInput{}, undefinedPanel("no passengers")
				}
				return ChartInput{Pairs: []PairSeries{PairsFromCounts("Passengers", counts)}}, nil
			},
		},
	}
}

// Chart computes the four panels concurrently. A panel whose subgroup is
// empty is marked failed and the others still render.
func (m multiFactor) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	titles := text.Panels
	if len(titles) != len(defaultPanelTitles) {
		titles = defaultPanelTitles
	}

	jobs := m.panels()
	panels := make([]models.Panel, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			in, err := job.aggregate(ds)
			if errors.Is(err, models.ErrUndefined) {
				panels[i] = models.Panel{Title: titles[i], Failed: true, Reason: err.Error()}
				return nil
			}
			if err != nil {
				return err
			}
			meta := job.meta
			meta.Title = titles[i]
			chart, err := BuildChart(job.archetype, meta, in)
			if err != nil {
				return fmt.Errorf("panel %q: %w", titles[i], err)
			}
			panels[i] = models.Panel{Title: titles[i], Chart: chart}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return BuildChart(m.Archetype(), ChartMeta{Title: text.Title}, ChartInput{Panels: panels})
}

func (multiFactor) Stats(ds *models.Dataset) models.StatsBlock {
	best := SurvivalRate(ds, And(IsClass(models.First), IsSex(models.Female)))
	worst := SurvivalRate(ds, And(IsClass(models.Third), IsSex(models.Male)))
	young := SurvivalRate(ds, And(IsClass(models.First), func(p models.Passenger) bool { return p.Age < 30 }))
	old := SurvivalRate(ds, And(IsClass(models.First), func(p models.Passenger) bool { return p.Age >= 50 }))
	return NewStatsBuilder().
		Add("Best Group (1st Class Women)", withSuffix(FormatPercent(best), " survived")).
		Add("Worst Group (3rd Class Men)", withSuffix(FormatPercent(worst), " survived")).
		Add("Maximum Group Gap", FormatPercent(Diff(best, worst))).
		Add("Young 1st Class (<30)", withSuffix(FormatPercent(young), " survived")).
		Add("Old 1st Class (50+)", withSuffix(FormatPercent(old), " survived")).
		Build()
}

// ── 10. data_overview ──────────────────────────────────────────────────────

type dataOverview struct{}

func (dataOverview) Key() string                  { return "data_overview" }
func (dataOverview) Archetype() models.Archetype { return models.ArchetypeBar }

func overviewRates(ds *models.Dataset) PairSeries {
	ps := PairSeries{Name: "Survival Rate"}
	ps.Pairs = append(ps.Pairs, Pair{Label: "Overall", Value: SurvivalRate(ds, All)})
	for _, s := range []models.Sex{models.Male, models.Female} {
		ps.Pairs = append(ps.Pairs, Pair{Label: s.Title(), Value: SurvivalRate(ds, IsSex(s))})
	}
	for _, c := range models.Classes {
		ps.Pairs = append(ps.Pairs, Pair{Label: classTitle(c), Value: SurvivalRate(ds, IsClass(c))})
	}
	return ps
}

func (d dataOverview) Chart(ds *models.Dataset, text CatalogEntry) (*models.ChartSpec, error) {
	meta := ChartMeta{
		Title:     text.Title,
		XAxis:     "Category",
		YAxis:     "Survival Rate",
		Colors:    []string{"#34495e"},
		ValueText: FormatPercent,
	}
	return BuildChart(d.Archetype(), meta, ChartInput{Pairs: []PairSeries{overviewRates(ds)}})
}

func (dataOverview) Stats(ds *models.Dataset) models.StatsBlock {
	ages := Describe(Extract(ds, Age, All))
	fares := Describe(Extract(ds, Fare, All))
	classRates := GroupMean(ds, ClassLabels(), ByClass, Survival)
	sexRates := GroupMean(ds, SexLabels(), BySex, Survival)
	free := Count(ds, func(p models.Passenger) bool { return p.Fare == 0 })

	b := NewStatsBuilder().
		Add("Age-Fare Correlation", FormatDecimal(Correlate(ds, Fare, Age), 3)).
		Add("Class Survival Range", FormatPercent(Spread(classRates))).
		Add("Gender Survival Range", FormatPercent(Spread(sexRates))).
		Add("Imputed Values", imputedText(ds)).
		Add("Youngest", withSuffix(FormatYears(ages.Min, 1), " old")).
		Add("Oldest", withSuffix(FormatYears(ages.Max, 1), " old")).
		Add("Most Expensive Ticket", FormatCurrency(fares.Max)).
		Add("Free Tickets", FormatInt(free)+" passengers")

	total := ds.Len()
	share := func(n int) string { return FormatCountShare(n, Ratio(float64(n), float64(total))) }
	b.Row("Total Passengers", FormatInt(total)).
		Row("Survival Rate", FormatPercent(SurvivalRate(ds, All))).
		Row("Average Age", FormatYears(ages.Mean, 1)).
		Row("Average Fare", FormatCurrency(fares.Mean)).
		Row("Male Passengers", share(Count(ds, IsSex(models.Male)))).
		Row("Female Passengers", share(Count(ds, IsSex(models.Female))))
	for _, c := range models.Classes {
		b.Row(classTitle(c), share(Count(ds, IsClass(c))))
	}
	b.Row("Children (<18)", share(Count(ds, func(p models.Passenger) bool { return p.Age < 18 }))).
		Row("Adults (18-64)", share(Count(ds, func(p models.Passenger) bool { return p.Age >= 18 && p.Age < 65 }))).
		Row("Seniors (65+)", share(Count(ds, func(p models.Passenger) bool { return p.Age >= 65 })))
	return b.Build()
}

// imputedText renders "177 (age 177, fare 0)".
func imputedText(ds *models.Dataset) string {
	var parts []string
	for _, imp := range ds.Imputation() {
		parts = append(parts, imp.Column+" "+FormatInt(imp.Imputed))
	}
	if len(parts) == 0 {
		return FormatInt(ds.ImputedValues())
	}
	return fmt.Sprintf("%s (%s)", FormatInt(ds.ImputedValues()), strings.Join(parts, ", "))
}
