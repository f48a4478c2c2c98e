package services

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passenger-insights/models"
)

// reconcilers recompute every charted value from the dataset and compare it
// with the matching stats metric, so chart and panel never disagree.
var reconcilers = map[string]func(t *testing.T, ds *models.Dataset, p *models.Presentation){
	"survival_counts":   reconcileSurvivalCounts,
	"age_distribution":  reconcileAgeDistribution,
	"fare_by_class":     reconcileFareByClass,
	"age_vs_fare":       reconcileAgeVsFare,
	"survival_by_class": reconcileSurvivalByClass,
	"age_by_class":      reconcileAgeByClass,
	"age_class_heatmap": reconcileHeatmap,
	"gender_survival":   reconcileGenderSurvival,
	"multi_factor":      reconcileMultiFactor,
	"data_overview":     reconcileDataOverview,
}

func TestChartAndStatsReconcileForEveryKey(t *testing.T) {
	ds := prepare(t, sampleRows())
	svc := newService(t, ds)

	require.Len(t, reconcilers, len(svc.Keys()))
	for _, key := range svc.Keys() {
		t.Run(key, func(t *testing.T) {
			check, ok := reconcilers[key]
			require.True(t, ok, "no reconciliation for %s", key)

			p := generate(t, svc, key)
			require.NotNil(t, p.Chart, p.ChartError)
			check(t, ds, p)
		})
	}
}

func measureOf(pt models.ChartPoint) models.Measure {
	if pt.Undefined {
		return models.Undefined()
	}
	return models.Defined(pt.Y)
}

func pointByLabel(t *testing.T, s models.ChartSeries, label string) models.ChartPoint {
	t.Helper()
	for _, pt := range s.Points {
		if pt.Label == label {
			return pt
		}
	}
	t.Fatalf("series %s has no point %q", s.Name, label)
	return models.ChartPoint{}
}

func seriesByName(t *testing.T, c *models.ChartSpec, name string) models.ChartSeries {
	t.Helper()
	for _, s := range c.Series {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("chart %q has no series %q", c.Title, name)
	return models.ChartSeries{}
}

func reconcileSurvivalCounts(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	s := p.Chart.Series[0]
	died := pointByLabel(t, s, OutcomeDied)
	survived := pointByLabel(t, s, OutcomeSurvived)

	assert.Equal(t, float64(Count(ds, DidSurvive(false))), died.Y)
	assert.Equal(t, float64(Count(ds, DidSurvive(true))), survived.Y)
	assert.Equal(t, FormatInt(int(died.Y+survived.Y)), p.Stats.Value("Total Passengers"))
	assert.True(t, strings.HasPrefix(p.Stats.Value("Deaths"), died.Text+" ("))
	assert.True(t, strings.HasPrefix(p.Stats.Value("Survivors"), survived.Text+" ("))
}

func reconcileAgeDistribution(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	s := p.Chart.Series[0]
	assert.Equal(t, float64(ds.Len()), SeriesTotal(s))

	require.Len(t, p.Chart.Annotations, 1)
	mean := p.Chart.Annotations[0].Value
	assert.Equal(t, MeanWhere(ds, Age, All).Value, mean)
	assert.Equal(t, FormatYears(models.Defined(mean), 1), p.Stats.Value("Average Age"))
	assert.True(t, strings.HasPrefix(p.Stats.Value("Age Range"), fmt.Sprintf("%.0f - ", s.Points[0].X)))
}

func reconcileFareByClass(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	require.Len(t, p.Chart.Series, len(models.Classes))
	for i, c := range models.Classes {
		s := p.Chart.Series[i]
		assert.Equal(t, string(c), s.Name)
		summary := Describe(Extract(ds, Fare, IsClass(c)))
		assert.Equal(t, summary.Median, measureOf(s.Points[2]), c)
		assert.Equal(t, FormatCurrency(MeanWhere(ds, Fare, IsClass(c))), p.Stats.Value(classTitle(c)+" Average"))
	}
	firstMax := measureOf(p.Chart.Series[0].Points[4])
	assert.Equal(t, FormatCurrency(firstMax), p.Stats.Value("First Class Max"))
}

func reconcileAgeVsFare(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	survived := seriesByName(t, p.Chart, OutcomeSurvived)
	died := seriesByName(t, p.Chart, OutcomeDied)
	assert.Equal(t, Count(ds, DidSurvive(true)), len(survived.Points))
	assert.Equal(t, ds.Len(), len(survived.Points)+len(died.Points))

	var fares []float64
	for _, s := range []models.ChartSeries{survived, died} {
		for _, pt := range s.Points {
			fares = append(fares, pt.Y)
		}
	}
	median := Describe(fares).Median
	require.True(t, median.Defined)
	assert.Equal(t, FormatCurrency(median), p.Stats.Value("Median Fare"))

	// rate counts survivors among chart points matching keep.
	rate := func(keep func(pt models.ChartPoint) bool) models.Measure {
		var hits, total int
		for _, pt := range survived.Points {
			if keep(pt) {
				hits++
				total++
			}
		}
		for _, pt := range died.Points {
			if keep(pt) {
				total++
			}
		}
		return Ratio(float64(hits), float64(total))
	}
	above := func(pt models.ChartPoint) bool { return pt.Y > median.Value }
	atOrBelow := func(pt models.ChartPoint) bool { return pt.Y <= median.Value }

	high, low := rate(above), rate(atOrBelow)
	assert.Equal(t, withSuffix(FormatPercent(high), " survived"), p.Stats.Value("High Fare (above median)"))
	assert.Equal(t, withSuffix(FormatPercent(low), " survived"), p.Stats.Value("Low Fare (at or below median)"))
	assert.Equal(t, withSuffix(FormatPercent(Diff(high, low)), " better survival"), p.Stats.Value("Wealth Advantage"))

	youngWealthy := rate(func(pt models.ChartPoint) bool { return pt.X < 40 && above(pt) })
	oldPoor := rate(func(pt models.ChartPoint) bool { return pt.X >= 40 && atOrBelow(pt) })
	assert.Equal(t, withSuffix(FormatPercent(youngWealthy), " survived"), p.Stats.Value("Young + Wealthy"))
	assert.Equal(t, withSuffix(FormatPercent(oldPoor), " survived"), p.Stats.Value("Old + Poor"))
}

func reconcileSurvivalByClass(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	s := p.Chart.Series[0]
	for _, c := range models.Classes {
		pt := pointByLabel(t, s, string(c))
		total := Count(ds, IsClass(c))
		survivors := Count(ds, And(IsClass(c), DidSurvive(true)))

		assert.Equal(t, Ratio(float64(survivors), float64(total)), measureOf(pt), c)
		assert.Equal(t, FormatFraction(survivors, total, "survived"), p.Stats.Value(classTitle(c)))
		assert.Contains(t, p.Stats.Value(classTitle(c)), "("+pt.Text+")")
	}
	gap := Diff(measureOf(pointByLabel(t, s, string(models.First))), measureOf(pointByLabel(t, s, string(models.Third))))
	assert.Equal(t, withSuffix(FormatPercent(gap), " gap between 1st & 3rd"), p.Stats.Value("Class Advantage"))
}

func reconcileAgeByClass(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	require.Len(t, p.Chart.Series, len(models.Classes))
	for i, c := range models.Classes {
		s := p.Chart.Series[i]
		assert.Equal(t, string(c), s.Name)
		n := Count(ds, IsClass(c))
		assert.Equal(t, n > 0, len(s.Points) > 0, c)
		assert.Equal(t, FormatYears(MeanWhere(ds, Age, IsClass(c)), 1), p.Stats.Value(classTitle(c)+" Average"))
	}
	gap := Diff(MeanWhere(ds, Age, IsClass(models.First)), MeanWhere(ds, Age, IsClass(models.Third)))
	assert.Equal(t, withSuffix(FormatYears(gap, 1), " between 1st & 3rd class"), p.Stats.Value("Age Gap"))
}

func reconcileHeatmap(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	grid := p.Chart.Grid
	require.NotNil(t, grid)
	assert.Equal(t, Pivot(ds, AgeBins.Labels, ClassLabels(), ByAgeGroup, ByClass, Survival), *grid)

	best, ok := grid.Max()
	require.True(t, ok)
	worst, ok := grid.Min()
	require.True(t, ok)
	assert.Equal(t, FormatPercent(models.Defined(best.Value)), p.Stats.Value("Best Survival Rate"))
	assert.Equal(t, fmt.Sprintf("%s in %s Class", best.Row, best.Col), p.Stats.Value("Best Group"))
	assert.Equal(t, FormatPercent(models.Defined(worst.Value)), p.Stats.Value("Worst Survival Rate"))
	assert.Equal(t, fmt.Sprintf("%s in %s Class", worst.Row, worst.Col), p.Stats.Value("Worst Group"))
	assert.Equal(t, FormatPercent(models.Defined(best.Value-worst.Value)), p.Stats.Value("Maximum Advantage Gap"))
}

func reconcileGenderSurvival(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	s := p.Chart.Series[0]
	rates := make(map[models.Sex]models.Measure)
	for sex, label := range map[models.Sex]string{models.Female: "Women", models.Male: "Men"} {
		pt := pointByLabel(t, s, sex.Title())
		total := Count(ds, IsSex(sex))
		survivors := Count(ds, And(IsSex(sex), DidSurvive(true)))

		assert.Equal(t, Ratio(float64(survivors), float64(total)), measureOf(pt), sex)
		assert.Equal(t, FormatFraction(survivors, total, "survived"), p.Stats.Value(label))
		assert.Contains(t, p.Stats.Value(label), "("+pt.Text+")")
		rates[sex] = measureOf(pt)
	}
	assert.Equal(t, withSuffix(FormatTimes(rates[models.Female], rates[models.Male]), " more likely (women)"),
		p.Stats.Value("Gender Advantage"))
	assert.Equal(t, FormatPercent(Diff(rates[models.Female], rates[models.Male])), p.Stats.Value("Absolute Difference"))
}

func reconcileMultiFactor(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	require.Len(t, p.Chart.Panels, 4)
	for _, panel := range p.Chart.Panels {
		require.False(t, panel.Failed, "%s: %s", panel.Title, panel.Reason)
	}

	groups := p.Chart.Panels[0].Chart.Series[0]
	for _, sex := range models.Sexes {
		for _, c := range models.Classes {
			pt := pointByLabel(t, groups, genderClassLabel(sex, c))
			assert.Equal(t, SurvivalRate(ds, And(IsSex(sex), IsClass(c))), measureOf(pt), pt.Label)
		}
	}
	best := pointByLabel(t, groups, genderClassLabel(models.Female, models.First))
	worst := pointByLabel(t, groups, genderClassLabel(models.Male, models.Third))
	assert.Equal(t, best.Text+" survived", p.Stats.Value("Best Group (1st Class Women)"))
	assert.Equal(t, worst.Text+" survived", p.Stats.Value("Worst Group (3rd Class Men)"))
	assert.Equal(t, FormatPercent(Diff(measureOf(best), measureOf(worst))), p.Stats.Value("Maximum Group Gap"))

	ages := p.Chart.Panels[1].Chart
	assert.Equal(t, float64(Count(ds, DidSurvive(true))), SeriesTotal(seriesByName(t, ages, OutcomeSurvived)))
	assert.Equal(t, float64(Count(ds, DidSurvive(false))), SeriesTotal(seriesByName(t, ages, OutcomeDied)))

	scatter := p.Chart.Panels[2].Chart
	assert.Equal(t, Count(ds, DidSurvive(true)), len(seriesByName(t, scatter, OutcomeSurvived).Points))

	pie := p.Chart.Panels[3].Chart.Series[0]
	for _, c := range models.Classes {
		pt := pointByLabel(t, pie, string(c))
		n := Count(ds, IsClass(c))
		assert.Equal(t, float64(n), pt.Y, c)
		assert.Equal(t, FormatPercent(Ratio(float64(n), float64(ds.Len()))), pt.Text, c)
	}
	assert.Equal(t, float64(ds.Len()), SeriesTotal(pie))
}

func reconcileDataOverview(t *testing.T, ds *models.Dataset, p *models.Presentation) {
	s := p.Chart.Series[0]
	overall := pointByLabel(t, s, "Overall")
	assert.Equal(t, SurvivalRate(ds, All), measureOf(overall))
	assert.Equal(t, overall.Text, p.Stats.Value("Survival Rate"))

	spread := func(labels ...string) models.Measure {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, label := range labels {
			pt := pointByLabel(t, s, label)
			if pt.Undefined {
				continue
			}
			lo, hi = math.Min(lo, pt.Y), math.Max(hi, pt.Y)
		}
		if math.IsInf(lo, 1) {
			return models.Undefined()
		}
		return models.Defined(hi - lo)
	}

	var classLabels []string
	for _, c := range models.Classes {
		label := classTitle(c)
		classLabels = append(classLabels, label)
		assert.Equal(t, SurvivalRate(ds, IsClass(c)), measureOf(pointByLabel(t, s, label)), label)
		assert.True(t, strings.HasPrefix(p.Stats.Value(label), FormatInt(Count(ds, IsClass(c)))+" ("), label)
	}
	assert.Equal(t, FormatPercent(spread(classLabels...)), p.Stats.Value("Class Survival Range"))
	assert.Equal(t, FormatPercent(spread("Male", "Female")), p.Stats.Value("Gender Survival Range"))

	for sex, row := range map[models.Sex]string{models.Male: "Male Passengers", models.Female: "Female Passengers"} {
		assert.Equal(t, SurvivalRate(ds, IsSex(sex)), measureOf(pointByLabel(t, s, sex.Title())), sex)
		assert.True(t, strings.HasPrefix(p.Stats.Value(row), FormatInt(Count(ds, IsSex(sex)))+" ("), row)
	}
	assert.Equal(t, FormatInt(ds.Len()), p.Stats.Value("Total Passengers"))
}
