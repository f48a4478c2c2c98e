package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passenger-insights/models"
)

func TestBuildChartRejectsWrongShape(t *testing.T) {
	grid := &models.Grid{RowLabels: []string{"a"}, ColLabels: []string{"b"}, Cells: [][]models.Measure{{models.Defined(1)}}}
	pairs := ChartInput{Pairs: []PairSeries{{Name: "p", Pairs: []Pair{{Label: "x", Value: models.Defined(1)}}}}}
	values := ChartInput{Values: []ValueSeries{{Name: "v", Values: []float64{1, 2}}}}
	xy := ChartInput{XY: []XYSeries{{Name: "xy", X: []float64{1}, Y: []float64{2}}}}
	gridIn := ChartInput{Grid: grid}
	panels := ChartInput{Panels: []models.Panel{{Title: "p"}}}

	tests := []struct {
		archetype models.Archetype
		in        ChartInput
		want      models.Shape
	}{
		{models.ArchetypeBar, values, models.ShapePairs},
		{models.ArchetypePie, gridIn, models.ShapePairs},
		{models.ArchetypeHistogram, pairs, models.ShapeValues},
		{models.ArchetypeBox, xy, models.ShapeValues},
		{models.ArchetypeViolin, panels, models.ShapeValues},
		{models.ArchetypeScatter, values, models.ShapeXY},
		{models.ArchetypeHeatmap, pairs, models.ShapeGrid},
		{models.ArchetypeComposite, gridIn, models.ShapePanels},
	}
	for _, tt := range tests {
		t.Run(string(tt.archetype), func(t *testing.T) {
			spec, err := BuildChart(tt.archetype, ChartMeta{}, tt.in)
			assert.Nil(t, spec)
			require.ErrorIs(t, err, models.ErrShapeMismatch)

			var mismatch *models.ShapeMismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, tt.want, mismatch.Want)
			assert.Equal(t, tt.archetype, mismatch.Archetype)
		})
	}
}

func TestBuildChartRejectsMixedAndEmptyInput(t *testing.T) {
	mixed := ChartInput{
		Pairs:  []PairSeries{{Name: "p"}},
		Values: []ValueSeries{{Name: "v"}},
	}
	assert.Equal(t, models.ShapeMixed, mixed.Shape())
	_, err := BuildChart(models.ArchetypeBar, ChartMeta{}, mixed)
	assert.ErrorIs(t, err, models.ErrShapeMismatch)

	_, err = BuildChart(models.ArchetypeBar, ChartMeta{}, ChartInput{})
	assert.ErrorIs(t, err, models.ErrShapeMismatch)

	_, err = BuildChart(models.Archetype("radar"), ChartMeta{}, ChartInput{Pairs: []PairSeries{{Name: "p"}}})
	assert.ErrorIs(t, err, models.ErrShapeMismatch)
}

func TestBuildChartScatterLengthMismatch(t *testing.T) {
	_, err := BuildChart(models.ArchetypeScatter, ChartMeta{}, ChartInput{
		XY: []XYSeries{{Name: "bad", X: []float64{1, 2}, Y: []float64{1}}},
	})
	assert.ErrorIs(t, err, models.ErrShapeMismatch)
}

func TestBuildChartBarMarksUndefinedPoints(t *testing.T) {
	spec, err := BuildChart(models.ArchetypeBar, ChartMeta{Title: "Rates", ValueText: FormatPercent}, ChartInput{
		Pairs: []PairSeries{{Name: "Rate", Pairs: []Pair{
			{Label: "First", Value: models.Defined(0.5)},
			{Label: "Second", Value: models.Undefined()},
		}}},
	})
	require.NoError(t, err)
	require.Len(t, spec.Series, 1)

	pts := spec.Series[0].Points
	assert.Equal(t, models.ChartPoint{Label: "First", X: 0, Y: 0.5, Text: "50.0%"}, pts[0])
	assert.Equal(t, models.ChartPoint{Label: "Second", X: 1, Text: NotApplicable, Undefined: true}, pts[1])
	assert.False(t, spec.ShowLegend)
	assert.Equal(t, defaultColors[0], spec.Series[0].Color)
}

func TestBuildChartHistogramPreservesCounts(t *testing.T) {
	values := []float64{0.42, 2, 14, 22, 22, 26, 35, 38, 54, 80}
	spec, err := BuildChart(models.ArchetypeHistogram, ChartMeta{Bins: 8}, ChartInput{
		Values: []ValueSeries{{Name: "Age", Values: values}},
	})
	require.NoError(t, err)
	require.Len(t, spec.Series[0].Points, 8)
	assert.Equal(t, float64(len(values)), SeriesTotal(spec.Series[0]))
	assert.Equal(t, 0.42, spec.Series[0].Points[0].X)
}

func TestBuildChartHistogramSharedRange(t *testing.T) {
	spec, err := BuildChart(models.ArchetypeHistogram, ChartMeta{Bins: 4}, ChartInput{
		Values: []ValueSeries{
			{Name: "Survived", Values: []float64{0, 10}},
			{Name: "Died", Values: []float64{20, 40}},
			{Name: "Nobody"},
		},
	})
	require.NoError(t, err)
	require.Len(t, spec.Series, 3)
	for i := 0; i < 2; i++ {
		assert.Equal(t, spec.Series[0].Points[i].X, spec.Series[1].Points[i].X)
	}
	assert.Empty(t, spec.Series[2].Points)
	assert.True(t, spec.ShowLegend)
}

func TestBuildChartViolinDensityIntegratesToOne(t *testing.T) {
	spec, err := BuildChart(models.ArchetypeViolin, ChartMeta{Bins: 5}, ChartInput{
		Values: []ValueSeries{{Name: "First", Values: []float64{10, 20, 30, 40, 50, 60}}},
	})
	require.NoError(t, err)
	width := 10.0
	var area float64
	for _, pt := range spec.Series[0].Points {
		area += pt.Y * width
	}
	assert.InDelta(t, 1.0, area, 1e-9)
}

func TestBuildChartBoxFiveNumbers(t *testing.T) {
	spec, err := BuildChart(models.ArchetypeBox, ChartMeta{Colors: classColors}, ChartInput{
		Values: []ValueSeries{{Name: "First", Values: []float64{1, 2, 3, 4}}, {Name: "Second"}},
	})
	require.NoError(t, err)
	first := spec.Series[0].Points
	require.Len(t, first, 5)
	assert.Equal(t, []float64{1, 1.75, 2.5, 3.25, 4}, []float64{first[0].Y, first[1].Y, first[2].Y, first[3].Y, first[4].Y})
	for _, pt := range spec.Series[1].Points {
		assert.True(t, pt.Undefined)
	}
	assert.Equal(t, classColors[1], spec.Series[1].Color)
}

func TestBuildChartPieShares(t *testing.T) {
	spec, err := BuildChart(models.ArchetypePie, ChartMeta{}, ChartInput{
		Pairs: []PairSeries{{Name: "Passengers", Pairs: []Pair{
			{Label: "First", Value: models.Defined(1)},
			{Label: "Third", Value: models.Defined(3)},
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "25.0%", spec.Series[0].Points[0].Text)
	assert.Equal(t, "75.0%", spec.Series[0].Points[1].Text)
}

func TestBuildChartHeatmapCopiesGrid(t *testing.T) {
	grid := models.Grid{RowLabels: []string{"Child"}, ColLabels: []string{"First"}, Cells: [][]models.Measure{{models.Defined(1)}}}
	spec, err := BuildChart(models.ArchetypeHeatmap, ChartMeta{}, ChartInput{Grid: &grid})
	require.NoError(t, err)
	require.NotNil(t, spec.Grid)
	assert.NotSame(t, &grid, spec.Grid)
	assert.Equal(t, grid, *spec.Grid)

	grid.Cells[0][0] = models.Undefined()
	grid.RowLabels[0] = "Teen"
	assert.Equal(t, models.Defined(1), spec.Grid.Cells[0][0])
	assert.Equal(t, "Child", spec.Grid.RowLabels[0])
}

func TestRequiredShapeCoversEveryArchetype(t *testing.T) {
	for _, a := range []models.Archetype{
		models.ArchetypeBar, models.ArchetypeHistogram, models.ArchetypeBox, models.ArchetypeScatter,
		models.ArchetypeViolin, models.ArchetypeHeatmap, models.ArchetypeComposite, models.ArchetypePie,
	} {
		_, ok := RequiredShape(a)
		assert.True(t, ok, a)
	}
}
