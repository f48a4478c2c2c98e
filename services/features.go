package services

import (
	"fmt"
	"math"

	"passenger-insights/models"
	"passenger-insights/utils"
)

// OutOfRange labels values outside the outermost bin edges.
const OutOfRange = "Out of Range"

// BinSpec cuts a continuous column into ordinal labels. Intervals are
// right-inclusive: label i covers (Edges[i], Edges[i+1]].
type BinSpec struct {
	Column string
	Edges  []float64
	Labels []string
}

var (
	// AgeBins groups passenger age.
	AgeBins = BinSpec{
		Column: "age",
		Edges:  []float64{0, 12, 20, 40, 60, 80},
		Labels: []string{"Child", "Teen", "Adult", "Middle-Aged", "Senior"},
	}
	// FareBins groups ticket fare.
	FareBins = BinSpec{
		Column: "fare",
		Edges:  []float64{0, 10, 30, 50, 100, 200, 500},
		Labels: []string{"Very Low", "Low", "Medium", "High", "Very High", "Extremely High"},
	}
)

// Validate checks that there is one more edge than labels and that edges
// strictly increase.
func (b BinSpec) Validate() error {
	if len(b.Labels) == 0 || len(b.Edges) != len(b.Labels)+1 {
		return fmt.Errorf("bins %s: %d edges for %d labels", b.Column, len(b.Edges), len(b.Labels))
	}
	for i := 1; i < len(b.Edges); i++ {
		if !(b.Edges[i] > b.Edges[i-1]) {
			return fmt.Errorf("bins %s: edges not strictly increasing at %d", b.Column, i)
		}
	}
	return nil
}

// Assign returns the label of the interval containing v, or OutOfRange.
func (b BinSpec) Assign(v float64) string {
	if math.IsNaN(v) || v <= b.Edges[0] || v > b.Edges[len(b.Edges)-1] {
		return OutOfRange
	}
	for i := 1; i < len(b.Edges); i++ {
		if v <= b.Edges[i] {
			return b.Labels[i-1]
		}
	}
	return OutOfRange
}

// Bucket assigns a label to every value of a column.
func (b BinSpec) Bucket(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = b.Assign(v)
	}
	return out
}

// ImputeMean fills missing values with the mean of the observed ones. It
// returns a new column, the mean and the number of filled values. Running it
// on its own output changes nothing. ok is false when nothing was observed.
func ImputeMean(col []models.NullFloat) (filled []models.NullFloat, mean float64, imputed int, ok bool) {
	var sum float64
	observed := 0
	for _, v := range col {
		if v.Valid {
			sum += v.Value
			observed++
		}
	}
	filled = make([]models.NullFloat, len(col))
	copy(filled, col)
	if observed == 0 {
		return filled, 0, 0, len(col) == 0
	}

	mean = sum / float64(observed)
	for i, v := range filled {
		if !v.Valid {
			filled[i] = models.Float(mean)
			imputed++
		}
	}
	return filled, mean, imputed, true
}

// FeatureDeriver turns provider rows into the prepared Dataset.
type FeatureDeriver struct {
	logger *utils.Logger
	age    BinSpec
	fare   BinSpec
}

// NewFeatureDeriver creates a FeatureDeriver using the default age and fare bins.
func NewFeatureDeriver(logger *utils.Logger) *FeatureDeriver {
	return &FeatureDeriver{logger: logger, age: AgeBins, fare: FareBins}
}

// Prepare imputes missing age and fare values, derives the age and fare
// groups and returns the immutable snapshot.
func (d *FeatureDeriver) Prepare(raw []*models.RawPassenger) (*models.Dataset, error) {
	if err := d.age.Validate(); err != nil {
		return nil, err
	}
	if err := d.fare.Validate(); err != nil {
		return nil, err
	}

	ages := make([]models.NullFloat, len(raw))
	fares := make([]models.NullFloat, len(raw))
	for i, r := range raw {
		if r == nil {
			return nil, fmt.Errorf("features: row %d is nil", i)
		}
		if r.Fare.Valid && r.Fare.Value < 0 {
			return nil, fmt.Errorf("features: row %d has negative fare %.2f", i, r.Fare.Value)
		}
		ages[i] = r.Age
		fares[i] = r.Fare
	}

	filledAges, ageImp, err := d.impute("age", ages)
	if err != nil {
		return nil, err
	}
	filledFares, fareImp, err := d.impute("fare", fares)
	if err != nil {
		return nil, err
	}

	passengers := make([]models.Passenger, len(raw))
	outOfRange := 0
	for i, r := range raw {
		p := models.Passenger{
			Age:         filledAges[i].Value,
			Fare:        filledFares[i].Value,
			AgeImputed:  !r.Age.Valid,
			FareImputed: !r.Fare.Valid,
			Sex:         r.Sex,
			Class:       r.Class,
			Survived:    r.Survived,
		}
		p.AgeGroup = d.age.Assign(p.Age)
		p.FareGroup = d.fare.Assign(p.Fare)
		if p.AgeGroup == OutOfRange || p.FareGroup == OutOfRange {
			outOfRange++
		}
		passengers[i] = p
	}

	d.logger.Info("[features] Prepared %d passengers (imputed %d ages, %d fares; %d rows with an out-of-range group)",
		len(passengers), ageImp.Imputed, fareImp.Imputed, outOfRange)
	return models.NewDataset(passengers, []models.ColumnImputation{ageImp, fareImp}), nil
}

func (d *FeatureDeriver) impute(column string, col []models.NullFloat) ([]models.NullFloat, models.ColumnImputation, error) {
	filled, mean, imputed, ok := ImputeMean(col)
	if !ok {
		return nil, models.ColumnImputation{}, fmt.Errorf("features: column %s has no observed values to impute from", column)
	}
	if imputed > 0 {
		d.logger.Debug("[features] Filled %d missing %s values with mean %.4f", imputed, column, mean)
	}
	return filled, models.ColumnImputation{
		Column:   column,
		Mean:     mean,
		Imputed:  imputed,
		Observed: len(col) - imputed,
	}, nil
}
