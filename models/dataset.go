package models

// ColumnImputation records how one numeric column was filled.
type ColumnImputation struct {
	Column   string  `json:"column"`
	Mean     float64 `json:"mean"`
	Imputed  int     `json:"imputed"`
	Observed int     `json:"observed"`
}

// Dataset is the prepared, read-only passenger snapshot shared by every
// insight. It is built once at startup and never mutated afterwards; all
// accessors hand out copies.
type Dataset struct {
	passengers []Passenger
	imputation []ColumnImputation
}

// NewDataset copies the prepared rows into a new snapshot.
func NewDataset(passengers []Passenger, imputation []ColumnImputation) *Dataset {
	rows := make([]Passenger, len(passengers))
	copy(rows, passengers)
	imp := make([]ColumnImputation, len(imputation))
	copy(imp, imputation)
	return &Dataset{passengers: rows, imputation: imp}
}

// Len returns the number of passengers.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.passengers)
}

// At returns the passenger at index i.
func (d *Dataset) At(i int) Passenger { return d.passengers[i] }

// Each calls fn for every passenger in dataset order.
func (d *Dataset) Each(fn func(Passenger)) {
	if d == nil {
		return
	}
	for _, p := range d.passengers {
		fn(p)
	}
}

// Passengers returns a copy of all rows.
func (d *Dataset) Passengers() []Passenger {
	out := make([]Passenger, d.Len())
	if d != nil {
		copy(out, d.passengers)
	}
	return out
}

// Imputation returns the per-column imputation summary.
func (d *Dataset) Imputation() []ColumnImputation {
	if d == nil {
		return nil
	}
	out := make([]ColumnImputation, len(d.imputation))
	copy(out, d.imputation)
	return out
}

// ImputedValues is the total number of values filled during preparation.
func (d *Dataset) ImputedValues() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, c := range d.imputation {
		n += c.Imputed
	}
	return n
}
