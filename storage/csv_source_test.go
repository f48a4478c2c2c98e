package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passenger-insights/models"
	"passenger-insights/utils"
)

const seabornSample = `survived,pclass,sex,age,sibsp,parch,fare,embarked,class,who
0,3,male,22.0,1,0,7.25,S,Third,man
1,1,female,38.0,1,0,71.2833,C,First,woman
1,3,female,,0,0,7.925,S,Third,woman
0,2,male,54.0,0,0,,S,Second,man
`

func TestReadPassengersSeabornLayout(t *testing.T) {
	rows, err := ReadPassengers(strings.NewReader(seabornSample), "sample")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, models.Third, rows[0].Class)
	assert.Equal(t, models.Male, rows[0].Sex)
	assert.False(t, rows[0].Survived)
	assert.Equal(t, 7.25, rows[0].Fare.Value)

	assert.False(t, rows[2].Age.Valid, "empty age cell is missing")
	assert.False(t, rows[3].Fare.Valid, "empty fare cell is missing")
	assert.Equal(t, models.Second, rows[3].Class)
}

func TestReadPassengersMissingColumns(t *testing.T) {
	_, err := ReadPassengers(strings.NewReader("age,sex,survived\n22,male,0\n"), "partial.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrSchema))

	var schemaErr *models.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"fare", "class"}, schemaErr.Missing)
	assert.Equal(t, "partial.csv", schemaErr.Source)
}

func TestReadPassengersEmptyInput(t *testing.T) {
	_, err := ReadPassengers(strings.NewReader(""), "empty.csv")
	assert.ErrorIs(t, err, models.ErrSchema)
}

func TestReadPassengersBadCellReportsLine(t *testing.T) {
	input := "age,fare,sex,class,survived\n22,7.25,male,3,0\n30,8.05,robot,3,0\n"
	_, err := ReadPassengers(strings.NewReader(input), "bad.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.False(t, errors.Is(err, models.ErrSchema))
}

func TestCSVSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titanic.csv")
	require.NoError(t, os.WriteFile(path, []byte(seabornSample), 0o644))

	src := NewCSVSource(path, utils.NewNopLogger())
	defer src.Close()
	rows, err := src.Load()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), utils.NewNopLogger()).Load()
	assert.Error(t, err)
}

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "raw.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	in := []*models.RawPassenger{
		{Age: models.Float(30), Fare: models.Float(10), Sex: models.Male, Class: models.Third},
		{Age: models.Null(), Fare: models.Float(50.5), Sex: models.Female, Class: models.First, Survived: true},
	}
	require.NoError(t, w.Write(in))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	out, err := ReadPassengers(f, path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCSVWriterWriteDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prepared.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	ds := models.NewDataset([]models.Passenger{
		{Age: 8, Fare: 30, FareImputed: true, Sex: models.Female, Class: models.First, Survived: true, AgeGroup: "Child", FareGroup: "Low"},
	}, nil)
	require.NoError(t, w.WriteDataset(ds))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "age,fare,sex,class,survived,age_group,fare_group,age_imputed,fare_imputed", lines[0])
	assert.Equal(t, "8,30,female,First,1,Child,Low,false,true", lines[1])
}
