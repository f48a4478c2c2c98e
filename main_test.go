package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passenger-insights/config"
	"passenger-insights/models"
	"passenger-insights/services"
	"passenger-insights/utils"
)

const datasetCSV = `survived,pclass,sex,age,fare
0,3,male,30,10
1,1,female,8,50
0,2,male,40,
`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "titanic.csv")
	require.NoError(t, os.WriteFile(path, []byte(datasetCSV), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListJSON(t *testing.T) {
	out, err := execute(t, "list", "--json")
	require.NoError(t, err)

	var opts []services.Option
	require.NoError(t, json.Unmarshal([]byte(out), &opts))
	require.Len(t, opts, 10)
	assert.Equal(t, "survival_counts", opts[0].Key)
	assert.Equal(t, "data_overview", opts[9].Key)
}

func TestShowJSON(t *testing.T) {
	t.Setenv("DATASET_SOURCE", "csv")
	out, err := execute(t, "--dataset", writeDataset(t), "show", "data_overview", "--json")
	require.NoError(t, err)

	var p models.Presentation
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "data_overview", p.Key)
	assert.Equal(t, "33.3%", p.Stats.Value("Survival Rate"))
}

func TestShowUnknownKey(t *testing.T) {
	_, err := execute(t, "show", "lifeboats")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownInsight)
	assert.Contains(t, err.Error(), "passenger-insights list")
}

func TestExportWritesWorkbook(t *testing.T) {
	t.Setenv("DATASET_SOURCE", "csv")
	dir := t.TempDir()
	_, err := execute(t, "--dataset", writeDataset(t), "export", "survival_counts", "gender_survival", "--xlsx", "--out", dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "survival_counts.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "gender_survival.xlsx"))
	assert.NoFileExists(t, filepath.Join(dir, "survival_counts.png"))
}

func TestPrepareWritesDerivedColumns(t *testing.T) {
	t.Setenv("DATASET_SOURCE", "csv")
	out := filepath.Join(t.TempDir(), "prepared.csv")
	_, err := execute(t, "--dataset", writeDataset(t), "prepare", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "age_group")
	assert.Contains(t, string(data), "40,30,male,Second,0,Adult,Low,false,true")
}

func TestResolveKeysDeduplicates(t *testing.T) {
	registry, err := services.DefaultRegistry()
	require.NoError(t, err)

	keys, err := resolveKeys(registry, []string{"gender_survival", "multi_factor", "gender_survival"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gender_survival", "multi_factor"}, keys)

	_, err = resolveKeys(registry, []string{"gender_survival", "nope"})
	assert.ErrorIs(t, err, models.ErrUnknownInsight)
}

func TestBuildAllKeepsSelectorOrder(t *testing.T) {
	registry, err := services.DefaultRegistry()
	require.NoError(t, err)
	ds, err := services.NewFeatureDeriver(utils.NewNopLogger()).Prepare([]*models.RawPassenger{
		{Age: models.Float(30), Fare: models.Float(10), Sex: models.Male, Class: models.Third},
		{Age: models.Float(8), Fare: models.Float(50), Sex: models.Female, Class: models.First, Survived: true},
	})
	require.NoError(t, err)
	svc := services.NewInsightService(utils.NewNopLogger(), registry, ds)

	all, err := buildAll(svc, 3, utils.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, all, len(registry.Keys()))
	for i, key := range registry.Keys() {
		assert.Equal(t, key, all[i].Key)
	}
}

// captureStd swaps os.Stdout and os.Stderr for pipes while fn runs.
func captureStd(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)

	origOut, origErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outW, errW
	fn()
	os.Stdout, os.Stderr = origOut, origErr
	require.NoError(t, outW.Close())
	require.NoError(t, errW.Close())

	o, err := io.ReadAll(outR)
	require.NoError(t, err)
	e, err := io.ReadAll(errR)
	require.NoError(t, err)
	return string(o), string(e)
}

func TestNewLoggerRoutesAwayFromDataStdout(t *testing.T) {
	cfg := &config.Config{}

	stdout, stderr := captureStd(t, func() {
		newLogger(cfg, true).Info("loaded %d rows", 3)
	})
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "loaded 3 rows")

	stdout, _ = captureStd(t, func() {
		newLogger(cfg, false).Info("loaded %d rows", 4)
	})
	assert.Contains(t, stdout, "loaded 4 rows")
}
