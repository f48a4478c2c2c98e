package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"passenger-insights/models"
)

var (
	// numberRegexp captures a plain or comma-grouped decimal, optionally signed
	numberRegexp = regexp.MustCompile(`^-?[\d,]*\.?\d+$`)
	// missingTokens are cell values that mean "no value"
	missingTokens = map[string]struct{}{
		"": {}, "na": {}, "nan": {}, "null": {}, "none": {}, "n/a": {}, "?": {},
	}
)

// parseNumber converts a cell to a nullable number. Currency symbols and
// thousands separators are stripped; missing tokens yield an invalid value.
func parseNumber(raw string) (models.NullFloat, error) {
	s := strings.ToLower(normaliseText(raw))
	if _, missing := missingTokens[s]; missing {
		return models.Null(), nil
	}
	s = strings.TrimPrefix(s, "$")
	if !numberRegexp.MatchString(s) {
		return models.Null(), fmt.Errorf("not a number: %q", raw)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return models.Null(), fmt.Errorf("not a number: %q", raw)
	}
	return models.Float(v), nil
}

// parseRow turns one record's required cells into a RawPassenger.
func parseRow(cells map[string]string) (*models.RawPassenger, error) {
	age, err := parseNumber(cells["age"])
	if err != nil {
		return nil, fmt.Errorf("age: %w", err)
	}
	fare, err := parseNumber(cells["fare"])
	if err != nil {
		return nil, fmt.Errorf("fare: %w", err)
	}
	sex, err := models.ParseSex(cells["sex"])
	if err != nil {
		return nil, err
	}
	class, err := models.ParseClass(cells["class"])
	if err != nil {
		return nil, err
	}
	survived, err := models.ParseSurvived(cells["survived"])
	if err != nil {
		return nil, err
	}
	return &models.RawPassenger{Age: age, Fare: fare, Sex: sex, Class: class, Survived: survived}, nil
}

// columnAliases maps alternative header names onto required fields.
var columnAliases = map[string]string{
	"pclass": "class",
}

// normaliseHeader lower-cases a header cell and resolves aliases.
func normaliseHeader(s string) string {
	h := strings.ToLower(normaliseText(strings.TrimPrefix(s, "\ufeff")))
	if alias, ok := columnAliases[h]; ok {
		return alias
	}
	return h
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// missingFields lists required fields absent from present, in canonical order.
func missingFields(present map[string]int) []string {
	var missing []string
	for _, f := range models.RequiredFields {
		if _, ok := present[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func formatNullable(v models.NullFloat) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Value, 'f', -1, 64)
}
