package services

import (
	"errors"
	"fmt"

	"passenger-insights/models"
)

// ============================================================================
// FORMATTING — the only place numbers become text
// ============================================================================

// NotApplicable replaces any value that cannot be computed.
const NotApplicable = "N/A"

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatPercent renders a 0..1 fraction with one decimal ("62.9%").
func FormatPercent(m models.Measure) string {
	if !m.Defined {
		return NotApplicable
	}
	return fmt.Sprintf("%.1f%%", m.Value*100)
}

// FormatCountShare renders "577 (64.8%)".
func FormatCountShare(n int, share models.Measure) string {
	return fmt.Sprintf("%s (%s)", FormatInt(n), FormatPercent(share))
}

// FormatCurrency renders a dollar amount with comma separators ("$1,234.50").
func FormatCurrency(m models.Measure) string {
	if !m.Defined {
		return NotApplicable
	}
	amount := m.Value
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(amount*100 + 0.5)
	return fmt.Sprintf("%s$%s.%02d", sign, FormatInt(int(cents/100)), cents%100)
}

// FormatDecimal renders a value with prec decimals.
func FormatDecimal(m models.Measure, prec int) string {
	if !m.Defined {
		return NotApplicable
	}
	return fmt.Sprintf("%.*f", prec, m.Value)
}

// FormatYears renders an age value ("29.7 years").
func FormatYears(m models.Measure, prec int) string {
	if !m.Defined {
		return NotApplicable
	}
	return fmt.Sprintf("%.*f years", prec, m.Value)
}

// FormatTimes renders num/den as a multiplier ("3.9x"). A zero or undefined
// denominator yields NotApplicable.
func FormatTimes(num, den models.Measure) string {
	r, err := RatioOf(num, den)
	if errors.Is(err, models.ErrDivisionUndefined) {
		return NotApplicable
	}
	return fmt.Sprintf("%.1fx", r)
}

// FormatProportion renders num/den as "X.X:1".
func FormatProportion(num, den models.Measure) string {
	r, err := RatioOf(num, den)
	if errors.Is(err, models.ErrDivisionUndefined) {
		return NotApplicable
	}
	return fmt.Sprintf("%.1f:1", r)
}

// FormatOdds renders "1 in X" for count/hits.
func FormatOdds(count, hits int) string {
	r, err := RatioOf(models.Defined(float64(count)), models.Defined(float64(hits)))
	if errors.Is(err, models.ErrDivisionUndefined) {
		return NotApplicable
	}
	return fmt.Sprintf("1 in %.1f", r)
}

// FormatRange renders "lo - hi years" with no decimals.
func FormatRange(lo, hi models.Measure, unit string) string {
	if !lo.Defined || !hi.Defined {
		return NotApplicable
	}
	return fmt.Sprintf("%.0f - %.0f %s", lo.Value, hi.Value, unit)
}

// FormatFraction renders "136/216 survived (63.0%)".
func FormatFraction(part, whole int, verb string) string {
	return fmt.Sprintf("%s/%s %s (%s)", FormatInt(part), FormatInt(whole), verb,
		FormatPercent(Ratio(float64(part), float64(whole))))
}
