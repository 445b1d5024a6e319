package csv

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var currencySuffixRe = regexp.MustCompile(`\s*(KN|KUNA|HRK|EUR|USD)\s*$`)

// ParsePrice parses a price string to cents (integer)
// Handles various formats: "12.99", "12,99", "1.299,00", "1 299,00 EUR"
func ParsePrice(value string) (int64, error) {
	amount, err := ParseNumber(value)
	if err != nil {
		return 0, fmt.Errorf("invalid price format: %w", err)
	}
	return ToCents(amount)
}

// ToCents converts an amount in major units to cents. Amounts whose cents do
// not fit in an int64 are rejected; float64(math.MaxInt64) is 2^63.
func ToCents(amount float64) (int64, error) {
	cents := math.Round(amount * 100)
	if math.IsNaN(cents) || cents >= math.MaxInt64 || cents < math.MinInt64 {
		return 0, fmt.Errorf("amount out of range: %v", amount)
	}
	return int64(cents), nil
}

// ParseNumber parses a decimal number written with either decimal separator,
// optional thousands separators, currency symbols and a percent sign
func ParseNumber(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}

	cleaned = strings.Map(func(r rune) rune {
		// Remove currency symbols, percent sign and thousands spaces
		if r == '€' || r == '$' || r == '£' || r == '%' ||
			r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, cleaned)

	// Remove common currency text (kn, KUNA, etc.)
	cleaned = currencySuffixRe.ReplaceAllString(strings.ToUpper(cleaned), "")
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric value found")
	}

	// If there's a comma after a dot, comma is decimal separator (European)
	// If there's a dot after a comma, dot is decimal separator (US)
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")

	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if lastDot > lastComma {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	hasDigit := strings.IndexFunc(cleaned, unicode.IsDigit) >= 0
	if !hasDigit {
		return 0, fmt.Errorf("no digits found in %q", value)
	}

	result, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("not a finite number: %q", value)
	}
	return result, nil
}

// FormatCents formats cents as a decimal string (e.g., 1299 -> "12.99")
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// FormatCentsEuropean formats cents as a European decimal string (e.g., 1299 -> "12,99")
func FormatCentsEuropean(cents int64) string {
	return strings.ReplaceAll(FormatCents(cents), ".", ",")
}
