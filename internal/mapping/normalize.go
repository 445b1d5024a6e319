package mapping

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var separatorRunRe = regexp.MustCompile(`[\s_\-]+`)

var croatianReplacer = strings.NewReplacer(
	"č", "c", "Č", "C",
	"ć", "c", "Ć", "C",
	"đ", "dj", "Đ", "Dj",
	"š", "s", "Š", "S",
	"ž", "z", "Ž", "Z",
)

// RemoveDiacritics folds accented letters to ASCII so headers such as
// "Šifra" and "sifra" compare equal
func RemoveDiacritics(s string) string {
	s = croatianReplacer.Replace(s)

	// General NFD normalization + strip combining marks
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName lower-cases a header or alias, folds diacritics and collapses
// runs of underscores, dashes and whitespace into a single underscore
func NormalizeName(name string) string {
	s := strings.ToLower(RemoveDiacritics(strings.TrimSpace(name)))
	s = separatorRunRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
