package csv

import (
	"strings"
	"unicode/utf8"

	"github.com/kosarica/pricelist-import/internal/types"
)

// DetectDelimiter guesses the delimiter from the first non-blank lines.
// A candidate qualifies when it occurs the same, non-zero number of times on
// every sampled line; the qualifying candidate with the highest count wins and
// ties go to the earlier candidate. Falls back to comma.
func DetectDelimiter(content string) CsvDelimiter {
	sampleLines := sampleLines(content, detectionSampleLines)
	if len(sampleLines) == 0 {
		return DelimiterComma
	}

	bestDelimiter := DelimiterComma
	bestCount := 0

	for _, delim := range candidateDelimiters {
		count, ok := consistentCount(sampleLines, string(delim))
		if !ok {
			continue
		}
		if count > bestCount {
			bestCount = count
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectFormat guesses whether content is delimited or fixed-width.
// Content with no qualifying delimiter whose sampled lines all share one
// length is reported as fixed-width.
func DetectFormat(content string) types.FormatType {
	sampleLines := sampleLines(content, detectionSampleLines)
	if len(sampleLines) < 2 {
		return types.FormatCSV
	}

	for _, delim := range candidateDelimiters {
		if _, ok := consistentCount(sampleLines, string(delim)); ok {
			return types.FormatCSV
		}
	}

	width := len(sampleLines[0])
	for _, line := range sampleLines[1:] {
		if len(line) != width {
			return types.FormatCSV
		}
	}
	return types.FormatFixedWidth
}

// consistentCount returns the per-line count of delim when it is equal and
// non-zero on every line
func consistentCount(lines []string, delim string) (int, bool) {
	count := strings.Count(lines[0], delim)
	if count == 0 {
		return 0, false
	}
	for _, line := range lines[1:] {
		if strings.Count(line, delim) != count {
			return 0, false
		}
	}
	return count, true
}

// sampleLines returns up to n non-blank lines
func sampleLines(content string, n int) []string {
	sample := make([]string, 0, n)
	for _, line := range SplitLines(content) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) >= n {
			break
		}
	}
	return sample
}

// SplitCSVLine splits a CSV line handling quoted fields.
// A quote toggles quoting, except that a doubled quote inside a quoted section
// is a literal quote. Fields are trimmed.
func SplitCSVLine(line string, delimiter rune, quoteChar rune) []string {
	fields := make([]string, 0, 10)
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); {
		r, width := utf8.DecodeRuneInString(line[i:])

		if r == quoteChar {
			if inQuotes && i+width < len(line) {
				next, nextWidth := utf8.DecodeRuneInString(line[i+width:])
				if next == quoteChar {
					current.WriteRune(quoteChar)
					i += width + nextWidth
					continue
				}
			}
			inQuotes = !inQuotes
			i += width
			continue
		}

		if r == delimiter && !inQuotes {
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
			i += width
			continue
		}

		current.WriteRune(r)
		i += width
	}

	// Add last field
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

// SplitLines splits content into lines handling different line endings
// and a leading UTF-8 byte order mark
func SplitLines(content string) []string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
