package csv

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/kosarica/pricelist-import/internal/types"
)

// ErrMissingHeader is returned when has_header is set but no header line remains
var ErrMissingHeader = errors.New("header row not found")

// Tokenizer splits delimited content into raw rows
type Tokenizer struct {
	lines     []string
	delimiter rune
	quoteChar rune
	columns   []string
	dataStart int
	detected  bool
}

// NewTokenizer prepares content for tokenizing under cfg. An empty delimiter
// is auto-detected from the lines after skip_rows.
func NewTokenizer(content string, cfg types.ParseConfig) (*Tokenizer, error) {
	if cfg.SkipRows < 0 {
		return nil, fmt.Errorf("skip_rows must not be negative: %d", cfg.SkipRows)
	}
	lines := SplitLines(content)

	delimiter := CsvDelimiter(cfg.Delimiter)
	detected := false
	if delimiter == "" {
		delimiter = DetectDelimiter(strings.Join(lines[min(cfg.SkipRows, len(lines)):], "\n"))
		detected = true
	}

	delimRune, err := singleRune("delimiter", string(delimiter))
	if err != nil {
		return nil, err
	}

	quoteRune := rune(DefaultQuoteChar)
	if cfg.QuoteChar != "" {
		if quoteRune, err = singleRune("quote_char", cfg.QuoteChar); err != nil {
			return nil, err
		}
	}
	if quoteRune == delimRune {
		return nil, fmt.Errorf("quote_char and delimiter must differ")
	}

	t := &Tokenizer{
		lines:     lines,
		delimiter: delimRune,
		quoteChar: quoteRune,
		detected:  detected,
	}

	t.dataStart = min(cfg.SkipRows, len(t.lines))
	if cfg.HasHeader {
		idx := t.nextNonBlank(t.dataStart)
		if idx < 0 {
			return nil, ErrMissingHeader
		}
		t.columns = UniqueColumnNames(SplitCSVLine(t.lines[idx], t.delimiter, t.quoteChar))
		t.dataStart = idx + 1
	} else if idx := t.nextNonBlank(t.dataStart); idx >= 0 {
		n := len(SplitCSVLine(t.lines[idx], t.delimiter, t.quoteChar))
		t.columns = PositionalColumnNames(n)
	}

	return t, nil
}

// Columns returns the resolved column names
func (t *Tokenizer) Columns() []string {
	return t.columns
}

// Delimiter returns the delimiter in use
func (t *Tokenizer) Delimiter() CsvDelimiter {
	return CsvDelimiter(string(t.delimiter))
}

// DelimiterDetected reports whether the delimiter was auto-detected
func (t *Tokenizer) DelimiterDetected() bool {
	return t.detected
}

// Rows yields data rows in file order. A row whose cell count differs from the
// column count is yielded with a *types.RowError. Every call restarts from the
// first data row.
func (t *Tokenizer) Rows() iter.Seq2[types.RawRow, error] {
	return func(yield func(types.RawRow, error) bool) {
		for i := t.dataStart; i < len(t.lines); i++ {
			line := t.lines[i]
			if strings.TrimSpace(line) == "" {
				continue
			}

			row := types.RawRow{
				LineNumber: i + 1,
				Cells:      SplitCSVLine(line, t.delimiter, t.quoteChar),
			}

			var rowErr error
			if len(row.Cells) != len(t.columns) {
				rowErr = &types.RowError{
					LineNumber: row.LineNumber,
					Message:    fmt.Sprintf("expected %d cells but found %d", len(t.columns), len(row.Cells)),
				}
			}

			if !yield(row, rowErr) {
				return
			}
		}
	}
}

// Count returns the number of non-blank data rows
func (t *Tokenizer) Count() int {
	count := 0
	for i := t.dataStart; i < len(t.lines); i++ {
		if strings.TrimSpace(t.lines[i]) != "" {
			count++
		}
	}
	return count
}

func (t *Tokenizer) nextNonBlank(from int) int {
	for i := from; i < len(t.lines); i++ {
		if strings.TrimSpace(t.lines[i]) != "" {
			return i
		}
	}
	return -1
}

// PositionalColumnNames names headerless columns column_1..column_n
func PositionalColumnNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("column_%d", i+1)
	}
	return names
}

// UniqueColumnNames fills blank header cells with positional names and
// suffixes repeated names so every column can be addressed by name
func UniqueColumnNames(headers []string) []string {
	names := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		names[i] = name
	}
	return names
}

func singleRune(field, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", field, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
