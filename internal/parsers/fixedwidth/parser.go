// Package fixedwidth tokenizes supplier files whose fields sit at fixed byte
// offsets. Column ranges may overlap, which templates use to re-read part of
// an already sliced field as a separate virtual column.
package fixedwidth

import (
	"fmt"
	"iter"
	"strings"

	"github.com/kosarica/pricelist-import/internal/types"
)

// Tokenizer slices fixed-width lines into raw rows
type Tokenizer struct {
	lines     []string
	columns   []types.FixedWidthColumn
	names     []string
	dataStart int
}

// NewTokenizer validates the column layout and prepares content for tokenizing
func NewTokenizer(content string, cfg types.ParseConfig) (*Tokenizer, error) {
	if len(cfg.FixedWidthColumns) == 0 {
		return nil, fmt.Errorf("fixed-width format requires at least one column")
	}
	if cfg.SkipRows < 0 {
		return nil, fmt.Errorf("skip_rows must not be negative: %d", cfg.SkipRows)
	}

	names := make([]string, len(cfg.FixedWidthColumns))
	seen := make(map[string]bool, len(cfg.FixedWidthColumns))
	for i, col := range cfg.FixedWidthColumns {
		name := strings.TrimSpace(col.Name)
		switch {
		case name == "":
			return nil, fmt.Errorf("fixed-width column %d has no name", i+1)
		case seen[name]:
			return nil, fmt.Errorf("fixed-width column %q declared twice", name)
		case col.Start < 0:
			return nil, fmt.Errorf("fixed-width column %q has negative start %d", name, col.Start)
		case col.Width <= 0:
			return nil, fmt.Errorf("fixed-width column %q has invalid width %d", name, col.Width)
		}
		seen[name] = true
		names[i] = name
	}

	lines := splitLines(content)
	dataStart := min(cfg.SkipRows, len(lines))
	if cfg.HasHeader {
		for dataStart < len(lines) && strings.TrimSpace(lines[dataStart]) == "" {
			dataStart++
		}
		dataStart = min(dataStart+1, len(lines))
	}

	return &Tokenizer{
		lines:     lines,
		columns:   cfg.FixedWidthColumns,
		names:     names,
		dataStart: dataStart,
	}, nil
}

// Columns returns the declared column names in declaration order
func (t *Tokenizer) Columns() []string {
	return t.names
}

// Rows yields one row per non-blank data line. Every call restarts from the
// first data row.
func (t *Tokenizer) Rows() iter.Seq2[types.RawRow, error] {
	return func(yield func(types.RawRow, error) bool) {
		for i := t.dataStart; i < len(t.lines); i++ {
			line := t.lines[i]
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !yield(types.RawRow{LineNumber: i + 1, Cells: t.slice(line)}, nil) {
				return
			}
		}
	}
}

// Count returns the number of non-blank data rows
func (t *Tokenizer) Count() int {
	count := 0
	for _, line := range t.lines[t.dataStart:] {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// slice cuts every declared column out of line. Offsets count characters of
// the decoded line, which are the bytes of the single-byte encodings supplier
// files use; columns past the end of a short line come back empty.
func (t *Tokenizer) slice(line string) []string {
	chars := []rune(line)
	cells := make([]string, len(t.columns))
	for i, col := range t.columns {
		cells[i] = sliceRunes(chars, col.Start, col.Width)
	}
	return cells
}

// Slice returns the trimmed characters [start, start+width) of line, clamped
// to the line length
func Slice(line string, start, width int) string {
	return sliceRunes([]rune(line), start, width)
}

func sliceRunes(chars []rune, start, width int) string {
	if start >= len(chars) {
		return ""
	}
	end := min(start+width, len(chars))
	return strings.TrimSpace(string(chars[start:end]))
}

func splitLines(content string) []string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
