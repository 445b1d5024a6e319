package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/kosarica/pricelist-import/internal/parsers/csv"
	"github.com/kosarica/pricelist-import/internal/types"
	"github.com/xuri/excelize/v2"
)

// ErrMissingHeader is returned when has_header is set but the sheet has no header row
var ErrMissingHeader = errors.New("header row not found in worksheet")

// Tokenizer reads a worksheet into raw rows. Spreadsheet row numbers are used
// as line numbers.
type Tokenizer struct {
	rows      [][]string
	columns   []string
	dataStart int
	sheet     string
}

// NewTokenizer opens the workbook and reads the configured sheet, or the
// first sheet when none is configured
func NewTokenizer(content []byte, cfg types.ParseConfig) (*Tokenizer, error) {
	if cfg.SkipRows < 0 {
		return nil, fmt.Errorf("skip_rows must not be negative: %d", cfg.SkipRows)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := selectSheet(f, cfg.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheetName, err)
	}

	for i, row := range rows {
		for j, cell := range row {
			rows[i][j] = strings.TrimSpace(cell)
		}
	}

	t := &Tokenizer{
		rows:  rows,
		sheet: sheetName,
	}

	t.dataStart = min(cfg.SkipRows, len(rows))
	if cfg.HasHeader {
		idx := t.nextNonEmpty(t.dataStart)
		if idx < 0 {
			return nil, ErrMissingHeader
		}
		t.columns = csv.UniqueColumnNames(rows[idx])
		t.dataStart = idx + 1
	} else {
		width := 0
		for _, row := range rows[t.dataStart:] {
			width = max(width, len(row))
		}
		t.columns = csv.PositionalColumnNames(width)
	}

	return t, nil
}

// Sheet returns the name of the worksheet being read
func (t *Tokenizer) Sheet() string {
	return t.sheet
}

// Columns returns the resolved column names
func (t *Tokenizer) Columns() []string {
	return t.columns
}

// Rows yields data rows. Worksheets drop empty trailing cells, so short rows
// are padded; rows wider than the header are reported as *types.RowError.
func (t *Tokenizer) Rows() iter.Seq2[types.RawRow, error] {
	return func(yield func(types.RawRow, error) bool) {
		for i := t.dataStart; i < len(t.rows); i++ {
			cells := t.rows[i]
			if isEmptyRow(cells) {
				continue
			}

			row := types.RawRow{LineNumber: i + 1}
			var rowErr error
			if len(cells) > len(t.columns) {
				row.Cells = cells
				rowErr = &types.RowError{
					LineNumber: row.LineNumber,
					Message:    fmt.Sprintf("expected %d cells but found %d", len(t.columns), len(cells)),
				}
			} else {
				row.Cells = make([]string, len(t.columns))
				copy(row.Cells, cells)
			}

			if !yield(row, rowErr) {
				return
			}
		}
	}
}

// Count returns the number of non-empty data rows
func (t *Tokenizer) Count() int {
	count := 0
	for _, row := range t.rows[t.dataStart:] {
		if !isEmptyRow(row) {
			count++
		}
	}
	return count
}

func (t *Tokenizer) nextNonEmpty(from int) int {
	for i := from; i < len(t.rows); i++ {
		if !isEmptyRow(t.rows[i]) {
			return i
		}
	}
	return -1
}

// selectSheet selects the appropriate sheet from the workbook
func selectSheet(f *excelize.File, name string) (string, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if name == "" {
		return sheetList[0], nil
	}

	for _, sheet := range sheetList {
		if sheet == name {
			return sheet, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found. Available sheets: %s", name, strings.Join(sheetList, ", "))
}

// isEmptyRow checks if a row is empty
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
