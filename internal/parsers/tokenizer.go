// Package parsers selects the tokenizer for a parse config.
package parsers

import (
	"fmt"
	"iter"

	"github.com/kosarica/pricelist-import/internal/parsers/csv"
	"github.com/kosarica/pricelist-import/internal/parsers/fixedwidth"
	"github.com/kosarica/pricelist-import/internal/parsers/xlsx"
	"github.com/kosarica/pricelist-import/internal/types"
)

// Tokenizer turns file content into raw rows
type Tokenizer interface {
	// Columns returns the ordered column names rows are aligned to
	Columns() []string
	// Rows lazily yields data rows; a non-nil error marks a row that must be
	// excluded from further processing. Each call starts over.
	Rows() iter.Seq2[types.RawRow, error]
	// Count returns the number of data rows in the file
	Count() int
}

// NewTokenizer builds the tokenizer for cfg.FormatType. Configuration
// problems are returned as errors before any row is produced. For xlsx the
// content holds the raw workbook bytes.
func NewTokenizer(content string, cfg types.ParseConfig) (Tokenizer, error) {
	switch cfg.FormatType {
	case types.FormatCSV, "":
		return csv.NewTokenizer(content, cfg)
	case types.FormatFixedWidth:
		return fixedwidth.NewTokenizer(content, cfg)
	case types.FormatXLSX:
		return xlsx.NewTokenizer([]byte(content), cfg)
	default:
		return nil, fmt.Errorf("unsupported format type: %q", cfg.FormatType)
	}
}
