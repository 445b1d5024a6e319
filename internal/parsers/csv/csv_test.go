package csv

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricelist-import/internal/types"
)

// TestDetectDelimiter tests automatic delimiter detection
func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected CsvDelimiter
	}{
		{name: "comma", content: "a,b,c\nd,e,f\ng,h,i", expected: DelimiterComma},
		{name: "semicolon", content: "a;b;c\nd;e;f\ng;h;i", expected: DelimiterSemicolon},
		{name: "tab", content: "a\tb\tc\nd\te\tf", expected: DelimiterTab},
		{name: "semicolon with decimal commas", content: "sku;price\nA;1,50\nB;2,75", expected: DelimiterSemicolon},
		{name: "highest consistent count wins", content: "a;b,c;d\ne;f,g;h", expected: DelimiterSemicolon},
		{name: "tie goes to comma", content: "a,b;c\nd,e;f", expected: DelimiterComma},
		{name: "inconsistent falls back to comma", content: "a;b\nc;d;e", expected: DelimiterComma},
		{name: "blank lines skipped", content: "\n\na;b\n\nc;d\n", expected: DelimiterSemicolon},
		{name: "only first three lines sampled", content: "a;b\nc;d\ne;f\ng,h,i;j", expected: DelimiterSemicolon},
		{name: "empty", content: "", expected: DelimiterComma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDelimiter(tt.content))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected types.FormatType
	}{
		{name: "delimited", content: "a,b\nc,d", expected: types.FormatCSV},
		{name: "fixed width", content: "ABC  00012\nDEF  00034\nGHI  00056", expected: types.FormatFixedWidth},
		{name: "ragged without delimiter", content: "abc\nde", expected: types.FormatCSV},
		{name: "single line", content: "ABCDEF", expected: types.FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.content))
		})
	}
}

func TestSplitCSVLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		delimiter rune
		expected  []string
	}{
		{name: "simple", line: "a,b,c", delimiter: ',', expected: []string{"a", "b", "c"}},
		{name: "trimmed", line: " a , b ,c ", delimiter: ',', expected: []string{"a", "b", "c"}},
		{name: "quoted delimiter", line: `"a,b",c`, delimiter: ',', expected: []string{"a,b", "c"}},
		{name: "escaped quote", line: `"He said ""hi""",x`, delimiter: ',', expected: []string{`He said "hi"`, "x"}},
		{name: "empty fields", line: "a,,", delimiter: ',', expected: []string{"a", "", ""}},
		{name: "semicolon", line: "1,50;2,00", delimiter: ';', expected: []string{"1,50", "2,00"}},
		{name: "unicode", line: "Šifra;Čep", delimiter: ';', expected: []string{"Šifra", "Čep"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitCSVLine(tt.line, tt.delimiter, '"'))
		})
	}
}

func TestTokenizer(t *testing.T) {
	content := "\ufeffexported 2024-01-01\nsku;name;price\r\nA1;\"Filter \"\"oil\"\"\";1,50\r\n\r\nC3;Gasket;3,00\r\nB2;Seal;2,00;extra\r\n"

	tok, err := NewTokenizer(content, types.ParseConfig{HasHeader: true, SkipRows: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "name", "price"}, tok.Columns())
	assert.Equal(t, DelimiterSemicolon, tok.Delimiter())
	assert.True(t, tok.DelimiterDetected())
	assert.Equal(t, 3, tok.Count())

	var rows []types.RawRow
	var rowErrs []error
	for row, err := range tok.Rows() {
		if err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		rows = append(rows, row)
	}

	require.Len(t, rows, 2)
	assert.Equal(t, types.RawRow{LineNumber: 3, Cells: []string{"A1", `Filter "oil"`, "1,50"}}, rows[0])
	assert.Equal(t, 5, rows[1].LineNumber)

	require.Len(t, rowErrs, 1)
	var rowErr *types.RowError
	require.True(t, errors.As(rowErrs[0], &rowErr))
	assert.Equal(t, 6, rowErr.LineNumber)
	assert.Equal(t, "expected 3 cells but found 4", rowErr.Message)

	// Rows restarts on every call
	count := 0
	for range tok.Rows() {
		count++
	}
	assert.Equal(t, 3, count)
}

func TestTokenizerHeaderless(t *testing.T) {
	tok, err := NewTokenizer("a,b\nc,d", types.ParseConfig{Delimiter: ","})
	require.NoError(t, err)

	assert.Equal(t, []string{"column_1", "column_2"}, tok.Columns())
	assert.False(t, tok.DelimiterDetected())
	assert.Equal(t, 2, tok.Count())
}

func TestTokenizerConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		cfg     types.ParseConfig
		wantErr error
	}{
		{name: "multi character delimiter", cfg: types.ParseConfig{Delimiter: "::"}},
		{name: "quote equals delimiter", cfg: types.ParseConfig{Delimiter: ",", QuoteChar: ","}},
		{name: "negative skip", cfg: types.ParseConfig{SkipRows: -1}},
		{name: "missing header", content: "a,b", cfg: types.ParseConfig{HasHeader: true, SkipRows: 5}, wantErr: ErrMissingHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenizer(tt.content, tt.cfg)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUniqueColumnNames(t *testing.T) {
	assert.Equal(t,
		[]string{"sku", "price", "price_2", "column_4"},
		UniqueColumnNames([]string{"sku", "price", "price", " "}))
}

// TestParsePrice tests European and US price format parsing
func TestParsePrice(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{input: "12.99", expected: 1299},
		{input: "12,99", expected: 1299},
		{input: "1.299,00", expected: 129900},
		{input: "1,299.00", expected: 129900},
		{input: "1 299,00 EUR", expected: 129900},
		{input: "€ 5", expected: 500},
		{input: "0,005", expected: 1},
		{input: "50.00", expected: 5000},
		{input: "", wantErr: true},
		{input: "notanumber", wantErr: true},
		{input: "EUR", wantErr: true},
		{input: "1e20", wantErr: true},
		{input: "-1e20", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cents, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cents)
		})
	}
}

func TestToCents(t *testing.T) {
	cents, err := ToCents(12.5)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), cents)

	cents, err = ToCents(-0.5)
	require.NoError(t, err)
	assert.Equal(t, int64(-50), cents)

	for _, amount := range []float64{1e20, -1e20, math.MaxInt64 / 100 * 2, math.NaN()} {
		_, err := ToCents(amount)
		assert.Error(t, err, "amount %v", amount)
	}
}

func TestParseNumber(t *testing.T) {
	n, err := ParseNumber("12,5%")
	require.NoError(t, err)
	assert.Equal(t, 12.5, n)

	_, err = ParseNumber("Inf")
	assert.Error(t, err)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12.99", FormatCents(1299))
	assert.Equal(t, "-0.05", FormatCents(-5))
	assert.Equal(t, "80,00", FormatCentsEuropean(8000))
}
