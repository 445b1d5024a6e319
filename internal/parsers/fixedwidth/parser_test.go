package fixedwidth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricelist-import/internal/types"
)

func collect(t *testing.T, tok *Tokenizer) []types.RawRow {
	t.Helper()
	var rows []types.RawRow
	for row, err := range tok.Rows() {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

func TestOverlappingColumns(t *testing.T) {
	tok, err := NewTokenizer("ABCDE", types.ParseConfig{
		FixedWidthColumns: []types.FixedWidthColumn{
			{Name: "a", Start: 0, Width: 5},
			{Name: "b", Start: 2, Width: 3},
		},
	})
	require.NoError(t, err)

	rows := collect(t, tok)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"ABCDE", "CDE"}, rows[0].Cells)
	assert.Equal(t, []string{"a", "b"}, tok.Columns())
}

func TestShortLinesAndSkipRows(t *testing.T) {
	content := "HEADER LINE\n\nSKU1  12,50  X\nSKU2  7\nS\n"
	tok, err := NewTokenizer(content, types.ParseConfig{
		SkipRows: 1,
		FixedWidthColumns: []types.FixedWidthColumn{
			{Name: "sku", Start: 0, Width: 6},
			{Name: "price", Start: 6, Width: 7},
			{Name: "flag", Start: 13, Width: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, tok.Count())

	rows := collect(t, tok)
	require.Len(t, rows, 3)
	assert.Equal(t, types.RawRow{LineNumber: 3, Cells: []string{"SKU1", "12,50", "X"}}, rows[0])
	assert.Equal(t, types.RawRow{LineNumber: 4, Cells: []string{"SKU2", "7", ""}}, rows[1])
	assert.Equal(t, types.RawRow{LineNumber: 5, Cells: []string{"S", "", ""}}, rows[2])
}

func TestHeaderSkippedAfterSkipRows(t *testing.T) {
	tok, err := NewTokenizer("title\nSKU  PRICE\nA    1\nB    2", types.ParseConfig{
		SkipRows:  1,
		HasHeader: true,
		FixedWidthColumns: []types.FixedWidthColumn{
			{Name: "sku", Start: 0, Width: 5},
			{Name: "price", Start: 5, Width: 5},
		},
	})
	require.NoError(t, err)

	rows := collect(t, tok)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].LineNumber)
	assert.Equal(t, []string{"B", "2"}, rows[1].Cells)
}

func TestInvalidColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []types.FixedWidthColumn
		wantErr string
	}{
		{name: "none", wantErr: "at least one column"},
		{name: "zero width", columns: []types.FixedWidthColumn{{Name: "a", Width: 0}}, wantErr: "invalid width"},
		{name: "negative start", columns: []types.FixedWidthColumn{{Name: "a", Start: -1, Width: 2}}, wantErr: "negative start"},
		{name: "unnamed", columns: []types.FixedWidthColumn{{Width: 2}}, wantErr: "no name"},
		{name: "duplicate", columns: []types.FixedWidthColumn{{Name: "a", Width: 2}, {Name: "a", Start: 2, Width: 2}}, wantErr: "declared twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenizer("ABCDE", types.ParseConfig{FixedWidthColumns: tt.columns})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlice(t *testing.T) {
	assert.Equal(t, "BC", Slice("ABCDE", 1, 2))
	assert.Equal(t, "DE", Slice("ABCDE", 3, 10))
	assert.Equal(t, "", Slice("ABCDE", 5, 1))
	assert.Equal(t, "x", Slice("  x  ", 0, 5))
	assert.Equal(t, "ČŠ", Slice("AČŠB", 1, 2))
}

func TestOffsetsCountCharacters(t *testing.T) {
	tok, err := NewTokenizer("KOŠNICA  00123A1\nČEP ŽUTI 00045B2", types.ParseConfig{
		FixedWidthColumns: []types.FixedWidthColumn{
			{Name: "opis", Start: 0, Width: 9},
			{Name: "cijena", Start: 9, Width: 5},
			{Name: "grupa", Start: 14, Width: 2},
		},
	})
	require.NoError(t, err)

	rows := collect(t, tok)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"KOŠNICA", "00123", "A1"}, rows[0].Cells)
	assert.Equal(t, []string{"ČEP ŽUTI", "00045", "B2"}, rows[1].Cells)
}
