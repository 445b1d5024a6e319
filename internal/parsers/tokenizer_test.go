package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricelist-import/internal/types"
)

func TestNewTokenizer(t *testing.T) {
	tok, err := NewTokenizer("sku;price\nA1;10,00\n", types.ParseConfig{HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "price"}, tok.Columns())
	assert.Equal(t, 1, tok.Count())

	tok, err = NewTokenizer("A1  10\n", types.ParseConfig{
		FormatType: types.FormatFixedWidth,
		FixedWidthColumns: []types.FixedWidthColumn{
			{Name: "sku", Start: 0, Width: 4},
			{Name: "price", Start: 4, Width: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "price"}, tok.Columns())

	_, err = NewTokenizer("not a workbook", types.ParseConfig{FormatType: types.FormatXLSX})
	assert.Error(t, err)

	_, err = NewTokenizer("", types.ParseConfig{FormatType: "xml"})
	assert.ErrorContains(t, err, "unsupported format type")
}
