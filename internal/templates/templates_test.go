package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricelist-import/internal/importer"
	"github.com/kosarica/pricelist-import/internal/parsers/charset"
	"github.com/kosarica/pricelist-import/internal/parsers/fixedwidth"
	"github.com/kosarica/pricelist-import/internal/types"
	"github.com/kosarica/pricelist-import/internal/variants"
)

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, TemplateCNH, list[0].ID)
	assert.Equal(t, TemplateGenericCSV, list[1].ID)
	assert.Equal(t, TemplateGenericExcel, list[2].ID)

	_, err := r.MustGet("missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	err = r.Register(Builtins()[0])
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    types.ImportTemplate
		wantErr string
	}{
		{
			name: "minimal csv",
			tmpl: types.ImportTemplate{ID: "ok"},
		},
		{
			name:    "missing id",
			tmpl:    types.ImportTemplate{},
			wantErr: "template id is required",
		},
		{
			name: "zero width column",
			tmpl: types.ImportTemplate{
				ID:       "fw",
				FileType: types.FormatFixedWidth,
				ParseConfig: types.ParseConfig{
					FixedWidthColumns: []types.FixedWidthColumn{{Name: "a", Start: 0, Width: 0}},
				},
			},
			wantErr: "invalid width",
		},
		{
			name: "mapping to undeclared column",
			tmpl: types.ImportTemplate{
				ID:       "fw",
				FileType: types.FormatFixedWidth,
				ParseConfig: types.ParseConfig{
					FixedWidthColumns: []types.FixedWidthColumn{{Name: "a", Start: 0, Width: 3}},
				},
				ColumnMapping: types.ColumnMapping{{Column: "b", Field: "variant_sku"}},
			},
			wantErr: "undeclared column",
		},
		{
			name: "mismatched format",
			tmpl: types.ImportTemplate{
				ID:          "x",
				FileType:    types.FormatCSV,
				ParseConfig: types.ParseConfig{FormatType: types.FormatXLSX},
			},
			wantErr: "does not match",
		},
		{
			name: "bad transformation",
			tmpl: types.ImportTemplate{
				ID: "x",
				ParseConfig: types.ParseConfig{
					Transformations: map[string]types.TransformationSpec{"price": {Type: types.TransformDivide}},
				},
			},
			wantErr: "price",
		},
		{
			name: "conflicting mapping",
			tmpl: types.ImportTemplate{
				ID: "x",
				ColumnMapping: types.ColumnMapping{
					{Column: "a", Field: "variant_sku"},
					{Column: "b", Field: "variant_sku"},
				},
			},
			wantErr: "invalid column mapping",
		},
		{
			name:    "two character delimiter",
			tmpl:    types.ImportTemplate{ID: "x", ParseConfig: types.ParseConfig{Delimiter: "||"}},
			wantErr: "single character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.tmpl)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	yamlTemplate := `
name: ACME parts
file_type: csv
parse_config:
  delimiter: ";"
  has_header: true
  transformations:
    Cijena:
      type: divide
      divisor: 100
column_mapping:
  - column: Sifra
    field: variant_sku
  - column: Cijena
    field: net_price
pricing_mode: net_only
`
	jsonTemplate := `{
  "id": "beta",
  "file_type": "fixed-width",
  "parse_config": {
    "fixed_width_columns": [
      {"name": "sku", "start": 0, "width": 6},
      {"name": "net", "start": 6, "width": 8}
    ]
  },
  "column_mapping": [
    {"column": "sku", "field": "variant_sku"},
    {"column": "net", "field": "net_price"}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(yamlTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.json"), []byte(jsonTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not a template"), 0o644))

	r := NewRegistry()
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	acme, ok := r.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "ACME parts", acme.Name)
	assert.Equal(t, types.FormatCSV, acme.ParseConfig.FormatType)
	assert.Equal(t, ";", acme.ParseConfig.Delimiter)
	assert.Equal(t, types.PricingNetOnly, acme.PricingMode)
	require.Contains(t, acme.ParseConfig.Transformations, "Cijena")
	assert.Equal(t, 100.0, acme.ParseConfig.Transformations["Cijena"].Divisor)
	assert.Equal(t, types.ColumnMapping{
		{Column: "Sifra", Field: "variant_sku"},
		{Column: "Cijena", Field: "net_price"},
	}, acme.ColumnMapping)

	beta, ok := r.Get("beta")
	require.True(t, ok)
	assert.Equal(t, types.FormatFixedWidth, beta.ParseConfig.FormatType)
	assert.Len(t, beta.ParseConfig.FixedWidthColumns, 2)
}

func TestLoadDirRejectsInvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	bad := "id: bad\nfile_type: fixed-width\nparse_config:\n  fixed_width_columns:\n    - name: a\n      start: 0\n      width: 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(bad), 0o644))

	n, err := NewRegistry().LoadDir(dir)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "bad.yml")
}

func TestCNHTemplateImport(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))
	tmpl, err := r.MustGet(TemplateCNH)
	require.NoError(t, err)

	line := func(mpc, mpl, opis string, vpc int, group, date string) string {
		return fmt.Sprintf("%-18s%-3s%-40s%011d%-4s%s", mpc, mpl, opis, vpc, group, date)
	}
	content := line("000000000012345678", "CNH", "Hydraulic filter", 12345, "A1XX", "20240115") + "\n" +
		line("000000000087654321", "CNH", "Seal kit", 500, "ZZ00", "00000000") + "\n"

	im := importer.New(importer.DefaultOptions(), zerolog.Nop())
	res, err := im.Import(context.Background(), importer.Request{
		Content:       content,
		ParseConfig:   tmpl.ParseConfig,
		ColumnMapping: tmpl.ColumnMapping,
		PricingMode:   tmpl.PricingMode,
		Variants: variants.NewIndex([]variants.Variant{
			{ID: "v1", ProductID: "p1", SKU: "12345678", BrandID: "b-cnh", BrandCode: "CNH"},
			{ID: "v2", ProductID: "p2", SKU: "87654321", BrandID: "b-cnh", BrandCode: "CNH"},
		}),
		Supplier: types.SupplierContext{
			ID:        "cnh",
			Discounts: types.DiscountStructure{Type: types.PricingCodeMapping, Mappings: map[string]float64{"A1": 25}},
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "v1", item.ProductVariantID)
	require.NotNil(t, item.SupplierSKU)
	assert.Equal(t, "000000000012345678CNH", *item.SupplierSKU)
	require.NotNil(t, item.GrossPrice)
	assert.Equal(t, int64(12345), *item.GrossPrice)
	assert.Equal(t, int64(9259), item.NetPrice)
	require.NotNil(t, item.DiscountCode)
	assert.Equal(t, "A1", *item.DiscountCode)

	// The second row has an unknown discount group and an empty date
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Line 2:")
	assert.Len(t, res.Warnings, 1)
}

func TestCNHTemplateLegacyEncoding(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))
	tmpl, err := r.MustGet(TemplateCNH)
	require.NoError(t, err)

	// "KOŠNICA FILTER" in Windows-1250, where Š is the single byte 0x8A
	raw := fmt.Sprintf("%-18s%-3s%-40s%s%-4s%s", "000000000012345678", "CNH", "KO\x8aNICA FILTER", "00000012345", "A1", "20240115")
	require.Len(t, raw, 84)

	enc, err := charset.ParseEncoding(tmpl.ParseConfig.Encoding)
	require.NoError(t, err)
	content, err := charset.Decode([]byte(raw), enc)
	require.NoError(t, err)

	tok, err := fixedwidth.NewTokenizer(content, tmpl.ParseConfig)
	require.NoError(t, err)

	var cells []string
	for row, err := range tok.Rows() {
		require.NoError(t, err)
		cells = row.Cells
	}
	assert.Equal(t, []string{
		"000000000012345678",
		"CNH",
		"000000000012345678CNH",
		"KOŠNICA FILTER",
		"00000012345",
		"A1",
		"20240115",
	}, cells)

	im := importer.New(importer.DefaultOptions(), zerolog.Nop())
	res, err := im.Import(context.Background(), importer.Request{
		Content:       content,
		ParseConfig:   tmpl.ParseConfig,
		ColumnMapping: tmpl.ColumnMapping,
		PricingMode:   tmpl.PricingMode,
		Variants: variants.NewIndex([]variants.Variant{
			{ID: "v1", ProductID: "p1", SKU: "12345678", BrandID: "b-cnh", BrandCode: "CNH"},
		}),
		Supplier: types.SupplierContext{
			Discounts: types.DiscountStructure{Type: types.PricingCodeMapping, Mappings: map[string]float64{"A1": 25}},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.NotNil(t, res.Items[0].GrossPrice)
	assert.Equal(t, int64(12345), *res.Items[0].GrossPrice)
	assert.Equal(t, int64(9259), res.Items[0].NetPrice)
	assert.True(t, res.Success)
}
