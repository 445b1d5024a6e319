package templates

import (
	"fmt"

	"github.com/kosarica/pricelist-import/internal/types"
)

// Built-in template IDs
const (
	TemplateCNH          = "cnh"
	TemplateGenericCSV   = "generic-csv"
	TemplateGenericExcel = "generic-xlsx"
)

// Builtins returns the built-in templates.
//
// The CNH layout is fixed width. Its mpc_mpl column deliberately re-reads the
// part number characters together with the brand code, giving the combined
// supplier code without a separate field in the file.
func Builtins() []types.ImportTemplate {
	return []types.ImportTemplate{
		{
			ID:       TemplateCNH,
			Name:     "CNH Industrial parts price list",
			FileType: types.FormatFixedWidth,
			ParseConfig: types.ParseConfig{
				FormatType: types.FormatFixedWidth,
				Encoding:   "windows-1250",
				FixedWidthColumns: []types.FixedWidthColumn{
					{Name: "mpc", Start: 0, Width: 18},
					{Name: "mpl", Start: 18, Width: 3},
					{Name: "mpc_mpl", Start: 0, Width: 21},
					{Name: "opis", Start: 21, Width: 40},
					{Name: "vpc", Start: 61, Width: 11},
					{Name: "rabatna_grupa", Start: 72, Width: 4},
					{Name: "datum", Start: 76, Width: 8},
				},
				Transformations: map[string]types.TransformationSpec{
					"mpc":           {Type: types.TransformTrimZeros},
					"vpc":           {Type: types.TransformDivide, Divisor: 100},
					"rabatna_grupa": {Type: types.TransformSubstring, Start: 0, Length: 2},
					"datum":         {Type: types.TransformDate, InputFormat: "YYYYMMDD"},
				},
			},
			ColumnMapping: types.ColumnMapping{
				{Column: "mpc", Field: "variant_sku"},
				{Column: "mpl", Field: "brand_code"},
				{Column: "mpc_mpl", Field: "supplier_sku"},
				{Column: "opis", Field: "description"},
				{Column: "vpc", Field: "gross_price"},
				{Column: "rabatna_grupa", Field: "discount_code"},
				{Column: "datum"},
			},
			PricingMode: types.PricingCodeMapping,
		},
		{
			ID:       TemplateGenericCSV,
			Name:     "Generic delimited price list",
			FileType: types.FormatCSV,
			ParseConfig: types.ParseConfig{
				FormatType: types.FormatCSV,
				HasHeader:  true,
			},
		},
		{
			ID:       TemplateGenericExcel,
			Name:     "Generic Excel price list",
			FileType: types.FormatXLSX,
			ParseConfig: types.ParseConfig{
				FormatType: types.FormatXLSX,
				HasHeader:  true,
			},
		},
	}
}

// RegisterBuiltins adds the built-in templates to r
func RegisterBuiltins(r *Registry) error {
	for _, t := range Builtins() {
		if err := r.Register(t); err != nil {
			return fmt.Errorf("failed to register built-in template %s: %w", t.ID, err)
		}
	}
	return nil
}

// InitializeDefaultTemplates registers the built-ins in the default registry
func InitializeDefaultTemplates() error {
	return RegisterBuiltins(DefaultRegistry)
}
