package mapping

import "github.com/kosarica/pricelist-import/internal/types"

// Target field keys
const (
	FieldProductTitle       = "product_title"
	FieldVariantTitle       = "variant_title"
	FieldVariantSKU         = "variant_sku"
	FieldSupplierSKU        = "supplier_sku"
	FieldBrandCode          = "brand_code"
	FieldGrossPrice         = "gross_price"
	FieldNetPrice           = "net_price"
	FieldDiscountPercentage = "discount_percentage"
	FieldDiscountCode       = "discount_code"
	FieldDescription        = "description"
	FieldCategory           = "category"
	FieldQuantity           = "quantity"
	FieldLeadTimeDays       = "lead_time_days"
	FieldNotes              = "notes"
)

// FieldKind describes how a target field's value is parsed
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindMoney   FieldKind = "money"
	KindPercent FieldKind = "percent"
	KindInteger FieldKind = "integer"
)

// TargetField is one entry of the field catalog
type TargetField struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Aliases  []string  `json:"aliases"`
	Required bool      `json:"required"`
	Kind     FieldKind `json:"kind"`
}

// Catalog is an ordered list of target fields. Order decides which field
// wins during suggestion.
type Catalog []TargetField

// Field returns the catalog entry for key
func (c Catalog) Field(key string) (TargetField, bool) {
	for _, f := range c {
		if f.Key == key {
			return f, true
		}
	}
	return TargetField{}, false
}

// RequiredKeys returns the keys of required fields in catalog order
func (c Catalog) RequiredKeys() []string {
	var keys []string
	for _, f := range c {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

var baseFields = []TargetField{
	{Key: FieldProductTitle, Label: "Product title", Kind: KindText,
		Aliases: []string{"product_title", "product_name", "product", "title", "naziv", "naziv_proizvoda", "bezeichnung"}},
	{Key: FieldVariantTitle, Label: "Variant title", Kind: KindText,
		Aliases: []string{"variant_title", "variant_name", "variant"}},
	{Key: FieldVariantSKU, Label: "Variant SKU", Kind: KindText,
		Aliases: []string{"variant_sku", "sku", "article_number", "article", "artikel", "part_number", "part_no", "item_code", "mpc", "sifra", "sifra_artikla"}},
	{Key: FieldSupplierSKU, Label: "Supplier SKU", Kind: KindText,
		Aliases: []string{"supplier_sku", "supplier_code", "vendor_sku", "vendor_code"}},
	{Key: FieldBrandCode, Label: "Brand code", Kind: KindText,
		Aliases: []string{"brand_code", "brand", "manufacturer", "marka", "proizvodjac", "mpl"}},
	{Key: FieldGrossPrice, Label: "Gross price", Kind: KindMoney,
		Aliases: []string{"gross_price", "gross", "list_price", "retail_price", "msrp", "rrp", "brutto", "vpc"}},
	{Key: FieldNetPrice, Label: "Net price", Kind: KindMoney,
		Aliases: []string{"net_price", "net", "purchase_price", "cost_price", "netto", "nabavna_cijena"}},
	{Key: FieldDiscountPercentage, Label: "Discount %", Kind: KindPercent,
		Aliases: []string{"discount_percentage", "discount_percent", "discount_pct", "discount", "rabat", "popust"}},
	{Key: FieldDiscountCode, Label: "Discount code", Kind: KindText,
		Aliases: []string{"discount_code", "disc_code", "rabat_code", "rabatna_grupa", "price_group"}},
	{Key: FieldDescription, Label: "Description", Kind: KindText,
		Aliases: []string{"description", "desc", "opis"}},
	{Key: FieldCategory, Label: "Category", Kind: KindText,
		Aliases: []string{"category", "kategorija", "product_group"}},
	{Key: FieldQuantity, Label: "Quantity", Kind: KindInteger,
		Aliases: []string{"quantity", "qty", "kolicina", "pack_size", "moq"}},
	{Key: FieldLeadTimeDays, Label: "Lead time (days)", Kind: KindInteger,
		Aliases: []string{"lead_time_days", "lead_time", "delivery_days", "rok_isporuke"}},
	{Key: FieldNotes, Label: "Notes", Kind: KindText,
		Aliases: []string{"notes", "note", "remark", "comment", "napomena"}},
}

// alwaysRequired are required in every pricing mode
var alwaysRequired = map[string]bool{
	FieldProductTitle: true,
	FieldVariantTitle: true,
	FieldVariantSKU:   true,
	FieldGrossPrice:   true,
	FieldDescription:  true,
}

// discountField returns the discount representation a pricing mode requires
func discountField(mode types.PricingMode) string {
	switch mode {
	case types.PricingPercentage:
		return FieldDiscountPercentage
	case types.PricingCodeMapping:
		return FieldDiscountCode
	default:
		return FieldNetPrice
	}
}

// CatalogFor returns the target field catalog for a pricing mode. Only the
// required discount representation changes between modes.
func CatalogFor(mode types.PricingMode) Catalog {
	required := discountField(mode)
	catalog := make(Catalog, len(baseFields))
	for i, f := range baseFields {
		f.Aliases = append([]string(nil), f.Aliases...)
		f.Required = alwaysRequired[f.Key] || f.Key == required
		catalog[i] = f
	}
	return catalog
}

// ImportRequired returns the fields an import run cannot proceed without.
// This is narrower than the catalog's required set: titles and descriptions
// matter when creating products, not when pricing existing variants.
func ImportRequired(mode types.PricingMode) []string {
	switch mode {
	case types.PricingCalculated:
		return []string{FieldVariantSKU, FieldGrossPrice, FieldNetPrice}
	case types.PricingPercentage:
		return []string{FieldVariantSKU, FieldGrossPrice, FieldDiscountPercentage}
	case types.PricingCodeMapping:
		return []string{FieldVariantSKU, FieldGrossPrice, FieldDiscountCode}
	default:
		return []string{FieldVariantSKU, FieldNetPrice}
	}
}
