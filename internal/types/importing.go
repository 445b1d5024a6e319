package types

import (
	"fmt"
	"strconv"

	"github.com/invopop/jsonschema"
)

// FormatType represents supported supplier file layouts
type FormatType string

const (
	FormatCSV        FormatType = "csv"
	FormatFixedWidth FormatType = "fixed-width"
	FormatXLSX       FormatType = "xlsx"
)

// PricingMode is the supplier convention for representing gross, discount and net prices
type PricingMode string

const (
	PricingNetOnly     PricingMode = "net_only"
	PricingCalculated  PricingMode = "calculated"
	PricingPercentage  PricingMode = "percentage"
	PricingCodeMapping PricingMode = "code_mapping"
)

// PricingModes lists all valid pricing modes
var PricingModes = []PricingMode{
	PricingNetOnly,
	PricingCalculated,
	PricingPercentage,
	PricingCodeMapping,
}

// Valid reports whether m is a known pricing mode
func (m PricingMode) Valid() bool {
	for _, known := range PricingModes {
		if m == known {
			return true
		}
	}
	return false
}

// RawRow is one tokenized source line
type RawRow struct {
	LineNumber int      `json:"lineNumber"` // 1-based line in the source file
	Cells      []string `json:"cells"`
}

// FixedWidthColumn declares a character range of a fixed-width line.
// Ranges may overlap.
type FixedWidthColumn struct {
	Name  string `json:"name" mapstructure:"name"`
	Start int    `json:"start" mapstructure:"start"`
	Width int    `json:"width" mapstructure:"width"`
}

// TransformationType names a column transformation kind
type TransformationType string

const (
	TransformDivide    TransformationType = "divide"
	TransformDate      TransformationType = "date"
	TransformSubstring TransformationType = "substring"
	TransformTrimZeros TransformationType = "trim_zeros"
)

// TransformationSpec is the serialized form of a column transformation
type TransformationSpec struct {
	Type        TransformationType `json:"type" mapstructure:"type"`
	Divisor     float64            `json:"divisor,omitempty" mapstructure:"divisor"`
	InputFormat string             `json:"input_format,omitempty" mapstructure:"input_format"`
	Start       int                `json:"start,omitempty" mapstructure:"start"`
	Length      int                `json:"length,omitempty" mapstructure:"length"`
}

// ParseConfig describes how a supplier file is tokenized
type ParseConfig struct {
	FormatType        FormatType                    `json:"format_type" mapstructure:"format_type"`
	Delimiter         string                        `json:"delimiter,omitempty" mapstructure:"delimiter"`
	QuoteChar         string                        `json:"quote_char,omitempty" mapstructure:"quote_char"`
	HasHeader         bool                          `json:"has_header" mapstructure:"has_header"`
	SkipRows          int                           `json:"skip_rows,omitempty" mapstructure:"skip_rows"`
	FixedWidthColumns []FixedWidthColumn            `json:"fixed_width_columns,omitempty" mapstructure:"fixed_width_columns"`
	Transformations   map[string]TransformationSpec `json:"transformations,omitempty" mapstructure:"transformations"`
	Encoding          string                        `json:"encoding,omitempty" mapstructure:"encoding"`
	Sheet             string                        `json:"sheet,omitempty" mapstructure:"sheet"` // xlsx only
}

// ColumnAssignment assigns a parsed column to a target field. An empty Field
// leaves the column unmapped.
type ColumnAssignment struct {
	Column string `json:"column" mapstructure:"column"`
	Field  string `json:"field,omitempty" mapstructure:"field"`
}

// ColumnMapping is an ordered list of column assignments
type ColumnMapping []ColumnAssignment

// FieldFor returns the field assigned to column, if any
func (m ColumnMapping) FieldFor(column string) (string, bool) {
	for _, a := range m {
		if a.Column == column && a.Field != "" {
			return a.Field, true
		}
	}
	return "", false
}

// ValueKind tags the type held by a Value
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueDate
)

// Value is a typed cell value produced by the column transformer.
// Dates are held as ISO-8601 (YYYY-MM-DD) strings.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// NullValue returns the null value
func NullValue() Value { return Value{Kind: ValueNull} }

// StringValue wraps s
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue wraps n
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// DateValue wraps an ISO date string
func DateValue(iso string) Value { return Value{Kind: ValueDate, Str: iso} }

// IsNull reports whether the value is null or an empty string
func (v Value) IsNull() bool {
	return v.Kind == ValueNull || (v.Kind == ValueString && v.Str == "")
}

// String renders the value for display and for text-based field parsing
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueString, ValueDate:
		return v.Str
	default:
		return ""
	}
}

// MarshalJSON renders null, string, number or date values as plain JSON scalars
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
	case ValueString, ValueDate:
		return []byte(strconv.Quote(v.Str)), nil
	default:
		return []byte("null"), nil
	}
}

// JSONSchema describes Value as the scalar it marshals to
func (Value) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "null"},
			{Type: "string"},
			{Type: "number"},
		},
	}
}

// ParsedPriceListItem is the normalized output of one accepted row.
// Money amounts are integer minor units (cents).
type ParsedPriceListItem struct {
	LineNumber         int      `json:"line_number"`
	ProductVariantID   string   `json:"product_variant_id"`
	ProductID          string   `json:"product_id"`
	SupplierSKU        *string  `json:"supplier_sku,omitempty"`
	VariantSKU         *string  `json:"variant_sku,omitempty"`
	GrossPrice         *int64   `json:"gross_price,omitempty"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	DiscountCode       *string  `json:"discount_code,omitempty"`
	NetPrice           int64    `json:"net_price"`
	Quantity           int      `json:"quantity"`
	LeadTimeDays       *int     `json:"lead_time_days,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
}

// ErrorSeverity represents severity levels
type ErrorSeverity string

const (
	SeverityWarning ErrorSeverity = "warning"
	SeverityError   ErrorSeverity = "error"
)

// DiagnosticCode classifies a diagnostic so callers can tell, for example,
// brand scoping rejections apart from missing variants.
type DiagnosticCode string

const (
	CodeTokenize                 DiagnosticCode = "tokenize"
	CodeTransform                DiagnosticCode = "transform"
	CodeInvalidValue             DiagnosticCode = "invalid_value"
	CodeMissingValue             DiagnosticCode = "missing_value"
	CodePricing                  DiagnosticCode = "pricing"
	CodeReconciliationMismatch   DiagnosticCode = "reconciliation_mismatch"
	CodeUnknownDiscountCode      DiagnosticCode = "unknown_discount_code"
	CodeVariantNotFound          DiagnosticCode = "variant_not_found"
	CodeBrandDisambiguation      DiagnosticCode = "brand_disambiguation"
	CodeBrandNotSupplied         DiagnosticCode = "brand_not_supplied"
	CodeBrandScope               DiagnosticCode = "brand_scope"
	CodeMapping                  DiagnosticCode = "mapping"
	CodeBrandConstraintsDisabled DiagnosticCode = "brand_constraints_disabled"
	CodeBrandCodeIgnored         DiagnosticCode = "brand_code_ignored"
	CodeStructural               DiagnosticCode = "structural"
)

// RowDiagnostic is an error or warning tied to a source line.
// LineNumber 0 marks run-level diagnostics.
type RowDiagnostic struct {
	LineNumber int            `json:"line_number"`
	Severity   ErrorSeverity  `json:"severity"`
	Code       DiagnosticCode `json:"code"`
	Message    string         `json:"message"`
}

// String formats the diagnostic as a flat message
func (d RowDiagnostic) String() string {
	if d.LineNumber > 0 {
		return fmt.Sprintf("Line %d: %s", d.LineNumber, d.Message)
	}
	return d.Message
}

// DiscountStructure is the supplier's discount convention
type DiscountStructure struct {
	Type              PricingMode        `json:"type" mapstructure:"type"`
	DefaultPercentage *float64           `json:"default_percentage,omitempty" mapstructure:"default_percentage"`
	Mappings          map[string]float64 `json:"mappings,omitempty" mapstructure:"mappings"`
}

// SupplierContext carries the pre-fetched supplier data an import needs
type SupplierContext struct {
	ID                   string            `json:"id"`
	Discounts            DiscountStructure `json:"discount_structure"`
	BrandAwarePurchasing bool              `json:"brand_aware_purchasing"`
	AuthorizedBrandIDs   []string          `json:"authorized_brand_ids,omitempty"`
}

// ImportTemplate is a named, reusable parse config and column mapping
type ImportTemplate struct {
	ID            string        `json:"id" mapstructure:"id"`
	Name          string        `json:"name" mapstructure:"name"`
	FileType      FormatType    `json:"file_type" mapstructure:"file_type"`
	ParseConfig   ParseConfig   `json:"parse_config" mapstructure:"parse_config"`
	ColumnMapping ColumnMapping `json:"column_mapping" mapstructure:"column_mapping"`
	PricingMode   PricingMode   `json:"pricing_mode,omitempty" mapstructure:"pricing_mode"`
}

// ImportState is the orchestrator state
type ImportState string

const (
	StateIdle          ImportState = "idle"
	StateValidating    ImportState = "validating"
	StateRowProcessing ImportState = "row_processing"
	StateCompleted     ImportState = "completed"
)

// ImportResult is the outcome of a full import run
type ImportResult struct {
	RunID         string                `json:"run_id"`
	State         ImportState           `json:"state"`
	Success       bool                  `json:"success"`
	Aborted       bool                  `json:"aborted"`
	Items         []ParsedPriceListItem `json:"parsed_items"`
	Diagnostics   []RowDiagnostic       `json:"diagnostics"`
	Errors        []string              `json:"errors"`
	Warnings      []string              `json:"warnings"`
	Columns       []string              `json:"columns"`
	ColumnCount   int                   `json:"column_count"`
	TotalRows     int                   `json:"total_rows"`
	ProcessedRows int                   `json:"processed_rows"`
	ValidRows     int                   `json:"valid_rows"`
	InvalidRows   int                   `json:"invalid_rows"`
	// Fingerprint hashes the accepted prices independent of row order
	Fingerprint   string                `json:"fingerprint"`
}

// PreviewRow is a transformed, not yet mapped row
type PreviewRow struct {
	LineNumber int              `json:"line_number"`
	Values     map[string]Value `json:"values"`
}

// PreviewResult is the outcome of parsing the first rows of a file
type PreviewResult struct {
	Columns           []string        `json:"columns"`
	Rows              []PreviewRow    `json:"rows"`
	Diagnostics       []RowDiagnostic `json:"diagnostics"`
	Errors            []string        `json:"errors"`
	Warnings          []string        `json:"warnings"`
	TotalRows         int             `json:"total_rows"`
	DetectedDelimiter string          `json:"detected_delimiter,omitempty"`
	DetectedFormat    FormatType      `json:"detected_format,omitempty"`
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to the given int64
func Int64Ptr(i int64) *int64 {
	return &i
}

// RowError reports a row that could not be tokenized; the batch continues
type RowError struct {
	LineNumber int
	Message    string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.LineNumber, e.Message)
}
