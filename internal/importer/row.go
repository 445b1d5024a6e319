package importer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kosarica/pricelist-import/internal/mapping"
	"github.com/kosarica/pricelist-import/internal/parsers/csv"
	"github.com/kosarica/pricelist-import/internal/pricing"
	"github.com/kosarica/pricelist-import/internal/types"
	"github.com/kosarica/pricelist-import/internal/variants"
)

// rowOutcome is the result of one row: an item when accepted, plus whatever
// diagnostics it raised
type rowOutcome struct {
	item        *types.ParsedPriceListItem
	diagnostics []types.RowDiagnostic
}

type rowReport struct {
	line   int
	diags  []types.RowDiagnostic
	failed bool
}

func (r *rowReport) add(severity types.ErrorSeverity, code types.DiagnosticCode, msg string) {
	if severity == types.SeverityError {
		r.failed = true
	}
	r.diags = append(r.diags, types.RowDiagnostic{
		LineNumber: r.line,
		Severity:   severity,
		Code:       code,
		Message:    msg,
	})
}

func (r *rowReport) errorf(code types.DiagnosticCode, format string, args ...any) {
	r.add(types.SeverityError, code, fmt.Sprintf(format, args...))
}

func (r *rowReport) warnf(code types.DiagnosticCode, format string, args ...any) {
	r.add(types.SeverityWarning, code, fmt.Sprintf(format, args...))
}

func (r *rowReport) outcome(item *types.ParsedPriceListItem) rowOutcome {
	if r.failed {
		item = nil
	}
	return rowOutcome{item: item, diagnostics: r.diags}
}

// process runs one row through transformation, field extraction, pricing and
// variant resolution. Each stage runs only if the previous one raised no
// error, so a row carries the first cause of its rejection.
func (p *plan) process(row types.RawRow, rowErr error) rowOutcome {
	rep := &rowReport{line: row.LineNumber}

	if rowErr != nil {
		var re *types.RowError
		if errors.As(rowErr, &re) && rep.line == 0 {
			rep.line = re.LineNumber
		}
		rep.errorf(types.CodeTokenize, "%s", rowErrorMessage(rowErr))
		return rep.outcome(nil)
	}

	values, issues := p.transforms.TransformRow(p.columns, row)
	for _, issue := range issues {
		// A broken cell only rejects the row when its column feeds a field
		if issue.Severity == types.SeverityError && !p.mapped[issue.Column] {
			rep.warnf(types.CodeTransform, "%s (column not mapped, ignored)", issue.Message)
			continue
		}
		rep.add(issue.Severity, types.CodeTransform, issue.Message)
	}
	if rep.failed {
		return rep.outcome(nil)
	}

	f := fieldReader{fields: p.fields, values: values, rep: rep}
	mode := p.reconciler.Mode()

	sku := f.text(mapping.FieldVariantSKU)
	if sku == "" {
		rep.errorf(types.CodeMissingValue, "%s is empty", mapping.FieldVariantSKU)
	}

	var prices pricing.Prices
	prices.Net = f.money(mapping.FieldNetPrice)
	if mode != types.PricingNetOnly {
		prices.Gross = f.money(mapping.FieldGrossPrice)
	}
	switch mode {
	case types.PricingPercentage:
		prices.DiscountPercentage = f.percent(mapping.FieldDiscountPercentage)
	case types.PricingCodeMapping:
		prices.DiscountCode = f.text(mapping.FieldDiscountCode)
	}

	quantity := 1
	if q, ok := f.integer(mapping.FieldQuantity, types.SeverityError); ok {
		if q < 1 {
			rep.errorf(types.CodeInvalidValue, "%s must be at least 1, got %d", mapping.FieldQuantity, q)
		} else {
			quantity = q
		}
	}

	var leadTime *int
	if d, ok := f.integer(mapping.FieldLeadTimeDays, types.SeverityWarning); ok {
		if d < 0 {
			rep.warnf(types.CodeInvalidValue, "%s must not be negative, got %d; ignoring", mapping.FieldLeadTimeDays, d)
		} else {
			leadTime = &d
		}
	}

	if rep.failed {
		return rep.outcome(nil)
	}

	reconciled, err := p.reconciler.Reconcile(prices)
	if err != nil {
		rep.errorf(pricingCode(err), "%v", err)
		return rep.outcome(nil)
	}
	for _, w := range reconciled.Warnings {
		rep.warnf(types.CodePricing, "%s", w)
	}

	resolution, err := p.resolver.Resolve(sku, f.text(mapping.FieldBrandCode))
	if err != nil {
		rep.errorf(variantCode(err), "%v", err)
		return rep.outcome(nil)
	}
	for _, w := range resolution.Warnings {
		rep.warnf(types.CodeBrandCodeIgnored, "%s", w)
	}

	item := &types.ParsedPriceListItem{
		LineNumber:         row.LineNumber,
		ProductVariantID:   resolution.Variant.ID,
		ProductID:          resolution.Variant.ProductID,
		SupplierSKU:        optional(f.text(mapping.FieldSupplierSKU)),
		VariantSKU:         types.StringPtr(sku),
		GrossPrice:         reconciled.Gross,
		DiscountPercentage: reconciled.DiscountPercentage,
		DiscountCode:       reconciled.DiscountCode,
		NetPrice:           reconciled.Net,
		Quantity:           quantity,
		LeadTimeDays:       leadTime,
		Notes:              optional(f.text(mapping.FieldNotes)),
	}
	return rep.outcome(item)
}

// fieldReader reads typed target field values from a transformed row.
// Unmapped fields and empty cells read as absent.
type fieldReader struct {
	fields mapping.Resolved
	values map[string]types.Value
	rep    *rowReport
}

func (f fieldReader) value(field string) (types.Value, bool) {
	column, ok := f.fields.Column(field)
	if !ok {
		return types.NullValue(), false
	}
	v, ok := f.values[column]
	if !ok || v.IsNull() {
		return types.NullValue(), false
	}
	if v.Kind == types.ValueString && strings.TrimSpace(v.Str) == "" {
		return types.NullValue(), false
	}
	return v, true
}

func (f fieldReader) text(field string) string {
	v, ok := f.value(field)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// money returns the amount in minor units. Numbers produced by a transform
// are taken as major units.
func (f fieldReader) money(field string) *int64 {
	v, ok := f.value(field)
	if !ok {
		return nil
	}
	switch v.Kind {
	case types.ValueNumber:
		cents, err := csv.ToCents(v.Num)
		if err == nil {
			return &cents
		}
	case types.ValueString:
		cents, err := csv.ParsePrice(v.Str)
		if err == nil {
			return &cents
		}
	}
	f.invalid(field, v, types.SeverityError)
	return nil
}

func (f fieldReader) percent(field string) *float64 {
	v, ok := f.value(field)
	if !ok {
		return nil
	}
	switch v.Kind {
	case types.ValueNumber:
		return &v.Num
	case types.ValueString:
		n, err := csv.ParseNumber(v.Str)
		if err == nil {
			return &n
		}
	}
	f.invalid(field, v, types.SeverityError)
	return nil
}

// integer returns a whole number; anything else is reported with severity
func (f fieldReader) integer(field string, severity types.ErrorSeverity) (int, bool) {
	v, ok := f.value(field)
	if !ok {
		return 0, false
	}
	n := v.Num
	var err error
	switch v.Kind {
	case types.ValueNumber:
	case types.ValueString:
		n, err = csv.ParseNumber(v.Str)
	default:
		err = errors.New("not a number")
	}
	if err != nil || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		f.invalid(field, v, severity)
		return 0, false
	}
	return int(n), true
}

func (f fieldReader) invalid(field string, v types.Value, severity types.ErrorSeverity) {
	msg := fmt.Sprintf("invalid %s value %q", field, v.String())
	if severity == types.SeverityWarning {
		msg += "; ignoring"
	}
	f.rep.add(severity, types.CodeInvalidValue, msg)
}

func pricingCode(err error) types.DiagnosticCode {
	switch {
	case errors.Is(err, pricing.ErrUnknownDiscountCode):
		return types.CodeUnknownDiscountCode
	case errors.Is(err, pricing.ErrReconciliationMismatch):
		return types.CodeReconciliationMismatch
	case errors.Is(err, pricing.ErrMissingNetPrice),
		errors.Is(err, pricing.ErrMissingGrossPrice),
		errors.Is(err, pricing.ErrMissingDiscount),
		errors.Is(err, pricing.ErrMissingDiscountCode):
		return types.CodeMissingValue
	default:
		return types.CodePricing
	}
}

func variantCode(err error) types.DiagnosticCode {
	switch {
	case errors.Is(err, variants.ErrVariantNotFound):
		return types.CodeVariantNotFound
	case errors.Is(err, variants.ErrBrandNotSupplied):
		return types.CodeBrandNotSupplied
	case errors.Is(err, variants.ErrOutsideTargetBrand):
		return types.CodeBrandScope
	default:
		return types.CodeBrandDisambiguation
	}
}

// rowErrorMessage strips the line prefix of a *types.RowError, which the
// diagnostic adds back
func rowErrorMessage(err error) string {
	var re *types.RowError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
