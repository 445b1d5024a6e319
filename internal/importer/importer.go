// Package importer drives a price list through tokenizing, transformation,
// field mapping, pricing and variant resolution, collecting per-row
// diagnostics instead of aborting the batch.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/pricelist-import/internal/mapping"
	"github.com/kosarica/pricelist-import/internal/parsers"
	"github.com/kosarica/pricelist-import/internal/pricing"
	"github.com/kosarica/pricelist-import/internal/transform"
	"github.com/kosarica/pricelist-import/internal/types"
	"github.com/kosarica/pricelist-import/internal/variants"
)

const tracerName = "github.com/kosarica/pricelist-import/internal/importer"

// DefaultPreviewRows is used when a preview is requested without a limit
const DefaultPreviewRows = 10

// Options configures an Importer
type Options struct {
	// BrandAwareEnabled gates SKU disambiguation by brand and the brand
	// authorization and scoping checks
	BrandAwareEnabled bool
	// ToleranceCents is the accepted net price reconciliation difference
	ToleranceCents int64
	// Workers > 1 processes rows in parallel; output order is preserved
	Workers int
	// MaxRows caps the rows processed per run, 0 means no cap
	MaxRows int
	// PreviewRows is the default preview size
	PreviewRows int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		BrandAwareEnabled: true,
		ToleranceCents:    pricing.DefaultToleranceCents,
		Workers:           1,
		PreviewRows:       DefaultPreviewRows,
	}
}

// Request is everything one import run needs, fetched up front
type Request struct {
	Content       string
	ParseConfig   types.ParseConfig
	ColumnMapping types.ColumnMapping
	PricingMode   types.PricingMode
	Variants      *variants.Index
	Supplier      types.SupplierContext
	TargetBrandID string
}

// Importer runs imports and previews. It holds no per-run state and is safe
// for concurrent use.
type Importer struct {
	opts   Options
	logger zerolog.Logger
	tracer trace.Tracer
}

// New creates an Importer
func New(opts Options, logger zerolog.Logger) *Importer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}
	if opts.ToleranceCents < 0 {
		opts.ToleranceCents = pricing.DefaultToleranceCents
	}
	return &Importer{
		opts:   opts,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// plan is the validated, compiled form of a request
type plan struct {
	tokenizer  parsers.Tokenizer
	columns    []string
	transforms *transform.Set
	fields     mapping.Resolved
	mapped     map[string]bool
	reconciler *pricing.Reconciler
	resolver   *variants.Resolver
}

// Import processes every data row of req.Content. Structural problems found
// before row processing return a failed result together with a
// *StructuralError; row problems only become diagnostics.
func (im *Importer) Import(ctx context.Context, req Request) (*types.ImportResult, error) {
	ctx, span := im.tracer.Start(ctx, "importer.Import",
		trace.WithAttributes(attribute.String("pricing_mode", string(req.PricingMode))))
	defer span.End()

	start := time.Now()
	acc := newAccumulator()
	res := &types.ImportResult{
		RunID: uuid.NewString(),
		State: types.StateIdle,
	}
	span.SetAttributes(attribute.String("run_id", res.RunID))

	logger := im.logger.With().
		Str("run_id", res.RunID).
		Str("pricing_mode", string(req.PricingMode)).
		Logger()
	logger.Info().Str("format", string(req.ParseConfig.FormatType)).Msg("Starting import")

	res.State = types.StateValidating
	p, serr := im.validate(req, acc)
	if serr != nil {
		acc.add(types.RowDiagnostic{Severity: types.SeverityError, Code: types.CodeStructural, Message: serr.Error()})
		res.State = types.StateCompleted
		acc.finish(res)
		if p != nil && p.columns != nil {
			res.Columns = p.columns
			res.ColumnCount = len(p.columns)
		}

		importRuns.WithLabelValues(string(req.PricingMode), "structural").Inc()
		recordDiagnostics(res.Diagnostics)
		span.RecordError(serr)
		span.SetStatus(codes.Error, serr.Error())
		logger.Error().Err(serr).Msg("Import aborted before row processing")
		return res, serr
	}

	res.Columns = p.columns
	res.ColumnCount = len(p.columns)
	res.TotalRows = p.tokenizer.Count()

	res.State = types.StateRowProcessing
	var outcomes []rowOutcome
	if im.opts.Workers > 1 {
		outcomes, res.Aborted = im.processParallel(ctx, p)
	} else {
		outcomes, res.Aborted = im.processSequential(ctx, p)
	}

	for _, out := range outcomes {
		res.ProcessedRows++
		acc.diagnostics = append(acc.diagnostics, out.diagnostics...)
		if out.item != nil {
			acc.items = append(acc.items, *out.item)
		}
	}

	res.State = types.StateCompleted
	acc.finish(res)
	res.ValidRows = len(res.Items)
	res.InvalidRows = res.ProcessedRows - res.ValidRows

	outcome := "success"
	switch {
	case res.Aborted:
		outcome = "aborted"
	case !res.Success:
		outcome = "failed"
	}
	importRuns.WithLabelValues(string(req.PricingMode), outcome).Inc()
	importRows.WithLabelValues("accepted").Add(float64(res.ValidRows))
	importRows.WithLabelValues("rejected").Add(float64(res.InvalidRows))
	importDuration.WithLabelValues(string(req.PricingMode)).Observe(time.Since(start).Seconds())
	recordDiagnostics(res.Diagnostics)

	span.SetAttributes(
		attribute.Int("rows.total", res.TotalRows),
		attribute.Int("rows.processed", res.ProcessedRows),
		attribute.Int("rows.valid", res.ValidRows),
		attribute.Bool("success", res.Success),
		attribute.Bool("aborted", res.Aborted),
	)

	logger.Info().
		Int("total_rows", res.TotalRows).
		Int("processed_rows", res.ProcessedRows).
		Int("valid_rows", res.ValidRows).
		Int("invalid_rows", res.InvalidRows).
		Int("errors", len(res.Errors)).
		Int("warnings", len(res.Warnings)).
		Bool("aborted", res.Aborted).
		Dur("duration", time.Since(start)).
		Msg("Import completed")

	// Log first few errors
	if len(res.Errors) > 0 {
		maxErrors := 5
		if len(res.Errors) < maxErrors {
			maxErrors = len(res.Errors)
		}
		for _, msg := range res.Errors[:maxErrors] {
			logger.Warn().Str("diagnostic", msg).Msg("Row rejected")
		}
		if len(res.Errors) > maxErrors {
			logger.Warn().Int("more", len(res.Errors)-maxErrors).Msg("Additional rows rejected")
		}
	}

	return res, nil
}

// validate compiles the request. Run-level warnings are added to acc.
func (im *Importer) validate(req Request, acc *accumulator) (*plan, *StructuralError) {
	if !req.PricingMode.Valid() {
		return nil, structural("validate pricing mode", fmt.Errorf("unknown pricing mode %q", req.PricingMode))
	}

	tok, err := parsers.NewTokenizer(req.Content, req.ParseConfig)
	if err != nil {
		return nil, structural("parse file", err)
	}
	p := &plan{tokenizer: tok, columns: tok.Columns()}

	p.transforms, err = transform.NewSet(req.ParseConfig.Transformations)
	if err != nil {
		return p, structural("compile transformations", err)
	}
	for _, column := range p.transforms.UnknownColumns(p.columns) {
		acc.add(types.RowDiagnostic{
			Severity: types.SeverityWarning,
			Code:     types.CodeTransform,
			Message:  fmt.Sprintf("transformation declared for unknown column %q; ignoring", column),
		})
	}

	var warnings []string
	p.fields, warnings = mapping.Resolve(req.ColumnMapping, mapping.CatalogFor(req.PricingMode))
	for _, w := range warnings {
		acc.add(types.RowDiagnostic{Severity: types.SeverityWarning, Code: types.CodeMapping, Message: w})
	}
	if missing := p.fields.Missing(mapping.ImportRequired(req.PricingMode), p.columns); len(missing) > 0 {
		return p, structural("validate columns",
			fmt.Errorf("%w for %s pricing: %v", ErrMissingRequiredColumn, req.PricingMode, missing))
	}
	p.mapped = make(map[string]bool, len(p.fields))
	for _, column := range p.fields {
		p.mapped[column] = true
	}

	p.reconciler, err = pricing.NewReconciler(req.PricingMode, req.Supplier.Discounts, im.opts.ToleranceCents)
	if err != nil {
		return p, structural("configure pricing", err)
	}

	p.resolver = variants.NewResolver(req.Variants, variants.Options{
		BrandAware:    im.opts.BrandAwareEnabled,
		Supplier:      req.Supplier,
		TargetBrandID: req.TargetBrandID,
	})

	if !im.opts.BrandAwareEnabled {
		acc.add(types.RowDiagnostic{
			Severity: types.SeverityWarning,
			Code:     types.CodeBrandConstraintsDisabled,
			Message:  "brand-aware purchasing is disabled; brand constraints were not applied and the first variant matching each SKU was used",
		})
	} else if col, ok := p.fields.Column(mapping.FieldBrandCode); !ok || !containsColumn(p.columns, col) {
		acc.add(types.RowDiagnostic{
			Severity: types.SeverityWarning,
			Code:     types.CodeMapping,
			Message:  "no brand_code column mapped; duplicate SKUs cannot be disambiguated by brand",
		})
	}

	return p, nil
}

// processSequential handles rows in order, stopping between rows when ctx is
// cancelled or MaxRows is reached
func (im *Importer) processSequential(ctx context.Context, p *plan) ([]rowOutcome, bool) {
	var outcomes []rowOutcome
	for row, rowErr := range p.tokenizer.Rows() {
		if ctx.Err() != nil || im.capped(len(outcomes)) {
			return outcomes, true
		}
		outcomes = append(outcomes, p.process(row, rowErr))
	}
	return outcomes, false
}

// processParallel fans rows out to a bounded worker pool and merges the
// outcomes back in source order. Rows not started before cancellation are
// dropped from the tail.
func (im *Importer) processParallel(ctx context.Context, p *plan) ([]rowOutcome, bool) {
	type job struct {
		row types.RawRow
		err error
	}

	var jobs []job
	aborted := false
	for row, rowErr := range p.tokenizer.Rows() {
		if im.capped(len(jobs)) {
			aborted = true
			break
		}
		jobs = append(jobs, job{row: row, err: rowErr})
	}

	outcomes := make([]rowOutcome, len(jobs))
	done := make([]bool, len(jobs))

	var g errgroup.Group
	g.SetLimit(im.opts.Workers)
	for i, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = p.process(j.row, j.err)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	// Keep the completed prefix so partial results stay in source order
	n := 0
	for n < len(done) && done[n] {
		n++
	}
	if n < len(jobs) {
		aborted = true
	}
	return outcomes[:n], aborted
}

func (im *Importer) capped(processed int) bool {
	return im.opts.MaxRows > 0 && processed >= im.opts.MaxRows
}

func containsColumn(columns []string, column string) bool {
	for _, c := range columns {
		if c == column {
			return true
		}
	}
	return false
}

func recordDiagnostics(diags []types.RowDiagnostic) {
	for _, d := range diags {
		importDiagnostics.WithLabelValues(string(d.Severity), string(d.Code)).Inc()
	}
}
