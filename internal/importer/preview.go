package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kosarica/pricelist-import/internal/parsers"
	"github.com/kosarica/pricelist-import/internal/parsers/csv"
	"github.com/kosarica/pricelist-import/internal/transform"
	"github.com/kosarica/pricelist-import/internal/types"
)

// Preview tokenizes and transforms the first limit rows of content without
// any field mapping. limit <= 0 uses the configured preview size. The total
// row count covers the whole file, not just the preview slice.
func (im *Importer) Preview(ctx context.Context, content string, cfg types.ParseConfig, limit int) (*types.PreviewResult, error) {
	ctx, span := im.tracer.Start(ctx, "importer.Preview")
	defer span.End()
	defer func(start time.Time) {
		previewDuration.Observe(time.Since(start).Seconds())
	}(time.Now())

	if limit <= 0 {
		limit = im.opts.PreviewRows
	}

	res := &types.PreviewResult{
		Columns: []string{},
		Rows:    []types.PreviewRow{},
	}
	if cfg.FormatType != types.FormatXLSX {
		data := dataLines(content, cfg.SkipRows)
		res.DetectedFormat = csv.DetectFormat(data)
		if res.DetectedFormat == types.FormatCSV {
			res.DetectedDelimiter = string(csv.DetectDelimiter(data))
		}
	}

	var diags []types.RowDiagnostic
	fail := func(stage string, err error) (*types.PreviewResult, error) {
		serr := structural(stage, err)
		diags = append(diags, types.RowDiagnostic{Severity: types.SeverityError, Code: types.CodeStructural, Message: serr.Error()})
		res.Diagnostics = diags
		res.Errors, res.Warnings = flatten(diags)
		span.RecordError(serr)
		span.SetStatus(codes.Error, serr.Error())
		return res, serr
	}

	tok, err := parsers.NewTokenizer(content, cfg)
	if err != nil {
		return fail("parse file", err)
	}
	res.Columns = tok.Columns()

	set, err := transform.NewSet(cfg.Transformations)
	if err != nil {
		return fail("compile transformations", err)
	}
	for _, column := range set.UnknownColumns(res.Columns) {
		diags = append(diags, types.RowDiagnostic{
			Severity: types.SeverityWarning,
			Code:     types.CodeTransform,
			Message:  fmt.Sprintf("transformation declared for unknown column %q; ignoring", column),
		})
	}

	for row, rowErr := range tok.Rows() {
		if len(res.Rows) >= limit || ctx.Err() != nil {
			break
		}
		if rowErr != nil {
			diags = append(diags, types.RowDiagnostic{
				LineNumber: row.LineNumber,
				Severity:   types.SeverityError,
				Code:       types.CodeTokenize,
				Message:    rowErrorMessage(rowErr),
			})
			continue
		}

		values, issues := set.TransformRow(res.Columns, row)
		for _, issue := range issues {
			diags = append(diags, types.RowDiagnostic{
				LineNumber: row.LineNumber,
				Severity:   issue.Severity,
				Code:       types.CodeTransform,
				Message:    issue.Message,
			})
		}
		res.Rows = append(res.Rows, types.PreviewRow{LineNumber: row.LineNumber, Values: values})
	}

	res.TotalRows = tok.Count()
	res.Diagnostics = diags
	if res.Diagnostics == nil {
		res.Diagnostics = []types.RowDiagnostic{}
	}
	res.Errors, res.Warnings = flatten(res.Diagnostics)

	span.SetAttributes(
		attribute.Int("rows.total", res.TotalRows),
		attribute.Int("rows.preview", len(res.Rows)),
	)
	im.logger.Debug().
		Int("columns", len(res.Columns)).
		Int("preview_rows", len(res.Rows)).
		Int("total_rows", res.TotalRows).
		Msg("Preview generated")

	return res, nil
}

// dataLines drops the skip_rows preamble so detection only sees the table
func dataLines(content string, skip int) string {
	lines := csv.SplitLines(content)
	return strings.Join(lines[min(max(skip, 0), len(lines)):], "\n")
}
