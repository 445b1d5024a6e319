// Package transform applies per-column value transformations to raw cells.
//
// A Transformation is one of Divide, DateParse, Substring or TrimZeros.
// Specs from templates are compiled once with Compile; Apply dispatches on
// the concrete type. Transformations are column-local: a cell's result never
// depends on another column.
package transform

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kosarica/pricelist-import/internal/types"
)

var (
	// ErrNotNumeric is returned by Divide for cells that are not numbers
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrInvalidDate is returned by DateParse for unparseable or all-zero
	// dates. Callers treat it as a warning and keep a null value.
	ErrInvalidDate = errors.New("invalid date")
)

// Transformation is the closed set of column transformations
type Transformation interface {
	transformation()
}

// Divide parses the cell as a float and divides it by Divisor
type Divide struct {
	Divisor float64
}

// DateParse parses the cell with InputFormat and yields an ISO date
type DateParse struct {
	InputFormat string
}

// Substring keeps Length characters starting at Start
type Substring struct {
	Start  int
	Length int
}

// TrimZeros strips leading zeros, keeping a single "0" for all-zero values
type TrimZeros struct{}

func (Divide) transformation()    {}
func (DateParse) transformation() {}
func (Substring) transformation() {}
func (TrimZeros) transformation() {}

// dateLayouts maps supported input formats to Go layouts
var dateLayouts = map[string]string{
	"YYYYMMDD":   "20060102",
	"DDMMYYYY":   "02012006",
	"YYYY-MM-DD": "2006-01-02",
	"DD.MM.YYYY": "02.01.2006",
}

// Compile validates a spec and returns its transformation
func Compile(spec types.TransformationSpec) (Transformation, error) {
	switch spec.Type {
	case types.TransformDivide:
		if spec.Divisor == 0 || math.IsNaN(spec.Divisor) || math.IsInf(spec.Divisor, 0) {
			return nil, fmt.Errorf("divide transformation needs a finite non-zero divisor")
		}
		return Divide{Divisor: spec.Divisor}, nil
	case types.TransformDate:
		format := strings.ToUpper(strings.TrimSpace(spec.InputFormat))
		if format == "" {
			format = "YYYYMMDD"
		}
		if _, ok := dateLayouts[format]; !ok {
			return nil, fmt.Errorf("unsupported date input_format %q", spec.InputFormat)
		}
		return DateParse{InputFormat: format}, nil
	case types.TransformSubstring:
		if spec.Start < 0 || spec.Length <= 0 {
			return nil, fmt.Errorf("substring transformation needs start >= 0 and length > 0, got start=%d length=%d", spec.Start, spec.Length)
		}
		return Substring{Start: spec.Start, Length: spec.Length}, nil
	case types.TransformTrimZeros:
		return TrimZeros{}, nil
	default:
		return nil, fmt.Errorf("unknown transformation type %q", spec.Type)
	}
}

// Apply runs t on a raw cell. A nil transformation passes the trimmed cell
// through as a string.
func Apply(t Transformation, raw string) (types.Value, error) {
	value := strings.TrimSpace(raw)

	switch tr := t.(type) {
	case nil:
		return types.StringValue(value), nil

	case Divide:
		if value == "" {
			return types.NullValue(), nil
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return types.NullValue(), fmt.Errorf("%w: %q", ErrNotNumeric, value)
		}
		return types.NumberValue(n / tr.Divisor), nil

	case DateParse:
		return parseDate(value, tr.InputFormat)

	case Substring:
		runes := []rune(value)
		if tr.Start >= len(runes) {
			return types.StringValue(""), nil
		}
		end := min(tr.Start+tr.Length, len(runes))
		return types.StringValue(string(runes[tr.Start:end])), nil

	case TrimZeros:
		trimmed := strings.TrimLeft(value, "0")
		if trimmed == "" && value != "" {
			trimmed = "0"
		}
		return types.StringValue(trimmed), nil

	default:
		return types.NullValue(), fmt.Errorf("unsupported transformation %T", t)
	}
}

func parseDate(value, format string) (types.Value, error) {
	if value == "" {
		return types.NullValue(), nil
	}
	if strings.Trim(value, "0-./") == "" {
		return types.NullValue(), fmt.Errorf("%w: %q is all zeros", ErrInvalidDate, value)
	}

	layout := dateLayouts[format]
	if len(value) != len(layout) {
		return types.NullValue(), fmt.Errorf("%w: %q does not match %s", ErrInvalidDate, value, format)
	}
	// time.Parse rejects impossible calendar dates such as 20230231
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return types.NullValue(), fmt.Errorf("%w: %q does not match %s", ErrInvalidDate, value, format)
	}
	return types.DateValue(parsed.Format("2006-01-02")), nil
}
