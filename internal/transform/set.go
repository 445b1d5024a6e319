package transform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kosarica/pricelist-import/internal/types"
)

// Issue is a problem found while transforming one cell
type Issue struct {
	Column   string
	Severity types.ErrorSeverity
	Message  string
}

// Set holds the compiled transformations of a parse config keyed by column
type Set struct {
	byColumn map[string]Transformation
}

// NewSet compiles every transformation in specs. Transformations declared for
// columns the file does not have are reported by UnknownColumns, not here.
func NewSet(specs map[string]types.TransformationSpec) (*Set, error) {
	s := &Set{byColumn: make(map[string]Transformation, len(specs))}

	columns := make([]string, 0, len(specs))
	for column := range specs {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	for _, column := range columns {
		t, err := Compile(specs[column])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}
		s.byColumn[column] = t
	}
	return s, nil
}

// For returns the transformation for column, or nil
func (s *Set) For(column string) Transformation {
	return s.byColumn[column]
}

// UnknownColumns returns, sorted, the transformed columns missing from columns
func (s *Set) UnknownColumns(columns []string) []string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	var unknown []string
	for column := range s.byColumn {
		if !known[column] {
			unknown = append(unknown, column)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// TransformRow applies the column transformations to every cell of row.
// Invalid dates become null with a warning; any other failure is an error
// issue and leaves the cell null.
func (s *Set) TransformRow(columns []string, row types.RawRow) (map[string]types.Value, []Issue) {
	values := make(map[string]types.Value, len(columns))
	var issues []Issue

	for i, column := range columns {
		raw := ""
		if i < len(row.Cells) {
			raw = row.Cells[i]
		}

		value, err := Apply(s.byColumn[column], raw)
		if err != nil {
			severity := types.SeverityError
			if errors.Is(err, ErrInvalidDate) {
				severity = types.SeverityWarning
			}
			issues = append(issues, Issue{
				Column:   column,
				Severity: severity,
				Message:  fmt.Sprintf("column %s: %v", column, err),
			})
		}
		values[column] = value
	}

	return values, issues
}
