package mapping

import (
	"fmt"
	"strings"

	"github.com/kosarica/pricelist-import/internal/types"
)

// Suggest proposes a mapping for the parsed columns. For each field, in
// catalog order, the first column (file order) whose normalized name equals
// the field key or an alias wins; failing that, the first column whose name
// contains an alias or is contained in one. A column may be suggested for
// several fields; Resolve warns about such conflicts.
//
// Matched fields come first in catalog order, followed by the columns no field
// claimed, unmapped, in file order.
func Suggest(columns []string, catalog Catalog) types.ColumnMapping {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = NormalizeName(c)
	}

	aliases := make([][]string, len(catalog))
	for i, f := range catalog {
		aliases[i] = normalizedAliases(f)
	}

	mapping := make(types.ColumnMapping, 0, len(columns))
	used := make(map[int]bool, len(columns))

	for i, field := range catalog {
		idx := exactMatch(normalized, aliases[i])
		if idx < 0 {
			idx = substringMatch(normalized, aliases[i])
		}
		if idx < 0 {
			continue
		}
		used[idx] = true
		mapping = append(mapping, types.ColumnAssignment{Column: columns[idx], Field: field.Key})
	}

	for i, c := range columns {
		if !used[i] {
			mapping = append(mapping, types.ColumnAssignment{Column: c})
		}
	}

	return mapping
}

func normalizedAliases(f TargetField) []string {
	out := make([]string, 0, len(f.Aliases)+1)
	out = append(out, NormalizeName(f.Key))
	for _, a := range f.Aliases {
		if n := NormalizeName(a); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func exactMatch(columns, aliases []string) int {
	for i, col := range columns {
		for _, a := range aliases {
			if col == a {
				return i
			}
		}
	}
	return -1
}

func substringMatch(columns, aliases []string) int {
	for i, col := range columns {
		if col == "" {
			continue
		}
		for _, a := range aliases {
			if strings.Contains(col, a) || strings.Contains(a, col) {
				return i
			}
		}
	}
	return -1
}

// Resolved is the final field to column mapping
type Resolved map[string]string

// Column returns the source column of field
func (r Resolved) Column(field string) (string, bool) {
	c, ok := r[field]
	return c, ok
}

// Missing returns the fields that are unmapped or whose column is absent from
// columns, in the order given
func (r Resolved) Missing(fields []string, columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, f := range fields {
		col, ok := r[f]
		if !ok || !present[col] {
			missing = append(missing, f)
		}
	}
	return missing
}

// Resolve turns a confirmed mapping into the final field to column map.
// Assignments are taken in order: a column already claimed by an earlier
// field, or a field already given a column, is dropped with a warning, as are
// fields missing from the catalog.
func Resolve(mapping types.ColumnMapping, catalog Catalog) (Resolved, []string) {
	resolved := make(Resolved)
	columnOwner := make(map[string]string)
	var warnings []string

	for _, a := range mapping {
		field := strings.TrimSpace(a.Field)
		if field == "" {
			continue
		}
		if _, ok := catalog.Field(field); !ok {
			warnings = append(warnings, fmt.Sprintf("column %q is mapped to unknown field %q; ignoring", a.Column, field))
			continue
		}
		if owner, ok := columnOwner[a.Column]; ok {
			warnings = append(warnings, fmt.Sprintf("column %q is mapped to both %s and %s; keeping %s, %s left unmapped", a.Column, owner, field, owner, field))
			continue
		}
		if prev, ok := resolved[field]; ok {
			warnings = append(warnings, fmt.Sprintf("field %s is mapped from both %q and %q; keeping %q", field, prev, a.Column, prev))
			continue
		}
		resolved[field] = a.Column
		columnOwner[a.Column] = field
	}

	return resolved, warnings
}
