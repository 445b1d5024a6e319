// Package templates keeps the named import templates: built-in supplier
// layouts plus any loaded from a directory of YAML or JSON files.
package templates

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kosarica/pricelist-import/internal/mapping"
	"github.com/kosarica/pricelist-import/internal/parsers/csv"
	"github.com/kosarica/pricelist-import/internal/parsers/fixedwidth"
	"github.com/kosarica/pricelist-import/internal/transform"
	"github.com/kosarica/pricelist-import/internal/types"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrDuplicateID      = errors.New("template already registered")
)

// Registry manages import templates by ID
type Registry struct {
	mu        sync.RWMutex
	templates map[string]types.ImportTemplate
}

// DefaultRegistry is the global registry instance
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]types.ImportTemplate),
	}
}

// Register validates t and adds it. IDs are unique.
func (r *Registry) Register(t types.ImportTemplate) error {
	t, err := Normalize(t)
	if err != nil {
		return err
	}
	if err := Validate(t); err != nil {
		return fmt.Errorf("template %q: %w", t.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	r.templates[t.ID] = t
	return nil
}

// Get retrieves a template by ID
func (r *Registry) Get(id string) (types.ImportTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// MustGet retrieves a template or returns ErrTemplateNotFound
func (r *Registry) MustGet(id string) (types.ImportTemplate, error) {
	t, ok := r.Get(id)
	if !ok {
		return types.ImportTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return t, nil
}

// List returns all templates sorted by ID
func (r *Registry) List() []types.ImportTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]types.ImportTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Len returns the number of registered templates
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Normalize trims the ID and fills the parse config format from the file
// type when only one of them is set
func Normalize(t types.ImportTemplate) (types.ImportTemplate, error) {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return t, errors.New("template id is required")
	}
	if t.Name == "" {
		t.Name = t.ID
	}

	switch {
	case t.FileType == "" && t.ParseConfig.FormatType == "":
		t.FileType = types.FormatCSV
		t.ParseConfig.FormatType = types.FormatCSV
	case t.FileType == "":
		t.FileType = t.ParseConfig.FormatType
	case t.ParseConfig.FormatType == "":
		t.ParseConfig.FormatType = t.FileType
	}
	return t, nil
}

// Validate checks that a template can drive an import: a known format whose
// tokenizer settings are sound, compilable transformations, and a mapping
// that resolves without conflicts
func Validate(t types.ImportTemplate) error {
	if t.FileType != t.ParseConfig.FormatType {
		return fmt.Errorf("file_type %q does not match parse_config.format_type %q", t.FileType, t.ParseConfig.FormatType)
	}
	if t.PricingMode != "" && !t.PricingMode.Valid() {
		return fmt.Errorf("unknown pricing mode %q", t.PricingMode)
	}

	switch t.ParseConfig.FormatType {
	case types.FormatCSV:
		probe := t.ParseConfig
		probe.HasHeader = false
		if probe.Delimiter == "" {
			probe.Delimiter = string(csv.DelimiterComma)
		}
		if _, err := csv.NewTokenizer("", probe); err != nil {
			return err
		}
	case types.FormatFixedWidth:
		if _, err := fixedwidth.NewTokenizer("", t.ParseConfig); err != nil {
			return err
		}
	case types.FormatXLSX:
	default:
		return fmt.Errorf("unsupported format type: %q", t.ParseConfig.FormatType)
	}

	if _, err := transform.NewSet(t.ParseConfig.Transformations); err != nil {
		return err
	}

	if t.ParseConfig.FormatType == types.FormatFixedWidth {
		declared := make(map[string]bool, len(t.ParseConfig.FixedWidthColumns))
		for _, c := range t.ParseConfig.FixedWidthColumns {
			declared[c.Name] = true
		}
		for _, a := range t.ColumnMapping {
			if !declared[a.Column] {
				return fmt.Errorf("column mapping refers to undeclared column %q", a.Column)
			}
		}
	}

	mode := t.PricingMode
	if mode == "" {
		mode = types.PricingNetOnly
	}
	if _, warnings := mapping.Resolve(t.ColumnMapping, mapping.CatalogFor(mode)); len(warnings) > 0 {
		return fmt.Errorf("invalid column mapping: %s", strings.Join(warnings, "; "))
	}
	return nil
}

// GetTemplate is a convenience function to get a template from the default registry
func GetTemplate(id string) (types.ImportTemplate, error) {
	return DefaultRegistry.MustGet(id)
}
