// Package variants resolves supplier SKUs to product variants using a
// pre-fetched index, so an import never queries per row.
package variants

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kosarica/pricelist-import/internal/types"
)

var (
	ErrVariantNotFound         = errors.New("variant not found")
	ErrBrandCodeRequired       = errors.New("brand code required to disambiguate SKU")
	ErrBrandNotAmongCandidates = errors.New("brand code not found among candidates")
	ErrAmbiguousSKUBrand       = errors.New("ambiguous SKU+brand")
	ErrBrandNotSupplied        = errors.New("brand not supplied by this supplier")
	ErrOutsideTargetBrand      = errors.New("does not belong to target brand")
)

// Variant is the lookup projection of a product variant and its brand
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	BrandID   string `json:"brand_id,omitempty"`
	BrandCode string `json:"brand_code,omitempty"`
}

// Index groups variants by exact, case-sensitive SKU
type Index struct {
	bySKU map[string][]Variant
	size  int
}

// NewIndex builds an index; variants sharing a SKU keep their input order
func NewIndex(variants []Variant) *Index {
	idx := &Index{bySKU: make(map[string][]Variant, len(variants))}
	for _, v := range variants {
		idx.bySKU[v.SKU] = append(idx.bySKU[v.SKU], v)
	}
	idx.size = len(variants)
	return idx
}

// Lookup returns every variant with the given SKU
func (idx *Index) Lookup(sku string) []Variant {
	if idx == nil {
		return nil
	}
	return idx.bySKU[sku]
}

// Len returns the number of indexed variants
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.size
}

// Options controls brand handling
type Options struct {
	// BrandAware enables SKU disambiguation by brand code and the brand
	// authorization and scoping checks
	BrandAware bool
	// Supplier supplies the brand authorization set
	Supplier types.SupplierContext
	// TargetBrandID scopes the import to a single brand when set
	TargetBrandID string
}

// Resolution is a resolved variant plus advisory warnings
type Resolution struct {
	Variant  Variant
	Warnings []string
}

// Resolver resolves SKUs against an index
type Resolver struct {
	index      *Index
	opts       Options
	authorized map[string]bool
}

// NewResolver builds a resolver over index
func NewResolver(index *Index, opts Options) *Resolver {
	authorized := make(map[string]bool, len(opts.Supplier.AuthorizedBrandIDs))
	for _, id := range opts.Supplier.AuthorizedBrandIDs {
		authorized[id] = true
	}
	return &Resolver{
		index:      index,
		opts:       opts,
		authorized: authorized,
	}
}

// BrandAware reports whether brand constraints are applied
func (r *Resolver) BrandAware() bool {
	return r.opts.BrandAware
}

// Resolve returns the single variant a SKU (and optional brand code) refers to
func (r *Resolver) Resolve(sku, brandCode string) (Resolution, error) {
	sku = strings.TrimSpace(sku)
	brandCode = strings.TrimSpace(brandCode)

	candidates := r.index.Lookup(sku)
	if len(candidates) == 0 {
		return Resolution{}, fmt.Errorf("%w: SKU %q", ErrVariantNotFound, sku)
	}

	if !r.opts.BrandAware {
		return Resolution{Variant: candidates[0]}, nil
	}

	var res Resolution
	if len(candidates) == 1 {
		res.Variant = candidates[0]
		if brandCode != "" && brandCode != res.Variant.BrandCode {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"brand code %q does not match brand %q of SKU %q; SKU is unambiguous so brand code was ignored",
				brandCode, res.Variant.BrandCode, sku))
		}
	} else {
		v, err := disambiguate(sku, brandCode, candidates)
		if err != nil {
			return Resolution{}, err
		}
		res.Variant = v
	}

	if r.opts.Supplier.BrandAwarePurchasing && !r.authorized[res.Variant.BrandID] {
		return Resolution{}, fmt.Errorf("%w: SKU %q has brand %q", ErrBrandNotSupplied, sku, brandLabel(res.Variant))
	}

	if r.opts.TargetBrandID != "" && res.Variant.BrandID != r.opts.TargetBrandID {
		return Resolution{}, fmt.Errorf("SKU %q %w %q (brand %q)", sku, ErrOutsideTargetBrand, r.opts.TargetBrandID, brandLabel(res.Variant))
	}

	return res, nil
}

func disambiguate(sku, brandCode string, candidates []Variant) (Variant, error) {
	if brandCode == "" {
		return Variant{}, fmt.Errorf("%w: SKU %q matches %d variants", ErrBrandCodeRequired, sku, len(candidates))
	}

	var matches []Variant
	for _, c := range candidates {
		if c.BrandCode == brandCode {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Variant{}, fmt.Errorf("%w: SKU %q, brand code %q", ErrBrandNotAmongCandidates, sku, brandCode)
	default:
		return Variant{}, fmt.Errorf("%w: SKU %q with brand code %q matches %d variants", ErrAmbiguousSKUBrand, sku, brandCode, len(matches))
	}
}

func brandLabel(v Variant) string {
	if v.BrandCode != "" {
		return v.BrandCode
	}
	return v.BrandID
}
