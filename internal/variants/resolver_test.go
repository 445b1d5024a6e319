package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricelist-import/internal/types"
)

func testIndex() *Index {
	return NewIndex([]Variant{
		{ID: "v-x-a", ProductID: "p1", SKU: "X", BrandID: "brand-a", BrandCode: "A"},
		{ID: "v-x-b", ProductID: "p2", SKU: "X", BrandID: "brand-b", BrandCode: "B"},
		{ID: "v-y", ProductID: "p3", SKU: "Y", BrandID: "brand-a", BrandCode: "A"},
		{ID: "v-z-1", ProductID: "p4", SKU: "Z", BrandID: "brand-c", BrandCode: "C"},
		{ID: "v-z-2", ProductID: "p5", SKU: "Z", BrandID: "brand-d", BrandCode: "C"},
	})
}

func TestIndex(t *testing.T) {
	idx := testIndex()
	assert.Equal(t, 5, idx.Len())
	assert.Len(t, idx.Lookup("X"), 2)
	assert.Empty(t, idx.Lookup("x"))

	var nilIdx *Index
	assert.Equal(t, 0, nilIdx.Len())
	assert.Nil(t, nilIdx.Lookup("X"))
}

func TestResolveBrandAware(t *testing.T) {
	r := NewResolver(testIndex(), Options{BrandAware: true})
	assert.True(t, r.BrandAware())

	tests := []struct {
		name      string
		sku       string
		brandCode string
		wantID    string
		wantWarn  int
		wantErr   error
	}{
		{name: "ambiguous with brand A", sku: "X", brandCode: "A", wantID: "v-x-a"},
		{name: "ambiguous with brand B padded", sku: " X ", brandCode: " B", wantID: "v-x-b"},
		{name: "ambiguous without brand", sku: "X", wantErr: ErrBrandCodeRequired},
		{name: "ambiguous with unknown brand", sku: "X", brandCode: "Z", wantErr: ErrBrandNotAmongCandidates},
		{name: "brand code is case sensitive", sku: "X", brandCode: "a", wantErr: ErrBrandNotAmongCandidates},
		{name: "ambiguous even with brand", sku: "Z", brandCode: "C", wantErr: ErrAmbiguousSKUBrand},
		{name: "single match", sku: "Y", wantID: "v-y"},
		{name: "single match wrong brand warns", sku: "Y", brandCode: "B", wantID: "v-y", wantWarn: 1},
		{name: "not found", sku: "NOPE", wantErr: ErrVariantNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.sku, tt.brandCode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.Variant.ID)
			assert.Len(t, res.Warnings, tt.wantWarn)
		})
	}
}

func TestResolveBrandUnaware(t *testing.T) {
	r := NewResolver(testIndex(), Options{
		BrandAware:    false,
		Supplier:      types.SupplierContext{BrandAwarePurchasing: true},
		TargetBrandID: "brand-z",
	})
	assert.False(t, r.BrandAware())

	res, err := r.Resolve("X", "")
	require.NoError(t, err)
	assert.Equal(t, "v-x-a", res.Variant.ID)

	res, err = r.Resolve("X", "B")
	require.NoError(t, err)
	assert.Equal(t, "v-x-a", res.Variant.ID, "brand code is ignored when brand handling is off")
	assert.Empty(t, res.Warnings)

	_, err = r.Resolve("NOPE", "")
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestResolveAuthorizationAndScope(t *testing.T) {
	supplier := types.SupplierContext{
		ID:                   "sup-1",
		BrandAwarePurchasing: true,
		AuthorizedBrandIDs:   []string{"brand-a"},
	}

	r := NewResolver(testIndex(), Options{BrandAware: true, Supplier: supplier})
	_, err := r.Resolve("X", "A")
	assert.NoError(t, err)
	_, err = r.Resolve("X", "B")
	assert.ErrorIs(t, err, ErrBrandNotSupplied)

	supplier.BrandAwarePurchasing = false
	r = NewResolver(testIndex(), Options{BrandAware: true, Supplier: supplier, TargetBrandID: "brand-b"})
	res, err := r.Resolve("X", "B")
	require.NoError(t, err)
	assert.Equal(t, "v-x-b", res.Variant.ID)

	_, err = r.Resolve("Y", "")
	require.ErrorIs(t, err, ErrOutsideTargetBrand)
	assert.Contains(t, err.Error(), `SKU "Y" does not belong to target brand "brand-b"`)
}
