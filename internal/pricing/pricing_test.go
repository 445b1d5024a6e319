package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricelist-import/internal/types"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func TestNetFromDiscount(t *testing.T) {
	assert.Equal(t, int64(8000), NetFromDiscount(10000, 20))
	assert.Equal(t, int64(7999), NetFromDiscount(9999, 20))
	assert.Equal(t, int64(9259), NetFromDiscount(12345, 25))
	assert.Equal(t, int64(0), NetFromDiscount(12345, 100))
	assert.Equal(t, int64(12345), NetFromDiscount(12345, 0))
	assert.Equal(t, 20.01, DiscountFromNet(10000, 7999))
	assert.Equal(t, 33.33, DiscountFromNet(300, 200))
}

func TestNewReconciler(t *testing.T) {
	tests := []struct {
		name      string
		mode      types.PricingMode
		discounts types.DiscountStructure
		tolerance int64
		wantErr   error
	}{
		{name: "net only", mode: types.PricingNetOnly},
		{name: "unknown mode", mode: "wholesale"},
		{name: "negative tolerance", mode: types.PricingNetOnly, tolerance: -1},
		{name: "code mapping without mappings", mode: types.PricingCodeMapping, wantErr: ErrDiscountMappingsRequired},
		{name: "code mapping with default only", mode: types.PricingCodeMapping, discounts: types.DiscountStructure{DefaultPercentage: f64(10)}},
		{name: "mapping out of range", mode: types.PricingCodeMapping, discounts: types.DiscountStructure{Mappings: map[string]float64{"A": 120}}, wantErr: ErrInvalidDiscount},
		{name: "default out of range", mode: types.PricingPercentage, discounts: types.DiscountStructure{DefaultPercentage: f64(-5)}, wantErr: ErrInvalidDiscount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReconciler(tt.mode, tt.discounts, tt.tolerance)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case !tt.mode.Valid() || tt.tolerance < 0:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.mode, r.Mode())
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	discounts := types.DiscountStructure{
		Mappings: map[string]float64{"A": 20, "B": 35.5},
	}
	withDefault := types.DiscountStructure{
		DefaultPercentage: f64(10),
		Mappings:          map[string]float64{"A": 20},
	}

	tests := []struct {
		name      string
		mode      types.PricingMode
		discounts types.DiscountStructure
		prices    Prices
		wantNet   int64
		wantPct   *float64
		wantCode  *string
		wantWarn  int
		wantErr   error
	}{
		{name: "net only", mode: types.PricingNetOnly, prices: Prices{Net: i64(1234)}, wantNet: 1234},
		{name: "net only ignores gross", mode: types.PricingNetOnly, prices: Prices{Net: i64(1234), Gross: i64(100)}, wantNet: 1234},
		{name: "net only missing", mode: types.PricingNetOnly, prices: Prices{}, wantErr: ErrMissingNetPrice},
		{name: "net only negative", mode: types.PricingNetOnly, prices: Prices{Net: i64(-1)}, wantErr: ErrNegativeNetPrice},
		{name: "negative gross", mode: types.PricingNetOnly, prices: Prices{Net: i64(1), Gross: i64(-1)}, wantErr: ErrNegativeGrossPrice},

		{name: "calculated", mode: types.PricingCalculated, prices: Prices{Gross: i64(10000), Net: i64(7500)}, wantNet: 7500, wantPct: f64(25)},
		{name: "calculated zero gross", mode: types.PricingCalculated, prices: Prices{Gross: i64(0), Net: i64(0)}, wantNet: 0},
		{name: "calculated net above gross", mode: types.PricingCalculated, prices: Prices{Gross: i64(100), Net: i64(101)}, wantErr: ErrNetExceedsGross},
		{name: "calculated missing gross", mode: types.PricingCalculated, prices: Prices{Net: i64(100)}, wantErr: ErrMissingGrossPrice},

		{name: "percentage", mode: types.PricingPercentage, prices: Prices{Gross: i64(10000), DiscountPercentage: f64(20)}, wantNet: 8000, wantPct: f64(20)},
		{name: "percentage within tolerance", mode: types.PricingPercentage, prices: Prices{Gross: i64(9999), DiscountPercentage: f64(20), Net: i64(8001)}, wantNet: 7999, wantPct: f64(20)},
		{name: "percentage mismatch", mode: types.PricingPercentage, prices: Prices{Gross: i64(9999), DiscountPercentage: f64(20), Net: i64(7900)}, wantErr: ErrReconciliationMismatch},
		{name: "percentage out of range", mode: types.PricingPercentage, prices: Prices{Gross: i64(100), DiscountPercentage: f64(101)}, wantErr: ErrInvalidDiscount},
		{name: "percentage missing", mode: types.PricingPercentage, prices: Prices{Gross: i64(100)}, wantErr: ErrMissingDiscount},
		{name: "percentage default", mode: types.PricingPercentage, discounts: withDefault, prices: Prices{Gross: i64(1000)}, wantNet: 900, wantPct: f64(10), wantWarn: 1},

		{name: "code mapping", mode: types.PricingCodeMapping, discounts: discounts, prices: Prices{Gross: i64(10000), DiscountCode: " B "}, wantNet: 6450, wantPct: f64(35.5), wantCode: ptr("B")},
		{name: "code mapping unknown", mode: types.PricingCodeMapping, discounts: discounts, prices: Prices{Gross: i64(10000), DiscountCode: "Q"}, wantErr: ErrUnknownDiscountCode},
		{name: "code mapping missing code", mode: types.PricingCodeMapping, discounts: discounts, prices: Prices{Gross: i64(10000)}, wantErr: ErrMissingDiscountCode},
		{name: "code mapping default", mode: types.PricingCodeMapping, discounts: withDefault, prices: Prices{Gross: i64(10000)}, wantNet: 9000, wantPct: f64(10), wantWarn: 1},
		{name: "code mapping missing gross", mode: types.PricingCodeMapping, discounts: discounts, prices: Prices{DiscountCode: "A"}, wantErr: ErrMissingGrossPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReconciler(tt.mode, tt.discounts, DefaultToleranceCents)
			require.NoError(t, err)

			got, err := r.Reconcile(tt.prices)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNet, got.Net)
			assert.Equal(t, tt.wantPct, got.DiscountPercentage)
			assert.Equal(t, tt.wantCode, got.DiscountCode)
			assert.Len(t, got.Warnings, tt.wantWarn)
		})
	}
}

func TestMismatchMessage(t *testing.T) {
	r, err := NewReconciler(types.PricingPercentage, types.DiscountStructure{}, DefaultToleranceCents)
	require.NoError(t, err)

	_, err = r.Reconcile(Prices{Gross: i64(9999), DiscountPercentage: f64(20), Net: i64(7900)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplied 79.00, computed 79.99 from gross 99.99 less 20%")
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name   string
		in     Editable
		edited Field
		want   Editable
	}{
		{
			name:   "discount edited updates net",
			in:     Editable{Gross: i64(10000), DiscountPercentage: f64(20), Net: i64(1)},
			edited: FieldDiscount,
			want:   Editable{Gross: i64(10000), DiscountPercentage: f64(20), Net: i64(8000)},
		},
		{
			name:   "net edited updates discount",
			in:     Editable{Gross: i64(10000), DiscountPercentage: f64(20), Net: i64(7500)},
			edited: FieldNet,
			want:   Editable{Gross: i64(10000), DiscountPercentage: f64(25), Net: i64(7500)},
		},
		{
			name:   "gross edited prefers discount",
			in:     Editable{Gross: i64(20000), DiscountPercentage: f64(20), Net: i64(8000)},
			edited: FieldGross,
			want:   Editable{Gross: i64(20000), DiscountPercentage: f64(20), Net: i64(16000)},
		},
		{
			name:   "gross edited without discount derives it",
			in:     Editable{Gross: i64(10000), Net: i64(5000)},
			edited: FieldGross,
			want:   Editable{Gross: i64(10000), DiscountPercentage: f64(50), Net: i64(5000)},
		},
		{
			name:   "zero gross changes nothing",
			in:     Editable{Gross: i64(0), DiscountPercentage: f64(20)},
			edited: FieldDiscount,
			want:   Editable{Gross: i64(0), DiscountPercentage: f64(20)},
		},
		{
			name:   "discount out of range changes nothing",
			in:     Editable{Gross: i64(10000), DiscountPercentage: f64(120), Net: i64(100)},
			edited: FieldDiscount,
			want:   Editable{Gross: i64(10000), DiscountPercentage: f64(120), Net: i64(100)},
		},
		{
			name:   "net above gross changes nothing",
			in:     Editable{Gross: i64(100), DiscountPercentage: f64(10), Net: i64(200)},
			edited: FieldNet,
			want:   Editable{Gross: i64(100), DiscountPercentage: f64(10), Net: i64(200)},
		},
		{
			name:   "missing net changes nothing",
			in:     Editable{Gross: i64(100)},
			edited: FieldNet,
			want:   Editable{Gross: i64(100)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recompute(tt.in, tt.edited))
		})
	}
}
