// Package pricing derives and validates gross, discount and net prices for
// the supplier pricing modes. Money is handled in integer minor units.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kosarica/pricelist-import/internal/types"
	"github.com/shopspring/decimal"
)

// DefaultToleranceCents is the accepted difference between a supplied net
// price and the one computed from gross and discount
const DefaultToleranceCents int64 = 2

var (
	ErrMissingNetPrice          = errors.New("net price is required")
	ErrMissingGrossPrice        = errors.New("gross price is required")
	ErrMissingDiscount          = errors.New("discount percentage is required")
	ErrMissingDiscountCode      = errors.New("discount code is required")
	ErrNegativeNetPrice         = errors.New("net price must not be negative")
	ErrNegativeGrossPrice       = errors.New("gross price must not be negative")
	ErrNetExceedsGross          = errors.New("net price exceeds gross price")
	ErrInvalidDiscount          = errors.New("discount percentage must be between 0 and 100")
	ErrDiscountMappingsRequired = errors.New("discount code mappings required")
	ErrUnknownDiscountCode      = errors.New("unknown discount code")
	ErrReconciliationMismatch   = errors.New("net price does not match gross price and discount")
)

var hundred = decimal.NewFromInt(100)

// Prices holds whatever price inputs a row provided
type Prices struct {
	Gross              *int64
	Net                *int64
	DiscountPercentage *float64
	DiscountCode       string
}

// Reconciled is the validated, completed price set of a row
type Reconciled struct {
	Gross              *int64
	Net                int64
	DiscountPercentage *float64
	DiscountCode       *string
	Warnings           []string
}

// Reconciler applies one pricing mode to rows
type Reconciler struct {
	mode      types.PricingMode
	discounts types.DiscountStructure
	tolerance int64
}

// NewReconciler validates the mode and discount structure. Code mapping mode
// without any mappings or default percentage cannot price a single row and
// is rejected up front.
func NewReconciler(mode types.PricingMode, discounts types.DiscountStructure, toleranceCents int64) (*Reconciler, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown pricing mode %q", mode)
	}
	if toleranceCents < 0 {
		return nil, fmt.Errorf("tolerance must not be negative: %d", toleranceCents)
	}
	if mode == types.PricingCodeMapping && len(discounts.Mappings) == 0 && discounts.DefaultPercentage == nil {
		return nil, fmt.Errorf("%w: supplier has no discount code mappings", ErrDiscountMappingsRequired)
	}
	if d := discounts.DefaultPercentage; d != nil && !validDiscount(*d) {
		return nil, fmt.Errorf("default percentage %v: %w", *d, ErrInvalidDiscount)
	}
	for code, pct := range discounts.Mappings {
		if !validDiscount(pct) {
			return nil, fmt.Errorf("discount code %q maps to %v: %w", code, pct, ErrInvalidDiscount)
		}
	}

	return &Reconciler{
		mode:      mode,
		discounts: discounts,
		tolerance: toleranceCents,
	}, nil
}

// Mode returns the pricing mode
func (r *Reconciler) Mode() types.PricingMode {
	return r.mode
}

// Reconcile derives the missing prices of a row and validates the result
func (r *Reconciler) Reconcile(p Prices) (Reconciled, error) {
	if p.Gross != nil && *p.Gross < 0 {
		return Reconciled{}, ErrNegativeGrossPrice
	}

	switch r.mode {
	case types.PricingNetOnly:
		if p.Net == nil {
			return Reconciled{}, ErrMissingNetPrice
		}
		if *p.Net < 0 {
			return Reconciled{}, ErrNegativeNetPrice
		}
		return Reconciled{Net: *p.Net}, nil

	case types.PricingCalculated:
		if p.Gross == nil {
			return Reconciled{}, ErrMissingGrossPrice
		}
		if p.Net == nil {
			return Reconciled{}, ErrMissingNetPrice
		}
		if err := validateNet(*p.Net, p.Gross); err != nil {
			return Reconciled{}, err
		}
		out := Reconciled{Gross: p.Gross, Net: *p.Net}
		if *p.Gross > 0 {
			pct := DiscountFromNet(*p.Gross, *p.Net)
			out.DiscountPercentage = &pct
		}
		return out, nil

	case types.PricingPercentage:
		var warnings []string
		pct := p.DiscountPercentage
		if pct == nil {
			if r.discounts.DefaultPercentage == nil {
				return Reconciled{}, ErrMissingDiscount
			}
			pct = r.discounts.DefaultPercentage
			warnings = append(warnings, fmt.Sprintf("discount percentage missing; using supplier default %v%%", *pct))
		}
		out, err := r.applyDiscount(p, *pct)
		out.Warnings = append(warnings, out.Warnings...)
		return out, err

	case types.PricingCodeMapping:
		code := strings.TrimSpace(p.DiscountCode)
		var warnings []string
		var pct float64
		if code == "" {
			if r.discounts.DefaultPercentage == nil {
				return Reconciled{}, ErrMissingDiscountCode
			}
			pct = *r.discounts.DefaultPercentage
			warnings = append(warnings, fmt.Sprintf("discount code missing; using supplier default %v%%", pct))
		} else {
			mapped, ok := r.discounts.Mappings[code]
			if !ok {
				return Reconciled{}, fmt.Errorf("%w %q (%v)", ErrUnknownDiscountCode, code, ErrDiscountMappingsRequired)
			}
			pct = mapped
		}
		out, err := r.applyDiscount(p, pct)
		if code != "" {
			out.DiscountCode = &code
		}
		out.Warnings = append(warnings, out.Warnings...)
		return out, err
	}

	return Reconciled{}, fmt.Errorf("unknown pricing mode %q", r.mode)
}

// applyDiscount computes net from gross and pct and checks a supplied net
// against it
func (r *Reconciler) applyDiscount(p Prices, pct float64) (Reconciled, error) {
	if p.Gross == nil {
		return Reconciled{}, ErrMissingGrossPrice
	}
	if !validDiscount(pct) {
		return Reconciled{}, fmt.Errorf("%w: got %v", ErrInvalidDiscount, pct)
	}

	net := NetFromDiscount(*p.Gross, pct)
	if p.Net != nil {
		if err := validateNet(*p.Net, p.Gross); err != nil {
			return Reconciled{}, err
		}
		if diff := abs(*p.Net - net); diff > r.tolerance {
			return Reconciled{}, fmt.Errorf("%w: supplied %s, computed %s from gross %s less %v%%",
				ErrReconciliationMismatch, formatCents(*p.Net), formatCents(net), formatCents(*p.Gross), pct)
		}
	}

	return Reconciled{
		Gross:              p.Gross,
		Net:                net,
		DiscountPercentage: &pct,
	}, nil
}

// NetFromDiscount returns gross * (1 - pct/100) rounded to the nearest minor unit
func NetFromDiscount(gross int64, pct float64) int64 {
	factor := hundred.Sub(decimal.NewFromFloat(pct)).Div(hundred)
	return decimal.NewFromInt(gross).Mul(factor).Round(0).IntPart()
}

// DiscountFromNet returns (gross-net)/gross*100 rounded to two decimals.
// gross must be positive.
func DiscountFromNet(gross, net int64) float64 {
	return decimal.NewFromInt(gross - net).Mul(hundred).Div(decimal.NewFromInt(gross)).Round(2).InexactFloat64()
}

func validateNet(net int64, gross *int64) error {
	if net < 0 {
		return ErrNegativeNetPrice
	}
	if gross != nil && net > *gross {
		return fmt.Errorf("%w: net %s, gross %s", ErrNetExceedsGross, formatCents(net), formatCents(*gross))
	}
	return nil
}

func validDiscount(pct float64) bool {
	return pct >= 0 && pct <= 100
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func formatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
