package pricing

// Field identifies one of the interactively editable price fields
type Field string

const (
	FieldGross    Field = "gross_price"
	FieldDiscount Field = "discount_percentage"
	FieldNet      Field = "net_price"
)

// Editable is the price state of a row being edited by hand
type Editable struct {
	Gross              *int64   `json:"gross_price,omitempty"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	Net                *int64   `json:"net_price,omitempty"`
}

// Recompute updates the one field that follows from an edit, never both of
// the others:
//
//	discount edited -> net
//	net edited      -> discount
//	gross edited    -> net when the discount is usable, else discount
//
// Nothing is recomputed when the inputs of that derivation are missing or out
// of range (gross > 0, 0 <= discount <= 100, 0 <= net <= gross).
func Recompute(e Editable, edited Field) Editable {
	out := e

	switch edited {
	case FieldDiscount:
		if grossUsable(e.Gross) && discountUsable(e.DiscountPercentage) {
			out.Net = ptr(NetFromDiscount(*e.Gross, *e.DiscountPercentage))
		}
	case FieldNet:
		if grossUsable(e.Gross) && netUsable(e.Net, *e.Gross) {
			out.DiscountPercentage = ptr(DiscountFromNet(*e.Gross, *e.Net))
		}
	case FieldGross:
		if !grossUsable(e.Gross) {
			break
		}
		if discountUsable(e.DiscountPercentage) {
			out.Net = ptr(NetFromDiscount(*e.Gross, *e.DiscountPercentage))
		} else if netUsable(e.Net, *e.Gross) {
			out.DiscountPercentage = ptr(DiscountFromNet(*e.Gross, *e.Net))
		}
	}

	return out
}

func grossUsable(gross *int64) bool {
	return gross != nil && *gross > 0
}

func discountUsable(pct *float64) bool {
	return pct != nil && validDiscount(*pct)
}

func netUsable(net *int64, gross int64) bool {
	return net != nil && *net >= 0 && *net <= gross
}

func ptr[T any](v T) *T {
	return &v
}
