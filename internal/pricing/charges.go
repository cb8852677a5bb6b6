// Package pricing computes the charges added to an order at checkout.
package pricing

import "github.com/shopspring/decimal"

var (
	taxRate               = decimal.NewFromFloat(0.10)
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingFee       = decimal.NewFromInt(10)
)

// Charges are the amounts derived from an order subtotal.
type Charges struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Discount float64
	Total    float64
}

// Compute returns the charges for subtotal: tax is 10% rounded to a whole
// unit, shipping is free above 100 and a flat 10 otherwise.
func Compute(subtotal float64) Charges {
	sub := decimal.NewFromFloat(subtotal)
	tax := sub.Mul(taxRate).Round(0)
	shipping := flatShippingFee
	if sub.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	total := sub.Add(tax).Add(shipping)

	return Charges{
		Subtotal: sub.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}
