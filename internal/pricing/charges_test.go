package pricing_test

import (
	"testing"

	"fashionhub/internal/pricing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		subtotal float64
		want     pricing.Charges
	}{
		{150, pricing.Charges{Subtotal: 150, Tax: 15, Shipping: 0, Total: 165}},
		{50, pricing.Charges{Subtotal: 50, Tax: 5, Shipping: 10, Total: 65}},
		{100, pricing.Charges{Subtotal: 100, Tax: 10, Shipping: 10, Total: 120}},
		{100.01, pricing.Charges{Subtotal: 100.01, Tax: 10, Shipping: 0, Total: 110.01}},
		{24.99, pricing.Charges{Subtotal: 24.99, Tax: 2, Shipping: 10, Total: 36.99}},
		{0, pricing.Charges{Subtotal: 0, Tax: 0, Shipping: 10, Total: 10}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pricing.Compute(tt.subtotal), "subtotal %v", tt.subtotal)
	}
}
