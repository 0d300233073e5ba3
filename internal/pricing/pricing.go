package pricing

import (
	"math"

	"github.com/dharmasatrya/aircargo/pkg/currency"
)

// DefaultTaxRate is the GST applied to cargo bookings.
const DefaultTaxRate = 0.18

type Calculator struct {
	TaxRate float64
}

func NewCalculator(taxRate float64) Calculator {
	if taxRate < 0 || math.IsNaN(taxRate) {
		taxRate = DefaultTaxRate
	}
	return Calculator{TaxRate: taxRate}
}

// Breakdown holds unrounded amounts. Call Rounded at the presentation
// boundary only.
type Breakdown struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// Compute prices weightKg at ratePerKg. Negative, zero or NaN weights price
// as zero.
func (c Calculator) Compute(ratePerKg, weightKg float64) Breakdown {
	if !(weightKg > 0) || !(ratePerKg > 0) {
		return Breakdown{}
	}
	// Explicit conversions keep the compiler from fusing these into an FMA,
	// which would break Total == Subtotal + Tax.
	subtotal := float64(ratePerKg * weightKg)
	tax := float64(subtotal * c.TaxRate)
	return Breakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// Rounded returns cent-rounded amounts where Total is the sum of the rounded
// parts, so the three displayed numbers always add up.
func (b Breakdown) Rounded() Breakdown {
	subtotal := currency.Round(b.Subtotal)
	tax := currency.Round(b.Tax)
	return Breakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    currency.Round(subtotal + tax),
	}
}

// Compute prices with the default tax rate.
func Compute(ratePerKg, weightKg float64) Breakdown {
	return NewCalculator(DefaultTaxRate).Compute(ratePerKg, weightKg)
}
