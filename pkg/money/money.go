package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrFinerThanMinorUnit = errors.New("amount is finer than the currency's minor unit")

// Precision describes how many minor units a currency has (2 for INR paise).
// Rounding and the reconciliation dead-zone both scale with it.
type Precision struct {
	Places int32
}

var Default = NewPrecision(2)

func NewPrecision(places int32) Precision {
	if places < 0 {
		places = 0
	}
	return Precision{Places: places}
}

// Round rounds half away from zero to the currency's minor unit.
func (p Precision) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Places)
}

// MinorUnit is the smallest representable amount, e.g. 0.01.
func (p Precision) MinorUnit() decimal.Decimal {
	return decimal.New(1, -p.Places)
}

// Check fails for amounts that would change when rounded to the minor unit.
func (p Precision) Check(d decimal.Decimal) error {
	if !d.Equal(p.Round(d)) {
		return fmt.Errorf("%w: %s is not a multiple of %s", ErrFinerThanMinorUnit, d.String(), p.MinorUnit().String())
	}
	return nil
}

// Tolerance is the drift absorbed by DeadZone: two minor units.
func (p Precision) Tolerance() decimal.Decimal {
	return decimal.New(2, -p.Places)
}

// DeadZone returns zero when diff is within the rounding tolerance and the rounded diff otherwise.
func (p Precision) DeadZone(diff decimal.Decimal) decimal.Decimal {
	if diff.Abs().LessThan(p.Tolerance()) {
		return decimal.Zero
	}
	return p.Round(diff)
}

// Share splits total evenly across n and rounds the result. Callers guard n > 0.
func (p Precision) Share(total decimal.Decimal, n int) decimal.Decimal {
	return p.Round(total.Div(decimal.NewFromInt(int64(n))))
}
