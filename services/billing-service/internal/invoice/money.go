package invoice

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/nexzo/platform/gomicro/apperror"
)

// UnitAmountScale is the number of decimal places kept on unit amounts
const UnitAmountScale = 8

// Amounts and quantities are stored as numeric(18,4), tax rates as
// numeric(7,4). Inputs that the columns would round or overflow are rejected.
const (
	AmountScale      = 4
	AmountIntDigits  = 14
	TaxRateIntDigits = 3
)

// LineInput is a requested invoice line. Amount is the line total.
type LineInput struct {
	Description string
	Category    string
	Amount      float64
	Quantity    *float64
	TaxRate     *float64
	SolarBand   *string
}

// Line is a priced invoice line
type Line struct {
	Description string
	Category    string
	Quantity    decimal.Decimal
	UnitAmount  decimal.Decimal
	TotalAmount decimal.Decimal
	TaxRate     decimal.NullDecimal
	SolarBand   *string
}

// PriceLines converts requested lines to decimal amounts and returns them
// with the invoice total. A total that is not a finite number is rejected
// before any decimal conversion.
func PriceLines(items []LineInput) ([]Line, decimal.Decimal, error) {
	var sum float64
	for _, item := range items {
		sum += item.Amount
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, decimal.Zero, apperror.BadRequest("Invalid invoice total")
	}

	lines := make([]Line, 0, len(items))
	total := decimal.Zero
	for i, item := range items {
		amount := decimal.NewFromFloat(item.Amount)
		if !fits(amount, AmountIntDigits) {
			return nil, decimal.Zero, apperror.BadRequestf(
				"Line %d amount must have at most %d decimal places and %d integer digits", i+1, AmountScale, AmountIntDigits)
		}

		quantity := decimal.NewFromInt(1)
		if item.Quantity != nil {
			quantity = decimal.NewFromFloat(*item.Quantity)
			if !quantity.IsPositive() || !fits(quantity, AmountIntDigits) {
				return nil, decimal.Zero, apperror.BadRequestf(
					"Line %d quantity must be positive with at most %d decimal places and %d integer digits", i+1, AmountScale, AmountIntDigits)
			}
		}

		line := Line{
			Description: item.Description,
			Category:    item.Category,
			Quantity:    quantity,
			UnitAmount:  amount.DivRound(quantity, UnitAmountScale),
			TotalAmount: amount,
			SolarBand:   item.SolarBand,
		}
		if item.TaxRate != nil {
			rate := decimal.NewFromFloat(*item.TaxRate)
			if !fits(rate, TaxRateIntDigits) {
				return nil, decimal.Zero, apperror.BadRequestf(
					"Line %d taxRate must have at most %d decimal places and %d integer digits", i+1, AmountScale, TaxRateIntDigits)
			}
			line.TaxRate = decimal.NewNullDecimal(rate)
		}

		lines = append(lines, line)
		total = total.Add(amount)
	}

	if !fits(total, AmountIntDigits) {
		return nil, decimal.Zero, apperror.BadRequest("Invalid invoice total")
	}
	return lines, total, nil
}

// fits reports whether d is stored exactly with AmountScale decimal places
// and at most intDigits integer digits
func fits(d decimal.Decimal, intDigits int32) bool {
	if !d.Equal(d.Truncate(AmountScale)) {
		return false
	}
	return d.Abs().LessThan(decimal.New(1, intDigits))
}
