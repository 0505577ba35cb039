// Package sizing converts capital, risk and price levels into order quantities.
package sizing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice = errors.New("invalid price")
	ErrInvalidRisk  = errors.New("invalid risk")
)

// feeReserve is how many fee payments are kept out of a position
const feeReserve = 3

// SizeToQty converts a position size in quote currency into a quantity at
// price, rounded down to precision decimals. A non zero feeRate shrinks the
// size to leave room for the fees.
func SizeToQty(size, price float64, precision int32, feeRate float64) (float64, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}

	position := decimal.NewFromFloat(size)
	if feeRate != 0 {
		position = position.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(feeRate).Mul(decimal.NewFromInt(feeReserve))))
	}

	qty, _ := position.Div(decimal.NewFromFloat(price)).RoundFloor(precision).Float64()
	return qty, nil
}

// RiskSize returns the position size so that reaching stop loses
// riskPercent of capital, capped at capital
func RiskSize(capital, riskPercent, entry, stop float64) (float64, error) {
	if riskPercent <= 0 || math.IsNaN(riskPercent) {
		return 0, fmt.Errorf("%w: risk per capital %v", ErrInvalidRisk, riskPercent)
	}

	if entry <= 0 || stop <= 0 || math.IsNaN(entry) || math.IsNaN(stop) {
		return 0, fmt.Errorf("%w: entry %v stop %v", ErrInvalidPrice, entry, stop)
	}

	riskPerQty := decimal.NewFromFloat(entry).Sub(decimal.NewFromFloat(stop)).Abs()
	if riskPerQty.IsZero() {
		return 0, fmt.Errorf("%w: entry equals stop", ErrInvalidRisk)
	}

	capitalDec := decimal.NewFromFloat(capital)
	size := decimal.NewFromFloat(riskPercent).Div(decimal.NewFromInt(100)).
		Mul(capitalDec).
		Mul(decimal.NewFromFloat(entry)).
		Div(riskPerQty)

	result, _ := decimal.Min(size, capitalDec).Float64()
	return result, nil
}

// RiskToQty is RiskSize expressed as a quantity at entry
func RiskToQty(capital, riskPercent, entry, stop float64, precision int32, feeRate float64) (float64, error) {
	size, err := RiskSize(capital, riskPercent, entry, stop)
	if err != nil {
		return 0, err
	}

	return SizeToQty(size, entry, precision, feeRate)
}
