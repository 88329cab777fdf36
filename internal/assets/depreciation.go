package assets

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthsElapsed counts whole calendar months between acquisition and asOf.
// A partially elapsed month does not count.
func MonthsElapsed(acquired, asOf time.Time) int {
	if !asOf.After(acquired) {
		return 0
	}
	months := (asOf.Year()-acquired.Year())*12 + int(asOf.Month()) - int(acquired.Month())
	if asOf.Day() < acquired.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Depreciation recomputes an asset's accumulated depreciation from scratch
// as of the given date. The result never drives the book value below the
// salvage value.
func Depreciation(asset Asset, asOf time.Time) decimal.Decimal {
	months := MonthsElapsed(asset.AcquisitionDate, asOf)
	if months <= 0 || asset.UsefulLifeMonths <= 0 {
		return decimal.Zero
	}
	depreciable := asset.AcquisitionPrice.Sub(asset.SalvageValue)
	if !depreciable.IsPositive() {
		return decimal.Zero
	}

	switch asset.Method {
	case MethodDeclining:
		return decliningBalance(asset, months, decimal.NewFromInt(12))
	case MethodDoubleDeclining:
		return decliningBalance(asset, months, decimal.NewFromInt(24))
	default:
		monthly := depreciable.Div(decimal.NewFromInt(int64(asset.UsefulLifeMonths)))
		accumulated := monthly.Mul(decimal.NewFromInt(int64(months)))
		if accumulated.GreaterThan(depreciable) {
			return depreciable
		}
		return accumulated
	}
}

// decliningBalance iterates whole elapsed years, depreciating a fixed rate
// of the remaining book value each year and stopping once another full year
// would push the book value below salvage.
func decliningBalance(asset Asset, months int, rateNumerator decimal.Decimal) decimal.Decimal {
	rate := rateNumerator.Div(decimal.NewFromInt(int64(asset.UsefulLifeMonths)))
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		rate = decimal.NewFromInt(1)
	}
	years := months / 12
	book := asset.AcquisitionPrice
	accumulated := decimal.Zero
	for i := 0; i < years; i++ {
		annual := book.Mul(rate)
		if book.Sub(annual).LessThan(asset.SalvageValue) {
			annual = book.Sub(asset.SalvageValue)
			if !annual.IsPositive() {
				break
			}
		}
		accumulated = accumulated.Add(annual)
		book = book.Sub(annual)
	}
	return accumulated
}
