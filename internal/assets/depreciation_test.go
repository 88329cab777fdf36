package assets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testAsset(method DepreciationMethod, price, salvage string, lifeMonths int) Asset {
	return Asset{
		AcquisitionDate:  date(2024, time.January, 15),
		AcquisitionPrice: dec(price),
		SalvageValue:     dec(salvage),
		UsefulLifeMonths: lifeMonths,
		Method:           method,
	}
}

func TestMonthsElapsed(t *testing.T) {
	acquired := date(2024, time.January, 15)
	cases := []struct {
		asOf time.Time
		want int
	}{
		{date(2024, time.January, 10), 0},
		{date(2024, time.January, 15), 0},
		{date(2024, time.February, 14), 0},
		{date(2024, time.February, 15), 1},
		{date(2024, time.March, 20), 2},
		{date(2025, time.January, 15), 12},
		{date(2026, time.January, 15), 24},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MonthsElapsed(acquired, tc.asOf), tc.asOf.Format("2006-01-02"))
	}
}

func TestStraightLineAtTwoYears(t *testing.T) {
	asset := testAsset(MethodStraightLine, "12000.00", "0", 60)

	accumulated := Depreciation(asset, date(2026, time.January, 15))
	assert.True(t, accumulated.Equal(dec("4800.00")), "got %s", accumulated)

	value := asset.AcquisitionPrice.Sub(accumulated)
	assert.True(t, value.Equal(dec("7200.00")))
}

func TestStraightLineCapsAtDepreciableBase(t *testing.T) {
	asset := testAsset(MethodStraightLine, "12000.00", "2000.00", 60)

	// Ten years elapsed on a five year life.
	accumulated := Depreciation(asset, date(2034, time.January, 15))
	assert.True(t, accumulated.Equal(dec("10000.00")), "got %s", accumulated)
}

func TestStraightLineBeforeFirstWholeMonth(t *testing.T) {
	asset := testAsset(MethodStraightLine, "12000.00", "0", 60)
	assert.True(t, Depreciation(asset, date(2024, time.February, 1)).IsZero())
}

func TestDecliningBalanceIteratesWholeYears(t *testing.T) {
	asset := testAsset(MethodDeclining, "10000.00", "0", 60)

	// Annual rate 12/60 = 0.2: year one 2000, year two 1600.
	first := Depreciation(asset, date(2025, time.January, 15))
	assert.True(t, first.Equal(dec("2000.00")), "got %s", first)

	second := Depreciation(asset, date(2026, time.January, 15))
	assert.True(t, second.Equal(dec("3600.00")), "got %s", second)

	// 23 elapsed months is still a single whole year.
	partial := Depreciation(asset, date(2025, time.December, 20))
	assert.True(t, partial.Equal(dec("2000.00")), "got %s", partial)
}

func TestDoubleDecliningUsesDoubledRate(t *testing.T) {
	asset := testAsset(MethodDoubleDeclining, "10000.00", "0", 60)

	// Annual rate 24/60 = 0.4: year one 4000, year two 2400.
	second := Depreciation(asset, date(2026, time.January, 15))
	assert.True(t, second.Equal(dec("6400.00")), "got %s", second)
}

func TestDecliningStopsAtSalvage(t *testing.T) {
	asset := testAsset(MethodDoubleDeclining, "10000.00", "5000.00", 60)

	// Year one would take 4000 to book 6000; year two's 2400 is clamped to
	// 1000 so the book value never falls below salvage.
	accumulated := Depreciation(asset, date(2027, time.January, 15))
	assert.True(t, accumulated.Equal(dec("5000.00")), "got %s", accumulated)

	book := asset.AcquisitionPrice.Sub(accumulated)
	assert.True(t, book.Equal(asset.SalvageValue))
}

func TestDepreciationRecomputeIsIdempotent(t *testing.T) {
	asset := testAsset(MethodStraightLine, "12000.00", "0", 60)
	asOf := date(2026, time.January, 15)

	first := Depreciation(asset, asOf)
	asset.AccumulatedDepreciation = first
	asset.CurrentValue = asset.AcquisitionPrice.Sub(first)

	// The stored figures never feed back into the computation.
	second := Depreciation(asset, asOf)
	assert.True(t, first.Equal(second))
}

func TestZeroDepreciableBase(t *testing.T) {
	asset := testAsset(MethodStraightLine, "5000.00", "5000.00", 60)
	assert.True(t, Depreciation(asset, date(2030, time.January, 1)).IsZero())
}
