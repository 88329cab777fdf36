package reporting

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
)

// BalanceSheetLine is one account (or synthetic line) on the balance sheet.
type BalanceSheetLine struct {
	Code   string          `json:"code,omitempty"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceSheetSection groups lines under one classification.
type BalanceSheetSection struct {
	Label string             `json:"label"`
	Lines []BalanceSheetLine `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

func (s *BalanceSheetSection) add(line BalanceSheetLine) {
	s.Lines = append(s.Lines, line)
	s.Total = s.Total.Add(line.Amount)
}

// BalanceSheet is the structured point-in-time balance sheet. TotalAssets
// equals TotalLiabilitiesAndEquity because the synthetic retained earnings
// line carries the accumulated result of the income accounts.
type BalanceSheet struct {
	AsOf                      time.Time           `json:"as_of"`
	CurrentAssets             BalanceSheetSection `json:"current_assets"`
	FixedAssets               BalanceSheetSection `json:"fixed_assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalAssets               decimal.Decimal     `json:"total_assets"`
	TotalLiabilitiesAndEquity decimal.Decimal     `json:"total_liabilities_and_equity"`
}

func fixedAssetCode(code string) bool {
	return strings.HasPrefix(code, "15") || strings.HasPrefix(code, "16")
}

// BuildBalanceSheet classifies activity through the report date into asset,
// liability and equity sections and appends a synthetic retained earnings
// line equal to accumulated revenue minus accumulated expense.
func BuildBalanceSheet(asOf time.Time, activity []AccountActivity) BalanceSheet {
	bs := BalanceSheet{
		AsOf:          asOf,
		CurrentAssets: BalanceSheetSection{Label: "Current Assets"},
		FixedAssets:   BalanceSheetSection{Label: "Fixed Assets"},
		Liabilities:   BalanceSheetSection{Label: "Liabilities"},
		Equity:        BalanceSheetSection{Label: "Equity"},
	}
	var retained decimal.Decimal
	for _, acc := range activity {
		line := BalanceSheetLine{Code: acc.Code, Name: acc.Name, Amount: acc.Balance()}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			if fixedAssetCode(acc.Code) {
				bs.FixedAssets.add(line)
			} else {
				bs.CurrentAssets.add(line)
			}
		case accounts.AccountTypeLiability:
			bs.Liabilities.add(line)
		case accounts.AccountTypeEquity:
			bs.Equity.add(line)
		case accounts.AccountTypeRevenue:
			retained = retained.Add(line.Amount)
		case accounts.AccountTypeExpense:
			retained = retained.Sub(line.Amount)
		}
	}
	for _, section := range []*BalanceSheetSection{&bs.CurrentAssets, &bs.FixedAssets, &bs.Liabilities, &bs.Equity} {
		sort.Slice(section.Lines, func(i, j int) bool { return section.Lines[i].Code < section.Lines[j].Code })
	}
	// The synthetic line has no code and always renders last.
	bs.Equity.add(BalanceSheetLine{Name: "Retained Earnings (Current Period)", Amount: retained})
	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.FixedAssets.Total)
	bs.TotalLiabilitiesAndEquity = bs.Liabilities.Total.Add(bs.Equity.Total)
	return bs
}
