package reporting

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
)

// IncomeLine is one revenue or expense account over the window.
type IncomeLine struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeSection groups income lines by nature.
type IncomeSection struct {
	Label string          `json:"label"`
	Lines []IncomeLine    `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *IncomeSection) add(line IncomeLine) {
	s.Lines = append(s.Lines, line)
	s.Total = s.Total.Add(line.Amount)
}

// IncomeStatement is the structured profit and loss report for a window.
type IncomeStatement struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	Revenue           IncomeSection   `json:"revenue"`
	CostOfGoodsSold   IncomeSection   `json:"cost_of_goods_sold"`
	OperatingExpenses IncomeSection   `json:"operating_expenses"`
	OtherExpenses     IncomeSection   `json:"other_expenses"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	OperatingIncome   decimal.Decimal `json:"operating_income"`
	NetIncome         decimal.Decimal `json:"net_income"`
}

// Expense accounts are split by code range: 50xx cost of sales, 7xxx/8xxx
// non-operating, everything else operating.
func expenseSection(is *IncomeStatement, code string) *IncomeSection {
	switch {
	case strings.HasPrefix(code, "50"):
		return &is.CostOfGoodsSold
	case strings.HasPrefix(code, "7"), strings.HasPrefix(code, "8"):
		return &is.OtherExpenses
	default:
		return &is.OperatingExpenses
	}
}

// BuildIncomeStatement aggregates window activity into revenue and expense
// sections and derives gross profit, operating income and net income.
func BuildIncomeStatement(from, to time.Time, activity []AccountActivity) IncomeStatement {
	is := IncomeStatement{
		From:              from,
		To:                to,
		Revenue:           IncomeSection{Label: "Revenue"},
		CostOfGoodsSold:   IncomeSection{Label: "Cost of Goods Sold"},
		OperatingExpenses: IncomeSection{Label: "Operating Expenses"},
		OtherExpenses:     IncomeSection{Label: "Other Expenses"},
	}
	for _, acc := range activity {
		line := IncomeLine{Code: acc.Code, Name: acc.Name, Amount: acc.Balance()}
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			is.Revenue.add(line)
		case accounts.AccountTypeExpense:
			expenseSection(&is, acc.Code).add(line)
		}
	}
	for _, section := range []*IncomeSection{&is.Revenue, &is.CostOfGoodsSold, &is.OperatingExpenses, &is.OtherExpenses} {
		sort.Slice(section.Lines, func(i, j int) bool { return section.Lines[i].Code < section.Lines[j].Code })
	}
	is.GrossProfit = is.Revenue.Total.Sub(is.CostOfGoodsSold.Total)
	is.OperatingIncome = is.GrossProfit.Sub(is.OperatingExpenses.Total)
	is.NetIncome = is.OperatingIncome.Sub(is.OtherExpenses.Total)
	return is
}
