package reporting

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// CashFlowActivity classifies a cash movement.
type CashFlowActivity string

const (
	ActivityOperating CashFlowActivity = "OPERATING"
	ActivityInvesting CashFlowActivity = "INVESTING"
	ActivityFinancing CashFlowActivity = "FINANCING"
)

var investingKeywords = []string{"asset", "equipment", "vehicle", "property", "investment"}
var financingKeywords = []string{"loan", "dividend", "capital", "share", "equity"}

// ClassifyCashMovement buckets one entry's cash movement. Subledger entry
// types are operating by definition; manual entries fall back to description
// keywords, operating when none match.
func ClassifyCashMovement(entryType ledger.EntryType, description string) CashFlowActivity {
	switch entryType {
	case ledger.EntryTypeSales, ledger.EntryTypePurchase, ledger.EntryTypePayment:
		return ActivityOperating
	}
	lowered := strings.ToLower(description)
	for _, kw := range investingKeywords {
		if strings.Contains(lowered, kw) {
			return ActivityInvesting
		}
	}
	for _, kw := range financingKeywords {
		if strings.Contains(lowered, kw) {
			return ActivityFinancing
		}
	}
	return ActivityOperating
}

// CashFlowLine is one entry's contribution to a cash-flow section.
type CashFlowLine struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// CashFlowSection totals one activity class.
type CashFlowSection struct {
	Label string          `json:"label"`
	Lines []CashFlowLine  `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *CashFlowSection) add(line CashFlowLine) {
	s.Lines = append(s.Lines, line)
	s.Total = s.Total.Add(line.Amount)
}

// CashFlowStatement reconciles beginning to ending cash over the window.
type CashFlowStatement struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	BeginningCash decimal.Decimal `json:"beginning_cash"`
	Operating     CashFlowSection `json:"operating"`
	Investing     CashFlowSection `json:"investing"`
	Financing     CashFlowSection `json:"financing"`
	NetChange     decimal.Decimal `json:"net_change"`
	EndingCash    decimal.Decimal `json:"ending_cash"`
}

// BuildCashFlow buckets per-entry cash movements into operating, investing
// and financing activity. Movements are expected in chronological order.
func BuildCashFlow(from, to time.Time, beginning decimal.Decimal, movements []EntryCashMovement) CashFlowStatement {
	cf := CashFlowStatement{
		From:          from,
		To:            to,
		BeginningCash: beginning,
		Operating:     CashFlowSection{Label: "Operating Activities"},
		Investing:     CashFlowSection{Label: "Investing Activities"},
		Financing:     CashFlowSection{Label: "Financing Activities"},
	}
	for _, mv := range movements {
		if mv.Amount.IsZero() {
			continue
		}
		line := CashFlowLine{Date: mv.Date, Description: mv.Description, Amount: mv.Amount}
		switch ClassifyCashMovement(mv.Type, mv.Description) {
		case ActivityInvesting:
			cf.Investing.add(line)
		case ActivityFinancing:
			cf.Financing.add(line)
		default:
			cf.Operating.add(line)
		}
	}
	cf.NetChange = cf.Operating.Total.Add(cf.Investing.Total).Add(cf.Financing.Total)
	cf.EndingCash = cf.BeginningCash.Add(cf.NetChange)
	return cf
}
