package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/invoicing"
)

// AgingBucket classifies how far past due an invoice is.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "CURRENT"
	Bucket1to30   AgingBucket = "1-30"
	Bucket31to60  AgingBucket = "31-60"
	Bucket61to90  AgingBucket = "61-90"
	BucketOver90  AgingBucket = "90+"
)

// BucketFor returns the aging bucket for a due date relative to asOf.
func BucketFor(asOf, dueDate time.Time) AgingBucket {
	days := int(asOf.Sub(dueDate).Hours() / 24)
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket1to30
	case days <= 60:
		return Bucket31to60
	case days <= 90:
		return Bucket61to90
	default:
		return BucketOver90
	}
}

// AgingLine is one unpaid invoice with its bucket.
type AgingLine struct {
	InvoiceID   int64           `json:"invoice_id"`
	Number      string          `json:"number"`
	PartyID     int64           `json:"party_id"`
	DueDate     time.Time       `json:"due_date"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Bucket      AgingBucket     `json:"bucket"`
}

// AgingTotals sums outstanding amounts per bucket.
type AgingTotals struct {
	Current decimal.Decimal `json:"current"`
	Days30  decimal.Decimal `json:"days_1_30"`
	Days60  decimal.Decimal `json:"days_31_60"`
	Days90  decimal.Decimal `json:"days_61_90"`
	Over90  decimal.Decimal `json:"over_90"`
	Total   decimal.Decimal `json:"total"`
}

func (t *AgingTotals) add(bucket AgingBucket, amount decimal.Decimal) {
	switch bucket {
	case BucketCurrent:
		t.Current = t.Current.Add(amount)
	case Bucket1to30:
		t.Days30 = t.Days30.Add(amount)
	case Bucket31to60:
		t.Days60 = t.Days60.Add(amount)
	case Bucket61to90:
		t.Days90 = t.Days90.Add(amount)
	case BucketOver90:
		t.Over90 = t.Over90.Add(amount)
	}
	t.Total = t.Total.Add(amount)
}

// AgingReport buckets one side's unpaid invoices by time past due.
type AgingReport struct {
	AsOf       time.Time   `json:"as_of"`
	Receivable bool        `json:"receivable"`
	Lines      []AgingLine `json:"lines"`
	Totals     AgingTotals `json:"totals"`
}

// BuildAging computes the aging report over unpaid invoices. Fully settled
// or cancelled documents are expected to be filtered out by the caller.
func BuildAging(asOf time.Time, receivable bool, invoices []invoicing.Invoice) AgingReport {
	report := AgingReport{AsOf: asOf, Receivable: receivable}
	for _, inv := range invoices {
		outstanding := inv.Balance()
		if !outstanding.IsPositive() {
			continue
		}
		bucket := BucketFor(asOf, inv.DueDate)
		report.Lines = append(report.Lines, AgingLine{
			InvoiceID:   inv.ID,
			Number:      inv.Number,
			PartyID:     inv.PartyID,
			DueDate:     inv.DueDate,
			Outstanding: outstanding,
			Bucket:      bucket,
		})
		report.Totals.add(bucket, outstanding)
	}
	sort.Slice(report.Lines, func(i, j int) bool {
		return report.Lines[i].DueDate.Before(report.Lines[j].DueDate)
	})
	return report
}
