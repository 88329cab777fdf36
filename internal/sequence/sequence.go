// Package sequence issues human-readable document numbers such as
// JE-202608-0001. Numbers are monotonic per (prefix, period) scope and the
// read-increment-write is serialized by the backing Counter, so two
// concurrent callers can never receive the same number.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document prefixes used across the core.
const (
	PrefixJournal         = "JE"
	PrefixSalesInvoice    = "INV"
	PrefixPurchaseInvoice = "BILL"
	PrefixCreditNote      = "CN"
	PrefixDebitNote       = "DN"
	PrefixPayment         = "PAY"
	PrefixAsset           = "AST"
	PrefixCustomer        = "CUST"
	PrefixSupplier        = "SUPP"
)

// Counter issues the next ordinal for a (prefix, period) scope. Implementations
// must serialize concurrent calls for the same scope.
type Counter interface {
	Next(ctx context.Context, prefix, period string) (int64, error)
}

// Period returns the calendar scope (YYYYMM) for period-numbered documents.
func Period(t time.Time) string {
	return t.Format("200601")
}

// Format renders a document number. Period may be empty for documents
// numbered globally (assets, customers, suppliers).
func Format(prefix, period string, n int64) string {
	if period == "" {
		return fmt.Sprintf("%s-%04d", prefix, n)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, period, n)
}

// Parse splits a document number back into its parts.
func Parse(number string) (prefix, period string, n int64, err error) {
	parts := strings.Split(number, "-")
	switch len(parts) {
	case 2:
		prefix = parts[0]
		n, err = strconv.ParseInt(parts[1], 10, 64)
	case 3:
		prefix = parts[0]
		period = parts[1]
		n, err = strconv.ParseInt(parts[2], 10, 64)
	default:
		err = fmt.Errorf("sequence: malformed number %q", number)
	}
	return prefix, period, n, err
}

// Generator produces formatted document numbers from a Counter.
type Generator struct {
	counter Counter
}

// NewGenerator wraps a Counter.
func NewGenerator(counter Counter) *Generator {
	return &Generator{counter: counter}
}

// NextNumber issues the next formatted number for the scope.
func (g *Generator) NextNumber(ctx context.Context, prefix, period string) (string, error) {
	n, err := g.counter.Next(ctx, prefix, period)
	if err != nil {
		return "", err
	}
	return Format(prefix, period, n), nil
}
