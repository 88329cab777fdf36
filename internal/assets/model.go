package assets

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DepreciationMethod enumerates the supported calculation methods.
type DepreciationMethod string

const (
	MethodStraightLine    DepreciationMethod = "STRAIGHT_LINE"
	MethodDeclining       DepreciationMethod = "DECLINING_BALANCE"
	MethodDoubleDeclining DepreciationMethod = "DOUBLE_DECLINING"
)

// Valid reports whether the method is known.
func (m DepreciationMethod) Valid() bool {
	switch m {
	case MethodStraightLine, MethodDeclining, MethodDoubleDeclining:
		return true
	}
	return false
}

// Asset is a depreciable fixed asset. AccumulatedDepreciation and
// CurrentValue are derived values, idempotently recomputed from the
// acquisition date rather than accumulated by repeated deltas.
type Asset struct {
	ID                      int64
	Number                  string
	Name                    string
	Category                string
	AcquisitionDate         time.Time
	AcquisitionPrice        decimal.Decimal
	SalvageValue            decimal.Decimal
	UsefulLifeMonths        int
	Method                  DepreciationMethod
	AccumulatedDepreciation decimal.Decimal
	CurrentValue            decimal.Decimal
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// BookValue returns the carrying amount implied by the stored depreciation.
func (a Asset) BookValue() decimal.Decimal {
	return a.AcquisitionPrice.Sub(a.AccumulatedDepreciation)
}

// CreateInput groups fields required to register an asset.
type CreateInput struct {
	Name             string
	Category         string
	AcquisitionDate  time.Time
	AcquisitionPrice decimal.Decimal
	SalvageValue     decimal.Decimal
	UsefulLifeMonths int
	Method           DepreciationMethod
	ActorID          int64
}

// Validate ensures create input meets minimum criteria.
func (in CreateInput) Validate() error {
	if in.Name == "" {
		return errors.New("assets: name required")
	}
	if in.AcquisitionDate.IsZero() {
		return errors.New("assets: acquisition date required")
	}
	if !in.AcquisitionPrice.IsPositive() {
		return errors.New("assets: acquisition price must be positive")
	}
	if in.SalvageValue.IsNegative() {
		return errors.New("assets: negative salvage value")
	}
	if in.SalvageValue.GreaterThan(in.AcquisitionPrice) {
		return errors.New("assets: salvage value exceeds acquisition price")
	}
	if in.UsefulLifeMonths <= 0 {
		return errors.New("assets: useful life must be positive")
	}
	if !in.Method.Valid() {
		return fmt.Errorf("assets: unknown depreciation method %q", in.Method)
	}
	return nil
}
