package assets

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service manages the asset registry and depreciation recomputation.
type Service struct {
	repo   Repository
	audit  shared.AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, audit shared.AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns one asset.
func (s *Service) Get(ctx context.Context, id int64) (Asset, error) {
	return s.repo.Get(ctx, id)
}

// List returns all registered assets.
func (s *Service) List(ctx context.Context) ([]Asset, error) {
	return s.repo.List(ctx)
}

// Create registers an asset with a generated number. The current value
// starts at the acquisition price.
func (s *Service) Create(ctx context.Context, in CreateInput) (Asset, error) {
	if err := in.Validate(); err != nil {
		return Asset{}, err
	}
	var asset Asset
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextAssetNumber(ctx)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertAsset(ctx, Asset{
			Number:                  number,
			Name:                    in.Name,
			Category:                in.Category,
			AcquisitionDate:         in.AcquisitionDate,
			AcquisitionPrice:        in.AcquisitionPrice,
			SalvageValue:            in.SalvageValue,
			UsefulLifeMonths:        in.UsefulLifeMonths,
			Method:                  in.Method,
			AccumulatedDepreciation: decimal.Zero,
			CurrentValue:            in.AcquisitionPrice,
		})
		if err != nil {
			return err
		}
		asset = inserted
		return nil
	})
	if err != nil {
		return Asset{}, err
	}
	s.record(ctx, in.ActorID, "asset.create", asset.ID, map[string]any{"number": asset.Number})
	return asset, nil
}

// CalculateDepreciation recomputes accumulated depreciation from the
// acquisition date and persists the derived values. Repeated calls with the
// same asOf are idempotent since nothing is accumulated incrementally.
func (s *Service) CalculateDepreciation(ctx context.Context, id int64, asOf time.Time, actorID int64) (Asset, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	var asset Asset
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetAsset(ctx, id)
		if err != nil {
			return err
		}
		accumulated := Depreciation(current, asOf)
		value := current.AcquisitionPrice.Sub(accumulated)
		if value.LessThan(current.SalvageValue) {
			value = current.SalvageValue
			accumulated = current.AcquisitionPrice.Sub(current.SalvageValue)
		}
		if err := tx.SetDepreciation(ctx, id, accumulated, value); err != nil {
			return err
		}
		current.AccumulatedDepreciation = accumulated
		current.CurrentValue = value
		asset = current
		return nil
	})
	if err != nil {
		return Asset{}, err
	}
	s.record(ctx, actorID, "asset.depreciate", id, map[string]any{
		"as_of":       asOf.Format("2006-01-02"),
		"accumulated": asset.AccumulatedDepreciation.String(),
	})
	return asset, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, assetID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "asset",
		EntityID: strconv.FormatInt(assetID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
