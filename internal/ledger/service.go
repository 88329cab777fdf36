package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Metrics receives posting counters. Implemented by internal/observability.
type Metrics interface {
	EntryPosted()
	EntryReversed()
	SequenceConflict()
}

// CacheInvalidator drops cached report aggregates after the ledger changes.
type CacheInvalidator interface {
	InvalidateReports(ctx context.Context)
}

// Service implements the journal ledger: creation, posting, reversal and
// voiding of balanced entries.
type Service struct {
	repo    Repository
	audit   shared.AuditPort
	logger  *slog.Logger
	metrics Metrics
	cache   CacheInvalidator
	now     func() time.Time
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

// WithMetrics injects posting counters.
func (s *Service) WithMetrics(m Metrics) { s.metrics = m }

// WithCacheInvalidator injects the report cache hook.
func (s *Service) WithCacheInvalidator(c CacheInvalidator) { s.cache = c }

// Get returns one entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns one entry by its document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (Entry, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns all entries, newest number first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}

// Create validates and persists a balanced entry in Draft status. The entry,
// its lines and its document number commit as one unit; an unbalanced input
// fails with ErrUnbalanced and persists nothing.
func (s *Service) Create(ctx context.Context, in CreateInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := s.createInTx(ctx, tx, in)
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrSequenceConflict) && s.metrics != nil {
			s.metrics.SequenceConflict()
		}
		return Entry{}, err
	}
	s.record(ctx, in.ActorID, "journal.create", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// Post transitions a Draft entry to Posted and applies every line to its
// account balance with the normal-side sign convention. Posting an entry that
// is no longer Draft is a soft no-op: the current entry is returned and a
// warning is logged.
func (s *Service) Post(ctx context.Context, id, actorID int64) (Entry, error) {
	var entry Entry
	var posted bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != EntryStatusDraft {
			entry = current
			return nil
		}
		result, err := s.postInTx(ctx, tx, current)
		if err != nil {
			return err
		}
		entry = result
		posted = true
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	if !posted {
		s.logger.Warn("post skipped, entry is not draft",
			slog.Int64("entry_id", id), slog.String("status", string(entry.Status)))
		return entry, nil
	}
	if s.metrics != nil {
		s.metrics.EntryPosted()
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, "journal.post", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// CreatePosted creates and posts an entry atomically. Subledgers use this so
// their derived postings either fully apply or leave no trace.
func (s *Service) CreatePosted(ctx context.Context, in CreateInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := s.createInTx(ctx, tx, in)
		if err != nil {
			return err
		}
		posted, err := s.postInTx(ctx, tx, created)
		if err != nil {
			return err
		}
		entry = posted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	if s.metrics != nil {
		s.metrics.EntryPosted()
	}
	s.invalidate(ctx)
	s.record(ctx, in.ActorID, "journal.post", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// Reverse builds and posts a mirror entry for a Posted original, then marks
// the original Reversed. It is the only supported way to undo a posted entry.
func (s *Service) Reverse(ctx context.Context, in ReverseInput) (Entry, error) {
	if in.EntryID == 0 {
		return Entry{}, errors.New("ledger: entry id required")
	}
	var reversal Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryWithLines(ctx, in.EntryID)
		if err != nil {
			return err
		}
		if original.Status != EntryStatusPosted {
			return fmt.Errorf("ledger: reverse %s entry: %w", original.Status, shared.ErrInvalidTransition)
		}
		mirror := CreateInput{
			Date:        s.now(),
			Description: reversalDescription(in.Reason, original.Number),
			Reference:   original.Number,
			Type:        EntryTypeReversing,
			ActorID:     in.ActorID,
			Lines:       mirrorLines(original.Lines),
		}
		created, err := s.createInTx(ctx, tx, mirror)
		if err != nil {
			return err
		}
		if err := tx.SetReversal(ctx, created.ID, original.ID); err != nil {
			return err
		}
		created.IsReversing = true
		created.ReversedID = &original.ID
		posted, err := s.postInTx(ctx, tx, created)
		if err != nil {
			return err
		}
		changed, err := tx.UpdateStatus(ctx, original.ID, EntryStatusPosted, EntryStatusReversed)
		if err != nil {
			return err
		}
		if !changed {
			return shared.ErrInvalidTransition
		}
		if err := tx.SetReversal(ctx, original.ID, posted.ID); err != nil {
			return err
		}
		posted.IsReversing = true
		posted.ReversedID = &original.ID
		reversal = posted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	if s.metrics != nil {
		s.metrics.EntryReversed()
	}
	s.invalidate(ctx)
	s.record(ctx, in.ActorID, "journal.reverse", in.EntryID, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.Number,
		"reason":          in.Reason,
	})
	return reversal, nil
}

// Void marks a Draft entry Voided with no account impact. A Posted entry is
// delegated to Reverse instead, since its balances were already applied.
func (s *Service) Void(ctx context.Context, in VoidInput) (Entry, error) {
	if in.EntryID == 0 {
		return Entry{}, errors.New("ledger: entry id required")
	}
	current, err := s.repo.Get(ctx, in.EntryID)
	if err != nil {
		return Entry{}, err
	}
	switch current.Status {
	case EntryStatusPosted:
		return s.Reverse(ctx, ReverseInput(in))
	case EntryStatusDraft:
		var entry Entry
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			changed, err := tx.UpdateStatus(ctx, in.EntryID, EntryStatusDraft, EntryStatusVoid)
			if err != nil {
				return err
			}
			if !changed {
				return shared.ErrInvalidTransition
			}
			found, err := tx.GetEntryWithLines(ctx, in.EntryID)
			if err != nil {
				return err
			}
			entry = found
			return nil
		})
		if err != nil {
			return Entry{}, err
		}
		s.record(ctx, in.ActorID, "journal.void", entry.ID, map[string]any{"reason": in.Reason})
		return entry, nil
	default:
		return Entry{}, fmt.Errorf("ledger: void %s entry: %w", current.Status, shared.ErrInvalidTransition)
	}
}

func (s *Service) createInTx(ctx context.Context, tx TxRepository, in CreateInput) (Entry, error) {
	for _, line := range in.Lines {
		account, err := tx.GetAccount(ctx, line.AccountID)
		if err != nil {
			return Entry{}, fmt.Errorf("ledger: account %d: %w", line.AccountID, err)
		}
		if !account.IsActive {
			return Entry{}, fmt.Errorf("ledger: account %s is inactive", account.Code)
		}
	}
	number, err := tx.NextJournalNumber(ctx, sequence.Period(in.Date))
	if err != nil {
		return Entry{}, err
	}
	debit, credit := in.Totals()
	entry := Entry{
		Number:       number,
		Date:         in.Date,
		Description:  in.Description,
		Reference:    in.Reference,
		Type:         in.Type,
		Status:       EntryStatusDraft,
		TotalDebit:   debit,
		TotalCredit:  credit,
		SourceModule: in.SourceModule,
		SourceID:     in.SourceID,
		IsReversing:  in.Type == EntryTypeReversing,
	}
	inserted, err := tx.InsertEntry(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	lines := make([]Line, 0, len(in.Lines))
	for _, line := range in.Lines {
		lines = append(lines, Line{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	inserted.Lines, err = tx.InsertLines(ctx, inserted.ID, lines)
	if err != nil {
		return Entry{}, err
	}
	if in.SourceModule != "" && in.SourceID != uuid.Nil {
		if err := tx.LinkSource(ctx, in.SourceModule, in.SourceID, inserted.ID); err != nil {
			return Entry{}, err
		}
	}
	return inserted, nil
}

func (s *Service) postInTx(ctx context.Context, tx TxRepository, entry Entry) (Entry, error) {
	changed, err := tx.UpdateStatus(ctx, entry.ID, EntryStatusDraft, EntryStatusPosted)
	if err != nil {
		return Entry{}, err
	}
	if !changed {
		return Entry{}, fmt.Errorf("ledger: post entry %d: %w", entry.ID, shared.ErrInvalidTransition)
	}
	for _, line := range entry.Lines {
		account, err := tx.GetAccount(ctx, line.AccountID)
		if err != nil {
			return Entry{}, err
		}
		delta := account.Type.BalanceDelta(line.Debit, line.Credit)
		if err := tx.AdjustAccountBalance(ctx, line.AccountID, delta); err != nil {
			return Entry{}, err
		}
	}
	entry.Status = EntryStatusPosted
	now := s.now()
	entry.PostedAt = &now
	return entry, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateReports(ctx)
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: strconv.FormatInt(entryID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}

func mirrorLines(lines []Line) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Credit,
			Credit:      line.Debit,
		})
	}
	return out
}

func reversalDescription(reason, number string) string {
	if reason != "" {
		return fmt.Sprintf("Reversal of %s: %s", number, reason)
	}
	return fmt.Sprintf("Reversal of %s", number)
}
