package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity re-checks stored account balances against the
	// journal lines behind them.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskReportWarmup pre-computes the heavy reports into the cache.
	TaskReportWarmup = "reports:warmup"
)

// LedgerIntegrityPayload carries scheduling metadata for the sweep.
type LedgerIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerIntegrityTask constructs an Asynq task for the integrity sweep.
func NewLedgerIntegrityTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerIntegrityPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, body, asynq.Queue(QueueDefault)), nil
}

// ReportWarmupPayload selects the reporting date to warm.
type ReportWarmupPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewReportWarmupTask constructs an Asynq task for report cache warmup.
func NewReportWarmupTask(asOf time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ReportWarmupPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, body, asynq.Queue(QueueDefault)), nil
}
