// Package worker keeps the daily_summaries rollup current. It consumes
// record-commit events and recomputes the affected day; a startup sweep
// rebuilds every recorded day to recover from missed messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stationops/internal/amqp"
	"stationops/internal/core"
)

// SummaryStore is the slice of the SQLite repository the worker needs.
type SummaryStore interface {
	RefreshDailySummary(ctx context.Context, date core.Date) error
	RebuildDailySummaries(ctx context.Context) (int, error)
}

// RollupWorker recomputes per-day rollups as records are committed.
type RollupWorker struct {
	storage SummaryStore
}

func NewRollupWorker(storage SummaryStore) *RollupWorker {
	return &RollupWorker{storage: storage}
}

// HandleCommitMessage processes one record-commit event. Events of any
// kind land on the same rollup row: the day the record belongs to.
func (w *RollupWorker) HandleCommitMessage(ctx context.Context, msg *amqp.RecordCommittedMessage) error {
	if err := msg.Date.Validate(); err != nil {
		// A bad date can never succeed on retry; drop it.
		slog.WarnContext(ctx, "Commit event carries an invalid date, skipping",
			"kind", msg.Kind, "id", msg.ID, "date", msg.Date)
		return nil
	}

	if err := w.storage.RefreshDailySummary(ctx, msg.Date); err != nil {
		return fmt.Errorf("refresh summary for %s: %w", msg.Date, err)
	}

	slog.InfoContext(ctx, "Daily summary refreshed",
		"date", msg.Date, "kind", msg.Kind, "id", msg.ID)
	return nil
}

// StartupSweep rebuilds the rollup for every recorded day. Run once
// before consuming so downtime never leaves stale summaries behind.
func (w *RollupWorker) StartupSweep(ctx context.Context) error {
	started := time.Now()
	n, err := w.storage.RebuildDailySummaries(ctx)
	if err != nil {
		return fmt.Errorf("startup sweep: %w", err)
	}

	slog.InfoContext(ctx, "Startup sweep completed",
		"days", n, "took", time.Since(started).Round(time.Millisecond))
	return nil
}
