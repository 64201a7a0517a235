package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/logger"
)

const (
	ReconcileJobName = "reconcile"
	defaultGrace     = 2 * time.Minute
)

type ReconcileReport struct {
	Checked   int
	Repaired  int
	Abandoned int
	Failed    int
}

// Reconciler drives unsettled write intents to a consistent state. It runs
// as a scheduler job.
type Reconciler struct {
	Writer      *Writer
	Cron        string
	BatchSize   int
	MaxAttempts int
	// Grace skips intents whose document write may still be in flight.
	Grace time.Duration
}

func NewReconciler(writer *Writer, schedule string, batchSize, maxAttempts int) *Reconciler {
	return &Reconciler{
		Writer:      writer,
		Cron:        schedule,
		BatchSize:   batchSize,
		MaxAttempts: maxAttempts,
		Grace:       defaultGrace,
	}
}

func (r *Reconciler) Name() string     { return ReconcileJobName }
func (r *Reconciler) Schedule() string { return r.Cron }

func (r *Reconciler) Run(ctx context.Context) error {
	report, err := r.Reconcile(ctx)
	if err != nil {
		return err
	}
	if report.Checked > 0 {
		logger.Info("reconciled write intents",
			"checked", report.Checked,
			"repaired", report.Repaired,
			"abandoned", report.Abandoned,
			"failed", report.Failed,
		)
	}
	return nil
}

// Reconcile handles one batch of intents.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	intents, err := r.Writer.Intents.ListUnsettled(ctx, r.BatchSize, r.MaxAttempts)
	if err != nil {
		return report, fmt.Errorf("failed to list write intents: %w", err)
	}

	now := r.Writer.Now().UTC()
	for _, intent := range intents {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if intent.Document == model.IntentPending && now.Sub(intent.UpdatedAt) < r.Grace {
			continue
		}
		report.Checked++

		intent.Attempts++
		stepErr := r.reconcileOne(ctx, &intent)
		intent.UpdatedAt = r.Writer.Now().UTC()

		switch {
		case intent.Document == model.IntentAbandoned:
			intent.LastError = ""
			report.Abandoned++
		case stepErr == nil && intent.Settled():
			intent.LastError = ""
			report.Repaired++
		default:
			if stepErr != nil {
				intent.LastError = stepErr.Error()
			}
			report.Failed++
			if r.MaxAttempts > 0 && intent.Attempts >= r.MaxAttempts {
				logger.Error("write intent needs an operator", "chunk_id", intent.ChunkID, "attempts", intent.Attempts, "error", intent.LastError)
			}
		}

		if err := r.Writer.Intents.UpdateIntent(ctx, intent); err != nil {
			logger.Error("failed to update write intent", "chunk_id", intent.ChunkID, "error", err)
		}
	}
	return report, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, intent *model.WriteIntent) error {
	w := r.Writer

	chunk, err := w.Documents.GetChunk(ctx, intent.ChunkID)
	switch {
	case err == nil:
		intent.Document = model.IntentCommitted
	case errors.Is(err, model.ErrNotFound):
		return r.abandon(ctx, intent)
	default:
		return fmt.Errorf("failed to read chunk: %w", err)
	}

	var errs []error
	if intent.Graph != model.IntentCommitted {
		if err := w.WriteGraph(ctx, chunk); err != nil {
			intent.Graph = model.IntentFailed
			errs = append(errs, err)
		} else {
			intent.Graph = model.IntentCommitted
			if err := w.Documents.SetGraphNodeID(ctx, chunk.ChunkID, chunk.ChunkID); err != nil {
				logger.Warn("failed to backfill graph node id", "chunk_id", chunk.ChunkID, "error", err)
			}
		}
	}
	if intent.Vector != model.IntentCommitted {
		if err := w.WriteVector(ctx, chunk); err != nil {
			intent.Vector = model.IntentFailed
			errs = append(errs, err)
		} else {
			intent.Vector = model.IntentCommitted
		}
	}
	return errors.Join(errs...)
}

// abandon removes the graph node and vector left behind by a chunk whose
// document write never landed.
func (r *Reconciler) abandon(ctx context.Context, intent *model.WriteIntent) error {
	w := r.Writer

	if _, err := w.Graph.ExecuteQuery(ctx, driver.DeleteMemoryQuery, map[string]interface{}{
		"id": intent.ChunkID,
	}); err != nil {
		return fmt.Errorf("failed to delete orphaned memory node: %w", err)
	}
	if err := w.Vectors.Delete(ctx, intent.ChunkID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to delete orphaned vector: %w", err)
	}
	intent.Document = model.IntentAbandoned
	return nil
}
