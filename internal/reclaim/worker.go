// Package reclaim runs link index maintenance in the background.
package reclaim

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// Maintainer is the part of shortener.Registry the worker drives.
type Maintainer interface {
	ReclaimExpired(ctx context.Context) (int64, error)
	RepairIndex(ctx context.Context) (shortener.IndexRepair, error)
}

// Report is the outcome of one pass.
type Report struct {
	Reclaimed int64
	Restored  int64
	Pruned    int64
}

// Worker runs ReclaimExpired followed by RepairIndex every interval.
type Worker struct {
	maintainer Maintainer
	interval   time.Duration
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewWorker creates a worker. A non-positive interval disables the background loop;
// RunOnce still works.
func NewWorker(maintainer Maintainer, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		maintainer: maintainer,
		interval:   interval,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// RunOnce performs a single pass.
func (w *Worker) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	reclaimed, err := w.maintainer.ReclaimExpired(ctx)
	report.Reclaimed = reclaimed

	if err != nil {
		return report, fmt.Errorf("reclaim expired: %w", err)
	}

	repair, err := w.maintainer.RepairIndex(ctx)
	report.Restored = repair.Restored
	report.Pruned = repair.Pruned

	if err != nil {
		return report, fmt.Errorf("repair index: %w", err)
	}

	return report, nil
}

// Start launches the loop. The first pass runs after one interval.
func (w *Worker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		close(w.done)
		w.logger.Info("reclaim worker disabled")

		return nil
	}

	ctx, w.cancel = context.WithCancel(ctx)

	go w.loop(ctx)

	w.logger.Info("reclaim worker started", zap.Duration("interval", w.interval))

	return nil
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := w.RunOnce(ctx)
			if err != nil {
				w.logger.Error("reclaim pass failed", zap.Error(err))

				continue
			}

			w.logger.Debug("reclaim pass finished",
				zap.Int64("reclaimed", report.Reclaimed),
				zap.Int64("restored", report.Restored),
				zap.Int64("pruned", report.Pruned),
			)
		}
	}
}

// Shutdown stops the loop and waits for a pass in progress. It returns at once when
// the loop never ran.
func (w *Worker) Shutdown() error {
	if w.cancel == nil {
		return nil
	}

	w.cancel()
	<-w.done

	return nil
}
