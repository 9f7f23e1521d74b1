package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/internal/backfill"
	"github.com/marceleta/crypto-monitor/pkg/config"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

// TaskQueue is the consuming side of the backfill work queue
type TaskQueue interface {
	SubscribeBackfillRequests(handler func(*models.BackfillRequest)) error
}

// QuoteCache invalidates cached latest quotes after new data lands
type QuoteCache interface {
	InvalidateLatestQuote(ctx context.Context, tokenID int64) error
}

// BackfillWorker consumes queued backfill requests and runs the orchestrator
// with bounded concurrency. Tasks for different assets may run in parallel;
// write safety across workers comes from the store's atomic upsert, not from
// any in-process lock.
type BackfillWorker struct {
	queue        TaskQueue
	orchestrator *backfill.Orchestrator
	cache        QuoteCache
	logger       *logrus.Entry
	cfg          *config.BackfillConfig

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewBackfillWorker creates a backfill worker
func NewBackfillWorker(
	queue TaskQueue,
	orchestrator *backfill.Orchestrator,
	cache QuoteCache,
	cfg *config.BackfillConfig,
	logger *logrus.Logger,
) *BackfillWorker {
	return &BackfillWorker{
		queue:        queue,
		orchestrator: orchestrator,
		cache:        cache,
		logger:       logger.WithField("component", "backfill-worker"),
		cfg:          cfg,
		sem:          make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Start subscribes to the work queue; each request runs on its own goroutine
// bounded by the concurrency limit
func (w *BackfillWorker) Start(ctx context.Context) error {
	if err := w.queue.SubscribeBackfillRequests(func(req *models.BackfillRequest) {
		w.wg.Add(1)
		go w.handle(ctx, req)
	}); err != nil {
		return err
	}

	w.logger.WithField("max_concurrent", w.cfg.MaxConcurrent).Info("Backfill worker started")
	return nil
}

// Wait blocks until all in-flight tasks finish
func (w *BackfillWorker) Wait() {
	w.wg.Wait()
}

func (w *BackfillWorker) handle(ctx context.Context, req *models.BackfillRequest) {
	defer w.wg.Done()

	w.sem <- struct{}{}
	defer func() { <-w.sem }()

	ctx, cancel := context.WithTimeout(ctx, w.cfg.TaskTimeout)
	defer cancel()

	log := w.logger.WithFields(logrus.Fields{
		"asset_id": req.AssetID,
		"token_id": req.TokenID,
	})

	purchase, err := req.PurchaseDay()
	if err != nil {
		log.WithError(err).Error("Malformed backfill request, dropping")
		return
	}

	asset := &models.Asset{
		ID:           req.AssetID,
		TokenID:      req.TokenID,
		UserID:       req.UserID,
		PurchaseDate: purchase,
	}

	result, err := w.orchestrator.Backfill(ctx, asset)
	if err != nil {
		// No retry here: the next natural trigger recomputes the same
		// gaps and re-drives the fetch
		switch {
		case errors.Is(err, backfill.ErrUnsupportedExchange):
			log.WithError(err).Warn("Token cannot be backfilled")
		default:
			log.WithError(err).Error("Backfill failed")
		}
		return
	}

	if result.Stored > 0 && w.cache != nil {
		if err := w.cache.InvalidateLatestQuote(ctx, req.TokenID); err != nil {
			log.WithError(err).Warn("Failed to invalidate quote cache")
		}
	}
}
