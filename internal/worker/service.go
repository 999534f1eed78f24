package worker

import (
	"context"
	"sync"
	"time"

	"open-factcheck/internal/config"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/workers"
)

// Rescorer rebuilds derived engagement counters
type Rescorer interface {
	Rescore(ctx context.Context) (int64, error)
}

// Warmer refreshes cached rankings
type Warmer interface {
	Warm(ctx context.Context) error
}

// WorkerService manages background workers for the application
type WorkerService struct {
	previewWorker *workers.PreviewRefreshWorker
	rescorer      Rescorer
	warmer        Warmer
	interval      time.Duration
	log           *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewWorkerService creates a new worker service. previewWorker may be nil.
func NewWorkerService(cfg config.WorkerConfig, previewWorker *workers.PreviewRefreshWorker, rescorer Rescorer, warmer Warmer, log *logger.Logger) *WorkerService {
	interval := cfg.RescoreInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &WorkerService{
		previewWorker: previewWorker,
		rescorer:      rescorer,
		warmer:        warmer,
		interval:      interval,
		log:           log.With("service", "WorkerService"),
	}
}

// Start starts all background workers under ctx
func (ws *WorkerService) Start(ctx context.Context) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil
	}

	ws.log.Info("Starting background workers...")
	ws.ctx, ws.cancel = context.WithCancel(ctx)

	if ws.previewWorker != nil {
		ws.wg.Add(1)
		go func() {
			defer ws.wg.Done()
			ws.previewWorker.Run(ws.ctx)
		}()
	}

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		ws.runPeriodicTasks()
	}()

	ws.running = true
	ws.log.Info("Background workers started successfully")
	return nil
}

// Stop stops all background workers and waits for them to exit
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return
	}

	ws.log.Info("Stopping background workers...")
	ws.cancel()
	if ws.previewWorker != nil {
		ws.previewWorker.Stop()
	}
	ws.wg.Wait()

	ws.running = false
	ws.log.Info("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

// runPeriodicTasks reconciles engagement scores and warms the ranking cache
func (ws *WorkerService) runPeriodicTasks() {
	ticker := time.NewTicker(ws.interval)
	defer ticker.Stop()

	ws.RunOnce(ws.ctx)
	for {
		select {
		case <-ws.ctx.Done():
			ws.log.Info("Periodic tasks stopped")
			return
		case <-ticker.C:
			ws.RunOnce(ws.ctx)
		}
	}
}

// RunOnce runs one rescore and cache warm pass
func (ws *WorkerService) RunOnce(ctx context.Context) {
	if ws.rescorer != nil {
		changed, err := ws.rescorer.Rescore(ctx)
		if err != nil && ctx.Err() == nil {
			ws.log.Error("Rescore failed", "error", err)
		} else if changed > 0 {
			ws.log.Warn("Rescore corrected drifted claims", "changed", changed)
		}
	}
	if ws.warmer != nil {
		if err := ws.warmer.Warm(ctx); err != nil && ctx.Err() == nil {
			ws.log.Error("Ranking warm-up failed", "error", err)
		}
	}
}
