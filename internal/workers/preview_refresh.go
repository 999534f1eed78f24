package workers

import (
	"context"
	"sync"
	"time"

	"open-factcheck/internal/logger"
	"open-factcheck/internal/models"
	"open-factcheck/internal/preview"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// PreviewSource fetches link previews
type PreviewSource interface {
	Fetch(ctx context.Context, pageURL string) (*preview.Preview, error)
}

// RefreshConfig controls the preview refresh worker
type RefreshConfig struct {
	Interval  time.Duration
	BatchSize int
	// Rate is the number of page fetches allowed per second
	Rate float64
}

// PreviewRefreshWorker fills in link previews for claims that carry a URL
type PreviewRefreshWorker struct {
	db       *gorm.DB
	source   PreviewSource
	config   RefreshConfig
	limiter  *rate.Limiter
	log      *logger.Logger
	now      func() time.Time
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewPreviewRefreshWorker creates a new preview refresh worker
func NewPreviewRefreshWorker(db *gorm.DB, source PreviewSource, config RefreshConfig, log *logger.Logger) *PreviewRefreshWorker {
	if config.BatchSize < 1 {
		config.BatchSize = 20
	}
	if config.Rate <= 0 {
		config.Rate = 1
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	return &PreviewRefreshWorker{
		db:       db,
		source:   source,
		config:   config,
		limiter:  rate.NewLimiter(rate.Limit(config.Rate), 1),
		log:      log.With("worker", "preview_refresh"),
		now:      func() time.Time { return time.Now().UTC() },
		stopChan: make(chan struct{}),
	}
}

// Run refreshes one batch immediately and then on every tick until ctx is
// cancelled or Stop is called
func (w *PreviewRefreshWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.log.Info("Starting preview refresh worker",
		"interval", w.config.Interval,
		"batch_size", w.config.BatchSize,
		"rate", w.config.Rate,
	)

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Preview refresh worker stopping due to context cancellation")
			return
		case <-w.stopChan:
			w.log.Info("Preview refresh worker stopping")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *PreviewRefreshWorker) refresh(ctx context.Context) {
	n, err := w.RefreshBatch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error("Preview refresh failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.log.Info("Refreshed link previews", "count", n)
	}
}

// Stop ends Run
func (w *PreviewRefreshWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

type pendingPreview struct {
	ID  uuid.UUID
	URL string
}

// RefreshBatch fetches previews for up to BatchSize claims that have a URL
// and no preview yet. Fetch failures are recorded on the claim so it is not
// retried every tick. It returns the number of claims processed.
func (w *PreviewRefreshWorker) RefreshBatch(ctx context.Context) (int, error) {
	var pending []pendingPreview
	err := w.db.WithContext(ctx).Model(&models.Claim{}).
		Select("id, content_url AS url").
		Where("content_url <> '' AND preview_fetched_at IS NULL AND is_active = ?", true).
		Order("created_at ASC").
		Limit(w.config.BatchSize).
		Scan(&pending).Error
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, p := range pending {
		if err := w.limiter.Wait(ctx); err != nil {
			return processed, err
		}

		cols := map[string]interface{}{"preview_fetched_at": w.now()}
		pv, err := w.source.Fetch(ctx, p.URL)
		if err != nil {
			if ctx.Err() != nil {
				return processed, ctx.Err()
			}
			w.log.Warn("Failed to fetch link preview", "claim_id", p.ID, "url", p.URL, "error", err)
			cols["preview_fetch_error"] = err.Error()
		} else {
			cols["preview_title"] = pv.Title
			cols["preview_description"] = pv.Description
			cols["preview_site_name"] = pv.SiteName
			cols["preview_fetch_error"] = ""
		}

		if err := w.db.WithContext(ctx).Model(&models.Claim{}).
			Where("id = ?", p.ID).
			UpdateColumns(cols).Error; err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// PreviewStats reports how many claims still wait for a preview
type PreviewStats struct {
	Pending   int64     `json:"pending"`
	Failed    int64     `json:"failed"`
	LastCheck time.Time `json:"last_check"`
}

// Stats counts claims waiting for a preview and those whose fetch failed
func (w *PreviewRefreshWorker) Stats(ctx context.Context) (*PreviewStats, error) {
	stats := &PreviewStats{LastCheck: w.now()}
	base := w.db.WithContext(ctx).Model(&models.Claim{}).Where("is_active = ? AND content_url <> ''", true)
	if err := base.Session(&gorm.Session{}).Where("preview_fetched_at IS NULL").Count(&stats.Pending).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("preview_fetch_error <> ''").Count(&stats.Failed).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
