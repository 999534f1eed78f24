package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"open-factcheck/internal/auth"
	"open-factcheck/internal/database"
	"open-factcheck/internal/events"
	"open-factcheck/internal/handlers"
	"open-factcheck/internal/preview"
	"open-factcheck/internal/ranking"
	"open-factcheck/internal/services"
	"open-factcheck/internal/worker"
	"open-factcheck/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		return serve(cmd.Context(), a)
	},
}

func serve(parent context.Context, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(a.db, a.log); err != nil {
		return err
	}

	verifier, err := auth.NewJWTVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, a.cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	hub := events.NewHub(64)
	var pub events.Publisher = hub
	var bus *events.RedisBus
	if a.cfg.Redis.Addr != "" {
		bus, err = events.NewRedisBus(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Channel, a.log)
		if err != nil {
			return err
		}
		defer bus.Close()
		// every instance, including this one, receives events through redis
		pub = bus
	}

	engagement := services.NewEngagementService(a.db, a.log, pub)
	claims := services.NewClaimService(a.db, a.log, pub, engagement)
	verification := services.NewVerificationService(a.db, a.log, pub, nil)
	rankings := ranking.NewService(a.db, a.log, pub, a.cfg.Ranking.CacheTTL)

	var workerService *worker.WorkerService
	if a.cfg.Worker.Enabled {
		previewWorker := workers.NewPreviewRefreshWorker(a.db, preview.NewFetcher(15*time.Second), workers.RefreshConfig{
			Interval:  a.cfg.Worker.PreviewInterval,
			BatchSize: a.cfg.Worker.PreviewBatchSize,
			Rate:      a.cfg.Worker.PreviewRate,
		}, a.log)
		workerService = worker.NewWorkerService(a.cfg.Worker, previewWorker, engagement, rankings, a.log)
	}

	if a.cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	deps := handlers.Deps{
		DB:           a.db,
		Log:          a.log,
		Verifier:     verifier,
		Users:        services.NewUserService(a.db, a.log),
		Claims:       claims,
		Verification: verification,
		Engagement:   engagement,
		Ranking:      rankings,
		Hub:          hub,
		CORSOrigins:  a.cfg.CORSOrigins,
	}
	if workerService != nil {
		deps.Workers = workerService
	}
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if workerService != nil {
		if err := workerService.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			workerService.Stop()
			return nil
		})
	}

	if bus != nil {
		invalidations := hub.Subscribe()
		g.Go(func() error {
			defer invalidations.Close()
			rankings.InvalidateOnEvents(gctx, invalidations)
			return nil
		})
		g.Go(func() error {
			if err := bus.Forward(gctx, hub); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	a.log.Info("Shutdown complete")
	return err
}
