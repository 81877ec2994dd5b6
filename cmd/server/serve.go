package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	"github.com/yukikurage/manufacturing-backoffice/internal/handlers"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the stock notification scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := database.Migrate(a.db, a.logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := a.notifier()
	deps, err := a.routerDeps(notifier)
	if err != nil {
		return err
	}

	gin.SetMode(a.cfg.Server.GinMode)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      handlers.NewRouter(deps),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Notification.SchedulerEnabled {
		g.Go(func() error {
			return runScheduler(ctx, a.cfg.Notification.Schedule, notifier, a.logger)
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Error("Server error", zap.Error(err))
		return err
	}
	a.logger.Info("Server stopped")
	return nil
}

// runScheduler runs the low-stock scan on schedule until ctx is cancelled.
func runScheduler(ctx context.Context, schedule string, notifier *services.StockNotifier, log *zap.Logger) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func() {
			report, err := notifier.NotifyAll(ctx, notifier.Threshold())
			if err != nil {
				log.Error("Scheduled stock notification failed", zap.Error(err))
				return
			}
			log.Info("Scheduled stock notification finished",
				zap.Int("materials", len(report.Materials)),
				zap.Int("sent", report.Sent),
				zap.Int("failed", report.Failed))
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("invalid notification schedule %q: %w", schedule, err)
	}

	log.Info("Stock notification scheduler started", zap.String("schedule", schedule))
	scheduler.Start()

	<-ctx.Done()
	return scheduler.Shutdown()
}
