package main

import (
	"context"
	"fmt"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/auth"
	"github.com/yukikurage/manufacturing-backoffice/internal/config"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	"github.com/yukikurage/manufacturing-backoffice/internal/handlers"
	"github.com/yukikurage/manufacturing-backoffice/internal/logger"
	"github.com/yukikurage/manufacturing-backoffice/internal/mailer"
	"github.com/yukikurage/manufacturing-backoffice/internal/metrics"
	"github.com/yukikurage/manufacturing-backoffice/internal/numbering"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"github.com/yukikurage/manufacturing-backoffice/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds every long-lived dependency of a command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	stamper *audit.Stamper
	repos   *repository.Repositories
	metrics *metrics.Metrics
	closers []func() error
}

// newApp loads the config, builds the logger and opens the database.
func newApp() (*app, error) {
	cfg, err := config.Load(confPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  log,
		db:      db,
		stamper: audit.NewStamper(log),
	}
	a.repos = repository.New(db, a.stamper)
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(cfg.Metrics)
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) mailer() mailer.Mailer {
	if !a.cfg.Mail.Enabled {
		a.logger.Info("Mail disabled, notifications are logged only")
		return mailer.NewLogMailer(a.logger)
	}
	m := a.cfg.Mail
	return mailer.NewSMTPMailer(m.Host, m.Port, m.Username, m.Password, m.From)
}

func (a *app) notifier() *services.StockNotifier {
	n := a.cfg.Notification
	return services.NewStockNotifier(a.repos, a.mailer(), a.metrics, a.logger, services.NotifierConfig{
		Threshold:          n.StockThreshold,
		CriticalThreshold:  n.CriticalThreshold,
		FallbackRecipients: n.FallbackRecipients,
	})
}

func (a *app) revocationStore() (auth.RevocationStore, error) {
	rc := a.cfg.Session.Revocation
	if rc.Type != "redis" {
		return auth.NewMemoryRevocationStore(), nil
	}
	store, err := auth.NewRedisRevocationStore(rc.Redis.Addr, rc.Redis.Password, rc.Redis.DB, rc.Redis.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	a.logger.Info("Using redis revocation store", zap.String("addr", rc.Redis.Addr))
	return store, nil
}

// routerDeps builds every service and the handler dependencies.
func (a *app) routerDeps(notifier *services.StockNotifier) (handlers.Deps, error) {
	tokens, err := auth.NewTokenService(a.cfg.JWT.SecretKey, a.cfg.JWT.Duration)
	if err != nil {
		return handlers.Deps{}, err
	}
	revoked, err := a.revocationStore()
	if err != nil {
		return handlers.Deps{}, err
	}

	cache := session.NewValidationCache[*services.Session](a.cfg.Session.ValidationTTL, nil)
	sessions := services.NewSessionService(a.repos, tokens, revoked, cache, a.logger)

	// Restoring a role or a user can change what a cached session may do.
	a.stamper.OnRestore(func(_ context.Context, table, id string) {
		if table == "roles" || table == "users" {
			sessions.Forget()
		}
	})

	generator := numbering.NewGenerator()
	return handlers.Deps{
		DB:             a.db,
		Auth:           services.NewAuthService(a.repos, tokens, sessions, a.logger),
		Sessions:       sessions,
		Permissions:    services.NewPermissionService(a.repos, a.logger),
		Roles:          services.NewRoleService(a.repos, sessions, a.logger),
		Users:          services.NewUserService(a.repos, sessions),
		Organizations:  services.NewOrganizationService(a.repos),
		Orders:         services.NewOrderService(a.repos, notifier, a.logger),
		WorkOrders:     services.NewWorkOrderService(a.repos, generator, a.cfg.Numbering.WorkOrderPrefix, a.metrics, a.logger),
		DeliveryOrders: services.NewDeliveryOrderService(a.repos, generator, a.cfg.Numbering.DeliveryOrderCode, a.metrics, a.logger),
		RawMaterials:   services.NewRawMaterialService(a.repos, notifier),
		StockThreshold: notifier.Threshold(),
		Metrics:        a.metrics,
		Logger:         a.logger,
	}, nil
}
