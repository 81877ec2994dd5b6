package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/yukikurage/manufacturing-backoffice/internal/constants"
	"github.com/yukikurage/manufacturing-backoffice/internal/mailer"
	"github.com/yukikurage/manufacturing-backoffice/internal/metrics"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"go.uber.org/zap"
)

// NotifierConfig holds the low-stock thresholds.
type NotifierConfig struct {
	Threshold          float64
	CriticalThreshold  float64
	FallbackRecipients int
}

// MaterialStatus is a raw material found below the threshold.
type MaterialStatus struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Stock    float64 `json:"stock"`
	Unit     string  `json:"unit"`
	Critical bool    `json:"critical"`
}

// Delivery is the outcome of one email send.
type Delivery struct {
	Email string `json:"email"`
	Error string `json:"error,omitempty"`
}

// StockReport summarizes one notification run.
type StockReport struct {
	Threshold        float64          `json:"threshold"`
	Materials        []MaterialStatus `json:"materials"`
	Recipients       []string         `json:"recipients"`
	Fallback         bool             `json:"fallback"`
	Sent             int              `json:"sent"`
	Failed           int              `json:"failed"`
	FailedRecipients []string         `json:"failed_recipients"`
	Deliveries       []Delivery       `json:"deliveries"`
}

// StockNotifier emails recipients about raw materials below a stock threshold.
// Sends are sequential and a failed recipient never stops the others.
type StockNotifier struct {
	repos   *repository.Repositories
	mailer  mailer.Mailer
	metrics *metrics.Metrics
	logger  *zap.Logger
	cfg     NotifierConfig
}

// NewStockNotifier creates a new StockNotifier. Zero thresholds use the defaults.
func NewStockNotifier(repos *repository.Repositories, m mailer.Mailer, mt *metrics.Metrics, logger *zap.Logger, cfg NotifierConfig) *StockNotifier {
	if cfg.Threshold <= 0 {
		cfg.Threshold = constants.DefaultStockThreshold
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = constants.CriticalStockThreshold
	}
	if cfg.FallbackRecipients <= 0 || cfg.FallbackRecipients > constants.FallbackRecipientLimit {
		cfg.FallbackRecipients = constants.FallbackRecipientLimit
	}
	return &StockNotifier{repos: repos, mailer: m, metrics: mt, logger: logger, cfg: cfg}
}

// Threshold returns the configured default threshold.
func (n *StockNotifier) Threshold() float64 {
	return n.cfg.Threshold
}

// NotifyMaterials checks the given materials against the configured threshold.
func (n *StockNotifier) NotifyMaterials(ctx context.Context, ids []string) (*StockReport, error) {
	materials, err := n.repos.RawMaterials.FindByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load raw materials: %w", err)
	}
	threshold := n.cfg.Threshold
	low := lo.Filter(materials, func(m models.RawMaterial, _ int) bool { return m.Stock() < threshold })
	return n.notify(ctx, threshold, low)
}

// NotifyAll scans every raw material. A non-positive threshold uses the configured one.
func (n *StockNotifier) NotifyAll(ctx context.Context, threshold float64) (*StockReport, error) {
	if threshold <= 0 {
		threshold = n.cfg.Threshold
	}
	low, err := n.repos.RawMaterials.ListBelow(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to scan raw materials: %w", err)
	}
	return n.notify(ctx, threshold, low)
}

// LowStock lists the materials below threshold without sending anything.
func (n *StockNotifier) LowStock(ctx context.Context, threshold float64) ([]MaterialStatus, error) {
	if threshold <= 0 {
		threshold = n.cfg.Threshold
	}
	low, err := n.repos.RawMaterials.ListBelow(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to scan raw materials: %w", err)
	}
	return n.statuses(low), nil
}

func (n *StockNotifier) statuses(materials []models.RawMaterial) []MaterialStatus {
	return lo.Map(materials, func(m models.RawMaterial, _ int) MaterialStatus {
		return MaterialStatus{
			ID:       m.ID,
			Name:     m.Name(),
			Stock:    m.Stock(),
			Unit:     m.Unit(),
			Critical: m.Stock() < n.cfg.CriticalThreshold,
		}
	})
}

func (n *StockNotifier) notify(ctx context.Context, threshold float64, low []models.RawMaterial) (*StockReport, error) {
	report := &StockReport{
		Threshold:        threshold,
		Materials:        n.statuses(low),
		Recipients:       []string{},
		FailedRecipients: []string{},
		Deliveries:       []Delivery{},
	}
	n.metrics.LowStockMaterials(len(low))
	if len(low) == 0 {
		return report, nil
	}

	recipients, fallback, err := n.recipients(ctx)
	if err != nil {
		return nil, err
	}
	report.Fallback = fallback
	report.Recipients = lo.Map(recipients, func(u models.User, _ int) string { return u.EmailAddress() })

	items := lo.Map(report.Materials, func(m MaterialStatus, _ int) mailer.LowStockItem {
		return mailer.LowStockItem{Name: m.Name, Stock: m.Stock, Unit: m.Unit, Critical: m.Critical}
	})

	for _, u := range recipients {
		email := u.EmailAddress()
		err := n.send(ctx, u, threshold, items)
		if err != nil {
			report.Failed++
			report.FailedRecipients = append(report.FailedRecipients, email)
			report.Deliveries = append(report.Deliveries, Delivery{Email: email, Error: err.Error()})
			n.metrics.StockNotified("failed")
			n.logger.Warn("failed to send low stock notification",
				zap.String("email", email),
				zap.Error(err))
			continue
		}
		report.Sent++
		report.Deliveries = append(report.Deliveries, Delivery{Email: email})
		n.metrics.StockNotified("sent")
	}

	n.logger.Info("low stock notification finished",
		zap.Int("materials", len(report.Materials)),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (n *StockNotifier) send(ctx context.Context, u models.User, threshold float64, items []mailer.LowStockItem) error {
	body, err := mailer.RenderLowStock(mailer.LowStockData{
		Recipient:         u.Name,
		Threshold:         threshold,
		CriticalThreshold: n.cfg.CriticalThreshold,
		Items:             items,
		GeneratedAt:       n.repos.Stamper().Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	return n.mailer.Send(ctx, mailer.Message{
		To:      u.EmailAddress(),
		Subject: mailer.LowStockSubject,
		HTML:    body,
	})
}

// recipients returns the opted-in users with an email, or the first users with
// an email when nobody opted in.
func (n *StockNotifier) recipients(ctx context.Context) ([]models.User, bool, error) {
	users, err := n.repos.Users.ListNotificationRecipients(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load recipients: %w", err)
	}
	users = withEmail(users)
	if len(users) > 0 {
		return users, false, nil
	}

	users, err = n.repos.Users.ListWithEmail(ctx, n.cfg.FallbackRecipients)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load fallback recipients: %w", err)
	}
	return withEmail(users), true, nil
}

func withEmail(users []models.User) []models.User {
	users = lo.Filter(users, func(u models.User, _ int) bool {
		return strings.TrimSpace(u.EmailAddress()) != ""
	})
	return lo.UniqBy(users, func(u models.User) string { return strings.ToLower(u.EmailAddress()) })
}
