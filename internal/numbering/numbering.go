// Package numbering hands out human-readable document numbers.
//
// Each scheme keeps one counter row per period in document_counters. The row is
// incremented with a single UPDATE inside the caller's transaction, so concurrent
// creations in the same period serialize on the row lock instead of racing on a
// count of existing documents.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scheme describes how numbers for one document type are scoped and formatted.
type Scheme struct {
	// Scope names the counter, e.g. "work_order".
	Scope string
	// Table and Column hold existing numbers, used to seed a fresh counter.
	Table  string
	Column string
	// Period derives the counter period from a date.
	Period func(t time.Time) string
	// Format renders a sequence number for a date.
	Format func(seq int, t time.Time) string
	// Pattern returns a LIKE pattern matching every number of the period.
	Pattern func(t time.Time) string
}

// WorkOrderScheme numbers work orders per calendar day: PREFIX-YYYYMMDD-0001.
func WorkOrderScheme(prefix string) Scheme {
	return Scheme{
		Scope:  "work_order",
		Table:  "work_orders",
		Column: "number",
		Period: func(t time.Time) string { return t.Format("20060102") },
		Format: func(seq int, t time.Time) string {
			return fmt.Sprintf("%s-%s-%04d", prefix, t.Format("20060102"), seq)
		},
		Pattern: func(t time.Time) string {
			return fmt.Sprintf("%s-%s-%%", prefix, t.Format("20060102"))
		},
	}
}

// DeliveryOrderScheme numbers delivery orders per month: 001/CODE/X/2026.
func DeliveryOrderScheme(code string) Scheme {
	return Scheme{
		Scope:  "delivery_order",
		Table:  "delivery_orders",
		Column: "number",
		Period: func(t time.Time) string { return t.Format("200601") },
		Format: func(seq int, t time.Time) string {
			return fmt.Sprintf("%03d/%s/%s/%d", seq, code, Roman(int(t.Month())), t.Year())
		},
		Pattern: func(t time.Time) string {
			return fmt.Sprintf("%%/%s/%s/%d", code, Roman(int(t.Month())), t.Year())
		},
	}
}

// Generator allocates sequence numbers from document_counters.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns the next number of the scheme for the period containing t.
// tx should be the transaction that inserts the document.
func (g *Generator) Next(ctx context.Context, tx *gorm.DB, scheme Scheme, t time.Time) (string, error) {
	seq, err := g.next(ctx, tx, scheme, t)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", scheme.Scope, err)
	}
	return scheme.Format(seq, t), nil
}

func (g *Generator) next(ctx context.Context, tx *gorm.DB, scheme Scheme, t time.Time) (int, error) {
	db := tx.WithContext(ctx)
	period := scheme.Period(t)

	// Seed a missing counter from documents already numbered in this period,
	// trashed ones included, so rows written before the counter existed are not reused.
	var existing int64
	if err := db.Table(scheme.Table).
		Where(scheme.Column+" LIKE ?", scheme.Pattern(t)).
		Count(&existing).Error; err != nil {
		return 0, err
	}

	seed := models.DocumentCounter{Scope: scheme.Scope, Period: period, LastSeq: int(existing)}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, err
	}

	result := db.Model(&models.DocumentCounter{}).
		Where("scope = ? AND period = ?", scheme.Scope, period).
		UpdateColumn("last_seq", gorm.Expr("last_seq + 1"))
	if result.Error != nil {
		return 0, result.Error
	}

	var counter models.DocumentCounter
	if err := db.Where("scope = ? AND period = ?", scheme.Scope, period).
		First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.LastSeq, nil
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// Roman renders n as an upper-case roman numeral. n <= 0 yields "".
func Roman(n int) string {
	out := make([]byte, 0, 8)
	for _, r := range romanNumerals {
		for n >= r.value {
			out = append(out, r.symbol...)
			n -= r.value
		}
	}
	return string(out)
}
