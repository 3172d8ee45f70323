package repository

import (
	"time"

	"ishrakaat/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FlowTotals aggregates money movement in an admin's scope over a period.
// Inflow counts deposits, outflow counts withdrawals; donations are reported
// separately because card-settled rows never pass through wallets.
type FlowTotals struct {
	Inflow    decimal.Decimal `json:"inflow"`
	Outflow   decimal.Decimal `json:"outflow"`
	Donations decimal.Decimal `json:"donations"`
	Count     int64           `json:"transaction_count"`
}

func (r *ReportRepository) transactionsInScope(admin *models.User, from, to time.Time) *gorm.DB {
	q := r.db.Model(&models.Transaction{}).
		Joins("JOIN users ON users.id = transactions.user_id").
		Where("transactions.created_at >= ? AND transactions.created_at < ?", from, to)
	return scoped(q, admin)
}

func (r *ReportRepository) Totals(admin *models.User, from, to time.Time) (*FlowTotals, error) {
	var row struct {
		Inflow    decimal.Decimal
		Outflow   decimal.Decimal
		Donations decimal.Decimal
		Count     int64
	}
	err := r.transactionsInScope(admin, from, to).
		Select(
			"COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0) AS inflow, "+
				"COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0) AS outflow, "+
				"COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0) AS donations, "+
				"COUNT(*) AS count",
			models.TransactionDeposit, models.TransactionWithdrawal, models.TransactionDonation).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &FlowTotals{
		Inflow:    row.Inflow,
		Outflow:   row.Outflow,
		Donations: row.Donations,
		Count:     row.Count,
	}, nil
}

// ListInScope returns the raw transactions an admin may see, newest first,
// with the owning user preloaded for export rows.
func (r *ReportRepository) ListInScope(admin *models.User, from, to time.Time, limit, offset int) ([]models.Transaction, int64, error) {
	q := r.transactionsInScope(admin, from, to)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var trs []models.Transaction
	err := q.Preload("User").
		Order("transactions.created_at DESC, transactions.id DESC").
		Limit(limit).Offset(offset).
		Find(&trs).Error
	if err != nil {
		return nil, 0, err
	}
	return trs, total, nil
}

// MonthlyBreakdown sums donations per calendar month within the range, for
// the admin dashboard chart.
type MonthlyBucket struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

func (r *ReportRepository) MonthlyDonations(admin *models.User, from, to time.Time) ([]MonthlyBucket, error) {
	var buckets []MonthlyBucket
	err := r.transactionsInScope(admin, from, to).
		Where("kind = ?", models.TransactionDonation).
		Select("DATE_FORMAT(transactions.created_at, '%Y-%m') AS month, COALESCE(SUM(amount), 0) AS total").
		Group("month").
		Order("month").
		Scan(&buckets).Error
	return buckets, err
}
