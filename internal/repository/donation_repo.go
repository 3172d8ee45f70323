package repository

import (
	"errors"
	"time"

	"ishrakaat/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) ListTypes(activeOnly bool) ([]models.DonationType, error) {
	q := r.db.Model(&models.DonationType{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var types []models.DonationType
	err := q.Order("category, name").Find(&types).Error
	return types, err
}

func (r *DonationRepository) GetType(id uint) (*models.DonationType, error) {
	var t models.DonationType
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *DonationRepository) CreateType(t *models.DonationType) error {
	return r.db.Create(t).Error
}

func (r *DonationRepository) UpdateType(t *models.DonationType) error {
	return r.db.Save(t).Error
}

func (r *DonationRepository) DeactivateType(id uint) error {
	return r.db.Model(&models.DonationType{}).Where("id = ?", id).Update("active", false).Error
}

// RaisedForType sums what a campaign has collected, both sources included.
func (r *DonationRepository) RaisedForType(id uint) (string, error) {
	var raised string
	err := r.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("donation_type_id = ? AND kind = ?", id, models.TransactionDonation).
		Scan(&raised).Error
	return raised, err
}

func (r *DonationRepository) GetSettings(userID uint) (*models.DonationSetting, error) {
	var s models.DonationSetting
	err := r.db.Where("user_id = ?", userID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSettings writes the user's recurring policy, creating the row on first
// save.
func (r *DonationRepository) UpsertSettings(s *models.DonationSetting) error {
	var existing models.DonationSetting
	err := r.db.Where("user_id = ?", s.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(s).Error
	}
	if err != nil {
		return err
	}
	s.ID = existing.ID
	s.CreatedAt = existing.CreatedAt
	return r.db.Save(s).Error
}

func (r *DonationRepository) ListTransactions(userID uint, kind string, limit, offset int) ([]models.Transaction, int64, error) {
	q := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var trs []models.Transaction
	err := q.Preload("DonationType").Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).Find(&trs).Error
	if err != nil {
		return nil, 0, err
	}
	return trs, total, nil
}

// SumDonationsInMonth totals DONATION rows (both sources) in the calendar
// month containing ref.
func (r *DonationRepository) SumDonationsInMonth(userID uint, ref time.Time) (decimal.Decimal, error) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, 0)

	var sum decimal.Decimal
	err := r.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND kind = ? AND created_at >= ? AND created_at < ?",
			userID, models.TransactionDonation, start, end).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *DonationRepository) ListWelfare(userID uint) ([]models.WelfareFamilyDonation, error) {
	var list []models.WelfareFamilyDonation
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *DonationRepository) CreateWaqfInterest(w *models.WaqfInterest) error {
	return r.db.Create(w).Error
}

func (r *DonationRepository) ListWaqfInterests(limit, offset int) ([]models.WaqfInterest, int64, error) {
	var total int64
	if err := r.db.Model(&models.WaqfInterest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WaqfInterest
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
