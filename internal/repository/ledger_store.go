package repository

import (
	"context"
	"errors"
	"time"

	"ishrakaat/internal/ledger"
	"ishrakaat/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore is the MySQL implementation of ledger.Store. Atomicity comes
// from gorm transactions; per-user serialization from the SELECT FOR UPDATE on
// the wallet row in WalletForUpdate.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) InTx(ctx context.Context, fn func(tx ledger.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerStore{db: tx})
	})
}

func (s *LedgerStore) WalletForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	w = models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: "NGN"}
	if err := s.db.WithContext(ctx).Create(&w).Error; err != nil {
		return nil, err
	}
	// Re-read under the lock so the fresh row is held like any other.
	err = s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *LedgerStore) SaveWalletBalance(ctx context.Context, userID uint, balance decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("balance", balance).Error
}

func (s *LedgerStore) FreezeWallet(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("frozen", true).Error
}

func (s *LedgerStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *LedgerStore) SumWalletEffects(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE -amount END), 0)", models.TransactionDeposit).
		Where("user_id = ? AND source = ?", userID, models.SourceMoneyBox).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (s *LedgerStore) HasMonthlyDonation(ctx context.Context, userID uint, atLeast decimal.Decimal, ref time.Time) (bool, error) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, 0)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND kind = ? AND amount >= ? AND created_at >= ? AND created_at < ?",
			userID, models.TransactionDonation, atLeast, start, end).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *LedgerStore) LatestActiveCard(ctx context.Context, userID uint) (*models.SavedCard, error) {
	var c models.SavedCard
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("created_at DESC, id DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *LedgerStore) ListActiveCards(ctx context.Context, userID uint) ([]models.SavedCard, error) {
	var cards []models.SavedCard
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("created_at DESC, id DESC").
		Find(&cards).Error
	return cards, err
}

func (s *LedgerStore) UpsertSavedCard(ctx context.Context, card *models.SavedCard) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(card).Error
}

func (s *LedgerStore) PaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PaymentByReferenceForUpdate takes the row X lock, so a second delivery of
// the same reference blocks here and then sees the committed SUCCESS instead
// of its repeatable-read snapshot.
func (s *LedgerStore) PaymentByReferenceForUpdate(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *LedgerStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *LedgerStore) MarkPaymentSuccess(ctx context.Context, reference string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("reference = ? AND status <> ?", reference, models.PaymentSuccess).
		Updates(map[string]interface{}{"status": models.PaymentSuccess, "verified_at": at}).Error
}

func (s *LedgerStore) MarkPaymentFailed(ctx context.Context, reference string) error {
	return s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("reference = ? AND status = ?", reference, models.PaymentPending).
		Update("status", models.PaymentFailed).Error
}

func (s *LedgerStore) CreateWelfareRecord(ctx context.Context, w *models.WelfareFamilyDonation) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *LedgerStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *LedgerStore) ListRecurringSettings(ctx context.Context) ([]models.DonationSetting, error) {
	var settings []models.DonationSetting
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("monthly_amount > 0").
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}
