package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionDeposit    = "DEPOSIT"
	TransactionDonation   = "DONATION"
	TransactionWithdrawal = "WITHDRAWAL"
)

// Funding source discriminator. MONEY_BOX rows carry a wallet effect and are
// what the reconciliation sum is computed over; CARD rows were settled directly
// against the gateway and never touched the wallet.
const (
	SourceMoneyBox = "MONEY_BOX"
	SourceCard     = "CARD"
)

// Transaction is one append-only row per balance-affecting (or card-settled)
// event. Amount is always positive; Kind carries the sign: DEPOSIT credits,
// DONATION and WITHDRAWAL debit. Rows are never updated or deleted.
type Transaction struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Kind           string          `gorm:"size:20;not null;index" json:"transaction_type"`
	Source         string          `gorm:"size:20;not null;default:'MONEY_BOX'" json:"source"`
	DonationTypeID *uint           `gorm:"index" json:"donation_type,omitempty"`
	Description    string          `gorm:"size:255" json:"description"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`

	User         User          `gorm:"foreignKey:UserID" json:"-"`
	DonationType *DonationType `gorm:"foreignKey:DonationTypeID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// SignedAmount is the wallet effect of this row: positive for deposits,
// negative for donations and withdrawals, zero for card-settled rows.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Source == SourceCard {
		return decimal.Zero
	}
	if t.Kind == TransactionDeposit {
		return t.Amount
	}
	return t.Amount.Neg()
}
