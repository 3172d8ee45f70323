package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending = "PENDING"
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
)

const (
	PaymentPurposeDeposit  = "DEPOSIT"
	PaymentPurposeDonation = "DONATION"
)

// Payment tracks an externally-settled payment in flight. The unique reference
// is the dedup key for webhook redelivery: once a row is SUCCESS the event has
// been applied exactly once and redeliveries are no-ops.
type Payment struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reference  string          `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	Status     string          `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	Purpose    string          `gorm:"size:50;not null;default:'DEPOSIT'" json:"purpose"`
	Channel    string          `gorm:"size:50" json:"channel"`
	CreatedAt  time.Time       `json:"created_at"`
	VerifiedAt *time.Time      `json:"verified_at,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// SavedCard stores a tokenized card authorization for charge-without-re-entry.
// Created only when the gateway marks an authorization reusable.
type SavedCard struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	UserID            uint   `gorm:"not null;index;uniqueIndex:idx_user_auth" json:"user_id"`
	AuthorizationCode string `gorm:"size:100;not null;uniqueIndex:idx_user_auth" json:"-"`
	CardType          string `gorm:"size:20" json:"card_type"`
	Last4             string `gorm:"size:4" json:"last4"`
	ExpMonth          string `gorm:"size:2" json:"exp_month"`
	ExpYear           string `gorm:"size:4" json:"exp_year"`
	Email             string `gorm:"size:255" json:"email"`
	Active            bool   `gorm:"default:true;index" json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (SavedCard) TableName() string {
	return "saved_cards"
}
