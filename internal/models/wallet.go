package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is the per-user Money Box. Balance is mutated only through the
// settlement engine's atomic apply path; handlers read it, never write it.
type Wallet struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	UserID   uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	Currency string          `gorm:"size:3;default:'NGN'" json:"currency"`

	// Set when an integrity check finds the balance diverging from the
	// transaction log. A frozen wallet rejects all further settlement until
	// reconciled manually.
	Frozen bool `gorm:"not null;default:false" json:"frozen"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}
