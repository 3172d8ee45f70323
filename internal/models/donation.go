package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DonationType is a catalog entry (campaign). Read-mostly; referenced by
// transactions for reporting.
type DonationType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Category    string `gorm:"size:20;not null;default:'PROJECT'" json:"category"` // MONTHLY | IMPROMPTU | PROJECT
	Description string `gorm:"type:text" json:"description"`
	Mandatory   bool   `gorm:"default:false" json:"is_mandatory"`
	Active      bool   `gorm:"default:true;index" json:"is_active"`

	Deadline     *time.Time       `json:"deadline,omitempty"`
	TargetAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"target_amount,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DonationType) TableName() string {
	return "donation_types"
}

// DonationSetting holds a user's recurring-donation policy: the monthly target
// and two independent funding flags. Read-only to the scheduler.
type DonationSetting struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	MonthlyAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"monthly_amount"`
	AutoDeductFromBox bool           `gorm:"default:true" json:"auto_deduct_from_box"`
	AutoChargeCard   bool            `gorm:"default:false" json:"auto_charge_card"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (DonationSetting) TableName() string {
	return "donation_settings"
}

// WelfareFamilyDonation is the specialized sub-record for family-need
// donations, linked to the transaction that funded it.
type WelfareFamilyDonation struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	TransactionID *uint           `json:"transaction_id,omitempty"`
	Purpose       string          `gorm:"size:20;not null" json:"purpose"` // FOOD | SCHOOL | SHELTER | CLOTHING
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`

	User        User         `gorm:"foreignKey:UserID" json:"-"`
	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"-"`
}

func (WelfareFamilyDonation) TableName() string {
	return "welfare_family_donations"
}

// WaqfInterest is a project-interest submission; guests may submit without an
// account, so the user link is optional.
type WaqfInterest struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID *uint `gorm:"index" json:"user_id,omitempty"`

	GuestName  string `gorm:"size:100" json:"guest_name"`
	GuestEmail string `gorm:"size:255" json:"guest_email"`
	GuestPhone string `gorm:"size:20" json:"guest_phone"`

	WaqfCategory       string `gorm:"size:20;not null" json:"waqf_category"` // MASJID | KNOWLEDGE | INCOME
	ProjectType        string `gorm:"size:100;not null" json:"project_type"`
	ContributionMethod string `gorm:"size:20;not null" json:"contribution_method"` // EXECUTE | HANDOVER
	OnBehalfOf         string `gorm:"size:100" json:"on_behalf_of"`

	PreferredDate   time.Time `json:"preferred_date"`
	AdditionalNotes string    `gorm:"type:text" json:"additional_notes"`
	CreatedAt       time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (WaqfInterest) TableName() string {
	return "waqf_interests"
}
