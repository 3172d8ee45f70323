package models

import (
	"strings"
	"time"

	"ishrakaat/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	Phone        string `gorm:"size:20" json:"phone"`

	Country   string `gorm:"size:100;default:'Nigeria'" json:"country"`
	State     string `gorm:"size:100;index" json:"state"`
	LocalGovt string `gorm:"size:100;index" json:"local_govt"`
	Ward      string `gorm:"size:100;index" json:"ward"`

	ProfilePictureURL string `gorm:"size:512" json:"profile_picture"`

	// Assigned on creation, shown on membership cards.
	RegistrationNumber string `gorm:"uniqueIndex;size:50" json:"registration_number"`
	ApprovedByAdmin    bool   `gorm:"default:false" json:"is_approved_by_admin"`

	// NONE | WARD | LOCAL_GOVT | STATE | NATIONAL
	AdminLevel string `gorm:"size:20;not null;default:'NONE';index" json:"admin_level"`

	GoogleID *string `gorm:"uniqueIndex;size:255" json:"-"` // nil for email signups (avoids duplicate '' on unique index)

	// Paystack customer and dedicated virtual account, filled lazily.
	PaystackCustomerCode string `gorm:"size:50" json:"-"`
	VirtualAccountNumber string `gorm:"size:20" json:"virtual_account_number,omitempty"`
	VirtualBankName      string `gorm:"size:100" json:"virtual_bank_name,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet *Wallet `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool { return domain.IsAdminLevel(u.AdminLevel) }

// BeforeCreate assigns a registration number from the first name plus a short
// uuid fragment, e.g. "MUSA/3F9A1C".
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.RegistrationNumber != "" {
		return nil
	}
	prefix := strings.ToUpper(u.FirstName)
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	if prefix == "" {
		prefix = "USER"
	}
	unique := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	u.RegistrationNumber = prefix + "/" + unique
	return nil
}
