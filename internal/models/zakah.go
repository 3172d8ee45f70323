package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ZakahNisab caches the computed Nisab thresholds. A single row (id=1) is
// upserted by the refresh job.
type ZakahNisab struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	GoldPriceUSD   decimal.Decimal `gorm:"type:decimal(10,2)" json:"gold_price_usd"`   // per ounce
	SilverPriceUSD decimal.Decimal `gorm:"type:decimal(10,2)" json:"silver_price_usd"` // per ounce
	USDNGNRate     decimal.Decimal `gorm:"type:decimal(10,2)" json:"usd_ngn_rate"`
	NisabGoldNGN   decimal.Decimal `gorm:"type:decimal(15,2)" json:"nisab_gold_ngn"`
	NisabSilverNGN decimal.Decimal `gorm:"type:decimal(15,2)" json:"nisab_silver_ngn"`
	UpdatedAt      time.Time       `json:"last_updated"`
}

func (ZakahNisab) TableName() string {
	return "zakah_nisab"
}

// ZakahReference is a derived reference amount (dowry, blood money, theft
// nisab) recomputed from the gold Nisab.
type ZakahReference struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Key       string          `gorm:"size:64;uniqueIndex;not null" json:"key"`
	Title     string          `gorm:"size:128;not null" json:"title"`
	AmountNGN decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount_ngn"`
	SourceURL string          `gorm:"size:255" json:"source_url"`
	UpdatedAt time.Time       `json:"last_updated"`
}

func (ZakahReference) TableName() string {
	return "zakah_references"
}

// IslamicCard is a dashboard reference card (calendar, inheritance groups).
type IslamicCard struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:128;uniqueIndex;not null" json:"title"`
	ArabicTitle   string    `gorm:"size:128" json:"arabic_title"`
	Content       string    `gorm:"type:text" json:"content"`
	ArabicContent string    `gorm:"type:text" json:"arabic_content"`
	IconName      string    `gorm:"size:64" json:"icon_name"`
	Order         int       `gorm:"column:sort_order;default:0" json:"order"`
	UpdatedAt     time.Time `json:"last_updated"`
}

func (IslamicCard) TableName() string {
	return "islamic_cards"
}
