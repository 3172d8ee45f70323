package database

import (
	"log"
	"os"

	"ishrakaat/internal/domain"
	"ishrakaat/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin creates a bootstrap national admin when none exists yet, so a fresh
// install has someone who can approve users and assign admin levels.
func SeedAdmin(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Where("admin_level = ?", domain.AdminLevelNational).Count(&count)
	if count > 0 {
		return
	}
	password := os.Getenv("ISHRAKAAT_ADMIN_PASSWORD")
	if password == "" {
		log.Printf("[seed] no national admin and ISHRAKAAT_ADMIN_PASSWORD unset, skipping admin seed")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] admin password hash: %v", err)
		return
	}
	admin := models.User{
		Username:        "national_admin",
		Email:           "admin@ishrakaat.org",
		PasswordHash:    string(hash),
		FirstName:       "National",
		LastName:        "Admin",
		AdminLevel:      domain.AdminLevelNational,
		ApprovedByAdmin: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("[seed] create national admin: %v", err)
		return
	}
	log.Printf("[seed] created national admin %s", admin.Email)
}

// SeedDonationTypes inserts the built-in campaigns on an empty catalog.
func SeedDonationTypes(db *gorm.DB) {
	var count int64
	db.Model(&models.DonationType{}).Count(&count)
	if count > 0 {
		return
	}
	types := []models.DonationType{
		{Name: "Monthly Contribution", Category: domain.DonationCategoryMonthly, Mandatory: true,
			Description: "Recurring monthly contribution settled from the money box or a saved card."},
		{Name: "Welfare for Families", Category: domain.DonationCategoryImpromptu,
			Description: "Food, school fees, shelter and clothing support for families in need."},
		{Name: "Masjid Construction", Category: domain.DonationCategoryProject,
			Description: "Building and renovating masjids across the federation."},
	}
	for i := range types {
		if err := db.Create(&types[i]).Error; err != nil {
			log.Printf("[seed] donation type %q: %v", types[i].Name, err)
		}
	}
}

// SeedIslamicCards upserts the static dashboard reference cards.
func SeedIslamicCards(db *gorm.DB) {
	cards := []models.IslamicCard{
		{Title: "Islamic Calendar", ArabicTitle: "التقويم الهجري", IconName: "calendar", Order: 1,
			Content: "The Hijri calendar has 12 lunar months. Zakah falls due after one full lunar year (hawl) on wealth above the Nisab."},
		{Title: "Inheritance Groups", ArabicTitle: "الميراث", IconName: "scale", Order: 2,
			Content: "Heirs are grouped into fixed-share recipients, residuaries and distant kindred. Shares are set out in Surah An-Nisa."},
		{Title: "Zakah Recipients", ArabicTitle: "مصارف الزكاة", IconName: "hands", Order: 3,
			Content: "Eight categories may receive Zakah, including the poor, the needy, debtors and the wayfarer (At-Tawbah 60)."},
		{Title: "Nisab Threshold", ArabicTitle: "النصاب", IconName: "gold", Order: 4,
			Content: "The Nisab is 85 grams of gold or 595 grams of silver. Wealth held above it for a lunar year is zakatable at 2.5 percent."},
		{Title: "Sadaqah", ArabicTitle: "الصدقة", IconName: "gift", Order: 5,
			Content: "Voluntary charity with no minimum or due date, given over and above the obligatory Zakah."},
		{Title: "Waqf Endowment", ArabicTitle: "الوقف", IconName: "masjid", Order: 6,
			Content: "A waqf dedicates an asset permanently to charitable use. The principal is preserved and its benefit given away."},
	}
	for i := range cards {
		var existing models.IslamicCard
		err := db.Where("title = ?", cards[i].Title).First(&existing).Error
		if err == nil {
			continue
		}
		if err := db.Create(&cards[i]).Error; err != nil {
			log.Printf("[seed] islamic card %q: %v", cards[i].Title, err)
		}
	}
}
