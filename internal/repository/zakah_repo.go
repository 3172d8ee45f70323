package repository

import (
	"errors"

	"ishrakaat/internal/models"

	"gorm.io/gorm"
)

type ZakahRepository struct {
	db *gorm.DB
}

func NewZakahRepository(db *gorm.DB) *ZakahRepository {
	return &ZakahRepository{db: db}
}

// GetNisab returns the cached thresholds, or nil before the first refresh.
func (r *ZakahRepository) GetNisab() (*models.ZakahNisab, error) {
	var n models.ZakahNisab
	err := r.db.First(&n, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// SaveNisab overwrites the single cached row.
func (r *ZakahRepository) SaveNisab(n *models.ZakahNisab) error {
	n.ID = 1
	var existing models.ZakahNisab
	err := r.db.First(&existing, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(n).Error
	}
	if err != nil {
		return err
	}
	return r.db.Save(n).Error
}

func (r *ZakahRepository) ListReferences() ([]models.ZakahReference, error) {
	var refs []models.ZakahReference
	err := r.db.Order("id").Find(&refs).Error
	return refs, err
}

func (r *ZakahRepository) UpsertReference(ref *models.ZakahReference) error {
	var existing models.ZakahReference
	err := r.db.Where("`key` = ?", ref.Key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(ref).Error
	}
	if err != nil {
		return err
	}
	ref.ID = existing.ID
	return r.db.Save(ref).Error
}

func (r *ZakahRepository) ListIslamicCards() ([]models.IslamicCard, error) {
	var cards []models.IslamicCard
	err := r.db.Order("sort_order, id").Find(&cards).Error
	return cards, err
}

func (r *ZakahRepository) UpsertIslamicCard(c *models.IslamicCard) error {
	var existing models.IslamicCard
	err := r.db.Where("title = ?", c.Title).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(c).Error
	}
	if err != nil {
		return err
	}
	c.ID = existing.ID
	return r.db.Save(c).Error
}
