package repository

import (
	"ishrakaat/internal/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(m *models.AdminChatMessage) error {
	return r.db.Create(m).Error
}

// History returns the most recent messages for a scope room, oldest first so
// clients can append directly.
func (r *ChatRepository) History(scope, state, localGovt, ward string, limit int) ([]models.AdminChatMessage, error) {
	q := r.db.Model(&models.AdminChatMessage{}).Where("scope = ?", scope)
	switch scope {
	case "STATE":
		q = q.Where("state = ?", state)
	case "LOCAL_GOVT":
		q = q.Where("state = ? AND local_govt = ?", state, localGovt)
	case "WARD":
		q = q.Where("state = ? AND local_govt = ? AND ward = ?", state, localGovt, ward)
	}

	var msgs []models.AdminChatMessage
	err := q.Preload("Sender").Order("created_at DESC, id DESC").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
