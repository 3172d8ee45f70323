package models

import "time"

// AdminChatMessage is a persisted message in an admin-scope chat room. Scope
// plus the location fields identify the room: a WARD room is keyed by
// state+local_govt+ward, a NATIONAL room by nothing.
type AdminChatMessage struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	SenderID    uint   `gorm:"not null;index" json:"sender_id"`
	RecipientID *uint  `json:"recipient_id,omitempty"`
	Scope       string `gorm:"size:20;not null;default:'STATE';index" json:"scope"` // WARD | LOCAL_GOVT | STATE | NATIONAL
	State       string `gorm:"size:100" json:"state"`
	LocalGovt   string `gorm:"size:100" json:"local_govt"`
	Ward        string `gorm:"size:100" json:"ward"`

	MessageType string    `gorm:"size:20;not null;default:'TEXT'" json:"message_type"` // TEXT | CALL | VIDEO | CONFERENCE
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	Sender    User  `gorm:"foreignKey:SenderID" json:"-"`
	Recipient *User `gorm:"foreignKey:RecipientID" json:"-"`
}

func (AdminChatMessage) TableName() string {
	return "admin_chat_messages"
}
