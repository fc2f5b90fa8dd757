package models

import "time"

// User is owned by the auth subsystem; this service only reads it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Username  string    `gorm:"size:120;uniqueIndex;not null" json:"username"`
	Role      string    `gorm:"size:30" json:"role"`
	Avatar    *string   `gorm:"size:255" json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Conversation groups members and an ordered message history.
// UpdatedAt is bumped on every send and drives conversation-list ordering.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Members []ConversationMember `json:"members,omitempty"`
}

type ConversationMember struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"uniqueIndex:idx_conversation_user;not null" json:"conversation_id"`
	UserID         uint      `gorm:"uniqueIndex:idx_conversation_user;index;not null" json:"user_id"`
	IsHidden       bool      `gorm:"default:false" json:"is_hidden"`
	CreatedAt      time.Time `json:"created_at"`
}

type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID uint       `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint       `gorm:"index;not null" json:"sender_id"`
	Content        string     `gorm:"type:text" json:"content"`
	AttachmentURL  *string    `gorm:"size:255" json:"attachment_url,omitempty"`
	AttachmentType *string    `gorm:"size:60" json:"attachment_type,omitempty"`
	IsEdited       bool       `gorm:"default:false" json:"is_edited"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	IsRecalled     bool       `gorm:"default:false" json:"is_recalled"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}

// MessageStatus holds per-recipient delivery state. One row per
// (message, recipient); no row is ever created for the sender.
type MessageStatus struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MessageID   uint       `gorm:"uniqueIndex:idx_message_user;not null" json:"message_id"`
	UserID      uint       `gorm:"uniqueIndex:idx_message_user;not null" json:"user_id"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	SeenAt      *time.Time `json:"seen_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MessageDelete marks a message hidden for one user. Removing the row
// restores visibility; the underlying message is never touched.
type MessageDelete struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"uniqueIndex:idx_delete_message_user;not null" json:"message_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_delete_message_user;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
