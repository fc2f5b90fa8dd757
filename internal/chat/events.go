package chat

import (
	"encoding/json"
	"time"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/models"
)

// Client -> server event names.
const (
	EventUserJoin          = "user:join"
	EventConversationJoin  = "conversation:join"
	EventConversationLeave = "conversation:leave"
	EventMessageSend       = "message:send"
	EventMessageDelivered  = "message:delivered"
	EventMessageSeen       = "message:seen"
	EventMessageEdit       = "message:edit"
	EventMessageDelete     = "message:delete"
	EventMessageUndelete   = "message:undelete"
	EventMessageRecall     = "message:recall"
	EventTypingStart       = "typing:start"
	EventTypingStop        = "typing:stop"
)

// Server -> client event names.
const (
	EventUsersOnline         = "users:online"
	EventMessageNew          = "message:new"
	EventConversationUpdated = "conversation:updated"
	EventMessageNotification = "message:notification"
	EventMessageStatus       = "message:status"
	EventMessageEdited       = "message:edited"
	EventMessageDeleted      = "message:deleted"
	EventMessageUndeleted    = "message:undeleted"
	EventMessageRecalled     = "message:recalled"
	EventTypingUpdate        = "typing:update"
	EventMessageError        = "message:error"
)

// Event is the outbound wire envelope.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Inbound is the envelope read off the wire; Data stays raw until the
// dispatcher knows which payload to decode.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound payloads.

type UserJoinPayload struct {
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
}

type ConversationRefPayload struct {
	ConversationID uint `json:"conversationId"`
}

type SendPayload struct {
	ConversationID uint    `json:"conversationId"`
	Content        string  `json:"content"`
	AttachmentURL  *string `json:"attachmentUrl,omitempty"`
	AttachmentType *string `json:"attachmentType,omitempty"`
}

type MessageRefPayload struct {
	MessageID uint `json:"messageId"`
}

type EditPayload struct {
	MessageID uint   `json:"messageId"`
	Content   string `json:"content"`
}

// Outbound payloads.

type OnlineUser struct {
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
}

type ConversationSummary struct {
	ConversationID uint            `json:"conversationId"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	LastMessage    *models.Message `json:"lastMessage,omitempty"`
	UnreadCount    int64           `json:"unreadCount"`
}

type NotificationPayload struct {
	ConversationID uint   `json:"conversationId"`
	MessageID      uint   `json:"messageId"`
	SenderID       uint   `json:"senderId"`
	SenderName     string `json:"senderName"`
	Preview        string `json:"preview"`
}

type StatusPayload struct {
	MessageID uint      `json:"messageId"`
	UserID    uint      `json:"userId"`
	Status    string    `json:"status"` // "delivered" or "seen"
	At        time.Time `json:"at"`
}

type RecalledPayload struct {
	MessageID      uint `json:"messageId"`
	ConversationID uint `json:"conversationId"`
}

type TypingPayload struct {
	ConversationID uint   `json:"conversationId"`
	UserID         uint   `json:"userId"`
	Name           string `json:"name"`
	IsTyping       bool   `json:"isTyping"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
