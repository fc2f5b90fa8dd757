package storage

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Message{},
		&models.MessageStatus{},
		&models.MessageDelete{},
	))
	return db
}

func seedConversation(t *testing.T, db *gorm.DB, memberIDs ...uint) *models.Conversation {
	t.Helper()

	conv, err := NewConversationRepository(db).Create(memberIDs)
	require.NoError(t, err)
	return conv
}

func seedMessage(t *testing.T, db *gorm.DB, conversationID, senderID uint, content string) *models.Message {
	t.Helper()

	msg := &models.Message{ConversationID: conversationID, SenderID: senderID, Content: content}
	require.NoError(t, NewMessageRepository(db).Create(msg))
	return msg
}
