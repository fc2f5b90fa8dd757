package storage

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/models"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/pkg/apperr"
)

// MessageRepository handles database operations for Message and
// MessageDelete.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.Message{}, &models.MessageDelete{})
}

func (r *MessageRepository) Create(msg *models.Message) error {
	return errors.Wrap(r.db.Create(msg).Error, "messageRepo.Create")
}

func (r *MessageRepository) GetByID(id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, errors.Wrap(err, "messageRepo.GetByID")
	}
	return &msg, nil
}

// ListVisible returns the conversation's messages in send order, skipping
// those the user has hidden for themself.
func (r *MessageRepository) ListVisible(conversationID, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Where("NOT EXISTS (SELECT 1 FROM message_deletes d WHERE d.message_id = messages.id AND d.user_id = ?)", userID).
		Order("id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.ListVisible")
	}
	return msgs, nil
}

// LatestVisible returns the newest message the user has not hidden, or
// NotFound for an empty conversation.
func (r *MessageRepository) LatestVisible(conversationID, userID uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Where("NOT EXISTS (SELECT 1 FROM message_deletes d WHERE d.message_id = messages.id AND d.user_id = ?)", userID).
		Order("id desc").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no messages")
		}
		return nil, errors.Wrap(err, "messageRepo.LatestVisible")
	}
	return &msg, nil
}

func (r *MessageRepository) Edit(id uint, content string, at time.Time) error {
	result := r.db.Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
			"edited_at": at,
		})
	return errors.Wrap(result.Error, "messageRepo.Edit")
}

// Recall clears content and attachment fields and flags the message as
// recalled. Irreversible.
func (r *MessageRepository) Recall(id uint) error {
	result := r.db.Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":         "",
			"attachment_url":  nil,
			"attachment_type": nil,
			"is_recalled":     true,
		})
	return errors.Wrap(result.Error, "messageRepo.Recall")
}

// AddDelete hides the message for one user. Idempotent: a second call for
// the same pair leaves a single row.
func (r *MessageRepository) AddDelete(messageID, userID uint) error {
	del := models.MessageDelete{MessageID: messageID, UserID: userID}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&del)
	return errors.Wrap(result.Error, "messageRepo.AddDelete")
}

// RemoveDelete restores visibility. Removing an absent row is a no-op.
func (r *MessageRepository) RemoveDelete(messageID, userID uint) error {
	result := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&models.MessageDelete{})
	return errors.Wrap(result.Error, "messageRepo.RemoveDelete")
}

func (r *MessageRepository) CountDeletes(messageID, userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.MessageDelete{}).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Count(&n).Error
	return n, errors.Wrap(err, "messageRepo.CountDeletes")
}
