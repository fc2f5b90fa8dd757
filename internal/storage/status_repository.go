package storage

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/models"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/pkg/apperr"
)

// StatusRepository handles per-recipient delivery state and the unread
// computations built on it. Writes are upserts keyed by the unique
// (message_id, user_id) pair, so concurrent receipt events for the same
// pair are safe at the store level.
type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.MessageStatus{})
}

var statusConflictTarget = []clause.Column{{Name: "message_id"}, {Name: "user_id"}}

// MarkDelivered upserts delivered_at, keeping an earlier timestamp if one
// is already set.
func (r *StatusRepository) MarkDelivered(messageID, userID uint, at time.Time) error {
	status := models.MessageStatus{MessageID: messageID, UserID: userID, DeliveredAt: &at}
	result := r.db.Clauses(clause.OnConflict{
		Columns: statusConflictTarget,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
			"updated_at":   at,
		}),
	}).Create(&status)
	return errors.Wrap(result.Error, "statusRepo.MarkDelivered")
}

// MarkSeen upserts seen_at, filling delivered_at too when it was never
// reported. Keeps earlier timestamps, so seen_at never precedes
// delivered_at.
func (r *StatusRepository) MarkSeen(messageID, userID uint, at time.Time) error {
	status := models.MessageStatus{MessageID: messageID, UserID: userID, DeliveredAt: &at, SeenAt: &at}
	result := r.db.Clauses(clause.OnConflict{
		Columns: statusConflictTarget,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
			"seen_at":      gorm.Expr("COALESCE(seen_at, ?)", at),
			"updated_at":   at,
		}),
	}).Create(&status)
	return errors.Wrap(result.Error, "statusRepo.MarkSeen")
}

func (r *StatusRepository) Get(messageID, userID uint) (*models.MessageStatus, error) {
	var status models.MessageStatus
	err := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message status not found")
		}
		return nil, errors.Wrap(err, "statusRepo.Get")
	}
	return &status, nil
}

// CountUnread counts messages in the conversation not sent by the user and
// not yet seen by them. Recomputed on demand rather than cached.
func (r *StatusRepository) CountUnread(conversationID, userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID).
		Where("NOT EXISTS (SELECT 1 FROM message_statuses s WHERE s.message_id = messages.id AND s.user_id = ? AND s.seen_at IS NOT NULL)", userID).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "statusRepo.CountUnread")
	}
	return n, nil
}

// MarkConversationRead marks every unread message in the conversation as
// seen by the user.
func (r *StatusRepository) MarkConversationRead(conversationID, userID uint, at time.Time) error {
	var ids []uint
	err := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID).
		Where("NOT EXISTS (SELECT 1 FROM message_statuses s WHERE s.message_id = messages.id AND s.user_id = ? AND s.seen_at IS NOT NULL)", userID).
		Pluck("id", &ids).Error
	if err != nil {
		return errors.Wrap(err, "statusRepo.MarkConversationRead")
	}

	for _, id := range ids {
		if err := r.MarkSeen(id, userID, at); err != nil {
			return err
		}
	}
	return nil
}

// MarkConversationUnread clears the seen state of only the single most
// recent message not sent by the user, matching the usual "mark unread"
// chat UX. Earlier messages keep their seen state.
func (r *StatusRepository) MarkConversationUnread(conversationID, userID uint) error {
	var msg models.Message
	err := r.db.Where("conversation_id = ? AND sender_id <> ?", conversationID, userID).
		Order("id desc").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("no messages to mark unread")
		}
		return errors.Wrap(err, "statusRepo.MarkConversationUnread")
	}

	result := r.db.Model(&models.MessageStatus{}).
		Where("message_id = ? AND user_id = ?", msg.ID, userID).
		Update("seen_at", nil)
	return errors.Wrap(result.Error, "statusRepo.MarkConversationUnread.update")
}
