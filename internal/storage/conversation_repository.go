package storage

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/models"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/pkg/apperr"
)

// ConversationRepository handles database operations for Conversation and
// ConversationMember.
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.Conversation{}, &models.ConversationMember{})
}

// Create makes a new conversation with the given members.
func (r *ConversationRepository) Create(memberIDs []uint) (*models.Conversation, error) {
	conv := models.Conversation{}
	if err := r.db.Create(&conv).Error; err != nil {
		return nil, errors.Wrap(err, "conversationRepo.Create")
	}

	members := make([]models.ConversationMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		members = append(members, models.ConversationMember{ConversationID: conv.ID, UserID: id})
	}
	if err := r.db.Create(&members).Error; err != nil {
		return nil, errors.Wrap(err, "conversationRepo.Create.members")
	}
	conv.Members = members
	return &conv, nil
}

// FindDirect looks up the 1:1 conversation shared by exactly users a and b.
func (r *ConversationRepository) FindDirect(a, b uint) (*models.Conversation, error) {
	var candidateIDs []uint
	err := r.db.Model(&models.ConversationMember{}).
		Select("conversation_id").
		Where("user_id IN ?", []uint{a, b}).
		Group("conversation_id").
		Having("COUNT(DISTINCT user_id) = 2").
		Scan(&candidateIDs).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.FindDirect")
	}

	// Candidates include group conversations containing both users; keep
	// only a conversation whose full member set is the pair.
	for _, id := range candidateIDs {
		memberIDs, err := r.MemberIDs(id)
		if err != nil {
			return nil, err
		}
		if len(memberIDs) == 2 {
			return r.GetByID(id)
		}
	}
	return nil, apperr.NotFound("conversation not found")
}

// FindOrCreateDirect returns the 1:1 conversation for the pair, creating it
// when missing. The second return reports whether it was created.
func (r *ConversationRepository) FindOrCreateDirect(a, b uint) (*models.Conversation, bool, error) {
	conv, err := r.FindDirect(a, b)
	if err == nil {
		return conv, false, nil
	}
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, false, err
	}
	conv, err = r.Create([]uint{a, b})
	if err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

func (r *ConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.Preload("Members").First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, errors.Wrap(err, "conversationRepo.GetByID")
	}
	return &conv, nil
}

// ListForUser returns the user's visible conversations, most recently
// active first.
func (r *ConversationRepository) ListForUser(userID uint) ([]models.Conversation, error) {
	var memberships []models.ConversationMember
	err := r.db.Where("user_id = ? AND is_hidden = ?", userID, false).Find(&memberships).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.ListForUser.members")
	}

	ids := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ConversationID)
	}

	var convs []models.Conversation
	if len(ids) > 0 {
		err = r.db.Preload("Members").Where("id IN ?", ids).Order("updated_at desc").Find(&convs).Error
		if err != nil {
			return nil, errors.Wrap(err, "conversationRepo.ListForUser")
		}
	}
	return convs, nil
}

// Touch bumps the conversation's updated_at to the given time.
func (r *ConversationRepository) Touch(id uint, at time.Time) error {
	result := r.db.Model(&models.Conversation{}).Where("id = ?", id).
		Update("updated_at", at)
	return errors.Wrap(result.Error, "conversationRepo.Touch")
}

// Hide soft-leaves the conversation for one user.
func (r *ConversationRepository) Hide(conversationID, userID uint) error {
	result := r.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("is_hidden", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, "conversationRepo.Hide")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("membership not found")
	}
	return nil
}

// UnhideAll revives the conversation for every member who had left it.
// A new message is the only reason a hidden conversation comes back.
func (r *ConversationRepository) UnhideAll(conversationID uint) error {
	result := r.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND is_hidden = ?", conversationID, true).
		Update("is_hidden", false)
	return errors.Wrap(result.Error, "conversationRepo.UnhideAll")
}

func (r *ConversationRepository) MemberIDs(conversationID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ?", conversationID).
		Order("user_id asc").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.MemberIDs")
	}
	return ids, nil
}

func (r *ConversationRepository) IsMember(conversationID, userID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "conversationRepo.IsMember")
	}
	return n > 0, nil
}
