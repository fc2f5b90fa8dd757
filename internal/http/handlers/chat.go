package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/chat"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/storage"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/pkg/apperr"
)

// ChatHandler is the HTTP fallback surface, used when the live channel is
// unavailable. Identification is by userId query/body parameter; auth is
// the caller's problem.
type ChatHandler struct {
	Convs    *storage.ConversationRepository
	Msgs     *storage.MessageRepository
	Statuses *storage.StatusRepository
	Users    *storage.UserRepository
	Chat     *chat.Handler
}

func userIDQuery(c *gin.Context) (uint, bool) {
	v := c.Query("userId")
	if v == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "userId is required"})
		return 0, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid userId"})
		return 0, false
	}
	return uint(id), true
}

func conversationIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid conversation id"})
		return 0, false
	}
	return uint(id), true
}

func fail(c *gin.Context, err error) {
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case apperr.CodeInvalidArgument:
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

// ListConversations returns the user's visible conversations with sidebar
// summaries, most recently active first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}

	convs, err := h.Convs.ListForUser(userID)
	if err != nil {
		fail(c, err)
		return
	}

	type item struct {
		ID        uint                     `json:"id"`
		CreatedAt time.Time                `json:"created_at"`
		UpdatedAt time.Time                `json:"updated_at"`
		Members   interface{}              `json:"members"`
		Summary   chat.ConversationSummary `json:"summary"`
	}

	items := make([]item, 0, len(convs))
	for _, conv := range convs {
		summary, err := h.Chat.SummaryFor(conv.ID, userID)
		if err != nil {
			fail(c, err)
			return
		}
		items = append(items, item{
			ID:        conv.ID,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
			Members:   conv.Members,
			Summary:   summary,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

type createConversationReq struct {
	UserID      uint `json:"userId" binding:"required"`
	OtherUserID uint `json:"otherUserId" binding:"required"`
}

// CreateConversation finds or creates the 1:1 conversation for the pair.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	conv, created, err := h.Convs.FindOrCreateDirect(req.UserID, req.OtherUserID)
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": conv})
}

// ListMessages returns the messages visible to the user and, as a side
// effect, marks the conversation read for them.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	member, err := h.Convs.IsMember(convID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	if !member {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		return
	}

	msgs, err := h.Msgs.ListVisible(convID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.Statuses.MarkConversationRead(convID, userID, time.Now()); err != nil {
		log.Printf("mark conversation %d read for user %d: %v", convID, userID, err)
	}

	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

type sendMessageReq struct {
	ConversationID uint    `json:"conversationId" binding:"required"`
	SenderID       uint    `json:"senderId" binding:"required"`
	Content        string  `json:"content"`
	AttachmentURL  *string `json:"attachmentUrl,omitempty"`
	AttachmentType *string `json:"attachmentType,omitempty"`
}

// SendMessage posts a message through the same path as the realtime
// protocol, so connected clients still get their broadcasts.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	msg, err := h.Chat.Send(req.SenderID, chat.SendPayload{
		ConversationID: req.ConversationID,
		Content:        req.Content,
		AttachmentURL:  req.AttachmentURL,
		AttachmentType: req.AttachmentType,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": msg})
}

// AvailableUsers lists everyone the user could start a conversation with.
func (h *ChatHandler) AvailableUsers(c *gin.Context) {
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}

	users, err := h.Users.ListAvailable(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

// HideConversation soft-leaves the conversation for the user; history is
// kept for the remaining participants.
func (h *ChatHandler) HideConversation(c *gin.Context) {
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	if err := h.Convs.Hide(convID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation hidden"})
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	if err := h.Statuses.MarkConversationRead(convID, userID, time.Now()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation marked read"})
}

func (h *ChatHandler) MarkUnread(c *gin.Context) {
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	if err := h.Statuses.MarkConversationUnread(convID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation marked unread"})
}
