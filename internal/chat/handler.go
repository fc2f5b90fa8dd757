package chat

import (
	"encoding/json"
	"log"
	"time"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/models"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/storage"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/pkg/apperr"
)

// Handler processes inbound protocol events: validates them against the
// store, mutates it, and fans the resulting events out through the rooms.
// Every event is fault-isolated; a failure turns into a single generic
// message:error to the originating connection and nothing else.
type Handler struct {
	presence *Presence
	rooms    *Rooms
	convs    *storage.ConversationRepository
	msgs     *storage.MessageRepository
	statuses *storage.StatusRepository
	users    *storage.UserRepository
	files    storage.AttachmentRemover

	now func() time.Time
}

func NewHandler(
	presence *Presence,
	rooms *Rooms,
	convs *storage.ConversationRepository,
	msgs *storage.MessageRepository,
	statuses *storage.StatusRepository,
	users *storage.UserRepository,
	files storage.AttachmentRemover,
) *Handler {
	return &Handler{
		presence: presence,
		rooms:    rooms,
		convs:    convs,
		msgs:     msgs,
		statuses: statuses,
		users:    users,
		files:    files,
		now:      time.Now,
	}
}

// Dispatch routes one inbound event. NotFound, ownership violations and
// store failures all collapse into the same rejection so callers learn
// nothing about messages they cannot act on.
func (h *Handler) Dispatch(c *Client, ev Inbound) {
	if ev.Type != EventUserJoin && c.UserID == 0 {
		log.Printf("event %s from unidentified conn %s", ev.Type, c.ID)
		h.reject(c)
		return
	}

	var err error
	switch ev.Type {
	case EventUserJoin:
		err = h.handleUserJoin(c, ev.Data)
	case EventConversationJoin:
		err = h.handleConversationJoin(c, ev.Data)
	case EventConversationLeave:
		err = h.handleConversationLeave(c, ev.Data)
	case EventMessageSend:
		err = h.handleSend(c, ev.Data)
	case EventMessageDelivered:
		err = h.handleDelivered(c, ev.Data)
	case EventMessageSeen:
		err = h.handleSeen(c, ev.Data)
	case EventMessageEdit:
		err = h.handleEdit(c, ev.Data)
	case EventMessageDelete:
		err = h.handleDelete(c, ev.Data)
	case EventMessageUndelete:
		err = h.handleUndelete(c, ev.Data)
	case EventMessageRecall:
		err = h.handleRecall(c, ev.Data)
	case EventTypingStart:
		err = h.handleTyping(c, ev.Data, true)
	case EventTypingStop:
		err = h.handleTyping(c, ev.Data, false)
	default:
		err = apperr.InvalidArg("unknown event type")
	}

	if err != nil {
		log.Printf("event %s from conn %s failed: %v", ev.Type, c.ID, err)
		h.reject(c)
	}
}

// Disconnect releases everything tied to a closed connection and pushes
// the new presence snapshot to everyone.
func (h *Handler) Disconnect(c *Client) {
	snapshot := h.presence.Leave(c.ID)
	h.rooms.RemoveConnection(c.ID)
	h.rooms.BroadcastToAll(Event{Type: EventUsersOnline, Data: snapshot})
}

func (h *Handler) reject(c *Client) {
	c.Deliver(Event{Type: EventMessageError, Data: ErrorPayload{Message: "unable to process request"}})
}

func (h *Handler) handleUserJoin(c *Client, data json.RawMessage) error {
	var p UserJoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.UserID == 0 {
		return apperr.InvalidArg("invalid user:join payload")
	}

	c.UserID = p.UserID
	c.Name = p.Name
	h.rooms.JoinUser(p.UserID, c.ID)

	snapshot := h.presence.Join(c.ID, p.UserID, p.Name)
	h.rooms.BroadcastToAll(Event{Type: EventUsersOnline, Data: snapshot})
	return nil
}

func (h *Handler) handleConversationJoin(c *Client, data json.RawMessage) error {
	var p ConversationRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid conversation:join payload")
	}

	ok, err := h.convs.IsMember(p.ConversationID, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("not a conversation member")
	}

	h.rooms.JoinConversation(c.ID, p.ConversationID)
	return nil
}

func (h *Handler) handleConversationLeave(c *Client, data json.RawMessage) error {
	var p ConversationRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid conversation:leave payload")
	}
	h.rooms.LeaveConversation(c.ID, p.ConversationID)
	return nil
}

func (h *Handler) handleSend(c *Client, data json.RawMessage) error {
	var p SendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid message:send payload")
	}
	_, err := h.Send(c.UserID, p)
	return err
}

// Send persists a new message and fans out the resulting events. Shared
// by the websocket path and the HTTP fallback so both surfaces notify
// connected clients. Once the message row exists, notification failures
// do not undo it.
func (h *Handler) Send(senderID uint, p SendPayload) (*models.Message, error) {
	ok, err := h.convs.IsMember(p.ConversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("not a conversation member")
	}

	msg := &models.Message{
		ConversationID: p.ConversationID,
		SenderID:       senderID,
		Content:        p.Content,
		AttachmentURL:  p.AttachmentURL,
		AttachmentType: p.AttachmentType,
		CreatedAt:      h.now(),
	}
	if err := h.msgs.Create(msg); err != nil {
		return nil, err
	}

	if err := h.convs.Touch(p.ConversationID, msg.CreatedAt); err != nil {
		log.Printf("touch conversation %d: %v", p.ConversationID, err)
	}
	// A new message revives the conversation for members who had left it.
	if err := h.convs.UnhideAll(p.ConversationID); err != nil {
		log.Printf("unhide conversation %d: %v", p.ConversationID, err)
	}

	h.rooms.BroadcastToConversation(p.ConversationID, Event{Type: EventMessageNew, Data: msg})
	h.notifyMembers(msg)

	return msg, nil
}

// notifyMembers pushes a sidebar summary and a personal notification to
// every member's user room except the sender.
func (h *Handler) notifyMembers(msg *models.Message) {
	memberIDs, err := h.convs.MemberIDs(msg.ConversationID)
	if err != nil {
		log.Printf("member lookup for conversation %d: %v", msg.ConversationID, err)
		return
	}

	senderName := ""
	if sender, err := h.users.GetByID(msg.SenderID); err == nil {
		senderName = sender.Name
	}

	for _, memberID := range memberIDs {
		if memberID == msg.SenderID {
			continue
		}

		unread, err := h.statuses.CountUnread(msg.ConversationID, memberID)
		if err != nil {
			log.Printf("unread count for user %d: %v", memberID, err)
			continue
		}

		h.rooms.BroadcastToUser(memberID, Event{Type: EventConversationUpdated, Data: ConversationSummary{
			ConversationID: msg.ConversationID,
			UpdatedAt:      msg.CreatedAt,
			LastMessage:    msg,
			UnreadCount:    unread,
		}})
		h.rooms.BroadcastToUser(memberID, Event{Type: EventMessageNotification, Data: NotificationPayload{
			ConversationID: msg.ConversationID,
			MessageID:      msg.ID,
			SenderID:       msg.SenderID,
			SenderName:     senderName,
			Preview:        msg.Content,
		}})
	}
}

func (h *Handler) handleDelivered(c *Client, data json.RawMessage) error {
	var p MessageRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid message:delivered payload")
	}

	msg, err := h.msgs.GetByID(p.MessageID)
	if err != nil {
		return err
	}
	// No status rows for one's own messages.
	if msg.SenderID == c.UserID {
		return nil
	}

	// Idempotent: a repeat report changes nothing and notifies no one.
	if status, err := h.statuses.Get(p.MessageID, c.UserID); err == nil && status.DeliveredAt != nil {
		return nil
	}

	at := h.now()
	if err := h.statuses.MarkDelivered(p.MessageID, c.UserID, at); err != nil {
		return err
	}

	h.rooms.BroadcastToUser(msg.SenderID, Event{Type: EventMessageStatus, Data: StatusPayload{
		MessageID: p.MessageID,
		UserID:    c.UserID,
		Status:    "delivered",
		At:        at,
	}})
	return nil
}

func (h *Handler) handleSeen(c *Client, data json.RawMessage) error {
	var p MessageRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid message:seen payload")
	}

	msg, err := h.msgs.GetByID(p.MessageID)
	if err != nil {
		return err
	}
	if msg.SenderID == c.UserID {
		return nil
	}

	if status, err := h.statuses.Get(p.MessageID, c.UserID); err == nil && status.SeenAt != nil {
		return nil
	}

	at := h.now()
	if err := h.statuses.MarkSeen(p.MessageID, c.UserID, at); err != nil {
		return err
	}

	h.rooms.BroadcastToUser(msg.SenderID, Event{Type: EventMessageStatus, Data: StatusPayload{
		MessageID: p.MessageID,
		UserID:    c.UserID,
		Status:    "seen",
		At:        at,
	}})
	return nil
}

// canModify is the single ownership predicate shared by edit and recall.
func canModify(msg *models.Message, userID uint) bool {
	return msg.SenderID == userID
}

func (h *Handler) handleEdit(c *Client, data json.RawMessage) error {
	var p EditPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid message:edit payload")
	}

	msg, err := h.msgs.GetByID(p.MessageID)
	if err != nil {
		return err
	}
	if !canModify(msg, c.UserID) {
		return apperr.Forbidden("not the message sender")
	}
	if msg.IsRecalled {
		return apperr.FailedPrecondition("message is recalled")
	}

	at := h.now()
	if err := h.msgs.Edit(p.MessageID, p.Content, at); err != nil {
		return err
	}

	msg.Content = p.Content
	msg.IsEdited = true
	msg.EditedAt = &at
	h.rooms.BroadcastToConversation(msg.ConversationID, Event{Type: EventMessageEdited, Data: msg})
	return nil
}

func (h *Handler) handleDelete(c *Client, data json.RawMessage) error {
	var p MessageRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid message:delete payload")
	}

	if _, err := h.msgs.GetByID(p.MessageID); err != nil {
		return err
	}
	if err := h.msgs.AddDelete(p.MessageID, c.UserID); err != nil {
		return err
	}

	// Per-user visibility change; only the issuing connection hears it.
	c.Deliver(Event{Type: EventMessageDeleted, Data: MessageRefPayload{MessageID: p.MessageID}})
	return nil
}

func (h *Handler) handleUndelete(c *Client, data json.RawMessage) error {
	var p MessageRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid message:undelete payload")
	}

	if err := h.msgs.RemoveDelete(p.MessageID, c.UserID); err != nil {
		return err
	}
	msg, err := h.msgs.GetByID(p.MessageID)
	if err != nil {
		return err
	}

	c.Deliver(Event{Type: EventMessageUndeleted, Data: msg})
	return nil
}

func (h *Handler) handleRecall(c *Client, data json.RawMessage) error {
	var p MessageRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid message:recall payload")
	}

	msg, err := h.msgs.GetByID(p.MessageID)
	if err != nil {
		return err
	}
	if !canModify(msg, c.UserID) {
		return apperr.Forbidden("not the message sender")
	}
	if msg.IsRecalled {
		return apperr.FailedPrecondition("message already recalled")
	}

	if msg.AttachmentURL != nil {
		if err := h.files.Remove(*msg.AttachmentURL); err != nil {
			log.Printf("remove attachment for message %d: %v", msg.ID, err)
		}
	}

	if err := h.msgs.Recall(p.MessageID); err != nil {
		return err
	}

	// Globally visible, so only ids go out; no content.
	h.rooms.BroadcastToConversation(msg.ConversationID, Event{Type: EventMessageRecalled, Data: RecalledPayload{
		MessageID:      p.MessageID,
		ConversationID: msg.ConversationID,
	}})
	return nil
}

func (h *Handler) handleTyping(c *Client, data json.RawMessage, isTyping bool) error {
	var p ConversationRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.InvalidArg("invalid typing payload")
	}

	// Ephemeral relay, nothing persisted; the originator is excluded.
	h.rooms.BroadcastToConversation(p.ConversationID, Event{Type: EventTypingUpdate, Data: TypingPayload{
		ConversationID: p.ConversationID,
		UserID:         c.UserID,
		Name:           c.Name,
		IsTyping:       isTyping,
	}}, c.ID)
	return nil
}

// SummaryFor composes the sidebar view of one conversation for one user.
func (h *Handler) SummaryFor(conversationID, userID uint) (ConversationSummary, error) {
	conv, err := h.convs.GetByID(conversationID)
	if err != nil {
		return ConversationSummary{}, err
	}

	summary := ConversationSummary{
		ConversationID: conv.ID,
		UpdatedAt:      conv.UpdatedAt,
	}

	if last, err := h.msgs.LatestVisible(conversationID, userID); err == nil {
		summary.LastMessage = last
	}

	unread, err := h.statuses.CountUnread(conversationID, userID)
	if err != nil {
		return ConversationSummary{}, err
	}
	summary.UnreadCount = unread
	return summary, nil
}
