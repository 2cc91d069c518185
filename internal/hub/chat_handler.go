package hub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MBSciTech/EcoChat/internal/event"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/MBSciTech/EcoChat/internal/repo"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Client-facing error codes
const (
	codeInvalidPayload = "invalid_payload"
	codeNotAMember     = "not_a_member"
	codeNotSender      = "not_sender"
	codeNotAuthorized  = "not_authorized"
	codeNotAPoll       = "not_a_poll"
	codeInvalidOption  = "invalid_option"
	codeNotFound       = "not_found"
	codePersistence    = "persistence_failure"
)

// ChatHandler routes inbound socket events to the owning operation.
// Every handler isolates its own failures: an error is reported to the
// caller as an `error` event and never kills the connection's pumps.
type ChatHandler struct {
	hub      *Hub
	messages repo.MessageRepository
	groups   repo.GroupRepository
	users    repo.UserRepository
	logger   *zap.Logger
}

func NewChatHandler(h *Hub, messages repo.MessageRepository, groups repo.GroupRepository, users repo.UserRepository, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		hub:      h,
		messages: messages,
		groups:   groups,
		users:    users,
		logger:   logger,
	}
}

// HandleEvent dispatches one inbound event. Installed on the hub as its
// EventHandler.
func (ch *ChatHandler) HandleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventJoinGroups:
		ch.handleJoinGroups(c)
	case event.EventJoinGroup:
		ch.handleJoinGroup(ev, c)
	case event.EventLeaveGroup:
		ch.handleLeaveGroup(ev, c)
	case event.EventSendMessage:
		ch.handleSendMessage(ev, c)
	case event.EventTypingStart:
		ch.handleTypingStart(ev, c)
	case event.EventTypingStop:
		ch.handleTypingStop(ev, c)
	case event.EventMessageDelivered:
		ch.handleMessageStatus(ev, c, model.StateDelivered)
	case event.EventMessageSeen:
		ch.handleMessageStatus(ev, c, model.StateSeen)
	case event.EventMarkGroupSeen:
		ch.handleMarkGroupSeen(ev, c)
	case event.EventAddReaction:
		ch.handleAddReaction(ev, c)
	case event.EventRemoveReaction:
		ch.handleRemoveReaction(ev, c)
	case event.EventVotePoll:
		ch.handleVotePoll(ev, c)
	case event.EventEditMessage:
		ch.handleEditMessage(ev, c)
	case event.EventDeleteMessage:
		ch.handleDeleteMessage(ev, c)
	case event.EventGetOnlineUsers:
		ch.handleGetOnlineUsers(ev, c)
	default:
		ch.logger.Debug("unknown event type", zap.String("event", ev.Event))
	}
}

// -----------------------------------------------------------------
// Membership
// -----------------------------------------------------------------

// handleJoinGroups subscribes the connection to every group the user is
// a member of.
func (ch *ChatHandler) handleJoinGroups(c *Client) {
	groups, err := ch.groups.GroupsForMember(context.Background(), c.userID)
	if err != nil {
		ch.logger.Error("join-groups lookup failed", zap.String("user_id", c.userID), zap.Error(err))
		ch.sendError(c, codePersistence, "could not load your groups")
		return
	}

	for _, g := range groups {
		ch.hub.Subscribe(g.ID.Hex(), c)
	}
	ch.logger.Debug("user joined groups",
		zap.String("user_id", c.userID),
		zap.Int("count", len(groups)),
	)
}

func (ch *ChatHandler) handleJoinGroup(ev event.WsEvent, c *Client) {
	var payload model.JoinGroupPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse join-group request")
		return
	}

	group, err := ch.findGroup(c, payload.GroupID)
	if group == nil || err != nil {
		return
	}

	if !group.IsMember(c.userID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}

	ch.hub.Subscribe(payload.GroupID, c)

	c.SafeSend(event.New(event.EventJoinedGroup, model.JoinedGroupEvent{GroupID: payload.GroupID}), sendTimeout)
	ch.hub.ToRoomExcept(payload.GroupID, c.userID, event.New(event.EventUserJoinedGroup, model.UserJoinedGroupEvent{
		GroupID: payload.GroupID,
		UserID:  c.userID,
	}))
}

// handleLeaveGroup always succeeds; unsubscribing a non-subscriber is a
// no-op.
func (ch *ChatHandler) handleLeaveGroup(ev event.WsEvent, c *Client) {
	var payload model.LeaveGroupPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse leave-group request")
		return
	}

	if ch.hub.StopTyping(payload.GroupID, c.userID) {
		ch.hub.ToRoomExcept(payload.GroupID, c.userID, typingStopped(payload.GroupID, c.userID))
	}
	ch.hub.Unsubscribe(payload.GroupID, c)

	c.SafeSend(event.New(event.EventLeftGroup, model.LeftGroupEvent{GroupID: payload.GroupID}), sendTimeout)
}

// -----------------------------------------------------------------
// Typing indicators
// -----------------------------------------------------------------

func (ch *ChatHandler) handleTypingStart(ev event.WsEvent, c *Client) {
	var payload model.TypingPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse typing event")
		return
	}

	if !c.inRoom(payload.GroupID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}

	ch.hub.StartTyping(payload.GroupID, c.userID)
	ch.hub.ToRoomExcept(payload.GroupID, c.userID, event.New(event.EventUserTyping, model.TypingEvent{
		GroupID: payload.GroupID,
		UserID:  c.userID,
	}))
}

func (ch *ChatHandler) handleTypingStop(ev event.WsEvent, c *Client) {
	var payload model.TypingPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse typing event")
		return
	}

	ch.stopTyping(payload.GroupID, c.userID)
}

// stopTyping clears the typing flag and broadcasts the stop only when the
// user was actually typing. Stop can race between explicit stop, the
// implicit stop on message-send, and disconnect; a lost race is silent.
func (ch *ChatHandler) stopTyping(groupID, userID string) {
	if ch.hub.StopTyping(groupID, userID) {
		ch.hub.ToRoomExcept(groupID, userID, typingStopped(groupID, userID))
	}
}

func typingStopped(groupID, userID string) event.WsEvent {
	return event.New(event.EventUserStoppedTyping, model.TypingEvent{GroupID: groupID, UserID: userID})
}

// -----------------------------------------------------------------
// Presence queries
// -----------------------------------------------------------------

func (ch *ChatHandler) handleGetOnlineUsers(ev event.WsEvent, c *Client) {
	var payload model.GetOnlineUsersPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		ch.sendError(c, codeInvalidPayload, "failed to parse online-users request")
		return
	}

	group, err := ch.findGroup(c, payload.GroupID)
	if group == nil || err != nil {
		return
	}

	if !group.IsMember(c.userID) {
		ch.sendError(c, codeNotAMember, "you are not a member of this group")
		return
	}

	onlineIDs := lo.Filter(group.Members, func(id string, _ int) bool {
		return ch.hub.registry.IsOnline(id)
	})

	users, err := ch.users.FindByIDs(context.Background(), onlineIDs)
	if err != nil {
		ch.logger.Error("online users lookup failed", zap.String("group_id", payload.GroupID), zap.Error(err))
		ch.sendError(c, codePersistence, "could not load online users")
		return
	}

	c.SafeSend(event.New(event.EventOnlineUsers, model.OnlineUsersEvent{
		GroupID: payload.GroupID,
		Users: lo.Map(users, func(u model.User, _ int) model.PublicUser {
			pub := u.Public()
			pub.Status = model.StatusOnline
			return pub
		}),
	}), sendTimeout)
}

// -----------------------------------------------------------------
// Shared helpers
// -----------------------------------------------------------------

// findGroup loads a group, reporting lookup failures to the caller.
// Returns nil when the caller was already answered.
func (ch *ChatHandler) findGroup(c *Client, groupID string) (*model.Group, error) {
	group, err := ch.groups.FindGroup(context.Background(), groupID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			ch.sendError(c, codeNotFound, "group not found")
			return nil, err
		}
		ch.logger.Error("group lookup failed", zap.String("group_id", groupID), zap.Error(err))
		ch.sendError(c, codePersistence, "could not load group")
		return nil, err
	}
	return group, nil
}

// findMessage loads a message, reporting lookup failures to the caller.
func (ch *ChatHandler) findMessage(c *Client, messageID string) (*model.Message, error) {
	msg, err := ch.messages.FindMessage(context.Background(), messageID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			ch.sendError(c, codeNotFound, "message not found")
			return nil, err
		}
		ch.logger.Error("message lookup failed", zap.String("message_id", messageID), zap.Error(err))
		ch.sendError(c, codePersistence, "could not load message")
		return nil, err
	}
	return msg, nil
}

func (ch *ChatHandler) sendError(c *Client, code, message string) {
	c.SafeSend(event.New(event.EventError, model.ErrorPayload{
		Code:    code,
		Message: message,
	}), sendTimeout)
}
