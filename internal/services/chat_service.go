package services

import (
	"context"
	"strings"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	"github.com/Aidana2304/SchoolConnect/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStore is the persistence surface the chat service needs.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetMessagesBetween(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.Message, error)
	GetMessagesForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// IdentityDirectory resolves user ids to full identity records. A missing
// user is reported as a not-found error, never as a partial record.
type IdentityDirectory interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// ChatService handles direct messages, read state and the derived
// conversation list.
type ChatService struct {
	messages MessageStore
	users    IdentityDirectory
}

func NewChatService(messages MessageStore, users IdentityDirectory) *ChatService {
	return &ChatService{
		messages: messages,
		users:    users,
	}
}

// SendMessage validates and stores a message, returning it enriched with both
// display names. Messages to oneself are rejected, matching the friend
// request rule.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID primitive.ObjectID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("message content cannot be empty")
	}
	if receiverID.IsZero() {
		return nil, apperrors.Validation("receiver is required")
	}
	if senderID == receiverID {
		return nil, apperrors.Validation("cannot send a message to yourself")
	}

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.users.GetUserByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsRead:     false,
	}

	created, err := s.messages.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	created.SenderName = sender.DisplayName()
	created.ReceiverName = receiver.DisplayName()

	logrus.WithFields(logrus.Fields{
		"sender":   senderID.Hex(),
		"receiver": receiverID.Hex(),
	}).Info("Message sent")

	return created, nil
}

// GetConversationMessages returns the full exchange between the viewer and
// the counterpart, oldest first. Opening the conversation acknowledges it:
// every unread message addressed to the viewer is flipped to read. Messages
// the viewer sent are never touched.
func (s *ChatService) GetConversationMessages(ctx context.Context, viewerID, otherID primitive.ObjectID) ([]models.Message, error) {
	messages, err := s.messages.GetMessagesBetween(ctx, viewerID, otherID)
	if err != nil {
		return nil, err
	}

	marked, err := s.messages.MarkMessagesRead(ctx, otherID, viewerID)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		logrus.WithFields(logrus.Fields{
			"viewer": viewerID.Hex(),
			"other":  otherID.Hex(),
			"count":  marked,
		}).Info("Messages acknowledged")
	}

	// Reflect the acknowledgement in the returned slice.
	for i := range messages {
		if messages[i].ReceiverID == viewerID {
			messages[i].IsRead = true
		}
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// MarkConversationRead flips every message from senderID to receiverID to
// read. Calling it again is a no-op.
func (s *ChatService) MarkConversationRead(ctx context.Context, senderID, receiverID primitive.ObjectID) error {
	_, err := s.messages.MarkMessagesRead(ctx, senderID, receiverID)
	return err
}

// CountUnread returns the unread badge value for a user. An id with no
// messages, or no user at all, counts zero.
func (s *ChatService) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.messages.CountUnread(ctx, userID)
}

// GetConversations derives the viewer's conversation list: one entry per
// counterpart they have exchanged messages with, carrying the most recent
// message, ordered by that message's timestamp descending. Counterparts whose
// identity cannot be resolved are dropped rather than breaking the view.
func (s *ChatService) GetConversations(ctx context.Context, viewerID primitive.ObjectID) ([]models.Conversation, error) {
	messages, err := s.messages.GetMessagesForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	// Messages arrive newest first, so the first message seen per counterpart
	// is that conversation's latest; insertion order is already the final order.
	seen := make(map[primitive.ObjectID]bool)
	var counterparts []primitive.ObjectID
	latest := make(map[primitive.ObjectID]models.Message)

	for _, msg := range messages {
		other := msg.SenderID
		if other == viewerID {
			other = msg.ReceiverID
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		counterparts = append(counterparts, other)
		latest[other] = msg
	}

	users, err := s.users.GetUsersByIDs(ctx, counterparts)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	conversations := make([]models.Conversation, 0, len(counterparts))
	for _, id := range counterparts {
		user, ok := byID[id]
		if !ok {
			// Dangling reference; skip instead of surfacing a hole.
			logrus.WithField("userID", id.Hex()).Warn("Dropping conversation with unresolved user")
			continue
		}
		conversations = append(conversations, models.Conversation{
			User:        models.NewPublicUser(&user),
			LastMessage: latest[id],
		})
	}

	return conversations, nil
}
