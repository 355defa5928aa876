package services

import (
	"context"
	"fmt"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	"github.com/Aidana2304/SchoolConnect/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SocialStore is the persistence surface for the friendship graph. The edges
// live on the user documents themselves.
type SocialStore interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	AddFriendRequest(ctx context.Context, toID, fromID primitive.ObjectID) error
	RemoveFriendRequest(ctx context.Context, toID, fromID primitive.ObjectID) error
	CommitFriendship(ctx context.Context, userID, fromID primitive.ObjectID) error
	RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
}

// Notifier delivers in-app notifications. Failures are logged, never fatal.
type Notifier interface {
	Notify(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error
}

// FriendService handles the friend-request lifecycle. Per ordered pair the
// states are none -> pending -> accepted or rejected, and both terminal
// states allow a fresh request afterwards.
type FriendService struct {
	users    SocialStore
	notifier Notifier
}

func NewFriendService(users SocialStore, notifier Notifier) *FriendService {
	return &FriendService{
		users:    users,
		notifier: notifier,
	}
}

// SendFriendRequest records a pending request from sender to receiver.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) error {
	if senderID == receiverID {
		return apperrors.Validation("cannot send a friend request to yourself")
	}

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return err
	}
	receiver, err := s.users.GetUserByID(ctx, receiverID)
	if err != nil {
		return err
	}

	if receiver.HasPendingRequestFrom(senderID) {
		return apperrors.Conflict("friend request already pending")
	}
	// Friendship may be recorded asymmetrically after a partial failure, so
	// either direction counts.
	if sender.HasFriend(receiverID) || receiver.HasFriend(senderID) {
		return apperrors.Conflict("users are already friends")
	}

	if err := s.users.AddFriendRequest(ctx, receiverID, senderID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"sender":   senderID.Hex(),
		"receiver": receiverID.Hex(),
	}).Info("Friend request sent")

	if err := s.notifier.Notify(ctx, receiverID, "friend_request",
		"New friend request",
		fmt.Sprintf("%s sent you a friend request.", sender.DisplayName()),
		&senderID,
	); err != nil {
		logrus.WithError(err).Warn("Failed to notify receiver about friend request")
	}

	return nil
}

// AcceptRequest confirms the pending request from fromID. Both friend lists
// are updated together. Accepting a request that no longer exists is a
// benign no-op.
func (s *FriendService) AcceptRequest(ctx context.Context, userID, fromID primitive.ObjectID) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.users.GetUserByID(ctx, fromID); err != nil {
		return err
	}

	if !user.HasPendingRequestFrom(fromID) {
		logrus.WithFields(logrus.Fields{
			"user": userID.Hex(),
			"from": fromID.Hex(),
		}).Info("Accept of a request that is no longer pending, nothing to do")
		return nil
	}

	if err := s.users.CommitFriendship(ctx, userID, fromID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user": userID.Hex(),
		"from": fromID.Hex(),
	}).Info("Friend request accepted")

	if err := s.notifier.Notify(ctx, fromID, "request_accepted",
		"Friend request accepted",
		fmt.Sprintf("%s accepted your friend request.", user.DisplayName()),
		&userID,
	); err != nil {
		logrus.WithError(err).Warn("Failed to notify sender about accepted request")
	}

	return nil
}

// RejectRequest drops the pending request from fromID without touching any
// friend list. Rejecting an absent request is a no-op, so a later fresh
// request from the same user remains possible.
func (s *FriendService) RejectRequest(ctx context.Context, userID, fromID primitive.ObjectID) error {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return err
	}

	if err := s.users.RemoveFriendRequest(ctx, userID, fromID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user": userID.Hex(),
		"from": fromID.Hex(),
	}).Info("Friend request rejected")

	return nil
}

// GetPendingRequests returns the identities of users whose requests are
// waiting on this user.
func (s *FriendService) GetPendingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(user.FriendRequests) == 0 {
		return []models.PublicUser{}, nil
	}

	requesters, err := s.users.GetUsersByIDs(ctx, user.FriendRequests)
	if err != nil {
		return nil, err
	}

	pending := make([]models.PublicUser, 0, len(requesters))
	for i := range requesters {
		pending = append(pending, models.NewPublicUser(&requesters[i]))
	}
	return pending, nil
}

// GetFriends returns the identities of the user's confirmed friends.
func (s *FriendService) GetFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(user.Friends) == 0 {
		return []models.PublicUser{}, nil
	}

	friends, err := s.users.GetUsersByIDs(ctx, user.Friends)
	if err != nil {
		return nil, err
	}

	result := make([]models.PublicUser, 0, len(friends))
	for i := range friends {
		result = append(result, models.NewPublicUser(&friends[i]))
	}
	return result, nil
}

// RemoveFriend dissolves the friendship in both directions.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return err
	}
	return s.users.RemoveFriend(ctx, userID, friendID)
}
