package services

import (
	"context"
	"testing"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	"github.com/Aidana2304/SchoolConnect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newFriendFixture(t *testing.T) (*FriendService, *memUserStore, *memNotifier, *models.User, *models.User) {
	t.Helper()
	a := &models.User{FirstName: "Aigerim", Email: "a@school.kz", Role: "student"}
	b := &models.User{FirstName: "Bauyrzhan", Email: "b@school.kz", Role: "student"}
	store := newMemUserStore(a, b)
	notifier := &memNotifier{}
	return NewFriendService(store, notifier), store, notifier, a, b
}

func TestSendFriendRequest(t *testing.T) {
	svc, store, notifier, a, b := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))

	receiver := store.users[b.ID]
	assert.True(t, receiver.HasPendingRequestFrom(a.ID))

	require.Len(t, notifier.notified, 1)
	assert.Equal(t, b.ID, notifier.notified[0])
	assert.Equal(t, "friend_request", notifier.types[0])
}

func TestSendFriendRequestRejectsSelf(t *testing.T) {
	svc, _, _, a, _ := newFriendFixture(t)

	err := svc.SendFriendRequest(context.Background(), a.ID, a.ID)
	assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
}

func TestSendFriendRequestUnknownUsers(t *testing.T) {
	svc, _, _, a, _ := newFriendFixture(t)
	ctx := context.Background()

	err := svc.SendFriendRequest(ctx, a.ID, primitive.NewObjectID())
	assert.True(t, apperrors.IsNotFound(err), "expected not found, got %v", err)

	err = svc.SendFriendRequest(ctx, primitive.NewObjectID(), a.ID)
	assert.True(t, apperrors.IsNotFound(err), "expected not found, got %v", err)
}

func TestSendFriendRequestDuplicateConflicts(t *testing.T) {
	svc, _, _, a, b := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))

	err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	assert.True(t, apperrors.IsConflict(err), "duplicate pending request must conflict, got %v", err)
}

func TestSendFriendRequestToExistingFriendConflicts(t *testing.T) {
	svc, store, _, a, b := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))
	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))

	err := svc.SendFriendRequest(ctx, a.ID, b.ID)
	assert.True(t, apperrors.IsConflict(err), "request to an existing friend must conflict, got %v", err)

	// Asymmetric leftovers count as friendship too, from either side.
	store.users[a.ID].Friends = nil
	err = svc.SendFriendRequest(ctx, a.ID, b.ID)
	assert.True(t, apperrors.IsConflict(err), "one-sided friendship record must still conflict, got %v", err)
}

func TestAcceptRequestSymmetricFriendship(t *testing.T) {
	svc, store, notifier, a, b := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))
	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))

	userA := store.users[a.ID]
	userB := store.users[b.ID]
	assert.True(t, userA.HasFriend(b.ID), "accept must record the friendship on the sender")
	assert.True(t, userB.HasFriend(a.ID), "accept must record the friendship on the receiver")
	assert.False(t, userB.HasPendingRequestFrom(a.ID), "pending edge must be cleared")

	// Second notification goes back to the original requester.
	require.Len(t, notifier.notified, 2)
	assert.Equal(t, a.ID, notifier.notified[1])
	assert.Equal(t, "request_accepted", notifier.types[1])
}

func TestAcceptWithoutPendingRequestIsNoop(t *testing.T) {
	svc, store, _, a, b := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))
	assert.False(t, store.users[b.ID].HasFriend(a.ID))
	assert.False(t, store.users[a.ID].HasFriend(b.ID))

	// Double accept: the second one finds no edge and does nothing.
	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))
	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))
	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))
	assert.Len(t, store.users[b.ID].Friends, 1)
	assert.Len(t, store.users[a.ID].Friends, 1)
}

func TestAcceptRequestUnknownUser(t *testing.T) {
	svc, _, _, a, _ := newFriendFixture(t)

	err := svc.AcceptRequest(context.Background(), primitive.NewObjectID(), a.ID)
	assert.True(t, apperrors.IsNotFound(err), "expected not found, got %v", err)

	err = svc.AcceptRequest(context.Background(), a.ID, primitive.NewObjectID())
	assert.True(t, apperrors.IsNotFound(err), "expected not found, got %v", err)
}

func TestRejectRequestLeavesFriendsUntouched(t *testing.T) {
	svc, store, _, a, b := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))
	require.NoError(t, svc.RejectRequest(ctx, b.ID, a.ID))

	assert.False(t, store.users[b.ID].HasPendingRequestFrom(a.ID))
	assert.False(t, store.users[a.ID].HasFriend(b.ID))
	assert.False(t, store.users[b.ID].HasFriend(a.ID))

	// Reject is idempotent.
	require.NoError(t, svc.RejectRequest(ctx, b.ID, a.ID))

	// Rejection is not a block: a fresh request goes through.
	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))
	assert.True(t, store.users[b.ID].HasPendingRequestFrom(a.ID))
}

func TestReRequestAfterUnfriend(t *testing.T) {
	svc, store, _, a, b := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))
	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))
	require.NoError(t, svc.RemoveFriend(ctx, a.ID, b.ID))

	assert.False(t, store.users[a.ID].HasFriend(b.ID))
	assert.False(t, store.users[b.ID].HasFriend(a.ID))

	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))
	assert.True(t, store.users[b.ID].HasPendingRequestFrom(a.ID))
}

func TestGetPendingRequestsAndFriends(t *testing.T) {
	svc, _, _, a, b := newFriendFixture(t)
	ctx := context.Background()

	pending, err := svc.GetPendingRequests(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, svc.SendFriendRequest(ctx, a.ID, b.ID))

	pending, err = svc.GetPendingRequests(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)
	assert.Equal(t, "Aigerim", pending[0].FirstName)

	require.NoError(t, svc.AcceptRequest(ctx, b.ID, a.ID))

	friends, err := svc.GetFriends(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, b.ID, friends[0].ID)

	pending, err = svc.GetPendingRequests(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
