package services

import (
	"context"
	"sort"
	"time"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	"github.com/Aidana2304/SchoolConnect/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memUserStore is an in-memory stand-in for the user repository. It
// implements UserStore, SocialStore and IdentityDirectory.
type memUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func newMemUserStore(users ...*models.User) *memUserStore {
	s := &memUserStore{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	s.users[user.ID] = user
	return user, nil
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (s *memUserStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	copied := *u
	return &copied, nil
}

func (s *memUserStore) UpdateUser(_ context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	if v, ok := update["first_name"].(string); ok {
		u.FirstName = v
	}
	if v, ok := update["last_name"].(string); ok {
		u.LastName = v
	}
	if v, ok := update["course"].(string); ok {
		u.Course = v
	}
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

func (s *memUserStore) GetAllUsers(_ context.Context) ([]*models.User, error) {
	ids := make([]primitive.ObjectID, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		copied := *s.users[id]
		users = append(users, &copied)
	}
	return users, nil
}

func (s *memUserStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var users []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (s *memUserStore) SetPresence(_ context.Context, id primitive.ObjectID, online bool) error {
	u, ok := s.users[id]
	if !ok {
		return apperrors.NotFound("user")
	}
	u.IsOnline = online
	u.LastSeen = time.Now()
	return nil
}

func (s *memUserStore) TouchLastSeen(_ context.Context, id primitive.ObjectID) error {
	if u, ok := s.users[id]; ok {
		u.LastSeen = time.Now()
	}
	return nil
}

func (s *memUserStore) AddFriendRequest(_ context.Context, toID, fromID primitive.ObjectID) error {
	to, ok := s.users[toID]
	if !ok {
		return apperrors.NotFound("user")
	}
	if !to.HasPendingRequestFrom(fromID) {
		to.FriendRequests = append(to.FriendRequests, fromID)
	}
	return nil
}

func (s *memUserStore) RemoveFriendRequest(_ context.Context, toID, fromID primitive.ObjectID) error {
	to, ok := s.users[toID]
	if !ok {
		return apperrors.NotFound("user")
	}
	to.FriendRequests = removeID(to.FriendRequests, fromID)
	return nil
}

func (s *memUserStore) CommitFriendship(_ context.Context, userID, fromID primitive.ObjectID) error {
	user, ok := s.users[userID]
	if !ok {
		return apperrors.NotFound("user")
	}
	from, ok := s.users[fromID]
	if !ok {
		return apperrors.NotFound("user")
	}
	if !user.HasFriend(fromID) {
		user.Friends = append(user.Friends, fromID)
	}
	user.FriendRequests = removeID(user.FriendRequests, fromID)
	if !from.HasFriend(userID) {
		from.Friends = append(from.Friends, userID)
	}
	return nil
}

func (s *memUserStore) RemoveFriend(_ context.Context, userID, friendID primitive.ObjectID) error {
	if u, ok := s.users[userID]; ok {
		u.Friends = removeID(u.Friends, friendID)
	}
	if f, ok := s.users[friendID]; ok {
		f.Friends = removeID(f.Friends, userID)
	}
	return nil
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// memMessageStore is an in-memory stand-in for the message repository.
type memMessageStore struct {
	messages []*models.Message
	clock    time.Time
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{clock: time.Now()}
}

// add appends a message with a timestamp strictly after all previous ones.
func (s *memMessageStore) add(sender, receiver primitive.ObjectID, content string, read bool) *models.Message {
	s.clock = s.clock.Add(time.Second)
	msg := &models.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		IsRead:     read,
		CreatedAt:  s.clock,
	}
	s.messages = append(s.messages, msg)
	return msg
}

func (s *memMessageStore) InsertMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.clock = s.clock.Add(time.Second)
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = s.clock
	s.messages = append(s.messages, msg)
	copied := *msg
	return &copied, nil
}

func (s *memMessageStore) GetMessagesBetween(_ context.Context, userID, otherID primitive.ObjectID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
		if (m.SenderID == userID && m.ReceiverID == otherID) ||
			(m.SenderID == otherID && m.ReceiverID == userID) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memMessageStore) GetMessagesForUser(_ context.Context, userID primitive.ObjectID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memMessageStore) MarkMessagesRead(_ context.Context, senderID, receiverID primitive.ObjectID) (int64, error) {
	var count int64
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *memMessageStore) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var count int64
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

// memNotifier records notifications instead of storing them.
type memNotifier struct {
	notified []primitive.ObjectID
	types    []string
}

func (n *memNotifier) Notify(_ context.Context, userID primitive.ObjectID, notifType, _, _ string, _ *primitive.ObjectID) error {
	n.notified = append(n.notified, userID)
	n.types = append(n.types, notifType)
	return nil
}
