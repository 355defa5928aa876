package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	"github.com/Aidana2304/SchoolConnect/internal/models"
	"github.com/Aidana2304/SchoolConnect/pkg/email"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var validRoles = map[string]bool{
	"student": true,
	"teacher": true,
	"admin":   true,
}

// UserStore is the persistence surface for accounts and presence.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	SetPresence(ctx context.Context, id primitive.ObjectID, online bool) error
	TouchLastSeen(ctx context.Context, id primitive.ObjectID) error
}

// UserService encapsulates account registration, identity lookups and the
// self-reported presence state.
type UserService struct {
	repo UserStore
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore) *UserService {
	return &UserService{
		repo: repo,
	}
}

// RegisterUser registers a new user after hashing their password. The
// HashedPassword field carries the raw password on input.
func (s *UserService) RegisterUser(ctx context.Context, user *models.User) (*models.User, error) {
	logrus.Info("Registering new user")

	if user.Email == "" || user.FirstName == "" || user.HashedPassword == "" {
		logrus.Warn("Missing required fields during registration")
		return nil, apperrors.Validation("missing required user fields")
	}

	if !emailRegex.MatchString(user.Email) {
		logrus.WithField("email", user.Email).Warn("Invalid email format during registration")
		return nil, apperrors.Validation("invalid email format")
	}

	if user.Role == "" {
		user.Role = "student"
	}
	if !validRoles[user.Role] {
		return nil, apperrors.Validation("invalid role %q", user.Role)
	}

	// Check if the email is already registered
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	if existingUser != nil {
		logrus.WithField("email", user.Email).Warn("Email already in use")
		return nil, apperrors.Conflict("email already in use")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(user.HashedPassword), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.HashedPassword = string(hashedPwd)

	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		logrus.WithError(err).Error("User registration failed")
		return nil, err
	}

	// Best effort; registration already succeeded.
	body := fmt.Sprintf("Welcome to SchoolConnect, %s!\n\nYou can now message classmates and teachers from your account.", createdUser.FirstName)
	if err := email.SendEmail(createdUser.Email, "Welcome to SchoolConnect", body); err != nil {
		logrus.WithError(err).Warn("Failed to send welcome email")
	}

	logrus.WithFields(logrus.Fields{
		"userID": createdUser.ID.Hex(),
		"role":   createdUser.Role,
	}).Info("User registered successfully")

	return createdUser, nil
}

// AuthenticateUser verifies the email and password and returns the user if
// credentials are valid.
func (s *UserService) AuthenticateUser(ctx context.Context, userEmail, password string) (*models.User, error) {
	logrus.WithField("email", userEmail).Info("Authenticating user")

	user, err := s.repo.GetUserByEmail(ctx, userEmail)
	if err != nil {
		logrus.WithField("email", userEmail).Warn("User not found")
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", userEmail).Warn("Invalid credentials")
		return nil, fmt.Errorf("invalid credentials")
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		logrus.WithError(err).Warn("Invalid user ID")
		return nil, apperrors.Validation("invalid user ID")
	}

	return s.repo.GetUserByID(ctx, objID)
}

// UpdateUser applies a partial profile update.
func (s *UserService) UpdateUser(ctx context.Context, id string, update map[string]interface{}) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		logrus.WithError(err).Warn("Invalid user ID")
		return nil, apperrors.Validation("invalid user ID")
	}

	user, err := s.repo.UpdateUser(ctx, objID, update)
	if err != nil {
		logrus.WithError(err).Error("Failed to update user in service")
		return nil, err
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User updated successfully")
	return user, nil
}

// GetContactableUsers lists every other user in the directory, annotated with
// whether they are a friend of the viewer and their current presence. Unlike
// the conversation list, this includes users the viewer never messaged.
func (s *UserService) GetContactableUsers(ctx context.Context, viewerID primitive.ObjectID) ([]models.ContactableUser, error) {
	viewer, err := s.repo.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	contactable := make([]models.ContactableUser, 0, len(users))
	for _, u := range users {
		if u.ID == viewerID {
			continue
		}
		// Either direction counts, in case a partial failure ever left the
		// friendship recorded on one side only.
		isFriend := viewer.HasFriend(u.ID) || u.HasFriend(viewerID)
		contactable = append(contactable, models.ContactableUser{
			PublicUser: models.NewPublicUser(u),
			IsFriend:   isFriend,
		})
	}

	return contactable, nil
}

// SetPresence records the client's self-reported online state. last_seen is
// refreshed on every signal, including the offline one. There is no timeout:
// a client that dies without signing off stays "online" until it says
// otherwise. That is a known limitation of self-reported presence.
func (s *UserService) SetPresence(ctx context.Context, userID primitive.ObjectID, online bool) error {
	if err := s.repo.SetPresence(ctx, userID, online); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"userID": userID.Hex(),
		"online": online,
	}).Info("Presence updated")
	return nil
}

// GetPresence returns a user's last self-reported state. A user that never
// signaled reads as offline.
func (s *UserService) GetPresence(ctx context.Context, userID primitive.ObjectID) (*models.Presence, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Presence{
		IsOnline: user.IsOnline,
		LastSeen: user.LastSeen,
	}, nil
}

// TouchLastSeen refreshes last activity without changing the online flag.
func (s *UserService) TouchLastSeen(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.TouchLastSeen(ctx, userID)
}

// GetAllUsers returns every account. Admin use only.
func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// AuditStalePresence logs users who claim to be online but have shown no
// activity for longer than maxAge. It deliberately mutates nothing: presence
// is self-reported and only the client may change it.
func (s *UserService) AuditStalePresence(ctx context.Context, maxAge time.Duration) error {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	stale := 0
	for _, u := range users {
		if u.IsOnline && u.LastSeen.Before(cutoff) {
			stale++
			logrus.WithFields(logrus.Fields{
				"userID":   u.ID.Hex(),
				"lastSeen": u.LastSeen,
			}).Warn("User online flag looks stale")
		}
	}

	if stale > 0 {
		logrus.Infof("Stale presence audit found %d suspicious users", stale)
	}
	return nil
}
