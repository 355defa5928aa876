package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	"github.com/Aidana2304/SchoolConnect/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository handles database operations related to users, including the
// embedded social-graph arrays and presence fields.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, apperrors.Store("insert user", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logrus.Error("Failed to cast inserted ID to ObjectID")
		return nil, apperrors.Store("insert user", errors.New("unexpected inserted ID type"))
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user")
		}
		logrus.WithFields(logrus.Fields{
			"email": email,
			"error": err,
		}).Warn("Failed to find user by email")
		return nil, apperrors.Store("find user by email", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user")
		}
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Warn("Failed to find user by ID")
		return nil, apperrors.Store("find user by id", err)
	}
	return &user, nil
}

// UpdateUser applies a partial update to a user document.
func (r *UserRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
	update["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Error("Failed to update user")
		return nil, apperrors.Store("update user", err)
	}

	return r.GetUserByID(ctx, id)
}

// GetAllUsers returns every user document.
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperrors.Store("fetch users", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, apperrors.Store("decode user", err)
		}
		users = append(users, &user)
	}

	return users, nil
}

// GetUsersByIDs fetches user details for a list of ObjectIDs. IDs that do not
// resolve to a document are simply absent from the result.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.Store("fetch users by ids", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, apperrors.Store("decode user", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// SetPresence stores the self-reported online flag and unconditionally
// refreshes last_seen, even when going offline. last_seen means "last
// activity", not "last time online".
func (r *UserRepository) SetPresence(ctx context.Context, id primitive.ObjectID, online bool) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_online": online, "last_seen": time.Now()}},
	)
	if err != nil {
		return apperrors.Store("set presence", err)
	}
	return nil
}

// TouchLastSeen refreshes last_seen without touching the online flag.
func (r *UserRepository) TouchLastSeen(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_seen": time.Now()}},
	)
	if err != nil {
		return apperrors.Store("touch last seen", err)
	}
	return nil
}

// AddFriendRequest records a pending request from fromID on toID's document.
func (r *UserRepository) AddFriendRequest(ctx context.Context, toID, fromID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": toID},
		bson.M{"$addToSet": bson.M{"friend_requests": fromID}}, // avoid duplicates
	)
	if err != nil {
		return apperrors.Store("add friend request", err)
	}
	return nil
}

// RemoveFriendRequest drops the pending request from fromID, if any.
func (r *UserRepository) RemoveFriendRequest(ctx context.Context, toID, fromID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": toID},
		bson.M{"$pull": bson.M{"friend_requests": fromID}},
	)
	if err != nil {
		return apperrors.Store("remove friend request", err)
	}
	return nil
}

// CommitFriendship makes userID and fromID friends of each other and clears
// the pending request in a single transaction, so a failure never leaves the
// friendship recorded on one side only.
func (r *UserRepository) CommitFriendship(ctx context.Context, userID, fromID primitive.ObjectID) error {
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection.UpdateOne(sc,
			bson.M{"_id": userID},
			bson.M{
				"$addToSet": bson.M{"friends": fromID},
				"$pull":     bson.M{"friend_requests": fromID},
			},
		); err != nil {
			return err
		}

		_, err := r.collection.UpdateOne(sc,
			bson.M{"_id": fromID},
			bson.M{"$addToSet": bson.M{"friends": userID}},
		)
		return err
	})
	if err != nil {
		return apperrors.Store("commit friendship", err)
	}
	return nil
}

// RemoveFriend removes each user from the other's friend list.
func (r *UserRepository) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection.UpdateOne(sc,
			bson.M{"_id": userID},
			bson.M{"$pull": bson.M{"friends": friendID}},
		); err != nil {
			return err
		}

		_, err := r.collection.UpdateOne(sc,
			bson.M{"_id": friendID},
			bson.M{"$pull": bson.M{"friends": userID}},
		)
		return err
	})
	if err != nil {
		return apperrors.Store("remove friend", err)
	}
	return nil
}

func (r *UserRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
