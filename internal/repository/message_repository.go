package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	"github.com/Aidana2304/SchoolConnect/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository is the append-only log of directed messages. Documents
// are never updated after insertion except for the is_read flag.
type MessageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{collection: db.Collection("messages")}
}

// InsertMessage appends a message to the log.
func (r *MessageRepository) InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.CreatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, apperrors.Store("insert message", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Store("insert message", errors.New("unexpected inserted ID type"))
	}
	msg.ID = insertedID
	return msg, nil
}

// GetMessagesBetween returns every message exchanged between the two users,
// oldest first.
func (r *MessageRepository) GetMessagesBetween(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userID, "receiver_id": otherID},
			{"sender_id": otherID, "receiver_id": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Store("fetch conversation", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	for cursor.Next(ctx) {
		var msg models.Message
		if err := cursor.Decode(&msg); err != nil {
			return nil, apperrors.Store("decode message", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// GetMessagesForUser returns every message the user sent or received, newest
// first. Used to derive the conversation list.
func (r *MessageRepository) GetMessagesForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userID},
			{"receiver_id": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Store("fetch user messages", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	for cursor.Next(ctx) {
		var msg models.Message
		if err := cursor.Decode(&msg); err != nil {
			return nil, apperrors.Store("decode message", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// MarkMessagesRead flips every unread message from senderID to receiverID to
// read and returns how many were flipped. Safe to call repeatedly.
func (r *MessageRepository) MarkMessagesRead(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"is_read":     false,
	}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, apperrors.Store("mark messages read", err)
	}
	return result.ModifiedCount, nil
}

// CountUnread returns the number of unread messages addressed to the user.
// An id with no messages simply counts zero.
func (r *MessageRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := bson.M{"receiver_id": userID, "is_read": false}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, apperrors.Store("count unread", err)
	}
	return count, nil
}
