package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skillbridge-admin/internal/models"
)

// MongoStore persists notifications so the admin feed survives restarts.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

// EnsureIndexes creates the indexes the feed queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "read", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}

	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, n *models.Notification) error {
	if _, err := s.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *MongoStore) All(ctx context.Context) ([]*models.Notification, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoStore) Pending(ctx context.Context) ([]*models.Notification, error) {
	return s.find(ctx, bson.M{"status": models.StatusPending})
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]*models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}
	return &n, nil
}

func (s *MongoStore) UpdateDelivery(ctx context.Context, id, status string, attempts int) error {
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":   status,
			"attempts": attempts,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update delivery state: %w", err)
	}
	return nil
}

func (s *MongoStore) MarkRead(ctx context.Context, id string) (bool, error) {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"read":    true,
			"read_at": time.Now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (s *MongoStore) MarkAllRead(ctx context.Context) (int64, error) {
	result, err := s.collection.UpdateMany(ctx, bson.M{"read": false}, bson.M{
		"$set": bson.M{
			"read":    true,
			"read_at": time.Now(),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (s *MongoStore) UnreadCount(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *MongoStore) DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	filter := bson.M{
		"status":     models.StatusDelivered,
		"created_at": bson.M{"$lt": cutoff},
	}

	cursor, err := s.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to find old notifications: %w", err)
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode old notifications: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	if _, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return ids, nil
}

func (s *MongoStore) Reset(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to reset notification store: %w", err)
	}
	return nil
}
