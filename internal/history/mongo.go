package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hmawbi/uniguide/internal/config"
	"github.com/hmawbi/uniguide/internal/models"
)

// MongoStore persists conversation messages in a Mongo collection.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	messages *mongo.Collection
}

type messageDoc struct {
	SessionID string    `bson:"session_id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	Timestamp time.Time `bson:"timestamp"`
	IsError   bool      `bson:"is_error,omitempty"`
	IsUrgent  bool      `bson:"is_urgent,omitempty"`
}

func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("history: mongo uri is required")
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("history: connect mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	return &MongoStore{
		client:   client,
		database: db,
		messages: db.Collection("messages"),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the session/timestamp index the history reads rely
// on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if s == nil || s.messages == nil {
		return fmt.Errorf("history: store not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("history: ensure message index: %w", err)
	}

	return nil
}

func (s *MongoStore) Append(ctx context.Context, sessionID string, msg models.Message) error {
	doc := messageDoc{
		SessionID: sessionID,
		Role:      string(msg.Role),
		Content:   msg.Text,
		Timestamp: msg.Timestamp,
		IsError:   msg.Flags.IsError,
		IsUrgent:  msg.Flags.IsUrgent,
	}

	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("history: insert message: %w", err)
	}
	return nil
}

// Messages loads a session's history ordered by timestamp.
func (s *MongoStore) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := s.messages.Find(ctx, bson.M{"session_id": sessionID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("history: find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("history: decode messages: %w", err)
	}

	out := make([]models.Message, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.Message{
			Role:      models.Role(doc.Role),
			Text:      doc.Content,
			Timestamp: doc.Timestamp,
			Flags: models.MessageFlags{
				IsError:  doc.IsError,
				IsUrgent: doc.IsUrgent,
			},
		})
	}
	return out, nil
}

// DeleteBefore removes messages older than cutoff and reports how many were
// deleted. Used by the retention cleanup tool.
func (s *MongoStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.messages.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("history: delete old messages: %w", err)
	}
	return result.DeletedCount, nil
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return 10 * time.Second
}
