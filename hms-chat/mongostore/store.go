// Package mongostore persists chat messages in MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "chat_messages"

type document struct {
	ID         string    `bson:"_id"`
	Sender     string    `bson:"sender"`
	SenderName string    `bson:"senderName"`
	SenderType string    `bson:"senderType"`
	Content    string    `bson:"content"`
	Timestamp  time.Time `bson:"timestamp"`
}

var _ hmschat.Searcher = (*Store)(nil)

type Store struct {
	collection *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{collection: db.Collection(collectionName)}
}

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("unable to reach mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the timestamp index history reads rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("unable to create %v indexes: %w", collectionName, err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, message hmschat.ChatMessage) error {
	message = hmschat.Prepare(message, time.Now())
	_, err := s.collection.InsertOne(ctx, document{
		ID:         message.ID,
		Sender:     message.Sender,
		SenderName: message.SenderName,
		SenderType: string(message.SenderType),
		Content:    message.Content,
		Timestamp:  message.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to insert message %v: %w", message.ID, err)
	}
	return nil
}

func (s *Store) ListChronological(ctx context.Context, limit int) ([]hmschat.ChatMessage, error) {
	messages, err := s.find(ctx, bson.M{}, int64(hmschat.Limit(limit)))
	if err != nil {
		return nil, err
	}
	return hmschat.Reverse(messages), nil
}

func (s *Store) Search(ctx context.Context, query string, limit int) ([]hmschat.ChatMessage, error) {
	filter := bson.M{"content": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
	return s.find(ctx, filter, int64(hmschat.SearchLimit(limit)))
}

func (s *Store) Stats(ctx context.Context) (hmschat.Statistics, error) {
	var stats hmschat.Statistics

	counts := []struct {
		filter bson.M
		into   *int
	}{
		{filter: bson.M{}, into: &stats.TotalMessages},
		{filter: bson.M{"senderType": string(hmschat.RoleDoctor)}, into: &stats.ByType.Doctor},
		{filter: bson.M{"senderType": string(hmschat.RolePatient)}, into: &stats.ByType.Patient},
	}
	for _, c := range counts {
		n, err := s.collection.CountDocuments(ctx, c.filter)
		if err != nil {
			return stats, fmt.Errorf("failed to count messages: %w", err)
		}
		*c.into = int(n)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$timestamp"},
				{Key: "timezone", Value: "UTC"},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: 1}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, fmt.Errorf("failed to find most active day: %w", err)
	}
	defer cursor.Close(ctx)

	var days []struct {
		Date  string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &days); err != nil {
		return stats, fmt.Errorf("failed to decode most active day: %w", err)
	}
	if len(days) > 0 {
		stats.MostActiveDay = &hmschat.DayCount{Date: days[0].Date, Count: days[0].Count}
	}
	return stats, nil
}

// find returns up to limit messages matching filter, newest first.
func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]hmschat.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := make([]hmschat.ChatMessage, 0, len(docs))
	for _, d := range docs {
		messages = append(messages, hmschat.ChatMessage{
			ID:         d.ID,
			Sender:     d.Sender,
			SenderName: d.SenderName,
			SenderType: hmschat.Role(d.SenderType),
			Content:    d.Content,
			Timestamp:  d.Timestamp.UTC(),
		})
	}
	return messages, nil
}
