package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskflow/taskflow/internal/core/domain"
)

const authEventsCollection = "auth_events"

// AuthEventRepository implements ports.AuthEventRepository using MongoDB.
type AuthEventRepository struct {
	coll *mongo.Collection
}

// NewAuthEventRepository creates a new AuthEventRepository.
func NewAuthEventRepository(db *mongo.Database) *AuthEventRepository {
	return &AuthEventRepository{coll: db.Collection(authEventsCollection)}
}

type mongoAuthEvent struct {
	UserID    string    `bson:"user_id"`
	Email     string    `bson:"email"`
	FullName  string    `bson:"full_name,omitempty"`
	Role      string    `bson:"role"`
	Action    string    `bson:"action"`
	IPAddress string    `bson:"ip_address,omitempty"`
	At        time.Time `bson:"at"`
}

// EnsureIndexes creates the descending time index used by Recent.
func (r *AuthEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "at", Value: -1}}})
	if err != nil {
		return fmt.Errorf("create auth event index: %w", err)
	}
	return nil
}

// Insert persists an event to the auth_events audit collection.
func (r *AuthEventRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	doc := mongoAuthEvent{
		UserID:    event.UserID,
		Email:     event.Email,
		FullName:  event.FullName,
		Role:      event.Role,
		Action:    string(event.Action),
		IPAddress: event.IPAddress,
		At:        event.At.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

func (r *AuthEventRepository) Recent(ctx context.Context, limit int) ([]*domain.AuthEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list auth events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAuthEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode auth events: %w", err)
	}
	events := make([]*domain.AuthEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &domain.AuthEvent{
			UserID:    d.UserID,
			Email:     d.Email,
			FullName:  d.FullName,
			Role:      d.Role,
			Action:    domain.AuthAction(d.Action),
			IPAddress: d.IPAddress,
			At:        d.At,
		})
	}
	return events, nil
}
