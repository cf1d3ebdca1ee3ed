package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ayush/card-tracker/backend/internal/models"
)

// CardStore handles card CRUD in MongoDB. Every round-trip is bounded by
// timeout.
type CardStore struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewCardStore(db *mongo.Database, timeout time.Duration) *CardStore {
	return &CardStore{col: db.Collection("cards"), timeout: timeout}
}

func (s *CardStore) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.timeout)
}

// EnsureIndexes creates the owner indexes used by listing and stats.
func (s *CardStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", classifyMongo(err))
	}
	return nil
}

func (s *CardStore) Insert(ctx context.Context, card *models.Card) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col.InsertOne(ctx, card)
	if err != nil {
		return fmt.Errorf("mongo insert: %w", classifyMongo(err))
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		card.ID = oid
	}
	return nil
}

// ListByOwner returns the owner's cards, newest first. The result is the
// snapshot the statistics report is computed over.
func (s *CardStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Card, error) {
	return s.find(ctx, bson.M{"ownerId": ownerID})
}

// ListAll returns every card regardless of owner.
func (s *CardStore) ListAll(ctx context.Context) ([]models.Card, error) {
	return s.find(ctx, bson.M{})
}

func (s *CardStore) find(ctx context.Context, filter bson.M) ([]models.Card, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", classifyMongo(err))
	}
	defer cur.Close(ctx)

	cards := []models.Card{}
	if err := cur.All(ctx, &cards); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", classifyMongo(err))
	}
	return cards, nil
}

// GetByID returns the card only if ownerID owns it.
func (s *CardStore) GetByID(ctx context.Context, ownerID, id string) (*models.Card, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var card models.Card
	if err := s.col.FindOne(ctx, bson.M{"_id": oid, "ownerId": ownerID}).Decode(&card); err != nil {
		return nil, fmt.Errorf("mongo get card %s: %w", id, classifyMongo(err))
	}
	return &card, nil
}

// Replace overwrites a card owned by card.OwnerID.
func (s *CardStore) Replace(ctx context.Context, card *models.Card) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": card.ID, "ownerId": card.OwnerID}, card)
	if err != nil {
		return fmt.Errorf("mongo replace: %w", classifyMongo(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo replace card %s: %w", card.ID.Hex(), models.ErrNotFound)
	}
	return nil
}

func (s *CardStore) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", classifyMongo(err))
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongo delete card %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *CardStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, readpref.Primary())
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid card id %q", models.ErrMalformedInput, id)
	}
	return oid, nil
}

// classifyMongo maps driver errors onto domain sentinels.
func classifyMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", models.ErrAlreadyExists, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	default:
		return err
	}
}
