package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ayush/card-tracker/backend/internal/models"
)

func cardDoc(id primitive.ObjectID, owner, title string, status models.CardStatus, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "description", Value: "desc"},
		{Key: "status", Value: string(status)},
		{Key: "ownerId", Value: owner},
		{Key: "createdAt", Value: at},
		{Key: "updatedAt", Value: at},
	}
}

func TestCardStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("insert assigns id", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		card := &models.Card{
			ID:      primitive.NewObjectID(),
			Title:   "X",
			OwnerID: "u1",
		}
		require.NoError(mt, s.Insert(context.Background(), card))
		assert.False(mt, card.ID.IsZero())
	})

	mt.Run("insert duplicate key", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		err := s.Insert(context.Background(), &models.Card{ID: primitive.NewObjectID()})
		assert.ErrorIs(mt, err, models.ErrAlreadyExists)
	})

	mt.Run("list by owner decodes cards", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		id1, id2 := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			cardDoc(id1, "u1", "X", models.StatusTodo, now),
			cardDoc(id2, "u1", "Y", models.StatusDone, now.Add(-time.Hour)),
		))

		cards, err := s.ListByOwner(context.Background(), "u1")
		require.NoError(mt, err)
		require.Len(mt, cards, 2)
		assert.Equal(mt, id1, cards[0].ID)
		assert.Equal(mt, models.StatusDone, cards[1].Status)
		assert.Equal(mt, "u1", cards[1].OwnerID)
	})

	mt.Run("list empty is not nil", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		cards, err := s.ListByOwner(context.Background(), "nobody")
		require.NoError(mt, err)
		assert.NotNil(mt, cards)
		assert.Empty(mt, cards)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.GetByID(context.Background(), "u1", primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("get by id malformed", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}

		_, err := s.GetByID(context.Background(), "u1", "not-an-object-id")
		assert.ErrorIs(mt, err, models.ErrMalformedInput)
	})

	mt.Run("replace without match", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})

		err := s.Replace(context.Background(), &models.Card{ID: primitive.NewObjectID(), OwnerID: "u2"})
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})

		require.NoError(mt, s.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		s := &CardStore{col: mt.Coll}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		err := s.Delete(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}

func TestClassifyMongo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no documents", err: mongo.ErrNoDocuments, want: models.ErrNotFound},
		{name: "deadline", err: context.DeadlineExceeded, want: models.ErrStoreUnavailable},
		{name: "disconnected", err: mongo.ErrClientDisconnected, want: models.ErrStoreUnavailable},
		{
			name: "network label",
			err:  mongo.CommandError{Code: 6, Message: "host unreachable", Labels: []string{"NetworkError"}},
			want: models.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, classifyMongo(tt.err), tt.want)
		})
	}

	plain := errors.New("other")
	assert.Equal(t, plain, classifyMongo(plain))
	assert.NoError(t, classifyMongo(nil))
}
