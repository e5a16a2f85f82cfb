package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/cppla/postboard/models"
)

func postDoc(id primitive.ObjectID, title, creator string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "content", Value: "body"},
		{Key: "imagePath", Value: ""},
		{Key: "creator", Value: creator},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns object id", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p, err := s.Create(ctx, models.Post{Title: "Hello", Content: "body", Creator: "alice"})
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(p.ID)
		assert.NoError(mt, err)
		assert.Equal(mt, "alice", p.Creator)
	})

	mt.Run("list maps documents", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		ns := mt.DB.Name() + ".posts"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			postDoc(a, "first", "alice"),
			postDoc(b, "second", "bob"),
		))

		posts, err := s.List(ctx, NewPage(2, 1))
		require.NoError(mt, err)
		require.Len(mt, posts, 2)
		assert.Equal(mt, a.Hex(), posts[0].ID)
		assert.Equal(mt, "second", posts[1].Title)
	})

	mt.Run("count", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		ns := mt.DB.Name() + ".posts"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(5)}}))

		n, err := s.Count(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, int64(5), n)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		ns := mt.DB.Name() + ".posts"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("find malformed id is not found", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		_, err := s.FindByID(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update reports matched count", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "n", Value: 0},
			{Key: "nModified", Value: 0},
		})

		n, err := s.UpdateOne(ctx,
			models.OwnerFilter{ID: primitive.NewObjectID().Hex(), Creator: "bob"},
			models.PostUpdate{Title: "t", Content: "c"},
		)
		require.NoError(mt, err)
		assert.Equal(mt, int64(0), n)
	})

	mt.Run("update malformed id matches nothing", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		n, err := s.UpdateOne(ctx, models.OwnerFilter{ID: "zzz", Creator: "alice"}, models.PostUpdate{})
		require.NoError(mt, err)
		assert.Equal(mt, int64(0), n)
	})

	mt.Run("delete reports deleted count", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})

		n, err := s.DeleteOne(ctx, models.OwnerFilter{ID: primitive.NewObjectID().Hex(), Creator: "alice"})
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)
	})

	mt.Run("duplicate user", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		_, err := s.CreateUser(ctx, models.User{Email: "a@b.c", PasswordHash: "h"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}
