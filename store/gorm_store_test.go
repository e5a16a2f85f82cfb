package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/postboard/models"
	"github.com/cppla/postboard/store"
	"github.com/cppla/postboard/store/storetest"
)

func seedPosts(t *testing.T, s store.PostStore, creator string, n int) []models.Post {
	t.Helper()
	out := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		p, err := s.Create(context.Background(), models.Post{
			Title:   "post title",
			Content: "body",
			Creator: creator,
		})
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestGormStore_CreateAssignsID(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	created, err := s.Create(ctx, models.Post{ID: "client-chosen", Title: "Hello", Content: "body", Creator: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-chosen", created.ID)

	got, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "alice", got.Creator)
}

func TestGormStore_ListPagination(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	seedPosts(t, s, "alice", 5)

	all, err := s.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	// zero values disable pagination instead of producing an empty page
	all, err = s.List(ctx, store.NewPage(0, 0))
	require.NoError(t, err)
	assert.Len(t, all, 5)

	first, err := s.List(ctx, store.NewPage(2, 1))
	require.NoError(t, err)
	assert.Len(t, first, 2)

	last, err := s.List(ctx, store.NewPage(2, 3))
	require.NoError(t, err)
	assert.Len(t, last, 1)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestGormStore_EmptyListIsNotNil(t *testing.T) {
	s := storetest.NewSQLite(t)
	posts, err := s.List(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestGormStore_FindByIDMissing(t *testing.T) {
	s := storetest.NewSQLite(t)
	_, err := s.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGormStore_UpdateOneOwnership(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	post := seedPosts(t, s, "alice", 1)[0]
	update := models.PostUpdate{Title: "Changed", Content: "new body", ImagePath: "http://x/images/a.png"}

	n, err := s.UpdateOne(ctx, models.OwnerFilter{ID: post.ID, Creator: "bob"}, update)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	unchanged, err := s.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "post title", unchanged.Title)

	n, err = s.UpdateOne(ctx, models.OwnerFilter{ID: post.ID, Creator: "alice"}, update)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	changed, err := s.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", changed.Title)
	assert.Equal(t, "http://x/images/a.png", changed.ImagePath)
	assert.Equal(t, "alice", changed.Creator)
}

func TestGormStore_DeleteOneOwnership(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	post := seedPosts(t, s, "alice", 1)[0]

	n, err := s.DeleteOne(ctx, models.OwnerFilter{ID: post.ID, Creator: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.DeleteOne(ctx, models.OwnerFilter{ID: post.ID, Creator: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGormStore_Users(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, models.User{Email: " Alice@Example.com ", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = s.CreateUser(ctx, models.User{Email: "alice@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	found, err := s.FindUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.FindUserByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
