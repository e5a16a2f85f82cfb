// Package store persists posts and users. Two backends implement the same
// contract: MongoStore for the document database and GormStore for SQL.
//
// Neither backend locks, uses transactions or carries a version token:
// concurrent writes to one post resolve last-write-wins.
package store

import (
	"context"
	"errors"

	"github.com/cppla/postboard/models"
)

var (
	// ErrNotFound is returned when no document matches the lookup.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrNotOwner covers both a missing post and a post owned by someone else.
	// Owner-filtered writes cannot tell the two apart.
	ErrNotOwner = errors.New("store: not authorized")
)

// RequireMatch converts the match count of an owner-filtered write into ErrNotOwner when nothing matched.
func RequireMatch(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotOwner
	}
	return nil
}

// PostStore is the post collection.
type PostStore interface {
	// Create assigns a fresh id and inserts unconditionally.
	Create(ctx context.Context, post models.Post) (models.Post, error)
	// List returns posts in the store's natural order. A nil page returns the whole collection.
	List(ctx context.Context, page *Page) ([]models.Post, error)
	// Count reports the collection size regardless of pagination.
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id string) (models.Post, error)
	// UpdateOne replaces title, content and imagePath of the post matching
	// both id and creator and returns the number of matched posts.
	UpdateOne(ctx context.Context, filter models.OwnerFilter, update models.PostUpdate) (int64, error)
	// DeleteOne removes the post matching both id and creator and returns the number removed.
	DeleteOne(ctx context.Context, filter models.OwnerFilter) (int64, error)
}

// UserStore holds accounts for credential issuance.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
}

var (
	_ PostStore = (*MongoStore)(nil)
	_ UserStore = (*MongoStore)(nil)
	_ PostStore = (*GormStore)(nil)
	_ UserStore = (*GormStore)(nil)
)
