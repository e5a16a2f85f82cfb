package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/postboard/models"
)

// GormStore implements PostStore and UserStore on a relational database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened and migrated gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Models lists what GormStore needs migrated.
func Models() []interface{} {
	return []interface{}{&models.Post{}, &models.User{}}
}

func (s *GormStore) Create(ctx context.Context, post models.Post) (models.Post, error) {
	post.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (s *GormStore) List(ctx context.Context, page *Page) ([]models.Post, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{})
	if page != nil {
		q = q.Offset(int(page.Skip)).Limit(int(page.Limit))
	}
	posts := []models.Post{}
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error
	return total, err
}

func (s *GormStore) FindByID(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

func (s *GormStore) UpdateOne(ctx context.Context, filter models.OwnerFilter, update models.PostUpdate) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND creator = ?", filter.ID, filter.Creator).
		Updates(map[string]interface{}{
			"title":      update.Title,
			"content":    update.Content,
			"image_path": update.ImagePath,
		})
	return res.RowsAffected, res.Error
}

func (s *GormStore) DeleteOne(ctx context.Context, filter models.OwnerFilter) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND creator = ?", filter.ID, filter.Creator).
		Delete(&models.Post{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
		return models.User{}, err
	}
	if existing > 0 {
		return models.User{}, ErrDuplicate
	}

	user.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
