package store

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/postboard/models"
)

const (
	postsCollection = "posts"
	usersCollection = "users"
)

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	ImagePath string             `bson:"imagePath"`
	Creator   string             `bson:"creator"`
}

func (d postDocument) model() models.Post {
	return models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		ImagePath: d.ImagePath,
		Creator:   d.Creator,
		CreatedAt: d.ID.Timestamp(),
	}
}

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
}

func (d userDocument) model() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.ID.Timestamp(),
	}
}

// MongoStore implements PostStore and UserStore on MongoDB collections.
type MongoStore struct {
	posts *mongo.Collection
	users *mongo.Collection
}

// NewMongoStore uses the "posts" and "users" collections of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		posts: db.Collection(postsCollection),
		users: db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique email index on users.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, post models.Post) (models.Post, error) {
	doc := postDocument{
		ID:        primitive.NewObjectID(),
		Title:     post.Title,
		Content:   post.Content,
		ImagePath: post.ImagePath,
		Creator:   post.Creator,
	}
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return models.Post{}, err
	}
	return doc.model(), nil
}

func (s *MongoStore) List(ctx context.Context, page *Page) ([]models.Post, error) {
	opts := options.Find()
	if page != nil {
		opts.SetSkip(page.Skip).SetLimit(page.Limit)
	}
	cur, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.model())
	}
	return posts, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	return s.posts.CountDocuments(ctx, bson.D{})
}

// FindByID treats an id that is not an ObjectID as absent.
func (s *MongoStore) FindByID(ctx context.Context, id string) (models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Post{}, ErrNotFound
	}
	var doc postDocument
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, err
	}
	return doc.model(), nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, filter models.OwnerFilter, update models.PostUpdate) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(filter.ID)
	if err != nil {
		return 0, nil
	}
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": oid, "creator": filter.Creator},
		bson.M{"$set": bson.M{
			"title":     update.Title,
			"content":   update.Content,
			"imagePath": update.ImagePath,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, filter models.OwnerFilter) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(filter.ID)
	if err != nil {
		return 0, nil
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid, "creator": filter.Creator})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	doc := userDocument{
		ID:       primitive.NewObjectID(),
		Email:    strings.ToLower(strings.TrimSpace(user.Email)),
		Password: user.PasswordHash,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return doc.model(), nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return doc.model(), nil
}
