package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookden/library-app/backend/internal/models"
)

// BookStore handles catalog CRUD in MongoDB. Lookups return (nil, nil)
// when the book does not exist; a malformed id counts as not found.
type BookStore struct {
	col *mongo.Collection
}

func NewBookStore(db *mongo.Database) *BookStore {
	return &BookStore{col: db.Collection("books")}
}

func (s *BookStore) GetBook(ctx context.Context, id string) (*models.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var b models.Book
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo find book: %w", err)
	}
	return &b, nil
}

func (s *BookStore) InsertBook(ctx context.Context, b *models.Book) (string, error) {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, b)
	if err != nil {
		return "", fmt.Errorf("mongo insert book: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	b.ID = oid
	return oid.Hex(), nil
}

func (s *BookStore) UpdateBook(ctx context.Context, b *models.Book) error {
	b.UpdatedAt = time.Now()
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return fmt.Errorf("mongo update book: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo update book: no document matched %s", b.ID.Hex())
	}
	return nil
}

func (s *BookStore) DeleteBook(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.col.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (s *BookStore) ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	filter, err := buildBookFilter(f)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list books: %w", err)
	}
	defer cur.Close(ctx)

	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// buildBookFilter translates the optional query filters into a bson
// filter: exact genre, case-insensitive substring author, exact
// publication date, and a title-or-author search term.
func buildBookFilter(f models.BookFilter) (bson.M, error) {
	filter := bson.M{}

	if f.Genre != "" {
		filter["genre"] = f.Genre
	}
	if f.Author != "" {
		filter["author"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Author), Options: "i"}
	}
	if f.PublicationDate != "" {
		date, err := models.ParseDate(f.PublicationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid publicationDate filter: %w", err)
		}
		filter["publication_date"] = date
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"author": re},
		}
	}

	return filter, nil
}

// DecrementAvailable takes one copy off the shelf. The filter requires
// available_copies > 0, so the count can never go negative even under
// concurrent borrows; (nil, nil) means no copy was available.
func (s *BookStore) DecrementAvailable(ctx context.Context, id string) (*models.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Book
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "available_copies": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"available_copies": -1},
			"$set": bson.M{"updated_at": time.Now()},
		},
		opts,
	).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo decrement copies: %w", err)
	}
	return &b, nil
}

// IncrementAvailable puts one copy back; (nil, nil) means the book no
// longer exists.
func (s *BookStore) IncrementAvailable(ctx context.Context, id string) (*models.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Book
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$inc": bson.M{"available_copies": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
		opts,
	).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo increment copies: %w", err)
	}
	return &b, nil
}

// SetCover records the stored cover object key and the serving URI.
func (s *BookStore) SetCover(ctx context.Context, id, coverKey, imageURI string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"cover_key":  coverKey,
			"image":      imageURI,
			"updated_at": time.Now(),
		},
	})
	return err
}
