package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/authgate/authgate/domain"
	"github.com/authgate/authgate/repository"
)

// TokenRepository persists access tokens in the tokens collection.
type TokenRepository struct {
	store *Store
}

type tokenDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Token     string    `bson:"accessToken"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (r *TokenRepository) Insert(ctx context.Context, token *domain.AccessToken) (*domain.AccessToken, error) {
	coll, err := r.store.tokens()
	if err != nil {
		return nil, err
	}
	doc := tokenDocument{
		ID:        token.ID,
		UserID:    token.UserID,
		Token:     token.Token,
		CreatedAt: token.CreatedAt,
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	stored := *token
	return &stored, nil
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	coll, err := r.store.tokens()
	if err != nil {
		return nil, err
	}
	var doc tokenDocument
	if err := coll.FindOne(ctx, bson.M{"accessToken": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &domain.AccessToken{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Token:     doc.Token,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (r *TokenRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	coll, err := r.store.tokens()
	if err != nil {
		return 0, err
	}
	count, err := coll.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return count, nil
}

func (r *TokenRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	coll, err := r.store.tokens()
	if err != nil {
		return 0, err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete token: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	coll, err := r.store.tokens()
	if err != nil {
		return 0, err
	}
	res, err := coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("delete tokens: %w", err)
	}
	return res.DeletedCount, nil
}
