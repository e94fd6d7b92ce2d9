package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/authgate/authgate/domain"
	"github.com/authgate/authgate/repository"
)

// UserRepository reads user documents. Documents may have any shape;
// everything except _id is exposed through the dynamic Fields map.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) FindByField(ctx context.Context, field, value string) (*domain.User, error) {
	coll, err := r.store.users()
	if err != nil {
		return nil, err
	}
	return findUser(ctx, coll, bson.M{field: value})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	coll, err := r.store.users()
	if err != nil {
		return nil, err
	}
	return findUser(ctx, coll, bson.M{"_id": idFilter(id)})
}

func findUser(ctx context.Context, coll *mongo.Collection, filter bson.M) (*domain.User, error) {
	var doc bson.M
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return userFromDocument(doc), nil
}

// idFilter matches _id stored either as an ObjectID or a plain string.
func idFilter(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func userFromDocument(doc bson.M) *domain.User {
	user := &domain.User{Fields: make(map[string]any, len(doc))}
	for k, v := range doc {
		if k == "_id" {
			switch id := v.(type) {
			case primitive.ObjectID:
				user.ID = id.Hex()
			case string:
				user.ID = id
			default:
				user.ID = fmt.Sprint(id)
			}
			continue
		}
		user.Fields[k] = v
	}
	return user
}
