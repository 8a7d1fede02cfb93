package database

import (
	"context"
	"errors"

	"bookstore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCarts struct {
	collection *mongo.Collection
}

func (m *mongoCarts) Load(ctx context.Context, id string) (*models.Cart, error) {
	var c models.Cart
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistErr("find cart", err)
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return &c, nil
}

// Save replaces the whole document in one operation, so a failed write leaves the stored
// cart exactly as it was.
func (m *mongoCarts) Save(ctx context.Context, c *models.Cart) error {
	next := c.Clone()
	next.Version = c.Version + 1

	if c.Version == 0 {
		_, err := m.collection.InsertOne(ctx, next)
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		if err != nil {
			return persistErr("insert cart", err)
		}
		c.Version = next.Version
		return nil
	}

	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": c.ID, "version": c.Version}, next)
	if err != nil {
		return persistErr("replace cart", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	c.Version = next.Version
	return nil
}
