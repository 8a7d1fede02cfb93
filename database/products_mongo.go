package database

import (
	"context"
	"errors"

	"bookstore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const insertAttempts = 5

type mongoProducts struct {
	collection *mongo.Collection
}

func (m *mongoProducts) List(ctx context.Context) ([]models.Product, error) {
	cursor, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, persistErr("find products", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, persistErr("decode products", err)
	}
	return products, nil
}

func (m *mongoProducts) Get(ctx context.Context, id int) (models.Product, error) {
	var p models.Product
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, persistErr("find product", err)
	}
	return p, nil
}

// Insert assigns max(id)+1. A concurrent insert that wins the same id trips the _id
// uniqueness and the next attempt reads the new maximum.
func (m *mongoProducts) Insert(ctx context.Context, p *models.Product) error {
	for attempt := 0; attempt < insertAttempts; attempt++ {
		maxID, err := m.maxID(ctx)
		if err != nil {
			return err
		}
		p.ID = maxID + 1
		p.Version = 1

		_, err = m.collection.InsertOne(ctx, p)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return persistErr("insert product", err)
		}
	}
	return persistErr("insert product", ErrVersionConflict)
}

func (m *mongoProducts) maxID(ctx context.Context) (int, error) {
	var last models.Product
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"_id": 1})
	err := m.collection.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, persistErr("find max product id", err)
	}
	return last.ID, nil
}

func (m *mongoProducts) Replace(ctx context.Context, p *models.Product) error {
	next := p.Clone()
	next.Version = p.Version + 1

	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": p.ID, "version": p.Version}, next)
	if err != nil {
		return persistErr("replace product", err)
	}
	if res.MatchedCount == 0 {
		n, err := m.collection.CountDocuments(ctx, bson.M{"_id": p.ID})
		if err != nil {
			return persistErr("count product", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	p.Version = next.Version
	return nil
}

func (m *mongoProducts) Delete(ctx context.Context, id int) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistErr("delete product", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
