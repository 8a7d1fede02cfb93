package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProductCollection = "products"
	CartCollection    = "carts"
	UserCollection    = "users"
)

type Mongo struct {
	client *mongo.Client
	db     *mongo.Database

	products *mongoProducts
	carts    *mongoCarts
	users    *mongoUsers
}

func ConnectMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	if uri == "" || dbName == "" {
		return nil, errors.New("mongo uri and database name are required")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}

	return newMongo(client, client.Database(dbName)), nil
}

func newMongo(client *mongo.Client, db *mongo.Database) *Mongo {
	return &Mongo{
		client:   client,
		db:       db,
		products: &mongoProducts{collection: db.Collection(ProductCollection)},
		carts:    &mongoCarts{collection: db.Collection(CartCollection)},
		users:    &mongoUsers{collection: db.Collection(UserCollection)},
	}
}

func (m *Mongo) Products() ProductStore { return m.products }
func (m *Mongo) Carts() CartStore       { return m.carts }
func (m *Mongo) Users() UserStore       { return m.users }

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique email index used to reject duplicate users.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(UserCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "create users.email index")
	}
	return nil
}
