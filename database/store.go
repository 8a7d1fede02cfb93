package database

import (
	"context"
	"errors"
	"fmt"

	"bookstore/apperror"
	"bookstore/models"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicate       = errors.New("duplicate record")
)

// ProductStore holds the Products collection. Replace is a compare-and-swap on Version.
type ProductStore interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id int) (models.Product, error)
	Insert(ctx context.Context, p *models.Product) error
	Replace(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int) error
}

// CartStore holds cart documents. Save inserts when Version is zero and otherwise
// replaces only the stored document carrying the same Version.
type CartStore interface {
	Load(ctx context.Context, id string) (*models.Cart, error)
	Save(ctx context.Context, c *models.Cart) error
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Insert(ctx context.Context, u *models.User) error
}

// Store is the injected persistence handle. It is opened once and closed on shutdown.
type Store interface {
	Products() ProductStore
	Carts() CartStore
	Users() UserStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func persistErr(op string, err error) error {
	return pkgerrors.WithStack(fmt.Errorf("%w: %s: %w", apperror.ErrPersistence, op, err))
}
