// Package cart owns the cart aggregate. Every mutation is a single read-validate-write under
// the cart lock; totals are recomputed from the items before each save.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore/apperror"
	"bookstore/database"
	"bookstore/locks"
	"bookstore/models"

	log "github.com/sirupsen/logrus"
)

type Manager struct {
	carts    database.CartStore
	products database.ProductStore
	locks    *locks.Keyed
	log      *log.Entry
	now      func() time.Time
}

func NewManager(carts database.CartStore, products database.ProductStore, lk *locks.Keyed, logger *log.Entry) *Manager {
	return &Manager{
		carts:    carts,
		products: products,
		locks:    lk,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the stored cart, or an empty one when nothing has been saved yet.
func (m *Manager) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	return m.load(ctx, cartID)
}

// AddItem adds quantity units of an active product. Units already in the cart count against
// stock, so the cart never holds more of a product than is available. Adding a product that
// is already present increments its line and keeps the price captured on the first add.
func (m *Manager) AddItem(ctx context.Context, cartID string, productID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperror.Validation("Quantity must be at least 1")
	}

	unlockCart := m.locks.Lock(locks.CartKey(cartID))
	defer unlockCart()
	unlockProduct := m.locks.Lock(locks.ProductKey(productID))
	defer unlockProduct()

	return m.mutate(ctx, cartID, func(c *models.Cart) error {
		p, err := m.products.Get(ctx, productID)
		if errors.Is(err, database.ErrNotFound) || (err == nil && !p.IsActive) {
			return apperror.ErrProductNotFound
		}
		if err != nil {
			return err
		}

		held := c.QuantityOf(productID)
		if quantity > p.Stock-held {
			return fmt.Errorf("%w: product %d has %d in stock, %d already in cart",
				apperror.ErrInsufficientStock, productID, p.Stock, held)
		}

		if i := c.IndexOf(productID); i >= 0 {
			c.Items[i].Quantity += quantity
			return nil
		}
		c.Items = append(c.Items, models.CartItem{
			ProductID: p.ID,
			Quantity:  quantity,
			Price:     p.EffectivePrice(),
			Title:     p.Title,
			Author:    p.Author,
			ImageURL:  p.ImageURL,
			AddedAt:   m.now(),
		})
		return nil
	})
}

// RemoveItem drops the line for productID. Removing a product that is not in the cart
// succeeds and leaves the items unchanged.
func (m *Manager) RemoveItem(ctx context.Context, cartID string, productID int) (*models.Cart, error) {
	unlock := m.locks.Lock(locks.CartKey(cartID))
	defer unlock()

	return m.mutate(ctx, cartID, func(c *models.Cart) error {
		kept := c.Items[:0]
		for _, it := range c.Items {
			if it.ProductID != productID {
				kept = append(kept, it)
			}
		}
		c.Items = kept
		return nil
	})
}

func (m *Manager) Clear(ctx context.Context, cartID string) (*models.Cart, error) {
	unlock := m.locks.Lock(locks.CartKey(cartID))
	defer unlock()

	return m.mutate(ctx, cartID, func(c *models.Cart) error {
		c.Items = []models.CartItem{}
		return nil
	})
}

// mutate loads the cart, applies fn, recomputes totals and saves. A version conflict from
// another process reruns the whole sequence on a fresh read.
func (m *Manager) mutate(ctx context.Context, cartID string, fn func(*models.Cart) error) (*models.Cart, error) {
	var saved *models.Cart
	err := database.RetryOnConflict(ctx, func() error {
		c, err := m.load(ctx, cartID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		c.Recalculate()
		c.LastUpdated = m.now()
		if err := m.carts.Save(ctx, c); err != nil {
			return err
		}
		saved = c
		return nil
	})
	if err != nil {
		m.log.WithError(err).WithField("cartId", cartID).Debug("cart mutation rejected")
		return nil, err
	}
	m.log.WithFields(log.Fields{"cartId": cartID, "totalItems": saved.TotalItems}).Debug("cart saved")
	return saved, nil
}

func (m *Manager) load(ctx context.Context, cartID string) (*models.Cart, error) {
	c, err := m.carts.Load(ctx, cartID)
	if errors.Is(err, database.ErrNotFound) {
		return models.NewCart(cartID, m.now()), nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
