package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"bookstore/apperror"
	"bookstore/database"
	"bookstore/locks"
	"bookstore/logging"
	"bookstore/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartID = models.DefaultCartID

type fixture struct {
	manager  *Manager
	store    *database.Memory
	products map[string]int
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := database.NewMemory()
	ctx := context.Background()

	discount := 19.99
	seed := []*models.Product{
		{Title: "Ion", Author: "Liviu Rebreanu", Price: 30, Stock: 5, IsActive: true, ImageURL: "/img/ion.jpg"},
		{Title: "Baltagul", Author: "Mihail Sadoveanu", Price: 25, DiscountPrice: &discount, Stock: 10, IsActive: true},
		{Title: "Last copy", Author: "Someone", Price: 12, Stock: 1, IsActive: true},
		{Title: "Retired", Author: "Someone", Price: 9, Stock: 4, IsActive: false},
	}
	byTitle := map[string]int{}
	for _, p := range seed {
		require.NoError(t, store.Products().Insert(ctx, p))
		byTitle[p.Title] = p.ID
	}

	m := NewManager(store.Carts(), store.Products(), locks.NewKeyed(), logging.Component(logging.Discard(), "cart"))
	return &fixture{manager: m, store: store, products: byTitle}
}

func assertTotals(t *testing.T, c *models.Cart) {
	t.Helper()
	var total float64
	var count int
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
		count += it.Quantity
	}
	assert.InDelta(t, total, c.Total, 1e-9)
	assert.Equal(t, count, c.TotalItems)
}

func TestGet_EmptyDefault(t *testing.T) {
	f := setup(t)

	c, err := f.manager.Get(context.Background(), cartID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.NotNil(t, c.Items)
	assert.Zero(t, c.Total)
	assert.Zero(t, c.TotalItems)
}

func TestAddItem_SnapshotsEffectivePrice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.manager.AddItem(ctx, cartID, f.products["Baltagul"], 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 19.99, c.Items[0].Price)
	assert.Equal(t, "Mihail Sadoveanu", c.Items[0].Author)
	assert.Equal(t, 39.98, c.Total)
	assertTotals(t, c)

	c, err = f.manager.AddItem(ctx, cartID, f.products["Ion"], 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, f.products["Ion"], c.Items[1].ProductID, "items keep insertion order")
	assert.Equal(t, 3, c.TotalItems)
	assertTotals(t, c)
}

func TestAddItem_IncrementKeepsOriginalPrice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.products["Ion"]

	_, err := f.manager.AddItem(ctx, cartID, id, 1)
	require.NoError(t, err)

	p, err := f.store.Products().Get(ctx, id)
	require.NoError(t, err)
	p.Price = 99
	require.NoError(t, f.store.Products().Replace(ctx, &p))

	c, err := f.manager.AddItem(ctx, cartID, id, 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 30.0, c.Items[0].Price)
	assert.Equal(t, 90.0, c.Total)
}

func TestAddItem_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.manager.AddItem(ctx, cartID, 999, 1)
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)

	_, err = f.manager.AddItem(ctx, cartID, f.products["Retired"], 1)
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)

	_, err = f.manager.AddItem(ctx, cartID, f.products["Ion"], 6)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	_, err = f.manager.AddItem(ctx, cartID, f.products["Ion"], 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	c, err := f.manager.Get(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestAddItem_HeldQuantityCountsAgainstStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.products["Ion"]

	_, err := f.manager.AddItem(ctx, cartID, id, 4)
	require.NoError(t, err)

	_, err = f.manager.AddItem(ctx, cartID, id, 2)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	c, err := f.manager.AddItem(ctx, cartID, id, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestAddItem_HugeQuantityDoesNotWrapStockCheck(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.products["Ion"]

	_, err := f.manager.AddItem(ctx, cartID, id, 1)
	require.NoError(t, err)

	_, err = f.manager.AddItem(ctx, cartID, id, math.MaxInt)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	c, err := f.manager.Get(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assertTotals(t, c)
}

func TestAddItem_ConcurrentLastCopy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.products["Last copy"]

	const n = 50
	var ok, short atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.AddItem(ctx, cartID, id, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperror.ErrInsufficientStock):
				short.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(n-1), short.Load())

	c, err := f.manager.Get(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.manager.AddItem(ctx, cartID, f.products["Ion"], 2)
	require.NoError(t, err)
	before, err := f.manager.AddItem(ctx, cartID, f.products["Baltagul"], 1)
	require.NoError(t, err)

	after, err := f.manager.RemoveItem(ctx, cartID, 12345)
	require.NoError(t, err)
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.Total, after.Total)

	after, err = f.manager.RemoveItem(ctx, cartID, f.products["Ion"])
	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Equal(t, f.products["Baltagul"], after.Items[0].ProductID)
	assertTotals(t, after)

	empty, err := f.manager.RemoveItem(context.Background(), "never-saved", 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestClear_ThenGetIsZeroed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.manager.AddItem(ctx, cartID, f.products["Ion"], 3)
	require.NoError(t, err)

	_, err = f.manager.Clear(ctx, cartID)
	require.NoError(t, err)

	c, err := f.manager.Get(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{}, c.Items)
	assert.Zero(t, c.Total)
	assert.Zero(t, c.TotalItems)
}

type failingCarts struct {
	database.CartStore
	err error
}

func (f *failingCarts) Save(ctx context.Context, c *models.Cart) error { return f.err }

func TestMutation_PersistenceFailureLeavesCartUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.manager.AddItem(ctx, cartID, f.products["Ion"], 1)
	require.NoError(t, err)

	broken := NewManager(
		&failingCarts{CartStore: f.store.Carts(), err: fmt.Errorf("%w: disk full", apperror.ErrPersistence)},
		f.store.Products(), locks.NewKeyed(), logging.Component(logging.Discard(), "cart"),
	)
	_, err = broken.AddItem(ctx, cartID, f.products["Baltagul"], 1)
	assert.ErrorIs(t, err, apperror.ErrPersistence)
	_, err = broken.Clear(ctx, cartID)
	assert.ErrorIs(t, err, apperror.ErrPersistence)

	c, err := f.manager.Get(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 30.0, c.Total)
}

func TestMutation_ConflictsExhaustRetries(t *testing.T) {
	f := setup(t)
	conflicting := &failingCarts{CartStore: f.store.Carts(), err: database.ErrVersionConflict}
	m := NewManager(conflicting, f.store.Products(), locks.NewKeyed(), logging.Component(logging.Discard(), "cart"))

	_, err := m.AddItem(context.Background(), cartID, f.products["Ion"], 1)
	assert.ErrorIs(t, err, apperror.ErrPersistence)
}
