package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bookstore/apperror"
	"bookstore/logging"
	"bookstore/models"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []models.SessionRequest
	calls    atomic.Int32
	err      error
	block    bool
	delay    time.Duration
	status   string
}

func (f *fakeGateway) CreateSession(ctx context.Context, req models.SessionRequest) (models.SessionRef, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return models.SessionRef{}, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return models.SessionRef{}, f.err
	}
	id := fmt.Sprintf("cs_test_%d", n)
	return models.SessionRef{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (f *fakeGateway) GetStatus(ctx context.Context, sessionID string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.status, nil
}

func (f *fakeGateway) lastRequest(t *testing.T) models.SessionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type stubCarts struct {
	cart *models.Cart
	err  error
}

func (s stubCarts) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cart.Clone(), nil
}

func serverCart() *models.Cart {
	c := models.NewCart(models.DefaultCartID, time.Now())
	c.Items = []models.CartItem{
		{ProductID: 1, Title: "Ion", Author: "Liviu Rebreanu", Price: 19.99, Quantity: 2, ImageURL: "https://img.example/ion.jpg"},
		{ProductID: 2, Title: "Baltagul", Author: "Mihail Sadoveanu", Price: 25.5, Quantity: 1},
	}
	c.Recalculate()
	return c
}

func testConfig() Config {
	return Config{
		Currency:       "ron",
		ShippingName:   "Transport",
		ShippingFee:    1999,
		Timeout:        200 * time.Millisecond,
		IdempotencyTTL: time.Hour,
		PublicURL:      "https://shop.example",
	}
}

func newOrchestrator(gw Gateway, carts CartReader) *Orchestrator {
	return NewOrchestrator(gw, carts, NewMemoryIdempotency(), testConfig(), logging.Component(logging.Discard(), "checkout"))
}

func TestCreateSession_RejectsInvalidAmount(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})

	for _, amount := range []float64{0, 0.5, -10} {
		_, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: amount})
		assert.ErrorIs(t, err, apperror.ErrInvalidAmount)
	}
	assert.Zero(t, gw.calls.Load())
}

func TestCreateSession_PricesFromServerCart(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})

	s, err := o.CreateSession(context.Background(), CreateRequest{
		CartID: models.DefaultCartID,
		Amount: 1,
		ClientItems: []models.ClientCartItem{
			{ProductID: 1, Title: "Ion", Price: 0.01, Quantity: 2},
		},
		Origin:         "http://localhost:5173/",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.NotEmpty(t, s.URL)
	assert.Equal(t, 85.47, s.Amount)

	req := gw.lastRequest(t)
	require.Len(t, req.LineItems, 3)

	assert.Equal(t, models.LineItem{Name: "Ion", Description: "de Liviu Rebreanu", ImageURL: "https://img.example/ion.jpg", UnitAmount: 1999, Quantity: 2}, req.LineItems[0])
	assert.Equal(t, int64(2550), req.LineItems[1].UnitAmount)

	shipping := 0
	for _, li := range req.LineItems {
		if li.Name == "Transport" {
			shipping++
			assert.Equal(t, int64(1999), li.UnitAmount)
			assert.Equal(t, int64(1), li.Quantity)
			assert.Equal(t, ShippingDescription, li.Description)
		}
	}
	assert.Equal(t, 1, shipping)

	assert.Equal(t, "ron", req.Currency)
	assert.Equal(t, ModePayment, req.Mode)
	assert.Equal(t, []string{PaymentMethodCard}, req.PaymentMethods)
	assert.Equal(t, "http://localhost:5173/payment-success?session_id={CHECKOUT_SESSION_ID}&clear_cart=true", req.SuccessURL)
	assert.Equal(t, "http://localhost:5173/", req.CancelURL)
	assert.Equal(t, "book_store", req.Metadata["order_type"])
	assert.Equal(t, "key-1", req.IdempotencyKey)
}

func TestCreateSession_FallsBackToPublicURL(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})

	s, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, s.IdempotencyKey, "a key is generated when the caller sends none")

	req := gw.lastRequest(t)
	assert.Equal(t, "https://shop.example/", req.CancelURL)
	assert.Equal(t, s.IdempotencyKey, req.IdempotencyKey)
}

func TestCreateSession_EmptyCart(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, stubCarts{cart: models.NewCart(models.DefaultCartID, time.Now())})

	_, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: 50})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Zero(t, gw.calls.Load())
}

func TestCreateSession_CartReadFailure(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, stubCarts{err: apperror.ErrPersistence})

	_, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: 50})
	assert.ErrorIs(t, err, apperror.ErrPersistence)
}

func TestCreateSession_SameKeyReturnsSameSession(t *testing.T) {
	gw := &fakeGateway{}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})
	req := CreateRequest{CartID: models.DefaultCartID, Amount: 50, IdempotencyKey: "retry-me"}

	first, err := o.CreateSession(context.Background(), req)
	require.NoError(t, err)
	second, err := o.CreateSession(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), gw.calls.Load())

	req.IdempotencyKey = "another"
	third, err := o.CreateSession(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestCreateSession_ConcurrentSameKeyShareOneCall(t *testing.T) {
	gw := &fakeGateway{delay: 50 * time.Millisecond}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})
	req := CreateRequest{CartID: models.DefaultCartID, Amount: 50, IdempotencyKey: "double-click"}

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := o.CreateSession(context.Background(), req)
			if assert.NoError(t, err) {
				ids[i] = s.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), gw.calls.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCreateSession_GatewayFailureIsUpstream(t *testing.T) {
	gw := &fakeGateway{err: errors.New("card network down")}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})

	_, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: 50, IdempotencyKey: "k"})
	assert.ErrorIs(t, err, apperror.ErrUpstream)

	gw.err = nil
	s, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: 50, IdempotencyKey: "k"})
	require.NoError(t, err, "failures are not remembered under the key")
	assert.NotEmpty(t, s.ID)
}

func TestCreateSession_TimesOut(t *testing.T) {
	gw := &fakeGateway{block: true}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})

	start := time.Now()
	_, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: 50})
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCreateSession_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	gw := &fakeGateway{err: errors.New("503")}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})

	for i := 0; i < 5; i++ {
		_, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: 50})
		require.ErrorIs(t, err, apperror.ErrUpstream)
	}
	require.Equal(t, int32(5), gw.calls.Load())

	_, err := o.CreateSession(context.Background(), CreateRequest{CartID: models.DefaultCartID, Amount: 50})
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), gw.calls.Load(), "open breaker does not reach the gateway")
}

func TestSessionStatus(t *testing.T) {
	gw := &fakeGateway{status: "paid"}
	o := newOrchestrator(gw, stubCarts{cart: serverCart()})

	status, err := o.SessionStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "paid", status)

	_, err = o.SessionStatus(context.Background(), " ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	gw.err = errors.New("no such session")
	_, err = o.SessionStatus(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}
