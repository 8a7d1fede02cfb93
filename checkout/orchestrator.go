// Package checkout turns the server-held cart into a payment gateway session and reads the
// session's payment status back.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookstore/apperror"
	"bookstore/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const (
	ModePayment       = "payment"
	PaymentMethodCard = "card"

	ShippingDescription = "Cost livrare"
)

type Config struct {
	Currency       string
	ShippingName   string
	ShippingFee    int64
	Timeout        time.Duration
	IdempotencyTTL time.Duration
	PublicURL      string
}

// CartReader is the slice of the cart manager checkout depends on.
type CartReader interface {
	Get(ctx context.Context, cartID string) (*models.Cart, error)
}

type CreateRequest struct {
	CartID         string
	Amount         float64
	ClientItems    []models.ClientCartItem
	Origin         string
	IdempotencyKey string
}

type Orchestrator struct {
	gateway  Gateway
	carts    CartReader
	store    IdempotencyStore
	createCB *gobreaker.CircuitBreaker[models.SessionRef]
	statusCB *gobreaker.CircuitBreaker[string]
	inflight singleflight.Group
	cfg      Config
	log      *log.Entry
}

func NewOrchestrator(gateway Gateway, carts CartReader, store IdempotencyStore, cfg Config, logger *log.Entry) *Orchestrator {
	return &Orchestrator{
		gateway:  gateway,
		carts:    carts,
		store:    store,
		createCB: gobreaker.NewCircuitBreaker[models.SessionRef](breakerSettings("gateway-create", logger)),
		statusCB: gobreaker.NewCircuitBreaker[string](breakerSettings("gateway-status", logger)),
		cfg:      cfg,
		log:      logger,
	}
}

func breakerSettings(name string, logger *log.Entry) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	}
}

// CreateSession prices the server cart and opens a gateway session for it. The client's items
// are compared against the cart for logging only. Requests sharing an idempotency key get the
// same session, and concurrent ones share a single gateway call.
func (o *Orchestrator) CreateSession(ctx context.Context, req CreateRequest) (*models.CheckoutSession, error) {
	if !(req.Amount >= 1) {
		return nil, apperror.ErrInvalidAmount
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}

	if s, ok := o.remembered(ctx, key); ok {
		return s, nil
	}

	v, err, shared := o.inflight.Do(key, func() (any, error) {
		if s, ok := o.remembered(ctx, key); ok {
			return s, nil
		}
		return o.createSession(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		o.log.WithField("idempotencyKey", key).Debug("checkout request joined an in-flight session creation")
	}
	return v.(*models.CheckoutSession), nil
}

func (o *Orchestrator) remembered(ctx context.Context, key string) (*models.CheckoutSession, bool) {
	s, ok, err := o.store.Get(ctx, key)
	if err != nil {
		o.log.WithError(err).Warn("idempotency lookup failed")
		return nil, false
	}
	return s, ok
}

func (o *Orchestrator) createSession(ctx context.Context, req CreateRequest, key string) (*models.CheckoutSession, error) {
	cart, err := o.carts.Get(ctx, req.CartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperror.Validation("Cart is empty")
	}
	o.compareClientItems(cart, req)

	lineItems, amount := o.lineItems(cart)
	origin := strings.TrimRight(firstNonEmpty(req.Origin, o.cfg.PublicURL), "/")
	sreq := models.SessionRequest{
		Currency:       o.cfg.Currency,
		Mode:           ModePayment,
		PaymentMethods: []string{PaymentMethodCard},
		LineItems:      lineItems,
		SuccessURL:     origin + "/payment-success?session_id={CHECKOUT_SESSION_ID}&clear_cart=true",
		CancelURL:      origin + "/",
		Metadata:       map[string]string{"order_type": "book_store"},
		IdempotencyKey: key,
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()
	ref, err := o.createCB.Execute(func() (models.SessionRef, error) {
		return o.gateway.CreateSession(callCtx, sreq)
	})
	if err != nil {
		o.log.WithError(err).WithField("idempotencyKey", key).Error("gateway session creation failed")
		return nil, fmt.Errorf("%w: %w", apperror.ErrUpstream, err)
	}

	s := &models.CheckoutSession{
		SessionRef:     ref,
		Amount:         amount,
		LineItems:      lineItems,
		IdempotencyKey: key,
	}
	if err := o.store.Put(ctx, key, s, o.cfg.IdempotencyTTL); err != nil {
		o.log.WithError(err).WithField("sessionId", ref.ID).Warn("could not remember checkout session")
	}
	o.log.WithFields(log.Fields{"sessionId": ref.ID, "amount": amount, "items": len(cart.Items)}).Info("checkout session created")
	return s, nil
}

// lineItems builds one line per cart item plus the shipping line, and returns the charged
// amount in major units.
func (o *Orchestrator) lineItems(cart *models.Cart) ([]models.LineItem, float64) {
	hundred := decimal.NewFromInt(100)
	items := make([]models.LineItem, 0, len(cart.Items)+1)
	var minor int64
	for _, it := range cart.Items {
		unit := decimal.NewFromFloat(it.Price).Mul(hundred).Round(0).IntPart()
		items = append(items, models.LineItem{
			Name:        it.Title,
			Description: "de " + it.Author,
			ImageURL:    it.ImageURL,
			UnitAmount:  unit,
			Quantity:    int64(it.Quantity),
		})
		minor += unit * int64(it.Quantity)
	}
	items = append(items, models.LineItem{
		Name:        o.cfg.ShippingName,
		Description: ShippingDescription,
		UnitAmount:  o.cfg.ShippingFee,
		Quantity:    1,
	})
	minor += o.cfg.ShippingFee
	return items, decimal.New(minor, -2).InexactFloat64()
}

func (o *Orchestrator) compareClientItems(cart *models.Cart, req CreateRequest) {
	mismatch := len(req.ClientItems) != len(cart.Items)
	for _, ci := range req.ClientItems {
		i := cart.IndexOf(ci.ProductID)
		if i < 0 || cart.Items[i].Quantity != ci.Quantity || cart.Items[i].Price != ci.Price {
			mismatch = true
			break
		}
	}
	if mismatch {
		o.log.WithFields(log.Fields{
			"cartId":       req.CartID,
			"clientItems":  len(req.ClientItems),
			"cartItems":    len(cart.Items),
			"clientAmount": req.Amount,
		}).Warn("client cart differs from server cart, pricing from server cart")
	}
}

// SessionStatus reads the payment status of a session from the gateway. Failures are not
// retried.
func (o *Orchestrator) SessionStatus(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", apperror.Validation("Session id is required")
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()
	status, err := o.statusCB.Execute(func() (string, error) {
		return o.gateway.GetStatus(callCtx, sessionID)
	})
	if err != nil {
		o.log.WithError(err).WithField("sessionId", sessionID).Error("gateway status lookup failed")
		return "", fmt.Errorf("%w: %w", apperror.ErrUpstream, err)
	}
	return status, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
