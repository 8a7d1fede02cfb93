package checkout

import (
	"context"
	"net/http"

	"bookstore/models"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeGateway struct {
	sc *client.API
}

// NewStripeGateway builds a Stripe client with its own retries turned off. Retrying is the
// caller's decision, made with the idempotency key.
func NewStripeGateway(secretKey string, httpClient *http.Client) *StripeGateway {
	backend := func(kind stripe.SupportedBackend) stripe.Backend {
		return stripe.GetBackendWithConfig(kind, &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		})
	}
	return NewStripeGatewayWithBackends(secretKey, &stripe.Backends{
		API:     backend(stripe.APIBackend),
		Connect: backend(stripe.ConnectBackend),
		Uploads: backend(stripe.UploadsBackend),
	})
}

func NewStripeGatewayWithBackends(secretKey string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{sc: client.New(secretKey, backends)}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req models.SessionRequest) (models.SessionRef, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice(req.PaymentMethods),
		Mode:               stripe.String(req.Mode),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	for _, li := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(li.Name),
			Description: stripe.String(li.Description),
		}
		if li.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{li.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return models.SessionRef{}, errors.Wrap(err, "stripe: create checkout session")
	}
	return models.SessionRef{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) GetStatus(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return "", errors.Wrapf(err, "stripe: retrieve checkout session %s", sessionID)
	}
	return string(s.PaymentStatus), nil
}
