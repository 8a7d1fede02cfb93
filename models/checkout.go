package models

// LineItem is one priced, quantified entry submitted to the payment gateway.
// UnitAmount is expressed in minor currency units.
type LineItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
	UnitAmount  int64  `json:"unitAmount"`
	Quantity    int64  `json:"quantity"`
}

type SessionRequest struct {
	Currency       string            `json:"currency"`
	Mode           string            `json:"mode"`
	PaymentMethods []string          `json:"paymentMethods"`
	LineItems      []LineItem        `json:"lineItems"`
	SuccessURL     string            `json:"successUrl"`
	CancelURL      string            `json:"cancelUrl"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"-"`
}

type SessionRef struct {
	ID  string `json:"sessionId"`
	URL string `json:"sessionUrl"`
}

// ClientCartItem is what the web client sends along with a checkout request. It is a
// reference only and never priced.
type ClientCartItem struct {
	ProductID int     `json:"productId"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl"`
}

// CheckoutSession is what this system retains about a gateway session.
type CheckoutSession struct {
	SessionRef
	Amount         float64    `json:"amount"`
	LineItems      []LineItem `json:"lineItems"`
	IdempotencyKey string     `json:"idempotencyKey"`
}
