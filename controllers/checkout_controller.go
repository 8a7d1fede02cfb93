package controllers

import (
	"context"
	"net/http"
	"time"

	"bookstore/checkout"
	"bookstore/models"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CheckoutController struct {
	checkout *checkout.Orchestrator
	timeout  time.Duration
}

func NewCheckoutController(o *checkout.Orchestrator, timeout time.Duration) *CheckoutController {
	return &CheckoutController{checkout: o, timeout: timeout}
}

// CreateCheckoutSession opens a payment session for the server cart. The posted cartItems are
// only compared against it.
func (cc *CheckoutController) CreateCheckoutSession(c *gin.Context) {
	var body struct {
		Amount    float64                 `json:"amount"`
		CartItems []models.ClientCartItem `json:"cartItems"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, badBody(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.timeout)
	defer cancel()

	session, err := cc.checkout.CreateSession(ctx, checkout.CreateRequest{
		CartID:         models.DefaultCartID,
		Amount:         body.Amount,
		ClientItems:    body.CartItems,
		Origin:         c.GetHeader("Origin"),
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Header(IdempotencyKeyHeader, session.IdempotencyKey)
	respond(c, http.StatusOK, gin.H{"sessionId": session.ID, "sessionUrl": session.URL})
}

func (cc *CheckoutController) CheckPaymentStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.timeout)
	defer cancel()

	status, err := cc.checkout.SessionStatus(ctx, c.Param("sessionId"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"paymentStatus": status})
}
