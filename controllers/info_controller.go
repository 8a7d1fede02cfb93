package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	APIName    = "BookStore API"
	APIVersion = "1.0.0"
)

// Pinger is satisfied by the persistence store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type InfoController struct {
	store   Pinger
	timeout time.Duration
}

func NewInfoController(store Pinger, timeout time.Duration) *InfoController {
	return &InfoController{store: store, timeout: timeout}
}

func (ic *InfoController) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   APIName,
		"version":   APIVersion,
		"endpoints": gin.H{
			"GET /api/products":                        "Active catalog, filter with category, search and sort",
			"GET /api/cart":                            "Current cart",
			"POST /api/cart":                           "Add a product to the cart",
			"DELETE /api/cart/:productId":              "Remove a product from the cart",
			"POST /api/clear-cart":                     "Empty the cart",
			"POST /api/create-checkout-session":        "Open a payment session for the cart",
			"GET /api/check-payment-status/:sessionId": "Payment status of a session",
			"POST /api/admin/login":                    "Admin login",
			"GET /api/admin/products":                  "Admin catalog with pagination and statistics",
		},
	})
}

func (ic *InfoController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ic.timeout)
	defer cancel()

	if err := ic.store.Ping(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}
