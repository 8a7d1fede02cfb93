package controllers

import (
	"context"
	"net/http"
	"time"

	"bookstore/apperror"
	"bookstore/cart"
	"bookstore/models"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	cart    *cart.Manager
	timeout time.Duration
}

func NewCartController(m *cart.Manager, timeout time.Duration) *CartController {
	return &CartController{cart: m, timeout: timeout}
}

func (cc *CartController) GetCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.timeout)
	defer cancel()

	current, err := cc.cart.Get(ctx, models.DefaultCartID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": current})
}

func (cc *CartController) AddToCart(c *gin.Context) {
	var body struct {
		ProductID *int `json:"productId"`
		Quantity  *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, badBody(err))
		return
	}
	if body.ProductID == nil {
		fail(c, apperror.Validation("Product id is required"))
		return
	}
	quantity := 1
	if body.Quantity != nil {
		quantity = *body.Quantity
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.timeout)
	defer cancel()

	updated, err := cc.cart.AddItem(ctx, models.DefaultCartID, *body.ProductID, quantity)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product added to cart", "cart": updated})
}

func (cc *CartController) RemoveFromCart(c *gin.Context) {
	productID, err := intParam(c, "productId")
	if err != nil {
		fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.timeout)
	defer cancel()

	updated, err := cc.cart.RemoveItem(ctx, models.DefaultCartID, productID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product removed from cart", "cart": updated})
}

func (cc *CartController) ClearCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.timeout)
	defer cancel()

	cleared, err := cc.cart.Clear(ctx, models.DefaultCartID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Cart cleared", "cart": cleared})
}
