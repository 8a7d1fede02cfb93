package controllers

import (
	"context"
	"net/http"
	"time"

	"bookstore/catalog"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	catalog *catalog.Service
	timeout time.Duration
}

func NewProductController(svc *catalog.Service, timeout time.Duration) *ProductController {
	return &ProductController{catalog: svc, timeout: timeout}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetProductsPublic lists active products filtered by category and search, optionally sorted.
func (pc *ProductController) GetProductsPublic(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	opts := catalog.Options{
		Scope:    catalog.ScopePublic,
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}
	res, err := pc.catalog.Query(ctx, opts)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"products": res.Products,
		"total":    res.Total,
		"filters": gin.H{
			"category": nullable(opts.Category),
			"search":   nullable(opts.Search),
			"sort":     nullable(opts.Sort),
		},
	})
}
