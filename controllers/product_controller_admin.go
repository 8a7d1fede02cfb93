package controllers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"bookstore/catalog"
	"bookstore/middleware"

	"github.com/gin-gonic/gin"
)

func (pc *ProductController) GetProductsAdmin(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	opts := catalog.Options{
		Scope:     catalog.ScopeAdmin,
		Status:    c.Query("status"),
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      page,
		Limit:     limit,
	}

	res, err := pc.catalog.Query(ctx, opts)
	if err != nil {
		fail(c, err)
		return
	}

	applied := res.Applied
	category := applied.Category
	if category == "" {
		category = catalog.StatusAll
	}
	respond(c, http.StatusOK, gin.H{
		"products":   res.Products,
		"pagination": res.Pagination,
		"statistics": res.Statistics,
		"filters":    gin.H{
			"category":  category,
			"search":    applied.Search,
			"status":    applied.Status,
			"sortBy":    applied.SortBy,
			"sortOrder": applied.SortOrder,
		},
	})
}

func (pc *ProductController) GetProductAdmin(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.catalog.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product})
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var input catalog.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, badBody(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	var createdBy string
	if claims := middleware.ClaimsFrom(c); claims != nil {
		createdBy = claims.ID
	}
	product, err := pc.catalog.Create(ctx, input, createdBy)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Product created", "product": product})
}

// UpdateProduct merges the allow-listed fields of the body into the product. Unknown fields
// are rejected.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, badBody(err))
		return
	}
	update, err := catalog.DecodeUpdate(body)
	if err != nil {
		fail(c, badBody(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.catalog.Update(ctx, id, update)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product updated", "product": product})
}

// DeleteProduct deactivates the product, or removes it for good with ?permanent=true.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	permanent, _ := strconv.ParseBool(c.Query("permanent"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	if err := pc.catalog.Delete(ctx, id, permanent); err != nil {
		fail(c, err)
		return
	}
	message := "Product deactivated"
	if permanent {
		message = "Product deleted"
	}
	respond(c, http.StatusOK, gin.H{"message": message})
}
