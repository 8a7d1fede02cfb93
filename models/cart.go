package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCartID names the single shared cart document.
const DefaultCartID = "default"

type CartItem struct {
	ProductID int       `bson:"productId" json:"productId"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	Price     float64   `bson:"price" json:"price"`
	Title     string    `bson:"title" json:"title"`
	Author    string    `bson:"author" json:"author"`
	ImageURL  string    `bson:"imageUrl" json:"imageUrl"`
	AddedAt   time.Time `bson:"addedAt" json:"addedAt"`
}

type Cart struct {
	ID          string     `bson:"_id" json:"-"`
	Items       []CartItem `bson:"items" json:"items"`
	Total       float64    `bson:"total" json:"total"`
	TotalItems  int        `bson:"totalItems" json:"totalItems"`
	LastUpdated time.Time  `bson:"lastUpdated" json:"lastUpdated"`
	Version     int64      `bson:"version" json:"-"`
}

func NewCart(id string, now time.Time) *Cart {
	return &Cart{
		ID:          id,
		Items:       []CartItem{},
		LastUpdated: now,
	}
}

// Recalculate derives Total and TotalItems from the items. Totals are never patched
// incrementally.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	count := 0
	for _, it := range c.Items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
		count += it.Quantity
	}
	c.Total = total.InexactFloat64()
	c.TotalItems = count
}

func (c *Cart) IndexOf(productID int) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// QuantityOf reports how many units of productID the cart already holds.
func (c *Cart) QuantityOf(productID int) int {
	if i := c.IndexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = append(make([]CartItem, 0, len(c.Items)), c.Items...)
	return &out
}
