package models

import (
	"strings"
	"time"
)

const (
	DefaultCategory = "General"
	DefaultImageURL = "/images/default-book.jpg"
	DefaultLanguage = "Romanian"
	DefaultFormat   = "Paperback"

	LowStockThreshold = 10
)

type Specifications struct {
	Pages     string `bson:"pages" json:"pages"`
	Language  string `bson:"language" json:"language"`
	Publisher string `bson:"publisher" json:"publisher"`
	Year      string `bson:"year" json:"year"`
	Format    string `bson:"format" json:"format"`
}

type Product struct {
	ID             int            `bson:"_id" json:"id"`
	Title          string         `bson:"title" json:"title"`
	Author         string         `bson:"author" json:"author"`
	ISBN           string         `bson:"isbn" json:"isbn"`
	Category       string         `bson:"category" json:"category"`
	Description    string         `bson:"description" json:"description"`
	ImageURL       string         `bson:"imageUrl" json:"imageUrl"`
	Price          float64        `bson:"price" json:"price"`
	DiscountPrice  *float64       `bson:"discountPrice,omitempty" json:"discountPrice"`
	Stock          int            `bson:"stock" json:"stock"`
	IsActive       bool           `bson:"isActive" json:"isActive"`
	Featured       bool           `bson:"featured" json:"featured"`
	Rating         *float64       `bson:"rating,omitempty" json:"rating"`
	ReviewCount    int            `bson:"reviewCount" json:"reviewCount"`
	Tags           []string       `bson:"tags" json:"tags"`
	Specifications Specifications `bson:"specifications" json:"specifications"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updatedAt" json:"updatedAt"`
	CreatedBy      string         `bson:"createdBy" json:"createdBy"`

	// Version is bumped by the store on every successful replace.
	Version int64 `bson:"version" json:"-"`
}

// EffectivePrice is the discount price when one is set, else the list price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

func (p *Product) Validate() []string {
	var problems []string
	if strings.TrimSpace(p.Title) == "" {
		problems = append(problems, "title must not be empty")
	}
	if strings.TrimSpace(p.Author) == "" {
		problems = append(problems, "author must not be empty")
	}
	if p.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if p.DiscountPrice != nil {
		if *p.DiscountPrice < 0 {
			problems = append(problems, "discountPrice must not be negative")
		}
		if *p.DiscountPrice > p.Price {
			problems = append(problems, "discountPrice must not exceed price")
		}
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		problems = append(problems, "rating must be between 0 and 5")
	}
	if p.ReviewCount < 0 {
		problems = append(problems, "reviewCount must not be negative")
	}
	return problems
}

func (p Product) Clone() Product {
	out := p
	if p.DiscountPrice != nil {
		v := *p.DiscountPrice
		out.DiscountPrice = &v
	}
	if p.Rating != nil {
		v := *p.Rating
		out.Rating = &v
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}
	return out
}
