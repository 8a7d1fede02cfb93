// Package catalog filters, sorts and pages the product catalog, and owns the admin
// mutations on single products.
package catalog

import (
	"sort"
	"strings"

	"bookstore/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Scope int

const (
	ScopePublic Scope = iota
	ScopeAdmin
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusAll      = "all"

	DefaultPage      = 1
	DefaultLimit     = 50
	DefaultSortBy    = "createdAt"
	DefaultSortOrder = "desc"
)

// Public sort keys.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortTitleAsc  = "title_asc"
	SortTitleDesc = "title_desc"
)

// Options is the recognized filter set. Public queries read Category, Search and Sort and
// always drop inactive products. Admin queries read every field except Sort.
type Options struct {
	Scope     Scope
	Status    string
	Category  string
	Search    string
	Sort      string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalProducts   int  `json:"totalProducts"`
	ProductsPerPage int  `json:"productsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPrevPage     bool `json:"hasPrevPage"`
}

type Statistics struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Inactive   int `json:"inactive"`
	LowStock   int `json:"lowStock"`
	OutOfStock int `json:"outOfStock"`
}

// Result holds the page of products. Pagination and Statistics are only set for admin queries.
type Result struct {
	Products   []models.Product
	Total      int
	Pagination *Pagination
	Statistics *Statistics

	// Applied is the normalized option set the products were selected with.
	Applied Options
}

// Engine is a pure pipeline over a product slice: status, category, search, sort, page.
type Engine struct {
	tag language.Tag
}

func NewEngine(locale string) *Engine {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Romanian
	}
	return &Engine{tag: tag}
}

// Normalize fills defaults for admin paging and sorting. Malformed values fall back to the
// defaults rather than failing.
func (o Options) Normalize() Options {
	if o.Scope != ScopeAdmin {
		return o
	}
	switch o.Status {
	case StatusActive, StatusInactive:
	default:
		o.Status = StatusAll
	}
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	if o.SortBy == "" {
		o.SortBy = DefaultSortBy
	}
	if o.SortOrder != "asc" {
		o.SortOrder = DefaultSortOrder
	}
	return o
}

func (e *Engine) Query(products []models.Product, opts Options) Result {
	opts = opts.Normalize()
	// A Collator keeps scratch buffers and must not be shared across goroutines.
	col := collate.New(e.tag)

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if matchStatus(p, opts) && matchCategory(p, opts) && matchSearch(p, opts) {
			out = append(out, p)
		}
	}

	if opts.Scope == ScopePublic {
		sortPublic(out, opts.Sort, col)
		return Result{Products: out, Total: len(out), Applied: opts}
	}

	sortAdmin(out, opts.SortBy, opts.SortOrder == "asc", col)
	stats := statistics(out)
	page, pagination := paginate(out, opts.Page, opts.Limit)
	return Result{
		Products:   page,
		Total:      len(out),
		Pagination: &pagination,
		Statistics: &stats,
		Applied:    opts,
	}
}

func matchStatus(p models.Product, opts Options) bool {
	if opts.Scope == ScopePublic {
		return p.IsActive
	}
	switch opts.Status {
	case StatusActive:
		return p.IsActive
	case StatusInactive:
		return !p.IsActive
	}
	return true
}

// Public category is an exact case-insensitive match, admin category a case-insensitive
// substring match.
func matchCategory(p models.Product, opts Options) bool {
	if opts.Category == "" {
		return true
	}
	if opts.Scope == ScopePublic {
		return strings.ToLower(p.Category) == strings.ToLower(opts.Category)
	}
	if opts.Category == StatusAll {
		return true
	}
	return strings.Contains(strings.ToLower(p.Category), strings.ToLower(opts.Category))
}

func matchSearch(p models.Product, opts Options) bool {
	if opts.Search == "" {
		return true
	}
	keyword := strings.ToLower(opts.Search)
	if strings.Contains(strings.ToLower(p.Title), keyword) || strings.Contains(strings.ToLower(p.Author), keyword) {
		return true
	}
	return opts.Scope == ScopeAdmin && p.ISBN != "" && strings.Contains(p.ISBN, opts.Search)
}

func sortPublic(products []models.Product, key string, col *collate.Collator) {
	var less func(a, b models.Product) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b models.Product) bool { return a.Price > b.Price }
	case SortTitleAsc:
		less = func(a, b models.Product) bool { return col.CompareString(a.Title, b.Title) < 0 }
	case SortTitleDesc:
		less = func(a, b models.Product) bool { return col.CompareString(a.Title, b.Title) > 0 }
	default:
		return
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}

func sortAdmin(products []models.Product, field string, asc bool, col *collate.Collator) {
	cmp := adminComparator(field, col)
	if cmp == nil {
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		c := cmp(products[i], products[j])
		if asc {
			return c < 0
		}
		return c > 0
	})
}

func adminComparator(field string, col *collate.Collator) func(a, b models.Product) int {
	switch field {
	case "title":
		return func(a, b models.Product) int { return col.CompareString(a.Title, b.Title) }
	case "author":
		return func(a, b models.Product) int { return col.CompareString(a.Author, b.Author) }
	case "category":
		return func(a, b models.Product) int { return col.CompareString(a.Category, b.Category) }
	case "price":
		return func(a, b models.Product) int { return compareFloat(a.Price, b.Price) }
	case "stock":
		return func(a, b models.Product) int { return a.Stock - b.Stock }
	case "rating":
		return func(a, b models.Product) int { return compareFloat(ratingOf(a), ratingOf(b)) }
	case "reviewCount":
		return func(a, b models.Product) int { return a.ReviewCount - b.ReviewCount }
	case "createdAt":
		return func(a, b models.Product) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updatedAt":
		return func(a, b models.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "id":
		return func(a, b models.Product) int { return a.ID - b.ID }
	}
	return nil
}

func ratingOf(p models.Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func statistics(products []models.Product) Statistics {
	s := Statistics{Total: len(products)}
	for _, p := range products {
		if p.IsActive {
			s.Active++
		} else {
			s.Inactive++
		}
		switch {
		case p.Stock == 0:
			s.OutOfStock++
		case p.Stock > 0 && p.Stock < models.LowStockThreshold:
			s.LowStock++
		}
	}
	return s
}

func paginate(products []models.Product, page, limit int) ([]models.Product, Pagination) {
	total := len(products)
	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	// Bounds are derived from total so huge page or limit values cannot overflow.
	lo := total
	if page-1 < pages {
		lo = (page - 1) * limit
	}
	hi := lo + min(limit, total-lo)

	return products[lo:hi], Pagination{
		CurrentPage:     page,
		TotalPages:      pages,
		TotalProducts:   total,
		ProductsPerPage: limit,
		HasNextPage:     hi < total,
		HasPrevPage:     page > 1,
	}
}
