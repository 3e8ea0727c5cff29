package products

import (
	"time"

	"github.com/jrsteele09/go-market-client/users"
)

// Location is where a product can be collected
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Owner is the public view of the user who posted a product
type Owner struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

type Product struct {
	ID          string        `json:"_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	Images      []users.Image `json:"images"`
	Location    Location      `json:"location"`
	User        Owner         `json:"user"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// SortOrder orders listings by price
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultLimit = 10
	MaxImages    = 5
)

// Filter selects a page of products
type Filter struct {
	Search  string    // case insensitive match on title or description
	Sort    SortOrder // empty keeps insertion order
	OwnerID string
	Page    int // 1-based
	Limit   int
}

// Normalise fills in paging defaults
func (f Filter) Normalise() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	return f
}

// Offset is the index of the first product on the page
func (f Filter) Offset() int {
	f = f.Normalise()
	return (f.Page - 1) * f.Limit
}
