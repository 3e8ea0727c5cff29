package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/apiclient"
	"github.com/jrsteele09/go-market-client/products"
)

const PathProducts = "/products"

// ListQuery selects a page of the product feed
type ListQuery struct {
	Page   int
	Limit  int // products.DefaultLimit when zero
	Search string
	Sort   products.SortOrder
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = products.DefaultLimit
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	return v
}

// ProductForm is a new listing
type ProductForm struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Price       float64     `json:"price" validate:"gt=0"`
	Location    *Location   `json:"location" validate:"required"`
	Images      []ImageFile `json:"images" validate:"min=1,max=5"`
}

// Location is the picked position and its display name
type Location struct {
	Name      string  `json:"name" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// ProductUpdate changes only the fields that are set. Images, when given,
// replace the existing set.
type ProductUpdate struct {
	Title       *string
	Description *string
	Price       *float64
	Location    *Location
	Images      []ImageFile
}

type ProductService struct {
	api API
}

func NewProductService(api API) (*ProductService, error) {
	if api == nil {
		return nil, errors.New("[NewProductService] api is required")
	}
	return &ProductService{api: api}, nil
}

// List returns one page of products; an empty page means the end of the feed
func (s *ProductService) List(ctx context.Context, q ListQuery) ([]products.Product, error) {
	switch q.Sort {
	case "", products.SortAsc, products.SortDesc:
	default:
		return nil, &FormError{Field: "sort", Message: "sort must be asc or desc"}
	}
	req := apiclient.NewRequest(http.MethodGet, PathProducts)
	req.Query = q.values()
	return call[[]products.Product](ctx, s.api, req)
}

// ListByOwner returns a page of the products posted by userID
func (s *ProductService) ListByOwner(ctx context.Context, userID string, q ListQuery) ([]products.Product, error) {
	if userID == "" {
		return nil, &FormError{Field: "user", Message: "user is required"}
	}
	req := apiclient.NewRequest(http.MethodGet, PathProducts)
	req.Query = q.values()
	req.Query.Set("user", userID)

	list, err := call[[]products.Product](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	// Servers that ignore the user filter return everyone's products
	owned := list[:0]
	for _, p := range list {
		if p.User.ID == userID {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*products.Product, error) {
	req := apiclient.NewRequest(http.MethodGet, productPath(id))
	p, err := call[products.Product](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create posts a listing as multipart form data with 1 to 5 JPEG/PNG images
func (s *ProductService) Create(ctx context.Context, form ProductForm) (*products.Product, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)
	if err := validateForm(form); err != nil {
		return nil, err
	}
	if err := validateImages(form.Images); err != nil {
		return nil, err
	}

	fb := newFormBuilder().
		field("title", form.Title).
		field("description", form.Description).
		field("price", formatFloat(form.Price))
	addLocation(fb, *form.Location)
	for i, img := range form.Images {
		fb.file("images", img, fmt.Sprintf("image_%d.jpg", i))
	}

	req, err := fb.request(http.MethodPost, PathProducts)
	if err != nil {
		return nil, err
	}
	p, err := call[products.Product](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, update ProductUpdate) (*products.Product, error) {
	fb := newFormBuilder()
	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, &FormError{Field: "title", Message: "title is required"}
		}
		fb.field("title", strings.TrimSpace(*update.Title))
	}
	if update.Description != nil {
		fb.field("description", strings.TrimSpace(*update.Description))
	}
	if update.Price != nil {
		if *update.Price <= 0 {
			return nil, &FormError{Field: "price", Message: "price must be greater than 0"}
		}
		fb.field("price", formatFloat(*update.Price))
	}
	if update.Location != nil {
		if err := validateForm(*update.Location); err != nil {
			return nil, err
		}
		addLocation(fb, *update.Location)
	}
	if len(update.Images) > 0 {
		if len(update.Images) > products.MaxImages {
			return nil, &FormError{Field: "images", Message: fmt.Sprintf("Maximum %d images allowed", products.MaxImages)}
		}
		if err := validateImages(update.Images); err != nil {
			return nil, err
		}
		for i, img := range update.Images {
			fb.file("images", img, fmt.Sprintf("image_%d.jpg", i))
		}
	}

	req, err := fb.request(http.MethodPut, productPath(id))
	if err != nil {
		return nil, err
	}
	p, err := call[products.Product](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	_, err := callMessage(ctx, s.api, apiclient.NewRequest(http.MethodDelete, productPath(id)))
	return err
}

func productPath(id string) string {
	return PathProducts + "/" + url.PathEscape(id)
}

func addLocation(fb *formBuilder, loc Location) {
	fb.field("location[name]", loc.Name).
		field("location[latitude]", formatFloat(loc.Latitude)).
		field("location[longitude]", formatFloat(loc.Longitude))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
