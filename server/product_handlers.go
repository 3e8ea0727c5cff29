package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/products"
)

// productForm is the validated form of a product create or update
type productForm struct {
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description" validate:"required"`
	Price        float64 `json:"price" validate:"gt=0"`
	LocationName string  `json:"location[name]" validate:"required"`
	Latitude     float64 `json:"location[latitude]" validate:"latitude"`
	Longitude    float64 `json:"location[longitude]" validate:"longitude"`
}

func formFromProduct(p *products.Product) productForm {
	return productForm{
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		LocationName: p.Location.Name,
		Latitude:     p.Location.Latitude,
		Longitude:    p.Location.Longitude,
	}
}

// mergeForm overlays the submitted fields on f. Absent fields keep their value.
func mergeForm(r *http.Request, f productForm) (productForm, error) {
	if v, ok := formValue(r, "title"); ok {
		f.Title = strings.TrimSpace(v)
	}
	if v, ok := formValue(r, "description"); ok {
		f.Description = strings.TrimSpace(v)
	}
	if v, ok := formValue(r, "location[name]"); ok {
		f.LocationName = strings.TrimSpace(v)
	}

	var err error
	parseNumber := func(field string, dst *float64) {
		v, ok := formValue(r, field)
		if !ok || err != nil {
			return
		}
		n, perr := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if perr != nil {
			err = errors.Wrapf(marketerrors.ErrInvalidRequest, "%s must be a number", field)
			return
		}
		*dst = n
	}
	parseNumber("price", &f.Price)
	parseNumber("location[latitude]", &f.Latitude)
	parseNumber("location[longitude]", &f.Longitude)
	return f, err
}

func formValue(r *http.Request, key string) (string, bool) {
	values, ok := r.Form[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func applyForm(p *products.Product, f productForm) {
	p.Title = f.Title
	p.Description = f.Description
	p.Price = f.Price
	p.Location = products.Location{Name: f.LocationName, Latitude: f.Latitude, Longitude: f.Longitude}
}

func checkImageCount(n int) error {
	if n == 0 {
		return errors.Wrap(marketerrors.ErrInvalidRequest, "Please select at least one image")
	}
	if n > products.MaxImages {
		return errors.Wrapf(marketerrors.ErrInvalidRequest, "Maximum %d images allowed", products.MaxImages)
	}
	return nil
}

// ListProductsHandler serves GET /products?page&limit&search&sort&user
func (s *Server) ListProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := products.Filter{
			Search:  q.Get("search"),
			Sort:    products.SortOrder(strings.ToLower(q.Get("sort"))),
			OwnerID: q.Get("user"),
		}
		switch filter.Sort {
		case "", products.SortAsc, products.SortDesc:
		default:
			writeMessage(w, http.StatusBadRequest, "sort must be asc or desc")
			return
		}

		var err error
		if filter.Page, err = intParam(q.Get("page")); err != nil {
			writeMessage(w, http.StatusBadRequest, "page must be a number")
			return
		}
		if filter.Limit, err = intParam(q.Get("limit")); err != nil {
			writeMessage(w, http.StatusBadRequest, "limit must be a number")
			return
		}

		list, err := s.repos.Products.List(filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, list)
	}
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) GetProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.repos.Products.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, p)
	}
}

// CreateProductHandler takes a multipart form with 1 to 5 JPEG/PNG images
func (s *Server) CreateProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(r); err != nil {
			writeError(w, err)
			return
		}

		form, err := mergeForm(r, productForm{})
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.Validator().Validate(form); err != nil {
			writeError(w, err)
			return
		}

		files := formFiles(r, "images")
		if err := checkImageCount(len(files)); err != nil {
			writeError(w, err)
			return
		}
		images, err := s.storeImages(files)
		if err != nil {
			writeError(w, err)
			return
		}

		owner := products.Owner{ID: userIDFromContext(r.Context())}
		if claims := claimsFromContext(r.Context()); claims != nil {
			owner.Email = claims.Email
		}

		p := &products.Product{Images: images, User: owner, CreatedAt: time.Now()}
		applyForm(p, form)
		if err := s.repos.Products.Upsert(p); err != nil {
			s.releaseImages(images)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Product created successfully", Data: p})
	}
}

// UpdateProductHandler changes the submitted fields; images, when sent, replace the old set
func (s *Server) UpdateProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.ownedProduct(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := parseForm(r); err != nil {
			writeError(w, err)
			return
		}

		form, err := mergeForm(r, formFromProduct(p))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.Validator().Validate(form); err != nil {
			writeError(w, err)
			return
		}

		oldImages, replaced := p.Images, false
		if files := formFiles(r, "images"); len(files) > 0 {
			if err := checkImageCount(len(files)); err != nil {
				writeError(w, err)
				return
			}
			images, err := s.storeImages(files)
			if err != nil {
				writeError(w, err)
				return
			}
			p.Images, replaced = images, true
		}

		applyForm(p, form)
		if err := s.repos.Products.Upsert(p); err != nil {
			writeError(w, err)
			return
		}
		if replaced {
			s.releaseImages(oldImages)
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Product updated successfully", Data: p})
	}
}

func (s *Server) DeleteProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.ownedProduct(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.repos.Products.Delete(p.ID); err != nil {
			writeError(w, err)
			return
		}
		s.releaseImages(p.Images)
		writeOK(w, "Product deleted successfully")
	}
}

func (s *Server) ownedProduct(r *http.Request) (*products.Product, error) {
	p, err := s.repos.Products.Get(r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if p.User.ID != userIDFromContext(r.Context()) {
		return nil, marketerrors.ErrNotOwner
	}
	return p, nil
}
