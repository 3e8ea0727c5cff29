package fakeproductrepo

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/products"
)

var _ products.Repo = (*FakeProductRepo)(nil)

type FakeProductRepo struct {
	products map[string]*products.Product
	order    []string // insertion order of ids
	lock     sync.RWMutex
}

func NewFakeProductRepo() products.Repo {
	return &FakeProductRepo{
		products: make(map[string]*products.Product),
	}
}

func (pr *FakeProductRepo) Upsert(product *products.Product) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, ok := pr.products[product.ID]; !ok {
		pr.order = append(pr.order, product.ID)
	}
	stored := *product
	stored.Images = append(stored.Images[:0:0], product.Images...)
	pr.products[product.ID] = &stored
	return nil
}

func (pr *FakeProductRepo) Delete(id string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if _, ok := pr.products[id]; !ok {
		return marketerrors.ErrProductNotFound
	}
	delete(pr.products, id)
	for i, existing := range pr.order {
		if existing == id {
			pr.order = append(pr.order[:i], pr.order[i+1:]...)
			break
		}
	}
	return nil
}

func (pr *FakeProductRepo) Get(id string) (*products.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	stored, ok := pr.products[id]
	if !ok {
		return nil, marketerrors.ErrProductNotFound
	}
	p := *stored
	return &p, nil
}

func (pr *FakeProductRepo) List(filter products.Filter) ([]*products.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	filter = filter.Normalise()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := make([]*products.Product, 0)
	for _, id := range pr.order {
		p := pr.products[id]
		if filter.OwnerID != "" && p.User.ID != filter.OwnerID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}

	switch filter.Sort {
	case products.SortAsc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case products.SortDesc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}

	offset := filter.Offset()
	if offset >= len(matched) {
		return []*products.Product{}, nil
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}
