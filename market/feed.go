package market

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/products"
)

// ErrLoadInProgress is returned when a page is requested while another loads
var ErrLoadInProgress = errors.New("a page is already loading")

// Lister loads one page of products
type Lister interface {
	List(ctx context.Context, q ListQuery) ([]products.Product, error)
}

// Feed is an infinite scroll over the product list. It allows one load at a
// time; a load that fails leaves the feed as it was.
type Feed struct {
	lister Lister

	lock     sync.Mutex
	query    ListQuery
	items    []products.Product
	nextPage int
	hasMore  bool
	loading  bool
}

func NewFeed(lister Lister, q ListQuery) (*Feed, error) {
	if lister == nil {
		return nil, errors.New("[NewFeed] lister is required")
	}
	q.Page = 0
	return &Feed{lister: lister, query: q, nextPage: 1, hasMore: true}, nil
}

// SetQuery changes search or sort; the next Refresh starts over
func (f *Feed) SetQuery(search string, sort products.SortOrder) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.query.Search = search
	f.query.Sort = sort
}

// Refresh reloads page one and replaces the items
func (f *Feed) Refresh(ctx context.Context) ([]products.Product, error) {
	return f.load(ctx, true)
}

// Next appends the following page. Once a page comes back empty it is a no-op.
func (f *Feed) Next(ctx context.Context) ([]products.Product, error) {
	return f.load(ctx, false)
}

func (f *Feed) load(ctx context.Context, refresh bool) ([]products.Product, error) {
	f.lock.Lock()
	if f.loading {
		f.lock.Unlock()
		return nil, ErrLoadInProgress
	}
	if !refresh && !f.hasMore {
		items := f.snapshotLocked()
		f.lock.Unlock()
		return items, nil
	}
	q := f.query
	q.Page = f.nextPage
	if refresh {
		q.Page = 1
	}
	f.loading = true
	f.lock.Unlock()

	page, err := f.lister.List(ctx, q)

	f.lock.Lock()
	defer f.lock.Unlock()
	f.loading = false
	if err != nil {
		return nil, err
	}

	if refresh {
		f.items = append([]products.Product(nil), page...)
		f.nextPage = 2
	} else {
		f.items = append(f.items, page...)
		f.nextPage++
	}
	f.hasMore = len(page) > 0
	return f.snapshotLocked(), nil
}

func (f *Feed) snapshotLocked() []products.Product {
	return append([]products.Product(nil), f.items...)
}

// Items returns a copy of everything loaded so far
func (f *Feed) Items() []products.Product {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.snapshotLocked()
}

func (f *Feed) HasMore() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.hasMore
}
