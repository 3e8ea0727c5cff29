package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/credentials"
	"github.com/jrsteele09/go-market-client/products"
)

// StoreKey is where Save keeps the cart
const StoreKey = "cart"

// Item is one product line and how many of it are in the cart
type Item struct {
	Product  products.Product `json:"product"`
	Quantity int              `json:"quantity"`
}

// Cart holds product lines in the order they were first added
type Cart struct {
	lock  sync.RWMutex
	items []Item
}

func New() *Cart {
	return &Cart{}
}

// Add puts one more of p in the cart
func (c *Cart) Add(p products.Product) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i := range c.items {
		if c.items[i].Product.ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, Item{Product: p, Quantity: 1})
}

// Remove takes one of productID out; the line goes when it reaches zero
func (c *Cart) Remove(productID string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	kept := c.items[:0]
	for _, item := range c.items {
		if item.Product.ID == productID {
			item.Quantity--
		}
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// ItemCount is the sum of all quantities
func (c *Cart) ItemCount() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) Total() float64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	total := 0.0
	for _, item := range c.items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.items = nil
}

// Items returns a copy of the lines
func (c *Cart) Items() []Item {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return append([]Item(nil), c.items...)
}

// Load reads a saved cart; an empty cart is returned when nothing was saved
func Load(ctx context.Context, store credentials.Store) (*Cart, error) {
	raw, ok, err := store.Get(ctx, StoreKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Load] read cart")
	}
	c := New()
	if !ok || raw == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), &c.items); err != nil {
		return nil, errors.Wrap(err, "[Load] decode cart")
	}
	return c, nil
}

// Save writes the cart; an empty cart removes the key
func Save(ctx context.Context, store credentials.Store, c *Cart) error {
	items := c.Items()
	if len(items) == 0 {
		return errors.Wrap(store.Remove(ctx, StoreKey), "[Save] remove cart")
	}
	b, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "[Save] encode cart")
	}
	return errors.Wrap(store.Set(ctx, StoreKey, string(b)), "[Save] write cart")
}
