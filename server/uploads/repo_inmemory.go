package uploads

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu     sync.RWMutex
	images map[string]Image
}

// NewInMemoryRepo creates a new in-memory upload repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		images: make(map[string]Image),
	}
}

// Put stores a copy of data under a new id
func (r *InMemoryRepo) Put(contentType string, data []byte) (Image, error) {
	if contentType == "" {
		return Image{}, fmt.Errorf("contentType is required")
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("data is required")
	}

	img := Image{
		ID:          uuid.New().String(),
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
		CreatedAt:   time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[img.ID] = img
	return img, nil
}

func (r *InMemoryRepo) Get(id string) (Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, ok := r.images[id]
	if !ok {
		return Image{}, fmt.Errorf("image not found")
	}
	return img, nil
}

func (r *InMemoryRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[id]; !ok {
		return fmt.Errorf("image not found")
	}
	delete(r.images, id)
	return nil
}
