package uploads

import "time"

// Image is an uploaded file held by the development backend
type Image struct {
	ID          string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

type Repo interface {
	Put(contentType string, data []byte) (Image, error)
	Get(id string) (Image, error)
	Delete(id string) error
}
