package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/users"
)

const (
	maxUploadMemory = 32 << 20
	maxImageBytes   = 5 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// parseForm accepts multipart or urlencoded bodies
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return errors.Wrap(marketerrors.ErrInvalidRequest, "invalid multipart body")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return errors.Wrap(marketerrors.ErrInvalidRequest, "invalid form body")
	}
	return nil
}

// formFiles returns the uploaded files of a multipart field, nil when none
func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}

// storeImages checks every file is a JPEG or PNG and stores them as uploads
func (s *Server) storeImages(files []*multipart.FileHeader) ([]users.Image, error) {
	images := make([]users.Image, 0, len(files))
	for _, fh := range files {
		data, contentType, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		stored, err := s.repos.Uploads.Put(contentType, data)
		if err != nil {
			return nil, errors.Wrap(err, "[storeImages] Uploads.Put")
		}
		images = append(images, users.Image{URL: uploadURL(stored.ID), ID: stored.ID})
	}
	return images, nil
}

func readImage(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh.Size > maxImageBytes {
		return nil, "", errors.Wrapf(marketerrors.ErrInvalidRequest, "image %s is too large", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.Wrap(err, "open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, "", errors.Wrap(err, "read upload")
	}

	// The declared type is not trusted; the bytes decide
	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return nil, "", errors.Wrap(marketerrors.ErrInvalidRequest, "Only JPEG/PNG images allowed")
	}
	return data, contentType, nil
}

func uploadURL(id string) string {
	return "/uploads/" + id
}

// releaseImages removes uploads no longer referenced
func (s *Server) releaseImages(images []users.Image) {
	for _, img := range images {
		if img.ID != "" {
			_ = s.repos.Uploads.Delete(img.ID)
		}
	}
}
