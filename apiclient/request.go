package apiclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const contentTypeJSON = "application/json"

// Request describes one API call. Path is resolved against the client's base URL.
// Body is kept as bytes so the request can be replayed after a token refresh.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// NoAuthRetry marks anonymous endpoints (login, signup, OTP) where a 401
	// means bad input rather than an expired access token.
	NoAuthRetry bool
}

// NewRequest creates a request without a body
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}
}

// NewJSONRequest creates a request whose body is payload encoded as JSON
func NewJSONRequest(method, path string, payload any) (*Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "[NewJSONRequest] encode payload")
	}
	req := NewRequest(method, path)
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Body = body
	return req, nil
}

// Response is a completed 2xx response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

func (r *Request) bodyReader() io.Reader {
	if len(r.Body) == 0 {
		return nil
	}
	return bytes.NewReader(r.Body)
}
