package market

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/apiclient"
)

// API is the request surface the services need; *apiclient.Client satisfies it
type API interface {
	Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error)
}

// Envelope is the body of every marketplace API response
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// ErrUnsuccessful is returned when a 2xx response reports success=false
var ErrUnsuccessful = errors.New("request was not successful")

func decodeEnvelope[T any](resp *apiclient.Response) (Envelope[T], error) {
	var env Envelope[T]
	if err := resp.DecodeJSON(&env); err != nil {
		return env, err
	}
	if !env.Success {
		if env.Message != "" {
			return env, errors.Wrap(ErrUnsuccessful, env.Message)
		}
		return env, ErrUnsuccessful
	}
	return env, nil
}

// call sends req and decodes the data of the response envelope
func call[T any](ctx context.Context, api API, req *apiclient.Request) (T, error) {
	var zero T
	resp, err := api.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	env, err := decodeEnvelope[T](resp)
	if err != nil {
		return zero, err
	}
	return env.Data, nil
}

// callMessage sends req and returns the server message of a data-less response
func callMessage(ctx context.Context, api API, req *apiclient.Request) (string, error) {
	resp, err := api.Do(ctx, req)
	if err != nil {
		return "", err
	}
	env, err := decodeEnvelope[struct{}](resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
