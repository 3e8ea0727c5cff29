package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-market-client/internal/config"
)

const defaultTimeout = 10 * time.Second

type addressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type result struct {
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
}

type response struct {
	Status  string   `json:"status"`
	Results []result `json:"results"`
}

// Client reverse-geocodes map positions into display names
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(cfg config.ClientConfig, options ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[geocode.New] config is required")
	}
	if cfg.GetGeocodeURL() == "" {
		return nil, errors.New("[geocode.New] geocode url is required")
	}
	c := &Client{
		endpoint:   cfg.GetGeocodeURL(),
		apiKey:     cfg.GetGeocodeAPIKey(),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// LocationName returns the locality of the position, else the formatted
// address, else an "Unknown location" label. Lookup failures are logged.
func (c *Client) LocationName(ctx context.Context, lat, lng float64) string {
	name, err := c.lookup(ctx, lat, lng)
	if err != nil {
		c.logger.Warn().Err(err).Msg("reverse geocode failed")
	}
	if name == "" {
		return UnknownLocation(lat, lng)
	}
	return name
}

// UnknownLocation is the label used when no address is found
func UnknownLocation(lat, lng float64) string {
	return fmt.Sprintf("Unknown location at (%.4f, %.4f)", lat, lng)
}

func (c *Client) lookup(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(err, "[lookup] build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "[lookup] send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("[lookup] unexpected status %d", resp.StatusCode)
	}
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "[lookup] decode response")
	}
	if len(out.Results) == 0 {
		return "", nil
	}

	first := out.Results[0]
	for _, component := range first.AddressComponents {
		for _, t := range component.Types {
			if t == "locality" && component.LongName != "" {
				return component.LongName, nil
			}
		}
	}
	return first.FormattedAddress, nil
}
