package main

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jrsteele09/go-market-client/apiclient"
	"github.com/jrsteele09/go-market-client/cart"
	"github.com/jrsteele09/go-market-client/credentials"
	"github.com/jrsteele09/go-market-client/credentials/filestore"
	"github.com/jrsteele09/go-market-client/credentials/redisstore"
	credentialsrepofake "github.com/jrsteele09/go-market-client/credentials/repofake"
	"github.com/jrsteele09/go-market-client/geocode"
	"github.com/jrsteele09/go-market-client/internal/config"
	"github.com/jrsteele09/go-market-client/internal/logging"
	"github.com/jrsteele09/go-market-client/market"
)

// app holds everything a command needs, built once before it runs
type app struct {
	config   config.Config
	store    credentials.Store
	client   *apiclient.Client
	auth     *market.AuthService
	products *market.ProductService
	profile  *market.ProfileService
	geocoder *geocode.Client

	loggedOut atomic.Bool
	closers   []func() error
}

func (a *app) init(ctx context.Context) error {
	a.config = config.New()
	logging.Setup(a.config.GetLogLevel(), a.config.GetEnv())

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.store = store

	transport := http.DefaultTransport
	if a.config.GetTracingEnabled() {
		transport = otelhttp.NewTransport(transport)
	}

	a.client, err = apiclient.New(a.config.GetBaseURL(), store,
		apiclient.WithTransport(transport),
		apiclient.WithTimeout(a.config.GetRequestTimeout()),
		apiclient.WithLogoutHandler(func(reason error) {
			a.loggedOut.Store(true)
			log.Warn().Err(reason).Msg("signed out, the session could not be refreshed")
		}),
	)
	if err != nil {
		return err
	}
	if a.auth, err = market.NewAuthService(a.client, store); err != nil {
		return err
	}
	if a.products, err = market.NewProductService(a.client); err != nil {
		return err
	}
	if a.profile, err = market.NewProfileService(a.client, store); err != nil {
		return err
	}
	a.geocoder, err = geocode.New(a.config, geocode.WithHTTPClient(&http.Client{
		Transport: transport,
		Timeout:   a.config.GetRequestTimeout(),
	}))
	return err
}

func (a *app) openStore(ctx context.Context) (credentials.Store, error) {
	switch backend := a.config.GetCredentialsBackend(); backend {
	case config.BackendFile:
		var options []filestore.Option
		if passphrase := a.config.GetCredentialsPassphrase(); passphrase != "" {
			options = append(options, filestore.WithPassphrase(passphrase))
		}
		return filestore.New(a.config.GetCredentialsFile(), options...)
	case config.BackendRedis:
		rdb, err := redisstore.Connect(ctx, a.config.GetRedisAddr(), a.config.GetRedisPassword(), a.config.GetRedisDB())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		return redisstore.New(rdb, a.config.GetRedisKeyPrefix())
	case config.BackendMemory:
		return credentialsrepofake.NewFakeStore(), nil
	default:
		return nil, errors.Errorf("unknown credentials backend %q", backend)
	}
}

func (a *app) loadCart(ctx context.Context) (*cart.Cart, error) {
	return cart.Load(ctx, a.store)
}

func (a *app) saveCart(ctx context.Context, c *cart.Cart) error {
	return cart.Save(ctx, a.store, c)
}

func (a *app) sessionLost() bool {
	return a.loggedOut.Load()
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Debug().Err(err).Msg("close failed")
		}
	}
}
