package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-market-client/internal/config"
	"github.com/jrsteele09/go-market-client/internal/logging"
	fakeproductrepo "github.com/jrsteele09/go-market-client/products/repofake"
	"github.com/jrsteele09/go-market-client/server"
	"github.com/jrsteele09/go-market-client/server/uploads"
	refreshrepofake "github.com/jrsteele09/go-market-client/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-market-client/users/repofake"
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("error running server, restarting")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName())

	s, err := server.New(c, server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Products:      fakeproductrepo.NewFakeProductRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		Uploads:       uploads.NewInMemoryRepo(),
	})
	if err != nil {
		return err
	}
	s.RegisterRouteHandler("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{Addr: c.GetPort(), Handler: s}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
