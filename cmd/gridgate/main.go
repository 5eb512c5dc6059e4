package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridbase/gridgate/auth"
	"github.com/gridbase/gridgate/auth/authcode"
	"github.com/gridbase/gridgate/auth/pending"
	"github.com/gridbase/gridgate/backend"
	"github.com/gridbase/gridgate/backend/httpclient"
	"github.com/gridbase/gridgate/executor"
	"github.com/gridbase/gridgate/internal/config"
	"github.com/gridbase/gridgate/janitor"
	"github.com/gridbase/gridgate/server"
	"github.com/gridbase/gridgate/session"
	"github.com/gridbase/gridgate/session/filestore"
	"github.com/gridbase/gridgate/session/sqlitestore"
	"github.com/gridbase/gridgate/token"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("error running server")
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
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg := config.New()
	configureLogging(cfg)
	displayAppname(cfg.GetAppName())

	store, err := sessionPersistence(cfg)
	if err != nil {
		return err
	}
	sessions, err := session.NewRegistry(store)
	if err != nil {
		return err
	}

	pendingRepo := pending.NewInMemoryRepo(cfg.GetPendingAuthTTL())
	codeRepo := authcode.NewInMemoryRepo()

	issuer, err := token.NewIssuer(sessions, cfg.GetSessionLifetime())
	if err != nil {
		return err
	}

	authService, err := auth.NewService(
		auth.Repos{Pending: pendingRepo, Codes: codeRepo, Sessions: sessions},
		issuer,
		backend.NewLiveValidator(httpclient.Factory),
		auth.WithAuthCodeTTL(cfg.GetAuthCodeTTL()),
		auth.WithScope(cfg.GetScope()),
	)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, server.Deps{
		Auth:           authService,
		Executor:       executor.New(),
		BackendFactory: httpclient.Factory,
	})
	if err != nil {
		return err
	}

	sweeper, err := janitor.New(pendingRepo, codeRepo, sessions, cfg.GetSweepInterval())
	if err != nil {
		return err
	}
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// sessionPersistence selects the session store medium from configuration.
func sessionPersistence(cfg config.Config) (session.Persistence, error) {
	switch backendName := cfg.GetSessionsBackend(); backendName {
	case "sqlite":
		return sqlitestore.New(cfg.GetSessionsDB())
	case "file":
		return filestore.New(cfg.GetSessionsFile()), nil
	default:
		return nil, fmt.Errorf("unsupported sessions backend %q", backendName)
	}
}

func configureLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
