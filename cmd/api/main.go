package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/dalilfazara/dalil/config"
	"github.com/dalilfazara/dalil/internal/app"
	"github.com/dalilfazara/dalil/pkg/logger"
)

// osExit is a variable to allow mocking os.Exit in tests
var osExit = os.Exit

// For testing purposes - allows us to mock the signal channel
var signalNotify = signal.Notify

// NewAppFunc defines the function signature for creating a new app
type NewAppFunc func(cfg *config.Config, opts ...app.AppOption) app.AppInterface

var newApp NewAppFunc = app.NewApp

// shutdownGrace bounds how long in-flight requests may run after a signal
const shutdownGrace = 30 * time.Second

// runServer initializes the app, serves until a signal arrives, then drains
func runServer(cfg *config.Config, appLogger logger.Logger) error {
	appInstance := newApp(cfg, app.WithLogger(appLogger))

	if err := appInstance.Initialize(); err != nil {
		appLogger.WithField("error", err.Error()).Error("Failed to initialize application")
		return err
	}

	signals := make(chan os.Signal, 1)
	signalNotify(signals, os.Interrupt, syscall.SIGTERM)

	served := make(chan error, 1)
	go func() {
		appLogger.Info("Directory API listening")
		served <- appInstance.Start()
	}()

	select {
	case err := <-served:
		if err != nil {
			appLogger.WithField("error", err.Error()).Error("Server error")
		}
		return err
	case sig := <-signals:
		appLogger.WithField("signal", sig.String()).Info("Shutdown signal received, draining requests")
		return drain(appInstance, appLogger)
	}
}

// drain shuts the app down within shutdownGrace. A second signal cancels the
// drain and gives the app two seconds to release its resources.
func drain(appInstance app.AppInterface, appLogger logger.Logger) error {
	appInstance.SetShutdownTimeout(shutdownGrace)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace+5*time.Second)
	defer cancel()

	appLogger.WithField("active_requests", appInstance.GetActiveRequestCount()).
		Info("Send the signal again to force an immediate exit")

	force := make(chan os.Signal, 1)
	signalNotify(force, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- appInstance.Shutdown(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			appLogger.WithField("error", err.Error()).Error("Error during graceful shutdown")
			return err
		}
		appLogger.Info("Server shut down gracefully")
		return nil
	case sig := <-force:
		appLogger.WithField("signal", sig.String()).Warn("Forced shutdown")
		cancel()

		select {
		case err := <-done:
			if err != nil {
				appLogger.WithField("error", err.Error()).Error("Error during forced shutdown")
			}
		case <-time.After(2 * time.Second):
			appLogger.Warn("Resources still held after forced shutdown, exiting")
		}
		return errors.New("forced shutdown")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLoggerWithLevel(cfg.LogLevel)
	appLogger.Info(fmt.Sprintf("Starting API server on %s:%d", cfg.Server.Host, cfg.Server.Port))

	if err := runServer(cfg, appLogger); err != nil {
		osExit(1)
	}
}
