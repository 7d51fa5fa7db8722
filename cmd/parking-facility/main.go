package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking-facility/internal/config"
	"parking-facility/internal/logging"
	"parking-facility/internal/parking"
	"parking-facility/internal/server"
)

var (
	mode   = flag.String("mode", "", "Mode to run: cli, server, or both (default from APP_MODE)")
	port   = flag.String("port", "", "Port for HTTP server (default from APP_PORT)")
	layout = flag.String("layout", "", "Layout file to load at startup (default from LAYOUT_PATH)")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *layout != "" {
		cfg.LayoutPath = *layout
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
		ServiceName:  cfg.OTelServiceName,
		OTLPEndpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize telemetry: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.OTelServiceName, cfg.Environment)

	facility, err := newFacility(ctx, cfg, telemetryProvider)
	if err != nil {
		logging.Error(ctx, "failed to set up facility", "error", err.Error())
		shutdownTelemetry(telemetryProvider)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.Mode {
	case "cli":
		runCLI(ctx, cancel, facility, telemetryProvider, sigChan)
	case "server":
		runServer(ctx, cancel, cfg, facility, telemetryProvider, sigChan)
	case "both":
		runBoth(ctx, cancel, cfg, facility, telemetryProvider, sigChan)
	default:
		logging.Error(ctx, "invalid mode, must be cli, server, or both", "mode", cfg.Mode)
		shutdownTelemetry(telemetryProvider)
		os.Exit(1)
	}
}

func newFacility(ctx context.Context, cfg *config.Config, telemetryProvider *parking.TelemetryProvider) (*parking.InstrumentedFacility, error) {
	facility, err := parking.NewInstrumentedFacility(parking.NewFacility(cfg.FacilityOptions()...), telemetryProvider)
	if err != nil {
		return nil, err
	}

	if cfg.LayoutPath == "" {
		return facility, nil
	}

	l, err := parking.LoadLayout(cfg.LayoutPath)
	if err != nil {
		return nil, err
	}
	floors, err := l.BuildFloors()
	if err != nil {
		return nil, err
	}
	if err := facility.Configure(ctx, floors); err != nil {
		return nil, err
	}

	logging.Info(ctx, "layout loaded", "path", cfg.LayoutPath)
	return facility, nil
}

func newServer(cfg *config.Config, facility *parking.InstrumentedFacility) *server.Server {
	return server.NewServer(server.Config{
		Port:           cfg.Port,
		ServiceName:    cfg.OTelServiceName,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, facility)
}

func runCLI(ctx context.Context, cancel context.CancelFunc, facility *parking.InstrumentedFacility, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		logging.Info(ctx, "shutting down")
		cancel()
	}()

	shell := parking.NewShell(facility, os.Stdin, os.Stdout)
	shell.Run(ctx)

	shutdownTelemetry(telemetryProvider)
}

func runServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, facility *parking.InstrumentedFacility, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	srv := newServer(cfg, facility)

	go func() {
		<-sigChan
		logging.Info(ctx, "received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error(ctx, "server shutdown error", "error", err.Error())
		}

		cancel()
	}()

	logging.Info(ctx, "starting server mode", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error(ctx, "server error", "error", err.Error())
	}

	shutdownTelemetry(telemetryProvider)
}

func runBoth(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, facility *parking.InstrumentedFacility, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	srv := newServer(cfg, facility)

	serverDone := make(chan error, 1)
	go func() {
		logging.Info(ctx, "starting HTTP server", "port", cfg.Port)
		serverDone <- srv.Start()
	}()

	cliDone := make(chan bool, 1)
	go func() {
		shell := parking.NewShell(facility, os.Stdin, os.Stdout)
		shell.Run(ctx)
		cliDone <- true
	}()

	go func() {
		<-sigChan
		logging.Info(ctx, "received shutdown signal")
		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "server error", "error", err.Error())
		}
	case <-cliDone:
		logging.Info(ctx, "CLI exited")
	case <-ctx.Done():
		logging.Info(ctx, "context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "server shutdown error", "error", err.Error())
	}

	shutdownTelemetry(telemetryProvider)
}

func shutdownTelemetry(telemetryProvider *parking.TelemetryProvider) {
	logging.Info(context.Background(), "shutting down telemetry")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "error shutting down telemetry", "error", err.Error())
	}
}
