// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/esgf/globus-transfer-service/cmd/service"
	usecase "github.com/esgf/globus-transfer-service/internal/service"
	"github.com/esgf/globus-transfer-service/pkg/global"
	logging "github.com/esgf/globus-transfer-service/pkg/log"
	"github.com/esgf/globus-transfer-service/pkg/metrics"

	"github.com/joho/godotenv"
	"goa.design/clue/debug"
)

const (
	defaultPort = "8080"
	// gracefulShutdownSeconds should be higher than the NATS and Globus
	// request timeouts, and lower than the pod or liveness probe's
	// terminationGracePeriodSeconds.
	gracefulShutdownSeconds = 25
)

func init() {
	// a local .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env file: %v\n", err)
	}

	// slog is the standard library logger, we use it to log errors and
	logging.InitStructureLogConfig()
}

func main() {
	// Define command line flags, add any other flag required to configure the
	// service.
	var (
		dbgF = flag.Bool("d", false, "enable debug logging")
		port = flag.String("p", defaultPort, "listen port")
		bind = flag.String("bind", "*", "interface to bind on")
	)
	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	ctx := context.Background()
	slog.InfoContext(ctx, "Starting globus transfer service",
		"bind", *bind,
		"http-port", *port,
		"graceful-shutdown-seconds", gracefulShutdownSeconds,
	)

	// Initialize the backends based on configuration
	searchBackend := service.SearchBackendImpl(ctx)
	authorizationServer, scopes := service.AuthorizationServerImpl(ctx)
	transferBackend := service.TransferBackendImpl(ctx)
	tokenStore := service.TokenStoreImpl(ctx)
	transferRecorder := service.TransferRecorderImpl(ctx)
	authService := service.AuthServiceImpl(ctx)

	m := metrics.New()

	// Initialize the services.
	var (
		transferSvc service.Service
	)
	{
		resolver := usecase.NewFileResolver(searchBackend, service.EndpointRemappingImpl(ctx), service.URLPatternImpl(ctx))
		broker := usecase.NewCredentialBroker(authorizationServer, transferBackend, tokenStore, global.SessionTokenSecret(ctx), scopes, m)
		submitter := usecase.NewTransferSubmitter(transferBackend, m)
		orchestrator := usecase.NewTransferOrchestrator(resolver, broker, submitter, transferRecorder, m)

		transferSvc = service.NewTransferSvc(authService, orchestrator, usecase.NewTransferHistory(transferRecorder))
	}

	// Wrap the services in endpoints that can be invoked from other services
	// potentially running in different processes.
	transferEndpoints := service.NewEndpoints(transferSvc)
	transferEndpoints.Use(debug.LogPayloads())

	// Create channel used by both the signal handler and server goroutines
	// to notify the main goroutine when to stop the server.
	errc := make(chan error)

	// Setup interrupt handler. This optional step configures the process so
	// that SIGINT and SIGTERM signals cause the services to stop gracefully.
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(ctx)

	// Start the servers and send errors (if any) to the error channel.
	addr := ":" + *port
	if *bind != "*" {
		addr = *bind + ":" + *port
	}

	handleHTTPServer(ctx, addr, transferEndpoints, m, &wg, errc, *dbgF)

	// Wait for signal.
	slog.InfoContext(ctx, "received shutdown signal, stopping servers",
		"signal", <-errc,
	)

	// Send cancellation signal to the goroutines.
	cancel()

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	// Wait for the HTTP server to drain before the token store goes away
	done := make(chan struct{})
	go func() {
		wg.Wait()
		slog.InfoContext(shutdownCtx, "closing token store")
		if err := tokenStore.Close(); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to close token store", "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
		slog.InfoContext(ctx, "graceful shutdown completed")
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "graceful shutdown timed out")
	}

	slog.InfoContext(ctx, "exited")
}
