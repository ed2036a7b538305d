// Command savetool inspects and edits gamestate save slots from the shell.
//
//	savetool [-profile p] [-slot n] [-engine expr|cel] <command> [args]
//
// Commands: show, new, pickup, complete, advance, check, achievements, slots.
// Storage, logging and telemetry are configured through the environment
// (an optional .env file is loaded first).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/goliatone/go-gamestate/pkg/logging"
	"github.com/goliatone/go-gamestate/pkg/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not loaded: %v", err)
	}

	cfg, err := parseConfig()
	if err != nil {
		log.Fatalf("savetool: %v", err)
	}

	logger, closer := logging.New(cfg.loggingConfig())
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tracer := telemetry.NoopTracer()
	if cfg.Telemetry {
		shutdown, err := telemetry.Setup(ctx, telemetry.WithServiceName(cfg.ServiceName))
		if err != nil {
			logger.WithError(err).Warn("telemetry setup failed, continuing without traces")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.WithError(err).Warn("telemetry shutdown failed")
				}
			}()
			tracer = telemetry.Tracer("store")
		}
	}

	if err := run(ctx, cfg, os.Args[1:], os.Stdout, logging.NewAdapter(logger), tracer); err != nil {
		logger.WithError(err).Error("savetool failed")
		closer.Close()
		os.Exit(1)
	}
}
