package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/server"
	"github.com/energeticacoop/photovoltaic-studies/pkg/storage"
	"github.com/energeticacoop/photovoltaic-studies/pkg/study"
)

func main() {
	// init packages
	st := study.Configured()
	s := storage.Configured()

	// init server
	srv := server.Configured(st, s)

	// parse flags
	lflag.Configure()

	level, err := log.ConfigureFromFlags()
	if err != nil {
		panic(err)
	}
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// If initialization inside lflag.Do failed, we wouldn't be here.
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", slog.Any("error", err))
		}
	}()

	// Run blocks until the context is canceled or the server fails
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
