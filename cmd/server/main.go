package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relaygw/relay/config"
	"github.com/relaygw/relay/pkg/compressor"
	"github.com/relaygw/relay/pkg/otel"
	"github.com/relaygw/relay/pkg/session"
	"github.com/relaygw/relay/pkg/storage"
	"github.com/relaygw/relay/pkg/task"
	"github.com/relaygw/relay/pkg/tokenizer"
	"github.com/relaygw/relay/server"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "config.yaml", "configuration file")

	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := otel.Setup(ctx, "relay", version); err != nil {
		slog.Error("unable to setup telemetry", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Parse(*configFlag)

	if err != nil {
		slog.Error("unable to parse config", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.Database)

	if err != nil {
		slog.Error("unable to open database", "error", err)
		os.Exit(1)
	}

	defer db.Close()

	sessions, err := session.NewStore(db)

	if err != nil {
		slog.Error("unable to create session store", "error", err)
		os.Exit(1)
	}

	tasks, err := task.NewStore(db)

	if err != nil {
		slog.Error("unable to create task store", "error", err)
		os.Exit(1)
	}

	var compress *compressor.Compressor

	if completer, ok := cfg.Completer(""); ok {
		compress = compressor.FromCompleter(completer, tokenizer.Generic())
	}

	options := []task.ManagerOption{
		task.WithLogger(slog.Default()),
	}

	if compress != nil {
		options = append(options, task.WithCompressor(compress))
	}

	manager := task.NewManager(tasks, sessions, cfg.Completer, options...)

	if err := manager.Restore(ctx); err != nil {
		slog.Error("unable to restore tasks", "error", err)
		os.Exit(1)
	}

	for _, def := range cfg.Tasks() {
		if _, err := manager.Add(ctx, def); err != nil {
			slog.Error("unable to add configured task", "title", def.Title, "error", err)
			os.Exit(1)
		}
	}

	defer manager.Close()

	srv, err := server.New(cfg, sessions, manager, compress)

	if err != nil {
		slog.Error("unable to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("starting server", "address", cfg.Address)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
