package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"housingprice/internal/config"
	"housingprice/internal/logging"
	"housingprice/internal/pipeline"
	"housingprice/internal/search"
	"housingprice/internal/storage"
	"housingprice/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	store, err := storage.OpenStore(cfg)
	must(err)
	defer store.Close()

	client := search.NewClient(cfg)
	processor := pipeline.NewProcessingService(store, storage.NewRawStore(cfg.RawDir()), client, client, cfg)
	svc := watcher.NewService(store, processor, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
