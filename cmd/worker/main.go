package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfg "github.com/docforge/uploader/config"
	"github.com/docforge/uploader/pkg/logger"
	"github.com/docforge/uploader/pkg/queue"
	"github.com/docforge/uploader/pkg/storage"
	"github.com/docforge/uploader/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store, err := storage.NewStorage(storage.StorageTypeMinio, log)
	if err != nil {
		log.Error("Failed to initialize storage", logger.Error(err))
		os.Exit(1)
	}

	q, err := queue.GetQueue()
	if err != nil {
		log.Error("Failed to initialize queue", logger.Error(err))
		os.Exit(1)
	}

	rc := cfg.GetRedisConfig()
	workerCfg := &worker.Config{
		RedisAddr:     rc.Addr,
		RedisPassword: rc.Password,
		RedisDB:       rc.DB,
		Concurrency:   10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}

	ingestWorker, err := worker.NewIngestWorker(workerCfg, store, q, log)
	if err != nil {
		log.Error("Failed to create ingest worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ingestWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	ingestWorker.Stop()
	log.Info("Worker stopped")
}
