package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/metrics"
	"github.com/jonathan/cv-job-matcher/internal/profile"
	"github.com/jonathan/cv-job-matcher/internal/worker"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
)

var (
	workerCount       int
	workerMetricsPort int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume profile requests from RabbitMQ",
	Long: "Consume profile requests from the queue, download documents from S3, extract profiles, store them " +
		"and publish status updates. Requires RABBITMQ_URL.",
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVarP(&workerCount, "workers", "w", 0, "Number of concurrent consumers (overrides config)")
	workerCmd.Flags().IntVar(&workerMetricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (disabled when 0)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Worker.AMQPURL == "" {
		return fmt.Errorf("RABBITMQ_URL environment variable is required")
	}
	if workerCount > 0 {
		cfg.Worker.Workers = workerCount
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := amqp.Dial(cfg.Worker.AMQPURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer func() { _ = conn.Close() }()

	publisher, err := worker.NewAMQPPublisher(conn, cfg.Worker.Exchange)
	if err != nil {
		return err
	}

	m := metrics.New()
	opts := worker.ProcessorOptions{
		Extractor: profile.NewExtractor(profile.OptionsFromConfig(cfg.Extraction)),
		Publisher: publisher,
		Metrics:   m,
	}

	if cfg.Storage.S3Bucket != "" {
		objects, err := worker.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		opts.Objects = objects
	} else {
		log.Printf("[worker] S3_BUCKET not set, only inline text jobs can be processed")
	}

	if cfg.Storage.DatabaseURL != "" {
		database, err := openDatabase(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		opts.Store = database
	}

	if cfg.LLM.Mentions {
		rec, closeFn, err := newRecognizer(ctx, cfg.LLM)
		if err != nil {
			return err
		}
		defer closeFn()
		opts.Recognizer = rec
	}

	processor, err := worker.NewProcessor(opts)
	if err != nil {
		return err
	}

	if workerMetricsPort > 0 {
		metricsServer := serveMetrics(workerMetricsPort, m)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	pool := worker.NewPool(conn, processor, worker.PoolOptions{
		Queue:   cfg.Worker.Queue,
		Workers: cfg.Worker.Workers,
	})
	log.Printf("[worker] consuming %s with %d workers", cfg.Worker.Queue, cfg.Worker.Workers)
	if err := pool.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker pool stopped: %w", err)
	}
	log.Printf("[worker] shut down")
	return nil
}

func serveMetrics(port int, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[worker] metrics server error: %v", err)
		}
	}()
	return srv
}
