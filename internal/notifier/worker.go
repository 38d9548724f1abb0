package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tolkmarket/booking-be/internal/notify"
	"github.com/tolkmarket/booking-be/shared/rabbitmq"
)

// Config holds delivery worker configuration
type Config struct {
	Logger          *slog.Logger
	RabbitClient    *rabbitmq.Client
	Gateway         notify.Gateway
	Concurrency     int
	PrefetchCount   int
	DeliveryTimeout time.Duration
}

// message is one queued notification together with its broker delivery tag.
type message struct {
	Notification notify.Notification
	DeliveryTag  uint64
}

// Worker drains the notification queue and pushes each message through the
// provider gateway. Delivery is best effort: a provider failure is logged and
// the message is dropped, never redelivered.
type Worker struct {
	logger          *slog.Logger
	rabbitClient    *rabbitmq.Client
	gateway         notify.Gateway
	concurrency     int
	prefetchCount   int
	deliveryTimeout time.Duration
	workerID        string
	jobsChan        chan *message
	wg              sync.WaitGroup
	stopChan        chan struct{}
}

// NewWorker creates a new delivery worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:          cfg.Logger,
		rabbitClient:    cfg.RabbitClient,
		gateway:         cfg.Gateway,
		concurrency:     cfg.Concurrency,
		prefetchCount:   cfg.PrefetchCount,
		deliveryTimeout: cfg.DeliveryTimeout,
		workerID:        "notifier-" + uuid.NewString(),
		jobsChan:        make(chan *message),
		stopChan:        make(chan struct{}),
	}
}

// Start begins consuming and delivering notifications. It blocks until the
// context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("delivery_timeout", w.deliveryTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping notification worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Notification worker stopped")
}

// deliver pushes one notification with a per-message timeout.
func (w *Worker) deliver(ctx context.Context, msg *message) error {
	deliverCtx, cancel := context.WithTimeout(ctx, w.deliveryTimeout)
	defer cancel()

	if err := w.gateway.Deliver(deliverCtx, msg.Notification); err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	return nil
}
