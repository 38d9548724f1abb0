package notifier

import (
	"context"
	"fmt"
	"log/slog"
)

// spawnWorkerPool spawns N delivery goroutines based on concurrency
// configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning delivery pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main delivery loop for each goroutine. Every message is
// acknowledged after processing: a provider failure is logged, never retried.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Delivery goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Delivery goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Delivery goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case msg, ok := <-w.jobsChan:
			if !ok {
				w.logger.Info("Delivery goroutine stopping - jobsChan closed",
					slog.String("worker_name", workerName),
				)
				return
			}

			if err := w.deliver(ctx, msg); err != nil {
				w.logger.Error("Notification delivery failed",
					slog.String("worker_name", workerName),
					slog.Uint64("delivery_tag", msg.DeliveryTag),
					slog.String("error", err.Error()),
				)
			}

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK",
					slog.String("worker_name", workerName),
					slog.Uint64("delivery_tag", msg.DeliveryTag),
				)
				continue
			}
			if ackErr := channel.Ack(msg.DeliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.Uint64("delivery_tag", msg.DeliveryTag),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}
