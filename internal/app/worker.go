package app

import (
	"context"

	"go-hris-engine/internal/bootstrap"
	"go-hris-engine/internal/messaging/kafka"
	"go-hris-engine/internal/messaging/kafka/producer"
	"go-hris-engine/internal/shared/connection"

	"github.com/sourcegraph/conc"
)

// RunWorker relays committed outbox rows to Kafka until ctx is done.
func RunWorker(ctx context.Context, infra *Infra) error {
	logger := infra.Logger.Named("app.worker")
	cfg := infra.Config

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.Kafka)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(infra.DB)
	router := bootstrap.NewOpsRouter(nil, infra.Checks())

	var wg conc.WaitGroup
	wg.Go(func() {
		producer.ProcessOutboxEvents(
			ctx,
			outboxRepo,
			kafkaWriter,
			infra.Logger,
			cfg.Kafka.OutboxPollInterval,
			cfg.Kafka.OutboxBatchSize,
		)
	})
	wg.Go(func() {
		bootstrap.StartHTTPServer(ctx, router, cfg.Ops, bootstrap.NewStdoutAuditLogger(infra.Logger))
	})

	logger.Info("worker running")
	wg.Wait()

	logger.Info("worker shut down")
	return nil
}
