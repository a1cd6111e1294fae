// Command sales-events consumes sale events from RabbitMQ and logs them.
package main

import (
	"context"
	"errors"
	"os"

	"salesboard/internal/amqp"
	"salesboard/internal/cli"
	applog "salesboard/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentEvents)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required to consume sale events")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	client, err := amqp.Dial(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingPrefix, cfg.AMQPDialAttempts)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting sales-events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"routing_prefix", cfg.AMQPRoutingPrefix)

	err = client.Consume(ctx, cfg.AMQPQueue, amqp.LoggingHandler(logger))
	if closeErr := client.Close(); closeErr != nil {
		logger.Warn("Failed to close AMQP client", applog.FieldError, closeErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
