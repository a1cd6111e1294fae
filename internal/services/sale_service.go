package services

import (
	"context"
	"log/slog"

	"salesboard/internal/amqp"
	"salesboard/internal/core"
	"salesboard/internal/sales"
)

// EventPublisher delivers sale events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.SaleEvent) error
}

// SaleService records single sales and announces them.
type SaleService struct {
	store     sales.Writer
	publisher EventPublisher
}

// NewSaleService wires the store and an optional publisher (nil disables events).
func NewSaleService(store sales.Writer, publisher EventPublisher) *SaleService {
	return &SaleService{store: store, publisher: publisher}
}

// Record validates and stores the sale, returning it with its new ID.
// Validation errors are the core sentinels; store failures wrap
// ErrStorageUnavailable.
func (s *SaleService) Record(ctx context.Context, sale core.Sale) (core.Sale, error) {
	if err := sale.Validate(); err != nil {
		return core.Sale{}, err
	}

	id, err := s.store.CreateSale(ctx, sale)
	if err != nil {
		return core.Sale{}, storageErr("create sale", err)
	}
	sale.ID = id

	// The sale is stored; a failed publish only gets logged.
	publish(ctx, s.publisher, amqp.NewSaleRecordedEvent(sale))

	return sale, nil
}

func publish(ctx context.Context, p EventPublisher, ev *amqp.SaleEvent) {
	if p == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "type", ev.Type)
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sale event", "type", ev.Type, "error", err)
	}
}
