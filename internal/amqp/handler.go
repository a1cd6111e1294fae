package amqp

import (
	"context"

	applog "salesboard/internal/log"
)

// Handler processes one consumed event. A returned error requeues it.
type Handler func(ctx context.Context, ev *SaleEvent) error

// LoggingHandler writes every event to logger. Unknown event types are
// logged and acknowledged so they never loop through the queue.
func LoggingHandler(logger *applog.Logger) Handler {
	logger = logger.WithComponent(applog.ComponentEvents)
	return func(ctx context.Context, ev *SaleEvent) error {
		switch ev.Type {
		case EventSaleRecorded:
			fields := applog.NewFields().WithSale(ev.SaleID, ev.Category, ev.Amount, ev.Date)
			logger.InfoContext(ctx, "Sale recorded event", append(fields.ToSlice(), "published_at", ev.Timestamp)...)
		case EventSalesSeeded:
			logger.InfoContext(ctx, "Sales seeded event",
				"count", ev.Count,
				"revenue", ev.Revenue,
				"cleaned", ev.Cleaned,
				"published_at", ev.Timestamp)
		default:
			logger.WarnContext(ctx, "Ignoring unknown event type", "type", ev.Type)
		}
		return nil
	}
}
