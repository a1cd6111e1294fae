package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"salesboard/internal/amqp"
	"salesboard/internal/core"
)

// fixedNow is 2025-06-30 10:00 UTC.
var fixedNow = time.Date(2025, 6, 30, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func sale(c core.Category, amount string, d core.Date) core.Sale {
	return core.Sale{Category: c, Amount: decimal.RequireFromString(amount), Date: d}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.SaleEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.SaleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var errBoom = errors.New("boom")
