package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"salesboard/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{70, 30 * time.Second}, // no overflow
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection error", errors.New("dial tcp: connection refused"), true},
		{"closed connection error", errors.New("connection closed"), true},
		{"EOF error", errors.New("unexpected EOF"), true},
		{"broken pipe error", errors.New("write: broken pipe"), true},
		{"closed network connection error", errors.New("use of closed network connection"), true},
		{"amqp closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"access refused", errors.New("Exception (403) Reason: \"ACCESS_REFUSED\""), false},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange"}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("Circuit breaker should be closed initially")
		}
	})

	t.Run("record success resets state", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 3)
		atomic.StoreInt32(&client.state, StateOpen)

		client.recordSuccess()

		if client.isCircuitOpen() {
			t.Error("Circuit breaker should be closed after success")
		}
		if atomic.LoadInt64(&client.failureCount) != 0 {
			t.Error("Failure count should be reset to 0 after success")
		}
	})

	t.Run("multiple failures open circuit", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 0)
		atomic.StoreInt32(&client.state, StateClosed)

		for i := 0; i < maxFailures-1; i++ {
			client.recordFailure()
		}
		if client.isCircuitOpen() {
			t.Error("Circuit breaker should stay closed below the threshold")
		}

		client.recordFailure()
		if !client.isCircuitOpen() {
			t.Error("Circuit breaker should be open after max failures")
		}
	})

	t.Run("circuit transitions to half-open after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		if client.isCircuitOpen() {
			t.Error("Circuit should transition to half-open after timeout")
		}
		if atomic.LoadInt32(&client.state) != StateHalfOpen {
			t.Error("State should be StateHalfOpen after timeout")
		}
	})

	t.Run("failure while half-open reopens", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 0)
		atomic.StoreInt32(&client.state, StateHalfOpen)

		client.recordFailure()

		if atomic.LoadInt32(&client.state) != StateOpen {
			t.Error("State should be StateOpen after a half-open failure")
		}
	})
}

func TestClient_Publish(t *testing.T) {
	ev := NewSaleRecordedEvent(core.Sale{ID: "1", Category: core.Food, Amount: decimal.NewFromInt(3), Date: core.NewDate(2025, 1, 1)})

	t.Run("fails fast when circuit is open", func(t *testing.T) {
		client := &Client{exchangeName: "test_exchange"}
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.Publish(context.Background(), ev)
		if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
			t.Errorf("Publish() error = %v, want circuit breaker error", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		client := &Client{exchangeName: "test_exchange"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.Publish(ctx, ev); !errors.Is(err, context.Canceled) {
			t.Errorf("Publish() error = %v, want context.Canceled", err)
		}
	})

	t.Run("missing channel counts as failure", func(t *testing.T) {
		client := &Client{exchangeName: "test_exchange"}
		if err := client.Publish(context.Background(), ev); err == nil {
			t.Error("Publish() should fail without a channel")
		}
		if atomic.LoadInt64(&client.failureCount) != 1 {
			t.Errorf("failureCount = %d, want 1", client.failureCount)
		}
	})
}

func TestRoutingKey(t *testing.T) {
	client := &Client{routingPrefix: "shop1."}
	if got := client.routingKey(EventSalesSeeded); got != "shop1.sales.seeded" {
		t.Errorf("routingKey() = %q", got)
	}
}

func TestSaleEvent_JSON(t *testing.T) {
	sale := core.Sale{
		ID:       "42",
		Category: core.Electronics,
		Amount:   decimal.RequireFromString("799.5"),
		Date:     core.NewDate(2025, 5, 4),
	}
	msg := NewSaleRecordedEvent(sale)
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Error("NewSaleRecordedEvent() Timestamp should be recent")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if strings.Contains(string(body), "revenue") {
		t.Errorf("recorded event should omit seeding fields: %s", body)
	}

	parsed, err := SaleEventFromJSON(body)
	if err != nil {
		t.Fatalf("SaleEventFromJSON() error = %v", err)
	}
	if parsed.Type != EventSaleRecorded || parsed.SaleID != "42" {
		t.Errorf("parsed = %+v", parsed)
	}
	if parsed.Amount != "799.50" || parsed.Date != "2025-05-04" || parsed.Category != "ELEC" {
		t.Errorf("parsed payload = %+v", parsed)
	}
}

func TestSalesSeededEvent(t *testing.T) {
	ev := NewSalesSeededEvent(100, decimal.RequireFromString("41000.1"), true)
	if ev.Type != EventSalesSeeded || ev.Count != 100 || ev.Revenue != "41000.10" || !ev.Cleaned {
		t.Errorf("NewSalesSeededEvent() = %+v", ev)
	}
}

func TestSaleEvent_InvalidJSON(t *testing.T) {
	if _, err := SaleEventFromJSON([]byte(`{"type": 1}`)); err == nil {
		t.Error("SaleEventFromJSON() should fail with invalid JSON")
	}
}
