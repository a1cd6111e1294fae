package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"salesboard/internal/core"
)

// Event types, also used as the routing key suffix.
const (
	EventSaleRecorded = "sale.recorded"
	EventSalesSeeded  = "sales.seeded"
)

// SaleEvent notifies consumers that sale records changed. Recorded events
// carry the sale; seeded events carry the batch size and its revenue.
type SaleEvent struct {
	Type      string    `json:"type"`
	SaleID    string    `json:"sale_id,omitempty"`
	Category  string    `json:"category,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Date      string    `json:"date,omitempty"`
	Count     int       `json:"count,omitempty"`
	Revenue   string    `json:"revenue,omitempty"`
	Cleaned   bool      `json:"cleaned,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSaleRecordedEvent(s core.Sale) *SaleEvent {
	return &SaleEvent{
		Type:      EventSaleRecorded,
		SaleID:    s.ID,
		Category:  string(s.Category),
		Amount:    s.Amount.StringFixed(2),
		Date:      s.Date.String(),
		Timestamp: time.Now().UTC(),
	}
}

func NewSalesSeededEvent(count int, revenue decimal.Decimal, cleaned bool) *SaleEvent {
	return &SaleEvent{
		Type:      EventSalesSeeded,
		Count:     count,
		Revenue:   revenue.StringFixed(2),
		Cleaned:   cleaned,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *SaleEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SaleEventFromJSON decodes an event body.
func SaleEventFromJSON(data []byte) (*SaleEvent, error) {
	var ev SaleEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
