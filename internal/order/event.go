package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tecnoshop/checkout-service/internal/model"
)

const EventTypeOrderCreated = "OrderCreated"

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID            string             `json:"id"`
	BuyerID       string             `json:"buyer_id"`
	PaymentMethod string             `json:"payment_method"`
	Currency      string             `json:"currency"`
	Total         int64              `json:"total"`
	Items         []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// NewOrderCreatedRecord builds the outbox row announcing o. The record is
// keyed by order id so every event for one order lands on one partition.
func NewOrderCreatedRecord(o *model.Order, topic string) (*model.OutboxRecord, error) {
	event := OrderCreatedEvent{
		EventID:   uuid.New().String(),
		EventType: EventTypeOrderCreated,
		Timestamp: o.CreatedAt.UTC(),
		Payload: OrderPayload{
			ID:            o.ID,
			BuyerID:       o.BuyerID,
			PaymentMethod: string(o.PaymentMethod),
			Currency:      o.Currency,
			Total:         o.Total,
			Items:         make([]OrderItemPayload, 0, len(o.LineItems)),
		},
	}
	for _, li := range o.LineItems {
		event.Payload.Items = append(event.Payload.Items, OrderItemPayload{
			ProductID: li.ProductID,
			StoreID:   li.StoreID,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order created event")
	}

	return &model.OutboxRecord{
		EventID:   event.EventID,
		Topic:     topic,
		Key:       o.ID,
		Payload:   payload,
		CreatedAt: o.CreatedAt,
	}, nil
}
