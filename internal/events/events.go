package events

import (
	"encoding/json"
	"time"
)

const (
	TopicProductEvents = "product_events"
	TopicCreditEvents  = "credit_events"
	TopicOrderEvents   = "order_events"
)

const (
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"

	EventCreditsGranted = "credits_granted"

	EventOrderCreated  = "order_created"
	EventOrderApproved = "order_approved"
	EventOrderRejected = "order_rejected"
)

type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

type ProductPayload struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
}

type CreditsGrantedPayload struct {
	UserID      uint    `json:"user_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type OrderItemPayload struct {
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity"`
}

type OrderPayload struct {
	OrderID      uint               `json:"order_id"`
	UserID       uint               `json:"user_id"`
	Status       string             `json:"status"`
	TotalCredits float64            `json:"total_credits"`
	Items        []OrderItemPayload `json:"items,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
