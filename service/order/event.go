package order

import "github.com/shopspring/decimal"

// OrderCreatedEvent is written to the outbox in the checkout transaction and
// relayed to Kafka for the delivery fleet app.
type OrderCreatedEvent struct {
	OrderID        int64                   `json:"order_id"`
	ClientID       int64                   `json:"client_id"`
	TotalPrice     decimal.Decimal         `json:"total_price"`
	DeliveryMethod string                  `json:"delivery_method"`
	Items          []OrderCreatedEventItem `json:"items"`
}

type OrderCreatedEventItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// DeliveryStatusEvent is consumed from the delivery fleet app and applied as
// an order status transition.
type DeliveryStatusEvent struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}
