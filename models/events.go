package models

import "time"

const (
	EventOrderPlaced           = "order.placed"
	EventOrderStatusChanged    = "order.status_changed"
	EventOrderDeleted          = "order.deleted"
	EventDeliveryStatusChanged = "delivery.status_changed"
)

// OrderEvent is published to the order events topic after an order changes.
type OrderEvent struct {
	EventType      string         `json:"event_type"`
	OrderID        string         `json:"order_id"`
	CustomerID     string         `json:"customer_id,omitempty"`
	ActorID        string         `json:"actor_id"`
	Status         OrderStatus    `json:"status,omitempty"`
	ShippingMethod ShippingMethod `json:"shipping_method,omitempty"`
	Total          float64        `json:"total,omitempty"`
	Items          []OrderItem    `json:"items,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// DeliveryEvent is published when a delivery changes status.
type DeliveryEvent struct {
	EventType    string         `json:"event_type"`
	DeliveryID   string         `json:"delivery_id"`
	OrderID      string         `json:"order_id"`
	ActorID      string         `json:"actor_id"`
	Status       DeliveryStatus `json:"delivery_status"`
	DeliveryDate *time.Time     `json:"delivery_date,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}
