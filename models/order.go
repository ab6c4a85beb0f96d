package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "Standard"
	ShippingExpress  ShippingMethod = "Express"
)

func (m ShippingMethod) Valid() bool {
	return m == ShippingStandard || m == ShippingExpress
}

// OrderItem is a persisted line item. The price is deliberately absent: the
// order total is the only monetary snapshot.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Order is created together with exactly one Delivery.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User           string             `bson:"user" json:"user"`
	Customer       primitive.ObjectID `bson:"customer" json:"customer"`
	Items          []OrderItem        `bson:"items" json:"items"`
	Total          float64            `bson:"total" json:"total"`
	Status         OrderStatus        `bson:"status" json:"status"`
	ShippingMethod ShippingMethod     `bson:"shippingMethod" json:"shippingMethod"`
	OrderDate      time.Time          `bson:"orderDate" json:"orderDate"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LineItemRequest is one requested (product, quantity) pair.
type LineItemRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// PlaceOrderRequest is the payload of POST /api/orders.
type PlaceOrderRequest struct {
	Customer       string            `json:"customer"`
	Items          []LineItemRequest `json:"items"`
	ShippingMethod ShippingMethod    `json:"shippingMethod"`
}

// UpdateOrderStatusRequest is the payload of PUT /api/orders/:id.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// PlacedOrder is the result of a successful placement.
type PlacedOrder struct {
	Order    *Order    `json:"order"`
	Delivery *Delivery `json:"delivery"`
}

// CustomerRef is the populated customer of an order view.
type CustomerRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email,omitempty"`
}

// ProductRef is the populated product of an order view line.
type ProductRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Price float64            `json:"price,omitempty"`
}

type OrderItemView struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// OrderView is an order with its customer and products resolved.
type OrderView struct {
	ID             primitive.ObjectID `json:"_id"`
	User           string             `json:"user"`
	Customer       CustomerRef        `json:"customer"`
	Items          []OrderItemView    `json:"items"`
	Total          float64            `json:"total"`
	Status         OrderStatus        `json:"status"`
	ShippingMethod ShippingMethod     `json:"shippingMethod"`
	OrderDate      time.Time          `json:"orderDate"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// RoundCents rounds a monetary amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
