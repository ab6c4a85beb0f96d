package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "Pending"
	DeliveryInTransit DeliveryStatus = "In Transit"
	DeliveryDelivered DeliveryStatus = "Delivered"
)

var ErrInvalidDeliveryStatus = errors.New("invalid delivery status")

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryInTransit, DeliveryDelivered:
		return true
	}
	return false
}

// Delivery tracks the shipment of one order.
//
// Status and Date form a single state: Date is set iff Status is Delivered.
// Transition is the only code path that changes either field.
type Delivery struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Order     primitive.ObjectID `bson:"order" json:"order"`
	Status    DeliveryStatus     `bson:"deliveryStatus" json:"deliveryStatus"`
	Date      *time.Time         `bson:"deliveryDate,omitempty" json:"deliveryDate,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewDelivery returns the Pending delivery of a freshly placed order.
func NewDelivery(orderID primitive.ObjectID, now time.Time) *Delivery {
	return &Delivery{
		Order:     orderID,
		Status:    DeliveryPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the delivery to next. Entering Delivered stamps date (or
// now when date is nil) unless a date is already recorded; any other status
// clears the date.
func (d *Delivery) Transition(next DeliveryStatus, date *time.Time, now time.Time) error {
	if !next.Valid() {
		return ErrInvalidDeliveryStatus
	}

	if next == DeliveryDelivered {
		if d.Date == nil {
			stamp := now
			if date != nil {
				stamp = *date
			}
			stamp = stamp.UTC()
			d.Date = &stamp
		}
	} else {
		d.Date = nil
	}

	d.Status = next
	d.UpdatedAt = now
	return nil
}

// UpdateDeliveryStatusRequest is the payload of PUT /api/deliveries/:id/status.
type UpdateDeliveryStatusRequest struct {
	DeliveryStatus DeliveryStatus `json:"deliveryStatus"`
	DeliveryDate   *time.Time     `json:"deliveryDate,omitempty"`
}

// DeliveryView is a delivery with its order populated. Order is nil when the
// referenced order no longer exists.
type DeliveryView struct {
	ID        primitive.ObjectID `json:"_id"`
	Order     *OrderView         `json:"order"`
	Status    DeliveryStatus     `json:"deliveryStatus"`
	Date      *time.Time         `json:"deliveryDate,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
