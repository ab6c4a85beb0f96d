package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. CountInStock never goes negative.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User         string             `bson:"user,omitempty" json:"user,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Price        float64            `bson:"price" json:"price"`
	CountInStock int                `bson:"countInStock" json:"countInStock"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductPatch is a field-level product update. Nil fields keep their
// stored value, so stock is only written when CountInStock is set.
type ProductPatch struct {
	Name         *string
	Description  *string
	Price        *float64
	CountInStock *int
	UpdatedAt    time.Time
}

// Apply copies the set fields onto p.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CountInStock != nil {
		p.CountInStock = *patch.CountInStock
	}
	p.UpdatedAt = patch.UpdatedAt
}

// CreateProductRequest is the payload of POST /api/products.
type CreateProductRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Description  string  `json:"description" validate:"max=2000"`
	Price        float64 `json:"price" validate:"gte=0"`
	CountInStock int     `json:"countInStock" validate:"gte=0"`
}

// UpdateProductRequest is the payload of PUT /api/products/:id. Pointer
// fields let a caller set price or stock to zero explicitly.
type UpdateProductRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string  `json:"description" validate:"omitempty,max=2000"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	CountInStock *int     `json:"countInStock" validate:"omitempty,gte=0"`
}
