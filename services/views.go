package services

import (
	"context"
	"fmt"

	"orderpro/models"
	"orderpro/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// viewBuilder resolves the customer and product references of orders with
// one batched lookup per collection. References that no longer resolve keep
// their id and an empty name.
type viewBuilder struct {
	customers repository.CustomerRepository
	products  repository.ProductRepository
}

func (b viewBuilder) orderViews(ctx context.Context, orders []models.Order) ([]models.OrderView, error) {
	views := make([]models.OrderView, 0, len(orders))
	if len(orders) == 0 {
		return views, nil
	}

	customerIDs := make([]primitive.ObjectID, 0, len(orders))
	productIDs := make([]primitive.ObjectID, 0, len(orders))
	seen := make(map[primitive.ObjectID]bool)
	for _, o := range orders {
		if !seen[o.Customer] {
			seen[o.Customer] = true
			customerIDs = append(customerIDs, o.Customer)
		}
		for _, item := range o.Items {
			if !seen[item.Product] {
				seen[item.Product] = true
				productIDs = append(productIDs, item.Product)
			}
		}
	}

	customers, err := b.customers.FindByIDs(ctx, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("load order customers: %w", err)
	}
	products, err := b.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}

	for _, o := range orders {
		views = append(views, buildOrderView(o, customers, products))
	}
	return views, nil
}

func (b viewBuilder) orderView(ctx context.Context, order *models.Order) (*models.OrderView, error) {
	views, err := b.orderViews(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func buildOrderView(o models.Order, customers map[primitive.ObjectID]*models.Customer, products map[primitive.ObjectID]*models.Product) models.OrderView {
	view := models.OrderView{
		ID:             o.ID,
		User:           o.User,
		Customer:       models.CustomerRef{ID: o.Customer},
		Items:          make([]models.OrderItemView, 0, len(o.Items)),
		Total:          o.Total,
		Status:         o.Status,
		ShippingMethod: o.ShippingMethod,
		OrderDate:      o.OrderDate,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if c, ok := customers[o.Customer]; ok {
		view.Customer.Name = c.Name
		view.Customer.Email = c.Email
	}
	for _, item := range o.Items {
		ref := models.ProductRef{ID: item.Product}
		if p, ok := products[item.Product]; ok {
			ref.Name = p.Name
			ref.Price = p.Price
		}
		view.Items = append(view.Items, models.OrderItemView{Product: ref, Quantity: item.Quantity})
	}
	return view
}
