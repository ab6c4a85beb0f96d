package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "orderpro/common/errors"
	applog "orderpro/common/logger"
	"orderpro/models"
	aws_pkg "orderpro/pkg/aws"
	"orderpro/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	deliveryAttempts   = 3
	deliveryRetryDelay = 50 * time.Millisecond
)

// OrderService places orders and manages their lifecycle. Placement reserves
// stock with conditional decrements, so concurrent placements against the
// same product can never drive its stock negative.
type OrderService struct {
	store   *repository.Store
	views   viewBuilder
	cache   MetricsCache
	events  EventPublisher
	metrics businessMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewOrderService creates an OrderService. cache and events may be nil.
func NewOrderService(store *repository.Store, cache MetricsCache, events EventPublisher, logger *zap.Logger) *OrderService {
	if cache == nil {
		cache = noopCache{}
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &OrderService{
		store:  store,
		views:  viewBuilder{customers: store.Customers, products: store.Products},
		cache:  cache,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithMetrics enables business metrics for placements.
func (s *OrderService) WithMetrics(rec MetricsRecorder) *OrderService {
	s.metrics = businessMetrics{rec: rec, logger: s.logger}
	return s
}

// reservation is one validated line of a placement.
type reservation struct {
	product  *models.Product
	quantity int
}

// PlaceOrder validates the request, reserves stock for every line and
// persists the order together with its Pending delivery. Either all of it
// happens or none of it does.
func (s *OrderService) PlaceOrder(ctx context.Context, actor models.Actor, req *models.PlaceOrderRequest) (*models.PlacedOrder, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, apperrors.Validation("No order items")
	}
	method := req.ShippingMethod
	if method == "" {
		method = models.ShippingStandard
	}
	if !method.Valid() {
		return nil, apperrors.Validation("Invalid shipping method: %s", method)
	}
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return nil, apperrors.Validation("Invalid quantity for item %d: must be at least 1", i+1)
		}
	}

	var placed *models.PlacedOrder
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.placeOrder(ctx, actor, req, method)
		if err != nil {
			return err
		}
		placed = p
		return nil
	})
	if err != nil {
		kind := apperrors.KindOf(err)
		if kind == apperrors.KindInternal {
			applog.FromContext(ctx, s.logger).Error("order placement failed", zap.String("actor", actor.ID), zap.Error(err))
		}
		s.metrics.count(aws_pkg.MetricOrdersFailed, map[string]string{"Reason": string(kind)})
		return nil, err
	}

	dims := map[string]string{"ShippingMethod": string(method)}
	s.metrics.count(aws_pkg.MetricOrdersCreated, dims)
	s.metrics.value(aws_pkg.MetricOrderValue, placed.Order.Total, dims)

	s.cache.Invalidate(ctx)
	s.events.Publish(ctx, models.OrderEvent{
		EventType:      models.EventOrderPlaced,
		OrderID:        placed.Order.ID.Hex(),
		CustomerID:     placed.Order.Customer.Hex(),
		ActorID:        actor.ID,
		Status:         placed.Order.Status,
		ShippingMethod: placed.Order.ShippingMethod,
		Total:          placed.Order.Total,
		Items:          placed.Order.Items,
		Timestamp:      placed.Order.CreatedAt,
	})
	applog.FromContext(ctx, s.logger).Info("Order placed",
		zap.String("order_id", placed.Order.ID.Hex()),
		zap.String("delivery_id", placed.Delivery.ID.Hex()),
		zap.Float64("total", placed.Order.Total),
		zap.String("actor", actor.ID),
	)
	return placed, nil
}

func (s *OrderService) placeOrder(ctx context.Context, actor models.Actor, req *models.PlaceOrderRequest, method models.ShippingMethod) (*models.PlacedOrder, error) {
	customer, err := s.store.Customers.FindByID(ctx, req.Customer)
	if err != nil {
		return nil, notFoundOr(err, "Customer not found", "load customer")
	}

	lines, total, err := s.checkStock(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if err := s.reserveStock(ctx, lines); err != nil {
		return nil, err
	}
	s.metrics.value(aws_pkg.MetricInventoryReserved, float64(units(lines)), nil)

	now := s.now()
	order := &models.Order{
		User:           actor.ID,
		Customer:       customer.ID,
		Items:          make([]models.OrderItem, 0, len(lines)),
		Total:          total,
		Status:         models.OrderStatusProcessing,
		ShippingMethod: method,
		OrderDate:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{Product: line.product.ID, Quantity: line.quantity})
	}

	if err := s.store.Orders.Create(ctx, order); err != nil {
		s.releaseStock(ctx, lines)
		return nil, fmt.Errorf("create order: %w", err)
	}

	delivery, err := s.createDelivery(ctx, order.ID)
	if err != nil {
		if delErr := s.store.Orders.Delete(ctx, order.ID); delErr != nil {
			s.logger.Error("failed to roll back order without delivery",
				zap.String("order_id", order.ID.Hex()), zap.Error(delErr))
		}
		s.releaseStock(ctx, lines)
		return nil, fmt.Errorf("create delivery for order %s: %w", order.ID.Hex(), err)
	}

	return &models.PlacedOrder{Order: order, Delivery: delivery}, nil
}

// checkStock resolves every line and verifies availability without writing
// anything. Quantities requested earlier in the same order count against
// the stock of repeated products. The total uses stored prices only.
func (s *OrderService) checkStock(ctx context.Context, items []models.LineItemRequest) ([]reservation, float64, error) {
	lines := make([]reservation, 0, len(items))
	requested := make(map[string]int, len(items))
	var total float64

	for _, item := range items {
		product, err := s.store.Products.FindByID(ctx, item.Product)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, 0, apperrors.NotFound("Product not found: %s", item.Product)
			}
			return nil, 0, fmt.Errorf("load product %s: %w", item.Product, err)
		}

		key := product.ID.Hex()
		if product.CountInStock-requested[key] < item.Quantity {
			return nil, 0, apperrors.Conflict("Not enough stock for %s", product.Name)
		}
		requested[key] += item.Quantity
		total += product.Price * float64(item.Quantity)
		lines = append(lines, reservation{product: product, quantity: item.Quantity})
	}
	return lines, models.RoundCents(total), nil
}

// reserveStock decrements stock line by line. When a decrement fails the
// lines already applied are restored before the error is returned.
func (s *OrderService) reserveStock(ctx context.Context, lines []reservation) error {
	for i, line := range lines {
		err := s.store.Products.DecrementStock(ctx, line.product.ID, line.quantity)
		if err == nil {
			continue
		}
		s.releaseStock(ctx, lines[:i])

		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			return apperrors.Conflict("Not enough stock for %s", line.product.Name)
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NotFound("Product not found: %s", line.product.ID.Hex())
		default:
			return fmt.Errorf("reserve stock for product %s: %w", line.product.ID.Hex(), err)
		}
	}
	return nil
}

// releaseStock gives reserved units back. Failures are logged and skipped
// so one bad line does not keep the others reserved.
func (s *OrderService) releaseStock(ctx context.Context, lines []reservation) {
	if len(lines) > 0 {
		s.metrics.value(aws_pkg.MetricInventoryReleased, float64(units(lines)), nil)
	}
	for _, line := range lines {
		if err := s.store.Products.IncrementStock(ctx, line.product.ID, line.quantity); err != nil {
			s.logger.Error("failed to release stock",
				zap.String("product_id", line.product.ID.Hex()),
				zap.Int("quantity", line.quantity),
				zap.Error(err),
			)
		}
	}
}

func units(lines []reservation) int {
	n := 0
	for _, line := range lines {
		n += line.quantity
	}
	return n
}

// createDelivery retries the idempotent delivery insert a few times before
// giving up.
func (s *OrderService) createDelivery(ctx context.Context, orderID primitive.ObjectID) (*models.Delivery, error) {
	var lastErr error
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		delivery := models.NewDelivery(orderID, s.now())
		lastErr = s.store.Deliveries.CreateForOrder(ctx, delivery)
		if lastErr == nil {
			return delivery, nil
		}
		s.logger.Warn("delivery insert failed",
			zap.String("order_id", orderID.Hex()),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt == deliveryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(lastErr, ctx.Err())
		case <-time.After(deliveryRetryDelay * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

// UpdateOrderStatus sets the status of an order. Stock is never adjusted,
// not even on cancellation.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor models.Actor, id string, status models.OrderStatus) (*models.OrderView, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("Invalid order status: %q", status)
	}

	order, err := s.store.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Order not found", "load order")
	}

	previous := order.Status
	order.Status = status
	order.UpdatedAt = s.now()
	if err := s.store.Orders.Update(ctx, order); err != nil {
		return nil, notFoundOr(err, "Order not found", "update order")
	}

	s.cache.Invalidate(ctx)
	s.events.Publish(ctx, models.OrderEvent{
		EventType: models.EventOrderStatusChanged,
		OrderID:   order.ID.Hex(),
		ActorID:   actor.ID,
		Status:    status,
		Timestamp: order.UpdatedAt,
	})
	applog.FromContext(ctx, s.logger).Info("Order status updated",
		zap.String("order_id", order.ID.Hex()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("actor", actor.ID),
	)
	return s.views.orderView(ctx, order)
}

// ListOrders returns every order with customer and products populated,
// newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	orders, err := s.store.Orders.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return s.views.orderViews(ctx, orders)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.OrderView, error) {
	order, err := s.store.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Order not found", "load order")
	}
	return s.views.orderView(ctx, order)
}

// DeleteOrder removes an order and its delivery. Reserved stock is not
// returned.
func (s *OrderService) DeleteOrder(ctx context.Context, actor models.Actor, id string) error {
	order, err := s.store.Orders.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Order not found", "load order")
	}

	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Deliveries.DeleteByOrderID(ctx, order.ID); err != nil {
			return err
		}
		return s.store.Orders.Delete(ctx, order.ID)
	})
	if err != nil {
		return notFoundOr(err, "Order not found", "delete order")
	}

	s.cache.Invalidate(ctx)
	s.events.Publish(ctx, models.OrderEvent{
		EventType: models.EventOrderDeleted,
		OrderID:   order.ID.Hex(),
		ActorID:   actor.ID,
		Timestamp: s.now(),
	})
	applog.FromContext(ctx, s.logger).Info("Order deleted", zap.String("order_id", order.ID.Hex()), zap.String("actor", actor.ID))
	return nil
}
