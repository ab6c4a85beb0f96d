package services

import (
	"context"
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

type DeliveryService struct {
	store   *repository.Store
	views   viewBuilder
	cache   MetricsCache
	events  EventPublisher
	metrics businessMetrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewDeliveryService(store *repository.Store, cache MetricsCache, events EventPublisher, logger *zap.Logger) *DeliveryService {
	if cache == nil {
		cache = noopCache{}
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &DeliveryService{
		store:  store,
		views:  viewBuilder{customers: store.Customers, products: store.Products},
		cache:  cache,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *DeliveryService) WithMetrics(rec MetricsRecorder) *DeliveryService {
	s.metrics = businessMetrics{rec: rec, logger: s.logger}
	return s
}

// UpdateDeliveryStatus moves a delivery to a new status. The delivery date
// is stamped on the first transition into Delivered and cleared on any
// transition out of it.
func (s *DeliveryService) UpdateDeliveryStatus(ctx context.Context, actor models.Actor, id string, req *models.UpdateDeliveryStatusRequest) (*models.DeliveryView, error) {
	if req == nil || req.DeliveryStatus == "" {
		return nil, apperrors.Validation("Delivery status is required")
	}
	if !req.DeliveryStatus.Valid() {
		return nil, apperrors.Validation("Invalid delivery status: %q", req.DeliveryStatus)
	}

	delivery, err := s.store.Deliveries.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Delivery not found", "load delivery")
	}

	previous := delivery.Status
	if err := delivery.Transition(req.DeliveryStatus, req.DeliveryDate, s.now()); err != nil {
		return nil, apperrors.Validation("Invalid delivery status: %q", req.DeliveryStatus)
	}
	if err := s.store.Deliveries.Update(ctx, delivery); err != nil {
		return nil, notFoundOr(err, "Delivery not found", "update delivery")
	}

	s.metrics.count(aws_pkg.MetricDeliveryUpdates, map[string]string{"Status": string(delivery.Status)})
	s.cache.Invalidate(ctx)
	s.events.Publish(ctx, models.DeliveryEvent{
		EventType:    models.EventDeliveryStatusChanged,
		DeliveryID:   delivery.ID.Hex(),
		OrderID:      delivery.Order.Hex(),
		ActorID:      actor.ID,
		Status:       delivery.Status,
		DeliveryDate: delivery.Date,
		Timestamp:    delivery.UpdatedAt,
	})
	applog.FromContext(ctx, s.logger).Info("Delivery status updated",
		zap.String("delivery_id", delivery.ID.Hex()),
		zap.String("from", string(previous)),
		zap.String("to", string(delivery.Status)),
		zap.String("actor", actor.ID),
	)

	views, err := s.deliveryViews(ctx, []models.Delivery{*delivery})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListDeliveries returns every delivery with its order populated.
func (s *DeliveryService) ListDeliveries(ctx context.Context) ([]models.DeliveryView, error) {
	deliveries, err := s.store.Deliveries.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return s.deliveryViews(ctx, deliveries)
}

func (s *DeliveryService) deliveryViews(ctx context.Context, deliveries []models.Delivery) ([]models.DeliveryView, error) {
	orderIDs := make([]primitive.ObjectID, 0, len(deliveries))
	for _, d := range deliveries {
		orderIDs = append(orderIDs, d.Order)
	}
	orders, err := s.store.Orders.FindByIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load delivery orders: %w", err)
	}

	found := make([]models.Order, 0, len(orders))
	for _, id := range orderIDs {
		if o, ok := orders[id]; ok {
			found = append(found, *o)
		}
	}
	orderViews, err := s.views.orderViews(ctx, found)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.OrderView, len(orderViews))
	for i := range orderViews {
		byID[orderViews[i].ID] = &orderViews[i]
	}

	views := make([]models.DeliveryView, 0, len(deliveries))
	for _, d := range deliveries {
		views = append(views, models.DeliveryView{
			ID:        d.ID,
			Order:     byID[d.Order],
			Status:    d.Status,
			Date:      d.Date,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return views, nil
}
