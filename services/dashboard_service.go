package services

import (
	"context"
	"fmt"

	"orderpro/models"
	aws_pkg "orderpro/pkg/aws"
	"orderpro/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardDims = map[string]string{"Cache": "dashboard"}

// DashboardService aggregates the dashboard metrics. Results are served
// from the metrics cache while it holds a fresh entry.
type DashboardService struct {
	store   *repository.Store
	views   viewBuilder
	cache   MetricsCache
	metrics businessMetrics
	logger  *zap.Logger
}

func NewDashboardService(store *repository.Store, cache MetricsCache, logger *zap.Logger) *DashboardService {
	if cache == nil {
		cache = noopCache{}
	}
	return &DashboardService{
		store:  store,
		views:  viewBuilder{customers: store.Customers, products: store.Products},
		cache:  cache,
		logger: logger,
	}
}

// WithMetrics enables cache hit and miss counters.
func (s *DashboardService) WithMetrics(rec MetricsRecorder) *DashboardService {
	s.metrics = businessMetrics{rec: rec, logger: s.logger}
	return s
}

func (s *DashboardService) ComputeDashboardMetrics(ctx context.Context) (*models.DashboardMetrics, error) {
	cached, generation, ok := s.cache.Get(ctx)
	if ok {
		s.metrics.count(aws_pkg.MetricCacheHits, dashboardDims)
		return cached, nil
	}
	s.metrics.count(aws_pkg.MetricCacheMisses, dashboardDims)

	m, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, generation, m)
	return m, nil
}

func (s *DashboardService) compute(ctx context.Context) (*models.DashboardMetrics, error) {
	var m models.DashboardMetrics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if m.TotalOrders, err = s.store.Orders.Count(gctx); err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if m.TotalRevenue, err = s.store.Orders.SumTotals(gctx); err != nil {
			return fmt.Errorf("sum revenue: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if m.TotalCustomers, err = s.store.Customers.Count(gctx); err != nil {
			return fmt.Errorf("count customers: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if m.TotalProducts, err = s.store.Products.Count(gctx); err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if m.LowStockProducts, err = s.store.Products.FindLowStock(gctx, models.LowStockThreshold, models.LowStockLimit); err != nil {
			return fmt.Errorf("find low stock products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if m.LowStockProducts == nil {
		m.LowStockProducts = []models.Product{}
	}

	orders, err := s.store.Orders.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if m.RecentActivity, err = s.views.orderViews(ctx, orders); err != nil {
		return nil, err
	}

	s.logger.Debug("dashboard metrics computed",
		zap.Int64("orders", m.TotalOrders),
		zap.Float64("revenue", m.TotalRevenue),
	)
	return &m, nil
}
