package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "orderpro/common/errors"
	"orderpro/models"
	"orderpro/repository"

	"go.uber.org/zap"
)

// ProductService manages the catalog. Stock is only ever reduced by order
// placement; here it can be set to any non-negative value.
type ProductService struct {
	repo   repository.ProductRepository
	cache  MetricsCache
	logger *zap.Logger
	now    func() time.Time
}

func NewProductService(repo repository.ProductRepository, cache MetricsCache, logger *zap.Logger) *ProductService {
	if cache == nil {
		cache = noopCache{}
	}
	return &ProductService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "load product")
	}
	return p, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, actor models.Actor, req *models.CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	product := &models.Product{
		User:         actor.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        models.RoundCents(req.Price),
		CountInStock: req.CountInStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.Int("stock", product.CountInStock),
		zap.String("actor", actor.ID),
	)
	return product, nil
}

// UpdateProduct writes only the fields present in req. Stock reserved by
// placements in the meantime is kept unless req sets countInStock.
func (s *ProductService) UpdateProduct(ctx context.Context, actor models.Actor, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	patch := models.ProductPatch{
		Description:  req.Description,
		CountInStock: req.CountInStock,
		UpdatedAt:    s.now(),
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Validation("Invalid name: failed required")
		}
		patch.Name = &name
	}
	if req.Price != nil {
		price := models.RoundCents(*req.Price)
		patch.Price = &price
	}

	product, err := s.repo.Patch(ctx, id, patch)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "update product")
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("Product updated", zap.String("product_id", product.ID.Hex()), zap.String("actor", actor.ID))
	return product, nil
}

// DeleteProduct removes a product from the catalog. Orders that reference
// it keep the reference.
func (s *ProductService) DeleteProduct(ctx context.Context, actor models.Actor, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Product not found", "delete product")
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Product deleted", zap.String("product_id", id), zap.String("actor", actor.ID))
	return nil
}
