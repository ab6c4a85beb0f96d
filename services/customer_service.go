package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "orderpro/common/errors"
	"orderpro/models"
	"orderpro/repository"

	"go.uber.org/zap"
)

const msgDuplicateEmail = "Customer with this email already exists"

type CustomerService struct {
	repo   repository.CustomerRepository
	cache  MetricsCache
	logger *zap.Logger
	now    func() time.Time
}

func NewCustomerService(repo repository.CustomerRepository, cache MetricsCache, logger *zap.Logger) *CustomerService {
	if cache == nil {
		cache = noopCache{}
	}
	return &CustomerService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Customer not found", "load customer")
	}
	return c, nil
}

// CreateCustomer registers a customer. Emails are unique ignoring case.
func (s *CustomerService) CreateCustomer(ctx context.Context, actor models.Actor, req *models.CreateCustomerRequest) (*models.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict(msgDuplicateEmail)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check customer email: %w", err)
	}

	now := s.now()
	customer := &models.Customer{
		User:      actor.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(msgDuplicateEmail)
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("Customer created", zap.String("customer_id", customer.ID.Hex()), zap.String("actor", actor.ID))
	return customer, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, actor models.Actor, id string, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Customer not found", "load customer")
	}

	if req.Email != nil && *req.Email != customer.Email {
		existing, err := s.repo.FindByEmail(ctx, *req.Email)
		switch {
		case err == nil && existing.ID != customer.ID:
			return nil, apperrors.Conflict(msgDuplicateEmail)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("check customer email: %w", err)
		}
		customer.Email = *req.Email
	}
	if req.Name != nil {
		customer.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		customer.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		customer.Address = strings.TrimSpace(*req.Address)
	}
	customer.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(msgDuplicateEmail)
		}
		return nil, notFoundOr(err, "Customer not found", "update customer")
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("Customer updated", zap.String("customer_id", customer.ID.Hex()), zap.String("actor", actor.ID))
	return customer, nil
}

// DeleteCustomer removes a customer. Their orders are kept and show the
// customer reference unresolved.
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor models.Actor, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Customer not found", "delete customer")
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Customer deleted", zap.String("customer_id", id), zap.String("actor", actor.ID))
	return nil
}
