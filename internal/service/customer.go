package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// CustomerService manages the booking profile linked to a user.
type CustomerService struct {
	store repository.Store
}

func NewCustomerService(store repository.Store) *CustomerService {
	return &CustomerService{store: store}
}

func (s *CustomerService) GetByUserID(ctx context.Context, userID uint64) (model.Customer, error) {
	c, err := s.store.Customers().GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c, ErrNotFound
	}
	return c, err
}

// EnsureForUser returns the user's customer profile, creating it from the
// account when it does not exist yet.
func (s *CustomerService) EnsureForUser(ctx context.Context, userID uint64) (model.Customer, error) {
	return ensureCustomer(ctx, s.store, userID)
}

func ensureCustomer(ctx context.Context, store repository.Store, userID uint64) (model.Customer, error) {
	c, err := store.Customers().GetByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return c, err
	}
	u, err := store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	c = model.Customer{UserID: u.ID, Name: u.Username, Email: u.Email}
	if err := store.Customers().Create(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return store.Customers().GetByUserID(ctx, userID)
		}
		return c, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}
