package service

import (
	"context"
	"log/slog"
	"time"

	"comercio/internal/domain"
	"comercio/internal/repository"
)

// CustomerService is the customer ledger: registrations, lookups, and the
// visit counters behind the frequent-customer ranking.
type CustomerService struct {
	customers repository.CustomerRepository
	store     repository.Persister
	tx        repository.TxManager
	log       *slog.Logger
}

func NewCustomerService(customers repository.CustomerRepository, store repository.Persister, tx repository.TxManager, log *slog.Logger) *CustomerService {
	return &CustomerService{customers: customers, store: store, tx: tx, log: log}
}

// Register adds a customer and initializes the visit counter to 0.
func (s *CustomerService) Register(ctx context.Context, name, phone string) (*domain.Customer, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}
	c := domain.Customer{Name: name, Phone: phone, RegisteredAt: time.Now().UTC()}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.customers.InsertCustomer(ctx, c); err != nil {
			return err
		}
		return s.store.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("customer registered", slog.String("name", name))
	return &c, nil
}

// Remove deletes the customer record and its visit counter.
func (s *CustomerService) Remove(ctx context.Context, name string) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.customers.DeleteCustomer(ctx, name); err != nil {
			return err
		}
		return s.store.Save(ctx)
	})
	if err != nil {
		return err
	}
	s.log.Info("customer removed", slog.String("name", name))
	return nil
}

func (s *CustomerService) Find(ctx context.Context, name string) (*domain.Customer, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}
	return s.customers.GetCustomer(ctx, name)
}

func (s *CustomerService) UpdatePhone(ctx context.Context, name, phone string) (*domain.Customer, error) {
	var updated *domain.Customer
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.customers.GetCustomer(ctx, name)
		if err != nil {
			return err
		}
		c.Phone = phone
		if err := s.customers.UpdateCustomer(ctx, *c); err != nil {
			return err
		}
		if err := s.store.Save(ctx); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Visits returns the current counter for one customer.
func (s *CustomerService) Visits(ctx context.Context, name string) (int64, error) {
	return s.customers.Visits(ctx, name)
}

// RecordVisit increments the visit counter by one and persists it. A counter
// missing from an earlier inconsistency is created at 1.
func (s *CustomerService) RecordVisit(ctx context.Context, name string) (int64, error) {
	var count int64
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.customers.IncrementVisits(ctx, name)
		if err != nil {
			return err
		}
		if err := s.store.Save(ctx); err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// List enumerates customers sorted by name.
func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	return s.customers.ListCustomers(ctx)
}
