package repository

import (
	"context"
	"errors"

	"comercio/internal/domain"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when inserting under a name that is taken.
var ErrAlreadyExists = errors.New("already exists")

// ErrPersistence wraps failures of the backing storage itself. Callers treat
// it as the one unrecoverable error kind.
var ErrPersistence = errors.New("persistence failure")

// CustomerRepository holds customer records and their visit counters. A
// customer always has a counter: InsertCustomer creates it at 0,
// DeleteCustomer removes it.
type CustomerRepository interface {
	GetCustomer(ctx context.Context, name string) (*domain.Customer, error)
	InsertCustomer(ctx context.Context, c domain.Customer) error
	UpdateCustomer(ctx context.Context, c domain.Customer) error
	DeleteCustomer(ctx context.Context, name string) error
	ListCustomers(ctx context.Context) ([]domain.Customer, error)

	Visits(ctx context.Context, name string) (int64, error)
	AllVisits(ctx context.Context) (map[string]int64, error)
	// IncrementVisits bumps the counter by one, creating it at 1 when a
	// prior inconsistency left it missing.
	IncrementVisits(ctx context.Context, name string) (int64, error)
}

// ProductRepository holds the catalog.
type ProductRepository interface {
	GetProduct(ctx context.Context, name string) (*domain.Product, error)
	InsertProduct(ctx context.Context, p domain.Product) error
	UpdateProduct(ctx context.Context, p domain.Product) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// PurchaseRepository is append-only purchase history.
type PurchaseRepository interface {
	Append(ctx context.Context, p domain.Purchase) error
	All(ctx context.Context) ([]domain.Purchase, error)
}

// Persister flushes every collection to durable storage as one logical
// operation. Mutating service operations call it right after the in-memory
// commit, so disk never trails memory by more than one operation.
type Persister interface {
	Save(ctx context.Context) error
}

// TxManager groups several repository calls into one atomic step. For the
// file-backed store this is a write lock over the whole store.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
