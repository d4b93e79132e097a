package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"comercio/internal/domain"
	"comercio/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CatalogService holds the business logic around products and stock.
type CatalogService struct {
	products repository.ProductRepository
	store    repository.Persister
	tx       repository.TxManager
	log      *slog.Logger
}

func NewCatalogService(products repository.ProductRepository, store repository.Persister, tx repository.TxManager, log *slog.Logger) *CatalogService {
	return &CatalogService{products: products, store: store, tx: tx, log: log}
}

func (s *CatalogService) Find(ctx context.Context, name string) (*domain.Product, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}
	return s.products.GetProduct(ctx, name)
}

// Add registers a new product. The name must be free, the category must
// belong to the closed set, price and stock must be non-negative.
func (s *CatalogService) Add(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.Name == "" || !p.Category.Valid() || p.Price.IsNegative() || p.Stock < 0 {
		return nil, ErrInvalidInput
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.products.InsertProduct(ctx, p); err != nil {
			return err
		}
		return s.store.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product added", slog.String("name", p.Name), slog.String("category", string(p.Category)))
	return &p, nil
}

// ReserveStock atomically checks availability and decrements stock. The
// check and the decrement share one transaction so stock can never go
// negative even if concurrency is introduced later.
func (s *CatalogService) ReserveStock(ctx context.Context, name string, quantity int64) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var reserved *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetProduct(ctx, name)
		if err != nil {
			return err
		}
		if p.Stock < quantity {
			return ErrInsufficientStock
		}
		p.Stock -= quantity
		if err := s.products.UpdateProduct(ctx, *p); err != nil {
			return err
		}
		if err := s.store.Save(ctx); err != nil {
			return err
		}
		reserved = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

func (s *CatalogService) UpdatePrice(ctx context.Context, name string, price decimal.Decimal) (*domain.Product, error) {
	if price.IsNegative() {
		return nil, ErrInvalidInput
	}
	return s.edit(ctx, name, func(p *domain.Product) { p.Price = price })
}

func (s *CatalogService) UpdateStock(ctx context.Context, name string, stock int64) (*domain.Product, error) {
	if stock < 0 {
		return nil, ErrInvalidInput
	}
	return s.edit(ctx, name, func(p *domain.Product) { p.Stock = stock })
}

func (s *CatalogService) UpdateCategory(ctx context.Context, name string, category domain.Category) (*domain.Product, error) {
	if !category.Valid() {
		return nil, ErrInvalidInput
	}
	return s.edit(ctx, name, func(p *domain.Product) { p.Category = category })
}

func (s *CatalogService) edit(ctx context.Context, name string, apply func(*domain.Product)) (*domain.Product, error) {
	var updated *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetProduct(ctx, name)
		if err != nil {
			return err
		}
		apply(p)
		if err := s.products.UpdateProduct(ctx, *p); err != nil {
			return err
		}
		if err := s.store.Save(ctx); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product updated", slog.String("name", name))
	return updated, nil
}

// List enumerates products sorted by name, optionally restricted to one
// category.
func (s *CatalogService) List(ctx context.Context, category *domain.Category) ([]domain.Product, error) {
	all, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return all, nil
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if p.Category == *category {
			out = append(out, p)
		}
	}
	return out, nil
}
