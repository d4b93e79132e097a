package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"comercio/internal/domain"
	"comercio/internal/repository"
)

var (
	ErrCustomerNotFound = errors.New("customer not registered")
	ErrDraftFinished    = errors.New("purchase already finished")
)

// PurchaseService runs the purchase workflow: Begin verifies the customer
// and records the visit, the returned Draft accumulates line items, Finish
// either commits an immutable purchase record or abandons the draft.
type PurchaseService struct {
	customers repository.CustomerRepository
	purchases repository.PurchaseRepository
	catalog   *CatalogService
	store     repository.Persister
	tx        repository.TxManager
	log       *slog.Logger
}

func NewPurchaseService(customers repository.CustomerRepository, purchases repository.PurchaseRepository, catalog *CatalogService, store repository.Persister, tx repository.TxManager, log *slog.Logger) *PurchaseService {
	return &PurchaseService{customers: customers, purchases: purchases, catalog: catalog, store: store, tx: tx, log: log}
}

// Draft is one in-progress purchase. It is single-use: after Finish every
// further call fails with ErrDraftFinished.
type Draft struct {
	svc      *PurchaseService
	customer string
	items    []domain.PurchaseItem
	total    decimal.Decimal
	finished bool
}

// OutcomeStatus is the terminal state of a draft.
type OutcomeStatus string

const (
	OutcomeCommitted OutcomeStatus = "Committed"
	OutcomeAbandoned OutcomeStatus = "Abandoned"
)

// Outcome reports how a draft ended. Purchase is set only when committed.
type Outcome struct {
	Status   OutcomeStatus
	Purchase *domain.Purchase
	Total    decimal.Decimal
}

// Begin starts a purchase for a registered customer. The visit counter is
// incremented exactly once per attempted purchase, even if the draft is
// later abandoned with no lines; that increment is persisted immediately.
func (s *PurchaseService) Begin(ctx context.Context, customer string) (*Draft, error) {
	if _, err := s.customers.GetCustomer(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.customers.IncrementVisits(ctx, customer); err != nil {
			return err
		}
		return s.store.Save(ctx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase started", slog.String("customer", customer))
	return &Draft{svc: s, customer: customer, total: decimal.Zero}, nil
}

// AddLine validates one (product, quantity) request and, when valid,
// reserves stock immediately and snapshots the current unit price. Rejected
// lines leave stock untouched; the caller keeps accepting further lines
// either way. Reserved stock is never returned, even if the draft ends up
// abandoned.
func (d *Draft) AddLine(ctx context.Context, product string, quantity int64) (*domain.PurchaseItem, error) {
	if d.finished {
		return nil, ErrDraftFinished
	}

	p, err := d.svc.catalog.ReserveStock(ctx, product, quantity)
	if err != nil {
		return nil, err
	}

	item := domain.PurchaseItem{
		Product:   p.Name,
		Quantity:  quantity,
		UnitPrice: p.Price,
		Subtotal:  p.Price.Mul(decimal.NewFromInt(quantity)),
	}
	d.items = append(d.items, item)
	d.total = d.total.Add(item.Subtotal)
	return &item, nil
}

// Finish closes the draft. With at least one line it commits an immutable
// purchase record and persists every collection; with none it abandons the
// draft, leaving only the visit increment from Begin behind.
func (d *Draft) Finish(ctx context.Context) (*Outcome, error) {
	if d.finished {
		return nil, ErrDraftFinished
	}
	d.finished = true

	if len(d.items) == 0 {
		d.svc.log.Info("purchase abandoned", slog.String("customer", d.customer))
		return &Outcome{Status: OutcomeAbandoned, Total: decimal.Zero}, nil
	}

	purchase := domain.Purchase{
		ID:        uuid.NewString(),
		Customer:  d.customer,
		Timestamp: time.Now().UTC(),
		Items:     d.items,
		Total:     d.total,
	}
	err := d.svc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := d.svc.purchases.Append(ctx, purchase); err != nil {
			return err
		}
		return d.svc.store.Save(ctx)
	})
	if err != nil {
		return nil, err
	}

	d.svc.log.Info("purchase committed",
		slog.String("customer", d.customer),
		slog.Int("lines", len(purchase.Items)),
		slog.String("total", purchase.Total.String()))
	return &Outcome{Status: OutcomeCommitted, Purchase: &purchase, Total: purchase.Total}, nil
}
