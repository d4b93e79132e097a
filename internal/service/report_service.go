package service

import (
	"context"
	"log/slog"
	"sort"

	"comercio/internal/repository"
)

// CustomerRank is one row of the frequent-customer report.
type CustomerRank struct {
	Name   string
	Phone  string
	Visits int64
}

// ProductRank is one row of the best-seller report.
type ProductRank struct {
	Name     string
	Quantity int64
}

// ReportService builds ranked listings from read-only snapshots of the
// collections. It never mutates or persists anything.
type ReportService struct {
	customers repository.CustomerRepository
	purchases repository.PurchaseRepository
	log       *slog.Logger
}

func NewReportService(customers repository.CustomerRepository, purchases repository.PurchaseRepository, log *slog.Logger) *ReportService {
	return &ReportService{customers: customers, purchases: purchases, log: log}
}

// TopCustomers ranks visit counts descending, ties broken by name. The
// phone lookup is lenient: a counter surviving its customer record shows
// "N/A" instead of failing.
func (s *ReportService) TopCustomers(ctx context.Context, n int) ([]CustomerRank, error) {
	visits, err := s.customers.AllVisits(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CustomerRank, 0, len(visits))
	for name, count := range visits {
		phone := "N/A"
		if c, err := s.customers.GetCustomer(ctx, name); err == nil {
			phone = c.Phone
		}
		out = append(out, CustomerRank{Name: name, Phone: phone, Visits: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Visits != out[j].Visits {
			return out[i].Visits > out[j].Visits
		}
		return out[i].Name < out[j].Name
	})
	return truncate(out, n), nil
}

// TopProducts sums quantities per product across all purchase line items
// and ranks them descending, ties broken by name.
func (s *ReportService) TopProducts(ctx context.Context, n int) ([]ProductRank, error) {
	purchases, err := s.purchases.All(ctx)
	if err != nil {
		return nil, err
	}

	sold := make(map[string]int64)
	for _, purchase := range purchases {
		for _, item := range purchase.Items {
			sold[item.Product] += item.Quantity
		}
	}

	out := make([]ProductRank, 0, len(sold))
	for name, qty := range sold {
		out = append(out, ProductRank{Name: name, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return truncate(out, n), nil
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
