package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"comercio/internal/domain"
)

// FileNames are the on-disk names of the four collections.
type FileNames struct {
	Customers string `yaml:"customers" env:"FILE_CUSTOMERS" env-default:"customers.json"`
	Products  string `yaml:"products" env:"FILE_PRODUCTS" env-default:"products.json"`
	Purchases string `yaml:"purchases" env:"FILE_PURCHASES" env-default:"purchases.json"`
	Visits    string `yaml:"visits" env:"FILE_VISITS" env-default:"visits.json"`
}

// DefaultFileNames returns the standard collection file names.
func DefaultFileNames() FileNames {
	return FileNames{
		Customers: "customers.json",
		Products:  "products.json",
		Purchases: "purchases.json",
		Visits:    "visits.json",
	}
}

// Store owns the four collections and their round trip to JSON files in a
// single directory. It is the only owner of this state; catalog and ledger
// services operate through it.
type Store struct {
	mu    sync.RWMutex
	dir   string
	files FileNames
	log   *slog.Logger

	customers map[string]domain.Customer
	products  map[string]domain.Product
	purchases []domain.Purchase
	visits    map[string]int64
}

func NewStore(dir string, files FileNames, log *slog.Logger) *Store {
	return &Store{
		dir:       dir,
		files:     files,
		log:       log,
		customers: make(map[string]domain.Customer),
		products:  make(map[string]domain.Product),
		purchases: make([]domain.Purchase, 0),
		visits:    make(map[string]int64),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (s *Store) rlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.RLock()
	}
}
func (s *Store) runlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.RUnlock()
	}
}
func (s *Store) wlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.Lock()
	}
}
func (s *Store) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.Unlock()
	}
}

// Ensure interfaces
var (
	_ CustomerRepository = (*Store)(nil)
	_ ProductRepository  = (*Store)(nil)
	_ PurchaseRepository = (*Store)(nil)
	_ Persister          = (*Store)(nil)
)

// Load reads the four collections from disk. A missing file means an empty
// collection, not an error; an unreadable or corrupt file is a persistence
// failure.
func (s *Store) Load(ctx context.Context) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)

	if err := s.loadFile(s.files.Customers, &s.customers); err != nil {
		return err
	}
	if err := s.loadFile(s.files.Products, &s.products); err != nil {
		return err
	}
	if err := s.loadFile(s.files.Purchases, &s.purchases); err != nil {
		return err
	}
	if err := s.loadFile(s.files.Visits, &s.visits); err != nil {
		return err
	}

	s.log.Info("collections loaded",
		slog.Int("customers", len(s.customers)),
		slog.Int("products", len(s.products)),
		slog.Int("purchases", len(s.purchases)))
	return nil
}

func (s *Store) loadFile(name string, dst any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrPersistence, name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrPersistence, name, err)
	}
	return nil
}

// Save serializes all four collections back to disk as one logical
// operation. Transient write failures are retried before surfacing.
func (s *Store) Save(ctx context.Context) error {
	s.rlock(ctx)
	defer s.runlock(ctx)

	parts := []struct {
		name string
		data any
	}{
		{s.files.Customers, s.customers},
		{s.files.Products, s.products},
		{s.files.Purchases, s.purchases},
		{s.files.Visits, s.visits},
	}
	for _, part := range parts {
		if err := s.saveFile(part.name, part.data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveFile(name string, src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistence, name, err)
	}
	path := filepath.Join(s.dir, name)

	err = retry.Do(
		func() error { return os.WriteFile(path, data, 0o644) },
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		s.log.Error("failed to write collection", slog.String("file", name), slog.Any("error", err))
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, name, err)
	}
	return nil
}

// CustomerRepository implementation

func (s *Store) GetCustomer(ctx context.Context, name string) (*domain.Customer, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	c, ok := s.customers[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (s *Store) InsertCustomer(ctx context.Context, c domain.Customer) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if _, ok := s.customers[c.Name]; ok {
		return ErrAlreadyExists
	}
	s.customers[c.Name] = c
	s.visits[c.Name] = 0
	return nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if _, ok := s.customers[c.Name]; !ok {
		return ErrNotFound
	}
	s.customers[c.Name] = c
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, name string) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if _, ok := s.customers[name]; !ok {
		return ErrNotFound
	}
	delete(s.customers, name)
	delete(s.visits, name)
	return nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Visits(ctx context.Context, name string) (int64, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	if _, ok := s.customers[name]; !ok {
		return 0, ErrNotFound
	}
	return s.visits[name], nil
}

func (s *Store) AllVisits(ctx context.Context) (map[string]int64, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	out := make(map[string]int64, len(s.visits))
	for name, n := range s.visits {
		out[name] = n
	}
	return out, nil
}

func (s *Store) IncrementVisits(ctx context.Context, name string) (int64, error) {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if _, ok := s.customers[name]; !ok {
		return 0, ErrNotFound
	}
	// a missing counter starts at 1 rather than failing
	s.visits[name]++
	return s.visits[name], nil
}

// ProductRepository implementation

func (s *Store) GetProduct(ctx context.Context, name string) (*domain.Product, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	p, ok := s.products[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *Store) InsertProduct(ctx context.Context, p domain.Product) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if _, ok := s.products[p.Name]; ok {
		return ErrAlreadyExists
	}
	s.products[p.Name] = p
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if _, ok := s.products[p.Name]; !ok {
		return ErrNotFound
	}
	s.products[p.Name] = p
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PurchaseRepository implementation

func (s *Store) Append(ctx context.Context, p domain.Purchase) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	p.Items = append([]domain.PurchaseItem(nil), p.Items...)
	s.purchases = append(s.purchases, p)
	return nil
}

func (s *Store) All(ctx context.Context) ([]domain.Purchase, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	out := make([]domain.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		cp := p
		cp.Items = append([]domain.PurchaseItem(nil), p.Items...)
		out = append(out, cp)
	}
	return out, nil
}

// Tx manager using the write lock to emulate a transaction boundary.
type StoreTx struct{ store *Store }

func NewStoreTx(store *Store) *StoreTx { return &StoreTx{store: store} }

var _ TxManager = (*StoreTx)(nil)

func (tx *StoreTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// hold the write lock for the whole fn and mark the context so nested
	// repository calls skip their own locks
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}
