package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comercio/internal/repository"
	"comercio/internal/service"
)

// runSession feeds a scripted input through a fresh menu and returns the
// printed output plus the backing store for state assertions.
func runSession(t *testing.T, input string) (string, *repository.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewStore(t.TempDir(), repository.DefaultFileNames(), log)
	tx := repository.NewStoreTx(store)

	customers := service.NewCustomerService(store, store, tx, log)
	catalog := service.NewCatalogService(store, store, tx, log)
	purchases := service.NewPurchaseService(store, store, catalog, store, tx, log)
	reports := service.NewReportService(store, store, log)

	var out bytes.Buffer
	m := NewMenu(strings.NewReader(input), &out, customers, catalog, purchases, reports, 10, log)
	require.NoError(t, m.Run(context.Background()))
	return out.String(), store
}

func TestMenu_FullPurchaseSession(t *testing.T) {
	input := strings.Join([]string{
		// register Ana
		"1", "1", "Ana", "555-1234",
		// add product Mouse: Electronics, 25.00, stock 10
		"2", "2", "Mouse", "1", "25.00", "10",
		// purchase: Ana buys 3 mice, then ends
		"3", "Ana", "Mouse", "3", "end",
		// reports
		"4", "1",
		"4", "2",
		"5",
	}, "\n") + "\n"

	out, store := runSession(t, input)

	assert.Contains(t, out, "Customer registered successfully.")
	assert.Contains(t, out, "Product added successfully.")
	assert.Contains(t, out, "Product added. Subtotal: $75.00")
	assert.Contains(t, out, "Purchase total: $75.00")
	assert.Contains(t, out, "1. Ana - Phone: 555-1234 - Visits: 1")
	assert.Contains(t, out, "1. Mouse - Sold: 3")
	assert.Contains(t, out, "Goodbye!")

	ctx := context.Background()
	p, err := store.GetProduct(ctx, "Mouse")
	require.NoError(t, err)
	assert.EqualValues(t, 7, p.Stock)
	history, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestMenu_AbandonedPurchase(t *testing.T) {
	input := strings.Join([]string{
		"1", "1", "Ana", "555-1234",
		"2", "2", "Mouse", "1", "25.00", "10",
		// rejected lines only, then end
		"3", "Ana", "Ghost", "1", "Mouse", "0", "Mouse", "999", "end",
		"5",
	}, "\n") + "\n"

	out, store := runSession(t, input)

	assert.Contains(t, out, "Product not found.")
	assert.Contains(t, out, "Quantity must be greater than 0.")
	assert.Contains(t, out, "Insufficient stock.")
	assert.Contains(t, out, "No products recorded.")

	ctx := context.Background()
	// the attempted purchase still counted as a visit
	visits, err := store.Visits(ctx, "Ana")
	require.NoError(t, err)
	assert.EqualValues(t, 1, visits)
	history, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
	p, err := store.GetProduct(ctx, "Mouse")
	require.NoError(t, err)
	assert.EqualValues(t, 10, p.Stock)
}

func TestMenu_PurchaseForUnknownCustomer(t *testing.T) {
	input := "3\nBruno\n5\n"
	out, store := runSession(t, input)

	assert.Contains(t, out, "Customer not registered.")
	_, err := store.Visits(context.Background(), "Bruno")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMenu_InvalidInputRecovers(t *testing.T) {
	input := strings.Join([]string{
		"abc",      // not a number on the main menu
		"9",        // out of range
		"1", "abc", // bad customer submenu option
		"5",
	}, "\n") + "\n"

	out, _ := runSession(t, input)
	assert.Contains(t, out, "Please enter a valid number.")
	assert.Contains(t, out, "Invalid option. Please select 1-5.")
	assert.Contains(t, out, "Invalid option.")
	assert.Contains(t, out, "Goodbye!")
}

func TestMenu_DuplicateRegistrationReported(t *testing.T) {
	input := strings.Join([]string{
		"1", "1", "Ana", "555-1234",
		"1", "1", "Ana", "555-9999",
		"5",
	}, "\n") + "\n"

	out, store := runSession(t, input)
	assert.Contains(t, out, "Customer already exists.")

	c, err := store.GetCustomer(context.Background(), "Ana")
	require.NoError(t, err)
	assert.Equal(t, "555-1234", c.Phone)
}

func TestMenu_BrowseByCategory(t *testing.T) {
	input := strings.Join([]string{
		"2", "2", "Mouse", "1", "25.00", "10",
		"2", "2", "Shirt", "2", "15.00", "4",
		// browse Electronics, selected by name rather than number
		"2", "1", "Electronics",
		// browse Sports (empty)
		"2", "1", "4",
		"5",
	}, "\n") + "\n"

	out, _ := runSession(t, input)
	assert.Contains(t, out, "--- ELECTRONICS PRODUCTS ---")
	assert.Contains(t, out, "1. Mouse - $25.00 - Stock: 10")
	assert.NotContains(t, out, "Shirt - $15.00")
	assert.Contains(t, out, "No products in this category.")
}

func TestMenu_EOFEndsSession(t *testing.T) {
	out, _ := runSession(t, "1\n1\n")
	// input ran out mid-prompt; the session ends cleanly
	assert.Contains(t, out, "Customer name: ")
}
