package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comercio/internal/domain"
	"comercio/internal/repository"
)

func seedAnaAndMouse(t *testing.T, customers *CustomerService, catalog *CatalogService) {
	t.Helper()
	ctx := context.Background()
	_, err := customers.Register(ctx, "Ana", "555-1234")
	require.NoError(t, err)
	_, err = catalog.Add(ctx, domain.Product{
		Name:     "Mouse",
		Category: domain.CategoryElectronics,
		Price:    price("25.00"),
		Stock:    10,
	})
	require.NoError(t, err)
}

func TestPurchase_CommitScenario(t *testing.T) {
	ctx := context.Background()
	customers, catalog, purchases, reports := setup(t)
	seedAnaAndMouse(t, customers, catalog)

	draft, err := purchases.Begin(ctx, "Ana")
	require.NoError(t, err)

	item, err := draft.AddLine(ctx, "Mouse", 3)
	require.NoError(t, err)
	assert.True(t, item.Subtotal.Equal(price("75.00")))
	assert.True(t, item.UnitPrice.Equal(price("25.00")))

	// stock reserved immediately
	p, err := catalog.Find(ctx, "Mouse")
	require.NoError(t, err)
	assert.EqualValues(t, 7, p.Stock)

	outcome, err := draft.Finish(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, outcome.Status)
	require.NotNil(t, outcome.Purchase)
	assert.True(t, outcome.Total.Equal(price("75.00")))
	assert.Equal(t, "Ana", outcome.Purchase.Customer)
	assert.NotEmpty(t, outcome.Purchase.ID)
	assert.False(t, outcome.Purchase.Timestamp.IsZero())

	visits, err := customers.Visits(ctx, "Ana")
	require.NoError(t, err)
	assert.EqualValues(t, 1, visits)

	ranks, err := reports.TopProducts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	assert.Equal(t, "Mouse", ranks[0].Name)
	assert.EqualValues(t, 3, ranks[0].Quantity)
}

func TestPurchase_AbandonedStillCountsVisit(t *testing.T) {
	ctx := context.Background()
	customers, catalog, purchases, _ := setup(t)
	seedAnaAndMouse(t, customers, catalog)

	// first purchase commits and takes the counter to 1
	draft, err := purchases.Begin(ctx, "Ana")
	require.NoError(t, err)
	_, err = draft.AddLine(ctx, "Mouse", 3)
	require.NoError(t, err)
	_, err = draft.Finish(ctx)
	require.NoError(t, err)

	// second attempt: only a rejected line, then finish empty
	draft, err = purchases.Begin(ctx, "Ana")
	require.NoError(t, err)
	_, err = draft.AddLine(ctx, "Mouse", 999)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	p, err := catalog.Find(ctx, "Mouse")
	require.NoError(t, err)
	assert.EqualValues(t, 7, p.Stock)

	outcome, err := draft.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, outcome.Status)
	assert.Nil(t, outcome.Purchase)

	// the visit was recorded anyway and no record was appended
	visits, err := customers.Visits(ctx, "Ana")
	require.NoError(t, err)
	assert.EqualValues(t, 2, visits)

	store := purchases.purchases
	history, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPurchase_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	customers, catalog, purchases, _ := setup(t)
	seedAnaAndMouse(t, customers, catalog)

	_, err := purchases.Begin(ctx, "Bruno")
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	// no visit counter appears for an unregistered customer
	_, err = customers.Visits(ctx, "Bruno")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPurchase_RejectedLinesAreNonFatal(t *testing.T) {
	ctx := context.Background()
	customers, catalog, purchases, _ := setup(t)
	seedAnaAndMouse(t, customers, catalog)

	draft, err := purchases.Begin(ctx, "Ana")
	require.NoError(t, err)

	_, err = draft.AddLine(ctx, "Keyboard", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = draft.AddLine(ctx, "Mouse", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = draft.AddLine(ctx, "Mouse", 999)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// the draft keeps accepting after every rejection
	_, err = draft.AddLine(ctx, "Mouse", 2)
	require.NoError(t, err)

	outcome, err := draft.Finish(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, outcome.Status)
	assert.True(t, outcome.Total.Equal(price("50.00")))
}

func TestPurchase_PriceSnapshotDecoupled(t *testing.T) {
	ctx := context.Background()
	customers, catalog, purchases, _ := setup(t)
	seedAnaAndMouse(t, customers, catalog)

	draft, err := purchases.Begin(ctx, "Ana")
	require.NoError(t, err)
	_, err = draft.AddLine(ctx, "Mouse", 2)
	require.NoError(t, err)

	// a price change between line add and finish must not rewrite the line
	_, err = catalog.UpdatePrice(ctx, "Mouse", price("99.00"))
	require.NoError(t, err)

	outcome, err := draft.Finish(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, outcome.Status)
	assert.True(t, outcome.Purchase.Items[0].UnitPrice.Equal(price("25.00")))
	assert.True(t, outcome.Total.Equal(price("50.00")))
}

func TestPurchase_TotalIsSumOfSubtotals(t *testing.T) {
	ctx := context.Background()
	customers, catalog, purchases, _ := setup(t)
	seedAnaAndMouse(t, customers, catalog)
	_, err := catalog.Add(ctx, domain.Product{
		Name:     "Keyboard",
		Category: domain.CategoryElectronics,
		Price:    price("45.50"),
		Stock:    4,
	})
	require.NoError(t, err)

	draft, err := purchases.Begin(ctx, "Ana")
	require.NoError(t, err)
	_, err = draft.AddLine(ctx, "Mouse", 3)
	require.NoError(t, err)
	_, err = draft.AddLine(ctx, "Keyboard", 2)
	require.NoError(t, err)

	outcome, err := draft.Finish(ctx)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range outcome.Purchase.Items {
		assert.True(t, item.Subtotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))))
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, outcome.Total.Equal(sum))
	assert.True(t, outcome.Total.Equal(price("166.00")))
}

func TestPurchase_DraftIsSingleUse(t *testing.T) {
	ctx := context.Background()
	customers, catalog, purchases, _ := setup(t)
	seedAnaAndMouse(t, customers, catalog)

	draft, err := purchases.Begin(ctx, "Ana")
	require.NoError(t, err)
	_, err = draft.Finish(ctx)
	require.NoError(t, err)

	_, err = draft.AddLine(ctx, "Mouse", 1)
	assert.ErrorIs(t, err, ErrDraftFinished)
	_, err = draft.Finish(ctx)
	assert.ErrorIs(t, err, ErrDraftFinished)
}
