package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"comercio/internal/domain"
	"comercio/internal/repository"
	"comercio/internal/service"
)

// Menu is the interactive terminal front end. It owns all raw-text parsing:
// the services below it only ever receive typed values. Every recoverable
// error is reported and the menu returns to an accepting state; only
// persistence failures abort the session.
type Menu struct {
	in         *bufio.Scanner
	out        io.Writer
	customers  *service.CustomerService
	catalog    *service.CatalogService
	purchases  *service.PurchaseService
	reports    *service.ReportService
	reportSize int
	log        *slog.Logger
}

func NewMenu(in io.Reader, out io.Writer, customers *service.CustomerService, catalog *service.CatalogService, purchases *service.PurchaseService, reports *service.ReportService, reportSize int, log *slog.Logger) *Menu {
	return &Menu{
		in:         bufio.NewScanner(in),
		out:        out,
		customers:  customers,
		catalog:    catalog,
		purchases:  purchases,
		reports:    reports,
		reportSize: reportSize,
		log:        log,
	}
}

// Run loops on the main menu until the operator exits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	for {
		m.printf("\n%s\n", strings.Repeat("=", 50))
		m.printf("          COMMERCIAL MANAGEMENT SYSTEM\n")
		m.printf("%s\n", strings.Repeat("=", 50))
		m.printf("1. Customer management\n")
		m.printf("2. Product management\n")
		m.printf("3. Register purchase\n")
		m.printf("4. Reports\n")
		m.printf("5. Exit\n")
		m.printf("%s\n", strings.Repeat("-", 50))

		choice, err := m.promptInt("Select an option: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			m.printf("Please enter a valid number.\n")
			continue
		}

		var opErr error
		switch choice {
		case 1:
			opErr = m.customerMenu(ctx)
		case 2:
			opErr = m.productMenu(ctx)
		case 3:
			opErr = m.registerPurchase(ctx)
		case 4:
			opErr = m.reportMenu(ctx)
		case 5:
			m.printf("Goodbye!\n")
			return nil
		default:
			m.printf("Invalid option. Please select 1-5.\n")
		}
		if errors.Is(opErr, io.EOF) {
			return nil
		}
		if opErr != nil {
			// only persistence failures propagate this far
			return opErr
		}
	}
}

// --- customers ---

func (m *Menu) customerMenu(ctx context.Context) error {
	m.printf("\n--- CUSTOMER MANAGEMENT ---\n")
	m.printf("1. Register new customer\n")
	m.printf("2. Remove customer\n")
	m.printf("3. View/edit customer\n")
	m.printf("4. List all customers\n")

	choice, err := m.promptInt("Select option: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		m.printf("Invalid option.\n")
		return nil
	}
	switch choice {
	case 1:
		return m.registerCustomer(ctx)
	case 2:
		return m.removeCustomer(ctx)
	case 3:
		return m.viewEditCustomer(ctx)
	case 4:
		return m.listCustomers(ctx)
	default:
		m.printf("Invalid option.\n")
		return nil
	}
}

func (m *Menu) registerCustomer(ctx context.Context) error {
	m.printf("\n--- REGISTER NEW CUSTOMER ---\n")
	name, err := m.prompt("Customer name: ")
	if err != nil {
		return err
	}
	phone, err := m.prompt("Customer phone: ")
	if err != nil {
		return err
	}

	switch _, err := m.customers.Register(ctx, name, phone); {
	case errors.Is(err, repository.ErrAlreadyExists):
		m.printf("Customer already exists.\n")
	case errors.Is(err, service.ErrInvalidInput):
		m.printf("Customer name must not be empty.\n")
	case err != nil:
		return err
	default:
		m.printf("Customer registered successfully.\n")
	}
	return nil
}

func (m *Menu) removeCustomer(ctx context.Context) error {
	m.printf("\n--- REMOVE CUSTOMER ---\n")
	name, err := m.prompt("Name of customer to remove: ")
	if err != nil {
		return err
	}
	if _, findErr := m.customers.Find(ctx, name); findErr != nil {
		if errors.Is(findErr, repository.ErrNotFound) || errors.Is(findErr, service.ErrInvalidInput) {
			m.printf("Customer not found.\n")
			return nil
		}
		return findErr
	}

	confirm, err := m.prompt(fmt.Sprintf("Are you sure you want to remove %s? (y/n): ", name))
	if err != nil {
		return err
	}
	if !strings.EqualFold(confirm, "y") {
		return nil
	}

	switch err := m.customers.Remove(ctx, name); {
	case errors.Is(err, repository.ErrNotFound):
		m.printf("Customer not found.\n")
	case err != nil:
		return err
	default:
		m.printf("Customer removed successfully.\n")
	}
	return nil
}

func (m *Menu) viewEditCustomer(ctx context.Context) error {
	m.printf("\n--- VIEW/EDIT CUSTOMER ---\n")
	name, err := m.prompt("Customer name: ")
	if err != nil {
		return err
	}

	c, findErr := m.customers.Find(ctx, name)
	if findErr != nil {
		if errors.Is(findErr, repository.ErrNotFound) || errors.Is(findErr, service.ErrInvalidInput) {
			m.printf("Customer not found.\n")
			return nil
		}
		return findErr
	}
	visits, visErr := m.customers.Visits(ctx, name)
	if visErr != nil {
		return visErr
	}

	m.printf("\nInformation for %s:\n", c.Name)
	m.printf("   Phone: %s\n", c.Phone)
	m.printf("   Visits: %d\n", visits)
	m.printf("   Registered: %s\n", c.RegisteredAt.Format("2006-01-02 15:04:05"))

	edit, err := m.prompt("\nEdit this information? (y/n): ")
	if err != nil {
		return err
	}
	if !strings.EqualFold(edit, "y") {
		return nil
	}
	phone, err := m.prompt(fmt.Sprintf("New phone (current: %s): ", c.Phone))
	if err != nil {
		return err
	}
	if phone == "" {
		return nil
	}
	if _, err := m.customers.UpdatePhone(ctx, name, phone); err != nil {
		return err
	}
	m.printf("Information updated.\n")
	return nil
}

func (m *Menu) listCustomers(ctx context.Context) error {
	m.printf("\n--- CUSTOMER LIST ---\n")
	customers, err := m.customers.List(ctx)
	if err != nil {
		return err
	}
	if len(customers) == 0 {
		m.printf("No customers registered.\n")
		return nil
	}
	for i, c := range customers {
		visits, err := m.customers.Visits(ctx, c.Name)
		if err != nil {
			return err
		}
		m.printf("%d. %s - Phone: %s - Visits: %d\n", i+1, c.Name, c.Phone, visits)
	}
	return nil
}

// --- products ---

func (m *Menu) productMenu(ctx context.Context) error {
	m.printf("\n--- PRODUCT MANAGEMENT ---\n")
	m.printf("1. Browse by category\n")
	m.printf("2. Add product\n")
	m.printf("3. Edit product\n")

	choice, err := m.promptInt("Select option: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		m.printf("Invalid option.\n")
		return nil
	}
	switch choice {
	case 1:
		return m.browseByCategory(ctx)
	case 2:
		return m.addProduct(ctx)
	case 3:
		return m.editProduct(ctx)
	default:
		m.printf("Invalid option.\n")
		return nil
	}
}

func (m *Menu) promptCategory() (domain.Category, error) {
	m.printf("\nAvailable categories:\n")
	for i, c := range domain.Categories {
		m.printf("%d. %s\n", i+1, c)
	}
	raw, err := m.prompt("Select category: ")
	if err != nil {
		return "", err
	}
	// accept the number or the category name
	if choice, err := strconv.Atoi(raw); err == nil {
		if choice < 1 || choice > len(domain.Categories) {
			return "", strconv.ErrRange
		}
		return domain.Categories[choice-1], nil
	}
	if c, ok := domain.ParseCategory(raw); ok {
		return c, nil
	}
	return "", strconv.ErrSyntax
}

func (m *Menu) browseByCategory(ctx context.Context) error {
	m.printf("\n--- PRODUCT CATEGORIES ---\n")
	category, err := m.promptCategory()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		m.printf("Invalid category.\n")
		return nil
	}

	m.printf("\n--- %s PRODUCTS ---\n", strings.ToUpper(string(category)))
	products, err := m.catalog.List(ctx, &category)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		m.printf("No products in this category.\n")
		return nil
	}
	for i, p := range products {
		m.printf("%d. %s - $%s - Stock: %d\n", i+1, p.Name, p.Price.StringFixed(2), p.Stock)
	}
	return nil
}

func (m *Menu) addProduct(ctx context.Context) error {
	m.printf("\n--- ADD PRODUCT ---\n")
	name, err := m.prompt("Product name: ")
	if err != nil {
		return err
	}
	if _, findErr := m.catalog.Find(ctx, name); findErr == nil {
		m.printf("Product already exists.\n")
		return nil
	}

	category, err := m.promptCategory()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		m.printf("Invalid category.\n")
		return nil
	}
	price, err := m.promptDecimal("Product price: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		m.printf("Price must be a valid number.\n")
		return nil
	}
	stock, err := m.promptInt64("Initial stock: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		m.printf("Stock must be a valid number.\n")
		return nil
	}

	p := domain.Product{Name: name, Category: category, Price: price, Stock: stock}
	switch _, err := m.catalog.Add(ctx, p); {
	case errors.Is(err, repository.ErrAlreadyExists):
		m.printf("Product already exists.\n")
	case errors.Is(err, service.ErrInvalidInput):
		m.printf("Price and stock must not be negative.\n")
	case err != nil:
		return err
	default:
		m.printf("Product added successfully.\n")
	}
	return nil
}

func (m *Menu) editProduct(ctx context.Context) error {
	m.printf("\n--- EDIT PRODUCT ---\n")
	name, err := m.prompt("Name of product to edit: ")
	if err != nil {
		return err
	}
	p, findErr := m.catalog.Find(ctx, name)
	if findErr != nil {
		if errors.Is(findErr, repository.ErrNotFound) || errors.Is(findErr, service.ErrInvalidInput) {
			m.printf("Product not found.\n")
			return nil
		}
		return findErr
	}

	m.printf("\nProduct: %s\n", p.Name)
	m.printf("Category: %s\n", p.Category)
	m.printf("Price: $%s\n", p.Price.StringFixed(2))
	m.printf("Stock: %d\n", p.Stock)

	m.printf("\nWhat would you like to edit?\n")
	m.printf("1. Price\n")
	m.printf("2. Stock\n")
	m.printf("3. Category\n")

	choice, err := m.promptInt("Select option: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		m.printf("Invalid value.\n")
		return nil
	}

	switch choice {
	case 1:
		price, err := m.promptDecimal("New price: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			m.printf("Invalid value.\n")
			return nil
		}
		if _, err := m.catalog.UpdatePrice(ctx, name, price); err != nil {
			if errors.Is(err, service.ErrInvalidInput) {
				m.printf("Price must not be negative.\n")
				return nil
			}
			return err
		}
	case 2:
		stock, err := m.promptInt64("New stock: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			m.printf("Invalid value.\n")
			return nil
		}
		if _, err := m.catalog.UpdateStock(ctx, name, stock); err != nil {
			if errors.Is(err, service.ErrInvalidInput) {
				m.printf("Stock must not be negative.\n")
				return nil
			}
			return err
		}
	case 3:
		category, err := m.promptCategory()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			m.printf("Invalid category.\n")
			return nil
		}
		if _, err := m.catalog.UpdateCategory(ctx, name, category); err != nil {
			return err
		}
	default:
		m.printf("Invalid option.\n")
		return nil
	}

	m.printf("Product updated successfully.\n")
	return nil
}

// --- purchases ---

// registerPurchase drives the whole purchase workflow: one customer, a loop
// of line items terminated by the "end" sentinel, then commit or abandon.
func (m *Menu) registerPurchase(ctx context.Context) error {
	m.printf("\n--- REGISTER PURCHASE ---\n")
	customer, err := m.prompt("Customer name: ")
	if err != nil {
		return err
	}

	draft, beginErr := m.purchases.Begin(ctx, customer)
	if beginErr != nil {
		if errors.Is(beginErr, service.ErrCustomerNotFound) {
			m.printf("Customer not registered.\n")
			return nil
		}
		return beginErr
	}

	for {
		if err := m.listAvailableProducts(ctx); err != nil {
			return err
		}

		product, err := m.prompt("\nProduct name (or 'end' to finish): ")
		if err != nil {
			break
		}
		if strings.EqualFold(product, "end") {
			break
		}

		quantity, err := m.promptInt64("Quantity: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			m.printf("Invalid quantity.\n")
			continue
		}

		item, addErr := draft.AddLine(ctx, product, quantity)
		switch {
		case errors.Is(addErr, repository.ErrNotFound):
			m.printf("Product not found.\n")
		case errors.Is(addErr, service.ErrInvalidQuantity):
			m.printf("Quantity must be greater than 0.\n")
		case errors.Is(addErr, service.ErrInsufficientStock):
			m.printf("Insufficient stock.\n")
		case addErr != nil:
			return addErr
		default:
			m.printf("Product added. Subtotal: $%s\n", item.Subtotal.StringFixed(2))
		}
	}

	outcome, err := draft.Finish(ctx)
	if err != nil {
		return err
	}
	if outcome.Status == service.OutcomeCommitted {
		m.printf("\nPurchase recorded successfully.\n")
		m.printf("Purchase total: $%s\n", outcome.Total.StringFixed(2))
	} else {
		m.printf("No products recorded.\n")
	}
	return nil
}

func (m *Menu) listAvailableProducts(ctx context.Context) error {
	products, err := m.catalog.List(ctx, nil)
	if err != nil {
		return err
	}
	m.printf("\nAvailable products:\n")
	for i, p := range products {
		m.printf("%d. %s - $%s - Stock: %d\n", i+1, p.Name, p.Price.StringFixed(2), p.Stock)
	}
	return nil
}

// --- reports ---

func (m *Menu) reportMenu(ctx context.Context) error {
	m.printf("\n--- REPORTS ---\n")
	m.printf("1. Most frequent customers\n")
	m.printf("2. Best-selling products\n")

	choice, err := m.promptInt("Select option: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		m.printf("Invalid option.\n")
		return nil
	}
	switch choice {
	case 1:
		return m.frequentCustomers(ctx)
	case 2:
		return m.popularProducts(ctx)
	default:
		m.printf("Invalid option.\n")
		return nil
	}
}

func (m *Menu) frequentCustomers(ctx context.Context) error {
	m.printf("\n--- MOST FREQUENT CUSTOMERS ---\n")
	ranks, err := m.reports.TopCustomers(ctx, m.reportSize)
	if err != nil {
		return err
	}
	if len(ranks) == 0 {
		m.printf("No visit data.\n")
		return nil
	}
	for i, r := range ranks {
		m.printf("%d. %s - Phone: %s - Visits: %d\n", i+1, r.Name, r.Phone, r.Visits)
	}
	return nil
}

func (m *Menu) popularProducts(ctx context.Context) error {
	m.printf("\n--- BEST-SELLING PRODUCTS ---\n")
	ranks, err := m.reports.TopProducts(ctx, m.reportSize)
	if err != nil {
		return err
	}
	if len(ranks) == 0 {
		m.printf("No purchase data.\n")
		return nil
	}
	for i, r := range ranks {
		m.printf("%d. %s - Sold: %d\n", i+1, r.Name, r.Quantity)
	}
	return nil
}

// --- input helpers: all raw-text parsing lives here ---

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *Menu) prompt(label string) (string, error) {
	m.printf("%s", label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) promptInt(label string) (int, error) {
	raw, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func (m *Menu) promptInt64(label string) (int64, error) {
	raw, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (m *Menu) promptDecimal(label string) (decimal.Decimal, error) {
	raw, err := m.prompt(label)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}
