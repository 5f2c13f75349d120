package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"shop_pos_backend/internal/models"
	"shop_pos_backend/internal/repositories"
)

// memStore is an in-memory stand-in for the Postgres repositories. It
// implements every repository interface plus TxManager: WithinTx snapshots
// the whole store and restores it if the callback fails, which gives tests
// the same all-or-nothing semantics the real transaction provides.
//
// WithinTx holds the store lock for the duration of the callback, so
// concurrent transactions serialize exactly like conflicting row locks
// would.
type memStore struct {
	mu sync.Mutex

	shops     map[int64]models.Shop
	products  map[int64]models.ShopProduct
	customers map[int64]models.Customer
	sales     map[int64]models.Sale
	saleItems map[int64]models.SaleItem
	debts     map[int64]models.Debt
	payments  map[int64]models.DebtPayment
	users     map[int64]string

	nextID int64

	// failSaleItems forces CreateSaleItem to fail, to prove the
	// transaction rolls back mid-flight mutations.
	failSaleItems bool
}

func newMemStore() *memStore {
	return &memStore{
		shops:     map[int64]models.Shop{},
		products:  map[int64]models.ShopProduct{},
		customers: map[int64]models.Customer{},
		sales:     map[int64]models.Sale{},
		saleItems: map[int64]models.SaleItem{},
		debts:     map[int64]models.Debt{},
		payments:  map[int64]models.DebtPayment{},
		users:     map[int64]string{},
		nextID:    1000,
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// --- TxManager ---

func (m *memStore) WithinTx(fn func(tx repositories.SQLExecutor) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	shops := copyMap(m.shops)
	products := copyMap(m.products)
	customers := copyMap(m.customers)
	sales := copyMap(m.sales)
	saleItems := copyMap(m.saleItems)
	debts := copyMap(m.debts)
	payments := copyMap(m.payments)
	nextID := m.nextID

	if err := fn(nil); err != nil {
		m.shops = shops
		m.products = products
		m.customers = customers
		m.sales = sales
		m.saleItems = saleItems
		m.debts = debts
		m.payments = payments
		m.nextID = nextID
		return err
	}
	return nil
}

// --- ShopRepository ---

func (m *memStore) GetShopByID(_ repositories.SQLExecutor, shopID, businessID int64) (*models.Shop, error) {
	shop, ok := m.shops[shopID]
	if !ok || shop.BusinessID != businessID {
		return nil, repositories.ErrNotFound
	}
	out := shop
	return &out, nil
}

func (m *memStore) GetShops(businessID int64) ([]models.Shop, error) {
	shops := []models.Shop{}
	for _, s := range m.shops {
		if s.BusinessID == businessID {
			shops = append(shops, s)
		}
	}
	return shops, nil
}

// --- ProductRepository ---

func (m *memStore) GetForSale(_ repositories.SQLExecutor, productID, businessID int64) (*models.ShopProduct, error) {
	p, ok := m.products[productID]
	if !ok || p.BusinessID != businessID {
		return nil, repositories.ErrNotFound
	}
	out := p
	return &out, nil
}

func (m *memStore) DecrementStock(_ repositories.SQLExecutor, productID, quantity int64) (int64, error) {
	p, ok := m.products[productID]
	if !ok || p.Quantity < quantity {
		return 0, repositories.ErrNotFound
	}
	p.Quantity -= quantity
	m.products[productID] = p
	return p.Quantity, nil
}

func (m *memStore) UpsertMiscProduct(_ repositories.SQLExecutor, shopID, businessID int64) (int64, error) {
	for id, p := range m.products {
		if p.ShopID == shopID && p.Name == models.MiscProductName {
			return id, nil
		}
	}
	id := m.id()
	m.products[id] = models.ShopProduct{
		ID: id, ShopID: shopID, BusinessID: businessID,
		Name: models.MiscProductName,
	}
	return id, nil
}

func (m *memStore) SearchInStock(businessID int64, query string, limit int) ([]models.GoodsSearchResult, error) {
	results := []models.GoodsSearchResult{}
	for _, p := range m.products {
		if p.BusinessID != businessID || p.Quantity <= 0 || p.Name == models.MiscProductName {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			continue
		}
		shopName := ""
		if s, ok := m.shops[p.ShopID]; ok {
			shopName = s.Name
		}
		results = append(results, models.GoodsSearchResult{
			ShopProductID: p.ID, Name: p.Name, ShopName: shopName,
			Price: p.SellingPrice, Quantity: p.Quantity,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// --- SaleRepository ---

func (m *memStore) CreateSale(_ repositories.SQLExecutor, sale *models.Sale) (int64, error) {
	sale.ID = m.id()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	m.sales[sale.ID] = *sale
	return sale.ID, nil
}

func (m *memStore) CreateSaleItem(_ repositories.SQLExecutor, item *models.SaleItem) (int64, error) {
	if m.failSaleItems {
		return 0, fmt.Errorf("%w: forced sale item failure", repositories.ErrDatabaseError)
	}
	item.ID = m.id()
	m.saleItems[item.ID] = *item
	return item.ID, nil
}

func (m *memStore) GetSaleForReceipt(saleID, businessID int64) (*models.Sale, error) {
	sale, ok := m.sales[saleID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	shop, ok := m.shops[sale.ShopID]
	if !ok || shop.BusinessID != businessID {
		return nil, repositories.ErrNotFound
	}
	out := sale
	shopName := shop.Name
	soldBy := m.users[sale.SoldByID]
	out.ShopName = &shopName
	out.SoldByName = &soldBy
	return &out, nil
}

func (m *memStore) GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	for _, item := range m.saleItems {
		if item.SaleID == saleID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *memStore) GetSales(businessID int64, from, to *time.Time, query *string) ([]models.Sale, error) {
	sales := []models.Sale{}
	for _, sale := range m.sales {
		shop, ok := m.shops[sale.ShopID]
		if !ok || shop.BusinessID != businessID {
			continue
		}
		if from != nil && sale.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && sale.CreatedAt.After(*to) {
			continue
		}
		if query != nil && *query != "" {
			name := ""
			if sale.CustomerName != nil {
				name = *sale.CustomerName
			}
			if sale.CustomerID != nil {
				if c, ok := m.customers[*sale.CustomerID]; ok {
					name += " " + c.FullName
				}
			}
			if !strings.Contains(strings.ToLower(name), strings.ToLower(*query)) {
				continue
			}
		}
		sales = append(sales, sale)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].CreatedAt.After(sales[j].CreatedAt) })
	return sales, nil
}

// --- CustomerRepository ---

func (m *memStore) CreateCustomer(_ repositories.SQLExecutor, customer *models.Customer) (int64, error) {
	for _, c := range m.customers {
		if c.BusinessID == customer.BusinessID && c.Phone == customer.Phone {
			return 0, repositories.ErrDuplicateKey
		}
	}
	customer.ID = m.id()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	m.customers[customer.ID] = *customer
	return customer.ID, nil
}

func (m *memStore) GetCustomerByID(_ repositories.SQLExecutor, customerID, businessID int64) (*models.Customer, error) {
	c, ok := m.customers[customerID]
	if !ok || c.BusinessID != businessID {
		return nil, repositories.ErrNotFound
	}
	out := c
	return &out, nil
}

func (m *memStore) PhoneExists(businessID int64, phone string) (bool, error) {
	for _, c := range m.customers {
		if c.BusinessID == businessID && c.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetDebtors(businessID int64) ([]models.Customer, error) {
	customers := []models.Customer{}
	for _, c := range m.customers {
		if c.BusinessID != businessID {
			continue
		}
		c.Debts = []models.Debt{}
		for _, d := range m.debts {
			if d.CustomerID == c.ID && !d.IsCleared {
				c.Debts = append(c.Debts, d)
			}
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (m *memStore) GetCustomerWithDebts(customerID, businessID int64) (*models.Customer, error) {
	customer, err := m.GetCustomerByID(nil, customerID, businessID)
	if err != nil {
		return nil, err
	}
	customer.Debts = []models.Debt{}
	for _, d := range m.debts {
		if d.CustomerID == customerID {
			customer.Debts = append(customer.Debts, d)
		}
	}
	sort.Slice(customer.Debts, func(i, j int) bool { return customer.Debts[i].ID > customer.Debts[j].ID })
	return customer, nil
}

func (m *memStore) Search(businessID int64, query string, limit int) ([]models.CustomerSearchResult, error) {
	results := []models.CustomerSearchResult{}
	q := strings.ToLower(query)
	for _, c := range m.customers {
		if c.BusinessID != businessID {
			continue
		}
		if !strings.Contains(strings.ToLower(c.FullName), q) && !strings.Contains(c.Phone, query) {
			continue
		}
		var totalDebt int64
		for _, d := range m.debts {
			if d.CustomerID == c.ID && !d.IsCleared {
				totalDebt += d.Balance
			}
		}
		results = append(results, models.CustomerSearchResult{
			ID: c.ID, FullName: c.FullName, Phone: c.Phone, TotalDebt: totalDebt,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].FullName < results[j].FullName })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// --- DebtRepository ---

func (m *memStore) GetOpenDebtForUpdate(_ repositories.SQLExecutor, customerID, businessID int64) (*models.Debt, error) {
	var open *models.Debt
	for _, d := range m.debts {
		if d.CustomerID == customerID && d.BusinessID == businessID && !d.IsCleared {
			if open == nil || d.ID < open.ID {
				out := d
				open = &out
			}
		}
	}
	if open == nil {
		return nil, repositories.ErrNotFound
	}
	return open, nil
}

func (m *memStore) AccrueToDebt(_ repositories.SQLExecutor, debtID, amount int64) error {
	d, ok := m.debts[debtID]
	if !ok {
		return repositories.ErrNotFound
	}
	d.TotalAmount += amount
	d.Balance += amount
	m.debts[debtID] = d
	return nil
}

func (m *memStore) CreateDebt(_ repositories.SQLExecutor, debt *models.Debt) (int64, error) {
	debt.ID = m.id()
	debt.CreatedAt = time.Now()
	debt.UpdatedAt = debt.CreatedAt
	m.debts[debt.ID] = *debt
	return debt.ID, nil
}

func (m *memStore) GetDebtByID(_ repositories.SQLExecutor, debtID, businessID int64) (*models.Debt, error) {
	d, ok := m.debts[debtID]
	if !ok || d.BusinessID != businessID {
		return nil, repositories.ErrNotFound
	}
	out := d
	return &out, nil
}

func (m *memStore) ApplyPayment(_ repositories.SQLExecutor, debtID, amountPaid, balance int64, isCleared bool) error {
	d, ok := m.debts[debtID]
	if !ok {
		return repositories.ErrNotFound
	}
	d.AmountPaid = amountPaid
	d.Balance = balance
	d.IsCleared = isCleared
	m.debts[debtID] = d
	return nil
}

func (m *memStore) CreateDebtPayment(_ repositories.SQLExecutor, payment *models.DebtPayment) (int64, error) {
	payment.ID = m.id()
	payment.CreatedAt = time.Now()
	m.payments[payment.ID] = *payment
	return payment.ID, nil
}

func (m *memStore) GetOpenDebtTotal(customerID, businessID int64) (int64, error) {
	var total int64
	for _, d := range m.debts {
		if d.CustomerID == customerID && d.BusinessID == businessID && !d.IsCleared {
			total += d.Balance
		}
	}
	return total, nil
}

func (m *memStore) GetPaymentsByDebtID(debtID int64) ([]models.DebtPayment, error) {
	payments := []models.DebtPayment{}
	for _, p := range m.payments {
		if p.DebtID == debtID {
			name := m.users[p.CreatedByID]
			p.CreatedByName = &name
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID > payments[j].ID })
	return payments, nil
}

// --- fixture helpers ---

func (m *memStore) addShop(businessID int64, name string) int64 {
	id := m.id()
	m.shops[id] = models.Shop{ID: id, BusinessID: businessID, Name: name}
	return id
}

func (m *memStore) addProduct(shopID, businessID int64, name string, quantity, price int64) int64 {
	id := m.id()
	m.products[id] = models.ShopProduct{
		ID: id, ShopID: shopID, BusinessID: businessID,
		Name: name, Quantity: quantity, SellingPrice: price,
	}
	return id
}

func (m *memStore) addCustomer(businessID int64, fullName, phone string) int64 {
	id := m.id()
	m.customers[id] = models.Customer{ID: id, BusinessID: businessID, FullName: fullName, Phone: phone}
	return id
}

func (m *memStore) addUser(userID int64, fullName string) {
	m.users[userID] = fullName
}

func (m *memStore) openDebtsFor(customerID int64) []models.Debt {
	open := []models.Debt{}
	for _, d := range m.debts {
		if d.CustomerID == customerID && !d.IsCleared {
			open = append(open, d)
		}
	}
	return open
}

func (m *memStore) productQuantity(productID int64) int64 {
	return m.products[productID].Quantity
}

func (m *memStore) itemsForSale(saleID int64) []models.SaleItem {
	items, _ := m.GetSaleItemsBySaleID(saleID)
	return items
}

func newSaleServiceForTest(store *memStore) SaleService {
	return NewSaleService(store, store, store, store, store, store)
}
