package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop_pos_backend/internal/models"
	"shop_pos_backend/internal/repositories"
	"shop_pos_backend/pkg/utils"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrShopNotFound      = errors.New("shop not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrInsufficientStock = errors.New("insufficient stock for")
)

// Identity is the authenticated operator making the request, resolved by the
// auth middleware. BusinessID scopes every lookup to the caller's tenant.
type Identity struct {
	UserID     int64
	FullName   string
	BusinessID int64
}

// --- Data Transfer Objects (DTOs) ---

// SellItemRequest is one shop-stocked cart line. Numeric fields arrive
// loosely typed and are coerced with rejection of non-whole values.
type SellItemRequest struct {
	ShopProductID json.Number `json:"shopProductId"`
	Quantity      json.Number `json:"quantity"`
	Price         json.Number `json:"price"`
}

// OutsideItemRequest is a cart line for an item not tracked in inventory.
type OutsideItemRequest struct {
	Name     string      `json:"name"`
	Quantity json.Number `json:"quantity"`
	Price    json.Number `json:"price"`
}

// SellRequest is the sale-completion payload. Two wire shapes are accepted:
// the cart payload (shopId + shopItems/outsideItems) and the legacy
// single-item payload (shopProductId/quantity/price/paymentStatus). Both are
// normalized into one cart representation before the transaction runs.
type SellRequest struct {
	ShopID       json.Number          `json:"shopId"`
	ShopItems    []SellItemRequest    `json:"shopItems"`
	OutsideItems []OutsideItemRequest `json:"outsideItems"`
	AmountPaid   json.Number          `json:"amountPaid"`
	CustomerID   json.Number          `json:"customerId"`
	CustomerName string               `json:"customerName"`

	// Legacy single-item fields.
	ShopProductID json.Number `json:"shopProductId"`
	Quantity      json.Number `json:"quantity"`
	Price         json.Number `json:"price"`
	PaymentStatus string      `json:"paymentStatus"`
}

// isCartPayload reports whether the request uses the cart shape.
func (r *SellRequest) isCartPayload() bool {
	return r.ShopID.String() != "" || r.ShopItems != nil || r.OutsideItems != nil
}

// SaleResult is the successful sale-completion response.
type SaleResult struct {
	SaleID  int64 `json:"saleId"`
	Total   int64 `json:"total"`
	Paid    int64 `json:"paid"`
	Balance int64 `json:"balance"`
}

// --- End of DTOs ---

// normalized cart representation shared by both wire shapes.
type cartLine struct {
	productID int64
	quantity  int64
	price     int64
}

type outsideLine struct {
	name     string
	quantity int64
	price    int64
}

type normalizedSale struct {
	shopID       int64
	shopLines    []cartLine
	outsideLines []outsideLine
	total        int64
	amountPaid   int64
	balance      int64
	customerID   *int64
	customerName *string
}

// --- SaleService Interface ---
type SaleService interface {
	CompleteSale(operator Identity, req SellRequest) (*SaleResult, error)
	GetSales(businessID int64, filters models.SaleFilters) (*models.SalesList, error)
}

type saleService struct {
	shopRepo     repositories.ShopRepository
	productRepo  repositories.ProductRepository
	saleRepo     repositories.SaleRepository
	customerRepo repositories.CustomerRepository
	debtRepo     repositories.DebtRepository
	tx           repositories.TxManager
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(
	sr repositories.ShopRepository,
	pr repositories.ProductRepository,
	slr repositories.SaleRepository,
	cr repositories.CustomerRepository,
	dr repositories.DebtRepository,
	tx repositories.TxManager,
) SaleService {
	return &saleService{
		shopRepo:     sr,
		productRepo:  pr,
		saleRepo:     slr,
		customerRepo: cr,
		debtRepo:     dr,
		tx:           tx,
	}
}

// --- Method Implementations ---

// CompleteSale validates and normalizes the request, then runs the whole
// sale as one transaction: sale row, line items, conditional stock
// decrements, and debt accrual commit together or not at all.
func (s *saleService) CompleteSale(operator Identity, req SellRequest) (*SaleResult, error) {
	var (
		n   *normalizedSale
		err error
	)
	if req.isCartPayload() {
		n, err = s.normalizeCart(&req)
	} else {
		n, err = s.normalizeLegacy(operator, &req)
	}
	if err != nil {
		return nil, err
	}

	var result *SaleResult
	txErr := s.tx.WithinTx(func(tx repositories.SQLExecutor) error {
		if _, repoErr := s.shopRepo.GetShopByID(tx, n.shopID, operator.BusinessID); repoErr != nil {
			if errors.Is(repoErr, repositories.ErrNotFound) {
				return ErrShopNotFound
			}
			return fmt.Errorf("failed to verify shop %d: %w", n.shopID, repoErr)
		}

		if n.customerID != nil {
			if _, repoErr := s.customerRepo.GetCustomerByID(tx, *n.customerID, operator.BusinessID); repoErr != nil {
				if errors.Is(repoErr, repositories.ErrNotFound) {
					return ErrCustomerNotFound
				}
				return fmt.Errorf("failed to verify customer %d: %w", *n.customerID, repoErr)
			}
		}

		sale := &models.Sale{
			ShopID:       n.shopID,
			SoldByID:     operator.UserID,
			CustomerID:   n.customerID,
			CustomerName: n.customerName,
			Total:        n.total,
			AmountPaid:   n.amountPaid,
			Balance:      n.balance,
			CreatedAt:    time.Now(),
		}
		if _, repoErr := s.saleRepo.CreateSale(tx, sale); repoErr != nil {
			return fmt.Errorf("failed to create sale record: %w", repoErr)
		}

		var miscProductID int64
		if len(n.outsideLines) > 0 {
			var repoErr error
			miscProductID, repoErr = s.productRepo.UpsertMiscProduct(tx, n.shopID, operator.BusinessID)
			if repoErr != nil {
				return fmt.Errorf("failed to resolve misc product for shop %d: %w", n.shopID, repoErr)
			}
		}

		for _, line := range n.shopLines {
			// Fresh read inside the transaction; the quantity captured at
			// request time is not trusted.
			product, repoErr := s.productRepo.GetForSale(tx, line.productID, operator.BusinessID)
			if repoErr != nil {
				if errors.Is(repoErr, repositories.ErrNotFound) {
					return ErrProductNotFound
				}
				return fmt.Errorf("failed to fetch product %d: %w", line.productID, repoErr)
			}

			if product.Quantity < line.quantity {
				return fmt.Errorf("%w %s: requested %d, available %d",
					ErrInsufficientStock, product.Name, line.quantity, product.Quantity)
			}

			if _, repoErr := s.productRepo.DecrementStock(tx, product.ID, line.quantity); repoErr != nil {
				if errors.Is(repoErr, repositories.ErrNotFound) {
					// The conditional update matched no row: a concurrent
					// sale consumed the stock between the read and the write.
					return fmt.Errorf("%w %s", ErrInsufficientStock, product.Name)
				}
				return fmt.Errorf("failed to decrement stock for product %s (ID: %d): %w", product.Name, product.ID, repoErr)
			}

			item := &models.SaleItem{
				SaleID:        sale.ID,
				ShopProductID: product.ID,
				Name:          product.Name,
				Quantity:      line.quantity,
				Price:         line.price,
			}
			if _, repoErr := s.saleRepo.CreateSaleItem(tx, item); repoErr != nil {
				return fmt.Errorf("failed to create sale item (product ID %d): %w", product.ID, repoErr)
			}
		}

		for _, line := range n.outsideLines {
			item := &models.SaleItem{
				SaleID:        sale.ID,
				ShopProductID: miscProductID,
				Name:          line.name,
				Quantity:      line.quantity,
				Price:         line.price,
			}
			if _, repoErr := s.saleRepo.CreateSaleItem(tx, item); repoErr != nil {
				return fmt.Errorf("failed to create outside sale item %q: %w", line.name, repoErr)
			}
		}

		if n.balance > 0 {
			debt, repoErr := s.debtRepo.GetOpenDebtForUpdate(tx, *n.customerID, operator.BusinessID)
			switch {
			case repoErr == nil:
				if accErr := s.debtRepo.AccrueToDebt(tx, debt.ID, n.balance); accErr != nil {
					return fmt.Errorf("failed to accrue debt for customer %d: %w", *n.customerID, accErr)
				}
			case errors.Is(repoErr, repositories.ErrNotFound):
				newDebt := &models.Debt{
					CustomerID:  *n.customerID,
					BusinessID:  operator.BusinessID,
					TotalAmount: n.balance,
					AmountPaid:  0,
					Balance:     n.balance,
					IsCleared:   false,
				}
				if _, createErr := s.debtRepo.CreateDebt(tx, newDebt); createErr != nil {
					return fmt.Errorf("failed to create debt for customer %d: %w", *n.customerID, createErr)
				}
			default:
				return fmt.Errorf("failed to look up open debt for customer %d: %w", *n.customerID, repoErr)
			}
		}

		result = &SaleResult{
			SaleID:  sale.ID,
			Total:   n.total,
			Paid:    n.amountPaid,
			Balance: n.balance,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return result, nil
}

// normalizeCart validates the cart payload and computes totals. Any
// violation rejects the whole request; line errors carry the 1-based
// position of the offending line.
func (s *saleService) normalizeCart(req *SellRequest) (*normalizedSale, error) {
	shopID, err := utils.WholeNumber(req.ShopID, "shopId")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if shopID <= 0 {
		return nil, fmt.Errorf("%w: invalid shopId", ErrValidation)
	}

	if len(req.ShopItems) == 0 && len(req.OutsideItems) == 0 {
		return nil, fmt.Errorf("%w: no items to sell", ErrValidation)
	}

	n := &normalizedSale{shopID: shopID}

	for i, item := range req.ShopItems {
		productID, err := utils.WholeNumber(item.ShopProductID, fmt.Sprintf("shop item %d: shopProductId", i+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		qty, err := utils.WholeNumber(item.Quantity, fmt.Sprintf("shop item %d: quantity", i+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		price, err := utils.WholeNumber(item.Price, fmt.Sprintf("shop item %d: price", i+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if productID <= 0 {
			return nil, fmt.Errorf("%w: shop item %d: invalid shopProductId", ErrValidation, i+1)
		}
		if qty <= 0 || price <= 0 {
			return nil, fmt.Errorf("%w: shop item %d: invalid quantity or price", ErrValidation, i+1)
		}
		n.shopLines = append(n.shopLines, cartLine{productID: productID, quantity: qty, price: price})
		n.total += qty * price
	}

	for i, item := range req.OutsideItems {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: outside item %d: name is required", ErrValidation, i+1)
		}
		qty, err := utils.WholeNumber(item.Quantity, fmt.Sprintf("outside item %d: quantity", i+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		price, err := utils.WholeNumber(item.Price, fmt.Sprintf("outside item %d: price", i+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if qty <= 0 || price <= 0 {
			return nil, fmt.Errorf("%w: outside item %d: invalid quantity or price", ErrValidation, i+1)
		}
		n.outsideLines = append(n.outsideLines, outsideLine{name: name, quantity: qty, price: price})
		n.total += qty * price
	}

	if req.AmountPaid.String() == "" {
		// Omitted means full payment.
		n.amountPaid = n.total
	} else {
		paid, err := utils.WholeNumber(req.AmountPaid, "amountPaid")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if paid < 0 {
			return nil, fmt.Errorf("%w: amountPaid cannot be negative", ErrValidation)
		}
		if paid > n.total {
			return nil, fmt.Errorf("%w: amountPaid cannot exceed total", ErrValidation)
		}
		n.amountPaid = paid
	}
	n.balance = n.total - n.amountPaid

	if req.CustomerID.String() != "" {
		customerID, err := utils.WholeNumber(req.CustomerID, "customerId")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if customerID <= 0 {
			return nil, fmt.Errorf("%w: invalid customerId", ErrValidation)
		}
		n.customerID = &customerID
	}
	n.customerName = utils.NewNullString(req.CustomerName)

	if n.balance > 0 && n.customerID == nil {
		return nil, fmt.Errorf("%w: customer required for part payment", ErrValidation)
	}

	return n, nil
}

// normalizeLegacy converts the single-item payload into a one-line cart.
// The shop is resolved from the product; the in-transaction fresh read
// still guards the stock race.
func (s *saleService) normalizeLegacy(operator Identity, req *SellRequest) (*normalizedSale, error) {
	productID, err := utils.WholeNumber(req.ShopProductID, "shopProductId")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	qty, err := utils.WholeNumber(req.Quantity, "quantity")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	price, err := utils.WholeNumber(req.Price, "price")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if productID <= 0 || qty <= 0 || price <= 0 {
		return nil, fmt.Errorf("%w: invalid sale data", ErrValidation)
	}

	isCredit := req.PaymentStatus == "credit"
	if isCredit && req.CustomerID.String() == "" {
		return nil, fmt.Errorf("%w: customer required for credit sales", ErrValidation)
	}

	product, repoErr := s.productRepo.GetForSale(nil, productID, operator.BusinessID)
	if repoErr != nil {
		if errors.Is(repoErr, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, repoErr)
	}

	n := &normalizedSale{
		shopID:    product.ShopID,
		shopLines: []cartLine{{productID: productID, quantity: qty, price: price}},
		total:     qty * price,
	}
	if isCredit {
		n.amountPaid = 0
	} else {
		n.amountPaid = n.total
	}
	n.balance = n.total - n.amountPaid

	if req.CustomerID.String() != "" {
		customerID, err := utils.WholeNumber(req.CustomerID, "customerId")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if customerID <= 0 {
			return nil, fmt.Errorf("%w: invalid customerId", ErrValidation)
		}
		n.customerID = &customerID
	}
	n.customerName = utils.NewNullString(req.CustomerName)

	return n, nil
}

func (s *saleService) GetSales(businessID int64, filters models.SaleFilters) (*models.SalesList, error) {
	from, to, err := resolveDateRange(filters)
	if err != nil {
		return nil, err
	}

	sales, repoErr := s.saleRepo.GetSales(businessID, from, to, filters.Query)
	if repoErr != nil {
		return nil, fmt.Errorf("failed to get sales: %w", repoErr)
	}

	var totalRevenue int64
	for _, sale := range sales {
		totalRevenue += sale.Total
	}

	return &models.SalesList{
		Sales:        sales,
		TotalRevenue: totalRevenue,
		Count:        len(sales),
	}, nil
}

// resolveDateRange turns the period shortcut or explicit from/to dates into
// an inclusive time window. Explicit bounds override the period.
func resolveDateRange(filters models.SaleFilters) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if filters.Period != nil && *filters.Period != "" {
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		var start time.Time
		switch *filters.Period {
		case "today":
			start = startOfDay
		case "week":
			start = startOfDay.AddDate(0, 0, -7)
		case "month":
			start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		case "year":
			start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		default:
			return nil, nil, fmt.Errorf("%w: unknown period %q", ErrValidation, *filters.Period)
		}
		from = &start
		to = &now
	}

	if filters.From != nil && *filters.From != "" {
		t, err := time.Parse("2006-01-02", *filters.From)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid from date %q, expected YYYY-MM-DD", ErrValidation, *filters.From)
		}
		from = &t
	}
	if filters.To != nil && *filters.To != "" {
		t, err := time.Parse("2006-01-02", *filters.To)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid to date %q, expected YYYY-MM-DD", ErrValidation, *filters.To)
		}
		endOfDay := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &endOfDay
	}

	return from, to, nil
}
