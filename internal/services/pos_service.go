package services

import (
	"errors"
	"fmt"
	"strings"

	"shop_pos_backend/internal/models"
	"shop_pos_backend/internal/repositories"
)

const (
	goodsSearchLimit    = 20
	customerSearchLimit = 10
)

// PosService covers the read-side of the point-of-sale screen: product and
// customer search plus receipt retrieval.
type PosService interface {
	SearchGoods(businessID int64, query string) ([]models.GoodsSearchResult, error)
	SearchCustomers(businessID int64, query string) ([]models.CustomerSearchResult, error)
	GetReceipt(businessID, saleID int64) (*models.Receipt, error)
}

type posService struct {
	productRepo  repositories.ProductRepository
	customerRepo repositories.CustomerRepository
	saleRepo     repositories.SaleRepository
	debtRepo     repositories.DebtRepository
}

// NewPosService creates a new instance of PosService.
func NewPosService(
	pr repositories.ProductRepository,
	cr repositories.CustomerRepository,
	slr repositories.SaleRepository,
	dr repositories.DebtRepository,
) PosService {
	return &posService{
		productRepo:  pr,
		customerRepo: cr,
		saleRepo:     slr,
		debtRepo:     dr,
	}
}

func (s *posService) SearchGoods(businessID int64, query string) ([]models.GoodsSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.GoodsSearchResult{}, nil
	}
	results, err := s.productRepo.SearchInStock(businessID, query, goodsSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search goods: %w", err)
	}
	return results, nil
}

func (s *posService) SearchCustomers(businessID int64, query string) ([]models.CustomerSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.CustomerSearchResult{}, nil
	}
	results, err := s.customerRepo.Search(businessID, query, customerSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return results, nil
}

// GetReceipt builds the printable view of a sale. TotalDebt is the
// customer's open-debt position including this sale; PreviousDebt backs the
// sale's own balance out of it.
func (s *posService) GetReceipt(businessID, saleID int64) (*models.Receipt, error) {
	sale, err := s.saleRepo.GetSaleForReceipt(saleID, businessID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to fetch sale %d for receipt: %w", saleID, err)
	}

	items, err := s.saleRepo.GetSaleItemsBySaleID(saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sale items for sale %d: %w", saleID, err)
	}

	var totalDebt int64
	if sale.CustomerID != nil {
		totalDebt, err = s.debtRepo.GetOpenDebtTotal(*sale.CustomerID, businessID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum open debts for customer %d: %w", *sale.CustomerID, err)
		}
	}
	previousDebt := totalDebt - sale.Balance
	if previousDebt < 0 {
		previousDebt = 0
	}

	receipt := &models.Receipt{
		ID:           sale.ID,
		CreatedAt:    sale.CreatedAt,
		CustomerName: sale.CustomerName,
		Total:        sale.Total,
		AmountPaid:   sale.AmountPaid,
		Balance:      sale.Balance,
		PreviousDebt: previousDebt,
		TotalDebt:    totalDebt,
		Items:        make([]models.ReceiptItem, 0, len(items)),
	}
	if sale.ShopName != nil {
		receipt.Shop = *sale.ShopName
	}
	if sale.SoldByName != nil {
		receipt.SoldBy = *sale.SoldByName
	}
	for _, item := range items {
		receipt.Items = append(receipt.Items, models.ReceiptItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Subtotal: item.Quantity * item.Price,
		})
	}
	return receipt, nil
}
