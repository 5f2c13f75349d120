package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop_pos_backend/internal/models"
)

// SaleRepository defines the interface for sale and sale-item database
// operations.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)
	GetSaleForReceipt(saleID, businessID int64) (*models.Sale, error)
	GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error)
	GetSales(businessID int64, from, to *time.Time, query *string) ([]models.Sale, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales (shop_id, sold_by_id, customer_id, customer_name, total, amount_paid, balance, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		sale.ShopID, sale.SoldByID, sale.CustomerID, sale.CustomerName,
		sale.Total, sale.AmountPaid, sale.Balance, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items (sale_id, shop_product_id, name, quantity, price)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.SaleID, item.ShopProductID, item.Name, item.Quantity, item.Price,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating sale item (product ID %d): %v", ErrDatabaseError, item.ShopProductID, err)
	}
	return item.ID, nil
}

func (r *saleRepository) GetSaleForReceipt(saleID, businessID int64) (*models.Sale, error) {
	sale := &models.Sale{}
	var shopName, soldByName string
	query := `SELECT sa.id, sa.shop_id, sa.sold_by_id, sa.customer_id, sa.customer_name,
	                 sa.total, sa.amount_paid, sa.balance, sa.created_at,
	                 s.name, u.full_name
	          FROM sales sa
	          JOIN shops s ON sa.shop_id = s.id
	          JOIN users u ON sa.sold_by_id = u.id
	          WHERE sa.id = $1 AND s.business_id = $2`
	err := r.db.QueryRow(query, saleID, businessID).Scan(
		&sale.ID, &sale.ShopID, &sale.SoldByID, &sale.CustomerID, &sale.CustomerName,
		&sale.Total, &sale.AmountPaid, &sale.Balance, &sale.CreatedAt,
		&shopName, &soldByName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale ID %d for receipt: %v", ErrDatabaseError, saleID, err)
	}
	sale.ShopName = &shopName
	sale.SoldByName = &soldByName
	return sale, nil
}

func (r *saleRepository) GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `SELECT id, sale_id, shop_product_id, name, quantity, price
	          FROM sale_items
	          WHERE sale_id = $1
	          ORDER BY id`
	rows, err := r.db.Query(query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ShopProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *saleRepository) GetSales(businessID int64, from, to *time.Time, query *string) ([]models.Sale, error) {
	sales := []models.Sale{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT sa.id, sa.shop_id, sa.sold_by_id, sa.customer_id, sa.customer_name,
	    sa.total, sa.amount_paid, sa.balance, sa.created_at,
	    s.name, u.full_name, c.full_name
	  FROM sales sa
	  JOIN shops s ON sa.shop_id = s.id
	  JOIN users u ON sa.sold_by_id = u.id
	  LEFT JOIN customers c ON sa.customer_id = c.id
	  WHERE s.business_id = $1`)

	args := []interface{}{businessID}
	argCount := 2

	if from != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND sa.created_at >= $%d", argCount))
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND sa.created_at <= $%d", argCount))
		args = append(args, *to)
		argCount++
	}
	if query != nil && *query != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (sa.customer_name ILIKE '%%' || $%d || '%%' OR c.full_name ILIKE '%%' || $%d || '%%')", argCount, argCount))
		args = append(args, *query)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY sa.created_at DESC")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getting sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sale models.Sale
		var shopName, soldByName string
		var customerFullName sql.NullString
		if err := rows.Scan(
			&sale.ID, &sale.ShopID, &sale.SoldByID, &sale.CustomerID, &sale.CustomerName,
			&sale.Total, &sale.AmountPaid, &sale.Balance, &sale.CreatedAt,
			&shopName, &soldByName, &customerFullName,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		sale.ShopName = &shopName
		sale.SoldByName = &soldByName
		if sale.CustomerName == nil && customerFullName.Valid {
			sale.CustomerName = &customerFullName.String
		}
		sales = append(sales, sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sales: %v", ErrDatabaseError, err)
	}
	return sales, nil
}
