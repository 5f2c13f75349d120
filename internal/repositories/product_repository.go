package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"shop_pos_backend/internal/models"
)

// ProductRepository defines the interface for shop-product database
// operations used by the POS flow.
type ProductRepository interface {
	// GetForSale fetches a product scoped to the caller's business. Inside a
	// sale transaction the executor must be the transaction handle so the
	// quantity read is fresh.
	GetForSale(executor SQLExecutor, productID, businessID int64) (*models.ShopProduct, error)

	// DecrementStock atomically subtracts quantity where enough stock remains.
	// ErrNotFound means no row satisfied the condition: either the product is
	// gone or a concurrent sale consumed the stock first.
	DecrementStock(executor SQLExecutor, productID, quantity int64) (int64, error)

	// UpsertMiscProduct resolves the per-shop sentinel product that anchors
	// outside-item sale lines, creating it if absent. Keyed on
	// (shop_id, name) so two concurrent sales cannot create it twice.
	UpsertMiscProduct(executor SQLExecutor, shopID, businessID int64) (int64, error)

	SearchInStock(businessID int64, query string, limit int) ([]models.GoodsSearchResult, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetForSale(executor SQLExecutor, productID, businessID int64) (*models.ShopProduct, error) {
	if executor == nil {
		executor = r.db
	}
	product := &models.ShopProduct{}
	query := `SELECT id, shop_id, business_id, name, quantity, cost_price, selling_price, created_at, updated_at
	          FROM shop_products
	          WHERE id = $1 AND business_id = $2`
	err := executor.QueryRow(query, productID, businessID).Scan(
		&product.ID, &product.ShopID, &product.BusinessID, &product.Name,
		&product.Quantity, &product.CostPrice, &product.SellingPrice,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shop product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return product, nil
}

func (r *productRepository) DecrementStock(executor SQLExecutor, productID, quantity int64) (int64, error) {
	var newQuantity int64
	query := `UPDATE shop_products
	          SET quantity = quantity - $1, updated_at = now()
	          WHERE id = $2 AND quantity >= $1
	          RETURNING quantity`
	err := executor.QueryRow(query, quantity, productID).Scan(&newQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: decrementing stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return newQuantity, nil
}

func (r *productRepository) UpsertMiscProduct(executor SQLExecutor, shopID, businessID int64) (int64, error) {
	var id int64
	// DO UPDATE (rather than DO NOTHING) so RETURNING always yields the row id.
	query := `INSERT INTO shop_products (shop_id, business_id, name, quantity, cost_price, selling_price)
	          VALUES ($1, $2, $3, 0, 0, 0)
	          ON CONFLICT ON CONSTRAINT shop_products_shop_id_name_key
	          DO UPDATE SET updated_at = now()
	          RETURNING id`
	err := executor.QueryRow(query, shopID, businessID, models.MiscProductName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: upserting misc product for shop ID %d: %v", ErrDatabaseError, shopID, err)
	}
	return id, nil
}

func (r *productRepository) SearchInStock(businessID int64, query string, limit int) ([]models.GoodsSearchResult, error) {
	results := []models.GoodsSearchResult{}
	sqlQuery := `SELECT sp.id, sp.name, s.name, sp.selling_price, sp.quantity
	             FROM shop_products sp
	             JOIN shops s ON sp.shop_id = s.id
	             WHERE sp.business_id = $1 AND sp.quantity > 0
	               AND sp.name ILIKE '%' || $2 || '%'
	               AND sp.name <> $3
	             ORDER BY sp.name
	             LIMIT $4`
	rows, err := r.db.Query(sqlQuery, businessID, query, models.MiscProductName, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: searching shop products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var res models.GoodsSearchResult
		if err := rows.Scan(&res.ShopProductID, &res.Name, &res.ShopName, &res.Price, &res.Quantity); err != nil {
			return nil, fmt.Errorf("%w: scanning product search result: %v", ErrDatabaseError, err)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product search results: %v", ErrDatabaseError, err)
	}
	return results, nil
}
