package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"shop_pos_backend/internal/models"
)

// ShopRepository defines the interface for shop-related database operations.
// Every lookup is scoped by the caller's business ID; a shop belonging to a
// different business is indistinguishable from a missing one.
type ShopRepository interface {
	GetShopByID(executor SQLExecutor, shopID, businessID int64) (*models.Shop, error)
	GetShops(businessID int64) ([]models.Shop, error)
}

type shopRepository struct {
	db *sql.DB
}

// NewShopRepository creates a new instance of ShopRepository.
func NewShopRepository(db *sql.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) GetShopByID(executor SQLExecutor, shopID, businessID int64) (*models.Shop, error) {
	if executor == nil {
		executor = r.db
	}
	shop := &models.Shop{}
	query := `SELECT id, business_id, name, location, created_at, updated_at
	          FROM shops
	          WHERE id = $1 AND business_id = $2`
	err := executor.QueryRow(query, shopID, businessID).Scan(
		&shop.ID, &shop.BusinessID, &shop.Name, &shop.Location, &shop.CreatedAt, &shop.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shop by ID %d: %v", ErrDatabaseError, shopID, err)
	}
	return shop, nil
}

func (r *shopRepository) GetShops(businessID int64) ([]models.Shop, error) {
	shops := []models.Shop{}
	query := `SELECT id, business_id, name, location, created_at, updated_at
	          FROM shops
	          WHERE business_id = $1
	          ORDER BY name`
	rows, err := r.db.Query(query, businessID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting shops: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var shop models.Shop
		if err := rows.Scan(&shop.ID, &shop.BusinessID, &shop.Name, &shop.Location, &shop.CreatedAt, &shop.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning shop: %v", ErrDatabaseError, err)
		}
		shops = append(shops, shop)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating shops: %v", ErrDatabaseError, err)
	}
	return shops, nil
}
