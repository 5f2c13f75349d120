package models

import "time"

// Shop is a retail outlet belonging to a business.
type Shop struct {
	ID         int64     `json:"id" db:"id"`
	BusinessID int64     `json:"business_id" db:"business_id"`
	Name       string    `json:"name" db:"name" binding:"required"`
	Location   *string   `json:"location,omitempty" db:"location"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ShopProduct is a stocked product in a single shop.
// Quantity never goes negative; decrements happen only through the
// conditional-update in the product repository.
type ShopProduct struct {
	ID           int64     `json:"id" db:"id"`
	ShopID       int64     `json:"shop_id" db:"shop_id"`
	BusinessID   int64     `json:"business_id" db:"business_id"`
	Name         string    `json:"name" db:"name" binding:"required"`
	Quantity     int64     `json:"quantity" db:"quantity"`
	CostPrice    int64     `json:"cost_price" db:"cost_price"`
	SellingPrice int64     `json:"selling_price" db:"selling_price"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// MiscProductName is the per-shop sentinel product that anchors
// outside-item sale lines to a valid product foreign key.
const MiscProductName = "__POS_MISC__"

// GoodsSearchResult is a POS search hit for an in-stock shop product.
type GoodsSearchResult struct {
	ShopProductID int64  `json:"shop_product_id"`
	Name          string `json:"name"`
	ShopName      string `json:"shop_name"`
	Price         int64  `json:"price"`
	Quantity      int64  `json:"quantity"`
}
