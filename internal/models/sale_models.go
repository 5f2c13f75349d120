package models

import "time"

// Sale is a completed point-of-sale transaction. Rows are written once at
// commit time and never mutated afterwards.
type Sale struct {
	ID           int64     `json:"id" db:"id"`
	ShopID       int64     `json:"shop_id" db:"shop_id"`
	SoldByID     int64     `json:"sold_by_id" db:"sold_by_id"`
	CustomerID   *int64    `json:"customer_id,omitempty" db:"customer_id"`
	CustomerName *string   `json:"customer_name,omitempty" db:"customer_name"`
	Total        int64     `json:"total" db:"total"`
	AmountPaid   int64     `json:"amount_paid" db:"amount_paid"`
	Balance      int64     `json:"balance" db:"balance"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	ShopName     *string    `json:"shop_name,omitempty"`
	SoldByName   *string    `json:"sold_by_name,omitempty"`
	Items        []SaleItem `json:"items,omitempty"`
}

// SaleItem is one cart line of a sale. Name is a snapshot of the product
// name at sale time, so later renames do not rewrite old receipts.
type SaleItem struct {
	ID            int64  `json:"id" db:"id"`
	SaleID        int64  `json:"sale_id" db:"sale_id"`
	ShopProductID int64  `json:"shop_product_id" db:"shop_product_id"`
	Name          string `json:"name" db:"name"`
	Quantity      int64  `json:"quantity" db:"quantity"`
	Price         int64  `json:"price" db:"price"`
}

// SaleFilters defines the available filters for querying sales.
type SaleFilters struct {
	Period *string `form:"period"` // today, week, month, year
	From   *string `form:"from"`   // YYYY-MM-DD
	To     *string `form:"to"`     // YYYY-MM-DD
	Query  *string `form:"q"`      // customer name search
}

// SalesList is the sales-page response: the matching sales plus their
// revenue sum.
type SalesList struct {
	Sales        []Sale `json:"sales"`
	TotalRevenue int64  `json:"total_revenue"`
	Count        int    `json:"count"`
}

// ReceiptItem is one printed line of a receipt.
type ReceiptItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
	Subtotal int64  `json:"subtotal"`
}

// Receipt is the printable view of a sale, including the customer's debt
// position. TotalDebt sums all open debts; PreviousDebt excludes the
// balance this sale added.
type Receipt struct {
	ID           int64         `json:"id"`
	Shop         string        `json:"shop"`
	SoldBy       string        `json:"sold_by"`
	CreatedAt    time.Time     `json:"created_at"`
	CustomerName *string       `json:"customer_name,omitempty"`
	Items        []ReceiptItem `json:"items"`
	Total        int64         `json:"total"`
	AmountPaid   int64         `json:"amount_paid"`
	Balance      int64         `json:"balance"`
	PreviousDebt int64         `json:"previous_debt"`
	TotalDebt    int64         `json:"total_debt"`
}
