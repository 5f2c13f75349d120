package models

import "time"

// Customer is a known buyer of a business; the debtor of record for
// part-paid sales.
type Customer struct {
	ID         int64     `json:"id" db:"id"`
	BusinessID int64     `json:"business_id" db:"business_id"`
	FullName   string    `json:"full_name" db:"full_name" binding:"required"`
	Phone      string    `json:"phone" db:"phone" binding:"required"`
	Address    *string   `json:"address,omitempty" db:"address"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	Debts []Debt `json:"debts,omitempty"` // open debts when listed as a debtor
}

// CustomerSearchResult is a POS search hit with the customer's
// outstanding debt total.
type CustomerSearchResult struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	TotalDebt int64  `json:"total_debt"`
}
