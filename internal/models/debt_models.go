package models

import "time"

// Debt is a customer's outstanding-balance record. At most one open
// (is_cleared = false) debt per customer is accrued into by sales; a new
// record is created only when no open one exists.
type Debt struct {
	ID          int64     `json:"id" db:"id"`
	CustomerID  int64     `json:"customer_id" db:"customer_id"`
	BusinessID  int64     `json:"business_id" db:"business_id"`
	TotalAmount int64     `json:"total_amount" db:"total_amount"`
	AmountPaid  int64     `json:"amount_paid" db:"amount_paid"`
	Balance     int64     `json:"balance" db:"balance"`
	IsCleared   bool      `json:"is_cleared" db:"is_cleared"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Payments []DebtPayment `json:"payments,omitempty"`
}

// DebtPayment types.
const (
	DebtPaymentTypePayment = "PAYMENT"
)

// DebtPayment is one recorded repayment against a debt.
type DebtPayment struct {
	ID            int64     `json:"id" db:"id"`
	DebtID        int64     `json:"debt_id" db:"debt_id"`
	Amount        int64     `json:"amount" db:"amount"`
	Type          string    `json:"type" db:"type"`
	CreatedByID   int64     `json:"created_by_id" db:"created_by_id"`
	CreatedByName *string   `json:"created_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
