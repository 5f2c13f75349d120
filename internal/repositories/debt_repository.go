package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shop_pos_backend/internal/models"
)

// DebtRepository defines the interface for debt and debt-payment database
// operations.
type DebtRepository interface {
	// GetOpenDebtForUpdate locks the customer's single open debt row for the
	// rest of the transaction. ErrNotFound means no open debt exists.
	GetOpenDebtForUpdate(executor SQLExecutor, customerID, businessID int64) (*models.Debt, error)

	// AccrueToDebt adds amount to both total_amount and balance of an open debt.
	AccrueToDebt(executor SQLExecutor, debtID, amount int64) error

	CreateDebt(executor SQLExecutor, debt *models.Debt) (int64, error)
	GetDebtByID(executor SQLExecutor, debtID, businessID int64) (*models.Debt, error)
	ApplyPayment(executor SQLExecutor, debtID, amountPaid, balance int64, isCleared bool) error
	CreateDebtPayment(executor SQLExecutor, payment *models.DebtPayment) (int64, error)
	GetOpenDebtTotal(customerID, businessID int64) (int64, error)
	GetPaymentsByDebtID(debtID int64) ([]models.DebtPayment, error)
}

type debtRepository struct {
	db *sql.DB
}

// NewDebtRepository creates a new instance of DebtRepository.
func NewDebtRepository(db *sql.DB) DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) GetOpenDebtForUpdate(executor SQLExecutor, customerID, businessID int64) (*models.Debt, error) {
	debt := &models.Debt{}
	query := `SELECT id, customer_id, business_id, total_amount, amount_paid, balance, is_cleared, created_at, updated_at
	          FROM debts
	          WHERE customer_id = $1 AND business_id = $2 AND is_cleared = FALSE
	          ORDER BY created_at
	          LIMIT 1
	          FOR UPDATE`
	err := executor.QueryRow(query, customerID, businessID).Scan(
		&debt.ID, &debt.CustomerID, &debt.BusinessID, &debt.TotalAmount,
		&debt.AmountPaid, &debt.Balance, &debt.IsCleared, &debt.CreatedAt, &debt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting open debt for customer ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return debt, nil
}

func (r *debtRepository) AccrueToDebt(executor SQLExecutor, debtID, amount int64) error {
	query := `UPDATE debts
	          SET total_amount = total_amount + $1, balance = balance + $1, updated_at = $2
	          WHERE id = $3`
	result, err := executor.Exec(query, amount, time.Now(), debtID)
	if err != nil {
		return fmt.Errorf("%w: accruing %d to debt ID %d: %v", ErrDatabaseError, amount, debtID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *debtRepository) CreateDebt(executor SQLExecutor, debt *models.Debt) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO debts (customer_id, business_id, total_amount, amount_paid, balance, is_cleared)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRow(query,
		debt.CustomerID, debt.BusinessID, debt.TotalAmount, debt.AmountPaid, debt.Balance, debt.IsCleared,
	).Scan(&debt.ID, &debt.CreatedAt, &debt.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: creating debt for customer ID %d: %v", ErrDatabaseError, debt.CustomerID, err)
	}
	return debt.ID, nil
}

func (r *debtRepository) GetDebtByID(executor SQLExecutor, debtID, businessID int64) (*models.Debt, error) {
	if executor == nil {
		executor = r.db
	}
	debt := &models.Debt{}
	query := `SELECT id, customer_id, business_id, total_amount, amount_paid, balance, is_cleared, created_at, updated_at
	          FROM debts
	          WHERE id = $1 AND business_id = $2`
	err := executor.QueryRow(query, debtID, businessID).Scan(
		&debt.ID, &debt.CustomerID, &debt.BusinessID, &debt.TotalAmount,
		&debt.AmountPaid, &debt.Balance, &debt.IsCleared, &debt.CreatedAt, &debt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting debt by ID %d: %v", ErrDatabaseError, debtID, err)
	}
	return debt, nil
}

func (r *debtRepository) ApplyPayment(executor SQLExecutor, debtID, amountPaid, balance int64, isCleared bool) error {
	query := `UPDATE debts
	          SET amount_paid = $1, balance = $2, is_cleared = $3, updated_at = $4
	          WHERE id = $5`
	result, err := executor.Exec(query, amountPaid, balance, isCleared, time.Now(), debtID)
	if err != nil {
		return fmt.Errorf("%w: applying payment to debt ID %d: %v", ErrDatabaseError, debtID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *debtRepository) CreateDebtPayment(executor SQLExecutor, payment *models.DebtPayment) (int64, error) {
	query := `INSERT INTO debt_payments (debt_id, amount, type, created_by_id)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at`
	err := executor.QueryRow(query, payment.DebtID, payment.Amount, payment.Type, payment.CreatedByID).
		Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: creating debt payment for debt ID %d: %v", ErrDatabaseError, payment.DebtID, err)
	}
	return payment.ID, nil
}

func (r *debtRepository) GetOpenDebtTotal(customerID, businessID int64) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(balance), 0)
	          FROM debts
	          WHERE customer_id = $1 AND business_id = $2 AND is_cleared = FALSE`
	if err := r.db.QueryRow(query, customerID, businessID).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing open debts for customer ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return total, nil
}

func (r *debtRepository) GetPaymentsByDebtID(debtID int64) ([]models.DebtPayment, error) {
	payments := []models.DebtPayment{}
	query := `SELECT dp.id, dp.debt_id, dp.amount, dp.type, dp.created_by_id, u.full_name, dp.created_at
	          FROM debt_payments dp
	          JOIN users u ON dp.created_by_id = u.id
	          WHERE dp.debt_id = $1
	          ORDER BY dp.created_at DESC`
	rows, err := r.db.Query(query, debtID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting payments for debt ID %d: %v", ErrDatabaseError, debtID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.DebtPayment
		var createdByName string
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.Type, &p.CreatedByID, &createdByName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning debt payment: %v", ErrDatabaseError, err)
		}
		p.CreatedByName = &createdByName
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating debt payments: %v", ErrDatabaseError, err)
	}
	return payments, nil
}
