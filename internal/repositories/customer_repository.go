package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"shop_pos_backend/internal/models"

	"github.com/lib/pq"
)

// CustomerRepository defines the interface for customer database operations.
type CustomerRepository interface {
	CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(executor SQLExecutor, customerID, businessID int64) (*models.Customer, error)
	PhoneExists(businessID int64, phone string) (bool, error)
	GetDebtors(businessID int64) ([]models.Customer, error)
	GetCustomerWithDebts(customerID, businessID int64) (*models.Customer, error)
	Search(businessID int64, query string, limit int) ([]models.CustomerSearchResult, error)
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO customers (business_id, full_name, phone, address)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRow(query, customer.BusinessID, customer.FullName, customer.Phone, customer.Address).
		Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: customer with phone '%s' already exists (constraint: %s)", ErrDuplicateKey, customer.Phone, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating customer: %v", ErrDatabaseError, err)
	}
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(executor SQLExecutor, customerID, businessID int64) (*models.Customer, error) {
	if executor == nil {
		executor = r.db
	}
	customer := &models.Customer{}
	query := `SELECT id, business_id, full_name, phone, address, created_at, updated_at
	          FROM customers
	          WHERE id = $1 AND business_id = $2`
	err := executor.QueryRow(query, customerID, businessID).Scan(
		&customer.ID, &customer.BusinessID, &customer.FullName, &customer.Phone,
		&customer.Address, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return customer, nil
}

func (r *customerRepository) PhoneExists(businessID int64, phone string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE business_id = $1 AND phone = $2)`
	if err := r.db.QueryRow(query, businessID, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking customer phone: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

func (r *customerRepository) GetDebtors(businessID int64) ([]models.Customer, error) {
	customers := []models.Customer{}
	query := `SELECT id, business_id, full_name, phone, address, created_at, updated_at
	          FROM customers
	          WHERE business_id = $1
	          ORDER BY created_at DESC`
	rows, err := r.db.Query(query, businessID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting debtors: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	index := map[int64]int{}
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.FullName, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		c.Debts = []models.Debt{}
		index[c.ID] = len(customers)
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating customers: %v", ErrDatabaseError, err)
	}
	if len(customers) == 0 {
		return customers, nil
	}

	debtQuery := `SELECT id, customer_id, business_id, total_amount, amount_paid, balance, is_cleared, created_at, updated_at
	              FROM debts
	              WHERE business_id = $1 AND is_cleared = FALSE`
	debtRows, err := r.db.Query(debtQuery, businessID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting open debts: %v", ErrDatabaseError, err)
	}
	defer debtRows.Close()

	for debtRows.Next() {
		var d models.Debt
		if err := debtRows.Scan(&d.ID, &d.CustomerID, &d.BusinessID, &d.TotalAmount, &d.AmountPaid, &d.Balance, &d.IsCleared, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning debt: %v", ErrDatabaseError, err)
		}
		if i, ok := index[d.CustomerID]; ok {
			customers[i].Debts = append(customers[i].Debts, d)
		}
	}
	if err = debtRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating open debts: %v", ErrDatabaseError, err)
	}
	return customers, nil
}

func (r *customerRepository) GetCustomerWithDebts(customerID, businessID int64) (*models.Customer, error) {
	customer, err := r.GetCustomerByID(nil, customerID, businessID)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, customer_id, business_id, total_amount, amount_paid, balance, is_cleared, created_at, updated_at
	          FROM debts
	          WHERE customer_id = $1 AND business_id = $2
	          ORDER BY created_at DESC`
	rows, err := r.db.Query(query, customerID, businessID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting debts for customer ID %d: %v", ErrDatabaseError, customerID, err)
	}
	defer rows.Close()

	customer.Debts = []models.Debt{}
	for rows.Next() {
		var d models.Debt
		if err := rows.Scan(&d.ID, &d.CustomerID, &d.BusinessID, &d.TotalAmount, &d.AmountPaid, &d.Balance, &d.IsCleared, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning debt: %v", ErrDatabaseError, err)
		}
		customer.Debts = append(customer.Debts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating debts: %v", ErrDatabaseError, err)
	}
	return customer, nil
}

func (r *customerRepository) Search(businessID int64, query string, limit int) ([]models.CustomerSearchResult, error) {
	results := []models.CustomerSearchResult{}
	sqlQuery := `SELECT c.id, c.full_name, c.phone,
	                    COALESCE(SUM(d.balance) FILTER (WHERE d.is_cleared = FALSE), 0)
	             FROM customers c
	             LEFT JOIN debts d ON d.customer_id = c.id
	             WHERE c.business_id = $1
	               AND (c.full_name ILIKE '%' || $2 || '%' OR c.phone ILIKE '%' || $2 || '%')
	             GROUP BY c.id, c.full_name, c.phone
	             ORDER BY c.full_name
	             LIMIT $3`
	rows, err := r.db.Query(sqlQuery, businessID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: searching customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var res models.CustomerSearchResult
		if err := rows.Scan(&res.ID, &res.FullName, &res.Phone, &res.TotalDebt); err != nil {
			return nil, fmt.Errorf("%w: scanning customer search result: %v", ErrDatabaseError, err)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating customer search results: %v", ErrDatabaseError, err)
	}
	return results, nil
}
