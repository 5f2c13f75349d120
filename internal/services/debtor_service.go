package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shop_pos_backend/internal/models"
	"shop_pos_backend/internal/repositories"
	"shop_pos_backend/pkg/utils"
)

var (
	ErrDebtNotFound      = errors.New("debt not found")
	ErrDebtAlreadyClear  = errors.New("debt is already cleared")
	ErrDuplicateCustomer = errors.New("customer with this phone already exists")
	ErrPaymentExceeds    = errors.New("payment exceeds debt")
)

// --- DTOs ---

// AddCustomerRequest registers a new customer for the caller's business.
type AddCustomerRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// AddDebtRequest records a manual debt against a customer.
type AddDebtRequest struct {
	TotalAmount json.Number `json:"totalAmount"`
}

// AddPaymentRequest records a repayment against a debt.
type AddPaymentRequest struct {
	Amount json.Number `json:"amount"`
}

// --- End of DTOs ---

// DebtorService covers customer registration and debt bookkeeping outside
// the sale transaction.
type DebtorService interface {
	AddCustomer(businessID int64, req AddCustomerRequest) (*models.Customer, error)
	GetDebtors(businessID int64) ([]models.Customer, error)
	GetCustomerDebts(businessID, customerID int64) (*models.Customer, error)
	AddDebt(businessID, customerID int64, req AddDebtRequest) (*models.Debt, error)
	AddPayment(operator Identity, debtID int64, req AddPaymentRequest) (*models.Debt, error)
	ClearDebt(businessID, debtID int64) (*models.Debt, error)
	GetPaymentHistory(businessID, customerID int64) (*models.Customer, error)
}

type debtorService struct {
	customerRepo repositories.CustomerRepository
	debtRepo     repositories.DebtRepository
	tx           repositories.TxManager
}

// NewDebtorService creates a new instance of DebtorService.
func NewDebtorService(
	cr repositories.CustomerRepository,
	dr repositories.DebtRepository,
	tx repositories.TxManager,
) DebtorService {
	return &debtorService{
		customerRepo: cr,
		debtRepo:     dr,
		tx:           tx,
	}
}

func (s *debtorService) AddCustomer(businessID int64, req AddCustomerRequest) (*models.Customer, error) {
	fullName := strings.TrimSpace(req.FullName)
	phone := strings.TrimSpace(req.Phone)
	if fullName == "" || phone == "" {
		return nil, fmt.Errorf("%w: full name and phone are required", ErrValidation)
	}

	exists, err := s.customerRepo.PhoneExists(businessID, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check customer phone: %w", err)
	}
	if exists {
		return nil, ErrDuplicateCustomer
	}

	customer := &models.Customer{
		BusinessID: businessID,
		FullName:   fullName,
		Phone:      phone,
		Address:    utils.NewNullString(req.Address),
	}
	if _, err := s.customerRepo.CreateCustomer(nil, customer); err != nil {
		// The unique constraint still backstops a concurrent registration.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateCustomer
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *debtorService) GetDebtors(businessID int64) ([]models.Customer, error) {
	debtors, err := s.customerRepo.GetDebtors(businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to get debtors: %w", err)
	}
	return debtors, nil
}

func (s *debtorService) GetCustomerDebts(businessID, customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerWithDebts(customerID, businessID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer debts: %w", err)
	}
	return customer, nil
}

func (s *debtorService) AddDebt(businessID, customerID int64, req AddDebtRequest) (*models.Debt, error) {
	amount, err := utils.WholeNumber(req.TotalAmount, "totalAmount")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}

	if _, err := s.customerRepo.GetCustomerByID(nil, customerID, businessID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to verify customer %d: %w", customerID, err)
	}

	debt := &models.Debt{
		CustomerID:  customerID,
		BusinessID:  businessID,
		TotalAmount: amount,
		AmountPaid:  0,
		Balance:     amount,
		IsCleared:   false,
	}
	if _, err := s.debtRepo.CreateDebt(nil, debt); err != nil {
		return nil, fmt.Errorf("failed to create debt: %w", err)
	}
	return debt, nil
}

// AddPayment applies a repayment and records the payment-history entry in
// the same transaction; the debt auto-clears when the balance reaches zero.
func (s *debtorService) AddPayment(operator Identity, debtID int64, req AddPaymentRequest) (*models.Debt, error) {
	amount, err := utils.WholeNumber(req.Amount, "amount")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: invalid payment amount", ErrValidation)
	}

	var updated *models.Debt
	txErr := s.tx.WithinTx(func(tx repositories.SQLExecutor) error {
		debt, repoErr := s.debtRepo.GetDebtByID(tx, debtID, operator.BusinessID)
		if repoErr != nil {
			if errors.Is(repoErr, repositories.ErrNotFound) {
				return ErrDebtNotFound
			}
			return fmt.Errorf("failed to fetch debt %d: %w", debtID, repoErr)
		}
		if debt.IsCleared {
			return ErrDebtAlreadyClear
		}

		newAmountPaid := debt.AmountPaid + amount
		newBalance := debt.TotalAmount - newAmountPaid
		if newBalance < 0 {
			return fmt.Errorf("%w: maximum payment is %d", ErrPaymentExceeds, debt.Balance)
		}
		isCleared := newBalance == 0

		if repoErr := s.debtRepo.ApplyPayment(tx, debt.ID, newAmountPaid, newBalance, isCleared); repoErr != nil {
			return fmt.Errorf("failed to apply payment to debt %d: %w", debt.ID, repoErr)
		}

		payment := &models.DebtPayment{
			DebtID:      debt.ID,
			Amount:      amount,
			Type:        models.DebtPaymentTypePayment,
			CreatedByID: operator.UserID,
		}
		if _, repoErr := s.debtRepo.CreateDebtPayment(tx, payment); repoErr != nil {
			return fmt.Errorf("failed to record payment for debt %d: %w", debt.ID, repoErr)
		}

		debt.AmountPaid = newAmountPaid
		debt.Balance = newBalance
		debt.IsCleared = isCleared
		updated = debt
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

func (s *debtorService) ClearDebt(businessID, debtID int64) (*models.Debt, error) {
	var cleared *models.Debt
	txErr := s.tx.WithinTx(func(tx repositories.SQLExecutor) error {
		debt, repoErr := s.debtRepo.GetDebtByID(tx, debtID, businessID)
		if repoErr != nil {
			if errors.Is(repoErr, repositories.ErrNotFound) {
				return ErrDebtNotFound
			}
			return fmt.Errorf("failed to fetch debt %d: %w", debtID, repoErr)
		}
		if debt.IsCleared {
			return ErrDebtAlreadyClear
		}

		if repoErr := s.debtRepo.ApplyPayment(tx, debt.ID, debt.TotalAmount, 0, true); repoErr != nil {
			return fmt.Errorf("failed to clear debt %d: %w", debt.ID, repoErr)
		}

		debt.AmountPaid = debt.TotalAmount
		debt.Balance = 0
		debt.IsCleared = true
		cleared = debt
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return cleared, nil
}

func (s *debtorService) GetPaymentHistory(businessID, customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerWithDebts(customerID, businessID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	for i := range customer.Debts {
		payments, err := s.debtRepo.GetPaymentsByDebtID(customer.Debts[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get payments for debt %d: %w", customer.Debts[i].ID, err)
		}
		customer.Debts[i].Payments = payments
	}
	return customer, nil
}
