package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"shop_pos_backend/internal/services"
	"shop_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DebtorHandler holds the debtor service.
type DebtorHandler struct {
	debtorService services.DebtorService
}

// NewDebtorHandler creates a new DebtorHandler.
func NewDebtorHandler(ds services.DebtorService) *DebtorHandler {
	return &DebtorHandler{debtorService: ds}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return 0, false
	}
	return id, true
}

// AddCustomer registers a new customer.
func (h *DebtorHandler) AddCustomer(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}

	var req services.AddCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	customer, err := h.debtorService.AddCustomer(operator.BusinessID, req)
	if err != nil {
		utils.LogError(err, "AddCustomer: Error from debtorService.AddCustomer")
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		case errors.Is(err, services.ErrDuplicateCustomer):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to add customer.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetDebtors lists all customers of the business with their open debts.
func (h *DebtorHandler) GetDebtors(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}

	debtors, err := h.debtorService.GetDebtors(operator.BusinessID)
	if err != nil {
		utils.LogError(err, "GetDebtors: Error from debtorService.GetDebtors")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch debtors.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, debtors)
}

// GetCustomerDebts fetches one customer with all their debts.
func (h *DebtorHandler) GetCustomerDebts(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}
	customerID, ok := pathID(c, "customerId")
	if !ok {
		return
	}

	customer, err := h.debtorService.GetCustomerDebts(operator.BusinessID, customerID)
	if err != nil {
		utils.LogError(err, "GetCustomerDebts: Error from debtorService.GetCustomerDebts")
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch customer debts.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, customer)
}

// AddDebt records a manual debt against a customer.
func (h *DebtorHandler) AddDebt(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}
	customerID, ok := pathID(c, "customerId")
	if !ok {
		return
	}

	var req services.AddDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	debt, err := h.debtorService.AddDebt(operator.BusinessID, customerID, req)
	if err != nil {
		utils.LogError(err, "AddDebt: Error from debtorService.AddDebt")
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		case errors.Is(err, services.ErrCustomerNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to add debt.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, debt)
}

// AddPayment records a repayment against a debt.
func (h *DebtorHandler) AddPayment(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}
	debtID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	debt, err := h.debtorService.AddPayment(operator, debtID, req)
	if err != nil {
		utils.LogError(err, "AddPayment: Error from debtorService.AddPayment")
		switch {
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrDebtAlreadyClear), errors.Is(err, services.ErrPaymentExceeds):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		case errors.Is(err, services.ErrDebtNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Debt not found.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record payment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, debt)
}

// ClearDebt writes a debt off in full.
func (h *DebtorHandler) ClearDebt(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}
	debtID, ok := pathID(c, "id")
	if !ok {
		return
	}

	debt, err := h.debtorService.ClearDebt(operator.BusinessID, debtID)
	if err != nil {
		utils.LogError(err, "ClearDebt: Error from debtorService.ClearDebt")
		switch {
		case errors.Is(err, services.ErrDebtAlreadyClear):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		case errors.Is(err, services.ErrDebtNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Debt not found.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to clear debt.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, debt)
}

// GetPaymentHistory fetches a customer's debts with their payment entries.
func (h *DebtorHandler) GetPaymentHistory(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}
	customerID, ok := pathID(c, "customerId")
	if !ok {
		return
	}

	customer, err := h.debtorService.GetPaymentHistory(operator.BusinessID, customerID)
	if err != nil {
		utils.LogError(err, "GetPaymentHistory: Error from debtorService.GetPaymentHistory")
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payment history.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, customer)
}
