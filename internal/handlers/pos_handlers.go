package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"shop_pos_backend/internal/services"
	"shop_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PosHandler holds the services behind the point-of-sale screen.
type PosHandler struct {
	saleService services.SaleService
	posService  services.PosService
}

// NewPosHandler creates a new PosHandler.
func NewPosHandler(ss services.SaleService, ps services.PosService) *PosHandler {
	return &PosHandler{saleService: ss, posService: ps}
}

// SellGoods handles the sale-completion request.
func (h *PosHandler) SellGoods(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}

	var req services.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "SellGoods: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.saleService.CompleteSale(operator, req)
	if err != nil {
		utils.LogError(err, "SellGoods: Error from saleService.CompleteSale")
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		case errors.Is(err, services.ErrShopNotFound),
			errors.Is(err, services.ErrProductNotFound),
			errors.Is(err, services.ErrCustomerNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
		case errors.Is(err, services.ErrInsufficientStock):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to complete sale.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, result)
}

// SearchGoods handles POS product search.
func (h *PosHandler) SearchGoods(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}

	results, err := h.posService.SearchGoods(operator.BusinessID, c.Query("q"))
	if err != nil {
		utils.LogError(err, "SearchGoods: Error from posService.SearchGoods")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to search products.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, results)
}

// SearchCustomers handles POS customer search.
func (h *PosHandler) SearchCustomers(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}

	results, err := h.posService.SearchCustomers(operator.BusinessID, c.Query("q"))
	if err != nil {
		utils.LogError(err, "SearchCustomers: Error from posService.SearchCustomers")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to search customers.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetReceipt handles fetching the printable receipt for a sale.
func (h *PosHandler) GetReceipt(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}

	saleID, err := strconv.ParseInt(c.Param("saleId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid receipt ID format.", err.Error()))
		return
	}

	receipt, err := h.posService.GetReceipt(operator.BusinessID, saleID)
	if err != nil {
		utils.LogError(err, "GetReceipt: Error from posService.GetReceipt for ID "+c.Param("saleId"))
		if errors.Is(err, services.ErrSaleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Receipt not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch receipt.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, receipt)
}
