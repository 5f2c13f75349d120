package handlers

import (
	"errors"
	"net/http"

	"shop_pos_backend/internal/models"
	"shop_pos_backend/internal/services"
	"shop_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler holds the sale service for the sales-history endpoints.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

// GetSales handles fetching the sales list with period/date filters.
func (h *SaleHandler) GetSales(c *gin.Context) {
	operator, ok := operatorFromContext(c)
	if !ok {
		return
	}

	var filters models.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	list, err := h.saleService.GetSales(operator.BusinessID, filters)
	if err != nil {
		utils.LogError(err, "GetSales: Error from saleService.GetSales")
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sales.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, list)
}
