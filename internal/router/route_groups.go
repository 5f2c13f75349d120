package router

import (
	"shop_pos_backend/internal/handlers"
	"shop_pos_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPosRoutes sets up the point-of-sale routes.
func SetupPosRoutes(authenticatedGroup *gin.RouterGroup, posHandler *handlers.PosHandler) {
	posRoutes := authenticatedGroup.Group("/pos")
	posRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		posRoutes.POST("/sell", posHandler.SellGoods)
		posRoutes.GET("/goods/search", posHandler.SearchGoods)
		posRoutes.GET("/customers/search", posHandler.SearchCustomers)
		posRoutes.GET("/receipts/:saleId", posHandler.GetReceipt)
	}
}

// SetupSalesRoutes sets up the sales-history routes.
func SetupSalesRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	salesRoutes := authenticatedGroup.Group("/sales")
	salesRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		salesRoutes.GET("", saleHandler.GetSales)
	}
}

// SetupDebtorRoutes sets up the customer and debt routes.
func SetupDebtorRoutes(authenticatedGroup *gin.RouterGroup, debtorHandler *handlers.DebtorHandler) {
	debtorRoutes := authenticatedGroup.Group("/debtors")
	debtorRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		debtorRoutes.GET("", debtorHandler.GetDebtors)
		debtorRoutes.POST("/customers", debtorHandler.AddCustomer)
		debtorRoutes.GET("/customers/:customerId/debts", debtorHandler.GetCustomerDebts)
		debtorRoutes.POST("/customers/:customerId/debts", debtorHandler.AddDebt)
		debtorRoutes.GET("/customers/:customerId/payments", debtorHandler.GetPaymentHistory)
		debtorRoutes.POST("/debts/:id/payments", debtorHandler.AddPayment)
		debtorRoutes.POST("/debts/:id/clear", debtorHandler.ClearDebt)
	}
}
