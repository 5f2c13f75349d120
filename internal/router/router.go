package router

import (
	"database/sql"

	"shop_pos_backend/internal/handlers"
	"shop_pos_backend/internal/middleware"
	"shop_pos_backend/internal/repositories"
	"shop_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	shopRepo := repositories.NewShopRepository(db)
	productRepo := repositories.NewProductRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	debtRepo := repositories.NewDebtRepository(db)
	txManager := repositories.NewTxManager(db)

	// Initialize Services
	saleService := services.NewSaleService(shopRepo, productRepo, saleRepo, customerRepo, debtRepo, txManager)
	posService := services.NewPosService(productRepo, customerRepo, saleRepo, debtRepo)
	debtorService := services.NewDebtorService(customerRepo, debtRepo, txManager)

	// Initialize Handlers
	posHandler := handlers.NewPosHandler(saleService, posService)
	saleHandler := handlers.NewSaleHandler(saleService)
	debtorHandler := handlers.NewDebtorHandler(debtorService)

	apiV1 := engine.Group("/api/v1")

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupPosRoutes(authenticated, posHandler)
		SetupSalesRoutes(authenticated, saleHandler)
		SetupDebtorRoutes(authenticated, debtorHandler)
	}
}
