package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/access"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/auth"
	"github.com/jhoicas/stockledger/internal/application/directory"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/infrastructure/ws"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Engine    *inventory.Engine
	Authority *access.Authority
	Directory *directory.Service
	Audit     *audit.Recorder
	Hub       *ws.Hub // opcional
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log.Component("http")
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Movimientos
	txHandler := NewTransactionHandler(deps.Engine, log)
	transactions := protected.Group("/transactions")
	transactions.Post("/", RequireRole(policyStockManagement...), txHandler.Create)
	transactions.Get("/", txHandler.List)
	transactions.Get("/warehouse/:warehouseId", txHandler.ListByWarehouse)
	transactions.Get("/:id", txHandler.GetByID)

	// Stock
	stockHandler := NewStockHandler(deps.Engine, log)
	stock := protected.Group("/stock")
	stock.Post("/adjust", RequireRole(policyStockManagement...), stockHandler.Adjust)
	stock.Post("/transfer", RequireRole(policyStockManagement...), stockHandler.Transfer)
	stock.Get("/reports/low-stock", RequireRole(policyReportView...), stockHandler.LowStock)
	stock.Get("/reports/brand-summary", RequireRole(policyReportView...), stockHandler.BrandSummary)
	stock.Post("/rebuild-totals", RequireRole(policyAdminOnly...), stockHandler.RebuildTotals)
	stock.Get("/warehouse/:warehouseId", stockHandler.ByWarehouse)
	stock.Get("/product/:productId", stockHandler.ByProduct)
	stock.Get("/product/:productId/warehouse/:warehouseId", stockHandler.Get)
	stock.Delete("/product/:productId/warehouse/:warehouseId", RequireRole(policySeniorUsers...), stockHandler.Deactivate)

	// Permisos por bodega
	accessHandler := NewAccessHandler(deps.Authority, log)
	accessGroup := protected.Group("/access")
	accessGroup.Post("/grants", RequireRole(policySeniorUsers...), accessHandler.Grant)
	accessGroup.Delete("/grants/user/:userId/warehouse/:warehouseId", RequireRole(policySeniorUsers...), accessHandler.Revoke)
	accessGroup.Get("/grants/user/:userId", RequireRole(policyUserManagement...), accessHandler.ListByUser)
	accessGroup.Get("/grants/warehouse/:warehouseId", accessHandler.ListByWarehouse)
	accessGroup.Get("/check/:warehouseId", accessHandler.Check)

	// Usuarios
	userHandler := NewUserHandler(deps.Directory, log)
	users := protected.Group("/users")
	users.Get("/me", userHandler.Me)
	users.Get("/", RequireRole(policyUserManagement...), userHandler.List)
	users.Post("/", RequireRole(policyUserManagement...), userHandler.Create)
	users.Get("/:id", userHandler.GetByID)
	users.Delete("/:id", RequireRole(policyAdminOnly...), userHandler.Deactivate)
	users.Post("/:id/reactivate", RequireRole(policyAdminOnly...), userHandler.Reactivate)

	// Bodegas y marcas
	warehouseHandler := NewWarehouseHandler(deps.Directory, log)
	warehouses := protected.Group("/warehouses")
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Delete("/:id", RequireRole(policyAdminOnly...), warehouseHandler.Deactivate)
	protected.Delete("/brands/:id", RequireRole(policySeniorUsers...), warehouseHandler.DeactivateBrand)

	// Bitácora
	auditHandler := NewAuditHandler(deps.Audit, log)
	protected.Get("/audit", RequireRole(policySeniorUsers...), auditHandler.Query)

	// Feed de cambios de stock
	if deps.Hub != nil {
		app.Use("/ws", upgradeOnly)
		app.Get("/ws/stock", AuthMiddleware(deps.JWTSecret), stockFeed(deps.Hub))
	}
}
