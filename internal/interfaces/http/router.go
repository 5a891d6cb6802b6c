package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ventaro/pos-api/internal/application/auth"
	"github.com/ventaro/pos-api/internal/application/billing"
	"github.com/ventaro/pos-api/internal/application/catalog"
	"github.com/ventaro/pos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	BillingUC *billing.Service
	CatalogUC *catalog.UseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Catálogos de solo lectura
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	protected.Get("/products", catalogHandler.ListProducts)
	protected.Get("/customers", catalogHandler.ListCustomers)
	protected.Get("/company", catalogHandler.GetCompany)

	// Facturación electrónica. Cualquier rol emite facturas; la nota de
	// crédito anula una venta, así que exige supervisor o admin.
	voucherHandler := NewVoucherHandler(deps.BillingUC)
	protected.Post("/sales/:id/invoice",
		RequireRole(entity.RoleAdmin, entity.RoleSupervisor, entity.RoleCajero),
		voucherHandler.IssueInvoice)
	protected.Post("/sales/:id/credit-note",
		RequireRole(entity.RoleAdmin, entity.RoleSupervisor),
		voucherHandler.IssueCreditNote)
	protected.Get("/sales/:id/vouchers", voucherHandler.ListBySale)
	protected.Get("/vouchers/:id", voucherHandler.GetByID)
	protected.Get("/vouchers/:id/qr", voucherHandler.GetQR)

	// Configuración fiscal (solo lectura, sin material criptográfico)
	fiscalHandler := NewFiscalConfigHandler(deps.BillingUC)
	protected.Get("/fiscal/config",
		RequireRole(entity.RoleAdmin, entity.RoleSupervisor),
		fiscalHandler.Get)
}
