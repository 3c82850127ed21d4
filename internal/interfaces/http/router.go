package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Entregas-api/internal/application/auth"
	"github.com/jhoicas/Entregas-api/internal/application/fulfillment"
	"github.com/jhoicas/Entregas-api/internal/application/ledger"
	"github.com/jhoicas/Entregas-api/internal/application/orders"
	approuting "github.com/jhoicas/Entregas-api/internal/application/routing"
	"github.com/jhoicas/Entregas-api/internal/application/stats"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OrdersUC      *orders.UseCase
	Engine        *fulfillment.Engine
	Ledger        *ledger.Ledger
	Planner       *approuting.Planner
	Aggregator    *stats.Aggregator
	MessengerRepo repository.MessengerRepository
	AuthUC        *auth.AuthUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Orders (protegido)
	ordersGroup := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrdersUC, deps.Engine)
	ordersGroup.Post("/", orderHandler.Create)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Post("/:id/transition", orderHandler.Transition)
	ordersGroup.Get("/:id/history", orderHandler.History)

	// Inventory (protegido; el ajuste manual exige rol admin u operador)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	invGroup.Get("/available", inventoryHandler.GetAvailable)
	invGroup.Post("/adjust", RequireRole(entity.RoleAdmin, entity.RoleOperador), inventoryHandler.Adjust)
	invGroup.Get("/transactions", inventoryHandler.ListTransactions)
	invGroup.Get("/low-stock", inventoryHandler.LowStock)

	// Routes (protegido; la planificación exige rol admin u operador)
	routesGroup := protected.Group("/routes")
	routingHandler := NewRoutingHandler(deps.Planner, deps.Aggregator)
	routesGroup.Post("/assign", RequireRole(entity.RoleAdmin, entity.RoleOperador), routingHandler.Assign)
	routesGroup.Post("/:id/start", routingHandler.MarkAssigned)
	routesGroup.Get("/:id/sheet", routingHandler.Sheet)
	routesGroup.Get("/:id/stats", routingHandler.Stats)

	// Messengers (protegido)
	messengersGroup := protected.Group("/messengers")
	messengerHandler := NewMessengerHandler(deps.MessengerRepo)
	messengersGroup.Post("/", RequireRole(entity.RoleAdmin, entity.RoleOperador), messengerHandler.Create)
	messengersGroup.Get("/", messengerHandler.List)
	messengersGroup.Put("/:id", RequireRole(entity.RoleAdmin, entity.RoleOperador), messengerHandler.Update)

	// Stats (protegido)
	statsGroup := protected.Group("/stats")
	statsHandler := NewStatsHandler(deps.Aggregator)
	statsGroup.Get("/messengers", statsHandler.Messengers)
	statsGroup.Get("/zones", statsHandler.Zones)
	statsGroup.Get("/overview", statsHandler.Overview)
}
