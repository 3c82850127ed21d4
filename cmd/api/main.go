package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/Entregas-api/internal/application/auth"
	"github.com/jhoicas/Entregas-api/internal/application/fulfillment"
	"github.com/jhoicas/Entregas-api/internal/application/ledger"
	"github.com/jhoicas/Entregas-api/internal/application/orders"
	approuting "github.com/jhoicas/Entregas-api/internal/application/routing"
	"github.com/jhoicas/Entregas-api/internal/application/stats"
	infrapdf "github.com/jhoicas/Entregas-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Entregas-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Entregas-api/internal/interfaces/http"
	"github.com/jhoicas/Entregas-api/pkg/config"
	"github.com/jhoicas/Entregas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	itemRepo := postgres.NewInventoryItemRepository(pool)
	txRepo := postgres.NewInventoryTransactionRepository(pool)
	historyRepo := postgres.NewStatusHistoryRepository(pool)
	messengerRepo := postgres.NewMessengerRepository(pool)
	routeRepo := postgres.NewRouteAssignmentRepository(pool)
	statsRepo := postgres.NewStatsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := ledger.New(txRunner, itemRepo, txRepo, log)
	engine := fulfillment.NewEngine(txRunner, ledgerUC, log)
	ordersUC := orders.NewUseCase(orderRepo, historyRepo, log)

	sheetGenerator := infrapdf.NewRouteSheetGenerator()
	planner := approuting.NewPlanner(
		txRunner, orderRepo, messengerRepo, routeRepo,
		engine, sheetGenerator, cfg.Routes.Capacity, log,
	)

	aggregator := stats.NewAggregator(statsRepo, routeRepo, orderRepo)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Entregas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		OrdersUC:      ordersUC,
		Engine:        engine,
		Ledger:        ledgerUC,
		Planner:       planner,
		Aggregator:    aggregator,
		MessengerRepo: messengerRepo,
		AuthUC:        authUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
