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
	"github.com/ventaro/pos-api/internal/application/auth"
	"github.com/ventaro/pos-api/internal/application/billing"
	"github.com/ventaro/pos-api/internal/application/catalog"
	"github.com/ventaro/pos-api/internal/domain/repository"
	infraarca "github.com/ventaro/pos-api/internal/infrastructure/arca"
	"github.com/ventaro/pos-api/internal/infrastructure/cache"
	"github.com/ventaro/pos-api/internal/infrastructure/postgres"
	httpRouter "github.com/ventaro/pos-api/internal/interfaces/http"
	"github.com/ventaro/pos-api/pkg/config"
	"github.com/ventaro/pos-api/pkg/logger"
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
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	voucherRepo := postgres.NewVoucherRepository(pool)
	fiscalRepo := postgres.NewFiscalConfigRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Cache de tokens WSAA: en postgres sobrevive reinicios, que evita
	// chocar con el rechazo de WSAA a un segundo login con ticket vigente.
	var tokenRepo repository.TokenRepository
	if cfg.ARCA.TokenCache == "memory" {
		store := cache.NewMemoryTokenStore()
		defer store.Stop()
		tokenRepo = store
	} else {
		tokenRepo = postgres.NewTokenRepository(pool)
	}

	arcaOpts := infraarca.Options{
		WSAAURLOverride: cfg.ARCA.WSAAURLOverride,
		WSFEURLOverride: cfg.ARCA.WSFEURLOverride,
		CABundlePath:    cfg.ARCA.CABundlePath,
		ConnectTimeout:  cfg.ARCA.ConnectTimeout,
		ReadTimeout:     cfg.ARCA.ReadTimeout,
		UserAgent:       cfg.ARCA.UserAgent,
	}
	wsaaClient, err := infraarca.NewWSAAClient(tokenRepo, log, arcaOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente WSAA")
	}
	wsfeClient, err := infraarca.NewWSFEClient(log, arcaOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente WSFE")
	}

	billingUC := billing.NewService(
		voucherRepo, saleRepo, productRepo, categoryRepo, customerRepo, fiscalRepo,
		wsaaClient, wsfeClient, txRunner, log,
	)
	catalogUC := catalog.NewUseCase(productRepo, customerRepo, companyRepo)
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
		Title:    "Ventaro POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		BillingUC: billingUC,
		CatalogUC: catalogUC,
		JWTSecret: cfg.JWT.Secret,
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
