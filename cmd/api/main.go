package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/retaguarda-api/internal/application/cashier"
	"github.com/jhoicas/retaguarda-api/internal/application/finance"
	"github.com/jhoicas/retaguarda-api/internal/application/inventory"
	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/application/sales"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/lock"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/memory"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/pdf"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/retaguarda-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/retaguarda-api/internal/interfaces/http"
	"github.com/jhoicas/retaguarda-api/pkg/config"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("lock", cfg.Lock.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var txRunner ports.TxRunner
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn().Msg("almacenamiento en memoria (solo desarrollo): los datos se pierden al reiniciar")
		txRunner = memory.New()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.Storage.AutoMigrate {
			if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Msg("migraciones aplicadas")
		}
		txRunner = postgres.NewTxRunner(pool)
	}

	var locker ports.Locker
	switch cfg.Lock.Driver {
	case config.LockDriverRedis:
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb, lock.RedisOptions{
			TTL:          cfg.Lock.TTL,
			RetryCount:   cfg.Lock.RetryCount,
			RetryBackoff: cfg.Lock.RetryBackoff,
		}, log)
	default:
		locker = lock.NewLocal()
	}

	ledger := cashier.NewLedger()
	stockUC := inventory.NewStockUseCase(txRunner, locker, log)
	sessionUC := cashier.NewSessionUseCase(txRunner, locker, log)
	movementUC := cashier.NewMovementUseCase(txRunner, ledger, log)
	reportUC := cashier.NewReportUseCase(txRunner, pdf.NewSessionReportRenderer())
	obligationUC := finance.NewObligationUseCase(txRunner, locker, ledger, log)
	documentUC := sales.NewDocumentUseCase(txRunner, locker, stockUC, ledger, obligationUC, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Stock:       stockUC,
		Sessions:    sessionUC,
		Movements:   movementUC,
		Reports:     reportUC,
		Obligations: obligationUC,
		Documents:   documentUC,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
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
