package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stockledger/internal/application/access"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/auth"
	"github.com/jhoicas/stockledger/internal/application/directory"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/application/unitofwork"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/kafka"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger/internal/infrastructure/redislock"
	"github.com/jhoicas/stockledger/internal/infrastructure/ws"
	httpRouter "github.com/jhoicas/stockledger/internal/interfaces/http"
	"github.com/jhoicas/stockledger/pkg/config"
	"github.com/jhoicas/stockledger/pkg/logger"
	"github.com/jhoicas/stockledger/pkg/observability"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("lock_backend", cfg.Engine.LockBackend).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tp, shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName:    cfg.Otel.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Otel.Endpoint,
		URLPath:        cfg.Otel.URLPath,
		Headers:        cfg.Otel.Headers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	// Persistencia
	var (
		txRunner repository.TxRunner
		repos    repository.Repos
	)
	switch cfg.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		if cfg.Storage.SeedDemo {
			if err := seedDemo(store); err != nil {
				log.Fatal().Err(err).Msg("datos de demostración")
			}
			log.Warn().Str("personnel_code", demoAdminCode).Msg("store en memoria con usuario admin de demostración")
		}
		txRunner, repos = store, store.Repos()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrar esquema")
		}
		txRunner, repos = postgres.NewTxRunner(pool, cfg.DB.LockTimeout), postgres.ReposFor(pool)
	}

	// Bloqueo por clave de stock
	var locker unitofwork.KeyLocker = unitofwork.NewLocalKeyLocker()
	if cfg.Engine.LockBackend == "redis" {
		rdb, err := redislock.NewClient(ctx, redislock.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			TTL:      cfg.Redis.LockTTL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = redislock.NewKeyLocker(rdb, cfg.Redis.LockTTL, log)
	}

	// Eventos de stock: WebSocket siempre, Kafka si hay brokers
	hub := ws.NewHub(log)
	go hub.Run(ctx)
	events := inventory.MultiPublisher{hub}

	var kafkaPub *kafka.Publisher
	if cfg.Kafka.Enabled() {
		writer, err := kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.App.Name, tp)
		if err != nil {
			log.Fatal().Err(err).Msg("writer de Kafka")
		}
		kafkaPub = kafka.NewPublisher(writer, log)
		go kafkaPub.Run(ctx)
		events = append(events, kafkaPub)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de eventos en Kafka")
	}

	uow := unitofwork.NewRunner(txRunner, locker, unitofwork.Config{
		Timeout:     cfg.Engine.UnitTimeout,
		MaxAttempts: cfg.Engine.MaxAttempts,
	}, log)
	recorder := audit.NewRecorder(repos.AuditLogs, log, cfg.Engine.AuditTimeout)
	authority := access.NewAuthority(uow, repos, recorder)
	engine := inventory.NewEngine(uow, repos, authority, recorder, events, log)
	directorySvc := directory.NewService(uow, repos, authority, recorder)
	authUC := auth.NewAuthUseCase(repos.Users, auth.JWTConfig{
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

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		Engine:    engine,
		Authority: authority,
		Directory: directorySvc,
		Audit:     recorder,
		Hub:       hub,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
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
	// el hub y el publicador de Kafka terminan al cancelar ctx; Kafka vacía su cola antes de cerrar
	stop()
	if kafkaPub != nil {
		kafkaPub.Wait()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cerrar trazas")
	}

	log.Info().Msg("aplicación detenida")
}
