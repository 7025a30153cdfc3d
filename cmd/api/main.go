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

	_ "github.com/jhoicas/facturador-sunat/docs"
	"github.com/jhoicas/facturador-sunat/internal/application/auth"
	"github.com/jhoicas/facturador-sunat/internal/application/issuance"
	"github.com/jhoicas/facturador-sunat/internal/bootstrap"
	httpRouter "github.com/jhoicas/facturador-sunat/internal/interfaces/http"
	"github.com/jhoicas/facturador-sunat/pkg/config"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

// @title                      Facturador SUNAT API
// @version                    1.0
// @description                Emisión de comprobantes electrónicos SUNAT (factura, boleta, notas).
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("sunat_env", cfg.SUNAT.Environment).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("infraestructura")
	}
	defer rt.Close()

	sender, err := bootstrap.Sender(cfg.SUNAT, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente SUNAT")
	}

	// Pipeline: XML UBL → firma → ZIP → sendBill → CDR
	orchestrator := rt.Orchestrator(sender, log)
	workers := issuance.NewWorkerPool(rt.Queue, orchestrator, cfg.Worker.Workers, log)
	workers.Start(ctx)

	sweeper := issuance.NewSweeper(rt.Repos.Documents, rt.Repos.Audit, cfg.Worker.StuckAfter, log, nil)
	go sweeper.Run(ctx, cfg.Worker.SweepInterval)

	issueUC := issuance.NewIssueUseCase(rt.Repos.Documents, rt.Repos.Issuers, rt.Repos.Audit, rt.Queue, log, nil)
	queryUC := issuance.NewQueryUseCase(rt.Repos.Documents, rt.Repos.Receipts, sweeper, nil)
	resubmitUC := issuance.NewResubmitUseCase(rt.Repos.Documents, rt.Repos.Audit, rt.Queue, cfg.Worker.ResubmitCooldown, log, nil)
	if !rt.DurableQueue {
		if _, err := resubmitUC.RequeuePending(ctx); err != nil {
			log.Error().Err(err).Msg("no se pudieron reencolar los pendientes")
		}
	}
	credentialsUC := issuance.NewCredentialsUseCase(rt.Repos.Issuers, rt.Tx, rt.Vault, log, nil)
	authUC := auth.NewAuthUseCase(rt.Repos.Users, rt.Repos.Issuers, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    2 * 1024 * 1024,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturador SUNAT API",
	}))

	checks := make(map[string]httpRouter.HealthCheck, len(rt.Health))
	for name, fn := range rt.Health {
		checks[name] = fn
	}
	app.Get("/health", httpRouter.Health(cfg.App.Name, checks))

	httpRouter.Router(app, httpRouter.RouterDeps{
		IssueUC:       issueUC,
		QueryUC:       queryUC,
		ResubmitUC:    resubmitUC,
		CredentialsUC: credentialsUC,
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

	// Los documentos en vuelo quedan en submitting; el barrido los pasa a error
	// y pueden reenviarse.
	stop()
	workers.Wait()

	log.Info().Msg("aplicación detenida")
}
