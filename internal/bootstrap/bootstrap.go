// Package bootstrap arma la infraestructura compartida por la API y sunatctl.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturador-sunat/internal/application/issuance"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/postgres"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/queue"
	infrasunat "github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat/signer"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/vault"
	"github.com/jhoicas/facturador-sunat/pkg/config"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

// Runtime dependencias de infraestructura ya conectadas.
type Runtime struct {
	Pool   *pgxpool.Pool
	Repos  repository.Repositories
	Tx     *postgres.TxRunner
	Vault  *vault.Cipher
	Queue  issuance.Queue
	Health map[string]func(ctx context.Context) error

	// DurableQueue la cola sobrevive a un reinicio (Redis).
	DurableQueue bool

	closers []func() error
}

// Open conecta PostgreSQL (aplicando migraciones), la bóveda y la cola.
// Sin REDIS_ADDR la cola vive en memoria y solo sirve a este proceso.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	rt := &Runtime{Pool: pool, Health: map[string]func(context.Context) error{"postgres": pool.Ping}}
	rt.closers = append(rt.closers, func() error { pool.Close(); return nil })

	if err := postgres.Migrate(ctx, pool); err != nil {
		rt.Close()
		return nil, err
	}
	rt.Repos = postgres.NewRepositories(pool)
	rt.Tx = postgres.NewTxRunner(pool)

	rt.Vault, err = vault.New(cfg.SUNAT.EncryptionKey)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		rq, err := queue.ConnectRedis(ctx, queue.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Queue,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Queue = rq
		rt.DurableQueue = true
		rt.Health["redis"] = rq.HealthCheck
		rt.closers = append(rt.closers, rq.Close)
		log.Info().Str("addr", cfg.Redis.Addr).Str("key", cfg.Redis.Queue).Msg("cola Redis conectada")
	} else {
		mq := queue.NewMemoryQueue(0)
		rt.Queue = mq
		rt.closers = append(rt.closers, mq.Close)
		log.Warn().Msg("REDIS_ADDR vacío: cola en memoria")
	}
	return rt, nil
}

// Close libera en orden inverso a la apertura.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i]()
	}
	rt.closers = nil
}

// Sender elige el cliente SOAP real o el simulado según SUNAT_TEST_MODE.
func Sender(cfg config.SUNATConfig, log *logger.Logger) (infrasunat.BillSender, error) {
	if cfg.TestMode {
		log.Warn().Msg("SUNAT_TEST_MODE activo: CDR simulado, no se contacta a SUNAT")
		return infrasunat.NewSimulatedSender(), nil
	}
	baseURL, err := infrasunat.BaseURLFor(cfg.Environment, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	conn := infrasunat.NewConnectionManager(baseURL, httpClient, log.Zerolog())
	policy := infrasunat.RetryPolicy{MaxAttempts: cfg.MaxAttempts, BackoffBase: cfg.BackoffBase}
	log.Info().Str("env", cfg.Environment).Str("url", baseURL).Int("intentos", cfg.MaxAttempts).Msg("cliente billService")
	return infrasunat.NewBillServiceClient(conn, httpClient, policy, log.Zerolog()), nil
}

// Orchestrator arma el pipeline completo sobre el runtime.
func (rt *Runtime) Orchestrator(sender infrasunat.BillSender, log *logger.Logger) *issuance.Orchestrator {
	return issuance.NewOrchestrator(issuance.Deps{
		Repos:   rt.Repos,
		Tx:      rt.Tx,
		Builder: infrasunat.NewXMLBuilderService(),
		Signer:  signer.NewDigitalSignatureService(),
		Sender:  sender,
		Vault:   rt.Vault,
		Log:     log,
	})
}
