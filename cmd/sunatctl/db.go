package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-sunat/internal/application/issuance"
	"github.com/jhoicas/facturador-sunat/internal/bootstrap"
	"github.com/jhoicas/facturador-sunat/pkg/config"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

// runtime carga configuración, logger e infraestructura. El llamador cierra rt.
func runtime(ctx context.Context) (*config.Config, *logger.Logger, *bootstrap.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "sunatctl"})
	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, rt, nil
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Pasa a error los comprobantes colgados en submitting",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, rt, err := runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			sweeper := issuance.NewSweeper(rt.Repos.Documents, rt.Repos.Audit, cfg.Worker.StuckAfter, log, nil)
			ids, err := sweeper.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d comprobante(s) pasados a error\n", len(ids))
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+id)
			}
			return nil
		},
	}
}

func resendCmd() *cobra.Command {
	var (
		fecha    string
		issuerID string
	)
	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Reenvía los rechazados de un día",
		Long: `Reencola los comprobantes rechazados del emisor con fecha de emisión en --fecha.
Los que tuvieron un intento en el último minuto se omiten.
Sin REDIS_ADDR no hay workers escuchando, así que se procesan aquí mismo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := issuance.ParseDay(fecha)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, rt, err := runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			uc := issuance.NewResubmitUseCase(rt.Repos.Documents, rt.Repos.Audit, rt.Queue, cfg.Worker.ResubmitCooldown, log, nil)
			res, err := uc.ResubmitRejected(ctx, issuerID, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d encolados, %d omitidos\n", res.Fecha, res.Encolados, res.Omitidos)
			if cfg.Redis.Addr != "" || res.Encolados == 0 {
				return nil
			}

			sender, err := bootstrap.Sender(cfg.SUNAT, log)
			if err != nil {
				return err
			}
			orch := rt.Orchestrator(sender, log)
			for range res.IDs {
				id, err := rt.Queue.Dequeue(ctx)
				if err != nil {
					return err
				}
				if err := orch.Process(ctx, id); err != nil {
					fmt.Fprintf(out, "  %s: %v\n", id, err)
					continue
				}
				fmt.Fprintf(out, "  %s: procesado\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fecha, "fecha", "", "Día de emisión (YYYY-MM-DD)")
	cmd.Flags().StringVar(&issuerID, "issuer", "", "ID del emisor")
	_ = cmd.MarkFlagRequired("fecha")
	_ = cmd.MarkFlagRequired("issuer")
	return cmd
}
