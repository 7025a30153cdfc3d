package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat/signer"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/vault"
	"github.com/jhoicas/facturador-sunat/pkg/config"
)

func certCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Certificados PFX del emisor",
	}
	cmd.AddCommand(certInspectCmd())
	cmd.AddCommand(certEncryptCmd())
	return cmd
}

func certInspectCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "inspect [pfx]",
		Short: "Muestra sujeto, serie y vigencia del certificado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pfx, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			info, err := signer.Inspect(pfx, password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sujeto:  %s\n", info.Subject)
			fmt.Fprintf(out, "Serie:   %s\n", info.SerialNumber)
			fmt.Fprintf(out, "Desde:   %s\n", info.NotBefore.Format(time.RFC3339))
			fmt.Fprintf(out, "Hasta:   %s\n", info.NotAfter.Format(time.RFC3339))
			if err := signer.CheckValidity(info, time.Now()); err != nil {
				fmt.Fprintf(out, "Estado:  NO VIGENTE (%v)\n", err)
				return nil
			}
			fmt.Fprintln(out, "Estado:  vigente")
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Contraseña del PFX")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func certEncryptCmd() *cobra.Command {
	var (
		password string
		output   string
		key      string
	)
	cmd := &cobra.Command{
		Use:   "encrypt [pfx]",
		Short: "Cifra el PFX con ENCRYPTION_KEY tras comprobar la contraseña",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pfx, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := signer.Inspect(pfx, password); err != nil {
				return err
			}
			if key == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				key = cfg.SUNAT.EncryptionKey
			}
			c, err := vault.New(key)
			if err != nil {
				return err
			}
			enc, err := c.Encrypt(pfx)
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0] + ".enc"
			}
			if err := os.WriteFile(output, enc, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PFX cifrado en %s (%d bytes)\n", output, len(enc))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Contraseña del PFX")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Archivo de salida (por defecto <pfx>.enc)")
	cmd.Flags().StringVar(&key, "key", "", "Llave de cifrado (por defecto ENCRYPTION_KEY)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
