package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	infrasunat "github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat/signer"
)

func cdrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cdr [archivo]",
		Short: "Interpreta un CDR (ZIP o XML) y muestra el estado resultante",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cdr := infrasunat.ParseCDR(raw)
			out := cmd.OutOrStdout()
			code := "(ilegible)"
			if cdr.Code != nil {
				code = *cdr.Code
			}
			fmt.Fprintf(out, "Código:      %s\n", code)
			fmt.Fprintf(out, "Estado:      %s\n", infrasunat.ClassifyCode(cdr.Code))
			fmt.Fprintf(out, "Descripción: %s\n", cdr.Description)
			if cdr.Hash != "" {
				fmt.Fprintf(out, "Hash:        %s\n", cdr.Hash)
			}
			for _, obs := range cdr.Observations {
				fmt.Fprintf(out, "  - %s\n", obs)
			}
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [archivo]",
		Short: "Verifica la firma XMLDSig de un comprobante firmado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			v, err := signer.Verify(raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Firma válida")
			fmt.Fprintf(out, "  Id:      %s\n", v.SignatureID)
			fmt.Fprintf(out, "  Digest:  %s\n", v.Digest)
			fmt.Fprintf(out, "  Sujeto:  %s\n", v.Subject)
			fmt.Fprintf(out, "  Serie:   %s\n", v.SerialNumber)
			fmt.Fprintf(out, "  Vigente: %s → %s\n", v.NotBefore.Format(time.DateOnly), v.NotAfter.Format(time.DateOnly))
			return nil
		},
	}
}
