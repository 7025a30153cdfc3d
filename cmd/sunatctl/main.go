// sunatctl tareas operativas del facturador: barrido de colgados, reenvío masivo,
// lectura de CDR, verificación de firmas y manejo de certificados.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sunatctl",
		Short:         "Herramientas operativas del facturador SUNAT",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(sweepCmd())
	root.AddCommand(resendCmd())
	root.AddCommand(cdrCmd())
	root.AddCommand(verifyCmd())
	root.AddCommand(certCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(userCmd())

	return root
}
