package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-sunat/pkg/config"
	"github.com/jhoicas/facturador-sunat/pkg/jwt"
)

// tokenCmd emite un JWT de servicio para integraciones (ERP, POS) que llaman a la API.
func tokenCmd() *cobra.Command {
	var (
		issuerID string
		role     string
		userID   string
		minutes  int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Genera un JWT para la API",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case jwt.RoleAdmin, jwt.RoleEmisor, jwt.RoleConsulta:
			default:
				return fmt.Errorf("rol inválido %q (admin, emisor, consulta)", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET vacío")
			}
			if userID == "" {
				userID = uuid.NewString()
			}
			if minutes <= 0 {
				minutes = cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, issuerID, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&issuerID, "issuer", "", "ID del emisor")
	cmd.Flags().StringVar(&role, "role", jwt.RoleEmisor, "Rol: admin, emisor o consulta")
	cmd.Flags().StringVar(&userID, "user", "", "ID del usuario (por defecto uno nuevo)")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Validez en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	return cmd
}
