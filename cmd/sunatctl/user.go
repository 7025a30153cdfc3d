package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-sunat/internal/application/auth"
	"github.com/jhoicas/facturador-sunat/internal/application/dto"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Usuarios de la API",
	}
	cmd.AddCommand(userCreateCmd())
	return cmd
}

// userCreateCmd permite crear el primer admin, que luego da de alta al resto por la API.
func userCreateCmd() *cobra.Command {
	var in dto.CreateUserRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crea un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, rt, err := runtime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			uc := auth.NewAuthUseCase(rt.Repos.Users, rt.Repos.Issuers, auth.JWTConfig{
				Secret:     cfg.JWT.Secret,
				ExpMinutes: cfg.JWT.Expiration,
				Issuer:     cfg.JWT.Issuer,
			})
			out, err := uc.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "usuario %s (%s) creado: %s\n", out.Email, out.Role, out.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Contraseña (mínimo 8 caracteres)")
	cmd.Flags().StringVar(&in.Name, "name", "", "Nombre")
	cmd.Flags().StringVar(&in.Role, "role", "admin", "Rol: admin, emisor o consulta")
	cmd.Flags().StringVar(&in.IssuerID, "issuer", "", "ID del emisor (obligatorio salvo admin)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
