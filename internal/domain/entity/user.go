package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"    // Administra emisores, certificados y reenvíos masivos
	RoleEmisor   = "emisor"   // Emite y reenvía comprobantes de su emisor
	RoleConsulta = "consulta" // Solo lectura
)

// Estados de cuenta.
const (
	UserActive    = "active"
	UserInactive  = "inactive"
	UserSuspended = "suspended"
)

// User usuario de la API. IssuerID vacío = administrador de plataforma sin emisor propio.
type User struct {
	ID           string
	IssuerID     string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole indica si role es uno de los roles reconocidos.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEmisor, RoleConsulta:
		return true
	}
	return false
}
