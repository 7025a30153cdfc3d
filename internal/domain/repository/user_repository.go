package repository

import (
	"context"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para usuarios de la API.
type UserRepository interface {
	// Create devuelve un error que envuelve domain.ErrDuplicate si el email ya existe.
	Create(ctx context.Context, user *entity.User) error
	// GetByEmail devuelve nil, nil si no existe. El email se compara sin distinguir mayúsculas.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}
