package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/facturador-sunat/internal/application/auth"
	"github.com/jhoicas/facturador-sunat/internal/application/dto"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/pkg/jwt"
)

const secret = "secret-de-prueba"

type memUsers struct {
	mu    sync.Mutex
	byKey map[string]*entity.User
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[u.Email]; ok {
		return fmt.Errorf("user: %w", domain.ErrDuplicate)
	}
	u.ID = fmt.Sprintf("user-%d", len(m.byKey)+1)
	cp := *u
	m.byKey[u.Email] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byKey[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type memIssuers map[string]*entity.Issuer

func (m memIssuers) Create(_ context.Context, i *entity.Issuer) error { m[i.ID] = i; return nil }
func (m memIssuers) GetByID(_ context.Context, id string) (*entity.Issuer, error) {
	return m[id], nil
}

func newAuth() (*auth.AuthUseCase, *memUsers) {
	users := &memUsers{byKey: map[string]*entity.User{}}
	issuers := memIssuers{"iss-1": {ID: "iss-1", RUC: "20000000001"}}
	uc := auth.NewAuthUseCase(users, issuers, auth.JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "test"}).
		WithCost(bcrypt.MinCost)
	return uc, users
}

func TestCreateUser_HasheaPassword(t *testing.T) {
	uc, users := newAuth()
	out, err := uc.CreateUser(context.Background(), dto.CreateUserRequest{
		IssuerID: "iss-1", Email: "Caja@Empresa.pe", Password: "clave-segura", Role: entity.RoleEmisor,
	})
	require.NoError(t, err)
	assert.Equal(t, "caja@empresa.pe", out.Email, "el email se normaliza a minúsculas")
	assert.Equal(t, entity.UserActive, out.Status)

	stored, _ := users.GetByEmail(context.Background(), "caja@empresa.pe")
	require.NotNil(t, stored)
	assert.NotEqual(t, "clave-segura", stored.PasswordHash, "nunca se guarda en claro")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("clave-segura")))
}

func TestCreateUser_Validaciones(t *testing.T) {
	uc, _ := newAuth()
	ctx := context.Background()

	cases := map[string]dto.CreateUserRequest{
		"email":     {Email: "sin-arroba", Password: "clave-segura", Role: entity.RoleAdmin},
		"password":  {Email: "a@b.pe", Password: "corta", Role: entity.RoleAdmin},
		"role":      {Email: "a@b.pe", Password: "clave-segura", Role: "vendedor"},
		"issuer_id": {Email: "a@b.pe", Password: "clave-segura", Role: entity.RoleEmisor},
	}
	for field, in := range cases {
		_, err := uc.CreateUser(ctx, in)
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr, field)
		assert.Equal(t, field, vErr.Field)
	}

	_, err := uc.CreateUser(ctx, dto.CreateUserRequest{IssuerID: "iss-x", Email: "a@b.pe", Password: "clave-segura", Role: entity.RoleEmisor})
	assert.ErrorIs(t, err, domain.ErrNotFound, "emisor inexistente")
}

func TestCreateUser_EmailDuplicado(t *testing.T) {
	uc, _ := newAuth()
	in := dto.CreateUserRequest{Email: "root@plataforma.pe", Password: "clave-segura", Role: entity.RoleAdmin}
	_, err := uc.CreateUser(context.Background(), in)
	require.NoError(t, err)
	_, err = uc.CreateUser(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLogin_EmiteTokenConEmisorYRol(t *testing.T) {
	uc, _ := newAuth()
	ctx := context.Background()
	_, err := uc.CreateUser(ctx, dto.CreateUserRequest{IssuerID: "iss-1", Email: "caja@empresa.pe", Password: "clave-segura", Role: entity.RoleEmisor})
	require.NoError(t, err)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "caja@empresa.pe", Password: "clave-segura"})
	require.NoError(t, err)

	id, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "iss-1", id.IssuerID)
	assert.Equal(t, entity.RoleEmisor, id.Role)
	assert.Equal(t, out.User.ID, id.UserID)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc, users := newAuth()
	ctx := context.Background()
	_, err := uc.CreateUser(ctx, dto.CreateUserRequest{Email: "root@plataforma.pe", Password: "clave-segura", Role: entity.RoleAdmin})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "root@plataforma.pe", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@plataforma.pe", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "no se revela si el email existe")

	users.byKey["root@plataforma.pe"].Status = entity.UserSuspended
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "root@plataforma.pe", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
