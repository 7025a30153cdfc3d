package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-sunat/pkg/jwt"
)

const secret = "clave-de-firma-de-prueba"

func TestGenerateParse_TransportaEmisorYRol(t *testing.T) {
	tok, err := jwt.Generate(secret, "user-1", "iss-20000000001", jwt.RoleEmisor, "facturador-sunat", 30)
	require.NoError(t, err)

	id, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, jwt.Identity{UserID: "user-1", IssuerID: "iss-20000000001", Role: jwt.RoleEmisor}, id)
}

func TestGenerateParse_AdminDePlataformaSinEmisor(t *testing.T) {
	tok, err := jwt.Generate(secret, "user-admin", "", jwt.RoleAdmin, "facturador-sunat", 30)
	require.NoError(t, err)

	id, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Empty(t, id.IssuerID)
	assert.Equal(t, jwt.RoleAdmin, id.Role)
}

func TestParse_Rechaza(t *testing.T) {
	expired, err := jwt.Generate(secret, "user-1", "iss-1", jwt.RoleConsulta, "facturador-sunat", -1)
	require.NoError(t, err)

	valid, err := jwt.Generate(secret, "user-1", "iss-1", jwt.RoleConsulta, "facturador-sunat", 30)
	require.NoError(t, err)

	// alg=none con los mismos claims.
	unsigned, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "user-1",
		IssuerID:         "iss-1",
		Role:             jwt.RoleAdmin,
	}).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct{ secret, token string }{
		"vencido":       {secret, expired},
		"otro secreto":  {"otro-secreto", valid},
		"sin firma":     {secret, unsigned},
		"secreto vacío": {"", valid},
		"basura":        {secret, "no.es.jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := jwt.Parse(tc.secret, tc.token)
			assert.Error(t, err)
		})
	}
}

func TestGenerate_SecretoVacio(t *testing.T) {
	_, err := jwt.Generate("", "user-1", "iss-1", jwt.RoleEmisor, "facturador-sunat", 30)
	assert.Error(t, err)
}
