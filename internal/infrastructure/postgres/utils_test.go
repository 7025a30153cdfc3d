package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/facturador-sunat/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "documents_sequence_unique"}
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", pgErr)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
}

func TestDuplicate_EnvuelveErrDuplicate(t *testing.T) {
	err := duplicate("document 01-F001-1 already exists", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestMigrationsEmbebidas(t *testing.T) {
	script, err := migrationsFS.ReadFile("migrations/001_init.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(script), "UNIQUE (issuer_id, type_code, series, number)")
}

func TestMigrationsUsuarios(t *testing.T) {
	script, err := migrationsFS.ReadFile("migrations/002_users.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(script), "users_email_unique")
}

func TestMigrationsCodigoDeCDRAmplio(t *testing.T) {
	script, err := migrationsFS.ReadFile("migrations/003_receipt_code.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(script), "ALTER COLUMN code TYPE VARCHAR(64)")
}

func TestReceiptCode_RecortaFaultsLargos(t *testing.T) {
	assert.Nil(t, receiptCode(nil))

	short := "0111"
	assert.Equal(t, "0111", *receiptCode(&short))

	fault := "ValidationFailure"
	assert.Equal(t, "ValidationFailure", *receiptCode(&fault), "un faultcode no numérico cabe en la columna")

	long := strings.Repeat("X", 100)
	got := receiptCode(&long)
	assert.Len(t, *got, maxReceiptCode)
	assert.Len(t, long, 100, "no modifica el original")
}
