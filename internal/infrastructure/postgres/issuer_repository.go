package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
)

var _ repository.IssuerRepository = (*IssuerRepo)(nil)

// IssuerRepo implementación de IssuerRepository.
type IssuerRepo struct {
	q Querier
}

func NewIssuerRepository(q Querier) *IssuerRepo {
	return &IssuerRepo{q: q}
}

func (r *IssuerRepo) Create(ctx context.Context, issuer *entity.Issuer) error {
	if issuer.ID == "" {
		issuer.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	issuer.CreatedAt, issuer.UpdatedAt = now, now

	address, err := toJSON(issuer.Address)
	if err != nil {
		return fmt.Errorf("address json: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO issuers (id, ruc, legal_name, trade_name, address, sol_user, sol_password_encrypted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		issuer.ID, issuer.RUC, issuer.LegalName, nullIfEmpty(issuer.TradeName), address,
		issuer.SolUser, issuer.SolPasswordEncrypted, issuer.CreatedAt, issuer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicate("issuer ruc already exists", err)
		}
		return fmt.Errorf("insert issuer: %w", err)
	}
	return nil
}

func (r *IssuerRepo) GetByID(ctx context.Context, id string) (*entity.Issuer, error) {
	var (
		iss       entity.Issuer
		tradeName *string
		address   []byte
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, ruc, legal_name, trade_name, address, sol_user, sol_password_encrypted, created_at, updated_at
		FROM issuers WHERE id = $1`, id,
	).Scan(&iss.ID, &iss.RUC, &iss.LegalName, &tradeName, &address, &iss.SolUser,
		&iss.SolPasswordEncrypted, &iss.CreatedAt, &iss.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get issuer: %w", err)
	}
	iss.TradeName = stringOrEmpty(tradeName)
	if err := fromJSON(address, &iss.Address); err != nil {
		return nil, fmt.Errorf("address json: %w", err)
	}
	return &iss, nil
}
