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

var _ repository.CertificateRepository = (*CertificateRepo)(nil)

// CertificateRepo certificados PFX cifrados. Solo uno activo por emisor (índice parcial).
type CertificateRepo struct {
	q Querier
}

func NewCertificateRepository(q Querier) *CertificateRepo {
	return &CertificateRepo{q: q}
}

func (r *CertificateRepo) Create(ctx context.Context, cert *entity.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.New().String()
	}
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO certificates (id, issuer_id, pfx_encrypted, password_encrypted, serial_number, subject, not_after, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		cert.ID, cert.IssuerID, cert.PFXEncrypted, cert.PasswordEncrypted, cert.SerialNumber,
		cert.Subject, cert.NotAfter, cert.Active, cert.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicate("active certificate already exists", err)
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (r *CertificateRepo) GetActiveByIssuer(ctx context.Context, issuerID string) (*entity.Certificate, error) {
	var c entity.Certificate
	err := r.q.QueryRow(ctx, `
		SELECT id, issuer_id, pfx_encrypted, password_encrypted, serial_number, subject, not_after, active, created_at
		FROM certificates
		WHERE issuer_id = $1 AND active
		ORDER BY created_at DESC
		LIMIT 1`, issuerID,
	).Scan(&c.ID, &c.IssuerID, &c.PFXEncrypted, &c.PasswordEncrypted, &c.SerialNumber,
		&c.Subject, &c.NotAfter, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active certificate: %w", err)
	}
	return &c, nil
}

func (r *CertificateRepo) DeactivateByIssuer(ctx context.Context, issuerID string) error {
	if _, err := r.q.Exec(ctx, `UPDATE certificates SET active = FALSE WHERE issuer_id = $1 AND active`, issuerID); err != nil {
		return fmt.Errorf("deactivate certificates: %w", err)
	}
	return nil
}
