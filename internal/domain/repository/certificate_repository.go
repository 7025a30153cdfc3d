package repository

import (
	"context"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
)

// CertificateRepository define el puerto de persistencia para certificados cifrados.
type CertificateRepository interface {
	Create(ctx context.Context, cert *entity.Certificate) error
	// GetActiveByIssuer devuelve el certificado activo del emisor; nil, nil si no tiene.
	GetActiveByIssuer(ctx context.Context, issuerID string) (*entity.Certificate, error)
	// DeactivateByIssuer desactiva todos los certificados del emisor.
	DeactivateByIssuer(ctx context.Context, issuerID string) error
}
