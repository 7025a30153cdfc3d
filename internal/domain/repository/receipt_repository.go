package repository

import (
	"context"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
)

// ReceiptRepository define el puerto de persistencia para CDRs.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.Receipt) error
	// GetLatestByDocument devuelve el CDR más reciente del comprobante; nil, nil si no hay.
	GetLatestByDocument(ctx context.Context, documentID string) (*entity.Receipt, error)
}

// AuditRepository define el puerto de persistencia para la bitácora de envío.
type AuditRepository interface {
	Append(ctx context.Context, event *entity.AuditEvent) error
	ListByDocument(ctx context.Context, documentID string) ([]*entity.AuditEvent, error)
}
