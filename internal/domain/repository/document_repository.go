package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para comprobantes y sus líneas.
type DocumentRepository interface {
	// MaxNumber devuelve el mayor correlativo registrado para (emisor, tipo, serie); 0 si no hay ninguno.
	MaxNumber(ctx context.Context, issuerID, typeCode, series string) (int64, error)

	// Create inserta cabecera y líneas en una sola transacción.
	// Devuelve un error que envuelve domain.ErrDuplicate si (emisor, tipo, serie, número) ya existe.
	Create(ctx context.Context, doc *entity.Document) error

	// GetByID devuelve el comprobante con sus líneas; nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Document, error)

	// Update persiste estado, artefactos (XML, hash, QR) y contadores de envío. No toca las líneas.
	Update(ctx context.Context, doc *entity.Document) error

	// ListRejectedByDay rechazados del emisor con fecha de emisión en el día indicado.
	ListRejectedByDay(ctx context.Context, issuerID string, day time.Time) ([]*entity.Document, error)

	// MarkStuckAsError pasa a error los comprobantes en generating, signing o submitting con
	// processing_since anterior a cutoff.
	// Devuelve los IDs afectados.
	MarkStuckAsError(ctx context.Context, cutoff time.Time, reason string) ([]string, error)

	// ListPendingIDs comprobantes en pending, del más antiguo al más reciente.
	ListPendingIDs(ctx context.Context) ([]string, error)

	// CountByStatus cuenta comprobantes del emisor por estado para el día indicado.
	CountByStatus(ctx context.Context, issuerID string, day time.Time) (map[string]int, error)
}
