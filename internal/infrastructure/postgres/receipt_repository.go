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

var (
	_ repository.ReceiptRepository = (*ReceiptRepo)(nil)
	_ repository.AuditRepository   = (*AuditRepo)(nil)
)

// maxReceiptCode ancho de receipts.code.
const maxReceiptCode = 64

// ReceiptRepo CDRs recibidos. Un comprobante reenviado acumula varios.
type ReceiptRepo struct {
	q Querier
}

func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	if rc.ID == "" {
		rc.ID = uuid.New().String()
	}
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = time.Now().UTC()
	}
	observations, err := toJSON(rc.Observations)
	if err != nil {
		return fmt.Errorf("observations json: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO receipts (id, document_id, code, description, observations, raw_cdr, hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rc.ID, rc.DocumentID, receiptCode(rc.Code), rc.Description, observations,
		nullIfEmptyBytes(rc.RawCDR), nullIfEmpty(rc.Hash), rc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// receiptCode recorta códigos de fault más largos que la columna; el texto completo queda en description.
func receiptCode(code *string) *string {
	if code == nil || len(*code) <= maxReceiptCode {
		return code
	}
	clipped := (*code)[:maxReceiptCode]
	return &clipped
}

func (r *ReceiptRepo) GetLatestByDocument(ctx context.Context, documentID string) (*entity.Receipt, error) {
	var (
		rc           entity.Receipt
		observations []byte
		hash         *string
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, document_id, code, description, observations, raw_cdr, hash, created_at
		FROM receipts WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, documentID,
	).Scan(&rc.ID, &rc.DocumentID, &rc.Code, &rc.Description, &observations, &rc.RawCDR, &hash, &rc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	rc.Hash = stringOrEmpty(hash)
	if err := fromJSON(observations, &rc.Observations); err != nil {
		return nil, fmt.Errorf("observations json: %w", err)
	}
	return &rc, nil
}

// AuditRepo bitácora append-only del pipeline.
type AuditRepo struct {
	q Querier
}

func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Append(ctx context.Context, ev *entity.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	var meta []byte
	if len(ev.Meta) > 0 {
		var err error
		if meta, err = toJSON(ev.Meta); err != nil {
			return fmt.Errorf("meta json: %w", err)
		}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_events (id, document_id, event, level, message, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.DocumentID, ev.Event, ev.Level, ev.Message, meta, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.AuditEvent, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, document_id, event, level, message, meta, created_at
		FROM audit_events WHERE document_id = $1
		ORDER BY created_at, id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []*entity.AuditEvent
	for rows.Next() {
		ev := &entity.AuditEvent{}
		var meta []byte
		if err := rows.Scan(&ev.ID, &ev.DocumentID, &ev.Event, &ev.Level, &ev.Message, &meta, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if err := fromJSON(meta, &ev.Meta); err != nil {
			return nil, fmt.Errorf("meta json: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
