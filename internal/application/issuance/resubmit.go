package issuance

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturador-sunat/internal/application/dto"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

// DefaultResubmitCooldown el reenvío masivo omite los intentados hace menos de esto.
const DefaultResubmitCooldown = time.Minute

// ResubmitUseCase reenvíos individuales y masivos de comprobantes rechazados o con error.
type ResubmitUseCase struct {
	docs     repository.DocumentRepository
	audit    repository.AuditRepository
	queue    Queue
	cooldown time.Duration
	log      *logger.Logger
	clock    Clock
}

// NewResubmitUseCase cooldown <= 0 usa DefaultResubmitCooldown.
func NewResubmitUseCase(docs repository.DocumentRepository, audit repository.AuditRepository, q Queue, cooldown time.Duration, log *logger.Logger, clock Clock) *ResubmitUseCase {
	if cooldown <= 0 {
		cooldown = DefaultResubmitCooldown
	}
	return &ResubmitUseCase{docs: docs, audit: audit, queue: q, cooldown: cooldown, log: log, clock: clock}
}

// Resubmit reencola un comprobante. Un aceptado nunca se reenvía (ErrConflict).
func (uc *ResubmitUseCase) Resubmit(ctx context.Context, issuerID, documentID string) (*dto.DocumentStatusDTO, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.IssuerID != issuerID {
		return nil, fmt.Errorf("comprobante %s: %w", documentID, domain.ErrNotFound)
	}
	if !entity.CanResubmit(doc.Status) {
		return nil, fmt.Errorf("%w: no se puede reenviar un comprobante en estado %s", domain.ErrConflict, doc.Status)
	}
	if err := uc.enqueue(ctx, doc, uc.clock.now()); err != nil {
		return nil, err
	}
	return &dto.DocumentStatusDTO{ID: doc.ID, Status: doc.Status}, nil
}

// ResubmitRejected reencola los rechazados del día. Ejecutarlo dos veces seguidas no duplica
// envíos: la segunda pasada los omite por el cooldown.
func (uc *ResubmitUseCase) ResubmitRejected(ctx context.Context, issuerID string, day time.Time) (*dto.BatchResubmitResult, error) {
	docs, err := uc.docs.ListRejectedByDay(ctx, issuerID, day)
	if err != nil {
		return nil, err
	}
	now := uc.clock.now()
	out := &dto.BatchResubmitResult{Fecha: day.Format("2006-01-02")}
	for _, doc := range docs {
		if doc.LastAttemptAt != nil && now.Sub(*doc.LastAttemptAt) < uc.cooldown {
			out.Omitidos++
			continue
		}
		if err := uc.enqueue(ctx, doc, now); err != nil {
			return out, err
		}
		out.Encolados++
		out.IDs = append(out.IDs, doc.ID)
	}
	uc.log.Info().Str("issuer_id", issuerID).Str("fecha", out.Fecha).
		Int("encolados", out.Encolados).Int("omitidos", out.Omitidos).Msg("reenvío masivo de rechazados")
	return out, nil
}

// enqueue marca submitting, fija processing_since y last_attempt_at, suma el intento y encola.
func (uc *ResubmitUseCase) enqueue(ctx context.Context, doc *entity.Document, now time.Time) error {
	previous := doc.Status
	doc.Status = entity.StatusSubmitting
	doc.ProcessingSince = &now
	doc.LastAttemptAt = &now
	doc.Attempts++
	doc.LastError = ""
	if err := uc.docs.Update(ctx, doc); err != nil {
		return fmt.Errorf("marcar reenvío: %w", err)
	}
	ev := &entity.AuditEvent{
		DocumentID: doc.ID,
		Event:      EventResubmit,
		Level:      entity.AuditInfo,
		Message:    "reenvío solicitado",
		Meta:       map[string]any{"estado_anterior": previous, "intento": doc.Attempts},
		CreatedAt:  now,
	}
	if err := uc.audit.Append(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("document_id", doc.ID).Msg("no se pudo registrar auditoría del reenvío")
	}
	if err := uc.queue.Enqueue(ctx, doc.ID); err != nil {
		return fmt.Errorf("encolar reenvío %s: %w", doc.FullNumber(), err)
	}
	return nil
}

// RequeuePending vuelve a encolar los pendientes. Con la cola en memoria, lo encolado se pierde
// al reiniciar el proceso; se llama al arrancar.
func (uc *ResubmitUseCase) RequeuePending(ctx context.Context) (int, error) {
	ids, err := uc.docs.ListPendingIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listar pendientes: %w", err)
	}
	for i, id := range ids {
		if err := uc.queue.Enqueue(ctx, id); err != nil {
			return i, fmt.Errorf("reencolar %s: %w", id, err)
		}
	}
	if len(ids) > 0 {
		uc.log.Info().Int("pendientes", len(ids)).Msg("pendientes reencolados al arrancar")
	}
	return len(ids), nil
}
