package issuance

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

// DefaultStuckAfter tiempo máximo en generating, signing o submitting antes de reclasificar a error.
const DefaultStuckAfter = 30 * time.Second

// Sweeper reclasifica a error los comprobantes colgados a mitad del pipeline.
type Sweeper struct {
	docs       repository.DocumentRepository
	audit      repository.AuditRepository
	stuckAfter time.Duration
	log        *logger.Logger
	clock      Clock
}

// NewSweeper stuckAfter <= 0 usa DefaultStuckAfter.
func NewSweeper(docs repository.DocumentRepository, audit repository.AuditRepository, stuckAfter time.Duration, log *logger.Logger, clock Clock) *Sweeper {
	if stuckAfter <= 0 {
		stuckAfter = DefaultStuckAfter
	}
	return &Sweeper{docs: docs, audit: audit, stuckAfter: stuckAfter, log: log, clock: clock}
}

// TimeoutReason texto persistido en last_error de los colgados.
func (s *Sweeper) TimeoutReason() string {
	return fmt.Sprintf("Timeout: Procesamiento demoró más de %d segundos", int(s.stuckAfter.Seconds()))
}

// Sweep devuelve los IDs reclasificados.
func (s *Sweeper) Sweep(ctx context.Context) ([]string, error) {
	now := s.clock.now()
	reason := s.TimeoutReason()
	ids, err := s.docs.MarkStuckAsError(ctx, now.Add(-s.stuckAfter), reason)
	if err != nil {
		return nil, fmt.Errorf("barrido de colgados: %w", err)
	}
	for _, id := range ids {
		ev := &entity.AuditEvent{
			DocumentID: id,
			Event:      EventTimeout,
			Level:      entity.AuditError,
			Message:    reason,
			Meta:       map[string]any{"limite_s": s.stuckAfter.Seconds()},
			CreatedAt:  now,
		}
		if err := s.audit.Append(ctx, ev); err != nil {
			s.log.Warn().Err(err).Str("document_id", id).Msg("no se pudo registrar auditoría del timeout")
		}
	}
	if len(ids) > 0 {
		s.log.Warn().Int("reclasificados", len(ids)).Msg("comprobantes colgados pasados a error")
	}
	return ids, nil
}

// Run barre cada interval hasta que se cancele ctx.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("fallo el barrido de colgados")
			}
		}
	}
}
