package issuance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/facturador-sunat/internal/application/dto"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
	domsunat "github.com/jhoicas/facturador-sunat/internal/domain/sunat"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
	pkgsunat "github.com/jhoicas/facturador-sunat/pkg/sunat"
)

// IssueUseCase registra el comprobante, le asigna correlativo y lo encola.
// La respuesta es inmediata; el envío a SUNAT lo hace el WorkerPool.
type IssueUseCase struct {
	docs    repository.DocumentRepository
	issuers repository.IssuerRepository
	audit   repository.AuditRepository
	queue   Queue
	log     *logger.Logger
	clock   Clock
}

// NewIssueUseCase construye el caso de uso. clock puede ser nil.
func NewIssueUseCase(
	docs repository.DocumentRepository,
	issuers repository.IssuerRepository,
	audit repository.AuditRepository,
	queue Queue,
	log *logger.Logger,
	clock Clock,
) *IssueUseCase {
	return &IssueUseCase{docs: docs, issuers: issuers, audit: audit, queue: queue, log: log, clock: clock}
}

// Issue valida, numera (max+1 con reintento ante colisión), persiste en pending y encola.
func (uc *IssueUseCase) Issue(ctx context.Context, issuerID string, req dto.IssueDocumentRequest) (*dto.IssueAck, error) {
	issuer, err := uc.issuers.GetByID(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	if issuer == nil {
		return nil, fmt.Errorf("emisor %s: %w", issuerID, domain.ErrNotFound)
	}

	now := uc.clock.now()
	doc, err := DocumentFromRequest(req, now)
	if err != nil {
		return nil, err
	}
	doc.IssuerID = issuer.ID
	doc.Status = entity.StatusPending

	domsunat.ComputeTotals(doc.Lines).ApplyTo(doc)
	if err := domsunat.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if err := uc.assignNumber(ctx, doc); err != nil {
		return nil, err
	}

	log := uc.log.With().Str("document_id", doc.ID).Str("numero", doc.FullNumber()).Logger()
	uc.record(ctx, doc.ID, EventIssued, entity.AuditInfo, "comprobante registrado", map[string]any{
		"tipo": doc.TypeCode, "serie": doc.Series, "numero": doc.Number,
	})

	if err := uc.queue.Enqueue(ctx, doc.ID); err != nil {
		// Queda en error para que un reenvío lo recupere.
		doc.Status = entity.StatusError
		doc.LastError = "no se pudo encolar: " + err.Error()
		if uErr := uc.docs.Update(ctx, doc); uErr != nil {
			log.Error().Err(uErr).Msg("no se pudo persistir el fallo de encolado")
		}
		uc.record(ctx, doc.ID, EventEnqueueError, entity.AuditError, doc.LastError, nil)
		return nil, fmt.Errorf("encolar comprobante %s: %w", doc.FullNumber(), err)
	}

	log.Info().Msg("comprobante encolado")
	return &dto.IssueAck{
		ID:      doc.ID,
		Status:  entity.StatusPending,
		Serie:   doc.Series,
		Numero:  doc.Number,
		Mensaje: "encolado",
	}, nil
}

// assignNumber lee el máximo de la serie e inserta max+1. Si otro proceso ganó el número
// (ErrDuplicate por el índice único) vuelve a leer.
func (uc *IssueUseCase) assignNumber(ctx context.Context, doc *entity.Document) error {
	var lastErr error
	for attempt := 1; attempt <= maxSequenceAttempts; attempt++ {
		max, err := uc.docs.MaxNumber(ctx, doc.IssuerID, doc.TypeCode, doc.Series)
		if err != nil {
			return err
		}
		doc.Number = max + 1
		err = uc.docs.Create(ctx, doc)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return err
		}
		lastErr = err
		uc.log.Debug().Str("serie", doc.Series).Int64("numero", doc.Number).Int("intento", attempt).
			Msg("correlativo tomado por otra emisión; se reintenta")
	}
	return fmt.Errorf("%w: no se pudo asignar correlativo para %s tras %d intentos: %v",
		domain.ErrConflict, doc.Series, maxSequenceAttempts, lastErr)
}

func (uc *IssueUseCase) record(ctx context.Context, documentID, event, level, message string, meta map[string]any) {
	ev := &entity.AuditEvent{DocumentID: documentID, Event: event, Level: level, Message: message, Meta: meta, CreatedAt: uc.clock.now()}
	if err := uc.audit.Append(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("document_id", documentID).Str("event", event).Msg("no se pudo registrar auditoría")
	}
}

// DocumentFromRequest traduce la petición a la entidad aplicando los valores por defecto
// (serie según tipo, PEN, venta interna, NIU, gravado). No calcula totales ni valida reglas SUNAT.
func DocumentFromRequest(req dto.IssueDocumentRequest, now time.Time) (*entity.Document, error) {
	issued, err := issueDate(req.FechaEmision, now)
	if err != nil {
		return nil, err
	}

	doc := &entity.Document{
		TypeCode:      strings.TrimSpace(req.TipoDoc),
		Series:        strings.ToUpper(strings.TrimSpace(req.Serie)),
		IssueDate:     issued,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Moneda)),
		OperationType: req.TipoOperacion,
		NoteReason:    req.Motivo,
		Customer: entity.Customer{
			DocType:   strings.TrimSpace(req.Cliente.TipoDoc),
			DocNumber: strings.TrimSpace(req.Cliente.NumDoc),
			Name:      strings.TrimSpace(req.Cliente.Nombre),
			Address:   AddressFromRequest(req.Cliente.Direccion),
		},
	}
	if doc.Currency == "" {
		doc.Currency = "PEN"
	}
	if doc.OperationType == "" {
		doc.OperationType = pkgsunat.OperationInternalSale
	}
	if req.Referencia != nil {
		doc.Reference = &entity.DocumentReference{
			TypeCode: req.Referencia.TipoDoc,
			Series:   strings.ToUpper(req.Referencia.Serie),
			Number:   req.Referencia.Numero,
		}
	}
	if doc.Series == "" {
		doc.Series = domsunat.SeriesFor(doc)
	}

	if req.FormaPago != nil {
		doc.PaymentTerms.Form = req.FormaPago.Tipo
		for i, c := range req.FormaPago.Cuotas {
			due, err := time.ParseInLocation("2006-01-02", c.FechaVencimiento, peruZone)
			if err != nil {
				return nil, domain.NewValidationError("cuotas", "cuota %d: fecha de vencimiento inválida %q", i+1, c.FechaVencimiento)
			}
			doc.PaymentTerms.Installments = append(doc.PaymentTerms.Installments, entity.Installment{Amount: c.Monto, DueDate: due})
		}
	}

	for i, it := range req.Items {
		line := &entity.LineItem{
			Position:    i + 1,
			Description: strings.TrimSpace(it.Descripcion),
			Quantity:    it.Cantidad,
			UnitCode:    it.Unidad,
			UnitPrice:   it.ValorUnitario,
			Affectation: it.TipoAfectacion,
		}
		if line.UnitCode == "" {
			line.UnitCode = pkgsunat.UnitProduct
		}
		if line.Affectation == "" {
			line.Affectation = pkgsunat.AffectationTaxed
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}

// AddressFromRequest dirección vacía si la petición no la trae.
func AddressFromRequest(a *dto.AddressRequest) entity.Address {
	if a == nil {
		return entity.Address{}
	}
	return entity.Address{
		Ubigeo:          a.Ubigeo,
		Street:          a.Direccion,
		CitySubdivision: a.Urbanizacion,
		Province:        a.Provincia,
		Department:      a.Departamento,
		District:        a.Distrito,
		CountryCode:     a.Pais,
	}
}

// issueDate combina la fecha pedida con la hora actual de Lima; vacía = ahora.
func issueDate(value string, now time.Time) (time.Time, error) {
	local := now.In(peruZone)
	if strings.TrimSpace(value) == "" {
		return local, nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, peruZone)
	if err != nil {
		return time.Time{}, domain.NewValidationError("fecha_emision", "formato esperado YYYY-MM-DD: %q", value)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		local.Hour(), local.Minute(), local.Second(), 0, peruZone), nil
}
