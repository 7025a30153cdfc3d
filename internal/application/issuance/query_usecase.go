package issuance

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturador-sunat/internal/application/dto"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
	domsunat "github.com/jhoicas/facturador-sunat/internal/domain/sunat"
)

// QueryUseCase lecturas de comprobantes para la API.
type QueryUseCase struct {
	docs     repository.DocumentRepository
	receipts repository.ReceiptRepository
	sweeper  *Sweeper
	clock    Clock
}

func NewQueryUseCase(docs repository.DocumentRepository, receipts repository.ReceiptRepository, sweeper *Sweeper, clock Clock) *QueryUseCase {
	return &QueryUseCase{docs: docs, receipts: receipts, sweeper: sweeper, clock: clock}
}

// Get comprobante con líneas y último CDR. Solo el emisor dueño puede verlo.
func (uc *QueryUseCase) Get(ctx context.Context, issuerID, documentID string) (*dto.DocumentResponse, error) {
	doc, err := uc.load(ctx, issuerID, documentID)
	if err != nil {
		return nil, err
	}
	receipt, err := uc.receipts.GetLatestByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	out := &dto.DocumentResponse{
		ID:           doc.ID,
		TipoDoc:      doc.TypeCode,
		Serie:        doc.Series,
		Numero:       doc.Number,
		FechaEmision: doc.IssueDate.In(peruZone).Format("2006-01-02"),
		Moneda:       doc.Currency,
		Cliente: dto.CustomerRequest{
			TipoDoc: doc.Customer.DocType,
			NumDoc:  doc.Customer.DocNumber,
			Nombre:  doc.Customer.Name,
		},
		Gravado:     doc.TaxedAmount,
		Exonerado:   doc.ExemptAmount,
		Inafecto:    doc.UnaffectedAmount,
		Exportacion: doc.ExportAmount,
		IGV:         doc.TaxAmount,
		Total:       doc.Total,
		Status:      doc.Status,
		Hash:        doc.Hash,
		QR:          doc.QRData,
		Intentos:    doc.Attempts,
		UltimoError: doc.LastError,
		Items:       make([]dto.LineItemResponse, 0, len(doc.Lines)),
	}
	for _, l := range doc.Lines {
		out.Items = append(out.Items, dto.LineItemResponse{
			Descripcion:    l.Description,
			Cantidad:       l.Quantity,
			Unidad:         l.UnitCode,
			ValorUnitario:  l.UnitPrice,
			TipoAfectacion: l.Affectation,
			ValorVenta:     domsunat.LineAmount(l),
			IGV:            domsunat.LineTax(l),
		})
	}
	if receipt != nil {
		out.CDR = &dto.ReceiptResponse{
			Codigo:        receipt.CodeOrEmpty(),
			Descripcion:   receipt.Description,
			Observaciones: receipt.Observations,
			Hash:          receipt.Hash,
			Fecha:         receipt.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}

// Status respuesta ligera para polling.
func (uc *QueryUseCase) Status(ctx context.Context, issuerID, documentID string) (*dto.DocumentStatusDTO, error) {
	doc, err := uc.load(ctx, issuerID, documentID)
	if err != nil {
		return nil, err
	}
	out := &dto.DocumentStatusDTO{ID: doc.ID, Status: doc.Status, UltimoError: doc.LastError}
	if entity.IsTerminal(doc.Status) {
		receipt, err := uc.receipts.GetLatestByDocument(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			out.Codigo = receipt.CodeOrEmpty()
			out.Descripcion = receipt.Description
		}
	}
	return out, nil
}

// Progress barre los colgados y devuelve el conteo del día por estado.
func (uc *QueryUseCase) Progress(ctx context.Context, issuerID string, day time.Time) (*dto.ProgressResponse, error) {
	swept, err := uc.sweeper.Sweep(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := uc.docs.CountByStatus(ctx, issuerID, day)
	if err != nil {
		return nil, err
	}
	out := &dto.ProgressResponse{Fecha: day.Format("2006-01-02"), PorEstado: counts, Reclasificados: len(swept)}
	for _, n := range counts {
		out.Total += n
	}
	return out, nil
}

// Today fecha actual en Lima.
func (uc *QueryUseCase) Today() time.Time {
	return uc.clock.now().In(peruZone)
}

func (uc *QueryUseCase) load(ctx context.Context, issuerID, documentID string) (*entity.Document, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.IssuerID != issuerID {
		return nil, fmt.Errorf("comprobante %s: %w", documentID, domain.ErrNotFound)
	}
	return doc, nil
}

// ParseDay interpreta YYYY-MM-DD como un día calendario de Lima.
func ParseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", value, peruZone)
	if err != nil {
		return time.Time{}, domain.NewValidationError("fecha", "formato esperado YYYY-MM-DD: %q", value)
	}
	return day, nil
}
