package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturador-sunat/internal/application/dto"
	"github.com/jhoicas/facturador-sunat/internal/application/issuance"
)

// Contratos mínimos de los casos de uso; permiten probar los handlers con dobles.
type (
	documentIssuer interface {
		Issue(ctx context.Context, issuerID string, req dto.IssueDocumentRequest) (*dto.IssueAck, error)
	}
	documentReader interface {
		Get(ctx context.Context, issuerID, documentID string) (*dto.DocumentResponse, error)
		Status(ctx context.Context, issuerID, documentID string) (*dto.DocumentStatusDTO, error)
		Progress(ctx context.Context, issuerID string, day time.Time) (*dto.ProgressResponse, error)
		Today() time.Time
	}
	documentResubmitter interface {
		Resubmit(ctx context.Context, issuerID, documentID string) (*dto.DocumentStatusDTO, error)
		ResubmitRejected(ctx context.Context, issuerID string, day time.Time) (*dto.BatchResubmitResult, error)
	}
)

// DocumentHandler expone la emisión y el seguimiento de comprobantes electrónicos.
type DocumentHandler struct {
	issue    documentIssuer
	query    documentReader
	resubmit documentResubmitter
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(issue documentIssuer, query documentReader, resubmit documentResubmitter) *DocumentHandler {
	return &DocumentHandler{issue: issue, query: query, resubmit: resubmit}
}

// Issue registra el comprobante, le asigna correlativo y lo encola. Responde 202 sin esperar a SUNAT.
// @Summary      Emitir comprobante
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        body  body      dto.IssueDocumentRequest  true  "Comprobante"
// @Success      202   {object}  dto.IssueAck
// @Failure      400   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/documents [post]
func (h *DocumentHandler) Issue(c *fiber.Ctx) error {
	issuerID := GetIssuerID(c)
	if issuerID == "" {
		return unauthorized(c)
	}
	var in dto.IssueDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ack, err := h.issue.Issue(c.Context(), issuerID, in)
	if err != nil {
		return respondError(c, err, "emisor no encontrado")
	}
	return c.Status(fiber.StatusAccepted).JSON(ack)
}

// Get detalle del comprobante con líneas y CDR.
// @Summary      Obtener comprobante
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	issuerID := GetIssuerID(c)
	if issuerID == "" {
		return unauthorized(c)
	}
	out, err := h.query.Get(c.Context(), issuerID, c.Params("id"))
	if err != nil {
		return respondError(c, err, "comprobante no encontrado")
	}
	return c.JSON(out)
}

// Status estado actual para polling.
// GET /api/documents/:id/status
func (h *DocumentHandler) Status(c *fiber.Ctx) error {
	issuerID := GetIssuerID(c)
	if issuerID == "" {
		return unauthorized(c)
	}
	out, err := h.query.Status(c.Context(), issuerID, c.Params("id"))
	if err != nil {
		return respondError(c, err, "comprobante no encontrado")
	}
	return c.JSON(out)
}

// Resubmit reencola un comprobante rechazado o en error.
// @Summary      Reenviar comprobante
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      202  {object}  dto.DocumentStatusDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/documents/{id}/resubmit [post]
func (h *DocumentHandler) Resubmit(c *fiber.Ctx) error {
	issuerID := GetIssuerID(c)
	if issuerID == "" {
		return unauthorized(c)
	}
	out, err := h.resubmit.Resubmit(c.Context(), issuerID, c.Params("id"))
	if err != nil {
		return respondError(c, err, "comprobante no encontrado")
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// ResubmitRejected reenvío masivo de los rechazados del día (?fecha=YYYY-MM-DD, por defecto hoy).
// POST /api/documents/resubmit-rejected
func (h *DocumentHandler) ResubmitRejected(c *fiber.Ctx) error {
	issuerID := GetIssuerID(c)
	if issuerID == "" {
		return unauthorized(c)
	}
	day, err := h.day(c)
	if err != nil {
		return respondError(c, err, "")
	}
	out, err := h.resubmit.ResubmitRejected(c.Context(), issuerID, day)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(out)
}

// Progress barre los colgados y devuelve el conteo por estado del día.
// GET /api/documents/progress
func (h *DocumentHandler) Progress(c *fiber.Ctx) error {
	issuerID := GetIssuerID(c)
	if issuerID == "" {
		return unauthorized(c)
	}
	day, err := h.day(c)
	if err != nil {
		return respondError(c, err, "")
	}
	out, err := h.query.Progress(c.Context(), issuerID, day)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(out)
}

func (h *DocumentHandler) day(c *fiber.Ctx) (time.Time, error) {
	if v := c.Query("fecha"); v != "" {
		return issuance.ParseDay(v)
	}
	return h.query.Today(), nil
}
