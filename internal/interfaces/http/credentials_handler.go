package http

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturador-sunat/internal/application/dto"
)

// maxPFXSize tope del archivo PFX subido.
const maxPFXSize = 1 << 20

type credentialsService interface {
	CreateIssuer(ctx context.Context, in dto.CreateIssuerRequest) (*dto.IssuerResponse, error)
	UploadCertificate(ctx context.Context, issuerID string, pfx []byte, password string) (*dto.CertificateResponse, error)
}

// CredentialsHandler alta de emisores y carga de certificados (solo admin).
type CredentialsHandler struct {
	uc credentialsService
}

func NewCredentialsHandler(uc credentialsService) *CredentialsHandler {
	return &CredentialsHandler{uc: uc}
}

// CreateIssuer godoc
// @Summary      Registrar emisor
// @Tags         issuers
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateIssuerRequest  true  "Emisor y credenciales SOL"
// @Success      201   {object}  dto.IssuerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/issuers [post]
func (h *CredentialsHandler) CreateIssuer(c *fiber.Ctx) error {
	var in dto.CreateIssuerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.CreateIssuer(c.Context(), in)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UploadCertificate godoc
// @Summary      Cargar certificado PFX
// @Description  multipart con el archivo "pfx" y el campo "password". issuer_id opcional; por defecto el emisor del token.
// @Tags         certificates
// @Accept       mpfd
// @Produce      json
// @Param        pfx        formData  file    true   "Certificado PKCS#12"
// @Param        password   formData  string  true   "Contraseña del PFX"
// @Param        issuer_id  formData  string  false  "Emisor"
// @Success      201  {object}  dto.CertificateResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/certificates [post]
func (h *CredentialsHandler) UploadCertificate(c *fiber.Ctx) error {
	issuerID := c.FormValue("issuer_id")
	if issuerID == "" {
		issuerID = GetIssuerID(c)
	}
	if issuerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "issuer_id requerido"})
	}
	password := c.FormValue("password")
	if password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "password requerido"})
	}
	fh, err := c.FormFile("pfx")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "archivo pfx requerido"})
	}
	if fh.Size > maxPFXSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Code: "TOO_LARGE", Message: "el PFX supera 1 MiB"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "no se pudo leer el archivo"})
	}
	defer f.Close()
	pfx, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "no se pudo leer el archivo"})
	}

	out, err := h.uc.UploadCertificate(c.Context(), issuerID, pfx, password)
	if err != nil {
		return respondError(c, err, "emisor no encontrado")
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
