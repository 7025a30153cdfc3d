package dto

import "github.com/shopspring/decimal"

// IssueDocumentRequest body para POST /api/documents.
// Serie y moneda son opcionales: se completan con la serie por defecto del tipo y PEN.
type IssueDocumentRequest struct {
	TipoDoc       string            `json:"tipo_doc"`                // 01 factura, 03 boleta, 07 NC, 08 ND
	Serie         string            `json:"serie,omitempty"`         // F001, B001, FC01...
	FechaEmision  string            `json:"fecha_emision,omitempty"` // YYYY-MM-DD; hoy (Lima) si va vacía
	Moneda        string            `json:"moneda,omitempty"`
	TipoOperacion string            `json:"tipo_operacion,omitempty"`
	Cliente       CustomerRequest   `json:"cliente"`
	Items         []LineItemRequest `json:"items"`
	FormaPago     *PaymentRequest   `json:"forma_pago,omitempty"`
	Referencia    *ReferenceRequest `json:"referencia,omitempty"`    // Solo notas
	Motivo        string            `json:"motivo,omitempty"`        // Catálogo 09/10
}

// CustomerRequest adquiriente.
type CustomerRequest struct {
	TipoDoc   string          `json:"tipo_doc"`
	NumDoc    string          `json:"num_doc"`
	Nombre    string          `json:"nombre"`
	Direccion *AddressRequest `json:"direccion,omitempty"`
}

// AddressRequest dirección; los campos vacíos se omiten del XML.
type AddressRequest struct {
	Ubigeo       string `json:"ubigeo,omitempty"`
	Direccion    string `json:"direccion,omitempty"`
	Urbanizacion string `json:"urbanizacion,omitempty"`
	Provincia    string `json:"provincia,omitempty"`
	Departamento string `json:"departamento,omitempty"`
	Distrito     string `json:"distrito,omitempty"`
	Pais         string `json:"pais,omitempty"`
}

// LineItemRequest línea de detalle. ValorUnitario es sin IGV.
type LineItemRequest struct {
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	Unidad         string          `json:"unidad,omitempty"`
	ValorUnitario  decimal.Decimal `json:"valor_unitario"`
	TipoAfectacion string          `json:"tipo_afectacion,omitempty"` // 10 por defecto
}

// PaymentRequest forma de pago: Contado o Credito con cuotas.
type PaymentRequest struct {
	Tipo   string               `json:"tipo"`
	Cuotas []InstallmentRequest `json:"cuotas,omitempty"`
}

// InstallmentRequest cuota de crédito.
type InstallmentRequest struct {
	Monto            decimal.Decimal `json:"monto"`
	FechaVencimiento string          `json:"fecha_vencimiento"` // YYYY-MM-DD
}

// ReferenceRequest comprobante afectado por la nota.
type ReferenceRequest struct {
	TipoDoc string `json:"tipo_doc"`
	Serie   string `json:"serie"`
	Numero  int64  `json:"numero"`
}

// IssueAck respuesta inmediata: el comprobante quedó numerado y encolado.
type IssueAck struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Serie   string `json:"serie"`
	Numero  int64  `json:"numero"`
	Mensaje string `json:"mensaje"`
}

// DocumentResponse comprobante con su último CDR para GET /api/documents/:id.
type DocumentResponse struct {
	ID           string             `json:"id"`
	TipoDoc      string             `json:"tipo_doc"`
	Serie        string             `json:"serie"`
	Numero       int64              `json:"numero"`
	FechaEmision string             `json:"fecha_emision"`
	Moneda       string             `json:"moneda"`
	Cliente      CustomerRequest    `json:"cliente"`
	Gravado      decimal.Decimal    `json:"gravado"`
	Exonerado    decimal.Decimal    `json:"exonerado"`
	Inafecto     decimal.Decimal    `json:"inafecto"`
	Exportacion  decimal.Decimal    `json:"exportacion"`
	IGV          decimal.Decimal    `json:"igv"`
	Total        decimal.Decimal    `json:"total"`
	Status       string             `json:"status"`
	Hash         string             `json:"hash,omitempty"`
	QR           string             `json:"qr,omitempty"`
	Intentos     int                `json:"intentos"`
	UltimoError  string             `json:"ultimo_error,omitempty"`
	CDR          *ReceiptResponse   `json:"cdr,omitempty"`
	Items        []LineItemResponse `json:"items"`
}

// LineItemResponse línea con importes calculados.
type LineItemResponse struct {
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	Unidad         string          `json:"unidad"`
	ValorUnitario  decimal.Decimal `json:"valor_unitario"`
	TipoAfectacion string          `json:"tipo_afectacion"`
	ValorVenta     decimal.Decimal `json:"valor_venta"`
	IGV            decimal.Decimal `json:"igv"`
}

// ReceiptResponse CDR interpretado.
type ReceiptResponse struct {
	Codigo        string   `json:"codigo,omitempty"`
	Descripcion   string   `json:"descripcion"`
	Observaciones []string `json:"observaciones,omitempty"`
	Hash          string   `json:"hash,omitempty"`
	Fecha         string   `json:"fecha"`
}

// DocumentStatusDTO respuesta ligera para el polling de GET /api/documents/:id/status.
type DocumentStatusDTO struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Codigo      string `json:"codigo,omitempty"`
	Descripcion string `json:"descripcion,omitempty"`
	UltimoError string `json:"ultimo_error,omitempty"`
}

// BatchResubmitResult resultado del reenvío masivo de rechazados.
type BatchResubmitResult struct {
	Fecha     string   `json:"fecha"`
	Encolados int      `json:"encolados"`
	Omitidos  int      `json:"omitidos"`
	IDs       []string `json:"ids,omitempty"`
}

// ProgressResponse conteo del día por estado tras el barrido de colgados.
type ProgressResponse struct {
	Fecha          string         `json:"fecha"`
	PorEstado      map[string]int `json:"por_estado"`
	Total          int            `json:"total"`
	Reclasificados int            `json:"reclasificados"`
}

// CreateIssuerRequest body para POST /api/issuers.
type CreateIssuerRequest struct {
	RUC             string          `json:"ruc"`
	RazonSocial     string          `json:"razon_social"`
	NombreComercial string          `json:"nombre_comercial,omitempty"`
	Direccion       *AddressRequest `json:"direccion,omitempty"`
	UsuarioSOL      string          `json:"usuario_sol"`
	ClaveSOL        string          `json:"clave_sol"`
}

// IssuerResponse emisor sin credenciales.
type IssuerResponse struct {
	ID              string `json:"id"`
	RUC             string `json:"ruc"`
	RazonSocial     string `json:"razon_social"`
	NombreComercial string `json:"nombre_comercial,omitempty"`
	UsuarioSOL      string `json:"usuario_sol"`
}

// CertificateResponse metadatos del certificado cargado (nunca el PFX).
type CertificateResponse struct {
	ID       string `json:"id"`
	IssuerID string `json:"issuer_id"`
	Serie    string `json:"serie"`
	Sujeto   string `json:"sujeto"`
	VenceEl  string `json:"vence_el"`
	Activo   bool   `json:"activo"`
}
