package entity

import "time"

// Receipt CDR (Constancia de Recepción) devuelto por SUNAT para un comprobante.
type Receipt struct {
	ID           string
	DocumentID   string
	Code         *string // nil si el CDR no pudo interpretarse
	Description  string
	Observations []string
	RawCDR       []byte
	Hash         string // SHA-256 del XML canónico del CDR
	CreatedAt    time.Time
}

// CodeOrEmpty código del CDR o cadena vacía.
func (r *Receipt) CodeOrEmpty() string {
	if r == nil || r.Code == nil {
		return ""
	}
	return *r.Code
}

// Niveles de evento de auditoría.
const (
	AuditInfo    = "INFO"
	AuditWarning = "WARNING"
	AuditError   = "ERROR"
)

// AuditEvent traza de cada paso del pipeline de emisión.
type AuditEvent struct {
	ID         string
	DocumentID string
	Event      string
	Level      string
	Message    string
	Meta       map[string]any
	CreatedAt  time.Time
}
