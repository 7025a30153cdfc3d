// Package issuance orquesta la emisión de comprobantes: numeración, cola, generación del XML,
// firma, envío a SUNAT e interpretación del CDR, con barrido de colgados y reenvíos.
package issuance

import (
	"context"
	"time"

	infrasunat "github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat"
)

// Queue cola de IDs de comprobantes a procesar.
type Queue interface {
	Enqueue(ctx context.Context, documentID string) error
	// Dequeue bloquea hasta que haya un ID o se cancele ctx.
	Dequeue(ctx context.Context) (string, error)
}

// Vault cifra en reposo PFX, contraseñas y clave SOL.
type Vault interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
	EncryptString(s string) ([]byte, error)
	DecryptString(data []byte) (string, error)
}

// DocumentBuilder genera el XML UBL 2.1 sin firmar.
type DocumentBuilder interface {
	Build(ctx *infrasunat.BuildContext) ([]byte, error)
}

// Processor procesa un comprobante encolado. Lo implementa el Orchestrator.
type Processor interface {
	Process(ctx context.Context, documentID string) error
}

// PanicRecorder lo usa el WorkerPool tras recuperar un panic del Processor.
type PanicRecorder interface {
	RecordPanic(ctx context.Context, documentID string, cause any)
}

// Clock fuente de tiempo inyectable en tests.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Eventos de auditoría del pipeline.
const (
	EventIssued       = "emitido"
	EventEnqueueError = "encolado_fallido"
	EventGenerated    = "xml_generado"
	EventGeneration   = "generacion"
	EventSigned       = "firmado"
	EventSigning      = "firma"
	EventSubmitting   = "envio"
	EventRetry        = "envio_reintento"
	EventSubmitError  = "envio_fallido"
	EventRejection    = "rechazo_sunat"
	EventReceipt      = "cdr_recibido"
	EventTimeout      = "timeout"
	EventResubmit     = "reenvio"
	EventPanic        = "panic"
)

// peruZone hora oficial del Perú (UTC-5).
var peruZone = time.FixedZone("PET", -5*60*60)

// maxSequenceAttempts tope de reintentos al chocar con el índice único de numeración.
const maxSequenceAttempts = 20
