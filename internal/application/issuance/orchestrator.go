package issuance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
	domsunat "github.com/jhoicas/facturador-sunat/internal/domain/sunat"
	infrasunat "github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
	pkgsunat "github.com/jhoicas/facturador-sunat/pkg/sunat"
)

// Deps dependencias del Orchestrator.
type Deps struct {
	Repos   repository.Repositories
	Tx      repository.TxRunner
	Builder DocumentBuilder
	Signer  pkgsunat.Signer
	Sender  infrasunat.BillSender
	Vault   Vault
	Log     *logger.Logger
	Clock   Clock
}

// Orchestrator lleva un comprobante de pending a un estado terminal:
//
//	pending → generating → signing → submitting → accepted | accepted_with_observations | rejected | error
//
// El estado se persiste tras cada paso para que el barrido y el reenvío vean dónde quedó.
// No se mantiene ningún lock durante el envío.
type Orchestrator struct {
	docs    repository.DocumentRepository
	issuers repository.IssuerRepository
	certs   repository.CertificateRepository
	audit   repository.AuditRepository
	tx      repository.TxRunner
	builder DocumentBuilder
	signer  pkgsunat.Signer
	sender  infrasunat.BillSender
	vault   Vault
	log     *logger.Logger
	clock   Clock
}

var (
	_ Processor     = (*Orchestrator)(nil)
	_ PanicRecorder = (*Orchestrator)(nil)
)

// NewOrchestrator construye el orquestador.
func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		docs:    d.Repos.Documents,
		issuers: d.Repos.Issuers,
		certs:   d.Repos.Certificates,
		audit:   d.Repos.Audit,
		tx:      d.Tx,
		builder: d.Builder,
		signer:  d.Signer,
		sender:  d.Sender,
		vault:   d.Vault,
		log:     d.Log,
		clock:   d.Clock,
	}
}

// Process ejecuta el pipeline para un comprobante. Devuelve la causa cuando el comprobante
// termina en rejected o error; el estado ya quedó persistido en ese caso.
func (o *Orchestrator) Process(ctx context.Context, documentID string) error {
	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("cargar comprobante: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("comprobante %s: %w", documentID, domain.ErrNotFound)
	}
	log := o.log.Document(doc.ID, doc.FullNumber())

	if entity.IsAccepted(doc.Status) {
		log.Debug().Str("status", doc.Status).Msg("comprobante ya aceptado; se omite")
		return nil
	}
	// Reenvío: ResubmitUseCase lo dejó en submitting. Si esperó en la cola más que el límite,
	// el barrido ya lo pasó a error; sigue siendo el mismo reenvío y se envía igual.
	resubmission := doc.Status == entity.StatusSubmitting || entity.CanResubmit(doc.Status)

	issuer, err := o.issuers.GetByID(ctx, doc.IssuerID)
	if err != nil {
		return fmt.Errorf("cargar emisor: %w", err)
	}
	if issuer == nil {
		return o.fail(ctx, log, doc, entity.StatusRejected, EventGeneration,
			fmt.Errorf("emisor %s: %w", doc.IssuerID, domain.ErrNotFound))
	}

	if resubmission && len(doc.SignedXML) > 0 {
		// processing_since se toma al salir de la cola, no al encolar.
		now := o.clock.now()
		if doc.Status != entity.StatusSubmitting {
			log.Info().Str("status", doc.Status).Msg("reenvío retomado desde la cola")
		}
		doc.Status = entity.StatusSubmitting
		doc.ProcessingSince = &now
		doc.LastError = ""
		if err := o.docs.Update(ctx, doc); err != nil {
			return fmt.Errorf("persistir submitting: %w", err)
		}
		return o.submit(ctx, log, doc, issuer)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Generación del XML UBL 2.1
	// ═══════════════════════════════════════════════════════════════════════════
	now := o.clock.now()
	doc.Status = entity.StatusGenerating
	doc.ProcessingSince = &now
	doc.LastError = ""
	if err := o.docs.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir generating: %w", err)
	}

	// Los totales se recalculan siempre desde las líneas.
	domsunat.ComputeTotals(doc.Lines).ApplyTo(doc)
	unsigned, err := o.builder.Build(&infrasunat.BuildContext{Document: doc, Issuer: issuer})
	if err != nil {
		return o.fail(ctx, log, doc, entity.StatusRejected, EventGeneration, err)
	}
	doc.UnsignedXML = unsigned
	o.record(ctx, doc.ID, EventGenerated, entity.AuditInfo, "XML UBL 2.1 generado", map[string]any{"bytes": len(unsigned)})

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Firma con el certificado activo del emisor
	// ═══════════════════════════════════════════════════════════════════════════
	doc.Status = entity.StatusSigning
	if err := o.docs.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir signing: %w", err)
	}

	pfx, password, err := o.loadCertificate(ctx, issuer.ID)
	if err != nil {
		var certErr *domain.CertificateError
		if errors.As(err, &certErr) {
			return o.fail(ctx, log, doc, entity.StatusRejected, EventSigning, err)
		}
		return o.fail(ctx, log, doc, entity.StatusError, EventSigning, err)
	}

	signed, digest, err := o.signer.Sign(unsigned, pfx, password)
	if err != nil {
		return o.fail(ctx, log, doc, entity.StatusRejected, EventSigning, err)
	}
	doc.SignedXML = signed
	doc.Hash = digest
	doc.QRData = domsunat.QRPayload(issuer.RUC, doc)
	o.record(ctx, doc.ID, EventSigned, entity.AuditInfo, "XML firmado", map[string]any{"hash": digest})

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Envío a billService
	// ═══════════════════════════════════════════════════════════════════════════
	now = o.clock.now()
	doc.Status = entity.StatusSubmitting
	doc.ProcessingSince = &now
	if !resubmission {
		doc.LastAttemptAt = &now
		doc.Attempts++
	}
	if err := o.docs.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir submitting: %w", err)
	}
	return o.submit(ctx, log, doc, issuer)
}

// RecordPanic deja en error un comprobante cuyo procesamiento entró en panic, con auditoría,
// para que el reenvío lo recupere.
func (o *Orchestrator) RecordPanic(ctx context.Context, documentID string, cause any) {
	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil || doc == nil {
		o.log.Error().Err(err).Str("document_id", documentID).Msg("no se pudo cargar el comprobante tras un panic")
		return
	}
	if entity.IsAccepted(doc.Status) {
		return
	}
	previous := doc.Status
	msg := fmt.Sprintf("panic en %s: %v", previous, cause)
	doc.Status = entity.StatusError
	doc.ProcessingSince = nil
	doc.LastError = msg
	if err := o.docs.Update(ctx, doc); err != nil {
		o.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo persistir el panic")
	}
	o.record(ctx, doc.ID, EventPanic, entity.AuditError, msg, map[string]any{"estado_anterior": previous})
}

// loadCertificate descifra el PFX activo y su contraseña.
func (o *Orchestrator) loadCertificate(ctx context.Context, issuerID string) ([]byte, string, error) {
	cert, err := o.certs.GetActiveByIssuer(ctx, issuerID)
	if err != nil {
		return nil, "", fmt.Errorf("cargar certificado: %w", err)
	}
	if cert == nil {
		return nil, "", &domain.CertificateError{Reason: "el emisor no tiene certificado activo"}
	}
	if cert.Expired(o.clock.now()) {
		return nil, "", &domain.CertificateError{Reason: "certificado vencido el " + cert.NotAfter.Format("2006-01-02")}
	}
	pfx, err := o.vault.Decrypt(cert.PFXEncrypted)
	if err != nil {
		return nil, "", &domain.CertificateError{Reason: "no se pudo descifrar el PFX", Err: err}
	}
	password, err := o.vault.DecryptString(cert.PasswordEncrypted)
	if err != nil {
		return nil, "", &domain.CertificateError{Reason: "no se pudo descifrar la contraseña del PFX", Err: err}
	}
	return pfx, password, nil
}

// submit comprime, envía y registra el CDR. El documento ya está en submitting.
func (o *Orchestrator) submit(ctx context.Context, log zerolog.Logger, doc *entity.Document, issuer *entity.Issuer) error {
	solPassword, err := o.vault.DecryptString(issuer.SolPasswordEncrypted)
	if err != nil {
		return o.fail(ctx, log, doc, entity.StatusRejected, EventSubmitting,
			fmt.Errorf("no se pudo descifrar la clave SOL: %w", err))
	}

	xmlName, zipName := infrasunat.FileNames(issuer.RUC, doc.TypeCode, doc.Series, doc.Number)
	zipBytes, err := infrasunat.CompressXMLToZip(doc.SignedXML, xmlName)
	if err != nil {
		return o.fail(ctx, log, doc, entity.StatusRejected, EventSubmitting, err)
	}

	o.record(ctx, doc.ID, EventSubmitting, entity.AuditInfo, "enviando a SUNAT", map[string]any{
		"archivo": zipName, "intento": doc.Attempts,
	})

	resp, err := o.sender.SendBill(ctx, infrasunat.SendRequest{
		Credentials: infrasunat.Credentials{RUC: issuer.RUC, SolUser: issuer.SolUser, SolPassword: solPassword},
		FileName:    zipName,
		Zip:         zipBytes,
		OnRetry: func(attempt int, wait time.Duration, cause error) {
			o.record(ctx, doc.ID, EventRetry, entity.AuditWarning, cause.Error(), map[string]any{
				"intento": attempt, "espera_ms": wait.Milliseconds(),
			})
		},
	})
	if err != nil {
		var rejection *domain.BusinessRejection
		if errors.As(err, &rejection) {
			return o.finishRejected(ctx, log, doc, rejection)
		}
		return o.fail(ctx, log, doc, entity.StatusError, EventSubmitError, err)
	}

	cdr := infrasunat.ParseCDR(resp.Bytes())
	receipt := cdr.ToReceipt(doc.ID)
	receipt.CreatedAt = o.clock.now()

	doc.Status = infrasunat.ClassifyCode(cdr.Code)
	doc.ProcessingSince = nil
	doc.LastError = ""
	if doc.Status == entity.StatusRejected {
		doc.LastError = cdrError(cdr)
	}

	level := entity.AuditInfo
	switch doc.Status {
	case entity.StatusAcceptedWithObservations:
		level = entity.AuditWarning
	case entity.StatusRejected:
		level = entity.AuditError
	}
	ev := &entity.AuditEvent{
		DocumentID: doc.ID,
		Event:      EventReceipt,
		Level:      level,
		Message:    cdr.Description,
		Meta:       map[string]any{"codigo": receipt.CodeOrEmpty(), "estado": doc.Status, "observaciones": len(cdr.Observations)},
		CreatedAt:  o.clock.now(),
	}
	if err := o.persistOutcome(ctx, doc, receipt, ev); err != nil {
		return err
	}

	log.Info().Str("status", doc.Status).Str("codigo", receipt.CodeOrEmpty()).Msg("CDR registrado")
	if doc.Status == entity.StatusRejected {
		return &domain.BusinessRejection{Code: receipt.CodeOrEmpty(), Message: cdr.Description}
	}
	return nil
}

// finishRejected SOAP Fault: el CDR se arma desde el fault.
func (o *Orchestrator) finishRejected(ctx context.Context, log zerolog.Logger, doc *entity.Document, rejection *domain.BusinessRejection) error {
	receipt := &entity.Receipt{DocumentID: doc.ID, Description: rejection.Message, CreatedAt: o.clock.now()}
	if rejection.Code != "" {
		code := rejection.Code
		receipt.Code = &code
	}
	doc.Status = entity.StatusRejected
	doc.ProcessingSince = nil
	doc.LastError = rejection.Error()

	ev := &entity.AuditEvent{
		DocumentID: doc.ID,
		Event:      EventRejection,
		Level:      entity.AuditError,
		Message:    rejection.Error(),
		Meta:       map[string]any{"step": EventSubmitting, "codigo": rejection.Code},
		CreatedAt:  o.clock.now(),
	}
	if err := o.persistOutcome(ctx, doc, receipt, ev); err != nil {
		return err
	}
	log.Warn().Str("codigo", rejection.Code).Msg(rejection.Message)
	return rejection
}

// persistOutcome CDR, estado y auditoría en una sola transacción. Si la transacción falla se
// persiste al menos el estado y el evento.
func (o *Orchestrator) persistOutcome(ctx context.Context, doc *entity.Document, receipt *entity.Receipt, ev *entity.AuditEvent) error {
	err := o.tx.Run(ctx, func(r repository.Repositories) error {
		if err := r.Receipts.Create(ctx, receipt); err != nil {
			return err
		}
		if err := r.Documents.Update(ctx, doc); err != nil {
			return err
		}
		return r.Audit.Append(ctx, ev)
	})
	if err == nil {
		return nil
	}
	// Sin el CDR guardado el estado igual debe quedar terminal; si no, el barrido lo
	// reetiquetaría como timeout y se perdería la respuesta de SUNAT.
	o.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo guardar el CDR; se persiste solo el estado")
	if uErr := o.docs.Update(ctx, doc); uErr != nil {
		return fmt.Errorf("persistir resultado SUNAT: %w", errors.Join(err, uErr))
	}
	if ev.Meta == nil {
		ev.Meta = map[string]any{}
	}
	ev.Meta["cdr_no_guardado"] = err.Error()
	o.record(ctx, doc.ID, ev.Event, ev.Level, ev.Message, ev.Meta)
	return nil
}

// fail deja el comprobante en un estado terminal con el texto del error tal cual.
func (o *Orchestrator) fail(ctx context.Context, log zerolog.Logger, doc *entity.Document, status, step string, cause error) error {
	doc.Status = status
	doc.ProcessingSince = nil
	doc.LastError = cause.Error()
	if err := o.docs.Update(ctx, doc); err != nil {
		log.Error().Err(err).Msg("no se pudo persistir el fallo")
	}
	meta := map[string]any{"step": step, "error": cause.Error()}
	var tn *domain.TransientNetworkError
	if errors.As(cause, &tn) {
		meta["intentos"] = tn.Attempts
		meta["http_status"] = tn.StatusCode
	}
	o.record(ctx, doc.ID, step, entity.AuditError, cause.Error(), meta)
	log.Error().Err(cause).Str("step", step).Str("status", status).Msg("fallo en el pipeline de emisión")
	return cause
}

func (o *Orchestrator) record(ctx context.Context, documentID, event, level, message string, meta map[string]any) {
	ev := &entity.AuditEvent{DocumentID: documentID, Event: event, Level: level, Message: message, Meta: meta, CreatedAt: o.clock.now()}
	if err := o.audit.Append(ctx, ev); err != nil {
		o.log.Warn().Err(err).Str("document_id", documentID).Str("event", event).Msg("no se pudo registrar auditoría")
	}
}

func cdrError(cdr infrasunat.CDR) string {
	if cdr.Code == nil {
		return "CDR ilegible: " + truncate(string(cdr.XML), 200)
	}
	return fmt.Sprintf("[%s] %s", *cdr.Code, cdr.Description)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
