package sunat

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	pkgsunat "github.com/jhoicas/facturador-sunat/pkg/sunat"
)

var boletaThreshold = decimal.RequireFromString(pkgsunat.BoletaIdentificationThreshold)

// ValidateDocument valida el comprobante antes de numerarlo. Devuelve los errores agrupados
// con errors.Join; cada uno es un *domain.ValidationError.
// Debe invocarse después de ApplyTo para que la regla de boletas vea el total.
func ValidateDocument(doc *entity.Document) error {
	if doc == nil {
		return domain.NewValidationError("document", "comprobante nulo")
	}
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, domain.NewValidationError(field, format, args...))
	}

	if !pkgsunat.ValidDocumentTypes[doc.TypeCode] {
		add("tipo", "tipo de comprobante no soportado: %q", doc.TypeCode)
	}
	if len(doc.Series) != 4 {
		add("serie", "la serie debe tener 4 caracteres: %q", doc.Series)
	}
	if _, err := currency.ParseISO(doc.Currency); err != nil {
		add("moneda", "moneda inválida: %q", doc.Currency)
	}
	if doc.IssueDate.IsZero() {
		add("fecha_emision", "fecha de emisión requerida")
	}

	// Adquiriente
	c := doc.Customer
	if c.DocType != "" && !pkgsunat.ValidIdentityTypes[c.DocType] {
		add("cliente.tipo_doc", "tipo de documento de identidad inválido: %q", c.DocType)
	}
	if c.DocType == pkgsunat.IdentityRUC {
		if err := pkgsunat.ValidateRUC(c.DocNumber); err != nil {
			add("cliente.num_doc", "%v", err)
		}
	}
	switch doc.TypeCode {
	case pkgsunat.DocTypeFactura:
		if c.DocType != pkgsunat.IdentityRUC {
			add("cliente.tipo_doc", "la factura requiere un adquiriente con RUC")
		}
	case pkgsunat.DocTypeBoleta:
		if doc.Total.GreaterThan(boletaThreshold) && (c.DocNumber == "" || c.DocType == "" || c.DocType == "-") {
			add("cliente.num_doc", "boleta mayor a S/ %s requiere identificar al adquiriente", pkgsunat.BoletaIdentificationThreshold)
		}
	}
	if c.Name == "" && doc.TypeCode != pkgsunat.DocTypeBoleta {
		add("cliente.nombre", "razón social o nombre del adquiriente requerido")
	}

	// Notas
	if pkgsunat.IsNote(doc.TypeCode) {
		if doc.Reference == nil || doc.Reference.Series == "" || doc.Reference.Number <= 0 {
			add("referencia", "la nota requiere el comprobante de referencia")
		} else if doc.Reference.TypeCode != pkgsunat.DocTypeFactura && doc.Reference.TypeCode != pkgsunat.DocTypeBoleta {
			add("referencia.tipo", "solo se puede referenciar una factura o boleta: %q", doc.Reference.TypeCode)
		}
		if !pkgsunat.ValidNoteReason(doc.TypeCode, doc.NoteReason) {
			add("motivo", "código de motivo inválido para el tipo %s: %q", doc.TypeCode, doc.NoteReason)
		}
	}

	// Líneas
	if len(doc.Lines) == 0 {
		add("items", "el comprobante debe tener al menos una línea")
	}
	for i, l := range doc.Lines {
		if l == nil {
			add("items", "línea %d nula", i+1)
			continue
		}
		if !l.Quantity.IsPositive() {
			add("items.cantidad", "línea %d: la cantidad debe ser mayor a cero", i+1)
		}
		if l.UnitPrice.IsNegative() {
			add("items.valor_unitario", "línea %d: valor unitario negativo", i+1)
		}
		if !pkgsunat.ValidAffectationCodes[l.Affectation] {
			add("items.afectacion", "línea %d: código de afectación inválido %q", i+1, l.Affectation)
		}
		if l.Description == "" {
			add("items.descripcion", "línea %d: descripción requerida", i+1)
		}
	}

	// Forma de pago
	switch doc.PaymentTerms.Form {
	case "", pkgsunat.PaymentFormCash:
	case pkgsunat.PaymentFormCredit:
		if len(doc.PaymentTerms.Installments) == 0 {
			add("forma_pago", "una venta al crédito requiere al menos una cuota")
		}
		for i, inst := range doc.PaymentTerms.Installments {
			if !inst.Amount.IsPositive() {
				add("cuotas", "cuota %d: el monto debe ser mayor a cero", i+1)
			}
			if !inst.DueDate.IsZero() && !doc.IssueDate.IsZero() && inst.DueDate.Before(truncateDay(doc.IssueDate)) {
				add("cuotas", "cuota %d: vencimiento anterior a la emisión", i+1)
			}
		}
	default:
		add("forma_pago", "forma de pago inválida: %q", doc.PaymentTerms.Form)
	}

	return errors.Join(errs...)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
