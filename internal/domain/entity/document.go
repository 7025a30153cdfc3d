package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un comprobante frente a SUNAT.
const (
	StatusPending                  = "pending"                    // Registrado y encolado
	StatusGenerating               = "generating"                 // Construyendo XML UBL
	StatusSigning                  = "signing"                    // Firmando con el certificado del emisor
	StatusSubmitting               = "submitting"                 // Enviado a billService, esperando CDR
	StatusAccepted                 = "accepted"                   // CDR código 0
	StatusAcceptedWithObservations = "accepted_with_observations" // CDR código 2xxx
	StatusRejected                 = "rejected"                   // Rechazo SUNAT o fallo de generación/firma
	StatusError                    = "error"                      // Fallo de red agotado o proceso colgado
)

// IsTerminal indica si el estado ya no avanza por sí solo.
func IsTerminal(status string) bool {
	switch status {
	case StatusAccepted, StatusAcceptedWithObservations, StatusRejected, StatusError:
		return true
	}
	return false
}

// IsAccepted aceptado por SUNAT, con o sin observaciones. Nunca vuelve a enviarse.
func IsAccepted(status string) bool {
	return status == StatusAccepted || status == StatusAcceptedWithObservations
}

// InFlight estados intermedios del pipeline; el barrido los reclasifica si se quedan colgados.
var InFlight = []string{StatusGenerating, StatusSigning, StatusSubmitting}

// CanResubmit solo rechazados o con error pueden reenviarse; nunca un aceptado.
func CanResubmit(status string) bool {
	return status == StatusRejected || status == StatusError
}

// Address dirección fiscal. Los campos vacíos no se emiten en el XML.
type Address struct {
	Ubigeo          string // Código de ubigeo INEI (6 dígitos)
	Street          string // Dirección (AddressLine/Line)
	CitySubdivision string // Urbanización
	Province        string // CityName
	Department      string // CountrySubentity
	District        string
	CountryCode     string // ISO 3166-1 alfa-2; PE por defecto
}

// IsEmpty verdadero si no hay ningún dato de dirección.
func (a Address) IsEmpty() bool {
	return a.Ubigeo == "" && a.Street == "" && a.CitySubdivision == "" &&
		a.Province == "" && a.Department == "" && a.District == ""
}

// Customer adquiriente o usuario del comprobante.
type Customer struct {
	DocType   string // Catálogo 06
	DocNumber string
	Name      string
	Address   Address
}

// DocumentReference comprobante afectado por una nota de crédito/débito.
type DocumentReference struct {
	TypeCode string // 01 o 03
	Series   string
	Number   int64
}

// ID serie-número del documento referenciado (F001-123).
func (r DocumentReference) ID() string {
	return fmt.Sprintf("%s-%d", r.Series, r.Number)
}

// Installment cuota de una venta al crédito.
type Installment struct {
	Amount  decimal.Decimal
	DueDate time.Time
}

// PaymentTerms forma de pago (Contado o Credito) con sus cuotas.
type PaymentTerms struct {
	Form         string
	Installments []Installment
}

// Document comprobante electrónico: factura, boleta, nota de crédito o nota de débito.
type Document struct {
	ID            string
	IssuerID      string
	TypeCode      string // Catálogo 01
	Series        string
	Number        int64
	IssueDate     time.Time
	Currency      string
	OperationType string // Catálogo 51
	Customer      Customer
	PaymentTerms  PaymentTerms
	Lines         []*LineItem

	// Solo notas
	Reference  *DocumentReference
	NoteReason string // Catálogo 09/10

	// Totales (copia desnormalizada; se recalculan desde las líneas)
	TaxedAmount      decimal.Decimal
	ExemptAmount     decimal.Decimal
	UnaffectedAmount decimal.Decimal
	ExportAmount     decimal.Decimal
	TaxAmount        decimal.Decimal
	Subtotal         decimal.Decimal
	Total            decimal.Decimal

	Status          string
	UnsignedXML     []byte
	SignedXML       []byte
	Hash            string // DigestValue de la firma (valor resumen)
	QRData          string
	Attempts        int
	LastAttemptAt   *time.Time
	ProcessingSince *time.Time
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullNumber serie-número, por ejemplo F001-15.
func (d *Document) FullNumber() string {
	return fmt.Sprintf("%s-%d", d.Series, d.Number)
}
