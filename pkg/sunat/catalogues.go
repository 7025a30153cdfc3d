// Package sunat contiene catálogos y reglas alineados a la especificación UBL 2.1
// de comprobantes electrónicos SUNAT (Perú).
package sunat

// =============================================================================
// Catálogo 01 - Tipo de documento
// =============================================================================

const (
	DocTypeFactura    = "01"
	DocTypeBoleta     = "03"
	DocTypeCreditNote = "07"
	DocTypeDebitNote  = "08"
)

// ValidDocumentTypes tipos de comprobante soportados por el emisor.
var ValidDocumentTypes = map[string]bool{
	DocTypeFactura:    true,
	DocTypeBoleta:     true,
	DocTypeCreditNote: true,
	DocTypeDebitNote:  true,
}

// IsNote indica si el tipo corresponde a una nota de crédito o débito.
func IsNote(docType string) bool {
	return docType == DocTypeCreditNote || docType == DocTypeDebitNote
}

// DefaultSeries serie por defecto según tipo de comprobante.
// Las notas que modifican una boleta usan la serie B*, el resto F*.
func DefaultSeries(docType, referencedType string) string {
	switch docType {
	case DocTypeFactura:
		return "F001"
	case DocTypeBoleta:
		return "B001"
	case DocTypeCreditNote:
		if referencedType == DocTypeBoleta {
			return "BC01"
		}
		return "FC01"
	case DocTypeDebitNote:
		if referencedType == DocTypeBoleta {
			return "BD01"
		}
		return "FD01"
	}
	return ""
}

// =============================================================================
// Catálogo 06 - Tipo de documento de identidad
// =============================================================================

const (
	IdentityNoDomiciled = "0" // DOC.TRIB.NO.DOM.SIN.RUC
	IdentityDNI         = "1"
	IdentityCE          = "4" // Carnet de extranjería
	IdentityRUC         = "6"
	IdentityPassport    = "7"
	IdentityCDI         = "A" // Cédula diplomática
)

// ValidIdentityTypes códigos de documento de identidad aceptados.
var ValidIdentityTypes = map[string]bool{
	IdentityNoDomiciled: true,
	IdentityDNI:         true,
	IdentityCE:          true,
	IdentityRUC:         true,
	IdentityPassport:    true,
	IdentityCDI:         true,
}

// =============================================================================
// Catálogo 07 - Tipo de afectación del IGV (subconjunto soportado)
// =============================================================================

const (
	AffectationTaxed      = "10" // Gravado - Operación onerosa
	AffectationExempt     = "20" // Exonerado - Operación onerosa
	AffectationUnaffected = "30" // Inafecto - Operación onerosa
	AffectationExport     = "40" // Exportación
)

// ValidAffectationCodes códigos de afectación aceptados en líneas.
var ValidAffectationCodes = map[string]bool{
	AffectationTaxed:      true,
	AffectationExempt:     true,
	AffectationUnaffected: true,
	AffectationExport:     true,
}

// =============================================================================
// Catálogo 05 - Códigos de tributos
// =============================================================================

// TaxScheme tributo asociado a una afectación (ID, nombre, código internacional).
type TaxScheme struct {
	ID       string
	Name     string
	TypeCode string
}

var (
	TaxSchemeIGV = TaxScheme{ID: "1000", Name: "IGV", TypeCode: "VAT"}
	TaxSchemeEXO = TaxScheme{ID: "9997", Name: "EXO", TypeCode: "VAT"}
	TaxSchemeINA = TaxScheme{ID: "9998", Name: "INA", TypeCode: "FRE"}
	TaxSchemeEXP = TaxScheme{ID: "9995", Name: "EXP", TypeCode: "FRE"}
)

// SchemeForAffectation devuelve el tributo correspondiente a un código del catálogo 07.
func SchemeForAffectation(code string) TaxScheme {
	switch code {
	case AffectationExempt:
		return TaxSchemeEXO
	case AffectationUnaffected:
		return TaxSchemeINA
	case AffectationExport:
		return TaxSchemeEXP
	default:
		return TaxSchemeIGV
	}
}

// =============================================================================
// Catálogo 09 - Motivos de nota de crédito / Catálogo 10 - Motivos de nota de débito
// =============================================================================

var creditNoteReasons = map[string]string{
	"01": "Anulación de la operación",
	"02": "Anulación por error en el RUC",
	"03": "Corrección por error en la descripción",
	"04": "Descuento global",
	"05": "Descuento por ítem",
	"06": "Devolución total",
	"07": "Devolución por ítem",
	"08": "Bonificación",
	"09": "Disminución en el valor",
	"10": "Otros conceptos",
	"11": "Ajustes de operaciones de exportación",
	"12": "Ajustes afectos al IVAP",
	"13": "Corrección del monto neto pendiente de pago y/o la(s) fechas(s) de vencimiento",
}

var debitNoteReasons = map[string]string{
	"01": "Intereses por mora",
	"02": "Aumento en el valor",
	"03": "Penalidades/ otros conceptos",
	"10": "Ajustes de operaciones de exportación",
	"11": "Ajustes afectos al IVAP",
}

// NoteReasonDescription descripción del motivo de la nota; "Otros conceptos" si no existe.
func NoteReasonDescription(docType, code string) string {
	var table map[string]string
	switch docType {
	case DocTypeCreditNote:
		table = creditNoteReasons
	case DocTypeDebitNote:
		table = debitNoteReasons
	}
	if d, ok := table[code]; ok {
		return d
	}
	return "Otros conceptos"
}

// ValidNoteReason indica si el código existe en el catálogo del tipo de nota.
func ValidNoteReason(docType, code string) bool {
	switch docType {
	case DocTypeCreditNote:
		_, ok := creditNoteReasons[code]
		return ok
	case DocTypeDebitNote:
		_, ok := debitNoteReasons[code]
		return ok
	}
	return false
}

// =============================================================================
// Catálogo 51 - Tipo de operación / Catálogo 16 - Tipo de precio / Catálogo 52 - Leyendas
// =============================================================================

const (
	OperationInternalSale = "0101" // Venta interna
	PriceTypeWithTax      = "01"   // Precio unitario (incluye el IGV)
	LegendAmountInWords   = "1000" // Monto en letras
)

// =============================================================================
// Unidades de medida (UN/ECE rec 20)
// =============================================================================

const (
	UnitProduct  = "NIU" // Unidad (bienes)
	UnitService  = "ZZ"  // Unidad (servicios)
	UnitKilogram = "KGM"
	UnitLitre    = "LTR"
	UnitMetre    = "MTR"
	UnitBox      = "BX"
	UnitHour     = "HUR"
)

// =============================================================================
// Forma de pago (PaymentTerms)
// =============================================================================

const (
	PaymentFormCash   = "Contado"
	PaymentFormCredit = "Credito"
)

// URIs y agencias de catálogos usados como atributos en el XML.
const (
	AgencySUNAT        = "PE:SUNAT"
	CatalogURIPrefix   = "urn:pe:gob:sunat:cpe:see:gem:catalogos:catalogo"
	UNECEListID        = "UN/ECE rec 20"
	UNECEAgency        = "United Nations Economic Commission for Europe"
	IdentitySchemeName = "Documento de Identidad"
)

// CatalogURI devuelve el URN del catálogo SUNAT indicado ("01", "06", ...).
func CatalogURI(number string) string {
	return CatalogURIPrefix + number
}

// IGVRate tasa general del IGV (18 %), como texto para evitar imprecisión binaria.
const IGVRate = "0.18"

// IGVPercent porcentaje para cbc:Percent.
const IGVPercent = "18.00"

// BoletaIdentificationThreshold monto a partir del cual la boleta exige identificar al adquiriente.
const BoletaIdentificationThreshold = "700.00"
