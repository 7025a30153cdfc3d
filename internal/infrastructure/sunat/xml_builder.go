package sunat

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	domsunat "github.com/jhoicas/facturador-sunat/internal/domain/sunat"
	"github.com/jhoicas/facturador-sunat/pkg/sunat"
)

// Namespaces oficiales UBL 2.1 usados por SUNAT.
const (
	NsInvoice    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
	NsDebitNote  = "urn:oasis:names:specification:ubl:schema:xsd:DebitNote-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
)

// peruZone hora oficial del Perú (UTC-5, sin horario de verano).
var peruZone = time.FixedZone("PET", -5*60*60)

// docLayout variaciones de estructura por tipo de comprobante.
type docLayout struct {
	root          string
	namespace     string
	lineTag       string
	quantityTag   string
	monetaryTotal string
}

func layoutFor(typeCode string) (docLayout, error) {
	switch typeCode {
	case sunat.DocTypeFactura, sunat.DocTypeBoleta:
		return docLayout{"Invoice", NsInvoice, "InvoiceLine", "InvoicedQuantity", "LegalMonetaryTotal"}, nil
	case sunat.DocTypeCreditNote:
		return docLayout{"CreditNote", NsCreditNote, "CreditNoteLine", "CreditedQuantity", "LegalMonetaryTotal"}, nil
	case sunat.DocTypeDebitNote:
		return docLayout{"DebitNote", NsDebitNote, "DebitNoteLine", "DebitedQuantity", "RequestedMonetaryTotal"}, nil
	}
	return docLayout{}, domain.NewValidationError("tipo", "tipo de comprobante no soportado: %q", typeCode)
}

// XMLBuilderService construye el XML UBL 2.1 del comprobante (sin firma).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del comprobante según UBL 2.1 / Customization 2.0 de SUNAT.
// La salida lleva declaración XML y no se indenta; ext:ExtensionContent queda vacío para la firma.
func (s *XMLBuilderService) Build(ctx *BuildContext) ([]byte, error) {
	if ctx == nil || ctx.Document == nil || ctx.Issuer == nil {
		return nil, fmt.Errorf("sunat: faltan document o issuer en el contexto")
	}
	doc := ctx.Document
	layout, err := layoutFor(doc.TypeCode)
	if err != nil {
		return nil, err
	}
	note := sunat.IsNote(doc.TypeCode)
	if note && doc.Reference == nil {
		return nil, domain.NewValidationError("referencia", "la nota requiere el comprobante de referencia")
	}
	currency := doc.Currency
	if currency == "" {
		currency = "PEN"
	}
	totals := domsunat.ComputeTotals(doc.Lines)

	xdoc := etree.NewDocument()
	xdoc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := xdoc.CreateElement(layout.root)
	root.CreateAttr("xmlns", layout.namespace)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ds", NsDs)
	root.CreateAttr("xmlns:ext", NsExt)

	// ---- CRÍTICO: ext:UBLExtensions siempre como primer hijo (el firmador inyecta aquí)
	writeUBLExtensions(root)

	issued := doc.IssueDate.In(peruZone)
	writeCbc(root, "UBLVersionID", "2.1")
	writeCbc(root, "CustomizationID", "2.0")
	writeCbc(root, "ID", doc.FullNumber())
	writeCbc(root, "IssueDate", issued.Format("2006-01-02"))
	writeCbc(root, "IssueTime", issued.Format("15:04:05"))

	if !note {
		opType := doc.OperationType
		if opType == "" {
			opType = sunat.OperationInternalSale
		}
		writeCbcWithAttr(root, "InvoiceTypeCode", doc.TypeCode,
			"listID", opType,
			"listAgencyName", sunat.AgencySUNAT,
			"listName", "Tipo de Documento",
			"listURI", sunat.CatalogURI("01"))
	}

	words, err := sunat.AmountInWords(totals.Total, currency)
	if err != nil {
		return nil, domain.NewValidationError("moneda", "%v", err)
	}
	writeCbcWithAttr(root, "Note", words, "languageLocaleID", sunat.LegendAmountInWords)
	writeCbc(root, "DocumentCurrencyCode", currency)

	if note {
		writeNoteReferences(root, doc)
	}

	writeSignatureReference(root, ctx.Issuer)
	writeSupplierParty(root, ctx.Issuer)
	writeCustomerParty(root, doc.Customer)
	writePaymentTerms(root, doc, totals, currency)
	writeTaxTotal(root, doc.Lines, totals, currency)

	// ---- Totales
	mt := root.CreateElement("cac:" + layout.monetaryTotal)
	writeCbcAmount(mt, "LineExtensionAmount", totals.Subtotal, currency)
	writeCbcAmount(mt, "TaxInclusiveAmount", totals.Total, currency)
	writeCbcAmount(mt, "PayableAmount", totals.Total, currency)

	for i, l := range doc.Lines {
		writeLine(root, layout, i+1, l, currency)
	}

	out, err := xdoc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("sunat: serializar XML: %w", err)
	}
	return out, nil
}

func writeUBLExtensions(root *etree.Element) {
	exts := root.CreateElement("ext:UBLExtensions")
	ext := exts.CreateElement("ext:UBLExtension")
	ext.CreateElement("ext:ExtensionContent")
}

// writeNoteReferences motivo de la nota y comprobante que modifica.
func writeNoteReferences(root *etree.Element, doc *entity.Document) {
	refID := doc.Reference.ID()
	dr := root.CreateElement("cac:DiscrepancyResponse")
	writeCbc(dr, "ReferenceID", refID)
	writeCbc(dr, "ResponseCode", doc.NoteReason)
	writeCbc(dr, "Description", sunat.NoteReasonDescription(doc.TypeCode, doc.NoteReason))

	br := root.CreateElement("cac:BillingReference")
	idr := br.CreateElement("cac:InvoiceDocumentReference")
	writeCbc(idr, "ID", refID)
	writeCbcWithAttr(idr, "DocumentTypeCode", doc.Reference.TypeCode,
		"listName", "Tipo de Documento",
		"listURI", sunat.CatalogURI("01"))
}

// writeSignatureReference bloque cac:Signature; su URI coincide con el Id de ds:Signature.
func writeSignatureReference(root *etree.Element, issuer *entity.Issuer) {
	sig := root.CreateElement("cac:Signature")
	writeCbc(sig, "ID", issuer.RUC)
	party := sig.CreateElement("cac:SignatoryParty")
	writeCbc(party.CreateElement("cac:PartyIdentification"), "ID", issuer.RUC)
	writeCbc(party.CreateElement("cac:PartyName"), "Name", issuer.LegalName)
	ref := sig.CreateElement("cac:DigitalSignatureAttachment").CreateElement("cac:ExternalReference")
	writeCbc(ref, "URI", "#"+SignatureID(issuer.RUC))
}

// SignatureID Id de ds:Signature referenciado desde cac:Signature.
func SignatureID(ruc string) string {
	return ruc + "-SIGN"
}

func writeSupplierParty(root *etree.Element, issuer *entity.Issuer) {
	party := root.CreateElement("cac:AccountingSupplierParty").CreateElement("cac:Party")
	writePartyIdentification(party, sunat.IdentityRUC, issuer.RUC)

	name := issuer.TradeName
	if name == "" {
		name = issuer.LegalName
	}
	writeCbc(party.CreateElement("cac:PartyName"), "Name", name)

	ple := party.CreateElement("cac:PartyLegalEntity")
	writeCbc(ple, "RegistrationName", issuer.LegalName)
	writeAddress(ple, issuer.Address, true)
}

func writeCustomerParty(root *etree.Element, c entity.Customer) {
	party := root.CreateElement("cac:AccountingCustomerParty").CreateElement("cac:Party")
	docType := c.DocType
	docNumber := c.DocNumber
	if docType == "" {
		// Boleta a consumidor final sin identificar
		docType, docNumber = sunat.IdentityNoDomiciled, "-"
	}
	writePartyIdentification(party, docType, docNumber)

	name := c.Name
	if name == "" {
		name = "-"
	}
	ple := party.CreateElement("cac:PartyLegalEntity")
	writeCbc(ple, "RegistrationName", name)
	writeAddress(ple, c.Address, false)
}

func writePartyIdentification(party *etree.Element, docType, number string) {
	writeCbcWithAttr(party.CreateElement("cac:PartyIdentification"), "ID", number,
		"schemeID", docType,
		"schemeName", sunat.IdentitySchemeName,
		"schemeAgencyName", sunat.AgencySUNAT,
		"schemeURI", sunat.CatalogURI("06"))
}

// writeAddress cac:RegistrationAddress. Nunca emite elementos vacíos; si la dirección
// no tiene datos no se escribe nada. El emisor además lleva AddressTypeCode 0000 (domicilio fiscal).
func writeAddress(parent *etree.Element, a entity.Address, fiscal bool) {
	if a.IsEmpty() {
		return
	}
	addr := parent.CreateElement("cac:RegistrationAddress")
	writeCbcIfNotEmpty(addr, "ID", a.Ubigeo)
	if fiscal {
		writeCbc(addr, "AddressTypeCode", "0000")
	}
	writeCbcIfNotEmpty(addr, "CitySubdivisionName", a.CitySubdivision)
	writeCbcIfNotEmpty(addr, "CityName", a.Province)
	writeCbcIfNotEmpty(addr, "CountrySubentity", a.Department)
	writeCbcIfNotEmpty(addr, "District", a.District)
	if a.Street != "" {
		writeCbc(addr.CreateElement("cac:AddressLine"), "Line", a.Street)
	}
	country := a.CountryCode
	if country == "" {
		country = "PE"
	}
	writeCbc(addr.CreateElement("cac:Country"), "IdentificationCode", country)
}

// writePaymentTerms forma de pago (obligatoria desde la RS 193-2020), también en notas de débito.
func writePaymentTerms(root *etree.Element, doc *entity.Document, totals domsunat.Totals, currency string) {
	terms := doc.PaymentTerms
	if terms.Form != sunat.PaymentFormCredit {
		pt := root.CreateElement("cac:PaymentTerms")
		writeCbc(pt, "ID", "FormaPago")
		writeCbc(pt, "PaymentMeansID", sunat.PaymentFormCash)
		return
	}
	pt := root.CreateElement("cac:PaymentTerms")
	writeCbc(pt, "ID", "FormaPago")
	writeCbc(pt, "PaymentMeansID", sunat.PaymentFormCredit)
	pending := decimal.Zero
	for _, inst := range terms.Installments {
		pending = pending.Add(inst.Amount)
	}
	if pending.IsZero() {
		pending = totals.Total
	}
	writeCbcAmount(pt, "Amount", pending, currency)

	for i, inst := range terms.Installments {
		cuota := root.CreateElement("cac:PaymentTerms")
		writeCbc(cuota, "ID", "FormaPago")
		writeCbc(cuota, "PaymentMeansID", fmt.Sprintf("Cuota%03d", i+1))
		writeCbcAmount(cuota, "Amount", inst.Amount, currency)
		if !inst.DueDate.IsZero() {
			writeCbc(cuota, "PaymentDueDate", inst.DueDate.Format("2006-01-02"))
		}
	}
}

// writeTaxTotal cac:TaxTotal con un TaxSubtotal por cada afectación presente en las líneas.
func writeTaxTotal(root *etree.Element, lines []*entity.LineItem, totals domsunat.Totals, currency string) {
	tt := root.CreateElement("cac:TaxTotal")
	writeCbcAmount(tt, "TaxAmount", totals.Tax, currency)
	for _, code := range domsunat.ActiveCategories(lines) {
		tax := decimal.Zero
		if code == sunat.AffectationTaxed {
			tax = totals.Tax
		}
		scheme := sunat.SchemeForAffectation(code)
		ts := tt.CreateElement("cac:TaxSubtotal")
		writeCbcAmount(ts, "TaxableAmount", totals.BaseFor(code), currency)
		writeCbcAmount(ts, "TaxAmount", tax, currency)
		tc := ts.CreateElement("cac:TaxCategory")
		writeCbc(tc, "ID", scheme.ID)
		writeCbc(tc, "Percent", percentFor(code))
		writeTaxScheme(tc, scheme)
	}
}

func writeTaxScheme(parent *etree.Element, scheme sunat.TaxScheme) {
	el := parent.CreateElement("cac:TaxScheme")
	writeCbc(el, "ID", scheme.ID)
	writeCbc(el, "Name", scheme.Name)
	writeCbc(el, "TaxTypeCode", scheme.TypeCode)
}

func percentFor(affectation string) string {
	if affectation == sunat.AffectationTaxed {
		return sunat.IGVPercent
	}
	return "0.00"
}

func writeLine(root *etree.Element, layout docLayout, position int, l *entity.LineItem, currency string) {
	amount := domsunat.LineAmount(l)
	tax := domsunat.LineTax(l)
	unit := l.UnitCode
	if unit == "" {
		unit = sunat.UnitProduct
	}

	line := root.CreateElement("cac:" + layout.lineTag)
	writeCbc(line, "ID", strconv.Itoa(position))
	writeCbcWithAttr(line, layout.quantityTag, formatQuantity(l.Quantity),
		"unitCode", unit,
		"unitCodeListID", sunat.UNECEListID,
		"unitCodeListAgencyName", sunat.UNECEAgency)
	writeCbcAmount(line, "LineExtensionAmount", amount, currency)

	// Precio unitario con IGV (catálogo 16)
	alt := line.CreateElement("cac:PricingReference").CreateElement("cac:AlternativeConditionPrice")
	writeCbcAmount(alt, "PriceAmount", domsunat.PriceWithTax(l), currency)
	writeCbcWithAttr(alt, "PriceTypeCode", sunat.PriceTypeWithTax,
		"listName", "Tipo de Precio",
		"listAgencyName", sunat.AgencySUNAT,
		"listURI", sunat.CatalogURI("16"))

	tt := line.CreateElement("cac:TaxTotal")
	writeCbcAmount(tt, "TaxAmount", tax, currency)
	ts := tt.CreateElement("cac:TaxSubtotal")
	writeCbcAmount(ts, "TaxableAmount", amount, currency)
	writeCbcAmount(ts, "TaxAmount", tax, currency)
	tc := ts.CreateElement("cac:TaxCategory")
	writeCbc(tc, "ID", l.Affectation)
	writeCbc(tc, "Percent", percentFor(l.Affectation))
	writeCbcWithAttr(tc, "TaxExemptionReasonCode", l.Affectation,
		"listAgencyName", sunat.AgencySUNAT,
		"listName", "Tipo de Afectación del IGV",
		"listURI", sunat.CatalogURI("07"))
	writeTaxScheme(tc, sunat.SchemeForAffectation(l.Affectation))

	writeCbc(line.CreateElement("cac:Item"), "Description", l.Description)
	writeCbcAmount(line.CreateElement("cac:Price"), "PriceAmount", l.UnitPrice, currency)
}

// ---- helpers

func writeCbc(parent *etree.Element, name, value string) *etree.Element {
	el := parent.CreateElement("cbc:" + name)
	el.SetText(value)
	return el
}

func writeCbcIfNotEmpty(parent *etree.Element, name, value string) {
	if value != "" {
		writeCbc(parent, name, value)
	}
}

// writeCbcWithAttr attrs en pares nombre, valor.
func writeCbcWithAttr(parent *etree.Element, name, value string, attrs ...string) {
	el := writeCbc(parent, name, value)
	for i := 0; i+1 < len(attrs); i += 2 {
		el.CreateAttr(attrs[i], attrs[i+1])
	}
}

func writeCbcAmount(parent *etree.Element, name string, amount decimal.Decimal, currency string) {
	writeCbcWithAttr(parent, name, formatDecimal(amount), "currencyID", currency)
}

func formatDecimal(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// formatQuantity al menos 2 decimales, hasta 10 si la cantidad los tiene.
func formatQuantity(d decimal.Decimal) string {
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	places := -d.Exponent()
	if places > 10 {
		places = 10
	}
	return d.StringFixed(places)
}
