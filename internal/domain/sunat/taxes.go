// Package sunat contiene las reglas de dominio de comprobantes electrónicos SUNAT:
// cálculo de tributos, validación del comprobante y datos del código QR.
package sunat

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	pkgsunat "github.com/jhoicas/facturador-sunat/pkg/sunat"
)

var igvRate = decimal.RequireFromString(pkgsunat.IGVRate)

// Totals desglose tributario del comprobante.
type Totals struct {
	Taxed      decimal.Decimal // Op. gravadas (10)
	Exempt     decimal.Decimal // Op. exoneradas (20)
	Unaffected decimal.Decimal // Op. inafectas (30)
	Export     decimal.Decimal // Exportación (40)
	Tax        decimal.Decimal // IGV
	Subtotal   decimal.Decimal // Suma de los cuatro grupos
	Total      decimal.Decimal // Subtotal + IGV
}

// LineAmount valor de venta de la línea: round(cantidad × valor unitario, 2).
func LineAmount(l *entity.LineItem) decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Round(2)
}

// LineTax IGV de la línea: 18 % del valor de venta solo si es gravada.
func LineTax(l *entity.LineItem) decimal.Decimal {
	if l.Affectation != pkgsunat.AffectationTaxed {
		return decimal.Zero
	}
	return LineAmount(l).Mul(igvRate).Round(2)
}

// PriceWithTax precio unitario de referencia con IGV (catálogo 16, tipo 01).
func PriceWithTax(l *entity.LineItem) decimal.Decimal {
	if l.Affectation != pkgsunat.AffectationTaxed {
		return l.UnitPrice
	}
	return l.UnitPrice.Add(l.UnitPrice.Mul(igvRate).Round(2))
}

// ComputeTotals agrupa las líneas por afectación y calcula el IGV sobre el total gravado.
// Función pura: las mismas líneas producen siempre los mismos totales; una lista vacía da ceros.
func ComputeTotals(lines []*entity.LineItem) Totals {
	t := Totals{
		Taxed:      decimal.Zero,
		Exempt:     decimal.Zero,
		Unaffected: decimal.Zero,
		Export:     decimal.Zero,
	}
	for _, l := range lines {
		if l == nil {
			continue
		}
		amount := LineAmount(l)
		switch l.Affectation {
		case pkgsunat.AffectationTaxed:
			t.Taxed = t.Taxed.Add(amount)
		case pkgsunat.AffectationExempt:
			t.Exempt = t.Exempt.Add(amount)
		case pkgsunat.AffectationUnaffected:
			t.Unaffected = t.Unaffected.Add(amount)
		case pkgsunat.AffectationExport:
			t.Export = t.Export.Add(amount)
		}
	}
	t.Tax = t.Taxed.Mul(igvRate).Round(2)
	t.Subtotal = t.Taxed.Add(t.Exempt).Add(t.Unaffected).Add(t.Export)
	t.Total = t.Subtotal.Add(t.Tax)
	return t
}

// ActiveCategories afectaciones presentes en las líneas, en orden de catálogo.
func ActiveCategories(lines []*entity.LineItem) []string {
	seen := map[string]bool{}
	for _, l := range lines {
		if l != nil {
			seen[l.Affectation] = true
		}
	}
	var out []string
	for _, code := range []string{
		pkgsunat.AffectationTaxed, pkgsunat.AffectationExempt,
		pkgsunat.AffectationUnaffected, pkgsunat.AffectationExport,
	} {
		if seen[code] {
			out = append(out, code)
		}
	}
	return out
}

// BaseFor base imponible del grupo de afectación indicado.
func (t Totals) BaseFor(affectation string) decimal.Decimal {
	switch affectation {
	case pkgsunat.AffectationTaxed:
		return t.Taxed
	case pkgsunat.AffectationExempt:
		return t.Exempt
	case pkgsunat.AffectationUnaffected:
		return t.Unaffected
	case pkgsunat.AffectationExport:
		return t.Export
	}
	return decimal.Zero
}

// ApplyTo copia los totales al comprobante.
func (t Totals) ApplyTo(doc *entity.Document) {
	doc.TaxedAmount = t.Taxed
	doc.ExemptAmount = t.Exempt
	doc.UnaffectedAmount = t.Unaffected
	doc.ExportAmount = t.Export
	doc.TaxAmount = t.Tax
	doc.Subtotal = t.Subtotal
	doc.Total = t.Total
}
