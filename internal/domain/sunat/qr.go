package sunat

import (
	"strconv"
	"strings"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	pkgsunat "github.com/jhoicas/facturador-sunat/pkg/sunat"
)

// QRPayload cadena del código QR impreso en la representación del comprobante:
// RUC|TIPO|SERIE|NUMERO|IGV|TOTAL|FECHA|TIPODOCCLI|NUMDOCCLI|HASH|
func QRPayload(ruc string, doc *entity.Document) string {
	fields := []string{
		ruc,
		doc.TypeCode,
		doc.Series,
		strconv.FormatInt(doc.Number, 10),
		doc.TaxAmount.StringFixed(2),
		doc.Total.StringFixed(2),
		doc.IssueDate.Format("2006-01-02"),
		doc.Customer.DocType,
		doc.Customer.DocNumber,
		doc.Hash,
	}
	return strings.Join(fields, "|") + "|"
}

// SeriesFor serie a usar cuando la petición no la indica.
func SeriesFor(doc *entity.Document) string {
	ref := ""
	if doc.Reference != nil {
		ref = doc.Reference.TypeCode
	}
	return pkgsunat.DefaultSeries(doc.TypeCode, ref)
}
