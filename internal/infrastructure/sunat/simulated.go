package sunat

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SimulatedSender responde como SUNAT con un CDR de aceptación (código 0) sin tocar la red.
// Se usa en modo prueba y en desarrollo local.
type SimulatedSender struct {
	Now func() time.Time
}

// NewSimulatedSender crea el emisor simulado.
func NewSimulatedSender() *SimulatedSender {
	return &SimulatedSender{Now: time.Now}
}

// SendBill devuelve un StructuredEnvelope con un CDR zip R-{archivo}.xml.
func (s *SimulatedSender) SendBill(_ context.Context, req SendRequest) (RawResponse, error) {
	base := strings.TrimSuffix(req.FileName, ".zip")
	now := s.Now().In(peruZone)
	cdr := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>`+
		`<ar:ApplicationResponse xmlns:ar="urn:oasis:names:specification:ubl:schema:xsd:ApplicationResponse-2" `+
		`xmlns:cac="%s" xmlns:cbc="%s">`+
		`<cbc:UBLVersionID>2.0</cbc:UBLVersionID>`+
		`<cbc:ID>%d</cbc:ID>`+
		`<cbc:IssueDate>%s</cbc:IssueDate>`+
		`<cbc:IssueTime>%s</cbc:IssueTime>`+
		`<cac:DocumentResponse><cac:Response>`+
		`<cbc:ReferenceID>%s</cbc:ReferenceID>`+
		`<cbc:ResponseCode>0</cbc:ResponseCode>`+
		`<cbc:Description>La Factura numero %s, ha sido aceptada (simulado)</cbc:Description>`+
		`</cac:Response></cac:DocumentResponse>`+
		`</ar:ApplicationResponse>`,
		NsCac, NsCbc, now.UnixMilli(), now.Format("2006-01-02"), now.Format("15:04:05"),
		referenceFromFileName(base), referenceFromFileName(base))

	zipped, err := CompressXMLToZip([]byte(cdr), "R-"+base+".xml")
	if err != nil {
		return nil, err
	}
	return StructuredEnvelope{Payload: zipped}, nil
}

// referenceFromFileName "20000000001-01-F001-15" → "F001-15".
func referenceFromFileName(base string) string {
	parts := strings.SplitN(base, "-", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return base
}

var _ BillSender = (*SimulatedSender)(nil)
