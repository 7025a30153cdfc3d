// Package sunat implementa la generación de XML UBL 2.1, el envío a billService
// y la lectura del CDR para comprobantes electrónicos SUNAT (Perú).
package sunat

import (
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
)

// BuildContext contexto con todos los datos necesarios para construir el XML del comprobante.
type BuildContext struct {
	Document *entity.Document
	Issuer   *entity.Issuer // Emisor (AccountingSupplierParty)
}

// RawResponse respuesta normalizada de sendBill. Solo dos variantes:
// StructuredEnvelope (hubo applicationResponse) o RawBytes (cualquier otro cuerpo).
type RawResponse interface {
	// Bytes devuelve el contenido útil de la respuesta (CDR zip o cuerpo crudo).
	Bytes() []byte
	isRawResponse()
}

// StructuredEnvelope applicationResponse ya decodificado desde base64 (zip del CDR).
type StructuredEnvelope struct {
	Payload []byte
}

func (r StructuredEnvelope) Bytes() []byte { return r.Payload }
func (StructuredEnvelope) isRawResponse()  {}

// RawBytes cuerpo de respuesta sin applicationResponse.
type RawBytes struct {
	Body []byte
}

func (r RawBytes) Bytes() []byte { return r.Body }
func (RawBytes) isRawResponse()  {}

// Connection endpoint resuelto desde el WSDL de billService.
type Connection struct {
	WSDLURL  string
	Endpoint string
}
