package signer

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/jhoicas/facturador-sunat/internal/domain"
)

// StepVerify paso reportado cuando la firma no valida.
const StepVerify = "verify"

// Verification resultado de verificar un comprobante firmado.
type Verification struct {
	SignatureID  string
	Digest       string
	Subject      string
	SerialNumber string
	NotBefore    time.Time
	NotAfter     time.Time
}

// Verify valida la firma enveloped contra el certificado que trae el propio KeyInfo.
// Comprueba integridad, no la cadena de confianza; la vigencia queda en NotBefore/NotAfter.
func Verify(signed []byte) (*Verification, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signed); err != nil {
		return nil, &domain.SigningError{Step: StepParse, Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &domain.SigningError{Step: StepParse, Err: errors.New("documento sin raíz")}
	}

	var sig *etree.Element
	for _, el := range root.FindElements(".//Signature") {
		if el.NamespaceURI() == NamespaceDS {
			sig = el
			break
		}
	}
	if sig == nil {
		return nil, &domain.SigningError{Step: StepVerify, Err: errors.New("ds:Signature no encontrada")}
	}
	certEl := sig.FindElement(".//X509Certificate")
	if certEl == nil {
		return nil, &domain.SigningError{Step: StepVerify, Err: errors.New("KeyInfo sin X509Certificate")}
	}
	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(certEl.Text()), ""))
	if err != nil {
		return nil, &domain.SigningError{Step: StepVerify, Err: err}
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &domain.SigningError{Step: StepVerify, Err: err}
	}

	vctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{Roots: []*x509.Certificate{cert}})
	// La vigencia no bloquea la verificación de integridad.
	vctx.Clock = dsig.NewFakeClockAt(cert.NotBefore.Add(time.Second))
	if _, err := vctx.Validate(root); err != nil {
		return nil, &domain.SigningError{Step: StepVerify, Err: err}
	}

	out := &Verification{
		SignatureID:  sig.SelectAttrValue("Id", ""),
		Subject:      cert.Subject.String(),
		SerialNumber: cert.SerialNumber.String(),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
	}
	if dv := sig.FindElement(".//DigestValue"); dv != nil {
		out.Digest = strings.TrimSpace(dv.Text())
	}
	return out, nil
}
