// Servicio de firma digital XMLDSig (enveloped) para comprobantes SUNAT.
// Firma la raíz y reubica <ds:Signature> dentro de ext:ExtensionContent.

package signer

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/pkg/sunat"
)

// DigitalSignatureService implementa pkg/sunat.Signer con goxmldsig.
type DigitalSignatureService struct{}

// NewDigitalSignatureService crea el servicio.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{}
}

// Sign decodifica el PFX, firma el XML y devuelve el documento firmado junto con el DigestValue.
func (s *DigitalSignatureService) Sign(xmlBytes, pfx []byte, password string) ([]byte, string, error) {
	cert, err := LoadPFX(pfx, password)
	if err != nil {
		return nil, "", err
	}
	return s.SignWithCertificate(xmlBytes, cert)
}

// SignWithCertificate firma con un certificado ya cargado.
func (s *DigitalSignatureService) SignWithCertificate(xmlBytes []byte, cert tls.Certificate) ([]byte, string, error) {
	// ═══ 1. Parsear y quitar indentación ═══
	if len(xmlBytes) == 0 {
		return nil, "", &domain.SigningError{Step: StepParse, Err: errors.New("XML vacío")}
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, "", &domain.SigningError{Step: StepParse, Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, "", &domain.SigningError{Step: StepParse, Err: errors.New("documento sin raíz")}
	}
	doc.Unindent()

	// ═══ 2. Ubicar (o crear) el placeholder ═══
	placeholder, err := extensionContent(root)
	if err != nil {
		return nil, "", &domain.SigningError{Step: StepLocate, Err: err}
	}
	signatureID := signatureIDFrom(root)

	// ═══ 3. Firmar la raíz (enveloped, exc-c14n, SHA-256, RSA-SHA256) ═══
	ctx := dsig.NewDefaultSigningContext(dsig.TLSCertKeyStore(cert))
	if err := ctx.SetSignatureMethod(dsig.RSASHA256SignatureMethod); err != nil {
		return nil, "", &domain.SigningError{Step: StepSign, Err: err}
	}
	ctx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	signed, err := ctx.SignEnveloped(root)
	if err != nil {
		return nil, "", &domain.SigningError{Step: StepSign, Err: err}
	}

	// ═══ 4. Mover ds:Signature de la raíz al ExtensionContent ═══
	sig := lastSignatureChild(signed)
	if sig == nil {
		return nil, "", &domain.SigningError{Step: StepRelocate, Err: errors.New("ds:Signature no generada")}
	}
	signed.RemoveChild(sig)
	sig.CreateAttr("Id", signatureID)
	placeholder, err = extensionContent(signed)
	if err != nil {
		return nil, "", &domain.SigningError{Step: StepRelocate, Err: err}
	}
	placeholder.AddChild(sig)

	digest := ""
	if dv := sig.FindElement(".//DigestValue"); dv != nil {
		digest = strings.TrimSpace(dv.Text())
	}
	if digest == "" {
		return nil, "", &domain.SigningError{Step: StepRelocate, Err: errors.New("DigestValue ausente")}
	}

	// ═══ 5. Serializar sin reformatear ═══
	doc.SetRoot(signed)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, "", &domain.SigningError{Step: StepWrite, Err: err}
	}
	return out, digest, nil
}

// extensionContent devuelve el ext:ExtensionContent destinado a la firma.
// Usa el primero vacío; si ext:UBLExtensions no existe lo crea como primer hijo.
func extensionContent(root *etree.Element) (*etree.Element, error) {
	var exts *etree.Element
	for _, c := range root.ChildElements() {
		if c.Tag == "UBLExtensions" {
			exts = c
			break
		}
	}
	if exts == nil {
		exts = etree.NewElement("ext:UBLExtensions")
		if root.SelectAttr("xmlns:ext") == nil {
			exts.CreateAttr("xmlns:ext", NamespaceExt)
		}
		root.InsertChildAt(0, exts)
	}
	var first *etree.Element
	for _, ext := range exts.ChildElements() {
		if ext.Tag != "UBLExtension" {
			continue
		}
		for _, ec := range ext.ChildElements() {
			if ec.Tag != "ExtensionContent" {
				continue
			}
			if first == nil {
				first = ec
			}
			if len(ec.ChildElements()) == 0 {
				return ec, nil
			}
		}
	}
	if first != nil {
		return nil, fmt.Errorf("ext:ExtensionContent ya contiene una firma")
	}
	ext := exts.CreateElement(prefixed(exts, "UBLExtension"))
	return ext.CreateElement(prefixed(exts, "ExtensionContent")), nil
}

func prefixed(ref *etree.Element, tag string) string {
	if ref.Space == "" {
		return tag
	}
	return ref.Space + ":" + tag
}

// signatureIDFrom toma el Id desde cac:Signature/.../ExternalReference/cbc:URI (#RUC-SIGN).
func signatureIDFrom(root *etree.Element) string {
	for _, c := range root.ChildElements() {
		if c.Tag != "Signature" || c.Space == "ds" {
			continue
		}
		if uri := c.FindElement("./DigitalSignatureAttachment/ExternalReference/URI"); uri != nil {
			if id := strings.TrimPrefix(strings.TrimSpace(uri.Text()), "#"); id != "" {
				return id
			}
		}
		if id := c.SelectElement("ID"); id != nil && strings.TrimSpace(id.Text()) != "" {
			return strings.TrimSpace(id.Text()) + "-SIGN"
		}
	}
	return DefaultSignatureID
}

func lastSignatureChild(el *etree.Element) *etree.Element {
	children := el.ChildElements()
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		if c.Tag == "Signature" && c.NamespaceURI() == NamespaceDS {
			return c
		}
	}
	return nil
}

var _ sunat.Signer = (*DigitalSignatureService)(nil)
