// Constantes de firma XMLDSig enveloped para comprobantes SUNAT.

package signer

// Namespaces y algoritmos XMLDSig.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceExt       = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	AlgExcC14N         = "http://www.w3.org/2001/10/xml-exc-c14n#"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// DefaultSignatureID Id de ds:Signature cuando el XML no trae cac:Signature.
const DefaultSignatureID = "SignatureSP"

// Pasos reportados en SigningError.
const (
	StepParse    = "parse"
	StepLocate   = "locate_extension"
	StepSign     = "sign"
	StepRelocate = "relocate"
	StepWrite    = "serialize"
)
