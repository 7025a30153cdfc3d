package sunat

// Signer firma un XML UBL y devuelve el XML con ds:Signature dentro de ext:ExtensionContent.
type Signer interface {
	// Sign recibe el XML sin firma, el PFX (PKCS#12) y su contraseña.
	// Devuelve el XML firmado y el DigestValue (valor resumen) del documento.
	Sign(xmlBytes, pfx []byte, password string) (signed []byte, digest string, err error)
}
