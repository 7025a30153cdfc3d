// Carga del certificado digital del emisor desde PFX (PKCS#12).

package signer

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/facturador-sunat/internal/domain"
)

// LoadPFX decodifica el bundle PFX con su contraseña.
// Una contraseña incorrecta o un archivo corrupto devuelven *domain.CertificateError.
func LoadPFX(pfx []byte, password string) (tls.Certificate, error) {
	if len(pfx) == 0 {
		return tls.Certificate{}, &domain.CertificateError{Reason: "PFX vacío"}
	}
	priv, cert, err := pkcs12.Decode(pfx, password)
	if err == nil {
		return tls.Certificate{
			Certificate: [][]byte{cert.Raw},
			PrivateKey:  priv,
			Leaf:        cert,
		}, nil
	}
	// pkcs12.Decode solo acepta un certificado; los PFX con cadena se leen vía PEM.
	blocks, pemErr := pkcs12.ToPEM(pfx, password)
	if pemErr != nil {
		return tls.Certificate{}, &domain.CertificateError{Reason: "no se pudo decodificar el PFX", Err: err}
	}
	var certPEM, keyPEM []byte
	for _, b := range blocks {
		switch b.Type {
		case "CERTIFICATE":
			certPEM = append(certPEM, pem.EncodeToMemory(b)...)
		case "PRIVATE KEY":
			keyPEM = append(keyPEM, pem.EncodeToMemory(b)...)
		}
	}
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, &domain.CertificateError{Reason: "PFX sin par certificado/llave", Err: err}
	}
	if pair.Leaf == nil {
		leaf, err := x509.ParseCertificate(pair.Certificate[0])
		if err != nil {
			return tls.Certificate{}, &domain.CertificateError{Reason: "certificado ilegible", Err: err}
		}
		pair.Leaf = leaf
	}
	return pair, nil
}

// Info datos públicos del certificado, seguros para persistir y registrar.
type Info struct {
	SerialNumber string
	Subject      string
	NotBefore    time.Time
	NotAfter     time.Time
}

// Inspect decodifica el PFX y devuelve sus datos públicos.
func Inspect(pfx []byte, password string) (Info, error) {
	cert, err := LoadPFX(pfx, password)
	if err != nil {
		return Info{}, err
	}
	leaf := cert.Leaf
	return Info{
		SerialNumber: leaf.SerialNumber.Text(16),
		Subject:      leaf.Subject.String(),
		NotBefore:    leaf.NotBefore,
		NotAfter:     leaf.NotAfter,
	}, nil
}

// CheckValidity devuelve *domain.CertificateError si el certificado no está vigente en now.
func CheckValidity(info Info, now time.Time) error {
	if now.Before(info.NotBefore) {
		return &domain.CertificateError{Reason: fmt.Sprintf("certificado aún no vigente (desde %s)", info.NotBefore.Format(time.RFC3339))}
	}
	if now.After(info.NotAfter) {
		return &domain.CertificateError{Reason: fmt.Sprintf("certificado vencido el %s", info.NotAfter.Format(time.RFC3339))}
	}
	return nil
}
