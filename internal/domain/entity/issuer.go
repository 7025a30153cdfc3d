package entity

import "time"

// Issuer emisor electrónico (contribuyente con RUC) y sus credenciales SOL.
type Issuer struct {
	ID                   string
	RUC                  string
	LegalName            string
	TradeName            string
	Address              Address
	SolUser              string
	SolPasswordEncrypted []byte // Cifrado con la llave de la bóveda; nunca en claro en la DB
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Certificate certificado digital (PFX) del emisor cifrado en reposo.
type Certificate struct {
	ID                string
	IssuerID          string
	PFXEncrypted      []byte
	PasswordEncrypted []byte
	SerialNumber      string
	Subject           string
	NotAfter          time.Time
	Active            bool
	CreatedAt         time.Time
}

// Expired indica si el certificado venció a la fecha dada.
func (c *Certificate) Expired(now time.Time) bool {
	return !c.NotAfter.IsZero() && now.After(c.NotAfter)
}
