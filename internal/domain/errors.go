package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// ValidationError documento de entrada mal formado. Se rechaza de inmediato, sin reintento.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CertificateError certificado ausente, vencido o imposible de descifrar. Terminal.
type CertificateError struct {
	Reason string
	Err    error
}

func (e *CertificateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("certificate: %s: %v", e.Reason, e.Err)
	}
	return "certificate: " + e.Reason
}

func (e *CertificateError) Unwrap() error { return e.Err }

// SigningError fallo criptográfico o de serialización al firmar. Terminal.
type SigningError struct {
	Step string
	Err  error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing_failed (%s): %v", e.Step, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// TransientNetworkError fallo de autenticación HTTP o de conexión con SUNAT. Reintentable.
type TransientNetworkError struct {
	StatusCode int // 0 si no hubo respuesta HTTP
	Attempts   int
	Err        error
}

func (e *TransientNetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient network error (HTTP %d, intento %d): %v", e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("transient network error (intento %d): %v", e.Attempts, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// BusinessRejection SUNAT rechazó explícitamente el contenido (SOAP fault u otra respuesta no reintentable).
type BusinessRejection struct {
	Code    string
	Message string
}

func (e *BusinessRejection) Error() string {
	if e.Code == "" {
		return "rechazo SUNAT: " + e.Message
	}
	return fmt.Sprintf("rechazo SUNAT [%s]: %s", e.Code, e.Message)
}

// IsRetryable solo los errores de red transitorios admiten reintento.
func IsRetryable(err error) bool {
	var t *TransientNetworkError
	return errors.As(err, &t)
}
