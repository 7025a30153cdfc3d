package signer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat/signer"
)

func TestVerify_FirmaPropia(t *testing.T) {
	signed, digest, err := signer.NewDigitalSignatureService().Sign([]byte(unsignedInvoice), loadPFX(t), pfxPassword)
	require.NoError(t, err)

	v, err := signer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, digest, v.Digest)
	assert.Equal(t, "20000000001-SIGN", v.SignatureID)
	assert.Contains(t, v.Subject, "20000000001")
	assert.True(t, v.NotAfter.After(v.NotBefore))
}

func TestVerify_DocumentoAlterado(t *testing.T) {
	signed, _, err := signer.NewDigitalSignatureService().Sign([]byte(unsignedInvoice), loadPFX(t), pfxPassword)
	require.NoError(t, err)

	tampered := strings.Replace(string(signed), "F001-1", "F001-2", 1)
	_, err = signer.Verify([]byte(tampered))
	var se *domain.SigningError
	require.True(t, errors.As(err, &se), "fue %T: %v", err, err)
	assert.Equal(t, signer.StepVerify, se.Step)
}

func TestVerify_SinFirma(t *testing.T) {
	_, err := signer.Verify([]byte(unsignedInvoice))
	var se *domain.SigningError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "ds:Signature")
}
