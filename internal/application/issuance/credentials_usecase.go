package issuance

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/facturador-sunat/internal/application/dto"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat/signer"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
	pkgsunat "github.com/jhoicas/facturador-sunat/pkg/sunat"
)

// CredentialsUseCase alta de emisores y carga de certificados. Todo secreto se guarda cifrado.
type CredentialsUseCase struct {
	issuers repository.IssuerRepository
	tx      repository.TxRunner
	vault   Vault
	log     *logger.Logger
	clock   Clock
}

func NewCredentialsUseCase(issuers repository.IssuerRepository, tx repository.TxRunner, vault Vault, log *logger.Logger, clock Clock) *CredentialsUseCase {
	return &CredentialsUseCase{issuers: issuers, tx: tx, vault: vault, log: log, clock: clock}
}

// CreateIssuer valida el RUC (módulo 11) y cifra la clave SOL.
func (uc *CredentialsUseCase) CreateIssuer(ctx context.Context, in dto.CreateIssuerRequest) (*dto.IssuerResponse, error) {
	ruc := strings.TrimSpace(in.RUC)
	if err := pkgsunat.ValidateRUC(ruc); err != nil {
		return nil, domain.NewValidationError("ruc", "%v", err)
	}
	if strings.TrimSpace(in.RazonSocial) == "" {
		return nil, domain.NewValidationError("razon_social", "razón social requerida")
	}
	if in.UsuarioSOL == "" || in.ClaveSOL == "" {
		return nil, domain.NewValidationError("usuario_sol", "usuario y clave SOL requeridos")
	}
	encrypted, err := uc.vault.EncryptString(in.ClaveSOL)
	if err != nil {
		return nil, fmt.Errorf("cifrar clave SOL: %w", err)
	}
	issuer := &entity.Issuer{
		RUC:                  ruc,
		LegalName:            strings.TrimSpace(in.RazonSocial),
		TradeName:            strings.TrimSpace(in.NombreComercial),
		Address:              AddressFromRequest(in.Direccion),
		SolUser:              strings.ToUpper(strings.TrimSpace(in.UsuarioSOL)),
		SolPasswordEncrypted: encrypted,
	}
	if err := uc.issuers.Create(ctx, issuer); err != nil {
		return nil, err
	}
	uc.log.Info().Str("issuer_id", issuer.ID).Str("ruc", issuer.RUC).Msg("emisor registrado")
	return &dto.IssuerResponse{
		ID:              issuer.ID,
		RUC:             issuer.RUC,
		RazonSocial:     issuer.LegalName,
		NombreComercial: issuer.TradeName,
		UsuarioSOL:      issuer.SolUser,
	}, nil
}

// UploadCertificate verifica que el PFX abra con la contraseña y esté vigente, lo cifra
// y lo deja como único certificado activo del emisor.
func (uc *CredentialsUseCase) UploadCertificate(ctx context.Context, issuerID string, pfx []byte, password string) (*dto.CertificateResponse, error) {
	issuer, err := uc.issuers.GetByID(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	if issuer == nil {
		return nil, fmt.Errorf("emisor %s: %w", issuerID, domain.ErrNotFound)
	}

	info, err := signer.Inspect(pfx, password)
	if err != nil {
		return nil, err
	}
	if err := signer.CheckValidity(info, uc.clock.now()); err != nil {
		return nil, err
	}

	pfxEnc, err := uc.vault.Encrypt(pfx)
	if err != nil {
		return nil, fmt.Errorf("cifrar PFX: %w", err)
	}
	pwEnc, err := uc.vault.EncryptString(password)
	if err != nil {
		return nil, fmt.Errorf("cifrar contraseña: %w", err)
	}
	cert := &entity.Certificate{
		IssuerID:          issuer.ID,
		PFXEncrypted:      pfxEnc,
		PasswordEncrypted: pwEnc,
		SerialNumber:      info.SerialNumber,
		Subject:           info.Subject,
		NotAfter:          info.NotAfter,
		Active:            true,
		CreatedAt:         uc.clock.now(),
	}

	err = uc.tx.Run(ctx, func(r repository.Repositories) error {
		if err := r.Certificates.DeactivateByIssuer(ctx, issuer.ID); err != nil {
			return err
		}
		return r.Certificates.Create(ctx, cert)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("issuer_id", issuer.ID).Str("serial", info.SerialNumber).
		Time("vence", info.NotAfter).Msg("certificado cargado")
	return &dto.CertificateResponse{
		ID:       cert.ID,
		IssuerID: cert.IssuerID,
		Serie:    cert.SerialNumber,
		Sujeto:   cert.Subject,
		VenceEl:  cert.NotAfter.Format("2006-01-02"),
		Activo:   cert.Active,
	}, nil
}
