package issuance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-sunat/internal/application/issuance"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	infrasunat "github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

func TestQuery_DocumentoConCDR(t *testing.T) {
	p := newPipeline(t, staticSender{payload: cdrZip(t, "0", "La Factura numero F001-1, ha sido aceptada")})
	iss := seedIssuer(t, p.store, p.vault, true)
	doc := seedPendingDocument(t, p.store, iss.ID, 1, issuedAt)
	require.NoError(t, p.orch.Process(context.Background(), doc.ID))

	sweeper := issuance.NewSweeper(p.store.repos().Documents, p.store.repos().Audit, 0, logger.Nop(), p.clock.Now)
	uc := issuance.NewQueryUseCase(p.store.repos().Documents, p.store.repos().Receipts, sweeper, p.clock.Now)

	got, err := uc.Get(context.Background(), iss.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, got.Status)
	assert.Equal(t, "2026-03-10", got.FechaEmision)
	require.NotNil(t, got.CDR)
	assert.Equal(t, "0", got.CDR.Codigo)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "18.00", got.Items[0].IGV.StringFixed(2))

	status, err := uc.Status(context.Background(), iss.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", status.Codigo)

	_, err = uc.Get(context.Background(), "otro", doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "un emisor no ve comprobantes de otro")
}

func TestQuery_ProgressBarreAntesDeContar(t *testing.T) {
	s := newMemStore()
	iss := seedIssuer(t, s, testVault(t), false)
	clock := &fixedClock{now: issuedAt}

	since := issuedAt.Add(-time.Minute)
	stuck := seedPendingDocument(t, s, iss.ID, 1, issuedAt)
	stuck.Status, stuck.ProcessingSince = entity.StatusSubmitting, &since
	s.put(stuck)
	seedPendingDocument(t, s, iss.ID, 2, issuedAt)

	sweeper := issuance.NewSweeper(s.repos().Documents, s.repos().Audit, 30*time.Second, logger.Nop(), clock.Now)
	uc := issuance.NewQueryUseCase(s.repos().Documents, s.repos().Receipts, sweeper, clock.Now)

	out, err := uc.Progress(context.Background(), iss.ID, uc.Today())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Reclasificados)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, map[string]int{entity.StatusError: 1, entity.StatusPending: 1}, out.PorEstado)
}

var _ infrasunat.BillSender = staticSender{}

func TestParseDay(t *testing.T) {
	day, err := issuance.ParseDay("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", day.Format("2006-01-02"))
	_, offset := day.Zone()
	assert.Equal(t, -5*3600, offset, "el día se interpreta en hora de Lima")

	_, err = issuance.ParseDay("10/03/2026")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
