package issuance_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-sunat/internal/application/dto"
	"github.com/jhoicas/facturador-sunat/internal/application/issuance"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

func facturaRequest() dto.IssueDocumentRequest {
	return dto.IssueDocumentRequest{
		TipoDoc:      "01",
		FechaEmision: "2026-03-10",
		Cliente:      dto.CustomerRequest{TipoDoc: "6", NumDoc: "20123456786", Nombre: "CLIENTE SAC"},
		Items: []dto.LineItemRequest{
			{Descripcion: "Licencia anual", Cantidad: decimal.NewFromInt(2), ValorUnitario: decimal.RequireFromString("50.00")},
		},
	}
}

func newIssueUseCase(t *testing.T, q issuance.Queue) (*issuance.IssueUseCase, *memStore, *entity.Issuer) {
	t.Helper()
	s := newMemStore()
	iss := seedIssuer(t, s, testVault(t), false)
	clock := &fixedClock{now: issuedAt}
	uc := issuance.NewIssueUseCase(s.repos().Documents, s.repos().Issuers, s.repos().Audit, q, logger.Nop(), clock.Now)
	return uc, s, iss
}

func TestIssue_RegistraPendienteYEncola(t *testing.T) {
	q := &recordingQueue{}
	uc, s, iss := newIssueUseCase(t, q)

	ack, err := uc.Issue(context.Background(), iss.ID, facturaRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPending, ack.Status)
	assert.Equal(t, "F001", ack.Serie, "serie por defecto de factura")
	assert.Equal(t, int64(1), ack.Numero)
	assert.Equal(t, "encolado", ack.Mensaje)
	assert.Equal(t, []string{ack.ID}, q.enqueued())

	doc := s.doc(t, ack.ID)
	assert.Equal(t, "PEN", doc.Currency)
	assert.Equal(t, "0101", doc.OperationType)
	assert.True(t, doc.TaxedAmount.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, doc.TaxAmount.Equal(decimal.RequireFromString("18.00")))
	assert.True(t, doc.Total.Equal(decimal.RequireFromString("118.00")))
	assert.Equal(t, "NIU", doc.Lines[0].UnitCode)
	assert.Equal(t, "10", doc.Lines[0].Affectation)
	assert.Equal(t, "2026-03-10", doc.IssueDate.Format("2006-01-02"))
	assert.Equal(t, "09:30:00", doc.IssueDate.Format("15:04:05"), "hora actual de Lima")
	assert.Len(t, s.eventsOf(ack.ID, issuance.EventIssued), 1)
}

func TestIssue_NumeracionCorrelativa(t *testing.T) {
	uc, _, iss := newIssueUseCase(t, &recordingQueue{})
	for want := int64(1); want <= 3; want++ {
		ack, err := uc.Issue(context.Background(), iss.ID, facturaRequest())
		require.NoError(t, err)
		assert.Equal(t, want, ack.Numero)
	}

	boleta := facturaRequest()
	boleta.TipoDoc = "03"
	boleta.Cliente = dto.CustomerRequest{}
	ack, err := uc.Issue(context.Background(), iss.ID, boleta)
	require.NoError(t, err)
	assert.Equal(t, "B001", ack.Serie)
	assert.Equal(t, int64(1), ack.Numero, "cada serie tiene su propio correlativo")
}

func TestIssue_ConcurrenteAsignaNumerosEstrictamente1aN(t *testing.T) {
	const n = 16
	uc, _, iss := newIssueUseCase(t, &recordingQueue{})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int64
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ack, err := uc.Issue(context.Background(), iss.ID, facturaRequest())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, ack.Numero)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	require.Len(t, numbers, n)
	for i, got := range numbers {
		assert.Equal(t, int64(i+1), got, "sin huecos ni duplicados")
	}
}

func TestIssue_ErroresDeValidacion(t *testing.T) {
	uc, s, iss := newIssueUseCase(t, &recordingQueue{})

	req := facturaRequest()
	req.Cliente.TipoDoc = "1"
	req.Cliente.NumDoc = "12345678"
	_, err := uc.Issue(context.Background(), iss.ID, req)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cliente.tipo_doc", ve.Field)

	req = facturaRequest()
	req.FechaEmision = "10/03/2026"
	_, err = uc.Issue(context.Background(), iss.ID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	nota := facturaRequest()
	nota.TipoDoc = "07"
	nota.Motivo = "01"
	_, err = uc.Issue(context.Background(), iss.ID, nota)
	require.ErrorAs(t, err, &ve)

	max, err := s.repos().Documents.MaxNumber(context.Background(), iss.ID, "01", "F001")
	require.NoError(t, err)
	assert.Zero(t, max, "un comprobante inválido no consume correlativo")
}

func TestIssue_NotaDeCreditoSobreBoleta(t *testing.T) {
	uc, _, iss := newIssueUseCase(t, &recordingQueue{})
	nota := facturaRequest()
	nota.TipoDoc = "07"
	nota.Motivo = "01"
	nota.Cliente = dto.CustomerRequest{TipoDoc: "1", NumDoc: "12345678", Nombre: "JUAN PEREZ"}
	nota.Referencia = &dto.ReferenceRequest{TipoDoc: "03", Serie: "b001", Numero: 7}

	ack, err := uc.Issue(context.Background(), iss.ID, nota)
	require.NoError(t, err)
	assert.Equal(t, "BC01", ack.Serie)
}

func TestIssue_EmisorInexistente(t *testing.T) {
	uc, _, _ := newIssueUseCase(t, &recordingQueue{})
	_, err := uc.Issue(context.Background(), "otro", facturaRequest())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIssue_FalloAlEncolarDejaError(t *testing.T) {
	q := &recordingQueue{err: errors.New("redis: connection refused")}
	uc, s, iss := newIssueUseCase(t, q)

	_, err := uc.Issue(context.Background(), iss.ID, facturaRequest())
	require.Error(t, err)

	docs, _ := s.repos().Documents.CountByStatus(context.Background(), iss.ID, issuedAt)
	assert.Equal(t, 1, docs[entity.StatusError], "queda en error para reenvío")
}

func TestDocumentFromRequest_Cuotas(t *testing.T) {
	req := facturaRequest()
	req.FormaPago = &dto.PaymentRequest{Tipo: "Credito", Cuotas: []dto.InstallmentRequest{
		{Monto: decimal.RequireFromString("118.00"), FechaVencimiento: "2026-04-10"},
	}}
	doc, err := issuance.DocumentFromRequest(req, issuedAt)
	require.NoError(t, err)
	require.Len(t, doc.PaymentTerms.Installments, 1)
	assert.Equal(t, "2026-04-10", doc.PaymentTerms.Installments[0].DueDate.Format("2006-01-02"))

	req.FormaPago.Cuotas[0].FechaVencimiento = "mañana"
	_, err = issuance.DocumentFromRequest(req, issuedAt)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
