package issuance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-sunat/internal/application/issuance"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/queue"
	infrasunat "github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat/signer"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

// funcProcessor adapta una función a issuance.Processor.
type funcProcessor func(ctx context.Context, id string) error

func (f funcProcessor) Process(ctx context.Context, id string) error { return f(ctx, id) }

func TestWorkerPool_ProcesaTodoYSobreviveAPanic(t *testing.T) {
	q := queue.NewMemoryQueue(16)
	var (
		mu        sync.Mutex
		processed []string
		done      = make(chan struct{}, 16)
	)
	proc := funcProcessor(func(_ context.Context, id string) error {
		defer func() { done <- struct{}{} }()
		if id == "boom" {
			panic("fallo inesperado")
		}
		mu.Lock()
		processed = append(processed, id)
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool := issuance.NewWorkerPool(q, proc, 3, logger.Nop())
	pool.Start(ctx)

	for _, id := range []string{"a", "boom", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, id))
	}
	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("los workers no procesaron la cola a tiempo")
		}
	}

	cancel()
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, processed, "un panic no detiene al pool")
}

func TestWorkerPool_TerminaAlCerrarLaCola(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	pool := issuance.NewWorkerPool(q, funcProcessor(func(context.Context, string) error { return nil }), 2, logger.Nop())
	pool.Start(context.Background())
	require.NoError(t, q.Close())

	finished := make(chan struct{})
	go func() {
		pool.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("los workers deben terminar al cerrarse la cola")
	}
}

// panicBuilder falla de forma inesperada al generar el XML.
type panicBuilder struct{}

func (panicBuilder) Build(*infrasunat.BuildContext) ([]byte, error) {
	panic("índice fuera de rango")
}

func TestWorkerPool_PanicDejaElComprobanteEnErrorReenviable(t *testing.T) {
	s := newMemStore()
	v := testVault(t)
	clock := &fixedClock{now: issuedAt}
	sender := &countingSender{next: infrasunat.NewSimulatedSender()}
	orch := issuance.NewOrchestrator(issuance.Deps{
		Repos:   s.repos(),
		Tx:      s,
		Builder: panicBuilder{},
		Signer:  signer.NewDigitalSignatureService(),
		Sender:  sender,
		Vault:   v,
		Log:     logger.Nop(),
		Clock:   clock.Now,
	})
	iss := seedIssuer(t, s, v, true)
	doc := seedPendingDocument(t, s, iss.ID, 1, issuedAt)

	q := queue.NewMemoryQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool := issuance.NewWorkerPool(q, orch, 1, logger.Nop())
	pool.Start(ctx)
	require.NoError(t, q.Enqueue(ctx, doc.ID))

	require.Eventually(t, func() bool {
		return s.doc(t, doc.ID).Status == entity.StatusError
	}, 2*time.Second, 10*time.Millisecond, "el panic debe dejar el comprobante en error")
	cancel()
	pool.Wait()

	got := s.doc(t, doc.ID)
	assert.Contains(t, got.LastError, "índice fuera de rango")
	assert.Contains(t, got.LastError, entity.StatusGenerating)
	assert.Nil(t, got.ProcessingSince)
	assert.Equal(t, 0, sender.count())

	events := s.eventsOf(doc.ID, issuance.EventPanic)
	require.Len(t, events, 1)
	assert.Equal(t, entity.AuditError, events[0].Level)
	assert.Equal(t, entity.StatusGenerating, events[0].Meta["estado_anterior"])

	resubmit := issuance.NewResubmitUseCase(s.repos().Documents, s.repos().Audit, &recordingQueue{}, 0, logger.Nop(), clock.Now)
	_, err := resubmit.Resubmit(context.Background(), iss.ID, doc.ID)
	assert.NoError(t, err, "tras el panic el comprobante se puede reenviar")
}
