package issuance

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jhoicas/facturador-sunat/internal/infrastructure/queue"
	"github.com/jhoicas/facturador-sunat/pkg/logger"
)

// WorkerPool N goroutines que toman un ID a la vez de la cola y lo procesan.
type WorkerPool struct {
	queue     Queue
	processor Processor
	size      int
	log       *logger.Logger
	wg        sync.WaitGroup

	// idleBackoff espera tras un error de la cola antes de volver a leer.
	idleBackoff time.Duration
}

// NewWorkerPool construye el pool; size < 1 se toma como 1.
func NewWorkerPool(q Queue, p Processor, size int, log *logger.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{queue: q, processor: p, size: size, log: log, idleBackoff: time.Second}
}

// Start lanza los workers. Terminan al cancelar ctx o al cerrarse la cola.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 1; i <= p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	p.log.Info().Int("workers", p.size).Msg("pool de envío iniciado")
}

// Wait bloquea hasta que todos los workers terminen.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		documentID, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return
			}
			p.log.Error().Err(err).Int("worker", id).Msg("error leyendo la cola")
			select {
			case <-time.After(p.idleBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		p.handle(ctx, id, documentID)
	}
}

// handle procesa un comprobante. Un panic se registra con su stack, el comprobante queda en
// error (si el Processor es PanicRecorder) y el worker sigue.
func (p *WorkerPool) handle(ctx context.Context, worker int, documentID string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Int("worker", worker).
				Str("document_id", documentID).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("panic procesando comprobante")
			if rec, ok := p.processor.(PanicRecorder); ok {
				rec.RecordPanic(context.WithoutCancel(ctx), documentID, r)
			}
		}
	}()

	start := time.Now()
	err := p.processor.Process(ctx, documentID)
	ev := p.log.Info()
	if err != nil {
		ev = p.log.Warn().Err(err)
	}
	ev.Int("worker", worker).Str("document_id", documentID).Dur("duracion", time.Since(start)).Msg("comprobante procesado")
}
