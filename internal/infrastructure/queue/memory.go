// Package queue implementa la cola de comprobantes pendientes de procesar:
// una lista Redis en producción y un canal en memoria en tests o sin Redis configurado.
package queue

import (
	"context"
	"errors"
)

// ErrClosed la cola fue cerrada.
var ErrClosed = errors.New("queue: cerrada")

// MemoryQueue cola FIFO en memoria sobre un canal con buffer.
type MemoryQueue struct {
	ch chan string
}

// NewMemoryQueue crea la cola con la capacidad indicada.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryQueue{ch: make(chan string, capacity)}
}

// Enqueue bloquea si la cola está llena hasta que haya espacio o se cancele ctx.
func (q *MemoryQueue) Enqueue(ctx context.Context, documentID string) error {
	select {
	case q.ch <- documentID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue bloquea hasta recibir un ID o hasta que se cancele ctx.
func (q *MemoryQueue) Dequeue(ctx context.Context) (string, error) {
	select {
	case id, ok := <-q.ch:
		if !ok {
			return "", ErrClosed
		}
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Len elementos pendientes.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

// Close cierra la cola; los Dequeue pendientes devuelven ErrClosed al vaciarse.
func (q *MemoryQueue) Close() error {
	close(q.ch)
	return nil
}
