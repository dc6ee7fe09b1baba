package infra

import (
	"context"
	"fmt"
	"sync"

	"bounded-buffer/coordination/slots/domain"
)

type chanSemaphore struct {
	tokens chan struct{}
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewChanSemaphore cria um semáforo contador com valor inicial `initial` e
// valor máximo `max`. Cada token no channel é uma unidade do contador.
func NewChanSemaphore(initial, max int) (domain.Semaphore, error) {
	if max <= 0 || initial < 0 || initial > max {
		return nil, fmt.Errorf("%w: invalid semaphore bounds initial=%d max=%d", domain.ErrInitialization, initial, max)
	}
	s := &chanSemaphore{
		tokens: make(chan struct{}, max),
		done:   make(chan struct{}),
	}
	for i := 0; i < initial; i++ {
		s.tokens <- struct{}{}
	}
	return s, nil
}

func (s *chanSemaphore) Wait(ctx context.Context) error {
	// fechado tem prioridade sobre um token ainda disponível
	select {
	case <-s.done:
		return errSemaphoreClosed
	default:
	}

	select {
	case <-s.tokens:
		return nil
	case <-s.done:
		return errSemaphoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chanSemaphore) Signal() error {
	select {
	case <-s.done:
		return errSemaphoreClosed
	default:
	}

	select {
	case s.tokens <- struct{}{}:
		return nil
	default:
		return fmt.Errorf("%w: semaphore value would exceed %d", domain.ErrSynchronization, cap(s.tokens))
	}
}

func (s *chanSemaphore) Value() int { return len(s.tokens) }

// Close acorda todos os waiters bloqueados com ErrSynchronization.
func (s *chanSemaphore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSemaphoreClosed
	}
	s.closed = true
	close(s.done)
	return nil
}

var errSemaphoreClosed = fmt.Errorf("%w: semaphore closed", domain.ErrSynchronization)
