package infra

import (
	"context"
	"strconv"
	"sync"

	"bounded-buffer/coordination/slots/domain"
)

type Counters struct {
	Produced int64
	Consumed int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Além dos contadores, guarda os extremos de Filled observados, o que permite
// verificar 0 <= filled <= C depois de uma execução.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	byWorker  map[string]Counters
	maxFilled int
	minFilled int
	seen      bool

	trackWorkers bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackWorkers(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackWorkers = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byWorker: make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seen || ev.Filled > s.maxFilled {
		s.maxFilled = ev.Filled
	}
	if !s.seen || ev.Filled < s.minFilled {
		s.minFilled = ev.Filled
	}
	s.seen = true

	var c Counters
	key := workerKey(ev.Role, ev.Worker)
	if s.trackWorkers {
		c = s.byWorker[key]
	}

	switch ev.Role {
	case domain.Producer:
		s.total.Produced++
		c.Produced++
	case domain.Consumer:
		s.total.Consumed++
		c.Consumed++
	}

	if s.trackWorkers {
		s.byWorker[key] = c
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// FilledRange retorna o menor e o maior Filled registrados.
func (s *MemoryStatsStore) FilledRange() (lo, hi int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minFilled, s.maxFilled
}

func (s *MemoryStatsStore) ByWorker() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byWorker))
	for k, v := range s.byWorker {
		out[k] = v
	}
	return out
}

func workerKey(role domain.Role, id int) string {
	return role.String() + "-" + strconv.Itoa(id)
}
