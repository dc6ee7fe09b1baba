package infra

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bounded-buffer/coordination/slots/domain"
)

// Registry é o namespace em memória do processo: cada nome aponta para o trio
// empty/filled/guard. Nomes ociosos são removidos periodicamente.
type Registry struct {
	mu           sync.Mutex
	entries      map[string]*namedSlots
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type RegistryOption func(*Registry)

func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) RegistryOption {
	return func(r *Registry) { r.cleanupEvery = d }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:      make(map[string]*namedSlots),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) CleanupEvery() time.Duration { return r.cleanupEvery }

// Create implementa domain.Namespace.
func (r *Registry) Create(name string, capacity int) (domain.Slots, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", domain.ErrInitialization)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", domain.ErrInitialization, capacity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return nil, fmt.Errorf("%w: name %q already exists", domain.ErrInitialization, name)
	}

	ent, err := newNamedSlots(r, name, capacity)
	if err != nil {
		return nil, err
	}
	ent.attached = 1
	r.entries[name] = ent
	return ent, nil
}

func (r *Registry) Open(name string) (domain.Slots, error) {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrNotFound, name)
	}
	ent.attach()
	return ent, nil
}

func (r *Registry) Unlink(name string) error {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrNotFound, name)
	}
	delete(r.entries, name)
	return nil
}

func (r *Registry) Destroy(name string) error {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrNotFound, name)
	}
	if err := ent.destroy(); err != nil {
		return err
	}
	delete(r.entries, name)
	return nil
}

// Len retorna quantos nomes estão registrados.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Cleanup destrói nomes ociosos há mais de idleTTL, sem chamadas em andamento e
// sem nenhum handle anexado (Create/Open sem Close/Destroy correspondente).
func (r *Registry) Cleanup() {
	cutoff := time.Now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, ent := range r.entries {
		if !ent.idleSince(cutoff) {
			continue
		}
		if err := ent.destroy(); err != nil {
			continue
		}
		delete(r.entries, name)
	}
}

// StartJanitor inicia uma goroutine que limpa nomes ociosos periodicamente.
// Pare cancelando o contexto.
func (r *Registry) StartJanitor(ctx DoneContext) {
	if r.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(r.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
type DoneContext interface {
	Done() <-chan struct{}
}

type namedSlots struct {
	reg      *Registry
	name     string
	capacity int
	empty    domain.Semaphore
	filled   domain.Semaphore
	guard    domain.Semaphore

	mu        sync.Mutex
	inflight  int
	attached  int
	destroyed bool
	lastSeen  time.Time
}

func newNamedSlots(reg *Registry, name string, capacity int) (*namedSlots, error) {
	empty, err := NewChanSemaphore(capacity, capacity)
	if err != nil {
		return nil, err
	}
	filled, err := NewChanSemaphore(0, capacity)
	if err != nil {
		return nil, err
	}
	guard, err := NewChanSemaphore(1, 1)
	if err != nil {
		return nil, err
	}
	return &namedSlots{
		reg:      reg,
		name:     name,
		capacity: capacity,
		empty:    empty,
		filled:   filled,
		guard:    guard,
		lastSeen: time.Now(),
	}, nil
}

func (s *namedSlots) Capacity() int            { return s.capacity }
func (s *namedSlots) Empty() domain.Semaphore  { return s.empty }
func (s *namedSlots) Filled() domain.Semaphore { return s.filled }
func (s *namedSlots) Guard() domain.Semaphore  { return s.guard }

func (s *namedSlots) Enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return fmt.Errorf("%w: coordinator destroyed", domain.ErrSynchronization)
	}
	s.inflight++
	s.lastSeen = time.Now()
	return nil
}

func (s *namedSlots) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight > 0 {
		s.inflight--
	}
	s.lastSeen = time.Now()
}

func (s *namedSlots) attach() {
	s.mu.Lock()
	s.attached++
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *namedSlots) Detach() {
	s.mu.Lock()
	if s.attached > 0 {
		s.attached--
	}
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Destroy destrói este conjunto e só remove o nome se ele ainda apontar para cá.
func (s *namedSlots) Destroy() error {
	if s.reg == nil {
		return s.destroy()
	}

	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()

	if err := s.destroy(); err != nil {
		return err
	}
	if cur, ok := s.reg.entries[s.name]; ok && cur == s {
		delete(s.reg.entries, s.name)
	}
	return nil
}

func (s *namedSlots) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight == 0 && s.attached == 0 && s.lastSeen.Before(cutoff)
}

func (s *namedSlots) destroy() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return fmt.Errorf("%w: already destroyed", domain.ErrPrecondition)
	}
	if s.inflight > 0 {
		n := s.inflight
		s.mu.Unlock()
		return fmt.Errorf("%w: %d calls still in flight", domain.ErrPrecondition, n)
	}
	s.destroyed = true
	s.attached = 0
	s.mu.Unlock()

	return errors.Join(s.empty.Close(), s.filled.Close(), s.guard.Close())
}
