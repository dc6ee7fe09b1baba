package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bounded-buffer/coordination/slots/domain"
)

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateClosed
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// Coordinator concentra a regra do buffer limitado: espera pela contagem,
// trava o guard, lê a contagem para reporte, libera o guard e sinaliza o lado oposto.
//
// É seguro para uso concorrente por qualquer número de produtores e consumidores.
type Coordinator struct {
	name           string
	slots          domain.Slots
	acquireTimeout time.Duration

	mu    sync.Mutex
	state State
}

type Option func(*Coordinator)

// WithAcquireTimeout limita a espera por uma vaga.
// - Se d <= 0, espera indefinidamente (até ctx cancelar).
// - Se d > 0, a chamada falha com domain.ErrTimeout após d.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.acquireTimeout = d }
}

// Create cria os objetos nomeados com empty=capacity, filled=0 e guard livre.
func Create(ns domain.Namespace, name string, capacity int, opts ...Option) (*Coordinator, error) {
	if ns == nil {
		return nil, fmt.Errorf("%w: nil namespace", domain.ErrInitialization)
	}
	slots, err := ns.Create(name, capacity)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	return newCoordinator(name, slots, opts), nil
}

// Open anexa a um coordenador já criado (outro contexto de execução).
func Open(ns domain.Namespace, name string, opts ...Option) (*Coordinator, error) {
	if ns == nil {
		return nil, fmt.Errorf("%w: nil namespace", domain.ErrNotFound)
	}
	slots, err := ns.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	return newCoordinator(name, slots, opts), nil
}

func newCoordinator(name string, slots domain.Slots, opts []Option) *Coordinator {
	c := &Coordinator{
		name:  name,
		slots: slots,
		state: StateReady,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Name() string  { return c.name }
func (c *Coordinator) Capacity() int { return c.slots.Capacity() }

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ProduceOne bloqueia até existir uma vaga livre e a converte em preenchida.
// Retorna o total preenchido resultante.
func (c *Coordinator) ProduceOne(ctx context.Context) (int, error) {
	n, err := c.transfer(ctx, c.slots.Empty(), c.slots.Filled(), func() int {
		return c.slots.Capacity() - c.slots.Empty().Value()
	})
	if err != nil {
		return 0, fmt.Errorf("produce: %w", err)
	}
	return n, nil
}

// ConsumeOne bloqueia até existir uma vaga preenchida e a converte em livre.
// Retorna o total preenchido que restou após esta retirada.
func (c *Coordinator) ConsumeOne(ctx context.Context) (int, error) {
	n, err := c.transfer(ctx, c.slots.Filled(), c.slots.Empty(), func() int {
		return c.slots.Filled().Value()
	})
	if err != nil {
		return 0, fmt.Errorf("consume: %w", err)
	}
	return n, nil
}

func (c *Coordinator) transfer(ctx context.Context, from, to domain.Semaphore, observe func() int) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	if err := c.slots.Enter(); err != nil {
		return 0, err
	}
	defer c.slots.Leave()

	acqCtx, cancel := c.acquireContext(ctx)
	defer cancel()

	if err := from.Wait(acqCtx); err != nil {
		return 0, c.waitError(err)
	}

	guard := c.slots.Guard()
	if err := guard.Wait(acqCtx); err != nil {
		// devolve a vaga: a chamada é tudo-ou-nada
		_ = from.Signal()
		return 0, c.waitError(err)
	}
	n := observe()
	if err := guard.Signal(); err != nil {
		return 0, err
	}

	if err := to.Signal(); err != nil {
		return 0, err
	}
	return n, nil
}

// Counts retorna (empty, filled) lidos sob o guard.
func (c *Coordinator) Counts(ctx context.Context) (empty, filled int, err error) {
	if err := c.ready(); err != nil {
		return 0, 0, err
	}
	if err := c.slots.Enter(); err != nil {
		return 0, 0, err
	}
	defer c.slots.Leave()

	guard := c.slots.Guard()
	if err := guard.Wait(ctx); err != nil {
		return 0, 0, err
	}
	empty, filled = c.slots.Empty().Value(), c.slots.Filled().Value()
	if err := guard.Signal(); err != nil {
		return 0, 0, err
	}
	return empty, filled, nil
}

// Destroy libera os objetos de sincronização. Deve ser chamado exatamente uma
// vez, depois que todos os workers terminaram: com chamadas em andamento
// retorna domain.ErrPrecondition em vez de derrubar os workers bloqueados.
func (c *Coordinator) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return fmt.Errorf("%w: destroy %q: coordinator is %s", domain.ErrPrecondition, c.name, c.state)
	}
	if err := c.slots.Destroy(); err != nil {
		return fmt.Errorf("destroy %q: %w", c.name, err)
	}
	c.state = StateDestroyed
	return nil
}

// Close desanexa este handle sem destruir os objetos nomeados.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return fmt.Errorf("%w: close %q: coordinator is %s", domain.ErrPrecondition, c.name, c.state)
	}
	c.slots.Detach()
	c.state = StateClosed
	return nil
}

func (c *Coordinator) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return fmt.Errorf("%w: coordinator %q is %s", domain.ErrPrecondition, c.name, c.state)
	}
	return nil
}

func (c *Coordinator) acquireContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.acquireTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.acquireTimeout)
}

func (c *Coordinator) waitError(err error) error {
	if c.acquireTimeout > 0 && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", domain.ErrTimeout, c.acquireTimeout, err)
	}
	return err
}
