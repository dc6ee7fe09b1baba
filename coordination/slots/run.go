package slots

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bounded-buffer/coordination/slots/application"
	"bounded-buffer/coordination/slots/domain"
	"bounded-buffer/coordination/slots/infra"
)

const (
	DefaultName       = "/bounded_buffer"
	DefaultCapacity   = 10
	DefaultIterations = 100
)

var ErrInvalidPlan = errors.New("slots: invalid plan")

// Plan descreve uma execução: P produtores e Q consumidores, cada um com
// Iterations operações, sobre um coordenador de capacidade Capacity.
//
// Zero é um valor válido para Producers, Consumers e Iterations; use NewPlan
// para partir dos padrões (C=10, N=100, 1 produtor e 1 consumidor).
type Plan struct {
	Name       string
	Capacity   int
	Producers  int
	Consumers  int
	Iterations int

	// Pace espaça as iterações de cada worker (0 = sem espera).
	Pace           time.Duration
	AcquireTimeout time.Duration

	Stats  domain.StatsStore
	Logger *log.Logger

	// OnReady é chamado depois de criar o coordenador e antes dos workers.
	OnReady func(*application.Coordinator)
}

// MaxWorkers limita P+Q em uma única execução.
const MaxWorkers = 1 << 16

func NewPlan() Plan {
	return Plan{
		Name:       DefaultName,
		Capacity:   DefaultCapacity,
		Producers:  1,
		Consumers:  1,
		Iterations: DefaultIterations,
	}
}

func (p Plan) withDefaults() Plan {
	if p.Name == "" {
		p.Name = DefaultName
	}
	return p
}

// Validate rejeita planos que terminariam em deadlock: ao final o saldo
// produzido - consumido precisa caber em [0, C].
func (p Plan) Validate() error {
	if p.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidPlan, p.Capacity)
	}
	if p.Iterations < 0 {
		return fmt.Errorf("%w: iterations must be >= 0, got %d", ErrInvalidPlan, p.Iterations)
	}
	if p.Producers < 0 || p.Consumers < 0 {
		return fmt.Errorf("%w: worker counts must be >= 0, got producers=%d consumers=%d", ErrInvalidPlan, p.Producers, p.Consumers)
	}
	if p.Producers > MaxWorkers || p.Consumers > MaxWorkers-p.Producers {
		return fmt.Errorf("%w: at most %d workers, got producers=%d consumers=%d", ErrInvalidPlan, MaxWorkers, p.Producers, p.Consumers)
	}
	if p.Iterations == 0 {
		return nil
	}

	// (P-Q)*N em [0, C] sem multiplicar: P e Q já estão limitados, a diferença não estoura.
	diff := p.Producers - p.Consumers
	if diff < 0 || diff > p.Capacity/p.Iterations {
		return fmt.Errorf("%w: net production (%d-%d)*%d outside [0, %d] would block forever",
			ErrInvalidPlan, p.Producers, p.Consumers, p.Iterations, p.Capacity)
	}
	return nil
}

type WorkerResult struct {
	ID   int
	Role domain.Role
	Done int
	Err  error
}

type Report struct {
	Produced int
	Consumed int

	// Contagens lidas sob o guard depois do join e antes do Destroy.
	Empty  int
	Filled int

	Workers []WorkerResult
}

// Run cria o coordenador em ns, executa todos os workers até o fim e o destrói.
// O primeiro erro fatal de um worker cancela os demais e é retornado.
// Se ns for nil usa um infra.Registry novo.
func Run(ctx context.Context, ns domain.Namespace, plan Plan) (Report, error) {
	plan = plan.withDefaults()
	if err := plan.Validate(); err != nil {
		return Report{}, err
	}
	if ns == nil {
		ns = infra.NewRegistry()
	}

	// equivalente a apagar /dev/shm/sem.* de uma execução anterior
	if err := ns.Unlink(plan.Name); err == nil && plan.Logger != nil {
		plan.Logger.Printf("removed stale coordinator %q", plan.Name)
	}

	c, err := application.Create(ns, plan.Name, plan.Capacity, application.WithAcquireTimeout(plan.AcquireTimeout))
	if err != nil {
		return Report{}, err
	}
	if plan.OnReady != nil {
		plan.OnReady(c)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := make([]application.Worker, 0, plan.Producers+plan.Consumers)
	for i := 0; i < plan.Producers; i++ {
		workers = append(workers, newWorker(len(workers)+1, domain.Producer, plan))
	}
	for i := 0; i < plan.Consumers; i++ {
		workers = append(workers, newWorker(len(workers)+1, domain.Consumer, plan))
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	results := make([]WorkerResult, len(workers))
	wg.Add(len(workers))
	for i, w := range workers {
		go func() {
			defer wg.Done()
			done, err := w.Run(runCtx, c)
			results[i] = WorkerResult{ID: w.ID, Role: w.Role, Done: done, Err: err}
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}
	wg.Wait()

	rep := Report{Workers: results}
	for _, r := range results {
		switch r.Role {
		case domain.Producer:
			rep.Produced += r.Done
		case domain.Consumer:
			rep.Consumed += r.Done
		}
	}

	empty, filled, countErr := c.Counts(context.Background())
	rep.Empty, rep.Filled = empty, filled

	if plan.Logger != nil {
		plan.Logger.Printf("cleaning up coordinator %q", plan.Name)
	}
	destroyErr := c.Destroy()

	return rep, errors.Join(firstErr, countErr, destroyErr)
}

func newWorker(id int, role domain.Role, plan Plan) application.Worker {
	return application.Worker{
		ID:         id,
		Role:       role,
		Iterations: plan.Iterations,
		Pacer:      infra.NewPacer(plan.Pace),
		Stats:      plan.Stats,
		Logger:     plan.Logger,
	}
}
