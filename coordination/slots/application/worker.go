package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"bounded-buffer/coordination/slots/domain"
)

// SlotCoordinator é o que um Worker precisa do coordenador.
type SlotCoordinator interface {
	Name() string
	ProduceOne(ctx context.Context) (int, error)
	ConsumeOne(ctx context.Context) (int, error)
}

// Worker executa Iterations operações de um único papel (produtor ou consumidor).
//
// Pacer, Stats e Logger são opcionais.
type Worker struct {
	ID         int
	Role       domain.Role
	Iterations int

	Pacer  domain.Pacer
	Stats  domain.StatsStore
	Logger *log.Logger
}

// Run retorna quantas operações foram concluídas. O primeiro erro aborta o loop;
// o que já foi produzido/consumido não é desfeito.
func (w Worker) Run(ctx context.Context, c SlotCoordinator) (int, error) {
	var (
		op   func(context.Context) (int, error)
		verb string
	)
	switch w.Role {
	case domain.Producer:
		op, verb = c.ProduceOne, "added"
	case domain.Consumer:
		op, verb = c.ConsumeOne, "removed"
	default:
		return 0, fmt.Errorf("%w: worker %d has unknown role %d", domain.ErrPrecondition, w.ID, int(w.Role))
	}

	for done := 0; done < w.Iterations; done++ {
		if w.Pacer != nil {
			if err := w.Pacer.Wait(ctx); err != nil {
				return done, fmt.Errorf("%s %d: pace: %w", w.Role, w.ID, err)
			}
		}

		n, err := op(ctx)
		if err != nil {
			return done, fmt.Errorf("%s %d: iteration %d: %w", w.Role, w.ID, done+1, err)
		}

		if w.Logger != nil {
			w.Logger.Printf("%s %d %s 1 item, total is now %d", w.Role, w.ID, verb, n)
		}
		if w.Stats != nil {
			_ = w.Stats.Record(ctx, domain.StatsEvent{
				Coordinator: c.Name(),
				Role:        w.Role,
				Worker:      w.ID,
				Filled:      n,
				At:          time.Now(),
			})
		}
	}
	return max(w.Iterations, 0), nil
}
