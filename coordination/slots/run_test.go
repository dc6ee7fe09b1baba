package slots

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	"bounded-buffer/coordination/slots/application"
	"bounded-buffer/coordination/slots/domain"
	"bounded-buffer/coordination/slots/infra"
)

func TestPlan_ValidateRejectsDeadlockingPlans(t *testing.T) {
	cases := []Plan{
		{},
		{Capacity: -1, Producers: 1, Consumers: 1},
		{Capacity: 10, Iterations: -5},
		{Capacity: 10, Producers: -1, Consumers: 1},
		{Capacity: 10, Producers: MaxWorkers, Consumers: 1},
		{Producers: 2, Consumers: 1, Capacity: 10, Iterations: 100},
		{Producers: 1, Consumers: 2, Capacity: 10, Iterations: 100},
	}
	for _, p := range cases {
		if err := p.Validate(); !errors.Is(err, ErrInvalidPlan) {
			t.Fatalf("plan %+v: expected ErrInvalidPlan, got %v", p, err)
		}
	}

	ok := []Plan{
		NewPlan(),
		{Capacity: 10},
		{Capacity: 10, Producers: 3, Consumers: 1, Iterations: 0},
		{Producers: 2, Consumers: 1, Capacity: 10, Iterations: 5},
		{Producers: 1, Consumers: 0, Capacity: 3, Iterations: 3},
	}
	for _, p := range ok {
		if err := p.Validate(); err != nil {
			t.Fatalf("plan %+v: unexpected error %v", p, err)
		}
	}
}

func TestRun_DefaultPlanDrainsAndDestroys(t *testing.T) {
	ns := infra.NewRegistry()
	stats := infra.NewMemoryStatsStore()

	plan := NewPlan()
	plan.Stats = stats
	rep, err := Run(context.Background(), ns, plan)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Produced != DefaultIterations || rep.Consumed != DefaultIterations {
		t.Fatalf("expected %d produced and consumed, got %d and %d", DefaultIterations, rep.Produced, rep.Consumed)
	}
	if rep.Empty != DefaultCapacity || rep.Filled != 0 {
		t.Fatalf("expected empty=%d filled=0, got empty=%d filled=%d", DefaultCapacity, rep.Empty, rep.Filled)
	}

	total := stats.Total()
	if total.Produced != DefaultIterations || total.Consumed != DefaultIterations {
		t.Fatalf("unexpected stats totals: %+v", total)
	}
	lo, hi := stats.FilledRange()
	if lo < 0 || hi > DefaultCapacity {
		t.Fatalf("filled left [0,%d]: observed [%d,%d]", DefaultCapacity, lo, hi)
	}

	if _, err := application.Open(ns, DefaultName); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected coordinator destroyed after run, got %v", err)
	}
}

func TestRun_ManyProducersAndConsumers(t *testing.T) {
	plan := Plan{
		Name:       "/many",
		Capacity:   2,
		Producers:  5,
		Consumers:  5,
		Iterations: 50,
	}
	rep, err := Run(context.Background(), nil, plan)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Produced != 250 || rep.Consumed != 250 {
		t.Fatalf("expected 250/250, got %d/%d", rep.Produced, rep.Consumed)
	}
	if len(rep.Workers) != 10 {
		t.Fatalf("expected 10 worker results, got %d", len(rep.Workers))
	}
	for _, w := range rep.Workers {
		if w.Err != nil || w.Done != 50 {
			t.Fatalf("worker %d (%s): done=%d err=%v", w.ID, w.Role, w.Done, w.Err)
		}
	}
}

func TestRun_LeftoverItemsStayFilled(t *testing.T) {
	rep, err := Run(context.Background(), nil, Plan{Producers: 1, Consumers: 0, Capacity: 5, Iterations: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Empty != 2 || rep.Filled != 3 {
		t.Fatalf("expected empty=2 filled=3, got empty=%d filled=%d", rep.Empty, rep.Filled)
	}
}

func TestRun_ReplacesStaleName(t *testing.T) {
	ns := infra.NewRegistry()
	if _, err := ns.Create(DefaultName, 1); err != nil {
		t.Fatalf("create stale: %v", err)
	}

	var buf bytes.Buffer
	plan := NewPlan()
	plan.Iterations = 3
	plan.Logger = log.New(&buf, "", 0)
	_, err := Run(context.Background(), ns, plan)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "removed stale coordinator") {
		t.Fatalf("expected stale removal to be logged, got %q", out)
	}
	if !strings.Contains(out, "consumer 2 removed 1 item") {
		t.Fatalf("expected consumer trace lines, got %q", out)
	}
}

func TestRun_CancelStopsBlockedWorkersAndStillDestroys(t *testing.T) {
	ns := infra.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	var coord *application.Coordinator
	done := make(chan struct{})
	var (
		rep Report
		err error
	)
	go func() {
		defer close(done)
		// pace alto: o produtor fica parado e o consumidor bloqueado no wait
		plan := NewPlan()
		plan.Name = "/cancel"
		plan.Iterations = 10
		plan.Pace = time.Hour
		plan.OnReady = func(c *application.Coordinator) { coord = c }
		rep, err = Run(ctx, ns, plan)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting Run to return after cancel")
	}

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled, got %v", err)
	}
	if rep.Empty+rep.Filled != DefaultCapacity {
		t.Fatalf("expected counts to sum to capacity, got empty=%d filled=%d", rep.Empty, rep.Filled)
	}
	if coord == nil || coord.State() != application.StateDestroyed {
		t.Fatalf("expected coordinator to be destroyed after cancel")
	}
}

func TestRun_InvalidPlanDoesNotCreate(t *testing.T) {
	ns := infra.NewRegistry()
	if _, err := Run(context.Background(), ns, Plan{Capacity: 10, Producers: 3, Consumers: 1, Iterations: 100}); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
	if ns.Len() != 0 {
		t.Fatalf("expected nothing registered, got %d", ns.Len())
	}
}

func TestRun_ZeroIterationsDoesNothing(t *testing.T) {
	rep, err := Run(context.Background(), nil, Plan{Capacity: 10, Producers: 1, Consumers: 1, Iterations: 0})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Produced != 0 || rep.Consumed != 0 {
		t.Fatalf("expected 0/0, got %d/%d", rep.Produced, rep.Consumed)
	}
	if rep.Empty != 10 || rep.Filled != 0 {
		t.Fatalf("expected empty=10 filled=0, got empty=%d filled=%d", rep.Empty, rep.Filled)
	}
}

func TestRun_NoWorkers(t *testing.T) {
	rep, err := Run(context.Background(), nil, Plan{Capacity: 3, Iterations: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rep.Workers) != 0 || rep.Produced != 0 || rep.Consumed != 0 {
		t.Fatalf("expected no work, got %+v", rep)
	}
}

func TestPlan_ValidateRejectsOverflowingNetProduction(t *testing.T) {
	// 4 * (MaxInt/2+1) dá a volta e cai exatamente em 0
	p := Plan{Capacity: 10, Producers: 4, Consumers: 0, Iterations: math.MaxInt/2 + 1}
	if err := p.Validate(); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}

	huge := Plan{Capacity: 10, Producers: math.MaxInt, Consumers: math.MaxInt, Iterations: 1}
	if err := huge.Validate(); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan for huge worker counts, got %v", err)
	}
}
