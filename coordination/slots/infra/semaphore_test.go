package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"bounded-buffer/coordination/slots/domain"
)

func TestChanSemaphore_RejectsInvalidBounds(t *testing.T) {
	cases := []struct{ initial, max int }{
		{0, 0},
		{-1, 3},
		{4, 3},
	}
	for _, c := range cases {
		if _, err := NewChanSemaphore(c.initial, c.max); !errors.Is(err, domain.ErrInitialization) {
			t.Fatalf("initial=%d max=%d: expected ErrInitialization, got %v", c.initial, c.max, err)
		}
	}
}

func TestChanSemaphore_WaitDecrementsSignalIncrements(t *testing.T) {
	s, err := NewChanSemaphore(2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := s.Value(); got != 1 {
		t.Fatalf("expected value 1, got %d", got)
	}
	if err := s.Signal(); err != nil {
		t.Fatalf("signal: %v", err)
	}
	if err := s.Signal(); err != nil {
		t.Fatalf("signal: %v", err)
	}
	if got := s.Value(); got != 3 {
		t.Fatalf("expected value 3, got %d", got)
	}
}

func TestChanSemaphore_SignalAboveMaxFails(t *testing.T) {
	s, _ := NewChanSemaphore(1, 1)
	if err := s.Signal(); !errors.Is(err, domain.ErrSynchronization) {
		t.Fatalf("expected ErrSynchronization, got %v", err)
	}
	if got := s.Value(); got != 1 {
		t.Fatalf("expected value to stay 1, got %d", got)
	}
}

func TestChanSemaphore_WaitBlocksUntilSignal(t *testing.T) {
	s, _ := NewChanSemaphore(0, 1)

	done := make(chan error, 1)
	go func() { done <- s.Wait(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("expected Wait to block, returned %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	if err := s.Signal(); err != nil {
		t.Fatalf("signal: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting Wait to return after Signal")
	}
}

func TestChanSemaphore_WaitHonorsContext(t *testing.T) {
	s, _ := NewChanSemaphore(0, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestChanSemaphore_CloseWakesWaiters(t *testing.T) {
	s, _ := NewChanSemaphore(0, 1)

	done := make(chan error, 1)
	go func() { done <- s.Wait(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrSynchronization) {
			t.Fatalf("expected ErrSynchronization, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting blocked Wait to be woken by Close")
	}

	if err := s.Signal(); !errors.Is(err, domain.ErrSynchronization) {
		t.Fatalf("expected Signal after Close to fail, got %v", err)
	}
	if err := s.Close(); !errors.Is(err, domain.ErrSynchronization) {
		t.Fatalf("expected second Close to fail, got %v", err)
	}
}

func TestChanSemaphore_ClosedWinsOverAvailableToken(t *testing.T) {
	s, _ := NewChanSemaphore(1, 1)
	_ = s.Close()

	if err := s.Wait(context.Background()); !errors.Is(err, domain.ErrSynchronization) {
		t.Fatalf("expected ErrSynchronization, got %v", err)
	}
}
