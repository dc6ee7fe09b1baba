package domain

import "context"

type Role int

const (
	Producer Role = iota + 1
	Consumer
)

func (r Role) String() string {
	switch r {
	case Producer:
		return "producer"
	case Consumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// Pacer espaça as iterações de um worker.
//
// *rate.Limiter (golang.org/x/time/rate) satisfaz esta interface.
type Pacer interface {
	Wait(ctx context.Context) error
}
