package infra

import (
	"time"

	"bounded-buffer/coordination/slots/domain"

	"golang.org/x/time/rate"
)

// NewPacer cria um pacer que libera no máximo uma iteração a cada `every`.
// Se every <= 0 retorna nil (sem espaçamento).
func NewPacer(every time.Duration) domain.Pacer {
	if every <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(every), 1)
}
