package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma transferência de vaga concluída.
//
// Observação: cuidado com cardinalidade ao salvar Worker em bases externas
// (Redis/Prometheus) com muitos workers efêmeros.
type StatsEvent struct {
	Coordinator string
	Role        Role
	Worker      int

	// Filled é a contagem de vagas preenchidas reportada pela operação.
	Filled int

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de execução.
//
// Implementações podem armazenar em Redis, memória, etc.
// O worker trata erro como best-effort (não aborta o loop).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
