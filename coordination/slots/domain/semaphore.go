package domain

import "context"

// Semaphore é um semáforo contador.
//
// Wait bloqueia até o valor ser positivo e então decrementa; Signal incrementa e
// acorda no máximo um waiter. A ordem de despertar NÃO é FIFO.
type Semaphore interface {
	Wait(ctx context.Context) error
	Signal() error
	Value() int
	Close() error
}

// Slots é o conjunto de objetos nomeados que formam um coordenador:
// vagas livres, vagas preenchidas e o guard (exclusão mútua).
//
// Enter/Leave contam chamadas em andamento em todos os handles que compartilham
// o mesmo nome, para que Destroy só aconteça com o coordenador quiescente.
//
// Destroy age sobre ESTE conjunto, mesmo que o nome já aponte para outro
// (Unlink seguido de Create). Detach solta um handle sem destruir nada.
type Slots interface {
	Capacity() int
	Empty() Semaphore
	Filled() Semaphore
	Guard() Semaphore

	Enter() error
	Leave()

	Detach()
	Destroy() error
}

// Namespace resolve Slots por nome (equivalente aos nomes "/empty_count",
// "/item_count" e "/mutex" visíveis a todos os participantes).
type Namespace interface {
	Create(name string, capacity int) (Slots, error)
	Open(name string) (Slots, error)
	// Unlink remove apenas o nome; handles já abertos continuam válidos.
	Unlink(name string) error
	// Destroy fecha os semáforos do nome atual e remove o nome. Exige quiescência.
	Destroy(name string) error
}
