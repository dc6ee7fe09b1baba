package domain

import "errors"

var (
	// ErrInitialization: não foi possível criar os objetos de sincronização
	// (nome já existente, capacidade inválida...). Não há retry automático.
	ErrInitialization = errors.New("slots: initialization failed")

	// ErrNotFound: tentativa de anexar a um coordenador inexistente.
	ErrNotFound = errors.New("slots: coordinator not found")

	// ErrSynchronization: a primitiva de wait/signal falhou (ex.: destruída
	// com worker bloqueado). É fatal para o worker.
	ErrSynchronization = errors.New("slots: synchronization failure")

	// ErrPrecondition: operação chamada fora do estado permitido
	// (ex.: Destroy com chamadas em andamento).
	ErrPrecondition = errors.New("slots: precondition violated")

	// ErrTimeout: o timeout opcional de aquisição expirou.
	ErrTimeout = errors.New("slots: acquire timeout")
)
