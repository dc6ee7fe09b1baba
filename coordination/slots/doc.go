// Package slots coordena produtores e consumidores sobre um buffer limitado de
// capacidade fixa, usando o par clássico de semáforos contadores (vagas livres /
// vagas preenchidas) mais um guard de exclusão mútua.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (Semaphore, Slots, Namespace, erros)
//   - application: casos de uso (Coordinator, Worker) sem infraestrutura concreta
//   - infra: implementações concretas (semáforo em channel, registry nomeado, pacer, stats)
//   - slots (este pacote): wiring de uma execução completa + handler HTTP de status
//
// Fluxo de Run:
//
//   1) Remove nome antigo (stale) do namespace
//   2) Cria o coordenador com capacidade C
//   3) Dispara P produtores e Q consumidores, cada um com N iterações
//   4) Espera todos terminarem e só então chama Destroy
//
// Variáveis de ambiente do binário (cmd/producer-consumer) controlam o comportamento,
// como SLOTS_CAPACITY, SLOTS_PRODUCERS, SLOTS_CONSUMERS e SLOTS_ITERATIONS.
package slots
