// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - ChanSemaphore: semáforo contador baseado em channel
//   - Registry: nomes compartilhados (empty/filled/guard) com limpeza periódica
//   - Pacer: espaçamento entre iterações usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore: estatísticas de produção/consumo
package infra
