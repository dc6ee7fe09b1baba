// Package application contém os casos de uso (regras de aplicação) do buffer
// limitado: o coordenador de vagas e o loop dos workers.
//
// Ele depende apenas do pacote domain.
// Ex.: Coordinator.ProduceOne(ctx) converte uma vaga livre em preenchida e
// retorna o novo total preenchido.
package application
