// Package domain define contratos e tipos de domínio para a coordenação de
// vagas de um buffer limitado (produtor/consumidor).
//
// Este pacote não depende de implementações concretas de semáforo nem de
// armazenamento de estatísticas. A intenção é permitir testes de unidade puros
// e desacoplar as regras de coordenação dos detalhes de infraestrutura.
package domain
