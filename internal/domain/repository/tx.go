package repository

import "github.com/jhoicas/retaguarda-api/internal/domain/entity"

// Tx repositorios atados a una misma unidad de trabajo: todo lo escrito a través de ellos
// se confirma o se descarta en bloque.
type Tx interface {
	Products() ProductRepository
	StockMovements() StockMovementRepository
	Sessions() CashSessionRepository
	Movements() MovementRepository
	Obligations() ObligationRepository
	Documents(kind entity.DocumentKind) DocumentRepository
	Sequences() SequenceRepository
}
