// Package memory almacenamiento transaccional en proceso, solo para desarrollo local y tests.
// Cada unidad de trabajo corre en exclusión mutua sobre una instantánea: si la función falla,
// el estado vuelve a la instantánea y nada de lo escrito queda visible.
//
// La instantánea copia todo el estado en cada Run, así que el costo crece con el volumen
// almacenado y no hay durabilidad entre reinicios. En producción se usa STORAGE_DRIVER=postgres.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

// Store implementa ports.TxRunner en memoria.
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	products       map[string]*entity.Product // tenant|code
	stockMovements []*entity.StockMovement
	sessions       map[string]*entity.CashSession
	movements      map[string]*entity.Movement
	obligations    map[string]*entity.Obligation
	documents      map[entity.DocumentKind]map[string]*entity.Document
	sequences      map[string]int64 // tenant|series
}

// New crea un almacenamiento vacío.
func New() *Store {
	return &Store{state: newState()}
}

func newState() *state {
	return &state{
		products:    map[string]*entity.Product{},
		sessions:    map[string]*entity.CashSession{},
		movements:   map[string]*entity.Movement{},
		obligations: map[string]*entity.Obligation{},
		documents: map[entity.DocumentKind]map[string]*entity.Document{
			entity.DocumentSale:         {},
			entity.DocumentServiceOrder: {},
		},
		sequences: map[string]int64{},
	}
}

// Run ejecuta fn en exclusión mutua; un error restaura el estado previo.
func (s *Store) Run(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&txRepos{st: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.products {
		c.products[k] = cloneProduct(v)
	}
	c.stockMovements = make([]*entity.StockMovement, len(st.stockMovements))
	for i, v := range st.stockMovements {
		cp := *v
		c.stockMovements[i] = &cp
	}
	for k, v := range st.sessions {
		c.sessions[k] = cloneSession(v)
	}
	for k, v := range st.movements {
		c.movements[k] = cloneMovement(v)
	}
	for k, v := range st.obligations {
		c.obligations[k] = cloneObligation(v)
	}
	for kind, docs := range st.documents {
		for k, v := range docs {
			c.documents[kind][k] = cloneDocument(v)
		}
	}
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	return c
}

type txRepos struct {
	st *state
}

func (t *txRepos) Products() repository.ProductRepository { return productRepo{t.st} }
func (t *txRepos) StockMovements() repository.StockMovementRepository {
	return stockMovementRepo{t.st}
}
func (t *txRepos) Sessions() repository.CashSessionRepository   { return sessionRepo{t.st} }
func (t *txRepos) Movements() repository.MovementRepository     { return movementRepo{t.st} }
func (t *txRepos) Obligations() repository.ObligationRepository { return obligationRepo{t.st} }
func (t *txRepos) Sequences() repository.SequenceRepository     { return sequenceRepo{t.st} }
func (t *txRepos) Documents(kind entity.DocumentKind) repository.DocumentRepository {
	return documentRepo{st: t.st, kind: kind}
}

func tenantKey(t entity.Tenant, key string) string {
	return t.StoreID + "|" + t.CompanyID + "|" + key
}

func cloneProduct(p *entity.Product) *entity.Product {
	cp := *p
	return &cp
}

func cloneSession(s *entity.CashSession) *entity.CashSession {
	cp := *s
	return &cp
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	cp := *m
	return &cp
}

func cloneObligation(o *entity.Obligation) *entity.Obligation {
	cp := *o
	cp.Settlements = make([]entity.Settlement, len(o.Settlements))
	for i, s := range o.Settlements {
		s.Reversals = append([]entity.SettlementReversal(nil), s.Reversals...)
		cp.Settlements[i] = s
	}
	return &cp
}

func cloneDocument(d *entity.Document) *entity.Document {
	cp := *d
	cp.Items = append([]entity.LineItem(nil), d.Items...)
	cp.Payments = make([]entity.PaymentEntry, len(d.Payments))
	for i, p := range d.Payments {
		p.Installments = append([]entity.InstallmentPlan(nil), p.Installments...)
		cp.Payments[i] = p
	}
	cp.History = append([]entity.StatusChange(nil), d.History...)
	if d.Service != nil {
		svc := *d.Service
		cp.Service = &svc
	}
	return &cp
}
