package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

type productRepo struct{ st *state }

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	key := tenantKey(p.Tenant, p.Code)
	if _, ok := r.st.products[key]; ok {
		return domain.ErrDuplicate.WithEntity(p.Code)
	}
	r.st.products[key] = cloneProduct(p)
	return nil
}

func (r productRepo) GetByCode(_ context.Context, tenant entity.Tenant, code string) (*entity.Product, error) {
	p, ok := r.st.products[tenantKey(tenant, code)]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (r productRepo) GetByCodeForUpdate(ctx context.Context, tenant entity.Tenant, code string) (*entity.Product, error) {
	return r.GetByCode(ctx, tenant, code)
}

func (r productRepo) Update(_ context.Context, p *entity.Product) error {
	key := tenantKey(p.Tenant, p.Code)
	if _, ok := r.st.products[key]; !ok {
		return fmt.Errorf("update product %s: %w", p.Code, domain.ErrNotFound)
	}
	r.st.products[key] = cloneProduct(p)
	return nil
}

type stockMovementRepo struct{ st *state }

func (r stockMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	cp := *m
	r.st.stockMovements = append(r.st.stockMovements, &cp)
	return nil
}

func (r stockMovementRepo) ListByProduct(_ context.Context, tenant entity.Tenant, code string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for i := len(r.st.stockMovements) - 1; i >= 0; i-- {
		m := r.st.stockMovements[i]
		if m.Tenant == tenant && m.ProductCode == code {
			cp := *m
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset), nil
}

type sessionRepo struct{ st *state }

func (r sessionRepo) Create(_ context.Context, s *entity.CashSession) error {
	if s.Status == entity.SessionStatusOpen {
		for _, other := range r.st.sessions {
			if other.Tenant == s.Tenant && other.RegisterNumber == s.RegisterNumber && other.IsOpen() {
				return domain.ErrSessionAlreadyOpen.WithEntity(other.ID)
			}
		}
	}
	r.st.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r sessionRepo) Update(_ context.Context, s *entity.CashSession) error {
	stored, ok := r.st.sessions[s.ID]
	if !ok || stored.Tenant != s.Tenant {
		return fmt.Errorf("update session %s: %w", s.ID, domain.ErrNotFound)
	}
	s.Version = stored.Version + 1
	r.st.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r sessionRepo) GetByID(_ context.Context, tenant entity.Tenant, id string) (*entity.CashSession, error) {
	s, ok := r.st.sessions[id]
	if !ok || s.Tenant != tenant {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (r sessionRepo) GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.CashSession, error) {
	return r.GetByID(ctx, tenant, id)
}

func (r sessionRepo) FindOpen(_ context.Context, tenant entity.Tenant, registerNumber int) (*entity.CashSession, error) {
	for _, s := range r.st.sessions {
		if s.Tenant == tenant && s.RegisterNumber == registerNumber && s.IsOpen() {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (r sessionRepo) FindLatestOpen(_ context.Context, tenant entity.Tenant) (*entity.CashSession, error) {
	var latest *entity.CashSession
	for _, s := range r.st.sessions {
		if s.Tenant != tenant || !s.IsOpen() {
			continue
		}
		if latest == nil || s.OpenedAt.After(latest.OpenedAt) ||
			(s.OpenedAt.Equal(latest.OpenedAt) && s.SessionCode > latest.SessionCode) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneSession(latest), nil
}

func (r sessionRepo) FindLastClosed(_ context.Context, tenant entity.Tenant, registerNumber int) (*entity.CashSession, error) {
	var last *entity.CashSession
	for _, s := range r.st.sessions {
		if s.Tenant != tenant || s.RegisterNumber != registerNumber || s.IsOpen() || s.ClosedAt == nil {
			continue
		}
		if last == nil || s.ClosedAt.After(*last.ClosedAt) ||
			(s.ClosedAt.Equal(*last.ClosedAt) && s.SessionCode > last.SessionCode) {
			last = s
		}
	}
	if last == nil {
		return nil, nil
	}
	return cloneSession(last), nil
}

type movementRepo struct{ st *state }

func (r movementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.st.movements[m.ID] = cloneMovement(m)
	return nil
}

func (r movementRepo) Update(_ context.Context, m *entity.Movement) error {
	stored, ok := r.st.movements[m.ID]
	if !ok || stored.Tenant != m.Tenant {
		return fmt.Errorf("update movement %s: %w", m.ID, domain.ErrNotFound)
	}
	r.st.movements[m.ID] = cloneMovement(m)
	return nil
}

func (r movementRepo) Delete(_ context.Context, tenant entity.Tenant, id string) error {
	stored, ok := r.st.movements[id]
	if !ok || stored.Tenant != tenant {
		return fmt.Errorf("delete movement %s: %w", id, domain.ErrNotFound)
	}
	delete(r.st.movements, id)
	return nil
}

func (r movementRepo) GetByID(_ context.Context, tenant entity.Tenant, id string) (*entity.Movement, error) {
	m, ok := r.st.movements[id]
	if !ok || m.Tenant != tenant {
		return nil, nil
	}
	return cloneMovement(m), nil
}

func (r movementRepo) FindByReversalOf(_ context.Context, tenant entity.Tenant, originalID string) (*entity.Movement, error) {
	for _, m := range r.st.movements {
		if m.Tenant == tenant && m.ReversalOf == originalID {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

func (r movementRepo) ListBySession(_ context.Context, tenant entity.Tenant, sessionID string) ([]*entity.Movement, error) {
	return r.filter(func(m *entity.Movement) bool {
		return m.Tenant == tenant && m.SessionID == sessionID
	}), nil
}

func (r movementRepo) ListBySource(_ context.Context, tenant entity.Tenant, kind entity.SourceKind, documentID string) ([]*entity.Movement, error) {
	return r.filter(func(m *entity.Movement) bool {
		return m.Tenant == tenant && m.SourceDocumentID == documentID &&
			(m.SourceKind == kind || (m.Annulled && m.OriginalSourceKind == kind))
	}), nil
}

func (r movementRepo) filter(keep func(*entity.Movement) bool) []*entity.Movement {
	var out []*entity.Movement
	for _, m := range r.st.movements {
		if keep(m) {
			out = append(out, cloneMovement(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

type obligationRepo struct{ st *state }

func (r obligationRepo) Create(_ context.Context, o *entity.Obligation) error {
	r.st.obligations[o.ID] = cloneObligation(o)
	return nil
}

func (r obligationRepo) Update(_ context.Context, o *entity.Obligation) error {
	stored, ok := r.st.obligations[o.ID]
	if !ok || stored.Tenant != o.Tenant {
		return fmt.Errorf("update obligation %s: %w", o.ID, domain.ErrNotFound)
	}
	o.Version = stored.Version + 1
	r.st.obligations[o.ID] = cloneObligation(o)
	return nil
}

func (r obligationRepo) GetByID(_ context.Context, tenant entity.Tenant, id string) (*entity.Obligation, error) {
	o, ok := r.st.obligations[id]
	if !ok || o.Tenant != tenant {
		return nil, nil
	}
	return cloneObligation(o), nil
}

func (r obligationRepo) GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.Obligation, error) {
	return r.GetByID(ctx, tenant, id)
}

func (r obligationRepo) ListBySource(_ context.Context, tenant entity.Tenant, kind entity.SourceKind, documentID string) ([]*entity.Obligation, error) {
	var out []*entity.Obligation
	for _, o := range r.st.obligations {
		if o.Tenant == tenant && o.SourceKind == kind && o.SourceDocumentID == documentID {
			out = append(out, cloneObligation(o))
		}
	}
	sortByDue(out)
	return out, nil
}

func (r obligationRepo) List(_ context.Context, tenant entity.Tenant, f repository.ObligationFilter) ([]*entity.Obligation, error) {
	var out []*entity.Obligation
	for _, o := range r.st.obligations {
		if o.Tenant != tenant {
			continue
		}
		if (f.Kind != "" && o.Kind != f.Kind) || (f.PartyID != "" && o.PartyID != f.PartyID) ||
			(f.Status != "" && o.Status != f.Status) {
			continue
		}
		out = append(out, cloneObligation(o))
	}
	sortByDue(out)
	return page(out, f.Limit, f.Offset), nil
}

func sortByDue(list []*entity.Obligation) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].DueDate.Equal(list[j].DueDate) {
			return list[i].DueDate.Before(list[j].DueDate)
		}
		return list[i].Number < list[j].Number
	})
}

type documentRepo struct {
	st   *state
	kind entity.DocumentKind
}

func (r documentRepo) Create(_ context.Context, d *entity.Document) error {
	r.st.documents[r.kind][d.ID] = cloneDocument(d)
	return nil
}

func (r documentRepo) Update(_ context.Context, d *entity.Document) error {
	stored, ok := r.st.documents[r.kind][d.ID]
	if !ok || stored.Tenant != d.Tenant {
		return fmt.Errorf("update document %s: %w", d.ID, domain.ErrNotFound)
	}
	d.Version = stored.Version + 1
	r.st.documents[r.kind][d.ID] = cloneDocument(d)
	return nil
}

func (r documentRepo) GetByID(_ context.Context, tenant entity.Tenant, id string) (*entity.Document, error) {
	d, ok := r.st.documents[r.kind][id]
	if !ok || d.Tenant != tenant {
		return nil, nil
	}
	return cloneDocument(d), nil
}

func (r documentRepo) GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.Document, error) {
	return r.GetByID(ctx, tenant, id)
}

type sequenceRepo struct{ st *state }

func (r sequenceRepo) Increment(_ context.Context, tenant entity.Tenant, series string, n int) (int64, error) {
	key := tenantKey(tenant, series)
	r.st.sequences[key] += int64(n)
	return r.st.sequences[key], nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
