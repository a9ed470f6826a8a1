package cashier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retaguarda-api/internal/application/cashier"
	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/lock"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/memory"
	"github.com/jhoicas/retaguarda-api/pkg/logger"
)

type fakeRenderer struct {
	got ports.SessionReport
	err error
}

func (f *fakeRenderer) RenderSessionReport(_ context.Context, r ports.SessionReport) ([]byte, error) {
	f.got = r
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

func TestClosingReport(t *testing.T) {
	store := memory.New()
	sessions := cashier.NewSessionUseCase(store, lock.NewLocal(), logger.Nop())
	movements := cashier.NewMovementUseCase(store, cashier.NewLedger(), logger.Nop())
	renderer := &fakeRenderer{}
	reports := cashier.NewReportUseCase(store, renderer)
	ctx := context.Background()

	s, err := sessions.OpenSession(ctx, openInput(1, "10"))
	require.NoError(t, err)
	_, err = movements.PostMovement(ctx, manual(entity.DirectionIn, "15", entity.InstrumentCash))
	require.NoError(t, err)
	_, err = sessions.CloseSession(ctx, tenant, 1, "u1")
	require.NoError(t, err)

	out, filename, err := reports.ClosingReport(ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(out))
	assert.Equal(t, "cierre_caja_1_1.pdf", filename)
	assert.Equal(t, entity.SessionStatusClosed, renderer.got.Session.Status)
	assert.Len(t, renderer.got.Movements, 1)
	assert.True(t, renderer.got.Summary.CashBalance.Equal(d("25")))

	_, _, err = reports.ClosingReport(ctx, tenant, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))

	renderer.err = errors.New("sin fuentes")
	_, _, err = reports.ClosingReport(ctx, tenant, s.ID)
	assert.ErrorIs(t, err, renderer.err)
}
