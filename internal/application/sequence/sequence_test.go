package sequence_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retaguarda-api/internal/application/sequence"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/memory"
)

var tenant = entity.Tenant{StoreID: "store-1", CompanyID: "company-1"}

func next(t *testing.T, store *memory.Store, tn entity.Tenant, series string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.Run(context.Background(), func(tx repository.Tx) error {
		var err error
		n, err = sequence.Next(context.Background(), tx, tn, series)
		return err
	}))
	return n
}

func TestNext_EmpiezaEnUnoYPorSerie(t *testing.T) {
	store := memory.New()
	assert.Equal(t, int64(1), next(t, store, tenant, entity.SeriesSale))
	assert.Equal(t, int64(2), next(t, store, tenant, entity.SeriesSale))
	assert.Equal(t, int64(1), next(t, store, tenant, entity.SeriesServiceOrder))

	other := entity.Tenant{StoreID: "store-1", CompanyID: "company-2"}
	assert.Equal(t, int64(1), next(t, store, other, entity.SeriesSale))
}

func TestNextN_ReservaBloque(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	var first int64
	require.NoError(t, store.Run(ctx, func(tx repository.Tx) error {
		var err error
		first, err = sequence.NextN(ctx, tx, tenant, entity.SeriesReceivable, 3)
		return err
	}))
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(4), next(t, store, tenant, entity.SeriesReceivable))

	err := store.Run(ctx, func(tx repository.Tx) error {
		_, err := sequence.NextN(ctx, tx, tenant, entity.SeriesReceivable, 0)
		return err
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestNext_RollbackNoConsume(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	boom := errors.New("boom")
	err := store.Run(ctx, func(tx repository.Tx) error {
		if _, err := sequence.Next(ctx, tx, tenant, entity.SeriesMovement); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), next(t, store, tenant, entity.SeriesMovement))
}

func TestNext_ConcurrenteSinRepetidos(t *testing.T) {
	store := memory.New()
	const workers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var n int64
			err := store.Run(context.Background(), func(tx repository.Tx) error {
				var err error
				n, err = sequence.Next(context.Background(), tx, tenant, entity.SeriesCashSession)
				return err
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "falta el número %d", i)
	}
}
