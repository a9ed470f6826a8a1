package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	cashrules "github.com/jhoicas/retaguarda-api/internal/domain/cashier"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/infrastructure/pdf"
)

func TestRenderSessionReport(t *testing.T) {
	tenant := entity.Tenant{StoreID: "store-1", CompanyID: "company-1"}
	opened := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	closed := opened.Add(9 * time.Hour)
	s := &entity.CashSession{
		ID: "s1", Tenant: tenant, RegisterNumber: 1, SessionCode: 4,
		Status: entity.SessionStatusClosed, OpeningBalance: decimal.NewFromInt(100),
		OpenedBy: "u1", OpenedAt: opened, ClosedBy: "u2", ClosedAt: &closed,
	}
	movements := []*entity.Movement{
		{ID: "m1", Tenant: tenant, Number: 1, SessionID: "s1", Direction: entity.DirectionIn,
			Amount: decimal.RequireFromString("1250000.50"), Instrument: entity.InstrumentCash, SourceKind: entity.SourceSale},
		{ID: "m2", Tenant: tenant, Number: 2, SessionID: "s1", Direction: entity.DirectionOut,
			Amount: decimal.NewFromInt(30), Instrument: entity.InstrumentPix, SourceKind: entity.SourceManual, Description: "retiro"},
		{ID: "m3", Tenant: tenant, Number: 3, SessionID: "s1", Direction: entity.DirectionIn,
			Amount: decimal.NewFromInt(5), Instrument: entity.InstrumentCash, Annulled: true,
			SourceKind: entity.SourceReversal, OriginalSourceKind: entity.SourceSale},
	}

	out, err := pdf.NewSessionReportRenderer().RenderSessionReport(context.Background(), ports.SessionReport{
		Session:   s,
		Summary:   cashrules.Summarize(s, movements),
		Movements: movements,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderSessionReport_SinMovimientos(t *testing.T) {
	s := &entity.CashSession{
		ID: "s1", Tenant: entity.Tenant{StoreID: "a", CompanyID: "b"}, RegisterNumber: 2, SessionCode: 1,
		Status: entity.SessionStatusOpen, OpenedBy: "u1", OpenedAt: time.Now(),
	}
	out, err := pdf.NewSessionReportRenderer().RenderSessionReport(context.Background(), ports.SessionReport{
		Session: s,
		Summary: cashrules.Summarize(s, nil),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
