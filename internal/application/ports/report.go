package ports

import (
	"context"

	cashrules "github.com/jhoicas/retaguarda-api/internal/domain/cashier"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// SessionReport datos del reporte de cierre de una caja.
type SessionReport struct {
	Session   *entity.CashSession
	Summary   cashrules.Summary
	Movements []*entity.Movement
}

// SessionReportRenderer genera la representación imprimible (PDF) del reporte de cierre.
type SessionReportRenderer interface {
	RenderSessionReport(ctx context.Context, report SessionReport) ([]byte, error)
}
