package cashier

import (
	"context"
	"fmt"

	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	cashrules "github.com/jhoicas/retaguarda-api/internal/domain/cashier"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

// ReportUseCase reporte de cierre de caja en PDF.
type ReportUseCase struct {
	txRunner ports.TxRunner
	renderer ports.SessionReportRenderer
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(txRunner ports.TxRunner, renderer ports.SessionReportRenderer) *ReportUseCase {
	return &ReportUseCase{txRunner: txRunner, renderer: renderer}
}

// ClosingReport carga la sesión con sus asientos y genera el PDF. Una caja abierta también
// se puede imprimir (reporte parcial).
func (uc *ReportUseCase) ClosingReport(ctx context.Context, tenant entity.Tenant, sessionID string) (pdfBytes []byte, filename string, err error) {
	var report ports.SessionReport
	err = uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		s, err := tx.Sessions().GetByID(ctx, tenant, sessionID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrSessionNotFound.WithEntity(sessionID)
		}
		movements, err := tx.Movements().ListBySession(ctx, tenant, sessionID)
		if err != nil {
			return err
		}
		report = ports.SessionReport{Session: s, Summary: cashrules.Summarize(s, movements), Movements: movements}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	pdfBytes, err = uc.renderer.RenderSessionReport(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("reporte de caja: %w", err)
	}
	filename = fmt.Sprintf("cierre_caja_%d_%d.pdf", report.Session.RegisterNumber, report.Session.SessionCode)
	return pdfBytes, filename, nil
}
