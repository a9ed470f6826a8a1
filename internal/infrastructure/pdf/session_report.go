// Package pdf genera el reporte de cierre de caja en PDF con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tienda/Empresa       │  Caja N° + Sesión + Estado  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  APERTURA / CIERRE: operador y fecha                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: N° | Sentido | Instrumento | Origen | Monto         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES POR INSTRUMENTO: Entradas / Salidas                 │
//	│  SALDO: Apertura / Efectivo al cierre                        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorMuted   = &props.Color{Red: 160, Green: 160, Blue: 160}
)

const dateLayout = "02/01/2006 15:04"

// ── Renderer ──────────────────────────────────────────────────────────────────

// SessionReportRenderer implementa ports.SessionReportRenderer usando Maroto v2.
type SessionReportRenderer struct{}

// NewSessionReportRenderer construye el generador.
func NewSessionReportRenderer() *SessionReportRenderer { return &SessionReportRenderer{} }

// RenderSessionReport genera el PDF y devuelve sus bytes.
func (g *SessionReportRenderer) RenderSessionReport(_ context.Context, r ports.SessionReport) ([]byte, error) {
	s := r.Session
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("Cierre de caja %d", s.RegisterNumber), true).
		WithAuthor(s.Tenant.String(), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(operatorsRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(movementRows(r.Movements)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(instrumentRows(r)...)
	m.AddRows(line.NewRow(2))
	m.AddRows(balanceRow(r))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(s *entity.CashSession) core.Row {
	status := "ABIERTA (reporte parcial)"
	if !s.IsOpen() {
		status = "CERRADA"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("REPORTE DE CIERRE DE CAJA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Tienda/Empresa: "+s.Tenant.String(), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("CAJA N° %d", s.RegisterNumber), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New(fmt.Sprintf("Sesión %d", s.SessionCode), props.Text{
				Size: 9, Align: align.Right, Top: 7,
			}),
			text.New(status, props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func operatorsRow(s *entity.CashSession) core.Row {
	closed := "-"
	if s.ClosedAt != nil {
		closed = fmt.Sprintf("%s por %s", s.ClosedAt.Format(dateLayout), s.ClosedBy)
	}
	return row.New(12).Add(
		col.New(6).Add(
			text.New("APERTURA", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("%s por %s", s.OpenedAt.Format(dateLayout), s.OpenedBy), props.Text{
				Size: 8, Top: 6, Color: colorGray,
			}),
		),
		col.New(6).Add(
			text.New("CIERRE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(closed, props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("N°", 1, align.Center),
		h("Sentido", 1, align.Center),
		h("Instrumento", 2, align.Left),
		h("Origen / descripción", 5, align.Left),
		h("Monto", 3, align.Right),
	)
}

// movementRows una fila por asiento; los anulados en sitio salen en gris y no suman.
func movementRows(movements []*entity.Movement) []core.Row {
	rows := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		color := (*props.Color)(nil)
		origin := string(mv.SourceKind)
		if mv.Annulled {
			color = colorMuted
			origin = fmt.Sprintf("%s (anulado)", mv.OriginalSourceKind)
		}
		if mv.Description != "" {
			origin += " · " + mv.Description
		}
		cell := func(a align.Type) props.Text {
			return props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1, Color: color}
		}
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", mv.Number), cell(align.Center))),
			col.New(1).Add(text.New(string(mv.Direction), cell(align.Center))),
			col.New(2).Add(text.New(string(mv.Instrument), cell(align.Left))),
			col.New(5).Add(text.New(origin, cell(align.Left))),
			col.New(3).Add(text.New(signed(mv), cell(align.Right))),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, row.New(7).Add(col.New(12).Add(
			text.New("Sin movimientos", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray}),
		)))
	}
	return rows
}

// instrumentRows totales por instrumento, en orden alfabético para que el reporte sea estable.
func instrumentRows(r ports.SessionReport) []core.Row {
	seen := map[entity.Instrument]bool{}
	for k := range r.Summary.TotalIn {
		seen[k] = true
	}
	for k := range r.Summary.TotalOut {
		seen[k] = true
	}
	instruments := make([]string, 0, len(seen))
	for k := range seen {
		instruments = append(instruments, string(k))
	}
	sort.Strings(instruments)

	rows := []core.Row{row.New(6).Add(
		col.New(6).Add(text.New("TOTALES POR INSTRUMENTO", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		})),
		col.New(3).Add(text.New("Entradas", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1})),
		col.New(3).Add(text.New("Salidas", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Right: 1})),
	)}
	for _, name := range instruments {
		k := entity.Instrument(name)
		rows = append(rows, row.New(5).Add(
			col.New(6).Add(text.New(name, props.Text{Size: 8, Top: 0.5, Left: 2})),
			col.New(3).Add(text.New(money(r.Summary.TotalIn[k]), props.Text{Size: 8, Align: align.Right, Top: 0.5})),
			col.New(3).Add(text.New(money(r.Summary.TotalOut[k]), props.Text{Size: 8, Align: align.Right, Top: 0.5, Right: 1})),
		))
	}
	return rows
}

func balanceRow(r ports.SessionReport) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Saldo de apertura:", 0),
			label(fmt.Sprintf("Movimientos (%d):", r.Summary.MovementCount), 6),
			text.New("EFECTIVO EN CAJA:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 12,
			}),
		),
		col.New(3).Add(
			text.New(money(r.Summary.OpeningBalance), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New(money(r.Summary.CashBalance.Sub(r.Summary.OpeningBalance)), props.Text{
				Size: 9, Align: align.Right, Right: 1, Top: 6,
			}),
			text.New(money(r.Summary.CashBalance), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 12,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func signed(mv *entity.Movement) string {
	if mv.Direction == entity.DirectionOut {
		return "-" + money(mv.Amount)
	}
	return money(mv.Amount)
}

// money formatea con separador de miles y dos decimales: 1234567.5 → "$1.234.567,50".
func money(v decimal.Decimal) string {
	neg := v.IsNegative()
	fixed := v.Abs().StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]
	out := "$" + thousands(intPart) + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

// thousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func thousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
