// Package pdf implementa la generación de la hoja de ruta imprimible que el
// mensajero lleva en la calle.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Mensajero + Zona  │  Fecha de ruta + N° pedidos    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Cliente | Dirección | Teléfono | Monto | Firma   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: pedidos / monto a recaudar                        │
//	│  FOOTER: casillas de desenlace por pedido                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

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

	approuting "github.com/jhoicas/Entregas-api/internal/application/routing"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// Ensure RouteSheetGenerator implements routing.SheetGenerator.
var _ approuting.SheetGenerator = (*RouteSheetGenerator)(nil)

// RouteSheetGenerator implementa routing.SheetGenerator usando Maroto v2.
type RouteSheetGenerator struct{}

// NewRouteSheetGenerator construye el generador.
func NewRouteSheetGenerator() *RouteSheetGenerator { return &RouteSheetGenerator{} }

// GenerateRouteSheet genera el PDF de la hoja de ruta y devuelve sus bytes.
func (g *RouteSheetGenerator) GenerateRouteSheet(
	_ context.Context,
	assignment *entity.RouteAssignment,
	messenger *entity.Messenger,
	orders []*entity.Order,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de Ruta", true).
		WithAuthor(messenger.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(assignment, messenger, len(orders)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableOrderRows(orders) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(orders))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows()...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar hoja de ruta: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: mensajero + zona (izq) y fecha de ruta + total de pedidos (der).
func headerRow(assignment *entity.RouteAssignment, messenger *entity.Messenger, orderCount int) core.Row {
	fecha := assignment.RouteDate.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(messenger.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Zona: "+nonEmpty(assignment.Zone, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("HOJA DE RUTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(fecha, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New(fmt.Sprintf("Pedidos: %d", orderCount), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de pedidos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Cliente", 3, align.Left),
		h("Dirección", 4, align.Left),
		h("Teléfono", 2, align.Left),
		h("Monto", 2, align.Right),
	)
}

// tableOrderRows: una fila por pedido, en el orden de la ruta.
func tableOrderRows(orders []*entity.Order) []core.Row {
	result := make([]core.Row, 0, len(orders))
	for i, o := range orders {
		result = append(result, row.New(9).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", i+1),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				o.CustomerName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(4).Add(text.New(
				nonEmpty(o.CustomerAddress, "—"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				nonEmpty(o.CustomerPhone, "—"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"₡"+o.TotalAmount.StringFixed(0),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(orders []*entity.Order) core.Row {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}

	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			text.New("Pedidos:", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
			}),
			text.New("TOTAL A RECAUDAR:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Top: 6, Right: 2,
			}),
		),
		col.New(3).Add(
			text.New(fmt.Sprintf("%d", len(orders)), props.Text{
				Size: 9, Align: align.Right, Right: 1,
			}),
			text.New("₡"+total.StringFixed(0), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Top: 6, Right: 1,
			}),
		),
	)
}

// footerRows: leyenda de desenlaces para marcar a mano en la calle.
func footerRows() []core.Row {
	return []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("DESENLACES", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(8).Add(col.New(12).Add(
			text.New(
				"Marque el desenlace de cada pedido: E = entregado, D = devolución, R = reagendado. "+
					"Reporte los desenlaces en el sistema al cerrar la ruta.",
				props.Text{Size: 6.5, Color: colorGray, Top: 2},
			),
		)),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
