package routing_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/routing"
)

func pedido(id, province, canton, district string) *entity.Order {
	return &entity.Order{
		ID:          id,
		Province:    province,
		Canton:      canton,
		District:    district,
		TotalAmount: decimal.NewFromInt(1000),
	}
}

func TestNormalizeZone(t *testing.T) {
	cases := map[string]string{
		"Limón":        "limon",
		"limon":        "limon",
		"  San José  ": "san jose",
		"PÉREZ ZELEDÓN": "perez zeledon",
		"":             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, routing.NormalizeZone(in), "NormalizeZone(%q)", in)
	}
}

// La clave por pedido y la clave con la que agrupa el empaquetador salen de
// la misma derivación: lo que se persista con ZoneKeyOf siempre coincide con
// el bucket del agrupador, tildes incluidas.
func TestZoneKeyOf_CoincideConElAgrupador(t *testing.T) {
	acentuado := pedido("a", "Limón", "", "Limón")
	plano := pedido("b", "Limon", "", "Limon")

	groups := routing.GroupByZone([]*entity.Order{acentuado, plano})
	require.Len(t, groups, 1)

	assert.Equal(t, "limon", routing.ZoneKeyOf(acentuado))
	assert.Equal(t, routing.ZoneKeyOf(plano), routing.ZoneKeyOf(acentuado))
	assert.Equal(t, groups[0].Zone, routing.ZoneKeyOf(acentuado),
		"clave persistida y clave de agrupación deben ser la misma")
}

// ZoneKeyOf respeta la precedencia distrito > cantón > provincia.
func TestZoneKeyOf_Precedencia(t *testing.T) {
	assert.Equal(t, "carmen", routing.ZoneKeyOf(pedido("a", "San José", "Central", "Carmen")))
	assert.Equal(t, "central", routing.ZoneKeyOf(pedido("b", "San José", "Central", "")))
	assert.Equal(t, "san jose", routing.ZoneKeyOf(pedido("c", "San José", "", "")))
}

// "Limón" y "limon" deben caer en el mismo bucket aunque vengan digitados distinto.
func TestGroupByZone_NormalizaTildes(t *testing.T) {
	orders := []*entity.Order{
		pedido("a", "Limón", "", ""),
		pedido("b", "limon", "", ""),
		pedido("c", "LIMÓN", "", ""),
	}
	groups := routing.GroupByZone(orders)
	require.Len(t, groups, 1)
	assert.Equal(t, "limon", groups[0].Zone)
	assert.Len(t, groups[0].Orders, 3)
}

// La clave de zona prefiere distrito; cantón y provincia son respaldo.
func TestGroupByZone_PrecedenciaDistritoCantonProvincia(t *testing.T) {
	orders := []*entity.Order{
		pedido("a", "San José", "Central", "Carmen"),
		pedido("b", "San José", "Central", ""),
		pedido("c", "San José", "", ""),
	}
	groups := routing.GroupByZone(orders)
	require.Len(t, groups, 3)

	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Zone
	}
	assert.Equal(t, []string{"carmen", "central", "san jose"}, keys,
		"los grupos salen ordenados por clave de zona")
}

// Mismo conjunto de entrada, mismos grupos y mismo orden interno, siempre.
func TestGroupByZone_Determinista(t *testing.T) {
	var orders []*entity.Order
	for i := 0; i < 20; i++ {
		zone := "alajuela"
		if i%2 == 0 {
			zone = "heredia"
		}
		orders = append(orders, pedido(fmt.Sprintf("o-%02d", i), "", "", zone))
	}

	first := routing.GroupByZone(orders)
	for run := 0; run < 5; run++ {
		again := routing.GroupByZone(orders)
		require.Equal(t, len(first), len(again))
		for i := range first {
			assert.Equal(t, first[i].Zone, again[i].Zone)
			assert.Equal(t, first[i].OrderIDs(), again[i].OrderIDs(),
				"el orden interno del grupo debe ser estable entre corridas")
		}
	}
}

// El orden interno de cada grupo respeta el orden de entrada (creación).
func TestGroupByZone_OrdenInternoEstable(t *testing.T) {
	orders := []*entity.Order{
		pedido("1", "", "", "pavas"),
		pedido("2", "", "", "escazu"),
		pedido("3", "", "", "pavas"),
		pedido("4", "", "", "pavas"),
	}
	groups := routing.GroupByZone(orders)
	require.Len(t, groups, 2)

	assert.Equal(t, "escazu", groups[0].Zone)
	assert.Equal(t, []string{"2"}, groups[0].OrderIDs())
	assert.Equal(t, "pavas", groups[1].Zone)
	assert.Equal(t, []string{"1", "3", "4"}, groups[1].OrderIDs())
}

func TestGroupByZone_AcumulaMonto(t *testing.T) {
	a := pedido("a", "", "", "tibas")
	a.TotalAmount = decimal.NewFromInt(1500)
	b := pedido("b", "", "", "tibas")
	b.TotalAmount = decimal.NewFromInt(2500)

	groups := routing.GroupByZone([]*entity.Order{a, b})
	require.Len(t, groups, 1)
	assert.True(t, groups[0].TotalAmount.Equal(decimal.NewFromInt(4000)))
}
