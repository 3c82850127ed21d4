// Package routing contiene la lógica pura de ruteo: agrupar pedidos por zona
// y empaquetarlos en rutas de capacidad fija. Sin I/O ni efectos: entra una
// lista de pedidos, salen grupos y asignaciones verificables por propiedades.
package routing

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Entregas-api/internal/domain/entity"
)

// ZoneGroup agregado transitorio de un ciclo de planificación: los pedidos de
// una misma zona en su orden estable de entrada. No se persiste; la fuente de
// verdad son los pedidos.
type ZoneGroup struct {
	Zone        string // clave normalizada
	DisplayName string // nombre tal como viene en los pedidos
	Orders      []*entity.Order
	TotalAmount decimal.Decimal
}

// OrderIDs devuelve los IDs en el orden interno del grupo.
func (g *ZoneGroup) OrderIDs() []string {
	ids := make([]string, len(g.Orders))
	for i, o := range g.Orders {
		ids[i] = o.ID
	}
	return ids
}

// zoneTransformer elimina diacríticos: "Limón" y "Limon" deben caer en el
// mismo bucket aunque el dato venga digitado distinto.
var zoneTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeZone normaliza una clave de zona: minúsculas, sin espacios
// extremos, sin tildes.
func NormalizeZone(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(zoneTransformer, s); err == nil {
		return out
	}
	return s
}

// ZoneKeyOf clave de zona normalizada de un pedido: distrito, o cantón/
// provincia como respaldo. Es la única derivación de clave de zona del
// sistema; todo el que agrupe, filtre o persista por zona debe pasar por
// aquí (o por NormalizeZone) para que dos digitaciones de la misma zona
// nunca produzcan claves distintas.
func ZoneKeyOf(o *entity.Order) string {
	key, _ := zoneOf(o)
	return key
}

// zoneOf clave de zona de un pedido: distrito, o cantón/provincia como
// respaldo cuando el distrito no viene.
func zoneOf(o *entity.Order) (key, display string) {
	switch {
	case strings.TrimSpace(o.District) != "":
		return NormalizeZone(o.District), strings.TrimSpace(o.District)
	case strings.TrimSpace(o.Canton) != "":
		return NormalizeZone(o.Canton), strings.TrimSpace(o.Canton)
	default:
		return NormalizeZone(o.Province), strings.TrimSpace(o.Province)
	}
}

// GroupByZone particiona los pedidos en buckets por zona. Determinista: el
// mismo conjunto de entrada produce los mismos grupos (ordenados por clave de
// zona) y el mismo orden interno (orden de entrada, que refleja el orden de
// creación). No muta los pedidos.
func GroupByZone(orders []*entity.Order) []ZoneGroup {
	byZone := make(map[string]*ZoneGroup)
	var keys []string
	for _, o := range orders {
		key, display := zoneOf(o)
		g, ok := byZone[key]
		if !ok {
			g = &ZoneGroup{Zone: key, DisplayName: display, TotalAmount: decimal.Zero}
			byZone[key] = g
			keys = append(keys, key)
		}
		g.Orders = append(g.Orders, o)
		g.TotalAmount = g.TotalAmount.Add(o.TotalAmount)
	}

	sort.Strings(keys)
	groups := make([]ZoneGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *byZone[k])
	}
	return groups
}
