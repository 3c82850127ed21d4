package routing

import (
	"sort"

	"github.com/jhoicas/Entregas-api/internal/domain/entity"
)

// Motivos por los que un pedido queda sin ruta. Son resultados reportados del
// empaquetado, nunca errores.
const (
	ReasonNoAgentAvailable = "no_agent_available"
	ReasonZoneUncovered    = "zone_uncovered"
)

// OpenRoute ruta con capacidad restante durante un ciclo de planificación.
// AssignmentID vacío = ruta nueva de este ciclo; no vacío = asignación
// `pending` existente que aún admite pedidos (re-ejecución del ciclo).
type OpenRoute struct {
	AssignmentID string
	MessengerID  string
	Zone         string // zona dominante (la primera que abrió la ruta)
	Remaining    int
	Orders       []*entity.Order // pedidos colocados en este ciclo
}

// Unassigned pedido que el empaquetado no pudo colocar, con su motivo.
// Entidad de reporte para intervención manual; no se persiste.
type Unassigned struct {
	Order  *entity.Order
	Reason string
}

// PackResult resultado de un ciclo de empaquetado.
type PackResult struct {
	Routes     []*OpenRoute
	Unassigned []Unassigned
}

// PlacedCount total de pedidos colocados en rutas en este ciclo.
func (r PackResult) PlacedCount() int {
	n := 0
	for _, rt := range r.Routes {
		n += len(rt.Orders)
	}
	return n
}

// PackRoutes empaqueta los grupos de zona en rutas de capacidad fija con un
// greedy first-fit por zona:
//
//  1. Los grupos se procesan en orden descendente de cantidad de pedidos
//     (desempate por clave de zona, estable).
//  2. Un grupo completo cae en una ruta ya abierta de un mensajero que cubra
//     la zona si cabe en su capacidad restante.
//  3. Si no cabe completo, se abren rutas nuevas para los siguientes
//     mensajeros elegibles, cada una con un tramo contiguo de tamaño máximo
//     `capacity` (el orden del tramo sigue el orden estable del grupo; la
//     geometría de la ruta queda fuera de alcance).
//  4. Lo que no quepa en ninguna ruta se reporta como Unassigned.
//
// Garantía: Σ pedidos colocados + len(Unassigned) == Σ pedidos de entrada, y
// ninguna ruta excede `capacity`. Las rutas sembradas en `open` (asignaciones
// `pending` de un ciclo anterior) solo reciben pedidos; las rutas en curso o
// completadas no deben sembrarse.
func PackRoutes(groups []ZoneGroup, messengers []*entity.Messenger, open []*OpenRoute, capacity int) PackResult {
	if capacity <= 0 {
		capacity = entity.DefaultRouteCapacity
	}

	openByMessenger := make(map[string]*OpenRoute, len(open))
	routes := make([]*OpenRoute, 0, len(open))
	for _, r := range open {
		openByMessenger[r.MessengerID] = r
		routes = append(routes, r)
	}

	// Orden de trabajo: zonas grandes primero, desempate estable por clave.
	work := make([]ZoneGroup, len(groups))
	copy(work, groups)
	sort.SliceStable(work, func(i, j int) bool {
		if len(work[i].Orders) != len(work[j].Orders) {
			return len(work[i].Orders) > len(work[j].Orders)
		}
		return work[i].Zone < work[j].Zone
	})

	var unassigned []Unassigned

	for _, g := range work {
		elig := eligibleFor(messengers, g.Zone)
		if len(elig) == 0 {
			for _, o := range g.Orders {
				unassigned = append(unassigned, Unassigned{Order: o, Reason: ReasonZoneUncovered})
			}
			continue
		}

		rest := g.Orders

		// Zona completa a una ruta ya abierta si cabe.
		for _, m := range elig {
			r, ok := openByMessenger[m.ID]
			if ok && len(rest) <= r.Remaining {
				place(r, rest)
				rest = nil
				break
			}
		}

		// Abrir rutas nuevas con tramos contiguos de tamaño capacity.
		for len(rest) > 0 {
			m := nextWithoutRoute(elig, openByMessenger)
			if m == nil {
				break
			}
			r := &OpenRoute{MessengerID: m.ID, Zone: g.Zone, Remaining: capacity}
			openByMessenger[m.ID] = r
			routes = append(routes, r)

			n := min(r.Remaining, len(rest))
			place(r, rest[:n])
			rest = rest[n:]
		}

		// First-fit sobre capacidad restante de rutas ya abiertas.
		for len(rest) > 0 {
			r := firstWithCapacity(elig, openByMessenger)
			if r == nil {
				break
			}
			n := min(r.Remaining, len(rest))
			place(r, rest[:n])
			rest = rest[n:]
		}

		for _, o := range rest {
			unassigned = append(unassigned, Unassigned{Order: o, Reason: ReasonNoAgentAvailable})
		}
	}

	return PackResult{Routes: routes, Unassigned: unassigned}
}

func eligibleFor(messengers []*entity.Messenger, zone string) []*entity.Messenger {
	var elig []*entity.Messenger
	for _, m := range messengers {
		if m.Active && m.Covers(zone) {
			elig = append(elig, m)
		}
	}
	return elig
}

func nextWithoutRoute(elig []*entity.Messenger, open map[string]*OpenRoute) *entity.Messenger {
	for _, m := range elig {
		if _, ok := open[m.ID]; !ok {
			return m
		}
	}
	return nil
}

func firstWithCapacity(elig []*entity.Messenger, open map[string]*OpenRoute) *OpenRoute {
	for _, m := range elig {
		if r, ok := open[m.ID]; ok && r.Remaining > 0 {
			return r
		}
	}
	return nil
}

func place(r *OpenRoute, orders []*entity.Order) {
	r.Orders = append(r.Orders, orders...)
	r.Remaining -= len(orders)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
