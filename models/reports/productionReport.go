package reports

import (
	"context"
	"fmt"
	"sort"

	"bitbucket.org/mmdatafocus/chifles_reporting/models"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const topSuppliesInProduction = 10

type ReporteProduccion struct {
	TotalOrdenesProduccion int                   `json:"totalOrdenesProduccion"`
	OrdenesCompletadas     int                   `json:"ordenesCompletadas"`
	OrdenesPendientes      int                   `json:"ordenesPendientes"`
	OrdenesEnProceso       int                   `json:"ordenesEnProceso"`
	ProduccionPorProducto  []*ProduccionProducto `json:"produccionPorProducto"`
	InsumosMasUtilizados   []*InsumoUtilizado    `json:"insumosMasUtilizados"`
	ProduccionPorDia       []*ProduccionDiaria   `json:"produccionPorDia"`
}

type ProduccionProducto struct {
	ProductoId        int64   `json:"productoId"`
	ProductoNombre    *string `json:"productoNombre"`
	CantidadProducida int64   `json:"cantidadProducida"`
}

type InsumoUtilizado struct {
	IdInsumo          int64   `json:"idInsumo"`
	Nombre            *string `json:"nombre"`
	CantidadUtilizada float64 `json:"cantidadUtilizada"`
}

type ProduccionDiaria struct {
	Fecha           string `json:"fecha"`
	CantidadOrdenes int    `json:"cantidadOrdenes"`
}

// GetProductionReport summarizes production orders. Orders without
// productoId still count toward totals, status buckets and days.
func GetProductionReport(ctx context.Context, port upstream.Port, dates DateRange) (result *ReporteProduccion, err error) {
	dates = dates.normalized()
	if err := validateInput(dates); err != nil {
		return nil, err
	}

	ctx, done := startReport(ctx, "GetProductionReport")
	defer func() { done(err, nil) }()

	orders, err := models.ListProductionOrders(ctx, port, models.ProductionOrderFilters{
		FechaInicio: dates.FechaInicio,
		FechaFin:    dates.FechaFin,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch production orders: %w", err)
	}

	var counts statusCounts
	days := newDayBuckets[int]()
	producedOrder := make([]int64, 0)
	produced := map[int64]int64{}
	for _, o := range orders {
		counts.add(classify(productionStatuses, o.Estado))
		*days.at(dayKey(o.FechaInicio))++

		if o.ProductoId == nil {
			continue
		}
		if _, seen := produced[*o.ProductoId]; !seen {
			producedOrder = append(producedOrder, *o.ProductoId)
		}
		produced[*o.ProductoId] += o.CantidadProducir
	}

	usage := sumSupplyUsage(orders)
	topSupplies := append([]int64(nil), usage.order...)
	sort.SliceStable(topSupplies, func(i, j int) bool {
		return usage.totals[topSupplies[i]].GreaterThan(usage.totals[topSupplies[j]])
	})
	if len(topSupplies) > topSuppliesInProduction {
		topSupplies = topSupplies[:topSuppliesInProduction]
	}

	loaders := newLookupLoaders(port)
	var products map[int64]*models.Product
	var supplies map[int64]*models.Supply
	var g errgroup.Group
	g.Go(func() (err error) {
		products, err = loaders.products(ctx, producedOrder)
		return err
	})
	g.Go(func() (err error) {
		supplies, err = loaders.supplies(ctx, topSupplies)
		return err
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	result = &ReporteProduccion{
		TotalOrdenesProduccion: len(orders),
		OrdenesCompletadas:     counts.completed,
		OrdenesPendientes:      counts.pending,
		OrdenesEnProceso:       counts.inProgress,
		ProduccionPorProducto: lo.Map(producedOrder, func(id int64, _ int) *ProduccionProducto {
			return &ProduccionProducto{
				ProductoId:        id,
				ProductoNombre:    productName(products, id),
				CantidadProducida: produced[id],
			}
		}),
		InsumosMasUtilizados: lo.Map(topSupplies, func(id int64, _ int) *InsumoUtilizado {
			row := &InsumoUtilizado{IdInsumo: id, CantidadUtilizada: usage.totals[id].InexactFloat64()}
			if s, ok := supplies[id]; ok {
				row.Nombre = s.Nombre
			}
			return row
		}),
		ProduccionPorDia: lo.Map(days.sortedKeys(), func(key string, _ int) *ProduccionDiaria {
			return &ProduccionDiaria{Fecha: key, CantidadOrdenes: *days.at(key)}
		}),
	}
	return result, nil
}
