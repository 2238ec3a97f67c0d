package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/chifles_reporting/models"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/shopspring/decimal"
)

type ConsumoInsumo struct {
	InsumoId      int64   `json:"insumoId"`
	InsumoNombre  *string `json:"insumoNombre"`
	CantidadTotal float64 `json:"cantidadTotal"`
	Unidad        *string `json:"unidad"`
}

// supplyUsage sums cantidad_utilizada per insumoId, keeping first-seen order.
// Usage entries without insumoId are skipped.
type supplyUsage struct {
	order  []int64
	totals map[int64]decimal.Decimal
}

func sumSupplyUsage(orders []*models.ProductionOrder) *supplyUsage {
	u := &supplyUsage{totals: map[int64]decimal.Decimal{}}
	for _, o := range orders {
		for _, d := range o.Detalles {
			if d.InsumoId == nil {
				continue
			}
			id := *d.InsumoId
			total, seen := u.totals[id]
			if !seen {
				u.order = append(u.order, id)
			}
			u.totals[id] = total.Add(d.CantidadUtilizada)
		}
	}
	return u
}

func GetSupplyConsumption(ctx context.Context, port upstream.Port, dates DateRange) (results []*ConsumoInsumo, err error) {
	dates = dates.normalized()
	if err := validateInput(dates); err != nil {
		return nil, err
	}

	ctx, done := startReport(ctx, "GetSupplyConsumption")
	defer func() { done(err, map[string]any{"rows": len(results)}) }()

	orders, err := models.ListProductionOrders(ctx, port, models.ProductionOrderFilters{
		FechaInicio: dates.FechaInicio,
		FechaFin:    dates.FechaFin,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch production orders: %w", err)
	}

	usage := sumSupplyUsage(orders)
	supplies, err := newLookupLoaders(port).supplies(ctx, usage.order)
	if err != nil {
		return nil, err
	}

	results = make([]*ConsumoInsumo, 0, len(usage.order))
	for _, id := range usage.order {
		row := &ConsumoInsumo{
			InsumoId:      id,
			CantidadTotal: usage.totals[id].InexactFloat64(),
		}
		if s, ok := supplies[id]; ok {
			row.InsumoNombre = s.Nombre
			row.Unidad = s.UnidadMedida
		}
		results = append(results, row)
	}
	return results, nil
}
