package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/chifles_reporting/models"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"go.opentelemetry.io/otel/attribute"
)

type PedidoResumen struct {
	Id     int64   `json:"id"`
	Fecha  *string `json:"fecha"`
	Total  float64 `json:"total"`
	Estado *string `json:"estado"`
}

// GetOrdersByClient projects the client's orders without aggregating them.
// Orders without an id are skipped.
func GetOrdersByClient(ctx context.Context, port upstream.Port, clienteId int64, dates DateRange) (results []*PedidoResumen, err error) {
	dates = dates.normalized()
	if err := validateInput(clientOrdersInput{ClienteId: clienteId, DateRange: dates}); err != nil {
		return nil, err
	}

	ctx, done := startReport(ctx, "GetOrdersByClient", attribute.Int64("clienteId", clienteId))
	defer func() { done(err, map[string]any{"rows": len(results)}) }()

	orders, err := models.ListOrders(ctx, port, models.OrderFilters{
		ClienteId:   &clienteId,
		FechaInicio: dates.FechaInicio,
		FechaFin:    dates.FechaFin,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	results = make([]*PedidoResumen, 0, len(orders))
	for _, o := range orders {
		if o.ID == nil {
			continue
		}
		results = append(results, &PedidoResumen{
			Id:     *o.ID,
			Fecha:  o.Fecha,
			Total:  o.Total.InexactFloat64(),
			Estado: o.Estado,
		})
	}
	return results, nil
}
