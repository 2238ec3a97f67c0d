package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/chifles_reporting/models"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type ReporteVentas struct {
	TotalVentas          float64                   `json:"totalVentas"`
	TotalPedidos         int                       `json:"totalPedidos"`
	CantidadPedidos      int                       `json:"cantidadPedidos"`
	PedidosCompletados   int                       `json:"pedidosCompletados"`
	PedidosPendientes    int                       `json:"pedidosPendientes"`
	VentasPorProducto    []*VentaProducto          `json:"ventasPorProducto"`
	ProductosMasVendidos []*ProductoVendidoReporte `json:"productosMasVendidos"`
	VentasPorDia         []*VentaDiaria            `json:"ventasPorDia"`
}

type VentaProducto struct {
	ProductoId      int64   `json:"productoId"`
	ProductoNombre  *string `json:"productoNombre"`
	CantidadVendida int64   `json:"cantidadVendida"`
	TotalVendido    float64 `json:"totalVendido"`
}

type ProductoVendidoReporte struct {
	IdProducto      int64   `json:"idProducto"`
	Nombre          *string `json:"nombre"`
	CantidadVendida int64   `json:"cantidadVendida"`
	TotalVendido    float64 `json:"totalVendido"`
}

type VentaDiaria struct {
	Fecha    string  `json:"fecha"`
	Total    float64 `json:"total"`
	Cantidad int     `json:"cantidad"`
}

type daySales struct {
	total decimal.Decimal
	count int
}

// GetSalesReport summarizes orders in the range, all statuses included.
func GetSalesReport(ctx context.Context, port upstream.Port, dates DateRange) (result *ReporteVentas, err error) {
	dates = dates.normalized()
	if err := validateInput(dates); err != nil {
		return nil, err
	}

	ctx, done := startReport(ctx, "GetSalesReport")
	defer func() { done(err, nil) }()

	orders, err := models.ListOrders(ctx, port, models.OrderFilters{
		FechaInicio: dates.FechaInicio,
		FechaFin:    dates.FechaFin,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	total := decimal.Zero
	var counts statusCounts
	days := newDayBuckets[daySales]()
	for _, o := range orders {
		total = total.Add(o.Total)
		counts.add(classify(salesStatuses, o.Estado))
		day := days.at(dayKey(o.Fecha))
		day.total = day.total.Add(o.Total)
		day.count++
	}

	ranked := sumProductSales(orders)
	names, err := newLookupLoaders(port).products(ctx, lo.Map(ranked, func(r *productSales, _ int) int64 { return r.productoId }))
	if err != nil {
		return nil, err
	}

	result = &ReporteVentas{
		TotalVentas:        total.InexactFloat64(),
		TotalPedidos:       len(orders),
		CantidadPedidos:    len(orders),
		PedidosCompletados: counts.completed,
		PedidosPendientes:  counts.pending,
		VentasPorProducto: lo.Map(ranked, func(r *productSales, _ int) *VentaProducto {
			return &VentaProducto{
				ProductoId:      r.productoId,
				ProductoNombre:  productName(names, r.productoId),
				CantidadVendida: r.cantidad,
				TotalVendido:    r.subtotal.InexactFloat64(),
			}
		}),
		ProductosMasVendidos: lo.Map(ranked, func(r *productSales, _ int) *ProductoVendidoReporte {
			return &ProductoVendidoReporte{
				IdProducto:      r.productoId,
				Nombre:          productName(names, r.productoId),
				CantidadVendida: r.cantidad,
				TotalVendido:    r.subtotal.InexactFloat64(),
			}
		}),
		VentasPorDia: lo.Map(days.sortedKeys(), func(key string, _ int) *VentaDiaria {
			d := days.at(key)
			return &VentaDiaria{Fecha: key, Total: d.total.InexactFloat64(), Cantidad: d.count}
		}),
	}
	return result, nil
}
