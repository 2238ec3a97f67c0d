package reports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream/upstreamtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesReportSingleOrderScenario(t *testing.T) {
	port := upstreamtest.New().
		With(upstream.ResourceOrders, obj{"id": 1, "total": 100, "estado": "pagado", "detalles": []obj{
			{"productoId": 7, "cantidad_solicitada": 3, "subtotal": 90},
		}}).
		With(upstream.ResourceProducts, obj{"id": 7, "nombre": "Chifle salado"})

	r, err := GetSalesReport(context.Background(), port, DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 100.0, r.TotalVentas)
	assert.Equal(t, 1, r.PedidosCompletados)
	assert.Equal(t, 0, r.PedidosPendientes)
	require.Len(t, r.VentasPorProducto, 1)
	assert.Equal(t, int64(7), r.VentasPorProducto[0].ProductoId)
	assert.Equal(t, int64(3), r.VentasPorProducto[0].CantidadVendida)
	assert.Equal(t, 90.0, r.VentasPorProducto[0].TotalVendido)
	assert.Equal(t, "Chifle salado", *r.VentasPorProducto[0].ProductoNombre)
}

func TestSalesReportAggregates(t *testing.T) {
	port := salesFixture()
	r, err := GetSalesReport(context.Background(), port, DateRange{})
	require.NoError(t, err)

	assert.InDelta(t, 157.75, r.TotalVentas, 1e-9)
	assert.Equal(t, 4, r.TotalPedidos)
	assert.Equal(t, 4, r.CantidadPedidos)
	assert.Equal(t, 2, r.PedidosCompletados, "pagado and ENTREGADO")
	assert.Equal(t, 1, r.PedidosPendientes, "trimmed Pendiente")

	// 8 sold 6, 7 sold 3, 9 sold 3: tie keeps first-seen order
	ids := make([]int64, 0)
	for _, v := range r.VentasPorProducto {
		ids = append(ids, v.ProductoId)
	}
	assert.Equal(t, []int64{8, 7, 9}, ids)
	require.Len(t, r.ProductosMasVendidos, 3)
	assert.Equal(t, int64(8), r.ProductosMasVendidos[0].IdProducto)
	assert.Equal(t, "Chifle dulce", *r.ProductosMasVendidos[0].Nombre)
	assert.Equal(t, 50.0, r.ProductosMasVendidos[0].TotalVendido)

	require.Len(t, r.VentasPorDia, 3)
	assert.Equal(t, "2025-01-01", r.VentasPorDia[0].Fecha)
	assert.Equal(t, "2025-01-02", r.VentasPorDia[1].Fecha)
	assert.InDelta(t, 145.5, r.VentasPorDia[1].Total, 1e-9)
	assert.Equal(t, 2, r.VentasPorDia[1].Cantidad)
	assert.Equal(t, noDateKey, r.VentasPorDia[2].Fecha)
}

func TestSalesPerProductTotalsMatchLineItems(t *testing.T) {
	port := salesFixture()
	r, err := GetSalesReport(context.Background(), port, DateRange{})
	require.NoError(t, err)

	// subtotals of line items with a productoId: 90 + 10 + 40 + 12.25
	sum := 0.0
	for _, v := range r.VentasPorProducto {
		sum += v.TotalVendido
	}
	assert.InDelta(t, 152.25, sum, 1e-9)
}

func TestSalesReportPassesDateFilters(t *testing.T) {
	port := salesFixture()
	_, err := GetSalesReport(context.Background(), port, DateRange{FechaInicio: ptr("2025-01-01"), FechaFin: ptr("  ")})
	require.NoError(t, err)

	values := port.LastFilters(upstream.ResourceOrders).Values()
	assert.Equal(t, "2025-01-01", values.Get("fechaInicio"))
	assert.False(t, values.Has("fechaFin"))
	assert.False(t, values.Has("clienteId"))
}

func TestSalesReportRejectsBadDate(t *testing.T) {
	_, err := GetSalesReport(context.Background(), salesFixture(), DateRange{FechaInicio: ptr("01/02/2025")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "isodate", verr.Fields["fechaInicio"])
}

func TestSalesReportEnrichmentFailureLeavesNameNull(t *testing.T) {
	port := salesFixture().FailByID(upstream.ResourceProducts, 8, upstream.Rejected(upstream.ResourceProducts, 500, "boom"))

	r, err := GetSalesReport(context.Background(), port, DateRange{})
	require.NoError(t, err)
	require.Len(t, r.VentasPorProducto, 3)
	assert.Nil(t, r.VentasPorProducto[0].ProductoNombre)
	assert.Nil(t, r.ProductosMasVendidos[0].Nombre)
	assert.Equal(t, "Chifle salado", *r.VentasPorProducto[1].ProductoNombre)
}

func TestSalesReportPrimaryFailureAborts(t *testing.T) {
	port := salesFixture().FailCollection(upstream.ResourceOrders, upstream.Rejected(upstream.ResourceOrders, 503, "Service Unavailable"))

	r, err := GetSalesReport(context.Background(), port, DateRange{})
	assert.Nil(t, r)
	assert.ErrorIs(t, err, upstream.ErrRejected)
	assert.Equal(t, 503, upstream.StatusOf(err))
	assert.Zero(t, port.TotalByIDCalls(upstream.ResourceProducts))
}

func TestSalesReportIsIdempotent(t *testing.T) {
	port := salesFixture()
	first, err := GetSalesReport(context.Background(), port, DateRange{})
	require.NoError(t, err)
	second, err := GetSalesReport(context.Background(), port, DateRange{})
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
}

func TestSalesReportEmptyOrders(t *testing.T) {
	r, err := GetSalesReport(context.Background(), upstreamtest.New(), DateRange{})
	require.NoError(t, err)
	assert.Zero(t, r.TotalVentas)
	assert.Empty(t, r.VentasPorProducto)
	assert.NotNil(t, r.VentasPorProducto)
	assert.Empty(t, r.VentasPorDia)
}
