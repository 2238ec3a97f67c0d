package reports

import (
	"context"
	"encoding/json"
	"testing"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream/upstreamtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inventoryFixture() *upstreamtest.Port {
	return upstreamtest.New().
		With(upstream.ResourceProducts,
			obj{"id": 1, "nombre": "Chifle salado", "precio": "2.50", "stock": 10},
			obj{"id": 2, "nombre": "Chifle dulce", "precioVenta": 3, "stock": "4"},
			obj{"nombre": "sin id", "precio_venta": 1, "stock": 1},
		).
		With(upstream.ResourceSupplies,
			obj{"id": 5, "nombre": "Platano", "unidad_medida": "kg", "stock": 10},
			obj{"id": 6, "nombre": "Sal", "stock": 11},
			obj{"id": 7, "nombre": "Aceite", "stock": 3, "stock_minimo": 3, "precio_unitario": "7.20"},
			obj{"id": 8, "nombre": "Ajo", "stock": 4, "stockMinimo": "3.5"},
		)
}

func TestInventoryReportTotalsAndListings(t *testing.T) {
	r, err := GetInventoryReport(context.Background(), inventoryFixture())
	require.NoError(t, err)

	assert.Equal(t, 3, r.TotalProductos)
	assert.Equal(t, 4, r.TotalInsumos)
	assert.InDelta(t, 2.5*10+3*4+1*1, r.ValorInventario, 1e-9)

	require.Len(t, r.Productos, 2)
	assert.Equal(t, ProductoInventario{Id: 2, Nombre: "Chifle dulce", Stock: 4, PrecioVenta: 3}, *r.Productos[1])

	require.Len(t, r.Insumos, 4)
	assert.Equal(t, 10.0, r.Insumos[0].StockMinimo, "absent threshold reports the default")
	assert.Equal(t, 7.2, r.Insumos[2].PrecioUnitario)
	assert.Nil(t, r.Insumos[1].UnidadMedida)
}

func TestInventoryLowStockIsBoundaryInclusive(t *testing.T) {
	r, err := GetInventoryReport(context.Background(), inventoryFixture())
	require.NoError(t, err)

	low := map[int64]bool{}
	for _, s := range r.InsumosStockBajo {
		low[s.Id] = true
	}
	assert.True(t, low[5], "stock 10 with default threshold 10")
	assert.False(t, low[6], "stock 11 with default threshold 10")
	assert.True(t, low[7], "stock equal to explicit threshold")
	assert.False(t, low[8], "stock above explicit threshold")

	for _, s := range r.Insumos {
		assert.Equal(t, s.Stock <= s.StockMinimo, low[s.Id], "supply %d", s.Id)
	}
}

func TestInventoryFetchFailureAborts(t *testing.T) {
	port := inventoryFixture().FailCollection(upstream.ResourceSupplies, upstream.Unavailable(upstream.ResourceSupplies, context.DeadlineExceeded))
	r, err := GetInventoryReport(context.Background(), port)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestInventoryReportIsIdempotent(t *testing.T) {
	port := inventoryFixture()
	first, err := GetInventoryReport(context.Background(), port)
	require.NoError(t, err)
	second, err := GetInventoryReport(context.Background(), port)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, 2, port.CollectionCalls(upstream.ResourceProducts))
}
