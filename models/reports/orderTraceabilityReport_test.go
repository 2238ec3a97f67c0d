package reports

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream/upstreamtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func traceFixture() *upstreamtest.Port {
	return upstreamtest.New().
		With(upstream.ResourceOrders,
			obj{"id": 42, "fecha": "2025-02-10", "estado": "pendiente", "detalles": []obj{
				{"productoId": 8, "cantidad_solicitada": 2},
				{"cantidad_solicitada": 1},
				{"producto": obj{"id": 7}, "cantidadSolicitada": "4"},
			}},
		).
		With(upstream.ResourceProducts,
			obj{"id": 7, "nombre": "Chifle salado"},
			obj{"id": 8, "nombre": "Chifle dulce"},
		).
		With(upstream.ResourceSupplies,
			obj{"id": 5, "nombre": "Platano verde", "unidad_medida": "kg"},
			obj{"id": 6, "nombre": "Sal", "unidad_medida": "g"},
			obj{"id": 9, "nombre": "Azucar", "unidad_medida": "g"},
		).
		With(upstream.ResourceRecipeEntries,
			obj{"id": 1, "productoId": 7, "insumoId": 5, "cantidad_necesaria": "0.5"},
			obj{"id": 2, "productoId": 7, "insumoId": 6, "cantidad_necesaria": 0.01},
			obj{"id": 3, "productoId": 8, "insumoId": 5, "cantidad_necesaria": "0.4"},
			obj{"id": 4, "productoId": 8, "insumoId": 9, "cantidad_necesaria": "0.05"},
		).
		WithFilter(upstream.ResourceRecipeEntries, func(record gjson.Result, filters upstream.Filters) bool {
			id, ok := filters["productoId"].(int64)
			return !ok || record.Get("productoId").Int() == id
		})
}

func TestOrderTraceabilityTree(t *testing.T) {
	port := traceFixture()
	r, err := GetOrderTraceability(context.Background(), port, 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), r.PedidoId)
	assert.Equal(t, "2025-02-10", *r.Fecha)
	assert.Equal(t, "pendiente", *r.Estado)

	require.Len(t, r.Productos, 2, "line items without productoId are skipped")
	dulce, salado := r.Productos[0], r.Productos[1]
	assert.Equal(t, int64(8), dulce.ProductoId)
	assert.Equal(t, "Chifle dulce", *dulce.Nombre)
	assert.Equal(t, int64(2), dulce.CantidadSolicitada)
	assert.Equal(t, int64(7), salado.ProductoId)
	assert.Equal(t, int64(4), salado.CantidadSolicitada)

	require.Len(t, salado.Receta, 2)
	assert.Equal(t, InsumoReceta{InsumoId: 5, InsumoNombre: ptr("Platano verde"), CantidadNecesaria: 0.5, UnidadMedida: ptr("kg")}, *salado.Receta[0])
	assert.Equal(t, int64(6), salado.Receta[1].InsumoId)
	require.Len(t, dulce.Receta, 2)
	assert.Equal(t, int64(9), dulce.Receta[1].InsumoId)

	assert.Equal(t, 2, port.CollectionCalls(upstream.ResourceRecipeEntries), "one recipe fetch per distinct product")
	assert.Equal(t, 1, port.ByIDCalls(upstream.ResourceSupplies, 5), "shared supplies are looked up once")
}

func TestOrderTraceabilityToleratesLookupFailures(t *testing.T) {
	port := traceFixture().
		FailByID(upstream.ResourceProducts, 8, upstream.Rejected(upstream.ResourceProducts, 500, "boom")).
		FailByID(upstream.ResourceSupplies, 5, upstream.Unavailable(upstream.ResourceSupplies, context.DeadlineExceeded))

	r, err := GetOrderTraceability(context.Background(), port, 42)
	require.NoError(t, err)
	assert.Nil(t, r.Productos[0].Nombre)
	assert.Equal(t, "Chifle salado", *r.Productos[1].Nombre)
	assert.Nil(t, r.Productos[1].Receta[0].InsumoNombre)
	assert.Nil(t, r.Productos[1].Receta[0].UnidadMedida)
	assert.Equal(t, 0.5, r.Productos[1].Receta[0].CantidadNecesaria)
	assert.Equal(t, "Sal", *r.Productos[1].Receta[1].InsumoNombre)
}

func TestOrderTraceabilityRecipeFailureIsFatal(t *testing.T) {
	port := traceFixture().FailCollection(upstream.ResourceRecipeEntries, upstream.Rejected(upstream.ResourceRecipeEntries, 502, "Bad Gateway"))
	r, err := GetOrderTraceability(context.Background(), port, 42)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, upstream.ErrRejected)
	assert.Equal(t, 502, upstream.StatusOf(err))
}

func TestOrderTraceabilityNotFound(t *testing.T) {
	port := traceFixture()
	r, err := GetOrderTraceability(context.Background(), port, 999)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, upstream.ErrNotFound)
	assert.Zero(t, port.CollectionCalls(upstream.ResourceRecipeEntries))
}

func TestOrderTraceabilityRejectsInvalidId(t *testing.T) {
	port := traceFixture()
	for _, id := range []int64{0, -3} {
		_, err := GetOrderTraceability(context.Background(), port, id)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, "gt", verr.Fields["pedidoId"])
	}
	assert.Zero(t, port.TotalByIDCalls(upstream.ResourceOrders))
}

func TestOrderTraceabilityWithoutLineItems(t *testing.T) {
	port := upstreamtest.New().With(upstream.ResourceOrders, obj{"id": 3, "estado": "nuevo"})
	r, err := GetOrderTraceability(context.Background(), port, 3)
	require.NoError(t, err)
	assert.NotNil(t, r.Productos)
	assert.Empty(t, r.Productos)
	assert.Nil(t, r.Fecha)
}
