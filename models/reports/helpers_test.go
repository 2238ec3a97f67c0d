package reports

import (
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream/upstreamtest"
)

type obj = map[string]any

func ptr[T any](v T) *T { return &v }

func salesFixture() *upstreamtest.Port {
	return upstreamtest.New().
		With(upstream.ResourceOrders,
			obj{"id": 1, "fecha": "2025-01-02T09:00:00Z", "total": "100.00", "estado": "pagado", "detalles": []obj{
				{"productoId": 7, "cantidad_solicitada": 3, "subtotal": "90.00"},
				{"productoId": 8, "cantidad_solicitada": 1, "subtotal": "10.00"},
			}},
			obj{"id": 2, "fecha": "2025-01-02T15:30:00Z", "total": 45.5, "estado": " Pendiente ", "detalles": []obj{
				{"productoId": 8, "cantidad_solicitada": 5, "subtotal": 40},
				{"cantidad_solicitada": 9, "subtotal": 5.5},
			}},
			obj{"id": 3, "fecha": "2025-01-01", "total": "12.25", "estado": "cancelado", "detalles": []obj{
				{"productoId": 9, "cantidad_solicitada": 3, "subtotal": "12.25"},
			}},
			obj{"id": 4, "total": 0, "estado": "ENTREGADO"},
		).
		With(upstream.ResourceProducts,
			obj{"id": 7, "nombre": "Chifle salado", "precio": "30.00"},
			obj{"id": 8, "nombre": "Chifle dulce", "precio": "8.00"},
			obj{"id": 9, "nombre": "Chifle picante", "precio": "4.08"},
		)
}

func productionFixture() *upstreamtest.Port {
	return upstreamtest.New().
		With(upstream.ResourceProductionOrders,
			obj{"id": 1, "fecha_inicio": "2025-01-03T08:00:00Z", "estado": "Completada", "productoId": 7, "cantidad_producir": 100, "detalles": []obj{
				{"insumoId": 5, "cantidad_utilizada": "2.0"},
				{"insumoId": 6, "cantidad_utilizada": 1},
			}},
			obj{"id": 2, "fecha_inicio": "2025-01-01", "estado": "en proceso", "productoId": 8, "cantidad_producir": 20, "detalles": []obj{
				{"insumoId": 5, "cantidad_utilizada": "3.5"},
				{"cantidad_utilizada": 50},
			}},
			obj{"id": 3, "estado": "pendiente", "productoId": 7, "cantidad_producir": 30},
			obj{"id": 4, "fecha_inicio": "2025-01-03", "estado": "cancelada", "cantidad_producir": 5},
		).
		With(upstream.ResourceProducts,
			obj{"id": 7, "nombre": "Chifle salado"},
			obj{"id": 8, "nombre": "Chifle dulce"},
		).
		With(upstream.ResourceSupplies,
			obj{"id": 5, "nombre": "Platano verde", "unidad_medida": "kg"},
			obj{"id": 6, "nombre": "Sal", "unidad_medida": "g"},
		)
}
