package models

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type ProductionOrder struct {
	ID               *int64                 `json:"id"`
	FechaInicio      *string                `json:"fecha_inicio"`
	FechaFin         *string                `json:"fecha_fin"`
	Estado           *string                `json:"estado"`
	ProductoId       *int64                 `json:"productoId"`
	CantidadProducir int64                  `json:"cantidad_producir"`
	Detalles         []ProductionUsageEntry `json:"detalles"`
}

type ProductionUsageEntry struct {
	ID                *int64          `json:"id"`
	OrdenProduccionId *int64          `json:"ordenProduccionId"`
	InsumoId          *int64          `json:"insumoId"`
	CantidadUtilizada decimal.Decimal `json:"cantidad_utilizada"`
}

var productionOrderFields = struct {
	ID, FechaInicio, FechaFin, Estado, ProductoId, CantidadProducir, Detalles spellings
}{
	ID:               spellings{"id"},
	FechaInicio:      spellings{"fecha_inicio", "fechaInicio"},
	FechaFin:         spellings{"fecha_fin", "fechaFin"},
	Estado:           spellings{"estado"},
	ProductoId:       spellings{"productoId", "producto.id"},
	CantidadProducir: spellings{"cantidad_producir", "cantidadProducir"},
	Detalles:         spellings{"detalles"},
}

var usageEntryFields = struct {
	ID, OrdenProduccionId, InsumoId, CantidadUtilizada spellings
}{
	ID:                spellings{"id"},
	OrdenProduccionId: spellings{"ordenProduccionId", "ordenProduccion.id"},
	InsumoId:          spellings{"insumoId", "insumo.id"},
	CantidadUtilizada: spellings{"cantidad_utilizada", "cantidadUtilizada"},
}

func (o *ProductionOrder) decode(r gjson.Result) {
	o.ID, _ = productionOrderFields.ID.idOf(r)
	o.FechaInicio = productionOrderFields.FechaInicio.stringOf(r)
	o.FechaFin = productionOrderFields.FechaFin.stringOf(r)
	o.Estado = productionOrderFields.Estado.stringOf(r)
	o.ProductoId, _ = productionOrderFields.ProductoId.idOf(r)
	o.CantidadProducir = productionOrderFields.CantidadProducir.intOf(r)

	items := productionOrderFields.Detalles.arrayOf(r)
	o.Detalles = make([]ProductionUsageEntry, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		var d ProductionUsageEntry
		d.decode(item)
		o.Detalles = append(o.Detalles, d)
	}
}

func (d *ProductionUsageEntry) decode(r gjson.Result) {
	d.ID, _ = usageEntryFields.ID.idOf(r)
	d.OrdenProduccionId, _ = usageEntryFields.OrdenProduccionId.idOf(r)
	d.InsumoId, _ = usageEntryFields.InsumoId.idOf(r)
	d.CantidadUtilizada = usageEntryFields.CantidadUtilizada.decimalOf(r)
}

func (o *ProductionOrder) UnmarshalJSON(b []byte) error      { return unmarshalEntity(b, o) }
func (d *ProductionUsageEntry) UnmarshalJSON(b []byte) error { return unmarshalEntity(b, d) }

type ProductionOrderFilters struct {
	FechaInicio *string
	FechaFin    *string
}

func ListProductionOrders(ctx context.Context, port upstream.Port, filters ProductionOrderFilters) ([]*ProductionOrder, error) {
	return ListResource[ProductionOrder](ctx, port, upstream.ResourceProductionOrders, upstream.Filters{
		"fechaInicio": filters.FechaInicio,
		"fechaFin":    filters.FechaFin,
	})
}
