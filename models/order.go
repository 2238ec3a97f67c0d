package models

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type Order struct {
	ID        *int64          `json:"id"`
	Fecha     *string         `json:"fecha"`
	Total     decimal.Decimal `json:"total"`
	Estado    *string         `json:"estado"`
	ClienteId *int64          `json:"clienteId"`
	Cliente   *Client         `json:"cliente"`
	FacturaId *int64          `json:"facturaId"`
	Detalles  []OrderLineItem `json:"detalles"`
}

type OrderLineItem struct {
	ID                 *int64          `json:"id"`
	PedidoId           *int64          `json:"pedidoId"`
	ProductoId         *int64          `json:"productoId"`
	CantidadSolicitada int64           `json:"cantidad_solicitada"`
	PrecioUnitario     decimal.Decimal `json:"precio_unitario"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

var orderFields = struct {
	ID, Fecha, Total, Estado, ClienteId, Cliente, FacturaId, Detalles spellings
}{
	ID:        spellings{"id"},
	Fecha:     spellings{"fecha"},
	Total:     spellings{"total"},
	Estado:    spellings{"estado"},
	ClienteId: spellings{"clienteId", "cliente.id"},
	Cliente:   spellings{"cliente"},
	FacturaId: spellings{"facturaId", "factura.id"},
	Detalles:  spellings{"detalles"},
}

var lineItemFields = struct {
	ID, PedidoId, ProductoId, CantidadSolicitada, PrecioUnitario, Subtotal spellings
}{
	ID:                 spellings{"id"},
	PedidoId:           spellings{"pedidoId", "pedido.id"},
	ProductoId:         spellings{"productoId", "producto.id"},
	CantidadSolicitada: spellings{"cantidad_solicitada", "cantidadSolicitada"},
	PrecioUnitario:     spellings{"precio_unitario", "precioUnitario"},
	Subtotal:           spellings{"subtotal"},
}

func (o *Order) decode(r gjson.Result) {
	o.ID, _ = orderFields.ID.idOf(r)
	o.Fecha = orderFields.Fecha.stringOf(r)
	o.Total = orderFields.Total.decimalOf(r)
	o.Estado = orderFields.Estado.stringOf(r)
	o.ClienteId, _ = orderFields.ClienteId.idOf(r)
	if c := orderFields.Cliente.lookup(r); c.IsObject() {
		o.Cliente = &Client{}
		o.Cliente.decode(c)
		if o.ClienteId == nil {
			o.ClienteId = o.Cliente.ID
		}
	}
	o.FacturaId, _ = orderFields.FacturaId.idOf(r)

	items := orderFields.Detalles.arrayOf(r)
	o.Detalles = make([]OrderLineItem, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		var d OrderLineItem
		d.decode(item)
		o.Detalles = append(o.Detalles, d)
	}
}

func (d *OrderLineItem) decode(r gjson.Result) {
	d.ID, _ = lineItemFields.ID.idOf(r)
	d.PedidoId, _ = lineItemFields.PedidoId.idOf(r)
	d.ProductoId, _ = lineItemFields.ProductoId.idOf(r)
	d.CantidadSolicitada = lineItemFields.CantidadSolicitada.intOf(r)
	d.PrecioUnitario = lineItemFields.PrecioUnitario.decimalOf(r)
	d.Subtotal = lineItemFields.Subtotal.decimalOf(r)
}

func (o *Order) UnmarshalJSON(b []byte) error         { return unmarshalEntity(b, o) }
func (d *OrderLineItem) UnmarshalJSON(b []byte) error { return unmarshalEntity(b, d) }

type OrderFilters struct {
	ClienteId   *int64
	FechaInicio *string
	FechaFin    *string
}

func (f OrderFilters) toUpstream() upstream.Filters {
	return upstream.Filters{
		"clienteId":   f.ClienteId,
		"fechaInicio": f.FechaInicio,
		"fechaFin":    f.FechaFin,
	}
}

func ListOrders(ctx context.Context, port upstream.Port, filters OrderFilters) ([]*Order, error) {
	return ListResource[Order](ctx, port, upstream.ResourceOrders, filters.toUpstream())
}

func GetOrder(ctx context.Context, port upstream.Port, id int64) (*Order, error) {
	return GetResource[Order](ctx, port, upstream.ResourceOrders, id)
}
