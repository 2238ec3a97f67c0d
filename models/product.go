package models

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type Product struct {
	ID           *int64          `json:"id"`
	Nombre       *string         `json:"nombre"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"`
	Stock        decimal.Decimal `json:"stock"`
	Categoria    *string         `json:"categoria"`
	UnidadMedida *string         `json:"unidad_medida"`
}

var productFields = struct {
	ID, Nombre, PrecioVenta, Stock, Categoria, UnidadMedida spellings
}{
	ID:           spellings{"id"},
	Nombre:       spellings{"nombre"},
	PrecioVenta:  spellings{"precio_venta", "precioVenta", "precio"},
	Stock:        spellings{"stock"},
	Categoria:    spellings{"categoria"},
	UnidadMedida: spellings{"unidad_medida", "unidadMedida"},
}

func (p *Product) decode(r gjson.Result) {
	p.ID, _ = productFields.ID.idOf(r)
	p.Nombre = productFields.Nombre.stringOf(r)
	p.PrecioVenta = productFields.PrecioVenta.decimalOf(r)
	p.Stock = productFields.Stock.decimalOf(r)
	p.Categoria = productFields.Categoria.stringOf(r)
	p.UnidadMedida = productFields.UnidadMedida.stringOf(r)
}

func (p *Product) UnmarshalJSON(b []byte) error { return unmarshalEntity(b, p) }

func ListProducts(ctx context.Context, port upstream.Port) ([]*Product, error) {
	return ListResource[Product](ctx, port, upstream.ResourceProducts, nil)
}

func GetProduct(ctx context.Context, port upstream.Port, id int64) (*Product, error) {
	return GetResource[Product](ctx, port, upstream.ResourceProducts, id)
}
