package models

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// DefaultStockMinimo applies when a supply has no minimum-stock threshold.
var DefaultStockMinimo = decimal.NewFromInt(10)

type Supply struct {
	ID             *int64           `json:"id"`
	Nombre         *string          `json:"nombre"`
	UnidadMedida   *string          `json:"unidad_medida"`
	Stock          decimal.Decimal  `json:"stock"`
	StockMinimo    *decimal.Decimal `json:"stock_minimo"`
	PrecioUnitario decimal.Decimal  `json:"precio_unitario"`
}

var supplyFields = struct {
	ID, Nombre, UnidadMedida, Stock, StockMinimo, PrecioUnitario spellings
}{
	ID:             spellings{"id"},
	Nombre:         spellings{"nombre"},
	UnidadMedida:   spellings{"unidad_medida", "unidadMedida"},
	Stock:          spellings{"stock"},
	StockMinimo:    spellings{"stock_minimo", "stockMinimo"},
	PrecioUnitario: spellings{"precio_unitario", "precioUnitario"},
}

func (s *Supply) decode(r gjson.Result) {
	s.ID, _ = supplyFields.ID.idOf(r)
	s.Nombre = supplyFields.Nombre.stringOf(r)
	s.UnidadMedida = supplyFields.UnidadMedida.stringOf(r)
	s.Stock = supplyFields.Stock.decimalOf(r)
	if threshold, ok := supplyFields.StockMinimo.optionalDecimalOf(r); ok {
		s.StockMinimo = &threshold
	} else {
		s.StockMinimo = nil
	}
	s.PrecioUnitario = supplyFields.PrecioUnitario.decimalOf(r)
}

func (s *Supply) UnmarshalJSON(b []byte) error { return unmarshalEntity(b, s) }

// EffectiveStockMinimo is the threshold used for low-stock checks.
func (s *Supply) EffectiveStockMinimo() decimal.Decimal {
	if s.StockMinimo == nil {
		return DefaultStockMinimo
	}
	return *s.StockMinimo
}

// IsLowStock is inclusive: stock equal to the threshold is low.
func (s *Supply) IsLowStock() bool {
	return s.Stock.LessThanOrEqual(s.EffectiveStockMinimo())
}

func ListSupplies(ctx context.Context, port upstream.Port) ([]*Supply, error) {
	return ListResource[Supply](ctx, port, upstream.ResourceSupplies, nil)
}

func GetSupply(ctx context.Context, port upstream.Port, id int64) (*Supply, error) {
	return GetResource[Supply](ctx, port, upstream.ResourceSupplies, id)
}
