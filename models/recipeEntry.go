package models

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// RecipeEntry is one row of /productos-insumos: how much of a supply a product needs.
type RecipeEntry struct {
	ID                *int64          `json:"id"`
	ProductoId        *int64          `json:"productoId"`
	InsumoId          *int64          `json:"insumoId"`
	CantidadNecesaria decimal.Decimal `json:"cantidad_necesaria"`
}

var recipeEntryFields = struct {
	ID, ProductoId, InsumoId, CantidadNecesaria spellings
}{
	ID:                spellings{"id"},
	ProductoId:        spellings{"productoId", "producto.id"},
	InsumoId:          spellings{"insumoId", "insumo.id"},
	CantidadNecesaria: spellings{"cantidad_necesaria", "cantidadNecesaria"},
}

func (e *RecipeEntry) decode(r gjson.Result) {
	e.ID, _ = recipeEntryFields.ID.idOf(r)
	e.ProductoId, _ = recipeEntryFields.ProductoId.idOf(r)
	e.InsumoId, _ = recipeEntryFields.InsumoId.idOf(r)
	e.CantidadNecesaria = recipeEntryFields.CantidadNecesaria.decimalOf(r)
}

func (e *RecipeEntry) UnmarshalJSON(b []byte) error { return unmarshalEntity(b, e) }

// ListRecipeEntries returns the recipe of productoId. Rows for other products
// are dropped in case upstream ignores the filter.
func ListRecipeEntries(ctx context.Context, port upstream.Port, productoId int64) ([]*RecipeEntry, error) {
	entries, err := ListResource[RecipeEntry](ctx, port, upstream.ResourceRecipeEntries, upstream.Filters{"productoId": productoId})
	if err != nil {
		return nil, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.InsumoId == nil {
			continue
		}
		if e.ProductoId != nil && *e.ProductoId != productoId {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}
