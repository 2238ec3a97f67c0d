package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// spellings lists the accepted wire names for one field, preferred first.
type spellings []string

func (s spellings) lookup(r gjson.Result) gjson.Result {
	for _, name := range s {
		v := r.Get(name)
		if v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// decimalOf decodes a JSON number or numeric string. Anything else is zero.
func (s spellings) decimalOf(r gjson.Result) decimal.Decimal {
	d, _ := s.optionalDecimalOf(r)
	return d
}

func (s spellings) optionalDecimalOf(r gjson.Result) (decimal.Decimal, bool) {
	v := s.lookup(r)
	switch v.Type {
	case gjson.Number:
		if d, err := decimal.NewFromString(v.Raw); err == nil {
			return d, true
		}
		return decimal.NewFromFloat(v.Float()), true
	case gjson.String:
		if d, err := decimal.NewFromString(strings.TrimSpace(v.Str)); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// idOf decodes an integer key. The bool is false when the key is absent or not an integer.
func (s spellings) idOf(r gjson.Result) (*int64, bool) {
	v := s.lookup(r)
	switch v.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(v.Raw)
		if err != nil || !d.IsInteger() {
			return nil, false
		}
		id := d.IntPart()
		return &id, true
	case gjson.String:
		id, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return nil, false
		}
		return &id, true
	}
	return nil, false
}

// intOf decodes an integer quantity; fractional values truncate toward zero.
func (s spellings) intOf(r gjson.Result) int64 {
	return s.decimalOf(r).IntPart()
}

// stringOf returns nil for absent or null values. Nested objects resolve
// through their "nombre" field.
func (s spellings) stringOf(r gjson.Result) *string {
	v := s.lookup(r)
	switch v.Type {
	case gjson.String:
		str := v.Str
		return &str
	case gjson.Number:
		str := v.Raw
		return &str
	case gjson.JSON:
		if v.IsObject() {
			if n := v.Get("nombre"); n.Type == gjson.String {
				str := n.Str
				return &str
			}
		}
	}
	return nil
}

func (s spellings) arrayOf(r gjson.Result) []gjson.Result {
	v := s.lookup(r)
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}
