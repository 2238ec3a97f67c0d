package models

import (
	"context"
	"encoding/json"
	"fmt"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/tidwall/gjson"
)

// decoder is implemented by every upstream entity.
type decoder interface {
	decode(r gjson.Result)
}

func decodeRecord[T any, PT interface {
	*T
	decoder
}](resource upstream.Resource, raw json.RawMessage) (*T, error) {
	if !gjson.ValidBytes(raw) {
		return nil, upstream.Malformed(resource, fmt.Errorf("invalid json record"))
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return nil, upstream.Malformed(resource, fmt.Errorf("record is not an object"))
	}
	var v T
	PT(&v).decode(r)
	return &v, nil
}

func unmarshalEntity(b []byte, into decoder) error {
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("invalid json")
	}
	r := gjson.ParseBytes(b)
	if !r.IsObject() {
		return fmt.Errorf("expected a json object")
	}
	into.decode(r)
	return nil
}

// GetResource fetches and decodes one record by id.
func GetResource[T any, PT interface {
	*T
	decoder
}](ctx context.Context, port upstream.Port, resource upstream.Resource, id int64) (*T, error) {
	raw, err := port.FetchByID(ctx, resource, id)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T, PT](resource, raw)
}

// ListResource fetches and decodes a collection.
func ListResource[T any, PT interface {
	*T
	decoder
}](ctx context.Context, port upstream.Port, resource upstream.Resource, filters upstream.Filters) ([]*T, error) {
	raws, err := port.FetchCollection(ctx, resource, filters)
	if err != nil {
		return nil, err
	}
	results := make([]*T, 0, len(raws))
	for _, raw := range raws {
		v, err := decodeRecord[T, PT](resource, raw)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, nil
}
