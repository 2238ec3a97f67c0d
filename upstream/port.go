// Package upstream is the data port to the Chifles REST API. Report code
// depends only on Port; the HTTP Client is one implementation of it.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

type Resource string

const (
	ResourceOrders           Resource = "pedidos"
	ResourceProducts         Resource = "productos"
	ResourceRecipeEntries    Resource = "productos-insumos"
	ResourceSupplies         Resource = "insumos"
	ResourceProductionOrders Resource = "ordenes-produccion"
)

//go:generate mockgen -source=port.go -destination=mocks/port.go -package=mocks

// Port fetches upstream records already authenticated for the current caller.
type Port interface {
	FetchCollection(ctx context.Context, resource Resource, filters Filters) ([]json.RawMessage, error)
	FetchByID(ctx context.Context, resource Resource, id int64) (json.RawMessage, error)
}

var (
	ErrUnavailable = errors.New("upstream unavailable")
	ErrRejected    = errors.New("upstream rejected request")
	ErrNotFound    = errors.New("upstream resource not found")
	ErrMalformed   = errors.New("upstream payload malformed")
)

// Error carries the upstream status and message for surfacing to callers.
// Kind is one of the sentinel errors above.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
	Resource   Resource
	Cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Resource != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Resource))
		b.WriteString(")")
	}
	if e.StatusCode != 0 {
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(e.StatusCode))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func Unavailable(resource Resource, cause error) *Error {
	return &Error{Kind: ErrUnavailable, Resource: resource, Cause: cause}
}

func Rejected(resource Resource, status int, message string) *Error {
	return &Error{Kind: ErrRejected, Resource: resource, StatusCode: status, Message: message}
}

func NotFound(resource Resource, id int64) *Error {
	return &Error{Kind: ErrNotFound, Resource: resource, StatusCode: 404, Message: fmt.Sprintf("id %d not found", id)}
}

func Malformed(resource Resource, cause error) *Error {
	return &Error{Kind: ErrMalformed, Resource: resource, Cause: cause}
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var upErr *Error
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}

// Filters are query parameters. Nil values, nil pointers and blank strings are omitted.
type Filters map[string]any

func (f Filters) Values() url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := formatFilter(f[k]); ok {
			values.Set(k, s)
		}
	}
	return values
}

func formatFilter(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		return s, s != ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	default:
		return fmt.Sprint(rv.Interface()), true
	}
}
