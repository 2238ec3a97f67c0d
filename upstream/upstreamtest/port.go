// Package upstreamtest provides an in-memory upstream.Port for tests.
package upstreamtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/tidwall/gjson"
)

type key struct {
	resource upstream.Resource
	id       int64
}

// Port serves fixed records. Collections ignore filters unless a FilterFunc is set.
type Port struct {
	mu          sync.Mutex
	collections map[upstream.Resource][]json.RawMessage
	byIDErrors  map[key]error
	collErrors  map[upstream.Resource]error
	filterFuncs map[upstream.Resource]FilterFunc

	collectionCalls map[upstream.Resource]int
	byIDCalls       map[key]int
	lastFilters     map[upstream.Resource]upstream.Filters

	byIDHook     func(ctx context.Context, resource upstream.Resource, id int64)
	inFlight     int
	peakInFlight int
}

type FilterFunc func(record gjson.Result, filters upstream.Filters) bool

func New() *Port {
	return &Port{
		collections:     map[upstream.Resource][]json.RawMessage{},
		byIDErrors:      map[key]error{},
		collErrors:      map[upstream.Resource]error{},
		filterFuncs:     map[upstream.Resource]FilterFunc{},
		collectionCalls: map[upstream.Resource]int{},
		byIDCalls:       map[key]int{},
		lastFilters:     map[upstream.Resource]upstream.Filters{},
	}
}

// With stores records for resource; each record is JSON encoded unless it already is raw JSON.
func (p *Port) With(resource upstream.Resource, records ...any) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range records {
		p.collections[resource] = append(p.collections[resource], mustRaw(r))
	}
	return p
}

func (p *Port) WithFilter(resource upstream.Resource, fn FilterFunc) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filterFuncs[resource] = fn
	return p
}

func (p *Port) FailByID(resource upstream.Resource, id int64, err error) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byIDErrors[key{resource, id}] = err
	return p
}

func (p *Port) FailCollection(resource upstream.Resource, err error) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collErrors[resource] = err
	return p
}

func (p *Port) FetchCollection(ctx context.Context, resource upstream.Resource, filters upstream.Filters) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstream.Unavailable(resource, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collectionCalls[resource]++
	p.lastFilters[resource] = filters
	if err := p.collErrors[resource]; err != nil {
		return nil, err
	}
	fn := p.filterFuncs[resource]
	out := make([]json.RawMessage, 0, len(p.collections[resource]))
	for _, raw := range p.collections[resource] {
		if fn != nil && !fn(gjson.ParseBytes(raw), filters) {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// OnFetchByID runs fn at the start of every by-id lookup, outside the port's
// lock, so fn may block to hold calls in flight.
func (p *Port) OnFetchByID(fn func(ctx context.Context, resource upstream.Resource, id int64)) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byIDHook = fn
	return p
}

func (p *Port) FetchByID(ctx context.Context, resource upstream.Resource, id int64) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstream.Unavailable(resource, err)
	}

	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.peakInFlight {
		p.peakInFlight = p.inFlight
	}
	hook := p.byIDHook
	p.mu.Unlock()
	if hook != nil {
		hook(ctx, resource, id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight--
	k := key{resource, id}
	p.byIDCalls[k]++
	if err := p.byIDErrors[k]; err != nil {
		return nil, err
	}
	for _, raw := range p.collections[resource] {
		if gjson.GetBytes(raw, "id").Int() == id {
			return raw, nil
		}
	}
	return nil, upstream.NotFound(resource, id)
}

func (p *Port) CollectionCalls(resource upstream.Resource) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.collectionCalls[resource]
}

func (p *Port) ByIDCalls(resource upstream.Resource, id int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byIDCalls[key{resource, id}]
}

// TotalByIDCalls counts every by-id lookup against resource.
func (p *Port) TotalByIDCalls(resource upstream.Resource) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for k, n := range p.byIDCalls {
		if k.resource == resource {
			total += n
		}
	}
	return total
}

// PeakInFlight is the largest number of by-id lookups seen running at once.
func (p *Port) PeakInFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peakInFlight
}

func (p *Port) LastFilters(resource upstream.Resource) upstream.Filters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFilters[resource]
}

func mustRaw(v any) json.RawMessage {
	switch r := v.(type) {
	case json.RawMessage:
		return r
	case string:
		return json.RawMessage(r)
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("upstreamtest: cannot encode record: %v", err))
	}
	return b
}
