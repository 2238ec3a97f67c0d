package reports

import (
	"sort"
	"strings"
)

const noDateKey = "no-date"

// dayKey is the ISO date prefix of a timestamp string.
func dayKey(date *string) string {
	if date == nil {
		return noDateKey
	}
	s := strings.TrimSpace(*date)
	if s == "" {
		return noDateKey
	}
	if r := []rune(s); len(r) > 10 {
		return string(r[:10])
	}
	return s
}

// dayBuckets accumulates values per day key and returns them in ascending key order.
type dayBuckets[T any] struct {
	values map[string]*T
}

func newDayBuckets[T any]() *dayBuckets[T] {
	return &dayBuckets[T]{values: map[string]*T{}}
}

func (b *dayBuckets[T]) at(key string) *T {
	v, ok := b.values[key]
	if !ok {
		v = new(T)
		b.values[key] = v
	}
	return v
}

func (b *dayBuckets[T]) sortedKeys() []string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
