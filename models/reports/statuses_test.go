package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		estado   *string
		synonyms map[string]statusBucket
		expected statusBucket
	}{
		{ptr(" PAGADO "), salesStatuses, bucketCompleted},
		{ptr("Entregado"), salesStatuses, bucketCompleted},
		{ptr("en_proceso"), salesStatuses, bucketPending},
		{ptr("cancelado"), salesStatuses, bucketNone},
		{nil, salesStatuses, bucketNone},
		{ptr("En Proceso"), productionStatuses, bucketInProgress},
		{ptr("en_proceso"), productionStatuses, bucketInProgress},
		{ptr("finalizada"), productionStatuses, bucketCompleted},
		{ptr("nuevo"), productionStatuses, bucketPending},
		{ptr(""), productionStatuses, bucketNone},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, classify(c.synonyms, c.estado), "estado %v", c.estado)
	}
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "2025-01-02", dayKey(ptr("2025-01-02T23:59:59-05:00")))
	assert.Equal(t, "2025-01-02", dayKey(ptr("  2025-01-02 ")))
	assert.Equal(t, "2025-1", dayKey(ptr("2025-1")))
	assert.Equal(t, noDateKey, dayKey(ptr("   ")))
	assert.Equal(t, noDateKey, dayKey(nil))
}

func TestDayBucketsSortNoDateLast(t *testing.T) {
	b := newDayBuckets[int]()
	*b.at(noDateKey)++
	*b.at("2025-03-01")++
	*b.at("2024-12-31") += 2
	assert.Equal(t, []string{"2024-12-31", "2025-03-01", noDateKey}, b.sortedKeys())
	assert.Equal(t, 2, *b.at("2024-12-31"))
}
