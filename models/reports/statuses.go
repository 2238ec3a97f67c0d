package reports

import "strings"

type statusBucket int

const (
	bucketNone statusBucket = iota
	bucketCompleted
	bucketPending
	bucketInProgress
)

var salesStatuses = map[string]statusBucket{
	"completado": bucketCompleted,
	"entregado":  bucketCompleted,
	"pagado":     bucketCompleted,
	"pendiente":  bucketPending,
	"nuevo":      bucketPending,
	"en_proceso": bucketPending,
}

var productionStatuses = map[string]statusBucket{
	"completada": bucketCompleted,
	"completado": bucketCompleted,
	"finalizada": bucketCompleted,
	"pendiente":  bucketPending,
	"nuevo":      bucketPending,
	"en_proceso": bucketInProgress,
	"en proceso": bucketInProgress,
	"procesando": bucketInProgress,
}

// classify matches estado case-insensitively after trimming. Unknown or
// missing statuses fall in no bucket.
func classify(synonyms map[string]statusBucket, estado *string) statusBucket {
	if estado == nil {
		return bucketNone
	}
	return synonyms[strings.ToLower(strings.TrimSpace(*estado))]
}

type statusCounts struct {
	completed, pending, inProgress int
}

func (c *statusCounts) add(b statusBucket) {
	switch b {
	case bucketCompleted:
		c.completed++
	case bucketPending:
		c.pending++
	case bucketInProgress:
		c.inProgress++
	}
}
