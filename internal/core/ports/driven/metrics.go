package driven

import (
	"time"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

// Metrics records pipeline measurements.
type Metrics interface {
	// ObserveAnswer records one answered question.
	ObserveAnswer(intent domain.Intent, failed bool, elapsed time.Duration)

	// ObserveRetrieval records how many hits survived the similarity floor.
	ObserveRetrieval(kept, dropped int)

	// ObserveReindex records a finished build.
	ObserveReindex(run domain.ReindexRun)

	// SetIndexedChunks records the current chunk count.
	SetIndexedChunks(n int)
}
