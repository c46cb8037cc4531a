package services

import (
	"time"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// nopMetrics discards measurements when no metrics adapter is configured.
type nopMetrics struct{}

var _ driven.Metrics = nopMetrics{}

func (nopMetrics) ObserveAnswer(domain.Intent, bool, time.Duration) {}
func (nopMetrics) ObserveRetrieval(int, int)                        {}
func (nopMetrics) ObserveReindex(domain.ReindexRun)                 {}
func (nopMetrics) SetIndexedChunks(int)                             {}
