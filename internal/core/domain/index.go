package domain

import "time"

// ReindexTrigger records why a build ran.
type ReindexTrigger string

// Build triggers.
const (
	// TriggerInitialize is the first build on an empty index.
	TriggerInitialize ReindexTrigger = "initialize"

	// TriggerChange is a rebuild after a document change notification.
	TriggerChange ReindexTrigger = "change"

	// TriggerManual is an operator-requested rebuild.
	TriggerManual ReindexTrigger = "manual"

	// TriggerStale is a rebuild after the corpus fingerprint drifted from the index.
	TriggerStale ReindexTrigger = "stale"
)

// ReindexRun is one recorded build of the vector index.
type ReindexRun struct {
	// ID is a time-sortable unique identifier.
	ID string

	// Trigger is what started the build.
	Trigger ReindexTrigger

	// StartedAt is when the build started.
	StartedAt time.Time

	// EndedAt is when the build finished, successfully or not.
	EndedAt time.Time

	// ChunkCount is the number of chunks stored by the build.
	ChunkCount int

	// Success is true when the index holds the build's full generation.
	Success bool

	// Error describes why the build failed.
	Error string

	// CorpusFingerprint is the content hash of the corpus that was indexed.
	CorpusFingerprint string
}

// Duration returns how long the build took.
func (r ReindexRun) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Index readiness states.
const (
	StatusOnline       = "online"
	StatusInitializing = "initializing"
)

// IndexStatus is the readiness signal exposed to presentation layers.
type IndexStatus struct {
	// Ready is true once initialization completed.
	Ready bool `json:"ready"`

	// DocumentsCount is the last known number of indexed chunks.
	DocumentsCount int `json:"documents_count"`

	// LastReindex is the most recent build, if any.
	LastReindex *ReindexRun `json:"last_reindex,omitempty"`
}

// State returns "online" once ready, "initializing" before.
func (s IndexStatus) State() string {
	if s.Ready {
		return StatusOnline
	}
	return StatusInitializing
}

// VectorStoreReady reports whether the index is ready and populated.
func (s IndexStatus) VectorStoreReady() bool {
	return s.Ready && s.DocumentsCount > 0
}
