package services

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVectorDB implements driven.VectorDatabase with in-memory collections.
type mockVectorDB struct {
	mu          sync.Mutex
	collections map[string]*mockCollection
	deleteErr   error
	createErr   error
	creates     int
	deletes     int

	// inFlight detects overlapping mutations across goroutines.
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func newMockVectorDB() *mockVectorDB {
	return &mockVectorDB{collections: make(map[string]*mockCollection)}
}

func (m *mockVectorDB) enter() func() {
	if m.inFlight.Add(1) > 1 {
		m.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	return func() { m.inFlight.Add(-1) }
}

func (m *mockVectorDB) GetOrCreateCollection(
	_ context.Context, name string, metadata map[string]string,
) (driven.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if c, ok := m.collections[name]; ok {
		return c, nil
	}
	m.creates++
	c := &mockCollection{name: name, metadata: metadata, db: m}
	m.collections[name] = c
	return c, nil
}

func (m *mockVectorDB) DeleteCollection(_ context.Context, name string) error {
	defer m.enter()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.collections[name]; !ok {
		return domain.ErrCollectionNotFound
	}
	m.deletes++
	delete(m.collections, name)
	return nil
}

func (m *mockVectorDB) Close() error {
	return nil
}

func (m *mockVectorDB) collection(name string) *mockCollection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collections[name]
}

// mockCollection implements driven.Collection using exact cosine distance.
type mockCollection struct {
	name     string
	metadata map[string]string
	db       *mockVectorDB

	mu       sync.Mutex
	records  []driven.VectorRecord
	addErr   error
	queryErr error

	// result, when set, is returned by Query instead of a computed ranking.
	result *driven.QueryResult
}

func (c *mockCollection) Name() string {
	return c.name
}

func (c *mockCollection) Add(_ context.Context, records []driven.VectorRecord) error {
	defer c.db.enter()()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.addErr != nil {
		return c.addErr
	}
	c.records = append(c.records, records...)
	return nil
}

func (c *mockCollection) Query(_ context.Context, embedding []float32, n int) (*driven.QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	if c.result != nil {
		return c.result, nil
	}

	type scored struct {
		rec  driven.VectorRecord
		dist float64
	}
	all := make([]scored, len(c.records))
	for i, rec := range c.records {
		all[i] = scored{rec: rec, dist: 1 - cosine(embedding, rec.Embedding)}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })
	if n < len(all) {
		all = all[:n]
	}

	res := &driven.QueryResult{}
	for _, s := range all {
		res.IDs = append(res.IDs, s.rec.ID)
		res.Documents = append(res.Documents, s.rec.Document)
		res.Metadatas = append(res.Metadatas, s.rec.Metadata)
		res.Distances = append(res.Distances, s.dist)
	}
	return res, nil
}

func (c *mockCollection) Count(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records), nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	err   error
	calls atomic.Int32

	// embedFn overrides the default length-based vector.
	embedFn func(text string) ([]float32, error)

	// batchFn overrides EmbedBatch.
	batchFn func(texts []string) ([][]float32, error)

	mu      sync.Mutex
	batches []int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{float32(len(text)%7) + 1, 1, 0.5}, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, len(texts))
	m.mu.Unlock()
	if m.batchFn != nil {
		return m.batchFn(texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// batchSizes returns the sizes of the EmbedBatch calls, sorted descending.
func (m *mockEmbeddingService) batchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.batches)
	slices.Sort(out)
	slices.Reverse(out)
	return out
}

func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu          sync.Mutex
	prompts     []string
	opts        []driven.GenerateOptions
	hadDeadline []bool

	// respond produces the reply for a prompt.
	respond func(prompt string) (string, error)
}

// classifyingLLM answers classification prompts with intent and any other prompt with answer.
func classifyingLLM(intent, answer string) *mockLLMService {
	return &mockLLMService{respond: func(prompt string) (string, error) {
		if strings.HasSuffix(strings.TrimSpace(prompt), domain.IntentLabelPrefix) {
			return intent, nil
		}
		return answer, nil
	}}
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	_, hasDeadline := ctx.Deadline()
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.hadDeadline = append(m.hadDeadline, hasDeadline)
	m.mu.Unlock()
	if m.respond == nil {
		return "", errors.New("no responder")
	}
	return m.respond(prompt)
}

func (m *mockLLMService) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

const (
	testClassifyPrompt = "분류해 주세요.\n질문: \"{question}\"\n\n카테고리:"
	testGroundedPrompt = "GROUNDED\n[문서]\n{context}\n[질문]\n{question}\n답변:"
	testFallbackPrompt = "FALLBACK\n[질문]\n{question}\n답변:"
)

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptClassifyIntent:    testClassifyPrompt,
		driven.PromptGroundedAnswer:    testGroundedPrompt,
		driven.PromptNoContextFallback: testFallbackPrompt,
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockDocumentSource implements driven.DocumentSource for testing.
type mockDocumentSource struct {
	mu     sync.Mutex
	corpus *domain.Corpus
	err    error
	loads  int
}

func (m *mockDocumentSource) Load(_ context.Context) (*domain.Corpus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return m.corpus, nil
}

func (m *mockDocumentSource) Location() string {
	return "mock://documents"
}

func (m *mockDocumentSource) set(corpus *domain.Corpus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corpus = corpus
	m.err = err
}

// mockChunker splits by a fixed size without importing the chunker package.
type mockChunker struct {
	size int
}

func (m mockChunker) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	runes := []rune(doc.Content)
	var chunks []domain.Chunk
	for start, pos := 0, 0; start < len(runes); start, pos = start+m.size, pos+1 {
		end := min(start+m.size, len(runes))
		chunks = append(chunks, domain.Chunk{Content: string(runes[start:end]), Position: pos, Document: doc})
	}
	return chunks, nil
}

// mockHistoryStore implements driven.ReindexHistoryStore for testing.
type mockHistoryStore struct {
	mu   sync.Mutex
	runs []domain.ReindexRun
}

func (m *mockHistoryStore) Record(_ context.Context, run domain.ReindexRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockHistoryStore) LatestSuccessful(_ context.Context) (*domain.ReindexRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].Success {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockHistoryStore) List(_ context.Context, limit int) ([]domain.ReindexRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ReindexRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *mockHistoryStore) Close() error { return nil }

func (m *mockHistoryStore) all() []domain.ReindexRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ReindexRun(nil), m.runs...)
}

// mockMetrics implements driven.Metrics for testing.
type mockMetrics struct {
	mu       sync.Mutex
	answers  []domain.Intent
	failures int
	kept     int
	dropped  int
	reindex  []domain.ReindexRun
	chunks   int
}

func (m *mockMetrics) ObserveAnswer(intent domain.Intent, failed bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, intent)
	if failed {
		m.failures++
	}
}

func (m *mockMetrics) ObserveRetrieval(kept, dropped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kept += kept
	m.dropped += dropped
}

func (m *mockMetrics) ObserveReindex(run domain.ReindexRun) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reindex = append(m.reindex, run)
}

func (m *mockMetrics) SetIndexedChunks(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = n
}
