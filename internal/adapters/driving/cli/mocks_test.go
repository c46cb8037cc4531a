package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/logger"
)

// mockSettingsStore is a mock implementation of driven.SettingsStore.
type mockSettingsStore struct {
	settings domain.Settings
	loadErr  error
	path     string
	saved    []domain.Settings
}

func (m *mockSettingsStore) Load() (domain.Settings, error) {
	return m.settings, m.loadErr
}

func (m *mockSettingsStore) Save(settings domain.Settings) error {
	m.saved = append(m.saved, settings)
	return nil
}

func (m *mockSettingsStore) Path() string {
	return m.path
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	asked  []string
}

func (m *mockAnswerService) Answer(_ context.Context, question string) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	m.asked = append(m.asked, question)
	return m.answer, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	mu          sync.Mutex
	status      domain.IndexStatus
	runs        []domain.ReindexRun
	initErr     error
	err         error
	initialized int
	triggers    []domain.ReindexTrigger
	limits      []int
}

func (m *mockIndexService) Initialize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized++
	if m.initErr != nil {
		return m.initErr
	}
	m.status.Ready = true
	return nil
}

func (m *mockIndexService) Reindex(_ context.Context, trigger domain.ReindexTrigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, trigger)
	return m.err
}

func (m *mockIndexService) Status() domain.IndexStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockIndexService) History(_ context.Context, limit int) ([]domain.ReindexRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	return m.runs, m.err
}

// mockCloser records Close calls into a shared log.
type mockCloser struct {
	name string
	log  *[]string
	err  error
}

func (m *mockCloser) Close() error {
	*m.log = append(*m.log, m.name)
	return m.err
}

// testEnv is a bootstrap wired to mocks.
type testEnv struct {
	store   *mockSettingsStore
	answers *mockAnswerService
	index   *mockIndexService
	app     *App
	builds  int
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store: &mockSettingsStore{
			settings: domain.DefaultSettings(),
			path:     "/tmp/concierge-test/config.toml",
		},
		answers: &mockAnswerService{answer: &domain.Answer{Text: "답변입니다."}},
		index:   &mockIndexService{},
	}
	env.app = &App{
		Settings: env.store.settings,
		Answers:  env.answers,
		Index:    env.index,
	}
	return env
}

func (e *testEnv) bootstrap() *Bootstrap {
	return &Bootstrap{
		OpenSettings: func(string) (driven.SettingsStore, error) {
			return e.store, nil
		},
		Build: func(context.Context, driven.SettingsStore, domain.Settings) (*App, error) {
			e.builds++
			return e.app, nil
		},
	}
}

// execute runs the root command against env with fresh flag values.
func execute(t *testing.T, ctx context.Context, b *Bootstrap, stdin string, args ...string) (string, error) {
	t.Helper()

	askJSON, statusJSON, historyJSON, configForce = false, false, false, false
	serveHTTP = ""
	historyLimit = 10
	configDir = ""
	verbose = false

	prev := bootstrap
	SetBootstrap(b)

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		bootstrap = prev
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		logger.SetOutput(os.Stderr)
	})

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}
