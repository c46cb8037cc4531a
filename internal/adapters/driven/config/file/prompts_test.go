package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "prompts"), store.Dir())
	_, err = os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err), "constructor must not touch the filesystem")
}

func TestDefaultPrompts_HavePlaceholders(t *testing.T) {
	for name, placeholders := range driven.PromptPlaceholders() {
		t.Run(name, func(t *testing.T) {
			prompt, ok := DefaultPrompt(name)
			require.True(t, ok)
			for _, ph := range placeholders {
				assert.Equal(t, 1, strings.Count(prompt, ph), "placeholder %s", ph)
			}
		})
	}

	grounded, _ := DefaultPrompt(driven.PromptGroundedAnswer)
	assert.Less(t, strings.Index(grounded, driven.PlaceholderContext), strings.Index(grounded, driven.PlaceholderQuestion))

	classify, _ := DefaultPrompt(driven.PromptClassifyIntent)
	assert.True(t, strings.HasSuffix(classify, "카테고리:"))
	for _, label := range []string{"GREETING", "LOCATION", "PRICE", "FACILITY", "SERVICE", "RESERVATION", "CONTACT", "COMPANY_INFO", "OFF_TOPIC"} {
		assert.Contains(t, classify, label)
	}

	fallback, _ := DefaultPrompt(driven.PromptNoContextFallback)
	assert.NotContains(t, fallback, driven.PlaceholderContext)
	assert.Contains(t, fallback, "02-1234-5678")

	_, ok := DefaultPrompt("unknown")
	assert.False(t, ok)
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptClassifyIntent)
	require.NoError(t, err)

	files := []string{
		"classify_intent.txt",
		"grounded_answer.txt",
		"no_context_fallback.txt",
		"README.md",
	}
	for _, f := range files {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	for name := range driven.PromptPlaceholders() {
		prompt, err := store.Load(name)
		require.NoError(t, err)
		want, _ := DefaultPrompt(name)
		assert.Equal(t, want, prompt, name)
	}
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	customContent := "문서: {context}\n질문: {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grounded_answer.txt"), []byte(customContent), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGroundedAnswer)

	require.NoError(t, err)
	assert.Equal(t, customContent, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptGroundedAnswer)
	require.NoError(t, os.Remove(filepath.Join(dir, "grounded_answer.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptGroundedAnswer)

	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptGroundedAnswer)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_BlankFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "no_context_fallback.txt"), []byte("  \n"), 0600))
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptNoContextFallback)

	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptNoContextFallback)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptClassifyIntent)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptClassifyIntent)
	assert.Equal(t, want, prompt)

	_, err = store.Load("custom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init failed")
}

func TestPromptStore_Load_CachesResults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptClassifyIntent)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_intent.txt"), []byte("changed {question}"), 0600))

	second, err := store.Load(driven.PromptClassifyIntent)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptClassifyIntent)
	require.NoError(t, err)

	modified := "분류: {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_intent.txt"), []byte(modified), 0600))
	store.Reload()

	prompt, err := store.Load(driven.PromptClassifyIntent)
	require.NoError(t, err)
	assert.Equal(t, modified, prompt)
}

func TestPromptStore_Files(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	files, err := store.Files()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "classify_intent.txt"),
		filepath.Join(dir, "grounded_answer.txt"),
		filepath.Join(dir, "no_context_fallback.txt"),
	}, files)
	for _, f := range files {
		assert.FileExists(t, f)
	}
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]string, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.Load(driven.PromptGroundedAnswer)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := "pre-existing {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_intent.txt"), []byte(custom), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("mine"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, _ = store.Load(driven.PromptGroundedAnswer)

	data, err := os.ReadFile(filepath.Join(dir, "classify_intent.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(readme))
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_intent.txt"), []byte("\n\n  {question}?  \n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptClassifyIntent)
	require.NoError(t, err)
	assert.Equal(t, "{question}?", prompt)
}
