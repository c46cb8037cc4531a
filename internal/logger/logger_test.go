package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose_Toggles(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	SetVerbose(true)
	Debug("shown")
	SetVerbose(false)
	Debug("hidden again")

	assert.Equal(t, "[DEBUG] shown\n", buf.String())
}

func TestVerboseOnlyLevels(t *testing.T) {
	tests := []struct {
		name    string
		log     func()
		want    string
		verbose bool
	}{
		{"debug verbose", func() { Debug("chunk %d", 3) }, "[DEBUG] chunk 3\n", true},
		{"debug quiet", func() { Debug("chunk %d", 3) }, "", false},
		{"info verbose", func() { Info("indexed %d chunks", 42) }, "[INFO] indexed 42 chunks\n", true},
		{"info quiet", func() { Info("indexed %d chunks", 42) }, "", false},
		{"section verbose", func() { Section("Reindex") }, "\n=== Reindex ===\n", true},
		{"section quiet", func() { Section("Reindex") }, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWarnAndErrorAlwaysWritten(t *testing.T) {
	buf := capture(t, false)

	Warn("collection %q missing", "docs")
	Error("reindex failed: %v", "boom")

	assert.Equal(t, "[WARN] collection \"docs\" missing\n[ERROR] reindex failed: boom\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", i)
			Warn("concurrent %d", i)
			Info("concurrent %d", i)
			SetVerbose(false)
		}()
	}
	wg.Wait()
}
