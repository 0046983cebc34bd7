package testutil

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/junioryono/resapp"
	"github.com/stretchr/testify/require"
)

// LogBuffer is a concurrency safe buffer collecting log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewLogger returns a debug level text logger writing to a fresh LogBuffer.
func NewLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// MustBuild builds b and fails the test on error.
func MustBuild(t *testing.T, b *resapp.Builder) *resapp.App {
	t.Helper()
	app, err := b.Build()
	require.NoError(t, err, "failed to build app")
	require.NotNil(t, app)
	return app
}

// ShutdownOnCleanup shuts app down when the test ends, ignoring the result.
func ShutdownOnCleanup(t *testing.T, app *resapp.App) {
	t.Helper()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})
}
