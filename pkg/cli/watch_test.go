package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protomerge/pkg/observability"
)

func TestWatchSchemas_RerunsOnProtoChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchSchemas(ctx, []string{dir}, observability.NewDiscardLogger(), func() error {
			runs <- struct{}{}
			// a failing run is logged and the watch continues
			return errors.New("boom")
		})
	}()

	waitRun := func() {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a run")
		}
	}

	waitRun()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order.proto"), []byte(v1Proto), 0o644))
	waitRun()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchSchemas_MissingDir(t *testing.T) {
	err := watchSchemas(context.Background(), []string{filepath.Join(t.TempDir(), "missing")},
		observability.NewDiscardLogger(), func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}
