package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// watchDebounce is how long the watcher waits for further changes before rerunning
const watchDebounce = 300 * time.Millisecond

// watchSchemas runs fn once, then again whenever a .proto file below dirs changes,
// until ctx is done. Errors from fn are logged and do not stop the watch.
func watchSchemas(ctx context.Context, dirs []string, log *logrus.Logger, fn func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := addRecursive(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	runOnce := func() {
		if err := fn(); err != nil {
			log.Errorf("Run failed: %v", err)
		}
	}
	runOnce()
	log.Infof("Watching %d schema directories for changes", len(dirs))

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Also watch new directories
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						log.Warnf("Error watching new directory %s: %v", event.Name, err)
					}
					continue
				}
			}
			if filepath.Ext(event.Name) != ".proto" || event.Op == fsnotify.Chmod {
				continue
			}
			log.Debugf("Schema file changed: %s (%s)", event.Name, event.Op)
			timer.Reset(watchDebounce)

		case <-timer.C:
			runOnce()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Watcher error: %v", err)
		}
	}
}

// addRecursive adds root and every directory below it to the watcher
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
