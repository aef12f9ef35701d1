package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Watcher reloads the configuration file when it changes and applies the
// settings that may change at runtime. Only the log level qualifies; storage
// settings are fixed at startup.
type Watcher struct {
	path     string
	level    zap.AtomicLevel
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type dynamicConfig struct {
	LogLevel string `yaml:"log_level"`
}

// NewWatcher creates a watcher for path that adjusts level.
func NewWatcher(path string, level zap.AtomicLevel, logger *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (rename over the file) are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     path,
		level:    level,
		watcher:  watcher,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		<-w.done
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var debounceTimer *time.Timer
	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(w.debounce, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload configuration", zap.Error(err))
		return
	}

	var dyn dynamicConfig
	if err := yaml.Unmarshal(data, &dyn); err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}
	if dyn.LogLevel == "" {
		return
	}

	var next zapcore.Level
	if err := next.UnmarshalText([]byte(dyn.LogLevel)); err != nil {
		w.logger.Error("Invalid log level, keeping current", zap.String("log_level", dyn.LogLevel))
		return
	}

	if prev := w.level.Level(); prev != next {
		w.level.SetLevel(next)
		w.logger.Info("Log level changed", zap.Stringer("from", prev), zap.Stringer("to", next))
	}
}
