package tracing

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/the-yaml-life/tyl-tracing/metrics"
	"github.com/the-yaml-life/tyl-tracing/tracelog"
)

// reloadDebounce coalesces editor write bursts into one reload.
const reloadDebounce = 100 * time.Millisecond

// ConfigHolder holds a TraceConfig with atomic reloading from file.
// Reloads are validate-before-swap: an invalid file keeps the old config.
type ConfigHolder struct {
	mu         sync.RWMutex
	current    TraceConfig
	configPath string
	logger     zerolog.Logger

	listenerMu sync.RWMutex
	listeners  []chan<- TraceConfig
}

// NewConfigHolder creates a holder seeded with an initial config.
func NewConfigHolder(initial TraceConfig, configPath string) *ConfigHolder {
	return &ConfigHolder{
		current:    initial,
		configPath: configPath,
		logger:     tracelog.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *ConfigHolder) Get() TraceConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Subscribe registers a channel that receives every applied config.
// Sends are non-blocking; slow listeners miss intermediate updates.
func (h *ConfigHolder) Subscribe(ch chan<- TraceConfig) {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

// Reload reloads the configuration from file and validates it before
// swapping it in.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newCfg, err := LoadFile(h.configPath)
	if err != nil {
		metrics.ConfigReload(false)
		h.logger.Error().Err(err).Str("event", "config.reload_failed").Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}
	if err := newCfg.Validate(); err != nil {
		metrics.ConfigReload(false)
		h.logger.Error().Err(err).Str("event", "config.validation_failed").Msg("new configuration failed validation")
		return fmt.Errorf("validate config: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.notifyListeners(newCfg)
	metrics.ConfigReload(true)
	h.logger.Info().
		Str("event", "config.reload_success").
		Float64("old_sampling_rate", old.SamplingRate).
		Float64("new_sampling_rate", newCfg.SamplingRate).
		Int("old_max_spans", old.MaxSpans).
		Int("new_max_spans", newCfg.MaxSpans).
		Msg("configuration reloaded")
	return nil
}

// Watch reloads the configuration whenever the file changes, until ctx is
// done. It returns after the watcher goroutine has been started.
func (h *ConfigHolder) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors and renameio-style writers replace the
	// file, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(h.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		if err := watcher.Close(); err != nil {
			h.logger.Debug().Err(err).Msg("close config watcher")
		}
	}()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	target := filepath.Clean(h.configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := h.Reload(ctx); err != nil {
					h.logger.Warn().Err(err).Msg("config reload after file change failed")
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (h *ConfigHolder) notifyListeners(cfg TraceConfig) {
	h.listenerMu.RLock()
	defer h.listenerMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Msg("config listener not ready, skipping notification")
		}
	}
}

// Bind applies configuration updates from the holder to the tracer until
// ctx is done.
func Bind(ctx context.Context, holder *ConfigHolder, tracer *SimpleTracer) {
	updates := make(chan TraceConfig, 1)
	holder.Subscribe(updates)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case cfg := <-updates:
				tracer.ApplyConfig(cfg)
			}
		}
	}()
}
