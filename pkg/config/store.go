package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce coalesces the burst of events editors emit for one save.
const reloadDebounce = 100 * time.Millisecond

// Store holds the current Config and swaps it whole on reload. Readers take a
// Snapshot per request and never observe a partially updated config.
type Store struct {
	configer *Configer
	current  atomic.Pointer[Config]
	logger   *zap.Logger

	overrides func(*Config)

	mu        sync.Mutex
	listeners []func(*Config)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithOverrides applies fn to every config read from disk before it is
// published, so flag and environment overrides survive reloads.
func WithOverrides(fn func(*Config)) StoreOption {
	return func(s *Store) { s.overrides = fn }
}

// NewStore loads the config once through configer.
func NewStore(configer *Configer, logger *zap.Logger, opts ...StoreOption) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{configer: configer, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore wraps cfg in a Store that is never reloaded.
func NewStaticStore(cfg *Config) *Store {
	s := &Store{logger: zap.NewNop()}
	s.current.Store(cfg)
	return s
}

// Snapshot returns the current config. Callers must not mutate it.
func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

// OnChange registers fn to run after every successful reload.
func (s *Store) OnChange(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload re-reads the file. On error the current config is kept.
func (s *Store) Reload() error {
	if s.configer == nil {
		return errors.New("static config store cannot reload")
	}

	cfg, err := s.configer.LoadConfig()
	if err != nil {
		return err
	}
	if s.overrides != nil {
		s.overrides(cfg)
	}
	s.current.Store(cfg)

	s.mu.Lock()
	listeners := append([]func(*Config)(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Watch reloads the config whenever config.toml is written, until ctx is done.
// Invalid edits are logged and the previous config stays in effect.
func (s *Store) Watch(ctx context.Context) error {
	if s.configer == nil || s.configer.GetTarget() == "" {
		return errors.New("no config file to watch")
	}
	path := filepath.Clean(s.configer.GetTarget())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching config dir: %w", err)
	}

	var (
		timer *time.Timer
		fire  = make(chan struct{}, 1)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			if err := s.Reload(); err != nil {
				s.logger.Warn("config reload failed, keeping previous config", zap.Error(err))
				continue
			}
			s.logger.Info("config reloaded", zap.String("path", path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("config watcher error: %w", err)
		}
	}
}
