package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"arbiter-hq/arbiter/pkg/apl/parser"
	"arbiter-hq/arbiter/pkg/policy/compiler"
)

// ReloadObserver receives the outcome of each policy set publish attempt.
// Used to wire compile metrics without coupling the manager to a metrics
// implementation.
type ReloadObserver func(setName string, version int, err error)

// Config contains configuration for the policy manager.
type Config struct {
	// PolicyDir is the directory (or single file) holding APL policy sets.
	PolicyDir string

	// Watch enables filesystem watching for hot reload.
	Watch bool

	// Watcher configures the file watcher. Nil selects defaults; the Path
	// field is always overridden with PolicyDir.
	Watcher *WatcherConfig

	// ResyncSchedule is an optional cron expression for periodic full
	// reloads, catching changes the watcher missed (e.g. on network
	// filesystems). Empty disables the resync.
	ResyncSchedule string
}

// Manager owns the policy set lifecycle: loading APL files from disk,
// compiling them, publishing compiled snapshots to the registry, and keeping
// them fresh through filesystem watching and scheduled resyncs.
//
// Compilation is fail-closed per set: a set that fails to compile is skipped
// and its previously published snapshot, if any, keeps serving.
type Manager struct {
	config   Config
	loader   *Loader
	registry *Registry
	logger   *slog.Logger
	observer ReloadObserver

	mu      sync.Mutex
	watcher *FileWatcher
	cron    *cron.Cron
	started bool
	wg      sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver registers a reload observer.
func WithObserver(obs ReloadObserver) Option {
	return func(m *Manager) { m.observer = obs }
}

// WithParser sets the APL parser used when loading files.
func WithParser(p *parser.Parser) Option {
	return func(m *Manager) { m.loader = NewLoader(p) }
}

// New creates a policy manager. Call Load to perform the initial load and
// Start to begin watching.
func New(config Config, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		config:   config,
		loader:   NewLoader(nil),
		registry: NewRegistry(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads every policy set under PolicyDir, compiles it, and publishes it.
// Sets previously published from files that have since disappeared are
// unpublished. Returns an error only when the directory itself cannot be
// read; per-set compile failures are logged, reported to the observer, and
// leave the previous snapshot serving.
func (m *Manager) Load() error {
	sets, err := m.loader.LoadDir(m.config.PolicyDir)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(sets))
	var failed int
	for _, set := range sets {
		seen[set.Name] = true
		version, err := m.registry.Publish(set)
		if m.observer != nil {
			m.observer(set.Name, version, err)
		}
		if err != nil {
			failed++
			m.logger.Error("Policy set compile failed",
				"set", set.Name,
				"file", set.SourceFile,
				"error", err,
			)
			continue
		}
		m.logger.Info("Policy set published",
			"set", set.Name,
			"version", version,
			"rules", len(set.Rules),
		)
	}

	// Unpublish sets whose source files vanished.
	for _, name := range m.registry.Names() {
		if !seen[name] {
			m.registry.Remove(name)
			m.logger.Info("Policy set removed", "set", name)
		}
	}

	if failed > 0 {
		m.logger.Warn("Some policy sets failed to compile",
			"failed", failed,
			"loaded", len(sets)-failed,
		)
	}
	return nil
}

// LoadBytes parses, compiles, and publishes a policy set from raw APL source.
// Used by the lint path and by tests; the set is published under the name it
// declares. Returns the assigned version.
func (m *Manager) LoadBytes(src []byte, filename string) (int, error) {
	p := parser.NewParser()
	set, err := p.ParseBytes(src, filename)
	if err != nil {
		return 0, err
	}
	version, err := m.registry.Publish(set)
	if m.observer != nil {
		m.observer(set.Name, version, err)
	}
	return version, err
}

// Get returns the current compiled snapshot of a policy set.
func (m *Manager) Get(name string) (*compiler.CompiledRuleSet, error) {
	compiled, ok := m.registry.Get(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return compiled, nil
}

// List returns summaries of all published policy sets, sorted by name.
func (m *Manager) List() []SetInfo {
	return m.registry.List()
}

// Start begins filesystem watching and the scheduled resync, if configured.
// It does not block; background goroutines stop when the context is
// cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("manager already started")
	}

	if m.config.Watch {
		wcfg := m.config.Watcher
		if wcfg == nil {
			wcfg = DefaultWatcherConfig()
		}
		wcfg.Path = m.config.PolicyDir

		watcher, err := NewFileWatcher(wcfg, m.logger)
		if err != nil {
			return fmt.Errorf("failed to create policy watcher: %w", err)
		}
		m.watcher = watcher

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := watcher.Watch(ctx, m.Load); err != nil {
				m.logger.Error("Policy watcher exited", "error", err)
			}
		}()
	}

	if m.config.ResyncSchedule != "" {
		c := cron.New()
		_, err := c.AddFunc(m.config.ResyncSchedule, func() {
			m.logger.Debug("Scheduled policy resync")
			if err := m.Load(); err != nil {
				m.logger.Error("Scheduled policy resync failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid resync schedule %q: %w", m.config.ResyncSchedule, err)
		}
		c.Start()
		m.cron = c
		m.logger.Info("Policy resync scheduled", "schedule", m.config.ResyncSchedule)
	}

	m.started = true
	return nil
}

// Stop halts watching and the resync schedule, waiting for in-flight reloads
// to finish. Published snapshots remain available after Stop.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil
	}

	if m.cron != nil {
		<-m.cron.Stop().Done()
		m.cron = nil
	}

	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			m.logger.Warn("Error stopping policy watcher", "error", err)
		}
		m.watcher = nil
	}

	m.wg.Wait()
	m.started = false
	return nil
}
