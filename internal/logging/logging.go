// Package logging provides category-scoped loggers for the remote-UI
// client runtime. Each subsystem logs through a named child of one shared
// zap logger; categories can be switched off individually from config so
// a noisy subsystem can be silenced without losing the rest.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies a logging subsystem.
type Category string

const (
	CategoryController Category = "controller" // Window state machine, deliveries
	CategoryFulfill    Category = "fulfill"    // Local fulfillment, validation gate
	CategoryHTTP       Category = "http"       // HTTP bridge
	CategoryBus        Category = "bus"        // Message-bus bridge
	CategoryExecutor   Category = "executor"   // Worker pool, UI post loop
	CategoryDispatch   Category = "dispatch"   // Action dispatch, trust gate
	CategoryCache      Category = "cache"      // Persistent page cache
	CategoryUI         Category = "ui"         // Front-end glue
)

var (
	mu       sync.RWMutex
	base     = zap.NewNop()
	disabled = map[Category]bool{}
)

// Options controls logger construction.
type Options struct {
	Level      string          // debug, info, warn, error (default info)
	Categories map[string]bool // category name -> enabled; absent means enabled
	Debug      bool            // development encoder, debug level
}

// Initialize builds the shared base logger. Safe to call more than once;
// the latest call wins.
func Initialize(opts Options) error {
	cfg := zap.NewProductionConfig()
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	base = logger
	disabled = map[Category]bool{}
	for name, enabled := range opts.Categories {
		if !enabled {
			disabled[Category(name)] = true
		}
	}
	return nil
}

// UseNop routes all logging to a no-op logger. Used by tests.
func UseNop() {
	mu.Lock()
	defer mu.Unlock()
	base = zap.NewNop()
	disabled = map[Category]bool{}
}

// Get returns the logger for a category. Disabled categories get a no-op
// logger so call sites never need to check.
func Get(cat Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if disabled[cat] {
		return zap.NewNop()
	}
	return base.Named(string(cat))
}

// Sync flushes buffered log entries. Called at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
