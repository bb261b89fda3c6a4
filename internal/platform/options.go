package platform

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/aretw0/nook/pkg/core"
)

// DefaultSystemDir is the hidden directory holding the index, config and
// preferences of a vault. Its presence marks a vault root.
const DefaultSystemDir = ".nook"

// Adapter names accepted by WithAdapter and the config file.
const (
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
)

// options holds the internal configuration for opening a vault.
type options struct {
	index        core.Index
	fs           afero.Fs
	logger       *slog.Logger
	adapter      string
	clock        func() time.Time
	readOnly     *bool
	systemDir    string
	mustExist    bool
	autoInit     bool
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)
}

// Option defines a functional option for configuring a vault.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		logger:    slog.New(slog.DiscardHandler),
		systemDir: DefaultSystemDir,
		devSafety: true,
	}
}

// WithAutoInit creates the vault layout (system dir, content dir, config
// file) when missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist ensures the vault directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithLogger sets the logger for the vault and everything it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIndex injects a metadata index. The adapter setting is then ignored.
func WithIndex(index core.Index) Option {
	return func(o *options) {
		o.index = index
	}
}

// WithAdapter selects the metadata index by name ("sqlite" or "memory").
// Defaults to the config file value, then "sqlite".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithContentFs replaces the OS filesystem backing the vault files.
// Only the memory adapter can be combined with a non-OS filesystem.
func WithContentFs(fsys afero.Fs) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithSystemDir allows specifying the hidden directory name.
// Defaults to ".nook".
func WithSystemDir(name string) Option {
	return func(o *options) {
		if name != "" {
			o.systemDir = name
		}
	}
}

// WithWatcherErrorHandler registers a callback for errors occurring during
// Watch, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Mutations return core.ErrReadOnly.
// 2. Initialization (directory and config creation) is skipped.
// 3. Dev Safety Lock (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = &enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true), a temporary directory is used instead of the given path.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
