package nook

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/aretw0/nook/internal/platform"
	"github.com/aretw0/nook/pkg/core"
)

// --- Types ---

// Vault is an opened vault: the store, its content tree, preferences and backups.
type Vault = platform.Vault

// Store is the entry lifecycle and lookup service of a vault.
type Store = core.Store

// Entry is a metadata record describing one directory or typed leaf.
type Entry = core.Entry

// EntryType is the closed set of entry kinds.
type EntryType = core.EntryType

// EntrySpec describes an entry to be created.
type EntrySpec = core.EntrySpec

// RootID identifies the content root.
const RootID = core.RootID

// --- Configuration ---

// Option defines a functional option for opening a vault.
type Option = platform.Option

// WithAutoInit creates the vault layout when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the vault directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the vault.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithIndex allows injecting a custom metadata index.
func WithIndex(index core.Index) Option {
	return platform.WithIndex(index)
}

// WithAdapter selects the metadata index by name ("sqlite" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithContentFs replaces the OS filesystem backing the vault.
func WithContentFs(fsys afero.Fs) Option {
	return platform.WithContentFs(fsys)
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".nook").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithReadOnly rejects every mutation with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the sandbox used when running via `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler registers a callback for watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// Open opens the vault at path.
func Open(path string, opts ...Option) (*Vault, error) {
	return platform.Open(path, opts...)
}

// Init opens the vault at path, creating its layout if needed.
func Init(path string, opts ...Option) (*Vault, error) {
	return platform.Open(path, append([]Option{platform.WithAutoInit(true)}, opts...)...)
}

// --- Safety & Utils ---

// ResolveVaultPath determines the actual path for the vault based on safety rules.
func ResolveVaultPath(userPath string, forceTemp bool) string {
	return platform.ResolveVaultPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindVaultRoot looks upwards for a directory holding the vault marker.
func FindVaultRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
