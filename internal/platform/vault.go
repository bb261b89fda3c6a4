package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/aretw0/nook/pkg/adapters/fs"
	"github.com/aretw0/nook/pkg/adapters/memory"
	"github.com/aretw0/nook/pkg/adapters/sqlindex"
	"github.com/aretw0/nook/pkg/backup"
	"github.com/aretw0/nook/pkg/core"
	"github.com/aretw0/nook/pkg/prefs"
)

// File names inside the system dir.
const (
	IndexFileName = "index.db"
	PrefsFileName = "prefs.yaml"
	BackupDirName = "backups"
)

// Vault is an opened vault: the store and the files around it.
type Vault struct {
	Path      string
	SystemDir string
	Config    FileConfig

	Store   *core.Store
	Content *fs.ContentStore
	Prefs   *prefs.File

	fs     afero.Fs
	logger *slog.Logger
}

// Open opens the vault at path, creating its layout first when
// WithAutoInit is set.
func Open(path string, opts ...Option) (*Vault, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}

	readOnly := o.readOnly != nil && *o.readOnly
	bypassSafety := readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolveVaultPath(path, useTemp)

	if IsDevRun() {
		if bypassSafety {
			o.logger.Debug("bypassing dev sandbox", "path", resolved, "read_only", readOnly)
		} else {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolved)
		}
	}
	if useTemp {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}

	if abs, err := filepath.Abs(resolved); err == nil && isOsFs(o.fs) {
		resolved = abs
	}

	systemPath := filepath.Join(resolved, o.systemDir)
	configPath := filepath.Join(systemPath, ConfigFileName)

	exists, err := afero.DirExists(o.fs, resolved)
	if err != nil {
		return nil, err
	}
	if !exists && (o.mustExist || !o.autoInit || readOnly) {
		return nil, fmt.Errorf("vault does not exist: %s", resolved)
	}

	cfg, found, err := LoadConfig(o.fs, configPath)
	if err != nil {
		return nil, err
	}

	if o.autoInit && !readOnly {
		if err := o.fs.MkdirAll(systemPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create system dir: %w", err)
		}
		if !found {
			if o.adapter != "" {
				cfg.Adapter = o.adapter
			}
			if err := WriteConfig(o.fs, configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to write config: %w", err)
			}
			o.logger.Info("vault initialized", "path", resolved, "adapter", cfg.Adapter)
		}
	}

	if o.adapter != "" {
		cfg.Adapter = o.adapter
	}
	if o.readOnly != nil {
		cfg.ReadOnly = *o.readOnly
	}

	v := &Vault{
		Path:      resolved,
		SystemDir: o.systemDir,
		Config:    cfg,
		fs:        o.fs,
		logger:    o.logger,
	}

	ctx := context.Background()

	v.Content = fs.NewContentStore(fs.Config{
		Fs:           o.fs,
		Root:         filepath.Join(resolved, cfg.ContentDir),
		MustExist:    cfg.ReadOnly || !o.autoInit,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
	if err := v.Content.Initialize(ctx); err != nil {
		if cfg.ReadOnly || !o.autoInit {
			return nil, fmt.Errorf("%w (run init first)", err)
		}
		return nil, err
	}

	index, err := openIndex(ctx, o, cfg, systemPath)
	if err != nil {
		return nil, err
	}

	storeOpts := []core.StoreOption{
		core.WithLogger(o.logger),
		core.WithReadOnly(cfg.ReadOnly),
		core.WithClock(o.clock),
	}
	v.Store = core.NewStore(index, v.Content, storeOpts...)

	v.Prefs, err = prefs.Open(o.fs, filepath.Join(systemPath, PrefsFileName))
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	o.logger.Debug("vault opened", "path", resolved, "adapter", cfg.Adapter, "read_only", cfg.ReadOnly)
	return v, nil
}

func openIndex(ctx context.Context, o *options, cfg FileConfig, systemPath string) (core.Index, error) {
	if o.index != nil {
		return o.index, nil
	}

	switch cfg.Adapter {
	case AdapterMemory:
		return memory.NewIndex(), nil
	case AdapterSQLite, "":
		if !isOsFs(o.fs) {
			return nil, fmt.Errorf("the %s adapter requires the OS filesystem", AdapterSQLite)
		}
		dbPath := filepath.Join(systemPath, IndexFileName)
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) && cfg.ReadOnly {
			return nil, fmt.Errorf("index does not exist: %s", dbPath)
		}
		return sqlindex.Open(ctx, sqlindex.Config{Path: dbPath, Logger: o.logger})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", cfg.Adapter)
	}
}

// Close releases the index.
func (v *Vault) Close() error {
	return v.Store.Close()
}

// Logger returns the logger the vault was opened with.
func (v *Vault) Logger() *slog.Logger {
	return v.logger
}

// BackupTarget resolves a backup destination. An http(s) URL selects a
// WebDAV collection (credentials from the URL user info); anything else is
// a local directory, relative paths being taken from the vault root. An
// empty destination means <system dir>/backups.
func (v *Vault) BackupTarget(dest string) (backup.Target, error) {
	if dest == "" {
		return backup.NewLocalTarget(v.fs, filepath.Join(v.Path, v.SystemDir, BackupDirName)), nil
	}

	if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") {
		u, err := url.Parse(dest)
		if err != nil {
			return nil, fmt.Errorf("invalid backup url: %w", err)
		}
		cfg := backup.WebDAVConfig{BasePath: u.Path}
		if u.User != nil {
			cfg.Username = u.User.Username()
			cfg.Password, _ = u.User.Password()
		}
		u.User = nil
		u.Path = ""
		cfg.BaseURL = u.String()
		return backup.NewWebDAVTarget(cfg), nil
	}

	if !filepath.IsAbs(dest) {
		dest = filepath.Join(v.Path, dest)
	}
	return backup.NewLocalTarget(v.fs, dest), nil
}

func isOsFs(fsys afero.Fs) bool {
	_, ok := fsys.(*afero.OsFs)
	return ok
}
