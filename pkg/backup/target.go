package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
	"github.com/studio-b12/gowebdav"
)

// ErrArchiveNotFound is returned by Target.Get for an unknown name.
var ErrArchiveNotFound = errors.New("archive not found")

// Target stores archives by flat name.
type Target interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	// List returns archive names in lexical order.
	List(ctx context.Context) ([]string, error)
}

// --- Local ---

// LocalTarget keeps archives in a directory of an afero filesystem.
type LocalTarget struct {
	fs  afero.Fs
	dir string
}

// NewLocalTarget creates a target rooted at dir. Nil fs means the OS filesystem.
func NewLocalTarget(fsys afero.Fs, dir string) *LocalTarget {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &LocalTarget{fs: fsys, dir: dir}
}

func (t *LocalTarget) Put(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := t.fs.MkdirAll(t.dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}
	return afero.WriteFile(t.fs, filepath.Join(t.dir, name), data, 0644)
}

func (t *LocalTarget) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(t.fs, filepath.Join(t.dir, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, name)
	}
	return data, err
}

func (t *LocalTarget) List(ctx context.Context) ([]string, error) {
	infos, err := afero.ReadDir(t.fs, t.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func (t *LocalTarget) String() string {
	return "file://" + filepath.ToSlash(t.dir)
}

// --- WebDAV ---

// WebDAVConfig describes a remote WebDAV collection.
type WebDAVConfig struct {
	BaseURL  string
	BasePath string
	Username string
	Password string
}

// WebDAVTarget keeps archives in a collection on a WebDAV server.
type WebDAVTarget struct {
	baseURL  string
	basePath string

	client *gowebdav.Client
}

// NewWebDAVTarget creates a target. No request is made until first use.
func NewWebDAVTarget(cfg WebDAVConfig) *WebDAVTarget {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/"
	}
	return &WebDAVTarget{
		baseURL:  cfg.BaseURL,
		basePath: basePath,
		client: gowebdav.NewClient(
			cfg.BaseURL,
			cfg.Username,
			cfg.Password,
		),
	}
}

func (t *WebDAVTarget) Put(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := t.client.MkdirAll(t.basePath, 0755); err != nil {
		return fmt.Errorf("webdav mkdir %s: %w", t.basePath, err)
	}
	if err := t.client.Write(gowebdav.Join(t.basePath, name), data, 0644); err != nil {
		return fmt.Errorf("webdav write %s: %w", name, err)
	}
	return nil
}

func (t *WebDAVTarget) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := t.client.Read(gowebdav.Join(t.basePath, name))
	if gowebdav.IsErrNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("webdav read %s: %w", name, err)
	}
	return data, nil
}

func (t *WebDAVTarget) List(ctx context.Context) ([]string, error) {
	objects, err := t.client.ReadDir(t.basePath)
	if gowebdav.IsErrNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("webdav list %s: %w", t.basePath, err)
	}
	var names []string
	for _, obj := range objects {
		if !obj.IsDir() {
			names = append(names, obj.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func (t *WebDAVTarget) String() string {
	return t.baseURL + path.Clean("/"+t.basePath)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || path.Base(name) != name || filepath.Base(name) != name {
		return fmt.Errorf("invalid archive name: %q", name)
	}
	return nil
}

var (
	_ Target = (*LocalTarget)(nil)
	_ Target = (*WebDAVTarget)(nil)
)
