// Package prefs persists per-vault session preferences as a YAML file.
// The file is read once on Open and rewritten after every change.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/nook/pkg/core"
)

// MaxRecent bounds each recent list.
const MaxRecent = 20

// DefaultAutoSaveDelayMs is the editor auto-save delay used when unset.
const DefaultAutoSaveDelayMs = 400

// Preferences holds the persisted values.
type Preferences struct {
	RecentNotes     []string `yaml:"recent_notes,omitempty"`
	RecentFiles     []string `yaml:"recent_files,omitempty"`
	GridView        bool     `yaml:"grid_view"`
	EditorEditMode  bool     `yaml:"editor_edit_mode"`
	AutoSave        bool     `yaml:"auto_save"`
	AutoSaveDelayMs int      `yaml:"auto_save_delay_ms"`
	HomepageSeen    bool     `yaml:"homepage_seen"`
}

// Defaults returns the preferences of a fresh vault.
func Defaults() Preferences {
	return Preferences{AutoSaveDelayMs: DefaultAutoSaveDelayMs}
}

// File is a Preferences value bound to its file.
type File struct {
	fs   afero.Fs
	path string

	mu    sync.Mutex
	prefs Preferences
}

// Open loads the preferences at path. A missing file yields Defaults.
func Open(fsys afero.Fs, path string) (*File, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	f := &File{fs: fsys, path: path, prefs: Defaults()}

	data, err := afero.ReadFile(fsys, path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.prefs); err != nil {
		return nil, fmt.Errorf("invalid preferences file %s: %w", path, err)
	}
	if f.prefs.AutoSaveDelayMs <= 0 {
		f.prefs.AutoSaveDelayMs = DefaultAutoSaveDelayMs
	}
	return f, nil
}

// Get returns a copy of the current preferences.
func (f *File) Get() Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.prefs
	p.RecentNotes = slices.Clone(p.RecentNotes)
	p.RecentFiles = slices.Clone(p.RecentFiles)
	return p
}

// Update applies fn and writes the result.
func (f *File) Update(fn func(*Preferences)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.prefs
	next.RecentNotes = slices.Clone(next.RecentNotes)
	next.RecentFiles = slices.Clone(next.RecentFiles)
	fn(&next)

	if err := f.save(next); err != nil {
		return err
	}
	f.prefs = next
	return nil
}

// Touch moves e to the front of the matching recent list.
// Directories are not tracked.
func (f *File) Touch(e core.Entry) error {
	switch e.Type {
	case core.TypeDirectory:
		return nil
	case core.TypeNote:
		return f.Update(func(p *Preferences) { p.RecentNotes = pushFront(p.RecentNotes, e.ID) })
	case core.TypeImage, core.TypeVideo, core.TypeAudio:
		return f.Update(func(p *Preferences) { p.RecentFiles = pushFront(p.RecentFiles, e.ID) })
	default:
		return fmt.Errorf("%w: %d", core.ErrUnknownEntryType, e.Type)
	}
}

// Forget drops ids from both recent lists.
func (f *File) Forget(ids ...string) error {
	drop := func(id string) bool { return slices.Contains(ids, id) }
	return f.Update(func(p *Preferences) {
		p.RecentNotes = slices.DeleteFunc(p.RecentNotes, drop)
		p.RecentFiles = slices.DeleteFunc(p.RecentFiles, drop)
	})
}

func (f *File) save(p Preferences) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences dir: %w", err)
	}
	if err := afero.WriteFile(f.fs, f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

func pushFront(list []string, id string) []string {
	list = slices.DeleteFunc(list, func(s string) bool { return s == id })
	list = slices.Insert(list, 0, id)
	if len(list) > MaxRecent {
		list = list[:MaxRecent]
	}
	return list
}
