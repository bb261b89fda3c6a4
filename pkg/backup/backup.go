// Package backup stores transfer documents as archives on a Target.
//
// The archive name selects the encoding (see CodecFor). Each archive is
// accompanied by a checksum file holding the BLAKE3 digest of the archive
// bytes; Restore verifies it when present.
package backup

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/aretw0/nook/pkg/core"
	"github.com/aretw0/nook/pkg/transfer"
)

// ChecksumSuffix is appended to an archive name to form its checksum file.
const ChecksumSuffix = ".b3"

// DefaultFormat is the archive extension used when none is requested.
const DefaultFormat = ".json.zst"

// ErrChecksumMismatch is returned by Restore when an archive does not
// match its recorded digest.
var ErrChecksumMismatch = errors.New("archive checksum mismatch")

// Result describes a written archive.
type Result struct {
	Name     string
	Nodes    int
	Bytes    int
	Checksum string
}

// Manager writes and restores archives.
type Manager struct {
	target Target
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time used for generated archive names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a manager over target.
func NewManager(target Target, opts ...Option) *Manager {
	m := &Manager{
		target: target,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ArchiveName returns a timestamped archive name with the given extension.
func (m *Manager) ArchiveName(format string) string {
	if format == "" {
		format = DefaultFormat
	}
	if !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	return "nook-" + m.now().UTC().Format("20060102T150405Z") + format
}

// Backup exports directory dirID from src and stores it as name. An empty
// name gets a generated one in DefaultFormat.
func (m *Manager) Backup(ctx context.Context, src transfer.Source, dirID, name string) (Result, error) {
	if name == "" {
		name = m.ArchiveName(DefaultFormat)
	}
	codec, err := CodecFor(name)
	if err != nil {
		return Result{}, err
	}

	doc, err := transfer.Export(ctx, src, dirID, transfer.WithLogger(m.logger), transfer.WithClock(m.now))
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}

	data, err := codec.Marshal(doc)
	if err != nil {
		return Result{}, fmt.Errorf("encode %s: %w", name, err)
	}

	sum := Checksum(data)
	if err := m.target.Put(ctx, name, data); err != nil {
		return Result{}, err
	}
	if err := m.target.Put(ctx, name+ChecksumSuffix, []byte(sum+"  "+name+"\n")); err != nil {
		return Result{}, err
	}

	res := Result{Name: name, Nodes: doc.Count(), Bytes: len(data), Checksum: sum}
	m.logger.Info("backup written", "name", name, "nodes", res.Nodes, "bytes", res.Bytes)
	return res, nil
}

// Load fetches, verifies and decodes archive name.
func (m *Manager) Load(ctx context.Context, name string) (transfer.Node, error) {
	codec, err := CodecFor(name)
	if err != nil {
		return transfer.Node{}, err
	}

	data, err := m.target.Get(ctx, name)
	if err != nil {
		return transfer.Node{}, err
	}

	recorded, err := m.target.Get(ctx, name+ChecksumSuffix)
	switch {
	case errors.Is(err, ErrArchiveNotFound):
		m.logger.Warn("archive has no checksum file", "name", name)
	case err != nil:
		return transfer.Node{}, err
	default:
		want, _, _ := strings.Cut(strings.TrimSpace(string(recorded)), " ")
		if got := Checksum(data); got != want {
			return transfer.Node{}, fmt.Errorf("%w: %s: got %s, want %s", ErrChecksumMismatch, name, got, want)
		}
	}

	doc, err := codec.Unmarshal(data)
	if err != nil {
		return transfer.Node{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return doc, nil
}

// Restore imports archive name below parentID with fresh IDs.
func (m *Manager) Restore(ctx context.Context, dst transfer.Sink, name, parentID string) ([]core.Entry, error) {
	doc, err := m.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	created, err := transfer.Import(ctx, dst, doc, parentID, transfer.WithLogger(m.logger))
	if err != nil {
		return created, fmt.Errorf("import %s: %w", name, err)
	}
	m.logger.Info("backup restored", "name", name, "nodes", doc.Count(), "parent", parentID)
	return created, nil
}

// List returns the archive names on the target, without checksum files.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	names, err := m.target.List(ctx)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if !strings.HasSuffix(n, ChecksumSuffix) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Checksum returns the hex BLAKE3-256 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
