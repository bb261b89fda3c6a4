// Package sqlindex implements core.Index on SQLite.
//
// The catalogue is a single versioned table primary-keyed by entry ID with
// a secondary index on name. Connections come from a zombiezen sqlitex
// pool with WAL journaling, so batch lookups issued concurrently by the
// store each take their own connection.
package sqlindex

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/aretw0/nook/pkg/core"
)

// Config holds the parameters for opening an index.
type Config struct {
	// Path is the database file. Its directory must exist.
	Path string

	// PoolSize is the number of connections. Zero means max(NumCPU, 4).
	PoolSize int

	// Logger receives open/close and upgrade messages. Nil discards them.
	Logger *slog.Logger
}

// Index implements core.Index on a SQLite database.
type Index struct {
	pool   *sqlitex.Pool
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the index database and runs the schema
// upgrade step.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlindex: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlindex: opening %s: %w", cfg.Path, err)
	}

	x := &Index{pool: pool, path: cfg.Path, logger: logger}

	conn, err := x.take(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	from, err := upgrade(conn)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlindex: %w", err)
	}

	if from != SchemaVersion {
		logger.Info("index schema upgraded", "path", cfg.Path, "from", from, "to", SchemaVersion)
	}
	logger.Debug("index opened", "path", cfg.Path, "pool_size", poolSize)
	return x, nil
}

func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlindex: %s: %w", pragma, err)
		}
	}
	return nil
}

func (x *Index) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlindex: take: %w", err)
	}
	return conn, nil
}

const selectColumns = "SELECT id, name, icon, type, parent, description, created, modified FROM entries"

func (x *Index) Get(ctx context.Context, ids []string) ([]core.Optional[core.Entry], error) {
	out := make([]core.Optional[core.Entry], len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	conn, err := x.take(ctx)
	if err != nil {
		return nil, err
	}
	defer x.pool.Put(conn)

	for i, id := range ids {
		if core.IsRoot(id) {
			continue
		}
		e, ok, err := queryOne(conn, selectColumns+" WHERE id = ?", id)
		if err != nil {
			return nil, fmt.Errorf("sqlindex: get %s: %w", id, err)
		}
		if ok {
			out[i] = core.Some(e)
		}
	}
	return out, nil
}

func (x *Index) GetByName(ctx context.Context, names []string) ([]core.Optional[core.Entry], error) {
	out := make([]core.Optional[core.Entry], len(names))
	if len(names) == 0 {
		return out, nil
	}

	conn, err := x.take(ctx)
	if err != nil {
		return nil, err
	}
	defer x.pool.Put(conn)

	for i, name := range names {
		e, ok, err := queryOne(conn, selectColumns+" WHERE name = ? ORDER BY id LIMIT 1", name)
		if err != nil {
			return nil, fmt.Errorf("sqlindex: get by name %q: %w", name, err)
		}
		if ok {
			out[i] = core.Some(e)
		}
	}
	return out, nil
}

func (x *Index) Put(ctx context.Context, e core.Entry) error {
	if core.IsRoot(e.ID) {
		return core.ErrRootEntry
	}
	args, err := entryArgs(e)
	if err != nil {
		return err
	}

	conn, err := x.take(ctx)
	if err != nil {
		return err
	}
	defer x.pool.Put(conn)

	err = sqlitex.Execute(conn, `INSERT INTO entries
		(id, name, icon, type, parent, description, created, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			type = excluded.type,
			parent = excluded.parent,
			description = excluded.description,
			created = excluded.created,
			modified = excluded.modified`,
		&sqlitex.ExecOptions{Args: args})
	if err != nil {
		return fmt.Errorf("sqlindex: put %s: %w", e.ID, err)
	}
	return nil
}

func (x *Index) Add(ctx context.Context, e core.Entry) error {
	if core.IsRoot(e.ID) {
		return core.ErrRootEntry
	}
	args, err := entryArgs(e)
	if err != nil {
		return err
	}

	conn, err := x.take(ctx)
	if err != nil {
		return err
	}
	defer x.pool.Put(conn)

	err = sqlitex.Execute(conn, `INSERT INTO entries
		(id, name, icon, type, parent, description, created, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		&sqlitex.ExecOptions{Args: args})
	if err != nil {
		return fmt.Errorf("sqlindex: add %s: %w", e.ID, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("%w: %s", core.ErrDuplicateID, e.ID)
	}
	return nil
}

func (x *Index) Delete(ctx context.Context, id string) error {
	conn, err := x.take(ctx)
	if err != nil {
		return err
	}
	defer x.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM entries WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("sqlindex: delete %s: %w", id, err)
	}
	return nil
}

func (x *Index) All(ctx context.Context) ([]core.Entry, error) {
	conn, err := x.take(ctx)
	if err != nil {
		return nil, err
	}
	defer x.pool.Put(conn)

	var entries []core.Entry
	err = sqlitex.Execute(conn, selectColumns+" ORDER BY id", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			e, err := scanEntry(stmt)
			if err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlindex: list: %w", err)
	}
	return entries, nil
}

// Close closes all connections. Blocks until borrowed connections are returned.
func (x *Index) Close() error {
	if err := x.pool.Close(); err != nil {
		x.logger.Error("index close error", "path", x.path, "error", err)
		return fmt.Errorf("sqlindex: closing %s: %w", x.path, err)
	}
	x.logger.Debug("index closed", "path", x.path)
	return nil
}

// ComponentType implements introspection.Component.
func (x *Index) ComponentType() string {
	return "sqlite-index"
}

func queryOne(conn *sqlite.Conn, query string, arg any) (core.Entry, bool, error) {
	var (
		e     core.Entry
		found bool
	)
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{arg},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var err error
			e, err = scanEntry(stmt)
			found = err == nil
			return err
		},
	})
	return e, found, err
}

// Columns: id(0), name(1), icon(2), type(3), parent(4), description(5),
// created(6), modified(7)
func scanEntry(stmt *sqlite.Stmt) (core.Entry, error) {
	typ, err := core.ParseEntryType(stmt.ColumnText(3))
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", stmt.ColumnText(0), err)
	}
	return core.Entry{
		ID:          stmt.ColumnText(0),
		Name:        stmt.ColumnText(1),
		Icon:        stmt.ColumnText(2),
		Type:        typ,
		Parent:      stmt.ColumnText(4),
		Description: stmt.ColumnText(5),
		Created:     time.UnixMilli(stmt.ColumnInt64(6)).UTC(),
		Modified:    time.UnixMilli(stmt.ColumnInt64(7)).UTC(),
	}, nil
}

func entryArgs(e core.Entry) ([]any, error) {
	typ, err := e.Type.MarshalText()
	if err != nil {
		return nil, err
	}
	return []any{
		e.ID,
		e.Name,
		e.Icon,
		string(typ),
		e.Parent,
		e.Description,
		e.Created.UnixMilli(),
		e.Modified.UnixMilli(),
	}, nil
}

var _ core.Index = (*Index)(nil)
