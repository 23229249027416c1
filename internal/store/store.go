// Package store persists delta-resolver snapshots to SQLite, so the
// canonicalization tables of compiled libraries survive across runs.
// Inline bodies are not serialized (there is no term wire format); the
// body column holds a rendered form for inspection, and loaded entries
// carry the level only.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/funvibe/modsubst/internal/names"
	"github.com/funvibe/modsubst/internal/prettyprinter"
	"github.com/funvibe/modsubst/internal/subst"
)

// Store manages the resolver snapshot database.
type Store struct {
	db     *sql.DB
	dbPath string
	log    *zap.Logger
}

// Open creates or opens the snapshot store under dir. A nil logger
// disables logging.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	dbPath := filepath.Join(dir, "resolvers.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		library TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_library ON snapshots(library);

	CREATE TABLE IF NOT EXISTS module_aliases (
		snapshot_id TEXT NOT NULL,
		src TEXT NOT NULL,
		dst TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_module_aliases_snapshot ON module_aliases(snapshot_id);

	CREATE TABLE IF NOT EXISTS name_aliases (
		snapshot_id TEXT NOT NULL,
		src TEXT NOT NULL,
		dst TEXT,
		inline_level INTEGER,
		inline_body TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_name_aliases_snapshot ON name_aliases(snapshot_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SnapshotInfo describes one stored snapshot.
type SnapshotInfo struct {
	ID        string
	Library   string
	CreatedAt time.Time
	Modules   int
	Names     int
}

// SaveSnapshot stores the resolver tables under a fresh snapshot id.
// Resolvers still mentioning unapplied functor parameters cannot be
// persisted and are rejected.
func (s *Store) SaveSnapshot(library string, d subst.DeltaResolver) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO snapshots (id, library, created_at) VALUES (?, ?, ?)`,
		id, library, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("inserting snapshot: %w", err)
	}

	for _, a := range d.ModuleAliases() {
		if names.ContainsBound(a[0]) || names.ContainsBound(a[1]) {
			return "", fmt.Errorf("module alias %s -> %s mentions an unapplied functor parameter", a[0], a[1])
		}
		if _, err := tx.Exec(
			`INSERT INTO module_aliases (snapshot_id, src, dst) VALUES (?, ?, ?)`,
			id, a[0].String(), a[1].String(),
		); err != nil {
			return "", fmt.Errorf("inserting module alias: %w", err)
		}
	}

	for _, a := range d.NameAliases() {
		if names.ContainsBound(a.Src.Module) {
			return "", fmt.Errorf("name alias source %s mentions an unapplied functor parameter", a.Src)
		}
		var dst any
		if a.Dst != nil {
			if names.ContainsBound(a.Dst.Module) {
				return "", fmt.Errorf("name alias target %s mentions an unapplied functor parameter", a.Dst)
			}
			dst = a.Dst.String()
		}
		var level, body any
		if a.Inline != nil {
			level = a.Inline.Level
			if a.Inline.Body != nil {
				_, _, t := a.Inline.Body.Inspect()
				body = prettyprinter.Term(t)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO name_aliases (snapshot_id, src, dst, inline_level, inline_body) VALUES (?, ?, ?, ?, ?)`,
			id, a.Src.String(), dst, level, body,
		); err != nil {
			return "", fmt.Errorf("inserting name alias: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing snapshot: %w", err)
	}
	s.log.Debug("snapshot saved",
		zap.String("id", id),
		zap.String("library", library))
	return id, nil
}

// LoadSnapshot rebuilds the resolver stored under id. Inline entries come
// back with their level and no body.
func (s *Store) LoadSnapshot(id string) (subst.DeltaResolver, error) {
	d := subst.EmptyDelta()

	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE id = ?`, id).Scan(&exists); err != nil {
		return d, fmt.Errorf("querying snapshot: %w", err)
	}
	if exists == 0 {
		return d, fmt.Errorf("snapshot %s not found", id)
	}

	rows, err := s.db.Query(`SELECT src, dst FROM module_aliases WHERE snapshot_id = ?`, id)
	if err != nil {
		return d, fmt.Errorf("querying module aliases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var srcText, dstText string
		if err := rows.Scan(&srcText, &dstText); err != nil {
			return d, fmt.Errorf("scanning module alias: %w", err)
		}
		src, err := names.ParseModulePath(srcText)
		if err != nil {
			return d, fmt.Errorf("parsing module alias source: %w", err)
		}
		dst, err := names.ParseModulePath(dstText)
		if err != nil {
			return d, fmt.Errorf("parsing module alias target: %w", err)
		}
		d = d.AddModuleAlias(src, dst)
	}
	if err := rows.Err(); err != nil {
		return d, fmt.Errorf("reading module aliases: %w", err)
	}

	nrows, err := s.db.Query(`SELECT src, dst, inline_level FROM name_aliases WHERE snapshot_id = ?`, id)
	if err != nil {
		return d, fmt.Errorf("querying name aliases: %w", err)
	}
	defer nrows.Close()
	for nrows.Next() {
		var srcText string
		var dstText sql.NullString
		var level sql.NullInt64
		if err := nrows.Scan(&srcText, &dstText, &level); err != nil {
			return d, fmt.Errorf("scanning name alias: %w", err)
		}
		src, err := names.ParseKernelName(srcText)
		if err != nil {
			return d, fmt.Errorf("parsing name alias source: %w", err)
		}
		if dstText.Valid {
			dst, err := names.ParseKernelName(dstText.String)
			if err != nil {
				return d, fmt.Errorf("parsing name alias target: %w", err)
			}
			d = d.AddNameAlias(src, dst)
		}
		if level.Valid {
			d = d.AddInline(src, int(level.Int64), nil)
		}
	}
	if err := nrows.Err(); err != nil {
		return d, fmt.Errorf("reading name aliases: %w", err)
	}

	s.log.Debug("snapshot loaded", zap.String("id", id))
	return d, nil
}

// ListSnapshots returns all snapshots, newest first, with entry counts.
func (s *Store) ListSnapshots() ([]SnapshotInfo, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.library, s.created_at,
			(SELECT COUNT(*) FROM module_aliases m WHERE m.snapshot_id = s.id),
			(SELECT COUNT(*) FROM name_aliases n WHERE n.snapshot_id = s.id)
		FROM snapshots s
		ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var created string
		if err := rows.Scan(&info.ID, &info.Library, &created, &info.Modules, &info.Names); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		info.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parsing snapshot timestamp: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
