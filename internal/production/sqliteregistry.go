package production

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/comalice/sheetx/internal/core"
)

const registrySchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	machine_id TEXT NOT NULL,
	version TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	chart_id TEXT NOT NULL,
	current_state TEXT NOT NULL,
	snapshot_json TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY(machine_id, version)
);

CREATE INDEX IF NOT EXISTS snapshots_by_sequence
ON snapshots(machine_id, sequence DESC);
`

// SQLiteRegistry is a Registry that keeps every snapshot version in SQLite.
type SQLiteRegistry struct {
	db *sql.DB
}

// OpenSQLiteRegistry opens (creating if needed) the registry database at path.
// Use ":memory:" for a private in-memory registry.
func OpenSQLiteRegistry(ctx context.Context, path string) (*SQLiteRegistry, error) {
	dsn := "file::memory:?_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, registrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply registry schema: %w", err)
	}
	return &SQLiteRegistry{db: db}, nil
}

func (r *SQLiteRegistry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Register stores snapshot under its SnapshotVersion. Registering the same
// version twice returns ErrExists.
func (r *SQLiteRegistry) Register(ctx context.Context, machineID string, snapshot core.MachineSnapshot) error {
	version, err := core.SnapshotVersion(snapshot)
	if err != nil {
		return err
	}
	if machineID == "" {
		return fmt.Errorf("%w: empty machine ID", core.ErrInvalidState)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO snapshots(machine_id, version, sequence, chart_id, current_state, snapshot_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(machine_id, version) DO NOTHING
`, machineID, version, int64(snapshot.Sequence), snapshot.ChartID, snapshot.Current, string(data), ts(time.Now()))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s@%s: %w", machineID, version, core.ErrExists)
	}
	return nil
}

// Latest returns the snapshot with the highest sequence.
func (r *SQLiteRegistry) Latest(ctx context.Context, machineID string) (core.MachineSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT snapshot_json FROM snapshots
WHERE machine_id = ?
ORDER BY sequence DESC, created_at DESC
LIMIT 1
`, machineID)
	return scanSnapshot(row, machineID, "latest")
}

func (r *SQLiteRegistry) Version(ctx context.Context, machineID, version string) (core.MachineSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT snapshot_json FROM snapshots
WHERE machine_id = ? AND version = ?
`, machineID, version)
	return scanSnapshot(row, machineID, version)
}

func (r *SQLiteRegistry) ListVersions(ctx context.Context, machineID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT version FROM snapshots
WHERE machine_id = ?
ORDER BY sequence DESC, created_at DESC
`, machineID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()
	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("machine %q: %w", machineID, core.ErrNotFound)
	}
	return versions, nil
}

func (r *SQLiteRegistry) ListMachines(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT machine_id FROM snapshots ORDER BY machine_id`)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan machine id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSnapshot(row *sql.Row, machineID, version string) (core.MachineSnapshot, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.MachineSnapshot{}, fmt.Errorf("%s@%s: %w", machineID, version, core.ErrNotFound)
		}
		return core.MachineSnapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	var snapshot core.MachineSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return core.MachineSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
