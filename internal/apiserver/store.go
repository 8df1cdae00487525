package apiserver

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"utsavya/internal/item"
)

const defaultDBName = "utsavya.db"

// ErrNotFound reports a record id absent from a resource's table.
var ErrNotFound = errors.New("record not found")

//go:embed sql/*.sql
var migrationsFS embed.FS

// Records persists every resource's items in one SQLite table keyed by
// resource name and record id.
type Records struct {
	db *sql.DB
}

func dbPath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".utsavya", defaultDBName)
}

// EnsureWorkspace creates the workspace state directory if missing.
func EnsureWorkspace(workspace string) (string, error) {
	path := filepath.Join(workspace, ".utsavya")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// OpenRecords opens the workspace database and applies migrations.
func OpenRecords(workspace string) (*Records, error) {
	if _, err := EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", dbPath(workspace))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &Records{db: conn}, nil
}

// Close closes the underlying database.
func (r *Records) Close() error { return r.db.Close() }

// List returns every record of one resource, oldest first.
func (r *Records) List(ctx context.Context, resource string) ([]item.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payload FROM records WHERE resource = ? ORDER BY created_at, id`, resource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []item.Item{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		it, err := decodeRecord(id, payload)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get returns one record.
func (r *Records) Get(ctx context.Context, resource, id string) (item.Item, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE resource = ? AND id = ?`, resource, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return item.Item{}, fmt.Errorf("%w: %s/%s", ErrNotFound, resource, id)
	}
	if err != nil {
		return item.Item{}, err
	}
	return decodeRecord(id, payload)
}

// Create inserts a record with a fresh id and returns it.
func (r *Records) Create(ctx context.Context, resource string, fields map[string]any) (item.Item, error) {
	id := uuid.NewString()
	payload, err := json.Marshal(fields)
	if err != nil {
		return item.Item{}, err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO records (resource, id, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		resource, id, string(payload), now, now)
	if err != nil {
		return item.Item{}, err
	}
	return item.Item{ID: id, Fields: fields}, nil
}

// Update replaces a record's fields and returns the stored item.
func (r *Records) Update(ctx context.Context, resource, id string, fields map[string]any) (item.Item, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return item.Item{}, err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET payload = ?, updated_at = ? WHERE resource = ? AND id = ?`,
		string(payload), now, resource, id)
	if err != nil {
		return item.Item{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return item.Item{}, err
	}
	if n == 0 {
		return item.Item{}, fmt.Errorf("%w: %s/%s", ErrNotFound, resource, id)
	}
	return item.Item{ID: id, Fields: fields}, nil
}

// Delete removes a record.
func (r *Records) Delete(ctx context.Context, resource, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE resource = ? AND id = ?`, resource, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, resource, id)
	}
	return nil
}

func decodeRecord(id, payload string) (item.Item, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return item.Item{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return item.Item{ID: id, Fields: fields}, nil
}

type migration struct {
	Version int
	Name    string
	UpSQL   string
}

func loadMigrations() ([]migration, error) {
	files, err := fs.ReadDir(migrationsFS, "sql")
	if err != nil {
		return nil, err
	}
	var migrations []migration
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := migrationsFS.ReadFile("sql/" + f.Name())
		if err != nil {
			return nil, err
		}
		var v int
		if _, err := fmt.Sscanf(f.Name(), "%d_", &v); err != nil {
			return nil, fmt.Errorf("invalid migration filename %s: %w", f.Name(), err)
		}
		migrations = append(migrations, migration{Version: v, Name: f.Name(), UpSQL: string(data)})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func migrate(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL);`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var currentVersion int
	err = tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&currentVersion)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema_version: %w", err)
		}
		currentVersion = 0
	} else if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		if _, err := tx.Exec(m.UpSQL); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, m.Version); err != nil {
			return fmt.Errorf("update schema_version: %w", err)
		}
		currentVersion = m.Version
	}
	return tx.Commit()
}
