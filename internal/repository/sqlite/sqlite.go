package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"nodegraph/internal/codec"
	"nodegraph/internal/domain"
	"nodegraph/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db     *sql.DB
	codec  *codec.BinaryCodec
	logger *slog.Logger
	now    func() time.Time
}

var _ repository.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCompression toggles zstd compression of stored documents. Reading
// accepts both forms.
func WithCompression(enabled bool) Option {
	return func(r *Repository) {
		r.codec = codec.NewBinaryCodec(enabled)
	}
}

// New creates a new SQLite repository
func New(dbPath string, opts ...Option) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writers serialized.
	db.SetMaxOpenConns(1)

	repo := &Repository{
		db:     db,
		codec:  codec.NewBinaryCodec(true),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		flowcharts INTEGER NOT NULL DEFAULT 0,
		nodes INTEGER NOT NULL DEFAULT 0,
		connectors INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value JSON NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveDocument inserts or replaces a document
func (r *Repository) SaveDocument(ctx context.Context, name string, doc *codec.Element) error {
	if name == "" {
		return fmt.Errorf("save document: empty name: %w", domain.ErrInvalidArgument)
	}
	if doc == nil {
		return fmt.Errorf("save document %q: nil document: %w", name, domain.ErrInvalidArgument)
	}

	data, err := r.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	counts := countElements(doc)
	now := formatTime(r.now())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (name, data, flowcharts, nodes, connectors, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			flowcharts = excluded.flowcharts,
			nodes = excluded.nodes,
			connectors = excluded.connectors,
			size = excluded.size,
			updated_at = excluded.updated_at
	`, name, data, counts.flowCharts, counts.nodes, counts.connectors, len(data), now, now); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if err := r.setMetadata(ctx, tx, "last_save", lastSave{Name: name, At: r.now().UTC()}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug("document saved", "name", name, "bytes", len(data), "nodes", counts.nodes)
	return nil
}

// lastSave is the value of the last_save metadata key.
type lastSave struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

// LoadDocument retrieves a document by name
func (r *Repository) LoadDocument(ctx context.Context, name string) (*codec.Element, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc, err := r.codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w: %w", name, domain.ErrCorruptDocument, err)
	}
	return doc, nil
}

// ListDocuments returns every stored document, most recently updated first
func (r *Repository) ListDocuments(ctx context.Context) ([]repository.DocumentInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, flowcharts, nodes, connectors, size, created_at, updated_at
		FROM documents
		ORDER BY updated_at DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []repository.DocumentInfo
	for rows.Next() {
		var (
			info               repository.DocumentInfo
			created, updated string
		)
		if err := rows.Scan(&info.Name, &info.FlowCharts, &info.Nodes, &info.Connectors, &info.Size, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if info.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if info.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		docs = append(docs, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document
func (r *Repository) DeleteDocument(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

// SetMetadata stores a JSON value under a key
func (r *Repository) SetMetadata(ctx context.Context, key string, value any) error {
	return r.setMetadata(ctx, r.db, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *Repository) setMetadata(ctx context.Context, db execer, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata %q: %w", key, err)
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data), formatTime(r.now())); err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}
	return nil
}

// GetMetadata decodes the value stored under a key into target. It reports
// false when the key is absent.
func (r *Repository) GetMetadata(ctx context.Context, key string, target any) (bool, error) {
	var value sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query metadata: %w", err)
	}
	if err := unmarshalJSONField(value, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal metadata %q: %w", key, err)
	}
	return true, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
