package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docs-agent/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docs-agent/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// DatabaseFile is the file created inside the data directory.
const DatabaseFile = "docs.db"

// Store is a SQLite-based storage that provides the vector store and
// project registry through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docs-agent/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docs-agent", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL for concurrent readers; foreign_keys must be set per connection.
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection. It is safe to call more than once.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// ProjectStore returns a ProjectStore interface backed by this store.
func (s *Store) ProjectStore() driven.ProjectStore {
	return &projectStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// EnsureCollection creates the collection row if absent.
func (v *vectorStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrVectorStore, dimension)
	}

	_, err := v.store.db.ExecContext(ctx, `
		INSERT INTO collections (name, dimension, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, collection, dimension, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: creating collection: %w", domain.ErrVectorStore, err)
	}

	existing, err := v.dimension(ctx, collection)
	if err != nil {
		return err
	}
	if existing != dimension {
		return fmt.Errorf("%w: collection %q has dimension %d, not %d",
			domain.ErrVectorStore, collection, existing, dimension)
	}
	return nil
}

// Upsert inserts record under a fresh id.
func (v *vectorStore) Upsert(ctx context.Context, collection string, record domain.DocumentRecord) (string, error) {
	dim, err := v.dimension(ctx, collection)
	if err != nil {
		return "", err
	}
	if len(record.Vector) != dim {
		return "", fmt.Errorf("%w: vector has dimension %d, collection %q expects %d",
			domain.ErrVectorStore, len(record.Vector), collection, dim)
	}

	id := uuid.New().String()
	_, err = v.store.db.ExecContext(ctx, `
		INSERT INTO records (id, collection, content, source_url, title, doc_type, vector, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, collection, record.Content, record.Metadata.SourceURL, record.Metadata.Title,
		record.Metadata.DocType, float32SliceToBytes(record.Vector), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%w: saving record: %w", domain.ErrVectorStore, err)
	}
	return id, nil
}

// Search scores every record in the collection against vector.
func (v *vectorStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	dim, err := v.dimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query has dimension %d, collection %q expects %d",
			domain.ErrVectorStore, len(vector), collection, dim)
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, content, source_url, title, doc_type, vector
		FROM records WHERE collection = ?
		ORDER BY created_at, rowid
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %w", domain.ErrVectorStore, err)
	}
	defer rows.Close()

	var (
		hits   []domain.ScoredRecord
		scores []float64
	)
	for rows.Next() {
		var (
			hit  domain.ScoredRecord
			blob []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Content, &hit.Metadata.SourceURL,
			&hit.Metadata.Title, &hit.Metadata.DocType, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning record: %w", domain.ErrVectorStore, err)
		}
		hit.Score = similarity.Cosine(vector, bytesToFloat32Slice(blob))
		hits = append(hits, hit)
		scores = append(scores, hit.Score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating records: %w", domain.ErrVectorStore, err)
	}

	idxs := similarity.TopK(scores, limit)
	results := make([]domain.ScoredRecord, 0, len(idxs))
	for _, i := range idxs {
		results = append(results, hits[i])
	}
	return results, nil
}

// Count returns the number of records in the collection.
func (v *vectorStore) Count(ctx context.Context, collection string) (int, error) {
	if _, err := v.dimension(ctx, collection); err != nil {
		return 0, err
	}

	var count int
	row := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE collection = ?", collection)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting records: %w", domain.ErrVectorStore, err)
	}
	return count, nil
}

// DeleteBySource removes every record read from sourceURL.
func (v *vectorStore) DeleteBySource(ctx context.Context, collection, sourceURL string) (int, error) {
	result, err := v.store.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND source_url = ?", collection, sourceURL)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting records: %w", domain.ErrVectorStore, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: deleting records: %w", domain.ErrVectorStore, err)
	}
	return int(n), nil
}

// Close closes the shared database.
func (v *vectorStore) Close() error {
	return v.store.Close()
}

func (v *vectorStore) dimension(ctx context.Context, collection string) (int, error) {
	var dim int
	row := v.store.db.QueryRowContext(ctx, "SELECT dimension FROM collections WHERE name = ?", collection)
	if err := row.Scan(&dim); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %w: collection %q", domain.ErrVectorStore, domain.ErrNotFound, collection)
		}
		return 0, fmt.Errorf("%w: reading collection: %w", domain.ErrVectorStore, err)
	}
	return dim, nil
}

// ==================== Project Store ====================

// projectStore implements driven.ProjectStore.
type projectStore struct {
	store *Store
}

var _ driven.ProjectStore = (*projectStore)(nil)

// List returns projects in insertion order.
func (p *projectStore) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := p.store.db.QueryContext(ctx,
		"SELECT name, readme_url, description FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var project domain.Project
		if err := rows.Scan(&project.Name, &project.ReadmeURL, &project.Description); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Add inserts a project; a duplicate README URL is rejected.
func (p *projectStore) Add(ctx context.Context, project domain.Project) error {
	result, err := p.store.db.ExecContext(ctx, `
		INSERT INTO projects (name, readme_url, description)
		VALUES (?, ?, ?)
		ON CONFLICT(readme_url) DO NOTHING
	`, project.Name, project.ReadmeURL, project.Description)
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: project %s", domain.ErrAlreadyExists, project.ReadmeURL)
	}
	return nil
}

// ==================== Helpers ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
