package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		lineage_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		tenant_id TEXT NOT NULL DEFAULT '',
		type_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 0,
		revision INTEGER NOT NULL DEFAULT 0,
		body TEXT NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_lineage_version ON templates(lineage_id, version);`,
	`CREATE INDEX IF NOT EXISTS idx_templates_name ON templates(tenant_id, type_id, name);`,
}

// Store implements ports.TemplateStore on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and migrates it.
func New(db *sql.DB) (*Store, error) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new template. Constraint violations map to domain errors.
func (s *Store) Create(ctx context.Context, t *domain.FormTemplate) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates(id, lineage_id, version, tenant_id, type_id, name, is_active, revision, body)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		t.ID, t.LineageID, t.Version, t.TenantID, t.TypeID, t.Name, t.IsActive, t.Revision, string(body))
	if err != nil {
		if isUniqueViolation(err) {
			// Both keys may collide; the id takes precedence.
			if _, getErr := s.Get(ctx, t.ID); getErr == nil {
				return domain.ErrTemplateExists
			}
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// Get retrieves a template by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.FormTemplate, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM templates WHERE id=?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return decode(body)
}

func decode(body string) (*domain.FormTemplate, error) {
	var t domain.FormTemplate
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}
	return &t, nil
}

// Update writes the template if the stored revision still equals t.Revision.
func (s *Store) Update(ctx context.Context, t *domain.FormTemplate) error {
	current, err := s.Get(ctx, t.ID)
	if err != nil {
		return err
	}

	next := t.Clone()
	next.Revision++
	next.LineageID = current.LineageID
	next.Version = current.Version
	body, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE templates SET tenant_id=?, type_id=?, name=?, is_active=?, revision=?, body=?
		 WHERE id=? AND revision=?`,
		next.TenantID, next.TypeID, next.Name, next.IsActive, next.Revision, string(body), t.ID, t.Revision)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if n == 0 {
		return domain.ErrRevisionConflict
	}
	t.Revision = next.Revision
	return nil
}

// ListLineage returns every version of a lineage ordered by version.
func (s *Store) ListLineage(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error) {
	return s.query(ctx, s.db, `SELECT body FROM templates WHERE lineage_id=? ORDER BY version`, lineageID)
}

// List returns the templates matching the filter.
func (s *Store) List(ctx context.Context, filter ports.Filter) ([]*domain.FormTemplate, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		where = append(where, clause)
		args = append(args, arg)
	}
	if filter.TenantID != "" {
		add("tenant_id=?", filter.TenantID)
	}
	if filter.TypeID != "" {
		add("type_id=?", filter.TypeID)
	}
	if filter.Name != "" {
		add("name=?", filter.Name)
	}
	if filter.ActiveOnly {
		add("is_active=?", true)
	}

	q := `SELECT body FROM templates`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY name, lineage_id, version"
	return s.query(ctx, s.db, q, args...)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) query(ctx context.Context, q querier, query string, args ...any) ([]*domain.FormTemplate, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	out := []*domain.FormTemplate{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetActive switches the active version inside one transaction.
func (s *Store) SetActive(ctx context.Context, lineageID, templateID string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	versions, err := s.query(ctx, tx, `SELECT body FROM templates WHERE lineage_id=?`, lineageID)
	if err != nil {
		return err
	}
	changed, err := ports.ApplyActive(versions, templateID, at)
	if err != nil {
		return err
	}
	for _, t := range changed {
		body, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal template: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE templates SET is_active=?, revision=?, body=? WHERE id=?`,
			t.IsActive, t.Revision, string(body), t.ID); err != nil {
			return fmt.Errorf("failed to update template: %w", err)
		}
	}
	return tx.Commit()
}
