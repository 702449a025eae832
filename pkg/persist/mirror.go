// Package persist keeps a relational SQLite projection of a SKOS graph:
// resources, labels, relations, memberships and notes, plus the
// pending-operation markers that make a crash between the graph and the
// mirror detectable.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/coolbeans/skosgraph/pkg/store"
)

// ErrPersistenceUnavailable wraps every failure of the relational store.
var ErrPersistenceUnavailable = errors.New("persistence unavailable")

// Mirror is the SQLite-backed relational projection.
type Mirror struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *slog.Logger
	seq    int64
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets the logger used for mirror events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mirror) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Open opens (or creates) the mirror database. Use ":memory:" for a
// throwaway mirror or a file path for a persistent one.
func Open(dsn string, opts ...Option) (*Mirror, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, unavailable("opening database", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, unavailable("creating schema", err)
	}

	m := &Mirror{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}

	if err := db.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM pending_ops`).Scan(&m.seq); err != nil {
		db.Close()
		return nil, unavailable("reading pending operations", err)
	}
	return m, nil
}

// Close closes the database.
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.db.Close(); err != nil {
		return unavailable("closing database", err)
	}
	return nil
}

// Stage records a pending-operation marker holding the change set and
// returns its ID.
func (m *Mirror) Stage(ctx context.Context, changes store.ChangeSet) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	encoded, err := json.Marshal(changes)
	if err != nil {
		return "", fmt.Errorf("encoding change set: %w", err)
	}

	id := uuid.NewString()
	m.seq++
	_, err = m.db.ExecContext(ctx,
		`INSERT INTO pending_ops (id, seq, created_at, changes) VALUES (?, ?, ?, ?)`,
		id, m.seq, time.Now().UTC().Format(time.RFC3339Nano), string(encoded))
	if err != nil {
		return "", unavailable("staging change set", err)
	}

	m.logger.Debug("change set staged", "id", id, "added", len(changes.Add), "removed", len(changes.Remove))
	return id, nil
}

// Flush projects every staged change set, oldest first, and clears the
// markers in the same transaction.
func (m *Mirror) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("starting flush", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id, changes FROM pending_ops ORDER BY seq`)
	if err != nil {
		return unavailable("reading pending operations", err)
	}
	type pendingOp struct {
		id      string
		changes store.ChangeSet
	}
	var ops []pendingOp
	for rows.Next() {
		var id, encoded string
		if err := rows.Scan(&id, &encoded); err != nil {
			rows.Close()
			return unavailable("reading pending operations", err)
		}
		var changes store.ChangeSet
		if err := json.Unmarshal([]byte(encoded), &changes); err != nil {
			rows.Close()
			return fmt.Errorf("decoding pending operation %s: %w", id, err)
		}
		ops = append(ops, pendingOp{id: id, changes: changes})
	}
	if err := rows.Close(); err != nil {
		return unavailable("reading pending operations", err)
	}

	for _, op := range ops {
		for _, triple := range op.changes.Remove {
			if err := deleteRow(ctx, tx, triple); err != nil {
				return err
			}
		}
		for _, triple := range op.changes.Add {
			if err := insertRow(ctx, tx, triple); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_ops WHERE id = ?`, op.id); err != nil {
			return unavailable("clearing pending operation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing flush", err)
	}
	if len(ops) > 0 {
		m.logger.Debug("mirror flushed", "operations", len(ops))
	}
	return nil
}

// Discard drops a marker whose change set never reached the graph.
func (m *Mirror) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.db.ExecContext(ctx, `DELETE FROM pending_ops WHERE id = ?`, id); err != nil {
		return unavailable("discarding pending operation", err)
	}
	return nil
}

// Pending returns the IDs of staged, unflushed markers in staging order.
func (m *Mirror) Pending(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return queryStrings(ctx, m.db, `SELECT id FROM pending_ops ORDER BY seq`)
}

// Load projects triples into the mirror without clearing it.
func (m *Mirror) Load(ctx context.Context, triples []store.Triple) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("starting load", err)
	}
	defer tx.Rollback()

	for _, triple := range triples {
		if err := insertRow(ctx, tx, triple); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("committing load", err)
	}
	return nil
}

// Rebuild replaces every projected row with the projection of triples and
// clears all markers.
func (m *Mirror) Rebuild(ctx context.Context, triples []store.Triple) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("starting rebuild", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
			return unavailable("clearing "+t.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_ops`); err != nil {
		return unavailable("clearing pending operations", err)
	}
	for _, triple := range triples {
		if err := insertRow(ctx, tx, triple); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("committing rebuild", err)
	}

	m.logger.Info("mirror rebuilt", "triples", len(triples))
	return nil
}

// QueryByLabel returns the resources carrying a label with the exact text.
// An empty lang matches every language.
func (m *Mirror) QueryByLabel(ctx context.Context, text, lang string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lang == "" {
		return queryStrings(ctx, m.db,
			`SELECT DISTINCT uri FROM labels WHERE text = ? ORDER BY uri`, text)
	}
	return queryStrings(ctx, m.db,
		`SELECT DISTINCT uri FROM labels WHERE text = ? AND lang = ? ORDER BY uri`, text, strings.ToLower(lang))
}

// QueryMembers returns the concepts in a scheme, or the members of a
// collection.
func (m *Mirror) QueryMembers(ctx context.Context, container string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return queryStrings(ctx, m.db,
		`SELECT DISTINCT member FROM memberships
		 WHERE container = ? AND kind IN ('scheme', 'collection') ORDER BY member`, container)
}

// QueryRelations returns the targets of uri's outgoing relations of kind,
// named by its SKOS local name ("broader", "exactMatch", ...).
func (m *Mirror) QueryRelations(ctx context.Context, uri, kind string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return queryStrings(ctx, m.db,
		`SELECT target FROM relations WHERE source = ? AND kind = ? ORDER BY target`, uri, kind)
}

// Dump returns every projected row, each table sorted.
func (m *Mirror) Dump(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(Snapshot)
	for _, t := range tables {
		columns := strings.Join(t.columns, ", ")
		rows, err := m.db.QueryContext(ctx, "SELECT "+columns+" FROM "+t.name+" ORDER BY "+columns)
		if err != nil {
			return nil, unavailable("dumping "+t.name, err)
		}
		for rows.Next() {
			values := make([]string, len(t.columns))
			dest := make([]any, len(values))
			for i := range values {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				rows.Close()
				return nil, unavailable("dumping "+t.name, err)
			}
			snapshot[t.name] = append(snapshot[t.name], Row(values))
		}
		if err := rows.Close(); err != nil {
			return nil, unavailable("dumping "+t.name, err)
		}
	}
	return snapshot, nil
}

func insertRow(ctx context.Context, tx *sql.Tx, triple store.Triple) error {
	p, ok := project(triple)
	if !ok {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(p.row)), ", ")
	query := "INSERT OR IGNORE INTO " + p.table.name +
		" (" + strings.Join(p.table.columns, ", ") + ") VALUES (" + placeholders + ")"
	if _, err := tx.ExecContext(ctx, query, rowArgs(p.row)...); err != nil {
		return unavailable("inserting into "+p.table.name, err)
	}
	return nil
}

func deleteRow(ctx context.Context, tx *sql.Tx, triple store.Triple) error {
	p, ok := project(triple)
	if !ok {
		return nil
	}
	conditions := make([]string, len(p.table.columns))
	for i, column := range p.table.columns {
		conditions[i] = column + " = ?"
	}
	query := "DELETE FROM " + p.table.name + " WHERE " + strings.Join(conditions, " AND ")
	if _, err := tx.ExecContext(ctx, query, rowArgs(p.row)...); err != nil {
		return unavailable("deleting from "+p.table.name, err)
	}
	return nil
}

func rowArgs(row Row) []any {
	args := make([]any, len(row))
	for i, value := range row {
		args[i] = value
	}
	return args
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryStrings(ctx context.Context, db querier, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("querying", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, unavailable("scanning", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("querying", err)
	}
	return values, nil
}

func unavailable(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistenceUnavailable, action, err)
}
