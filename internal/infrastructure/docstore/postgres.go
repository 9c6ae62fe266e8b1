package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PostgresStore implements Store on PostgreSQL, one JSONB table per
// collection named "<database>_<collection>".
type PostgresStore struct {
	db       *sql.DB
	database string
}

// ConnectPostgres establishes a pooled connection to PostgreSQL.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func NewPostgresStore(db *sql.DB, database string) *PostgresStore {
	return &PostgresStore{db: db, database: database}
}

// EnsureSchema creates the backing tables for the named collections.
// Called once at startup so a misconfigured database fails fast.
func (s *PostgresStore) EnsureSchema(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		stmt := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				seq BIGSERIAL,
				id UUID PRIMARY KEY,
				doc JSONB NOT NULL
			)`, s.tableName(name))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table for %s: %w", name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Collection(name string) Collection {
	return &postgresCollection{db: s.db, table: s.tableName(name)}
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) tableName(collection string) string {
	return pq.QuoteIdentifier(s.database + "_" + collection)
}

type postgresCollection struct {
	db    *sql.DB
	table string
}

func (c *postgresCollection) FindAll(ctx context.Context) ([]Document, error) {
	return c.query(ctx, "", nil)
}

func (c *postgresCollection) Find(ctx context.Context, f Filter) ([]Document, error) {
	where, args := buildWhere(f)
	return c.query(ctx, where, args)
}

func (c *postgresCollection) query(ctx context.Context, where string, args []any) ([]Document, error) {
	stmt := fmt.Sprintf("SELECT doc FROM %s%s ORDER BY seq", c.table, where)
	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// buildWhere renders the filter as a disjunction over JSONB fields. Field
// names come from callers, never from request input; values are bound.
func buildWhere(f Filter) (string, []any) {
	if len(f.Any) == 0 {
		return "", nil
	}

	var conds []string
	var args []any
	for _, cl := range f.Any {
		field := pq.QuoteLiteral(cl.Field)
		switch cl.Op {
		case OpContains:
			args = append(args, cl.Value)
			conds = append(conds, fmt.Sprintf(
				"doc->>%s ILIKE '%%' || $%d || '%%'", field, len(args)))
		case OpEquals:
			args = append(args, cl.Value)
			conds = append(conds, fmt.Sprintf(
				"(jsonb_typeof(doc->%s) = 'number' AND (doc->>%s)::numeric = $%d)",
				field, field, len(args)))
		}
	}
	return " WHERE " + strings.Join(conds, " OR "), args
}

func (c *postgresCollection) FindByID(ctx context.Context, id ID) (Document, error) {
	stmt := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", c.table)

	var raw []byte
	err := c.db.QueryRowContext(ctx, stmt, id.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func (c *postgresCollection) InsertOne(ctx context.Context, doc Document) (ID, error) {
	id := NewID()
	stored := copyDoc(doc)
	stored[IDField] = id.String()

	raw, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", c.table)
	if _, err := c.db.ExecContext(ctx, stmt, id.String(), raw); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// IncrementField is a single conditional UPDATE; insufficiency is read off
// RowsAffected rather than a prior fetch, so concurrent decrements of the
// same document serialize at the row level.
func (c *postgresCollection) IncrementField(ctx context.Context, id ID, field string, delta int) error {
	lit := pq.QuoteLiteral(field)
	stmt := fmt.Sprintf(`
		UPDATE %s
		SET doc = jsonb_set(doc, ARRAY[%s],
			to_jsonb(COALESCE((doc->>%s)::numeric, 0) + $2::numeric))
		WHERE id = $1
		  AND COALESCE((doc->>%s)::numeric, 0) + $2::numeric >= 0`,
		c.table, lit, lit, lit)

	res, err := c.db.ExecContext(ctx, stmt, id.String(), delta)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := c.FindByID(ctx, id); errors.Is(err, ErrNotFound) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return ErrConditionFailed
}
