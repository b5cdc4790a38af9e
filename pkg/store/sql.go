package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// SQLDialect selects the SQL flavour used by SQLStore
type SQLDialect string

const (
	DialectSQLite   SQLDialect = "sqlite"
	DialectMySQL    SQLDialect = "mysql"
	DialectPostgres SQLDialect = "postgres"
)

// mysqlMaxIDLength matches the doc_id VARCHAR(255) column
const mysqlMaxIDLength = 255

// mysqlDuplicateEntry is ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// SQLStore keeps documents in a single table of a relational database
type SQLStore struct {
	db      *sql.DB
	table   string
	dialect SQLDialect
}

// NewSQLStore opens the database and creates the document table if needed
func NewSQLStore(ctx context.Context, dialect SQLDialect, dsn, table string) (*SQLStore, error) {
	// Validate table name to prevent SQL injection
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
	case DialectMySQL:
		driverName = "mysql"
	case DialectPostgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported sql dialect: %s. Must be sqlite, mysql, or postgres", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	s := &SQLStore{db: db, table: table, dialect: dialect}
	if _, err := db.ExecContext(ctx, s.createTableQuery()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}

	return s, nil
}

func (s *SQLStore) createTableQuery() string {
	switch s.dialect {
	case DialectMySQL:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				doc_id VARCHAR(255) PRIMARY KEY,
				doc_rev VARCHAR(64) NOT NULL,
				doc_body BLOB NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, s.table)
	case DialectPostgres:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				doc_id TEXT PRIMARY KEY,
				doc_rev TEXT NOT NULL,
				doc_body BYTEA NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, s.table)
	default:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				doc_id TEXT PRIMARY KEY,
				doc_rev TEXT NOT NULL,
				doc_body BLOB NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`, s.table)
	}
}

// placeholders returns n positional parameters for the dialect
func (s *SQLStore) placeholders(n int) []any {
	out := make([]any, n)
	for i := range out {
		if s.dialect == DialectPostgres {
			out[i] = fmt.Sprintf("$%d", i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}

func (s *SQLStore) selectQuery() string {
	p := s.placeholders(1)
	return fmt.Sprintf(`SELECT doc_rev, doc_body FROM %s WHERE doc_id = %s`, s.table, p[0])
}

func (s *SQLStore) createQuery() string {
	p := s.placeholders(4)
	if s.dialect == DialectMySQL {
		return fmt.Sprintf(`INSERT INTO %s (doc_id, doc_rev, doc_body, updated_at) VALUES (%s, %s, %s, %s)`,
			append([]any{s.table}, p...)...)
	}
	return fmt.Sprintf(`INSERT INTO %s (doc_id, doc_rev, doc_body, updated_at) VALUES (%s, %s, %s, %s) ON CONFLICT (doc_id) DO NOTHING`,
		append([]any{s.table}, p...)...)
}

func (s *SQLStore) updateQuery() string {
	p := s.placeholders(5)
	return fmt.Sprintf(`UPDATE %s SET doc_rev = %s, doc_body = %s, updated_at = %s WHERE doc_id = %s AND doc_rev = %s`,
		append([]any{s.table}, p...)...)
}

// Get retrieves the document stored under id
func (s *SQLStore) Get(ctx context.Context, id string) (*Document, error) {
	var rev string
	var body []byte
	if err := s.db.QueryRowContext(ctx, s.selectQuery(), id).Scan(&rev, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	return &Document{ID: id, Rev: rev, Body: body}, nil
}

// Insert creates the row when doc has no revision, otherwise updates it
// only while the stored revision still matches
func (s *SQLStore) Insert(ctx context.Context, doc *Document) (string, error) {
	if s.dialect == DialectMySQL && utf8.RuneCountInString(doc.ID) > mysqlMaxIDLength {
		return "", fmt.Errorf("document id longer than %d characters: %.40s...", mysqlMaxIDLength, doc.ID)
	}

	rev := nextRevision(doc.Rev)
	now := time.Now().Unix()

	var res sql.Result
	var err error
	if doc.Rev == "" {
		res, err = s.db.ExecContext(ctx, s.createQuery(), doc.ID, rev, doc.Body, now)
	} else {
		res, err = s.db.ExecContext(ctx, s.updateQuery(), rev, doc.Body, now, doc.ID, doc.Rev)
	}
	if err != nil {
		if isDuplicateKey(err) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("failed to write document %s: %w", doc.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to write document %s: %w", doc.ID, err)
	}
	if affected == 0 {
		return "", ErrConflict
	}
	return rev, nil
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
