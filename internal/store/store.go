package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQLStore persists the tutor's relational tables. Queries are written with
// '?' placeholders and rebound for Postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(driver, dataSourceName string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLStore{db: db, driver: driver}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) initSchema() error {
	timestampType := "DATETIME"
	if s.driver == DriverPostgres {
		timestampType = "TIMESTAMPTZ"
	}

	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- UUID
        email TEXT UNIQUE NOT NULL,
        full_name TEXT,
        password_hash TEXT NOT NULL,
        created_at {{ts}} NOT NULL
    );

    CREATE TABLE IF NOT EXISTS user_roles (
        user_id TEXT PRIMARY KEY REFERENCES users (id),
        role TEXT NOT NULL CHECK (role IN ('admin', 'user')),
        created_at {{ts}} NOT NULL
    );

    CREATE TABLE IF NOT EXISTS modules (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        name TEXT NOT NULL,
        code TEXT,
        description TEXT,
        is_global BOOLEAN NOT NULL DEFAULT FALSE,
        suggested_questions TEXT, -- JSON array of strings
        created_at {{ts}} NOT NULL,
        updated_at {{ts}} NOT NULL
    );

    CREATE TABLE IF NOT EXISTS conversations (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        module_id TEXT,
        title TEXT NOT NULL,
        last_activity {{ts}} NOT NULL,
        created_at {{ts}} NOT NULL
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY,
        conversation_id TEXT NOT NULL REFERENCES conversations (id),
        is_user BOOLEAN NOT NULL,
        content TEXT NOT NULL,
        tools_used TEXT, -- JSON array of strings
        question_context TEXT,
        created_at {{ts}} NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at);

    CREATE TABLE IF NOT EXISTS module_content (
        id TEXT PRIMARY KEY,
        module_id TEXT NOT NULL,
        user_id TEXT,
        document_id TEXT,
        file_name TEXT NOT NULL,
        file_type TEXT NOT NULL,
        file_size INTEGER,
        extracted_text TEXT,
        processed_content TEXT,
        processing_status TEXT,
        summary TEXT,
        created_at {{ts}} NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_module_content_module ON module_content (module_id);

    CREATE TABLE IF NOT EXISTS processed_documents (
        id TEXT PRIMARY KEY,
        course_id TEXT NOT NULL,
        user_id TEXT,
        llm_whisperer_id TEXT,
        original_filename TEXT NOT NULL,
        processed_text TEXT NOT NULL,
        title TEXT,
        description TEXT,
        is_approved BOOLEAN NOT NULL DEFAULT FALSE,
        created_at {{ts}} NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_processed_documents_course ON processed_documents (course_id);

    CREATE TABLE IF NOT EXISTS system_settings (
        setting_key TEXT PRIMARY KEY,
        setting_value TEXT,
        description TEXT,
        updated_by TEXT,
        updated_at {{ts}} NOT NULL
    );

    CREATE TABLE IF NOT EXISTS global_settings (
        setting_key TEXT PRIMARY KEY,
        setting_value TEXT NOT NULL,
        description TEXT,
        updated_by TEXT,
        updated_at {{ts}} NOT NULL
    );
    `
	_, err := s.db.Exec(strings.ReplaceAll(schema, "{{ts}}", timestampType))
	return err
}

// rebind rewrites '?' placeholders into the driver's bind syntax.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func now() time.Time {
	return time.Now().UTC()
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(raw sql.NullString) []string {
	out := []string{}
	if !raw.Valid || raw.String == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return []string{}
	}
	return out
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
