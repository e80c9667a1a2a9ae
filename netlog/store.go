package netlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists net events to SQLite, grouped into sessions so multiple
// runs of the same net can be told apart.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) a SQLite event store at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		time_ns INTEGER NOT NULL,
		kind TEXT NOT NULL,
		transition TEXT,
		place TEXT,
		tokens INTEGER NOT NULL DEFAULT 0,
		detail TEXT,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_session_seq ON events(session_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginSession creates a session record and returns its generated ID.
func (s *Store) BeginSession(label string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, label, started_at) VALUES (?, ?, ?)`,
		id, label, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// RecordEvent appends an event to a session.
func (s *Store) RecordEvent(sessionID string, event Event) error {
	_, err := s.db.Exec(
		`INSERT INTO events (session_id, seq, time_ns, kind, transition, place, tokens, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, event.Seq, event.Time.UnixNano(), string(event.Kind),
		event.Transition, event.Place, event.Tokens, event.Detail,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Events returns a session's events in sequence order.
func (s *Store) Events(sessionID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT seq, time_ns, kind, transition, place, tokens, COALESCE(detail, '')
		 FROM events WHERE session_id = ? ORDER BY seq, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var kind string
		var nanos int64
		if err := rows.Scan(&event.Seq, &nanos, &kind,
			&event.Transition, &event.Place, &event.Tokens, &event.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Time = time.Unix(0, nanos).UTC()
		event.Kind = Kind(kind)
		events = append(events, event)
	}
	return events, rows.Err()
}

// SessionRecorder binds a store and a session into the handler shape the
// engine's OnEvent registration expects. Persistence failures are dropped;
// the net must not stall on its log.
func (s *Store) SessionRecorder(sessionID string) func(Event) {
	return func(event Event) {
		_ = s.RecordEvent(sessionID, event)
	}
}
