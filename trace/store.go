// Package trace persists call, return, and tail-call events to an embedded
// SQLite database, for offline inspection of an execution.
package trace

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"

	"github.com/kestrel-lang/kestrel/vm"
)

var log = commonlog.GetLogger("kestrel.trace")

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	context_id TEXT    NOT NULL,
	event      TEXT    NOT NULL,
	depth      INTEGER NOT NULL,
	func_name  TEXT    NOT NULL,
	func_slot  INTEGER NOT NULL,
	tail_calls INTEGER NOT NULL,
	at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS events_context ON events(context_id);
`

// Event is one recorded hook firing.
type Event struct {
	ID        int64
	ContextID string
	Event     string
	Depth     int
	FuncName  string
	FuncSlot  int
	TailCalls int
	At        time.Time
}

// Store is an append-only event log backed by SQLite.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt
}

// Open creates or opens the event store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: init schema: %w", err)
	}
	insert, err := db.Prepare(
		`INSERT INTO events (context_id, event, depth, func_name, func_slot, tail_calls, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: prepare insert: %w", err)
	}
	return &Store{db: db, insert: insert}, nil
}

// Record appends one event.
func (s *Store) Record(ev *Event) error {
	_, err := s.insert.Exec(ev.ContextID, ev.Event, ev.Depth, ev.FuncName,
		ev.FuncSlot, ev.TailCalls, ev.At.UnixNano())
	if err != nil {
		return fmt.Errorf("trace: record event: %w", err)
	}
	return nil
}

// Hook returns a vm hook that records every selected event. Recording is
// best effort: a storage failure is logged, never raised into the runtime.
func (s *Store) Hook() vm.HookFunc {
	return func(ctx *vm.ExecutionContext, hev vm.HookEvent, fr *vm.Frame) {
		name := ""
		if cl := ctx.ClosureAt(fr); cl != nil {
			name = cl.Proto.Name
		}
		ev := &Event{
			ContextID: ctx.ID.String(),
			Event:     hev.String(),
			Depth:     ctx.Depth(),
			FuncName:  name,
			FuncSlot:  fr.FuncSlot,
			TailCalls: fr.TailCalls,
			At:        time.Now().UTC(),
		}
		if err := s.Record(ev); err != nil {
			log.Errorf("dropping trace event: %s", err.Error())
		}
	}
}

// Events returns all recorded events for contextID, in insertion order. An
// empty contextID returns everything.
func (s *Store) Events(contextID string) ([]Event, error) {
	query := `SELECT id, context_id, event, depth, func_name, func_slot, tail_calls, at
	          FROM events`
	var args []any
	if contextID != "" {
		query += ` WHERE context_id = ?`
		args = append(args, contextID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("trace: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var at int64
		if err := rows.Scan(&ev.ID, &ev.ContextID, &ev.Event, &ev.Depth,
			&ev.FuncName, &ev.FuncSlot, &ev.TailCalls, &at); err != nil {
			return nil, fmt.Errorf("trace: scan event: %w", err)
		}
		ev.At = time.Unix(0, at).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	s.insert.Close()
	return s.db.Close()
}
