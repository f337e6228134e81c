package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// #region log-event
// Log writes an entry to the analytics_log table.
func Log(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	var fieldsJSON string
	if len(entry.Fields) > 0 {
		b, err := json.Marshal(entry.Fields)
		if err != nil {
			return fmt.Errorf("marshal fields: %w", err)
		}
		fieldsJSON = string(b)
	}

	_, err := db.Exec(
		`INSERT INTO analytics_log (player_id, session_id, event, depth, fields_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.PlayerID,
		nullIfEmpty(entry.SessionID),
		entry.Event,
		entry.Depth,
		nullIfEmpty(fieldsJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// #endregion log-event

// #region sink
// Sink emits analytics rows for one player. Write failures are logged and
// swallowed so the tick path never sees them.
type Sink struct {
	db        *sql.DB
	playerID  string
	sessionID string
	logger    *log.Logger
	now       func() time.Time
	failures  int
}

// NewSink creates a sink bound to playerID.
func NewSink(db *sql.DB, playerID string, logger *log.Logger) *Sink {
	if logger == nil {
		logger = log.Default()
	}
	return &Sink{
		db:       db,
		playerID: playerID,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetSession tags subsequent rows with sessionID.
func (s *Sink) SetSession(sessionID string) { s.sessionID = sessionID }

// SetClock overrides the row timestamp source.
func (s *Sink) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Emit writes one row.
func (s *Sink) Emit(event string, depth float64, fields map[string]any) {
	err := Log(s.db, Entry{
		PlayerID:  s.playerID,
		SessionID: s.sessionID,
		Event:     event,
		Depth:     depth,
		Fields:    fields,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.failures++
		// first failure, then every 100th
		if s.failures == 1 || s.failures%100 == 0 {
			s.logger.Printf("analytics: %s dropped (%d failures): %v", event, s.failures, err)
		}
	}
}

// Failures returns the number of rows that could not be written.
func (s *Sink) Failures() int { return s.failures }

// #endregion sink

// #region queries

// OutcomeCounts returns deaths and total outcomes (deaths + successes)
// recorded at depth in [lo, hi) across all players.
func OutcomeCounts(db *sql.DB, lo, hi float64) (deaths, outcomes int, err error) {
	err = db.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN event = ? THEN 1 ELSE 0 END), 0),
			COUNT(*)
		 FROM analytics_log
		 WHERE event IN (?, ?) AND depth >= ? AND depth < ?`,
		EventDeath, EventDeath, EventSuccess, lo, hi,
	).Scan(&deaths, &outcomes)
	if err != nil {
		return 0, 0, fmt.Errorf("outcome counts: %w", err)
	}
	return deaths, outcomes, nil
}

// SessionEntries returns every row of a session in insertion order.
func SessionEntries(db *sql.DB, sessionID string) ([]Entry, error) {
	return query(db,
		`SELECT id, player_id, session_id, event, depth, fields_json, created_at
		 FROM analytics_log WHERE session_id = ? ORDER BY id`, sessionID)
}

// Recent returns a player's newest rows, newest first.
func Recent(db *sql.DB, playerID string, limit int) ([]Entry, error) {
	return query(db,
		`SELECT id, player_id, session_id, event, depth, fields_json, created_at
		 FROM analytics_log WHERE player_id = ? ORDER BY id DESC LIMIT ?`, playerID, limit)
}

func query(db *sql.DB, q string, args ...any) ([]Entry, error) {
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var session, fields sql.NullString
		var depth sql.NullFloat64
		var created string
		if err := rows.Scan(&e.ID, &e.PlayerID, &session, &e.Event, &depth, &fields, &created); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.SessionID = session.String
		e.Depth = depth.Float64
		if fields.Valid {
			if err := json.Unmarshal([]byte(fields.String), &e.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields of row %d: %w", e.ID, err)
			}
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion queries

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
