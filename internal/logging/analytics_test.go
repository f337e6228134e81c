package logging

import (
	"bytes"
	"database/sql"
	"log"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE analytics_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id   TEXT NOT NULL,
		session_id  TEXT,
		event       TEXT NOT NULL,
		depth       REAL,
		fields_json TEXT,
		created_at  TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-tests
func TestLog_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	err := Log(db, Entry{
		PlayerID:  "p1",
		SessionID: "s1",
		Event:     EventDeath,
		Depth:     42,
		Fields:    map[string]any{"cause": "combat"},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := SessionEntries(db, "s1")
	if err != nil {
		t.Fatalf("SessionEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 row, got %d", len(entries))
	}
	e := entries[0]
	if e.Event != EventDeath || e.Depth != 42 || e.Fields["cause"] != "combat" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestLog_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	if err := Log(db, Entry{PlayerID: "p1", Event: EventSuccess}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var session, fields sql.NullString
	var created string
	db.QueryRow("SELECT session_id, fields_json, created_at FROM analytics_log").Scan(&session, &fields, &created)
	if session.Valid || fields.Valid {
		t.Error("expected NULL session_id and fields_json")
	}
	at, err := time.Parse(time.RFC3339Nano, created)
	if err != nil || at.Before(before) {
		t.Errorf("created_at not auto-filled: %q", created)
	}
}

func TestLog_Error(t *testing.T) {
	db := setupDB(t)
	db.Close()
	if err := Log(db, Entry{PlayerID: "p", Event: EventDeath}); err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-tests

// #region sink-tests
func TestSinkSwallowsErrors(t *testing.T) {
	db := setupDB(t)
	var buf bytes.Buffer
	sink := NewSink(db, "p1", log.New(&buf, "", 0))
	sink.SetSession("s9")
	sink.Emit(EventResource, 12, map[string]any{"id": "pearl"})

	entries, _ := SessionEntries(db, "s9")
	if len(entries) != 1 || entries[0].PlayerID != "p1" {
		t.Fatalf("entries = %+v", entries)
	}

	db.Close()
	sink.Emit(EventResource, 12, nil)
	sink.Emit(EventResource, 12, nil)
	if sink.Failures() != 2 {
		t.Fatalf("failures = %d", sink.Failures())
	}
	if strings.Count(buf.String(), "dropped") != 1 {
		t.Fatalf("expected one logged failure, got %q", buf.String())
	}
}

// #endregion sink-tests

// #region query-tests
func TestOutcomeCounts(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	for _, e := range []Entry{
		{PlayerID: "a", Event: EventDeath, Depth: 10},
		{PlayerID: "a", Event: EventSuccess, Depth: 12},
		{PlayerID: "b", Event: EventDeath, Depth: 20},
		{PlayerID: "b", Event: EventDeath, Depth: 30},
		{PlayerID: "b", Event: EventResource, Depth: 15},
	} {
		if err := Log(db, e); err != nil {
			t.Fatal(err)
		}
	}
	deaths, outcomes, err := OutcomeCounts(db, 0, 25)
	if err != nil {
		t.Fatalf("OutcomeCounts: %v", err)
	}
	if deaths != 2 || outcomes != 3 {
		t.Fatalf("got %d/%d, want 2/3", deaths, outcomes)
	}
	deaths, outcomes, _ = OutcomeCounts(db, 75, 1e9)
	if deaths != 0 || outcomes != 0 {
		t.Fatalf("empty band got %d/%d", deaths, outcomes)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	Log(db, Entry{PlayerID: "a", Event: EventDiveStart})
	Log(db, Entry{PlayerID: "a", Event: EventDiveEnd})
	Log(db, Entry{PlayerID: "b", Event: EventDiveStart})
	got, err := Recent(db, "a", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Event != EventDiveEnd {
		t.Fatalf("recent = %+v", got)
	}
}

// #endregion query-tests

// #region null-if-empty-tests
func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("expected nil for empty string")
	}
	if nullIfEmpty("hello") != "hello" {
		t.Error("expected passthrough")
	}
}

// #endregion null-if-empty-tests
