package signals

import (
	"database/sql"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
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
	if err := state.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *sql.DB, event string, depth float64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := logging.Log(db, logging.Entry{PlayerID: "p", Event: event, Depth: depth}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// #endregion helpers

// #region tests

func TestDeathRateFromAnalytics(t *testing.T) {
	db := setupDB(t)
	seed(t, db, logging.EventDeath, 80, 6)
	seed(t, db, logging.EventSuccess, 90, 14)
	seed(t, db, logging.EventDeath, 10, 50) // other band

	p := NewProducer(db, DefaultProducerConfig(), quietLogger())
	rate, ok := p.DeathRateAtDepth(85)
	if !ok {
		t.Fatal("abyss band has 20 outcomes and should be trusted")
	}
	if math.Abs(rate-0.3) > 1e-9 {
		t.Fatalf("rate = %f, want 0.3", rate)
	}
}

func TestTooFewOutcomesNotTrusted(t *testing.T) {
	db := setupDB(t)
	seed(t, db, logging.EventDeath, 30, 5)
	p := NewProducer(db, DefaultProducerConfig(), quietLogger())
	if _, ok := p.DeathRateAtDepth(30); ok {
		t.Fatal("5 outcomes should not be trusted")
	}
	br := p.Band(difficulty.LayerMid)
	if br.Deaths != 5 || br.Rate != 1 {
		t.Fatalf("band = %+v", br)
	}
}

func TestBandCacheRefresh(t *testing.T) {
	db := setupDB(t)
	p := NewProducer(db, DefaultProducerConfig(), quietLogger())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	if _, ok := p.DeathRateAtDepth(60); ok {
		t.Fatal("empty band should miss")
	}
	seed(t, db, logging.EventDeath, 60, 25)
	if _, ok := p.DeathRateAtDepth(60); ok {
		t.Fatal("cached miss should hold until refresh")
	}
	clock = clock.Add(61 * time.Second)
	if rate, ok := p.DeathRateAtDepth(60); !ok || rate != 1 {
		t.Fatalf("after refresh got %f %v", rate, ok)
	}
	p.Invalidate()
	if len(p.cache) != 0 {
		t.Fatal("invalidate should clear the cache")
	}
}

func TestNilDatabaseMisses(t *testing.T) {
	p := NewProducer(nil, DefaultProducerConfig(), quietLogger())
	if _, ok := p.DeathRateAtDepth(50); ok {
		t.Fatal("nil db should miss")
	}
	var none *Producer
	if _, ok := none.DeathRateAtDepth(50); ok {
		t.Fatal("nil producer should miss")
	}
}

func TestQueryFailureMisses(t *testing.T) {
	db := setupDB(t)
	p := NewProducer(db, DefaultProducerConfig(), quietLogger())
	db.Close()
	if _, ok := p.DeathRateAtDepth(10); ok {
		t.Fatal("closed db should miss")
	}
}

// #endregion tests
