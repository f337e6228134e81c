package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS profile_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	player_id     TEXT NOT NULL,
	profile_json  TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES profile_versions(version_id)
);

CREATE INDEX IF NOT EXISTS idx_profile_versions_player ON profile_versions(player_id, created_at);

CREATE TABLE IF NOT EXISTS active_profile (
	player_id     TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES profile_versions(version_id)
);

CREATE TABLE IF NOT EXISTS analytics_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id     TEXT NOT NULL,
	session_id    TEXT,
	event         TEXT NOT NULL,
	depth         REAL,
	fields_json   TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analytics_event ON analytics_log(event, depth);
CREATE INDEX IF NOT EXISTS idx_analytics_session ON analytics_log(session_id, id);
`

// #endregion schema

// #region store-struct
// Store manages versioned player profiles in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already-migrated database.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates every table the controller uses.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region save
// Save stores p as a new version parented on the player's active version and
// moves the active pointer to it atomically.
func (s *Store) Save(p Profile, reason string) (Version, error) {
	if p.PlayerID == "" {
		return Version{}, fmt.Errorf("save profile: empty player id")
	}
	p.normalize()
	body, err := json.Marshal(p)
	if err != nil {
		return Version{}, fmt.Errorf("marshal profile: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Version{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRow(`SELECT version_id FROM active_profile WHERE player_id = ?`, p.PlayerID).Scan(&parent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("get active: %w", err)
	}

	v := Version{
		VersionID: uuid.New().String(),
		PlayerID:  p.PlayerID,
		Profile:   p,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	var parentPtr interface{}
	if parent.Valid {
		v.ParentID = parent.String
		parentPtr = parent.String
	}

	_, err = tx.Exec(
		`INSERT INTO profile_versions (version_id, parent_id, player_id, profile_json, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.VersionID, parentPtr, v.PlayerID, string(body), nullIfEmpty(reason), v.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Version{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_profile (player_id, version_id) VALUES (?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET version_id = excluded.version_id`,
		v.PlayerID, v.VersionID,
	)
	if err != nil {
		return Version{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

// #endregion save

// #region load
// Load reads the player's active version.
func (s *Store) Load(playerID string) (Version, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_profile WHERE player_id = ?`, playerID).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("load %s: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}

// LoadOrNew returns the active profile, or a neutral one when the player has
// never been saved.
func (s *Store) LoadOrNew(playerID string) (Profile, error) {
	v, err := s.Load(playerID)
	if errors.Is(err, ErrNotFound) {
		return NewProfile(playerID), nil
	}
	if err != nil {
		return Profile{}, err
	}
	return v.Profile, nil
}

// GetVersion retrieves a specific version by ID.
func (s *Store) GetVersion(id string) (Version, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, player_id, profile_json, reason, created_at
		 FROM profile_versions WHERE version_id = ?`, id,
	)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("get version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return v, nil
}

// #endregion load

// #region rollback
// Rollback points the player's active profile at a previous version.
func (s *Store) Rollback(playerID, targetVersionID string) error {
	var owner string
	err := s.db.QueryRow(
		`SELECT player_id FROM profile_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("version %s: %w", targetVersionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if owner != playerID {
		return fmt.Errorf("version %s belongs to %s, not %s", targetVersionID, owner, playerID)
	}

	_, err = s.db.Exec(
		`INSERT INTO active_profile (player_id, version_id) VALUES (?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET version_id = excluded.version_id`,
		playerID, targetVersionID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// ListVersions returns the player's most recent versions, newest first.
func (s *Store) ListVersions(playerID string, limit int) ([]Version, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, player_id, profile_json, reason, created_at
		 FROM profile_versions WHERE player_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Players returns every player with an active profile.
func (s *Store) Players() ([]string, error) {
	rows, err := s.db.Query(`SELECT player_id FROM active_profile ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// #endregion list-versions

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (Version, error) {
	var v Version
	var parentID, reason sql.NullString
	var body, createdStr string
	if err := row.Scan(&v.VersionID, &parentID, &v.PlayerID, &body, &reason, &createdStr); err != nil {
		return Version{}, err
	}
	if parentID.Valid {
		v.ParentID = parentID.String
	}
	if reason.Valid {
		v.Reason = reason.String
	}
	if err := json.Unmarshal([]byte(body), &v.Profile); err != nil {
		return Version{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	v.Profile.normalize()
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return v, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
