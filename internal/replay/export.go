package replay

import (
	"fmt"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
)

// #region session-export

// versionScan bounds how far back SessionFixture looks for the profile a
// session started from.
const versionScan = 200

// SessionFixture rebuilds a fixture from one stored session: its analytics
// rows become events, and the newest profile version saved before the
// first row becomes the starting profile. Expected results are left empty.
func SessionFixture(store *state.Store, sessionID string) (*Fixture, error) {
	entries, err := logging.SessionEntries(store.DB(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, state.ErrNotFound)
	}
	first := entries[0]

	f := &Fixture{
		Description: fmt.Sprintf("session %s of player %s", sessionID, first.PlayerID),
		PlayerID:    first.PlayerID,
		Start:       first.CreatedAt,
		Events:      FromEntries(entries),
	}

	versions, err := store.ListVersions(first.PlayerID, versionScan)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	// newest first
	for _, v := range versions {
		if !v.CreatedAt.After(first.CreatedAt) {
			p := v.Profile
			f.Profile = &p
			break
		}
	}
	return f, nil
}

// #endregion session-export
