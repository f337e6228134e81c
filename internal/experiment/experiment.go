package experiment

import (
	"encoding/binary"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
)

// Namespace is the uuid namespace player/test names are hashed under.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("adaptive-difficulty/experiments"))

// #region assigner
// Assigner buckets players into experiment cohorts. Assignment is a pure
// function of (namespace, player id, test id); nothing is rolled or stored.
type Assigner struct {
	namespace uuid.UUID
	tests     map[string]Test
	logger    *log.Logger
}

// NewAssigner creates an assigner hashing under Namespace.
func NewAssigner(logger *log.Logger) *Assigner {
	if logger == nil {
		logger = log.Default()
	}
	return &Assigner{
		namespace: Namespace,
		tests:     make(map[string]Test),
		logger:    logger,
	}
}

// Register adds or replaces a test. Allocations not summing to 100 are kept
// and logged; unallocated buckets fall through to Control.
func (a *Assigner) Register(t Test) error {
	if t.ID == "" {
		return fmt.Errorf("register experiment: empty id")
	}
	sum := 0
	allocs := make([]Allocation, 0, len(t.Allocations))
	for _, al := range t.Allocations {
		if al.Percentage < 0 {
			a.logger.Printf("experiment %s: group %s has negative percentage, treated as 0", t.ID, al.Group)
			al.Percentage = 0
		}
		sum += al.Percentage
		allocs = append(allocs, al)
	}
	if sum != 100 {
		a.logger.Printf("experiment %s: allocations sum to %d, not 100; remainder goes to %s", t.ID, sum, Control)
	}
	t.Allocations = allocs
	a.tests[t.ID] = t
	return nil
}

// #endregion assigner

// #region assign

// Bucket returns the player's bucket in [0,100) for testID.
func (a *Assigner) Bucket(playerID, testID string) int {
	id := uuid.NewSHA1(a.namespace, []byte(playerID+testID))
	return int(binary.BigEndian.Uint32(id[:4]) % 100)
}

// AssignGroup walks the test's allocations cumulatively and returns the first
// group whose cumulative percentage exceeds the player's bucket, else Control.
func (a *Assigner) AssignGroup(playerID, testID string) (Group, error) {
	t, ok := a.tests[testID]
	if !ok {
		return Control, fmt.Errorf("assign %s: %w", testID, ErrUnknownExperiment)
	}
	return a.assign(playerID, t).Group, nil
}

func (a *Assigner) assign(playerID string, t Test) Assignment {
	bucket := a.Bucket(playerID, t.ID)
	as := Assignment{TestID: t.ID, PlayerID: playerID, Group: Control, Bucket: bucket}
	cum := 0
	for _, al := range t.Allocations {
		cum += al.Percentage
		if cum > bucket {
			as.Group = al.Group
			break
		}
	}
	return as
}

// Config returns the registered test.
func (a *Assigner) Config(testID string) (Test, error) {
	t, ok := a.tests[testID]
	if !ok {
		return Test{}, fmt.Errorf("config %s: %w", testID, ErrUnknownExperiment)
	}
	return t, nil
}

// GroupConfig returns the params of the player's group. Control without an
// explicit allocation yields an empty map.
func (a *Assigner) GroupConfig(playerID, testID string) (map[string]float64, error) {
	t, ok := a.tests[testID]
	if !ok {
		return nil, fmt.Errorf("group config %s: %w", testID, ErrUnknownExperiment)
	}
	g := a.assign(playerID, t).Group
	params := map[string]float64{}
	for _, al := range t.Allocations {
		if al.Group == g {
			for k, v := range al.Params {
				params[k] = v
			}
			break
		}
	}
	return params, nil
}

// Assignments returns the player's assignment in every registered test,
// ordered by test id.
func (a *Assigner) Assignments(playerID string) []Assignment {
	ids := a.TestIDs()
	out := make([]Assignment, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.assign(playerID, a.tests[id]))
	}
	return out
}

// TestIDs returns the registered test ids in sorted order.
func (a *Assigner) TestIDs() []string {
	ids := make([]string, 0, len(a.tests))
	for id := range a.tests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// #endregion assign
