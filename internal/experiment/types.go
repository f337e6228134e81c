package experiment

import "errors"

// ErrUnknownExperiment is returned for a test id that was never registered.
var ErrUnknownExperiment = errors.New("unknown experiment")

// #region types
// Group names a cohort within a test.
type Group string

// Control is the fallback cohort.
const Control Group = "control"

// Allocation gives a group its share of the 100 buckets and the tuning
// parameters its players receive.
type Allocation struct {
	Group      Group              `json:"group"`
	Percentage int                `json:"percentage"`
	Params     map[string]float64 `json:"params,omitempty"`
}

// Test is one registered experiment. Allocations are walked in order.
type Test struct {
	ID          string       `json:"id"`
	Description string       `json:"description,omitempty"`
	Allocations []Allocation `json:"allocations"`
}

// Assignment is the derived cohort of a player in a test.
type Assignment struct {
	TestID   string `json:"test_id"`
	PlayerID string `json:"player_id"`
	Group    Group  `json:"group"`
	Bucket   int    `json:"bucket"`
}

// #endregion types
