package rpc

import (
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/enemy"
)

// args is a decoded request struct. Numbers arrive as float64.
type args map[string]any

// number returns a required finite number.
func (a args) number(key string) (float64, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a finite number", key)
	}
	return f, nil
}

// optNumber returns the number at key or def when absent.
func (a args) optNumber(key string, def float64) (float64, error) {
	if _, ok := a[key]; !ok {
		return def, nil
	}
	return a.number(key)
}

func (a args) str(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}

func (a args) requiredStr(key string) (string, error) {
	s, err := a.str(key)
	if err == nil && s == "" {
		err = fmt.Errorf("%s is required", key)
	}
	return s, err
}

func (a args) flag(key string) (bool, error) {
	v, ok := a[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}

// seconds reads a duration given in seconds.
func (a args) seconds(key string) (time.Duration, error) {
	f, err := a.optNumber(key, 0)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// resource reads a ResourceProfile from id, base_value, rarity and min_depth.
func (a args) resource() (economy.ResourceProfile, error) {
	var p economy.ResourceProfile
	var err error
	if p.ID, err = a.requiredStr("id"); err != nil {
		return p, err
	}
	if p.BaseValue, err = a.number("base_value"); err != nil {
		return p, err
	}
	if p.MinDepth, err = a.optNumber("min_depth", 0); err != nil {
		return p, err
	}
	name, err := a.str("rarity")
	if err != nil {
		return p, err
	}
	if name != "" {
		r, ok := economy.ParseRarity(name)
		if !ok {
			return p, fmt.Errorf("unknown rarity %q", name)
		}
		p.Rarity = r
	}
	return p, nil
}

// enemyProfile reads a base profile. patrol_radius or attack_range select
// the matching capability.
func (a args) enemyProfile() (enemy.Profile, error) {
	var b enemy.BaseProfile
	var err error
	if b.ID, err = a.requiredStr("id"); err != nil {
		return nil, err
	}
	fields := []struct {
		key string
		dst *float64
	}{
		{"base_health", &b.BaseHealth},
		{"base_damage", &b.BaseDamage},
		{"base_speed", &b.BaseSpeed},
		{"base_attack_speed", &b.BaseAttackSpeed},
		{"base_xp", &b.BaseXP},
		{"base_credits", &b.BaseCredits},
		{"base_spawn_weight", &b.BaseSpawnWeight},
		{"min_spawn_depth", &b.MinSpawnDepth},
	}
	for _, f := range fields {
		if *f.dst, err = a.optNumber(f.key, 0); err != nil {
			return nil, err
		}
	}
	if _, ok := a["patrol_radius"]; ok {
		r, err := a.number("patrol_radius")
		if err != nil {
			return nil, err
		}
		return enemy.PatrolProfile{BaseProfile: b, Radius: r}, nil
	}
	if _, ok := a["attack_range"]; ok {
		r, err := a.number("attack_range")
		if err != nil {
			return nil, err
		}
		return enemy.RangedProfile{BaseProfile: b, Range: r}, nil
	}
	return b, nil
}
