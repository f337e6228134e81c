package config

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/enemy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/experiment"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/reward"
	lua "github.com/yuin/gopher-lua"
)

// #region collector

// collector accumulates the tables passed to the constructors.
type collector struct {
	sections    map[string]*lua.LTable
	bosses      []rawNamed
	experiments []rawNamed
	milestones  []rawNamed
	warnings    []string
}

type rawNamed struct {
	id    string
	table *lua.LTable
}

func (c *collector) warn(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// sectionNames are the singleton constructors, in apply order.
var sectionNames = []string{"Server", "Difficulty", "Enemy", "Economy", "Penalty", "Pacing", "Reward", "Anomaly", "Eval"}

// execute runs src in a sandboxed VM and returns what it declared.
func execute(src string) (*collector, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{sections: map[string]*lua.LTable{}}
	registerAPI(L, coll)
	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("executing config: %w", err)
	}
	return coll, nil
}

// openSafeLibs opens only the side-effect free standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach the filesystem or break determinism.
func sandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "rawset", "rawget", "rawequal", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
	}
}

// #endregion

// #region api

// registerAPI installs the constructors:
//
//	Difficulty { max_depth = 100, evaluation_interval = 300 }
//	Boss "leviathan" { { name = "calm", threshold = 1 }, ... }
//	Experiment "spawn_rate" { { group = "dense", percentage = 50, params = { rate = 1.2 } } }
//	Milestone "deep_diver" { kind = "depth", threshold = 75, credits = 400 }
func registerAPI(L *lua.LState, coll *collector) {
	for _, name := range sectionNames {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			if _, dup := coll.sections[name]; dup {
				coll.warn("%s declared twice, last one wins", name)
			}
			coll.sections[name] = tbl
			return 0
		}))
	}
	curried := func(dst *[]rawNamed) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				*dst = append(*dst, rawNamed{id: id, table: tbl})
				return 0
			}))
			return 1
		})
	}
	L.SetGlobal("Boss", curried(&coll.bosses))
	L.SetGlobal("Experiment", curried(&coll.experiments))
	L.SetGlobal("Milestone", curried(&coll.milestones))
}

// #endregion

// #region apply

// apply copies the declared values over cfg.
func (c *collector) apply(cfg *Config) {
	if t := c.sections["Server"]; t != nil {
		r := c.reader("Server", t)
		r.text("listen", &cfg.Listen)
		r.text("db", &cfg.DBPath)
		r.text("player", &cfg.PlayerID)
		r.millis("tick_ms", &cfg.Loop.TickRate)
		r.seconds("save_interval", &cfg.Loop.SaveInterval)
		r.done()
	}

	ec := &cfg.Engine
	if t := c.sections["Difficulty"]; t != nil {
		d := &ec.Difficulty
		r := c.reader("Difficulty", t)
		r.number("max_depth", &d.MaxDepth)
		r.number("exponent", &d.Exponent)
		r.number("max_bonus", &d.MaxBonus)
		r.integer("window_size", &d.WindowSize)
		r.integer("min_samples", &d.MinSamples)
		r.seconds("evaluation_interval", &d.EvaluationInterval)
		r.number("high_death_rate", &d.HighDeathRate)
		r.number("high_death_penalty", &d.HighDeathPenalty)
		r.number("low_death_rate", &d.LowDeathRate)
		r.number("low_death_bonus", &d.LowDeathBonus)
		r.seconds("expected_completion", &d.ExpectedCompletion)
		r.number("fast_ratio", &d.FastRatio)
		r.number("fast_bonus", &d.FastBonus)
		r.number("skill_min", &d.SkillMin)
		r.number("skill_max", &d.SkillMax)
		r.number("smoothing_rate", &d.SmoothingRate)
		r.number("dynamic_step", &d.DynamicStep)
		r.number("dynamic_min", &d.DynamicMin)
		r.number("dynamic_max", &d.DynamicMax)
		r.number("max_relief", &d.MaxRelief)
		r.numbers("layer_breaks", d.LayerBreaks[:])
		r.numbers("layer_multipliers", d.LayerMultipliers[:])
		r.done()
		ec.Economy.LayerBreaks = d.LayerBreaks
	}

	if t := c.sections["Enemy"]; t != nil {
		en := &ec.Enemy
		r := c.reader("Enemy", t)
		r.number("max_depth", &en.MaxDepth)
		r.number("base_elite_chance", &en.BaseEliteChance)
		r.number("max_elite_chance", &en.MaxEliteChance)
		r.number("radius_growth", &en.RadiusGrowth)
		r.curve("health", &en.Curves.Health)
		r.curve("damage", &en.Curves.Damage)
		r.curve("speed", &en.Curves.Speed)
		r.curve("attack_speed", &en.Curves.AttackSpeed)
		r.curve("xp", &en.Curves.XP)
		r.curve("credits", &en.Curves.Credits)
		r.curve("spawn_weight", &en.Curves.SpawnWeight)
		r.curve("elite", &en.Curves.Elite)
		r.done()
	}

	if t := c.sections["Economy"]; t != nil {
		e := &ec.Economy
		r := c.reader("Economy", t)
		r.number("max_depth", &e.MaxDepth)
		r.number("depth_exponent", &e.DepthExponent)
		r.number("max_depth_bonus", &e.MaxDepthBonus)
		r.numbers("rarity_multipliers", e.RarityMultipliers[:])
		r.number("risk_factor", &e.RiskFactor)
		r.numbers("fallback_death_rate", e.FallbackDeathRate[:])
		r.number("market_range", &e.MarketRange)
		r.number("market_step", &e.MarketStep)
		r.seconds("market_interval", &e.MarketInterval)
		r.integer64("seed", &e.Seed)
		r.done()
	}

	if t := c.sections["Penalty"]; t != nil {
		p := &ec.Penalty
		r := c.reader("Penalty", t)
		r.flag("enabled", &p.Enabled)
		r.number("max_depth", &p.MaxDepth)
		r.flag("xp_loss_enabled", &p.XPLossEnabled)
		r.numbers("resource_loss", []*float64{&p.ResourceLoss.Base, &p.ResourceLoss.Max})
		r.numbers("credit_loss", []*float64{&p.CreditLoss.Base, &p.CreditLoss.Max})
		r.numbers("equipment_damage", []*float64{&p.EquipmentDamage.Base, &p.EquipmentDamage.Max})
		r.numbers("xp_loss", []*float64{&p.XPLoss.Base, &p.XPLoss.Max})
		r.seconds("respawn_base", &p.RespawnDelay[0])
		r.seconds("respawn_max", &p.RespawnDelay[1])
		r.number("bonus_per_minute", &p.BonusPerMinute)
		r.integer("max_survival_bonus", &p.MaxSurvivalBonus)
		r.numbers("insurance_multipliers", ptrs(p.InsuranceMultipliers[:]))
		r.seconds("stage_delay", &ec.PenaltyStageDelay)
		r.done()
	}

	if t := c.sections["Pacing"]; t != nil {
		p := &ec.Pacing
		r := c.reader("Pacing", t)
		r.number("combat", &p.Targets.Combat)
		r.number("exploration", &p.Targets.Exploration)
		r.number("rest", &p.Targets.Rest)
		r.number("threshold", &p.Threshold)
		r.seconds("check_interval", &p.CheckInterval)
		r.number("rate_step", &p.RateStep)
		r.number("min_rate", &p.MinRate)
		r.number("max_rate", &p.MaxRate)
		r.number("base_chance", &p.BaseChance)
		r.number("tension_rise", &p.TensionRise)
		r.number("tension_decay", &p.TensionDecay)
		r.number("tension_damping", &p.TensionDamping)
		r.number("post_combat_tension", &p.PostCombatTension)
		r.seconds("cooldown", &p.Cooldown)
		r.seconds("time_ramp", &p.TimeRamp)
		r.number("max_time_factor", &p.MaxTimeFactor)
		r.number("depth_bonus", &p.DepthBonus)
		r.number("max_depth", &p.MaxDepth)
		r.seconds("spawn_check_interval", &p.SpawnCheckInterval)
		r.integer64("seed", &p.Seed)
		r.done()
	}

	if t := c.sections["Reward"]; t != nil {
		rw := &ec.Reward
		r := c.reader("Reward", t)
		r.seconds("combo_window", &rw.ComboWindow)
		r.integer("combo_cap", &rw.ComboCap)
		r.curve("combo_curve", &rw.ComboCurve)
		r.seconds("celebration_delay", &rw.CelebrationDelay)
		replace := false
		r.flag("replace_milestones", &replace)
		r.done()
		if replace {
			rw.Milestones = nil
		}
	}

	if t := c.sections["Anomaly"]; t != nil {
		a := &ec.Anomaly
		r := c.reader("Anomaly", t)
		r.integer("death_threshold", &a.DeathThreshold)
		r.seconds("death_window", &a.DeathWindow)
		r.seconds("death_cooldown", &a.DeathCooldown)
		r.number("death_relief", &a.DeathRelief)
		r.integer("stuck_attempts", &a.StuckAttempts)
		r.seconds("no_progress_after", &a.NoProgressAfter)
		r.number("no_progress_nudge", &a.NoProgressNudge)
		r.text("frequent_death_hint", &a.FrequentDeathHint)
		r.text("mission_stuck_hint", &a.MissionStuckHint)
		r.text("no_progress_hint", &a.NoProgressHint)
		r.done()
	}

	if t := c.sections["Eval"]; t != nil {
		ev := &ec.Eval
		r := c.reader("Eval", t)
		r.number("skill_min", &ev.SkillMin)
		r.number("skill_max", &ev.SkillMax)
		r.number("dynamic_min", &ev.DynamicMin)
		r.number("dynamic_max", &ev.DynamicMax)
		r.number("market_range", &ev.MarketRange)
		r.number("rate_min", &ev.RateMin)
		r.number("rate_max", &ev.RateMax)
		r.number("pace_score_floor", &ev.PaceScoreFloor)
		r.done()
	}

	c.applyBosses(ec.Bosses)
	ec.Experiments = append(ec.Experiments, c.compileExperiments()...)
	ec.Reward.Milestones = append(ec.Reward.Milestones, c.compileMilestones()...)
}

func (c *collector) applyBosses(dst map[string][]enemy.BossPhase) {
	for _, b := range c.bosses {
		var phases []enemy.BossPhase
		b.table.ForEach(func(_, v lua.LValue) {
			t, ok := v.(*lua.LTable)
			if !ok {
				c.warn("Boss %s: phase is not a table", b.id)
				return
			}
			p := enemy.BossPhase{DamageMultiplier: 1, SpeedMultiplier: 1}
			r := c.reader("Boss "+b.id, t)
			r.text("name", &p.Name)
			r.number("threshold", &p.Threshold)
			r.number("damage", &p.DamageMultiplier)
			r.number("speed", &p.SpeedMultiplier)
			r.flag("adds", &p.SpawnsAdds)
			r.done()
			phases = append(phases, p)
		})
		if len(phases) == 0 {
			c.warn("Boss %s has no phases, skipped", b.id)
			continue
		}
		dst[b.id] = phases
	}
}

func (c *collector) compileExperiments() []experiment.Test {
	var tests []experiment.Test
	for _, x := range c.experiments {
		test := experiment.Test{ID: x.id}
		test.Description = getString(x.table, "description")
		x.table.ForEach(func(k, v lua.LValue) {
			if _, ok := k.(lua.LNumber); !ok {
				return
			}
			t, ok := v.(*lua.LTable)
			if !ok {
				c.warn("Experiment %s: allocation is not a table", x.id)
				return
			}
			var a experiment.Allocation
			var group string
			r := c.reader("Experiment "+x.id, t)
			r.text("group", &group)
			r.integer("percentage", &a.Percentage)
			r.params("params", &a.Params)
			r.done()
			a.Group = experiment.Group(group)
			if a.Group == "" {
				c.warn("Experiment %s: allocation without group, skipped", x.id)
				return
			}
			test.Allocations = append(test.Allocations, a)
		})
		tests = append(tests, test)
	}
	return tests
}

func (c *collector) compileMilestones() []reward.Milestone {
	var out []reward.Milestone
	for _, m := range c.milestones {
		ms := reward.Milestone{ID: m.id}
		var kind string
		r := c.reader("Milestone "+m.id, m.table)
		r.text("kind", &kind)
		r.number("threshold", &ms.Threshold)
		r.integer("credits", &ms.Credits)
		r.integer("xp", &ms.XP)
		r.text("unlock", &ms.Unlock)
		r.done()
		ms.Kind = reward.Kind(kind)
		if ms.Kind == "" {
			c.warn("Milestone %s without kind, skipped", m.id)
			continue
		}
		out = append(out, ms)
	}
	return out
}

// #endregion

// #region reader

// reader reads typed fields of one table and reports unknown keys.
type reader struct {
	coll    *collector
	section string
	tbl     *lua.LTable
	seen    map[string]bool
}

func (c *collector) reader(section string, tbl *lua.LTable) *reader {
	return &reader{coll: c, section: section, tbl: tbl, seen: map[string]bool{}}
}

func (r *reader) get(key string) lua.LValue {
	r.seen[key] = true
	return r.tbl.RawGetString(key)
}

// number stores a finite number at key into dst and reports whether it did.
func (r *reader) number(key string, dst *float64) bool {
	v := r.get(key)
	if v == lua.LNil {
		return false
	}
	n, ok := v.(lua.LNumber)
	if !ok || math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
		r.coll.warn("%s.%s: expected a finite number, got %s", r.section, key, v.Type())
		return false
	}
	*dst = float64(n)
	return true
}

func (r *reader) integer(key string, dst *int) {
	var f float64
	if r.number(key, &f) {
		*dst = int(f)
	}
}

func (r *reader) integer64(key string, dst *int64) {
	var f float64
	if r.number(key, &f) {
		*dst = int64(f)
	}
}

// seconds reads a duration given in seconds.
func (r *reader) seconds(key string, dst *time.Duration) {
	var f float64
	if r.number(key, &f) {
		*dst = time.Duration(f * float64(time.Second))
	}
}

// millis reads a duration given in milliseconds.
func (r *reader) millis(key string, dst *time.Duration) {
	var f float64
	if r.number(key, &f) {
		*dst = time.Duration(f * float64(time.Millisecond))
	}
}

func (r *reader) flag(key string, dst *bool) {
	v := r.get(key)
	if v == lua.LNil {
		return
	}
	b, ok := v.(lua.LBool)
	if !ok {
		r.coll.warn("%s.%s: expected a boolean, got %s", r.section, key, v.Type())
		return
	}
	*dst = bool(b)
}

func (r *reader) text(key string, dst *string) {
	v := r.get(key)
	if v == lua.LNil {
		return
	}
	s, ok := v.(lua.LString)
	if !ok {
		r.coll.warn("%s.%s: expected a string, got %s", r.section, key, v.Type())
		return
	}
	*dst = string(s)
}

// numbers reads a fixed-length array. dst is either []float64 or []*float64.
// A length mismatch keeps the defaults.
func (r *reader) numbers(key string, dst any) {
	v := r.get(key)
	if v == lua.LNil {
		return
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		r.coll.warn("%s.%s: expected an array, got %s", r.section, key, v.Type())
		return
	}
	var want int
	switch d := dst.(type) {
	case []float64:
		want = len(d)
	case []*float64:
		want = len(d)
	}
	vals := make([]float64, 0, want)
	for i := 1; i <= t.Len(); i++ {
		n, ok := t.RawGetInt(i).(lua.LNumber)
		if !ok || math.IsNaN(float64(n)) {
			r.coll.warn("%s.%s[%d]: expected a number", r.section, key, i)
			return
		}
		vals = append(vals, float64(n))
	}
	if len(vals) != want {
		r.coll.warn("%s.%s: expected %d values, got %d", r.section, key, want, len(vals))
		return
	}
	switch d := dst.(type) {
	case []float64:
		copy(d, vals)
	case []*float64:
		for i, p := range d {
			*p = vals[i]
		}
	}
}

// curve reads { {t, v}, ... } keyframes. A malformed curve keeps the default.
func (r *reader) curve(key string, dst *curve.Curve) {
	v := r.get(key)
	if v == lua.LNil {
		return
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		r.coll.warn("%s.%s: expected keyframes, got %s", r.section, key, v.Type())
		return
	}
	var keys []curve.Keyframe
	for i := 1; i <= t.Len(); i++ {
		kf, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			r.coll.warn("%s.%s[%d]: expected {t, v}", r.section, key, i)
			return
		}
		tt, ok1 := kf.RawGetInt(1).(lua.LNumber)
		vv, ok2 := kf.RawGetInt(2).(lua.LNumber)
		if !ok1 || !ok2 {
			r.coll.warn("%s.%s[%d]: expected {t, v}", r.section, key, i)
			return
		}
		keys = append(keys, curve.Keyframe{T: float64(tt), V: float64(vv)})
	}
	c, err := curve.New(keys...)
	if err != nil {
		r.coll.warn("%s.%s: %v", r.section, key, err)
		return
	}
	*dst = c
}

// params reads a string-keyed table of numbers.
func (r *reader) params(key string, dst *map[string]float64) {
	v := r.get(key)
	if v == lua.LNil {
		return
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		r.coll.warn("%s.%s: expected a table, got %s", r.section, key, v.Type())
		return
	}
	out := map[string]float64{}
	t.ForEach(func(k, val lua.LValue) {
		n, ok := val.(lua.LNumber)
		if !ok {
			r.coll.warn("%s.%s.%s: expected a number", r.section, key, k.String())
			return
		}
		out[k.String()] = float64(n)
	})
	*dst = out
}

// done reports keys that no field consumed.
func (r *reader) done() {
	var unknown []string
	r.tbl.ForEach(func(k, _ lua.LValue) {
		s, ok := k.(lua.LString)
		if ok && !r.seen[string(s)] {
			unknown = append(unknown, string(s))
		}
	})
	sort.Strings(unknown)
	for _, k := range unknown {
		r.coll.warn("%s: unknown field %q", r.section, k)
	}
}

func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func ptrs(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		out[i] = &vals[i]
	}
	return out
}

// #endregion
