package rpc

import (
	"context"
	"io"
	"log"
	"math"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/experiment"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/loop"
)

type harness struct {
	client *Client
	stop   func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	cfg := engine.DefaultConfig()
	cfg.Experiments = []experiment.Test{{
		ID: "spawn_rate",
		Allocations: []experiment.Allocation{
			{Group: "control", Percentage: 100, Params: map[string]float64{"encounter_rate": 1}},
		},
	}}
	eng := engine.New(cfg, engine.Options{
		PlayerID: "p1",
		Start:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Logger:   logger,
	})
	runner := loop.New(eng, loop.Config{TickRate: time.Millisecond}, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go runner.Run(ctx)

	lis := bufconn.Listen(1 << 20)
	g := grpc.NewServer()
	NewServer(runner, logger).Register(g)
	go g.Serve(lis)

	c, err := NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	stopRunner := func() {
		cancel()
		<-runner.Done()
	}
	t.Cleanup(func() {
		c.Close()
		g.Stop()
		stopRunner()
	})
	return &harness{client: c, stop: stopRunner}
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDifficultyAtDepth(t *testing.T) {
	h := newHarness(t)
	d, err := h.client.DifficultyAtDepth(callCtx(t), 0)
	if err != nil {
		t.Fatalf("rpc: %v", err)
	}
	if math.Abs(d-1) > 1e-9 {
		t.Fatalf("difficulty at surface = %v, want 1", d)
	}
}

func TestDiveAndPenaltyFlow(t *testing.T) {
	h := newHarness(t)
	ctx := callCtx(t)

	out, err := h.client.Call(ctx, "StartDive", map[string]any{"dive_id": "dive-7"})
	if err != nil {
		t.Fatalf("start dive: %v", err)
	}
	if out["dive_id"] != "dive-7" {
		t.Fatalf("dive id = %v", out["dive_id"])
	}
	if _, err := h.client.Call(ctx, "SetDepth", map[string]any{"depth": 30.0}); err != nil {
		t.Fatalf("set depth: %v", err)
	}
	report, err := h.client.ApplyDeathPenalty(ctx, 30, "oxygen")
	if err != nil {
		t.Fatalf("penalty: %v", err)
	}
	if report["dive_id"] != "dive-7" || report["applied"] != true || report["cause"] != "oxygen" {
		t.Fatalf("report = %v", report)
	}

	st, err := h.client.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st["player_id"] != "p1" || st["depth"] != 30.0 {
		t.Fatalf("status = %v", st)
	}
}

func TestValueCleansDepth(t *testing.T) {
	h := newHarness(t)
	ctx := callCtx(t)
	res := map[string]any{"id": "iron", "base_value": 10.0, "rarity": "common"}

	res["depth"] = 0.0
	surface, err := h.client.Call(ctx, "Value", res)
	if err != nil {
		t.Fatalf("value at surface: %v", err)
	}
	res["depth"] = -40.0
	negative, err := h.client.Call(ctx, "Value", res)
	if err != nil {
		t.Fatalf("value at negative depth: %v", err)
	}
	for _, k := range []string{"value", "depth_bonus", "risk", "market"} {
		if negative[k] != surface[k] {
			t.Errorf("%s = %v, want surface %v", k, negative[k], surface[k])
		}
	}
}

func TestResetDifficulty(t *testing.T) {
	h := newHarness(t)
	ctx := callCtx(t)
	if _, err := h.client.Call(ctx, "RecordDeath", map[string]any{"depth": 20.0}); err != nil {
		t.Fatalf("record death: %v", err)
	}
	out, err := h.client.Call(ctx, "ResetDifficulty", nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if out["epoch"] != 1.0 || out["skill_factor"] != 1.0 || out["dynamic_adjustment"] != 1.0 {
		t.Fatalf("reset = %v", out)
	}
}

func TestScaleStatsPatrolProfile(t *testing.T) {
	h := newHarness(t)
	out, err := h.client.Call(callCtx(t), "ScaleStats", map[string]any{
		"id":            "eel",
		"base_health":   100.0,
		"patrol_radius": 10.0,
		"depth":         0.0,
	})
	if err != nil {
		t.Fatalf("rpc: %v", err)
	}
	if out["patrol_radius"] != 10.0 || out["health"] != 100.0 {
		t.Fatalf("stats = %v", out)
	}
}

func TestAssignGroup(t *testing.T) {
	h := newHarness(t)
	ctx := callCtx(t)
	out, err := h.client.Call(ctx, "AssignGroup", map[string]any{"test_id": "spawn_rate"})
	if err != nil {
		t.Fatalf("rpc: %v", err)
	}
	if out["group"] != "control" {
		t.Fatalf("group = %v", out["group"])
	}

	_, err = h.client.Call(ctx, "AssignGroup", map[string]any{"test_id": "nope"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("unknown experiment: code = %v (%v)", status.Code(err), err)
	}
}

func TestErrorCodes(t *testing.T) {
	h := newHarness(t)
	ctx := callCtx(t)

	cases := []struct {
		method string
		fields map[string]any
		want   codes.Code
	}{
		{"RecordDeath", nil, codes.InvalidArgument},
		{"RecordDeath", map[string]any{"depth": "deep"}, codes.InvalidArgument},
		{"SetActivity", map[string]any{"activity": "dancing"}, codes.InvalidArgument},
		{"PurchaseInsurance", map[string]any{"tier": "platinum"}, codes.InvalidArgument},
		{"BossPhase", map[string]any{"boss_id": "ghost", "health_fraction": 0.5}, codes.NotFound},
		{"EndSession", nil, codes.NotFound},
		{"Teleport", nil, codes.Unimplemented},
	}
	for _, tc := range cases {
		_, err := h.client.Call(ctx, tc.method, tc.fields)
		if got := status.Code(err); got != tc.want {
			t.Errorf("%s: code = %v, want %v (%v)", tc.method, got, tc.want, err)
		}
	}
}

func TestStoppedLoopIsUnavailable(t *testing.T) {
	h := newHarness(t)
	h.stop()
	_, err := h.client.Status(callCtx(t))
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("code = %v (%v)", status.Code(err), err)
	}
}

func TestMethodsSorted(t *testing.T) {
	s := NewServer(nil, log.New(io.Discard, "", 0))
	names := s.Methods()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("methods not sorted: %v", names)
		}
	}
	if len(names) != len(handlers()) {
		t.Fatalf("methods = %d", len(names))
	}
}
