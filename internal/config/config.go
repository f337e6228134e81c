// Package config loads the controller configuration from a sandboxed Lua
// file. The file only calls declarative constructors; the VM is discarded
// after loading and the result is plain data.
package config

import (
	"fmt"
	"os"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/loop"
)

// #region config

// Config is everything the controller daemon needs at startup.
type Config struct {
	Listen   string // gRPC listen address
	DBPath   string
	PlayerID string
	Loop     loop.Config
	Engine   engine.Config

	// Warnings lists every field that was ignored or replaced by its default.
	Warnings []string
}

// Default returns the configuration used when no file is given.
func Default() Config {
	ec := engine.DefaultConfig()
	lc := loop.DefaultConfig()
	lc.TickRate = ec.TickRate
	return Config{
		Listen:   "localhost:50061",
		DBPath:   "adaptive_difficulty.db",
		PlayerID: "local",
		Loop:     lc,
		Engine:   ec,
	}
}

// #endregion

// #region load

// Load reads and executes the Lua file at path on top of Default. Script
// errors fail the load; bad values only produce warnings.
func Load(path string) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := LoadString(string(src))
	if err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadString is Load for an in-memory script.
func LoadString(src string) (Config, error) {
	coll, err := execute(src)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	coll.apply(&cfg)
	cfg.Engine.TickRate = cfg.Loop.TickRate
	cfg.Warnings = coll.warnings
	return cfg, nil
}

// #endregion
