package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/config"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/loop"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/rpc"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/signals"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
)

// #region main
func main() {
	configPath := flag.String("config", envOr("ADAPTIVE_CONFIG", ""), "path to a Lua config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	for _, w := range cfg.Warnings {
		log.Printf("config: %s", w)
	}
	cfg.DBPath = envOr("ADAPTIVE_DB", cfg.DBPath)
	cfg.Listen = envOr("ADAPTIVE_LISTEN", cfg.Listen)
	cfg.PlayerID = envOr("ADAPTIVE_PLAYER", cfg.PlayerID)

	// Initialize profile store
	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	profile, err := store.LoadOrNew(cfg.PlayerID)
	if err != nil {
		log.Fatalf("failed to load profile for %s: %v", cfg.PlayerID, err)
	}

	sink := logging.NewSink(store.DB(), cfg.PlayerID, nil)
	eng := engine.New(cfg.Engine, engine.Options{
		PlayerID: cfg.PlayerID,
		Risk:     signals.NewProducer(store.DB(), signals.DefaultProducerConfig(), nil),
		Collaborators: engine.Collaborators{
			Analytics: sink,
		},
	})
	sink.SetClock(eng.Now)
	if err := eng.Restore(profile); err != nil {
		log.Printf("profile restore: %v, starting neutral", err)
	}

	runner := loop.New(eng, cfg.Loop, nil)
	runner.OnSave(func(e *engine.Engine, reason string) error {
		v, err := store.Save(e.Snapshot(), reason)
		if err != nil {
			return err
		}
		log.Printf("saved %s (%s)", v.VersionID, reason)
		return nil
	})

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", cfg.Listen, err)
	}
	srv := grpc.NewServer()
	rpc.NewServer(runner, nil).Register(srv)
	reflection.Register(srv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Printf("grpc serve: %v", err)
			stop()
		}
	}()

	log.Printf("Adaptive Difficulty Controller ready.")
	log.Printf("  DB: %s | Listen: %s | Player: %s | Tick: %s", cfg.DBPath, cfg.Listen, cfg.PlayerID, cfg.Loop.TickRate)

	if err := runner.Run(ctx); err != nil {
		log.Printf("loop: %v", err)
	}
	srv.GracefulStop()
	if n := sink.Failures(); n > 0 {
		log.Printf("analytics: %d rows dropped", n)
	}
	log.Printf("controller stopped")
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
