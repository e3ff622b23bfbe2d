// Command meter is the engine's process entrypoint: load config, wire the
// dispatcher and its external boundaries, and run until signalled. Grounded
// on the teacher's cmd/gameserver/main.go (errgroup-supervised run(ctx),
// slog.SetDefault from the loaded config, signal-driven cancellation).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrelmeter/engine/internal/config"
	"github.com/kestrelmeter/engine/internal/dispatcher"
	"github.com/kestrelmeter/engine/internal/localcache"
	"github.com/kestrelmeter/engine/internal/packet"
	"github.com/kestrelmeter/engine/internal/statsapi"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := config.ResolvePath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	log.Info("meter starting", "config", cfgPath, "log_level", cfg.LogLevel, "region", cfg.Region)

	names := localcache.Load(cfg.LocalPlayersCachePath, log)

	stats, err := statsapi.New(cfg.StatsAPIBaseURL, cfg.StatsAPITimeout(), log)
	if err != nil {
		return fmt.Errorf("creating stats-api client: %w", err)
	}

	// The packet capture/decode pipeline and the presentation-layer
	// Sink/Store adapters are external collaborators out of scope for this
	// module (SPEC_FULL.md §4.11, §6); logSink/logStore below are the
	// "thin adapter left for the real IPC boundary" spec.md §6 calls for,
	// and in is fed by whatever capture layer embeds this dispatcher.
	in := make(chan packet.Envelope)

	control := dispatcher.NewControlPlane()
	d := dispatcher.New(cfg, log, in, logSink{log: log}, logStore{log: log}, stats, names, control)

	log.Info("dispatcher ready, awaiting packets")
	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}
	return nil
}

// logSink is the default packet.Sink: it logs every emitted event instead
// of forwarding to a real IPC channel, standing in for the out-of-scope
// presentation-layer transport (spec.md §6).
type logSink struct {
	log *slog.Logger
}

func (s logSink) Emit(name string, payload any) {
	s.log.Debug("event", "name", name, "payload", payload)
}

// logStore is the default packet.Store: it logs the persistence attempt
// instead of writing to a real backing store, standing in for the
// out-of-scope schema/database (spec.md §1).
type logStore struct {
	log *slog.Logger
}

func (s logStore) Persist(snapshot any) error {
	s.log.Info("encounter persisted (no-op store)")
	return nil
}

// parseLogLevel converts the config's string log level to slog.Level,
// defaulting to Info, matching the teacher's parseLogLevel.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
