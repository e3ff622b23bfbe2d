// Package dispatcher is the blocking consumer of the packet channel: it
// routes each decoded packet to the trackers and EncounterState, polls the
// control-plane flags, and drives the periodic snapshot/party/heartbeat
// timers (spec.md §4.9). Grounded on the teacher's errgroup-supervised
// main loop (_examples/udisondev-la2go/cmd/gameserver/main.go) and its
// ticker-driven manager loops (internal/ai/manager.go). The Dispatcher is
// the sole mutator of every tracker and of encounter.State (spec.md §5);
// nothing else in this module holds a long-lived reference to them.
package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelmeter/engine/internal/config"
	"github.com/kestrelmeter/engine/internal/game/encounter"
	"github.com/kestrelmeter/engine/internal/game/status"
	"github.com/kestrelmeter/engine/internal/localcache"
	"github.com/kestrelmeter/engine/internal/model"
	"github.com/kestrelmeter/engine/internal/packet"
	"github.com/kestrelmeter/engine/internal/statsapi"
)

// Clock returns the current time in milliseconds; tests inject a
// deterministic clock, production uses time.Now().UnixMilli.
type Clock func() int64

func systemClock() int64 { return time.Now().UnixMilli() }

// Dispatcher is the single-writer engine core (spec.md §2, §5).
type Dispatcher struct {
	cfg   config.Config
	log   *slog.Logger
	clock Clock

	trackers *Trackers
	state    *encounter.State

	stats statsapi.Source
	sink  packet.Sink
	store packet.Store
	names *localcache.Cache

	control *ControlPlane
	in      <-chan packet.Envelope

	// lastHitSource remembers, per target entity_id, the owner attributed
	// to the most recent hit against it — used to credit shield absorption
	// to "the source of the shield breaker" (spec.md §4.7, §8 scenario 5).
	lastHitSource map[uint64]*model.Entity

	// pendingFinalize is set when RaidResult transitions the encounter to
	// Finalized; the dispatcher loop (which alone holds the errgroup) acts
	// on it right after dispatch returns (spec.md §4.7 on_phase_transition).
	pendingFinalize bool
}

// New wires a Dispatcher. in is the capture channel; sink/store/stats are
// the external boundaries (spec.md §1). names is the warm-started local
// players cache (SPEC_FULL.md §9 supplement 3).
func New(cfg config.Config, log *slog.Logger, in <-chan packet.Envelope, sink packet.Sink, store packet.Store, stats statsapi.Source, names *localcache.Cache, control *ControlPlane) *Dispatcher {
	d := &Dispatcher{
		cfg:           cfg,
		log:           log,
		clock:         systemClock,
		trackers:      NewTrackers(),
		state:         encounter.New(),
		stats:         stats,
		sink:          sink,
		store:         store,
		names:         names,
		control:       control,
		in:            in,
		lastHitSource: make(map[uint64]*model.Entity),
	}
	d.state.Region = cfg.Region
	return d
}

// Run blocks on the capture channel until it closes or ctx is cancelled
// (spec.md §5 "Cancellation"). Background snapshot/party/heartbeat tasks
// run under an errgroup derived from ctx and are allowed to finish
// best-effort; Run does not wait for them beyond g.Wait() at the very end.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	snapshotTicker := time.NewTicker(d.cfg.SnapshotInterval())
	defer snapshotTicker.Stop()
	partyTicker := time.NewTicker(d.cfg.PartyUpdateInterval())
	defer partyTicker.Stop()
	heartbeatTicker := time.NewTicker(d.cfg.HeartbeatInterval())
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-gctx.Done():
			return g.Wait()

		case env, ok := <-d.in:
			if !ok {
				return g.Wait()
			}
			d.processEnvelope(gctx, g, env)

		case <-snapshotTicker.C:
			d.emitSnapshot(g)

		case <-partyTicker.C:
			d.emitPartyUpdate(g)

		case <-heartbeatTicker.C:
			d.emitHeartbeat(gctx, g)
		}
	}
}

// processEnvelope implements spec.md §4.9's per-packet control-flag
// protocol, then dispatches the decoded payload. A recovered handler panic
// is the one exception to "no error path unwinds the in-memory encounter"
// (spec.md §7) — it is the defensive boundary around decoder/handler
// surprises, grounded on the teacher's top-level recover pattern around
// per-client accept loops (_examples/udisondev-la2go/internal/gameserver/server.go).
func (d *Dispatcher) processEnvelope(ctx context.Context, g *errgroup.Group, env packet.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatcher: recovered from handler panic", "opcode", env.Opcode, "panic", r)
		}
	}()

	if d.control.consumeReset() {
		d.softReset()
		d.sink.Emit(packet.EventResetEncounter, nil)
	}
	if d.control.paused() {
		d.sink.Emit(packet.EventPauseEncounter, nil)
		return
	}
	if d.control.consumeSave() {
		d.handleSave(ctx, g)
		d.sink.Emit(packet.EventSaveEncounter, nil)
	}
	d.state.BossOnlyDamage = d.control.bossOnly()

	if err := d.dispatch(ctx, env); err != nil {
		d.log.Warn("dispatcher: decode/handle failed, dropping packet", "opcode", env.Opcode, "err", err)
		return
	}

	if d.pendingFinalize {
		d.finalize(ctx, g)
		d.pendingFinalize = false
	}

	d.afterDispatch(g)
}

// afterDispatch implements the immediate-flush rules of spec.md §4.9: a
// snapshot is emitted right away (rather than waiting for the next tick)
// when resetting or boss_dead_update.
func (d *Dispatcher) afterDispatch(g *errgroup.Group) {
	if d.state.BossDeadUpdate {
		d.emitSnapshot(g)
		d.state.BossDeadUpdate = false
	}
	if d.state.Resetting {
		d.emitSnapshot(g)
		d.softReset()
	}
}

// softReset implements the "soft reset of the encounter" side effect
// shared by the Resetting-phase transition and an explicit reset-request
// (spec.md §4.5, §4.9): aggregates start over but the zone/region context
// and the identity/party/status trackers survive, since the player roster
// has not left the instance.
func (d *Dispatcher) softReset() {
	zone, region, bossOnly := d.state.Zone, d.state.Region, d.state.BossOnlyDamage
	d.state = encounter.New()
	d.state.Zone = zone
	d.state.Region = region
	d.state.BossOnlyDamage = bossOnly
	d.trackers.Skill.Reset()
	d.lastHitSource = make(map[uint64]*model.Entity)
}

// hardReset implements InitEnv's "hard reset zone context" (spec.md §4.5):
// every tracker is purged, not just the encounter aggregates.
func (d *Dispatcher) hardReset(newLocalID uint64) {
	d.trackers.Entities.InitEnv(newLocalID)
	d.trackers.Party.ResetPartyMappings()
	d.trackers.Status = status.New()
	d.trackers.Skill.Reset()
	region, bossOnly := d.state.Region, d.state.BossOnlyDamage
	d.state = encounter.New()
	d.state.Region = region
	d.state.BossOnlyDamage = bossOnly
	d.lastHitSource = make(map[uint64]*model.Entity)
}
