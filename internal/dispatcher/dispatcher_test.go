package dispatcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kestrelmeter/engine/internal/config"
	"github.com/kestrelmeter/engine/internal/localcache"
	"github.com/kestrelmeter/engine/internal/model"
	"github.com/kestrelmeter/engine/internal/packet"
	"github.com/kestrelmeter/engine/internal/statsapi"
)

// recordingSink collects every emitted event for assertion.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Emit(name string, _ any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
}

type recordingStore struct {
	mu        sync.Mutex
	persisted []any
}

func (s *recordingStore) Persist(snapshot any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted = append(s.persisted, snapshot)
	return nil
}

// stubStats is a no-op statsapi.Source: these scenario tests exercise
// tracker/state routing, not the stats-API boundary.
type stubStats struct{}

func (stubStats) Sync(context.Context, uint64, string, string) {}
func (stubStats) GetStats(context.Context) map[uint64]statsapi.CharacterStats {
	return map[uint64]statsapi.CharacterStats{}
}
func (stubStats) Heartbeat(context.Context, string, string, string) error { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *recordingSink) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sink := &recordingSink{}
	ch := make(chan packet.Envelope)
	names := localcache.Load(t.TempDir()+"/players.yaml", log)
	d := New(config.Default(), log, ch, sink, &recordingStore{}, stubStats{}, names, NewControlPlane())
	return d, sink
}

// Concrete scenario 1 (spec.md §8): attribution through a projectile.
func TestDispatcher_ProjectileAttribution(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewPC, Payload: packet.PCPacket{
		EntityID: 100, CharacterID: 1, Name: "Hero", ClassID: 202,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillStartNotify, Payload: packet.SkillStartNotifyPacket{
		SourceID: 100, SkillID: 21090, Timestamp: 1000,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewProjectile, Payload: packet.NewProjectilePacket{
		EntityID: 500, OwnerID: 100, SkillID: 21090,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 500, TargetID: 999, Timestamp: 5000,
		Hits: []packet.DamageHit{{SkillID: 21090, Damage: 12345}},
	}}))

	hero := d.state.Entities["Hero"]
	require.NotNil(t, hero)
	assert.Equal(t, int64(12345), hero.DamageDealt)

	require.Len(t, hero.Skills, 1)
	for _, stats := range hero.Skills {
		require.Len(t, stats.HitLog, 1)
		assert.Equal(t, int64(1000), stats.HitLog[0].Timestamp, "damage is back-dated to the originating cast")
	}
}

// Concrete scenario 2 (spec.md §8): boss-only damage filter.
func TestDispatcher_BossOnlyDamageFilter(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()
	// processEnvelope ordinarily syncs this from the control plane once per
	// packet; dispatch is exercised directly here, so set it straight.
	d.state.BossOnlyDamage = true

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewPC, Payload: packet.PCPacket{
		EntityID: 100, CharacterID: 1, Name: "Hero", ClassID: 202,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewNpc, Payload: packet.NewNpcPacket{
		EntityID: 200, TypeID: 1, Name: "Mob", MaxHP: 100,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewNpc, Payload: packet.NewNpcPacket{
		EntityID: 201, TypeID: 60001, Name: "Valtan", MaxHP: 100000,
	}}))

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 100, TargetID: 200, Timestamp: 1,
		Hits: []packet.DamageHit{{Damage: 500}},
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 100, TargetID: 201, Timestamp: 2,
		Hits: []packet.DamageHit{{Damage: 700}},
	}}))

	hero := d.state.Entities["Hero"]
	require.NotNil(t, hero)
	assert.Equal(t, int64(700), hero.DamageDealt)
	assert.Equal(t, int64(500), hero.DiagnosticDamage)
}

// Concrete scenario 3 (spec.md §8): raid-end cooldown.
func TestDispatcher_RaidEndCooldown(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewPC, Payload: packet.PCPacket{
		EntityID: 100, CharacterID: 1, Name: "Hero", ClassID: 202,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewNpc, Payload: packet.NewNpcPacket{
		EntityID: 201, TypeID: 60001, Name: "Valtan", MaxHP: 100000,
	}}))
	d.state.Phase = model.PhaseInFight // clear-signal transitions only fire from InFight
	d.clock = func() int64 { return 10_000 } // TriggerStartNotify carries no wire timestamp; deterministic for the test

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpTriggerStartNotify, Payload: packet.TriggerStartNotifyPacket{
		Signal: 57,
	}}))

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 100, TargetID: 201, Timestamp: 15_000, // t+5s
		Hits: []packet.DamageHit{{Damage: 999}},
	}}))
	assert.Nil(t, d.state.Entities["Hero"], "damage during the raid-end cooldown window is dropped")

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 100, TargetID: 201, Timestamp: 21_000, // t+11s
		Hits: []packet.DamageHit{{Damage: 999}},
	}}))
	require.NotNil(t, d.state.Entities["Hero"])
	assert.Equal(t, int64(999), d.state.Entities["Hero"].DamageDealt)
}

// Concrete scenario 4 (spec.md §8): identity upgrade via guess_is_player.
func TestDispatcher_IdentityUpgradeReclassifiesNpcAsPlayer(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewNpc, Payload: packet.NewNpcPacket{
		EntityID: 100, TypeID: 1, Name: "Mystery", MaxHP: 100,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillCastNotify, Payload: packet.SkillCastNotifyPacket{
		SourceID: 100, SkillID: 21090, Timestamp: 10,
	}}))

	e, ok := d.trackers.Entities.Get(100)
	require.True(t, ok)
	assert.Equal(t, model.EntityPlayer, e.Type)

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 100, TargetID: 999, Timestamp: 11,
		Hits: []packet.DamageHit{{Damage: 50}},
	}}))

	stats := d.state.Entities["Mystery"]
	require.NotNil(t, stats)
	assert.Equal(t, int64(50), stats.DamageDealt)
}

// Concrete scenario 5 (spec.md §8): shield tracking and shield-breaker
// attribution against the source of the last hit that drained it.
func TestDispatcher_ShieldTrackingAndBreakerAttribution(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewPC, Payload: packet.PCPacket{
		EntityID: 100, CharacterID: 1, Name: "Hero", ClassID: 202,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewNpc, Payload: packet.NewNpcPacket{
		EntityID: 201, TypeID: 60001, Name: "Valtan", MaxHP: 100000,
	}}))
	d.state.CurrentBossName = "Valtan"

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpStatusEffectAddNotify, Payload: packet.StatusEffectAddNotifyPacket{
		TargetID: 201,
		Effect: model.StatusEffect{
			InstanceID: 1, TargetID: 201, Type: model.EffectShield, Value: 1000,
		},
	}}))
	boss := d.state.Entities["Valtan"]
	require.NotNil(t, boss)
	assert.Equal(t, int64(1000), boss.ShieldRemaining)

	// A hit against the shielded boss records the breaker before the sync
	// arrives, matching the real packet order (damage then sync).
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 100, TargetID: 201, Timestamp: 1,
		Hits: []packet.DamageHit{{Damage: 1, TargetCurrentHP: 99999, TargetMaxHP: 100000}},
	}}))

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpStatusEffectSyncDataNotify, Payload: packet.StatusEffectSyncDataNotifyPacket{
		InstanceID: 1, ObjectID: 201, Value: 400,
	}}))

	assert.Equal(t, int64(400), boss.ShieldRemaining)
	hero := d.state.Entities["Hero"]
	require.NotNil(t, hero)
	assert.Equal(t, int64(600), hero.DiagnosticDamage, "shield absorption is credited to the source of the shield breaker")
}

// Concrete scenario 6 (spec.md §8): party stability caching.
func TestDispatcher_PartyStabilityCaching(t *testing.T) {
	d, _ := newTestDispatcher(t)

	live := map[uint64][]string{1: {"A", "B", "C", "D"}}
	resolved := d.state.PartyNames(live)
	assert.Equal(t, live, resolved)

	changed := map[uint64][]string{1: {"A", "B", "C", "E"}}
	resolved = d.state.PartyNames(changed)
	assert.Equal(t, live, resolved, "the cached snapshot from the first stabilized tick is reused")
}

// hardReset purges every tracker, not just the encounter aggregates
// (spec.md §4.5 "InitEnv -> Idle: hard reset zone context").
func TestDispatcher_InitEnvHardResetsEveryTracker(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpNewPC, Payload: packet.PCPacket{
		EntityID: 100, CharacterID: 1, Name: "Hero", ClassID: 202,
	}}))
	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 100, TargetID: 999, Timestamp: 1,
		Hits: []packet.DamageHit{{Damage: 10}},
	}}))
	require.NotEmpty(t, d.state.Entities)

	require.NoError(t, d.dispatch(ctx, packet.Envelope{Opcode: packet.OpInitEnv, Payload: packet.InitEnvPacket{
		LocalPlayerID: 7,
	}}))

	assert.Empty(t, d.state.Entities)
	_, ok := d.trackers.Entities.Get(100)
	assert.False(t, ok, "every pre-reset entity is purged, including the old local player id")
}

// processEnvelope is the real per-packet entry point Run uses: it syncs the
// boss-only-damage flag from the control plane, then flushes a snapshot
// immediately on a Boss death instead of waiting for the next tick
// (spec.md §4.9).
func TestDispatcher_ProcessEnvelopeFlushesSnapshotOnBossDeath(t *testing.T) {
	d, sink := newTestDispatcher(t)
	ctx := context.Background()
	g, gctx := errgroup.WithContext(ctx)

	d.processEnvelope(gctx, g, packet.Envelope{Opcode: packet.OpNewPC, Payload: packet.PCPacket{
		EntityID: 100, CharacterID: 1, Name: "Hero", ClassID: 202,
	}})
	d.processEnvelope(gctx, g, packet.Envelope{Opcode: packet.OpNewNpc, Payload: packet.NewNpcPacket{
		EntityID: 201, TypeID: 60001, Name: "Valtan", MaxHP: 100,
	}})
	d.processEnvelope(gctx, g, packet.Envelope{Opcode: packet.OpSkillDamageNotify, Payload: packet.SkillDamageNotifyPacket{
		SourceID: 100, TargetID: 201, Timestamp: 1,
		Hits: []packet.DamageHit{{Damage: 100, TargetCurrentHP: 0}},
	}})
	require.NoError(t, g.Wait())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Contains(t, sink.events, packet.EventEncounterUpdate, "a Boss death flushes a snapshot immediately rather than waiting for the tick")
}

// RaidResult finalizes the encounter and persists it, even though
// processEnvelope (not dispatch) is the layer that owns the errgroup needed
// to run that side effect (spec.md §4.7).
func TestDispatcher_ProcessEnvelopeFinalizesOnRaidResult(t *testing.T) {
	d, _ := newTestDispatcher(t)
	store := &recordingStore{}
	d.store = store
	ctx := context.Background()
	g, gctx := errgroup.WithContext(ctx)

	d.processEnvelope(gctx, g, packet.Envelope{Opcode: packet.OpRaidResult, Payload: packet.RaidResultPacket{}})
	require.NoError(t, g.Wait())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.persisted, 1)
	assert.Equal(t, model.PhaseFinalized, d.state.Phase)
}
