package dispatcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelmeter/engine/internal/game/encounter"
	"github.com/kestrelmeter/engine/internal/packet"
	"github.com/kestrelmeter/engine/internal/statsapi"
)

// emitSnapshot builds an encounter-update snapshot synchronously (the only
// goroutine that ever touches live state) and hands the cloned value to a
// background task for the actual I/O (spec.md §5, §4.9).
func (d *Dispatcher) emitSnapshot(g *errgroup.Group) {
	snap := d.state.BuildSnapshot()
	g.Go(func() error {
		d.sink.Emit(packet.EventEncounterUpdate, snap)
		return nil
	})

	if d.control.detailsEnabled() {
		d.emitDetails(g)
	}
}

// emitDetails sends stagger-update only when details are enabled (spec.md
// §6 "only when details enabled"); identity-update is emitted inline from
// the IdentityGaugeChangeNotify handler for the same reason (spec.md §4.7
// on_identity_gain fires per packet, not per tick).
func (d *Dispatcher) emitDetails(g *errgroup.Group) {
	if d.state.CurrentBossName == "" {
		return
	}
	boss, ok := d.state.Entities[d.state.CurrentBossName]
	if !ok || len(boss.StaggerHistory) == 0 {
		return
	}
	latest := boss.StaggerHistory[len(boss.StaggerHistory)-1]
	payload := packet.StaggerUpdatePayload{Current: latest.Current, Max: latest.Max}
	g.Go(func() error {
		d.sink.Emit(packet.EventStaggerUpdate, payload)
		return nil
	})
}

// emitPartyUpdate implements spec.md §4.9's "every 2 s, also emit a
// party-update if the party is known and not frozen", using the cached
// snapshot once stabilized (spec.md §8 scenario 6).
func (d *Dispatcher) emitPartyUpdate(g *errgroup.Group) {
	if d.state.PartyFrozen {
		return
	}
	live := d.buildLivePartyNames()
	resolved := d.state.PartyNames(live)
	if len(resolved) == 0 {
		return
	}
	payload := packet.PartyUpdatePayload{Parties: toIntKeyedParties(resolved)}
	g.Go(func() error {
		d.sink.Emit(packet.EventPartyUpdate, payload)
		return nil
	})
}

// toIntKeyedParties adapts the uint64 party-id keys used internally to the
// int-indexed PartyUpdatePayload shape spec.md §6 defines for presentation.
func toIntKeyedParties(parties map[uint64][]string) map[int][]string {
	out := make(map[int][]string, len(parties))
	i := 0
	for _, members := range parties {
		out[i] = members
		i++
	}
	return out
}

// buildLivePartyNames groups every known entity by its party id (spec.md
// §4.9). Entities whose party is not yet known are omitted.
func (d *Dispatcher) buildLivePartyNames() map[uint64][]string {
	out := make(map[uint64][]string)
	for _, e := range d.trackers.Entities.All() {
		var partyID uint64
		var ok bool
		if e.CharacterID != 0 {
			partyID, ok = d.trackers.Party.PartyByCharacter(e.CharacterID)
		}
		if !ok {
			partyID, ok = d.trackers.Party.PartyByEntity(e.EntityID)
		}
		if !ok {
			continue
		}
		out[partyID] = append(out[partyID], e.Name)
	}
	return out
}

// emitHeartbeat sends {client_id, version, region} to the stats service
// every heartbeat interval (spec.md §4.9). A returned error is logged and
// dropped; it never reaches the dispatch loop (spec.md §7).
func (d *Dispatcher) emitHeartbeat(ctx context.Context, g *errgroup.Group) {
	clientID, version, region := d.cfg.ClientID, d.cfg.Version, d.state.Region
	g.Go(func() error {
		if err := d.stats.Heartbeat(ctx, clientID, version, region); err != nil {
			d.log.Warn("heartbeat failed", "err", err)
		}
		return nil
	})
}

// persistedEncounter bundles the statistical snapshot with the cached
// remote stats and party roster for the persistence boundary (spec.md §1
// "persists completed encounters to durable storage"; schema is external).
type persistedEncounter struct {
	Snapshot encounter.Snapshot
	Stats    map[uint64]statsapi.CharacterStats
	Party    map[uint64][]string
}

// handleSave implements the save-request side of spec.md §4.9: "build the
// current party snapshot, fetch the stats snapshot, and persist."
func (d *Dispatcher) handleSave(ctx context.Context, g *errgroup.Group) {
	snap := d.state.BuildSnapshot()
	party := d.buildLivePartyNames()
	g.Go(func() error {
		d.persist(ctx, snap, party)
		return nil
	})
}

// finalize implements on_phase_transition's Finalized side effect (spec.md
// §4.7): fetch the stats-API snapshot and persist.
func (d *Dispatcher) finalize(ctx context.Context, g *errgroup.Group) {
	snap := d.state.BuildSnapshot()
	party := d.buildLivePartyNames()
	g.Go(func() error {
		d.persist(ctx, snap, party)
		return nil
	})
}

func (d *Dispatcher) persist(ctx context.Context, snap encounter.Snapshot, party map[uint64][]string) {
	stats := d.stats.GetStats(ctx)
	record := persistedEncounter{Snapshot: snap, Stats: stats, Party: party}
	if err := d.store.Persist(record); err != nil {
		d.log.Warn("persisting encounter failed", "err", err)
	}
}
