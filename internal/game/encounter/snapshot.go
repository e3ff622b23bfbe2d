package encounter

import "github.com/kestrelmeter/engine/internal/model"

// Snapshot is the cloned, read-only view handed to the presentation layer
// (spec.md §3 "Snapshot", §4.9).
type Snapshot struct {
	StartedAt       int64
	EndedAt         int64
	Zone            string
	Region          string
	Difficulty      model.Difficulty
	CurrentBossName string
	Phase           model.Phase
	BossOnlyDamage  bool
	Entities        map[string]EntityStats

	// PartyNames is the cached party-index -> member-names mapping, mirrored
	// from State.PartySnapshot (spec.md §3 "party_info snapshot").
	PartyNames map[uint64][]string
}

// includeInSnapshot implements the snapshot filter (spec.md §4.9, §8
// invariant 6): only entities with recorded damage and a non-zero
// class_id (Players), plus Bosses and Esthers.
func includeInSnapshot(stats *EntityStats) bool {
	if stats.Type == model.EntityBoss || stats.Type == model.EntityEsther {
		return true
	}
	return stats.DamageDealt > 0 && stats.ClassID != 0
}

// BuildSnapshot clones the current state into a Snapshot, applying the
// emission filter. The clone is shallow on slice/map fields of each
// EntityStats — callers must not mutate them.
func (s *State) BuildSnapshot() Snapshot {
	entities := make(map[string]EntityStats, len(s.Entities))
	for name, stats := range s.Entities {
		if !includeInSnapshot(stats) {
			continue
		}
		entities[name] = *stats
	}
	partyNames := make(map[uint64][]string, len(s.PartySnapshot))
	for id, members := range s.PartySnapshot {
		partyNames[id] = append([]string(nil), members...)
	}

	return Snapshot{
		StartedAt:       s.FightStartedAt,
		EndedAt:         s.EndedAt,
		Zone:            s.Zone,
		Region:          s.Region,
		Difficulty:      s.Difficulty,
		CurrentBossName: s.CurrentBossName,
		Phase:           s.Phase,
		BossOnlyDamage:  s.BossOnlyDamage,
		Entities:        entities,
		PartyNames:      partyNames,
	}
}

// PartyNames resolves party-id -> member-name list for a party-update
// event, using the live membership map when not frozen, or the cached
// snapshot once every party has stabilized at 4 members (spec.md §8
// scenario 6).
func (s *State) PartyNames(live map[uint64][]string) map[uint64][]string {
	if s.partySnapshotFrozen {
		return s.PartySnapshot
	}
	if partiesStabilized(live) {
		s.PartySnapshot = live
		s.partySnapshotFrozen = true
	}
	return live
}

// partiesStabilized reports whether every party in live has exactly 4
// members (spec.md §4.9: "every party has 4 members").
func partiesStabilized(live map[uint64][]string) bool {
	if len(live) == 0 {
		return false
	}
	for _, members := range live {
		if len(members) != 4 {
			return false
		}
	}
	return true
}
