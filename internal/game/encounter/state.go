// Package encounter aggregates per-entity damage/healing/identity/stagger
// statistics, runs the encounter lifecycle state machine, and assembles
// the snapshots handed to the presentation layer (spec.md §3, §4.5-§4.7).
// Grounded on the teacher's per-cast damage-formula style
// (_examples/udisondev-la2go/internal/game/combat/damage.go) and its
// aggregate-owner model types. Single-writer: only the dispatcher
// goroutine calls State.
package encounter

import "github.com/kestrelmeter/engine/internal/model"

// cooldownMillis is the raid-end damage-suppression window (spec.md §4.5).
const cooldownMillis = 10_000

// skillHitHistoryCap bounds the per-skill hit timeline so a long session
// cannot grow it unboundedly (SPEC_FULL.md §9 supplement 2).
const skillHitHistoryCap = 2000

// SkillHit is one recorded hit in a skill's timeline.
type SkillHit struct {
	Timestamp int64
	Damage    int64
	Crit      bool
}

// SkillKey identifies a (skill_id, skill_effect_id) subtotal bucket
// (spec.md §4.6).
type SkillKey struct {
	SkillID       uint32
	SkillEffectID uint32
}

// SkillStats is the per-skill subtotal for one entity.
type SkillStats struct {
	Damage     int64
	CritDamage int64
	Hits       int64
	Crits      int64
	HitLog     []SkillHit
}

func (s *SkillStats) recordHit(hit SkillHit) {
	s.Hits++
	s.Damage += hit.Damage
	if hit.Crit {
		s.Crits++
		s.CritDamage += hit.Damage
	}
	s.HitLog = append(s.HitLog, hit)
	if len(s.HitLog) > skillHitHistoryCap {
		s.HitLog = s.HitLog[len(s.HitLog)-skillHitHistoryCap:]
	}
}

// EntityStats is the statistical aggregate for one entity, keyed by name
// in State.Entities (spec.md §3).
type EntityStats struct {
	Name    string
	Type    model.EntityType
	ClassID int32

	DamageDealt int64
	DamageTaken int64
	HealDone    int64

	HitCount           int64
	CritCount          int64
	BackAttackCount    int64
	FrontAttackCount   int64
	MultiHitCount      int64
	AreaOfEffectCount  int64
	CritDamage         int64

	// DiagnosticDamage accumulates hits excluded from headline totals by
	// the boss-only-damage filter (spec.md §4.6 rule 1).
	DiagnosticDamage int64

	Skills map[SkillKey]*SkillStats

	// DPSBuckets maps seconds-since-fight_start to damage dealt in that
	// second (spec.md §4.6 rule 3).
	DPSBuckets map[int64]int64

	IdentityGauge1, IdentityGauge2, IdentityGauge3 float64
	IdentityHistory                                []IdentitySample

	StaggerHistory []StaggerSample // populated only for the current boss

	ShieldGiven    int64 // sum of shield value contributed by this entity
	ShieldRemaining int64 // remaining, for Boss entities

	Dead          bool
	DeathAt       int64
	DeathCount    int
	Counterattacks int64
}

// IdentitySample / StaggerSample back on_identity_gain / on_stagger_change
// (spec.md §4.7, SPEC_FULL.md §3).
type IdentitySample struct {
	Timestamp                      int64
	Gauge1, Gauge2, Gauge3          float64
}
type StaggerSample struct {
	Timestamp      int64
	Current, Max   int64
}

func newEntityStats(name string, entityType model.EntityType, classID int32) *EntityStats {
	return &EntityStats{
		Name:       name,
		Type:       entityType,
		ClassID:    classID,
		Skills:     make(map[SkillKey]*SkillStats),
		DPSBuckets: make(map[int64]int64),
	}
}

func (s *EntityStats) skill(key SkillKey) *SkillStats {
	st, ok := s.Skills[key]
	if !ok {
		st = &SkillStats{}
		s.Skills[key] = st
	}
	return st
}

// State is the aggregated, per-encounter statistical model (spec.md §3).
type State struct {
	StartedAt int64
	EndedAt   int64
	Zone      string
	Region    string
	Difficulty model.Difficulty

	Entities        map[string]*EntityStats
	CurrentBossName string

	Phase           model.Phase
	FightStarted    bool
	FightStartedAt  int64
	Resetting       bool
	Saved           bool
	BossDeadUpdate  bool

	BossOnlyDamage bool

	// PartyFrozen is set when the encounter enters Cleared/Wiped (spec.md
	// §4.5 "freeze party"); while true, party-update emission is skipped.
	PartyFrozen bool

	// CooldownUntil is the timestamp (ms) below which damage packets are
	// ignored (spec.md §4.5 raid-end cooldown); 0 means no active cooldown.
	CooldownUntil int64

	// PartySnapshot maps party index to member names, cached once every
	// party has stabilized at 4 members (spec.md §4.9, §8 scenario 6).
	PartySnapshot       map[uint64][]string
	partySnapshotFrozen bool

	// difficultyLocked marks that a difficulty value has already been set,
	// by RaidBegin or by ZoneMemberLoadStatusNotify (spec.md §6 "a
	// difficulty is already set").
	difficultyLocked bool
}

// New returns a fresh, Idle encounter state.
func New() *State {
	return &State{
		Entities:      make(map[string]*EntityStats),
		PartySnapshot: make(map[uint64][]string),
	}
}

// Reset returns the state to Idle, clearing all aggregates (spec.md §4.5
// "InitEnv -> Idle: hard reset zone context").
func (s *State) Reset() {
	*s = *New()
}

// EntityByName returns (creating if absent) the aggregate for name.
func (s *State) EntityByName(name string, entityType model.EntityType, classID int32) *EntityStats {
	stats, ok := s.Entities[name]
	if !ok {
		stats = newEntityStats(name, entityType, classID)
		s.Entities[name] = stats
		return stats
	}
	// A later sighting of a reclassified entity (e.g. guess_is_player)
	// upgrades type/classID in place without losing accumulated stats.
	if entityType != model.EntityUnknown {
		stats.Type = entityType
	}
	if classID != 0 {
		stats.ClassID = classID
	}
	return stats
}

// InCooldown reports whether timestamp falls within the active raid-end
// cooldown window (spec.md §4.5, §8 invariant 7).
func (s *State) InCooldown(timestamp int64) bool {
	return s.CooldownUntil != 0 && timestamp < s.CooldownUntil
}

// EnterFight marks the encounter's first damage/boss sighting (spec.md §4.5
// "Idle -> InFight").
func (s *State) EnterFight(timestamp int64) {
	if s.FightStarted {
		return
	}
	s.FightStarted = true
	s.FightStartedAt = timestamp
	s.Phase = model.PhaseInFight
}

// SetDifficultyFromRaidBegin applies the RaidBegin raid_id -> Difficulty
// table (spec.md §6); always authoritative (first write for a session).
func (s *State) SetDifficultyFromRaidBegin(raidID int32) {
	s.Difficulty = model.DifficultyFromRaidID(raidID)
	s.difficultyLocked = true
}

// SetDifficultyFromZoneLevel applies the ZoneMemberLoadStatusNotify
// zone_level -> Difficulty table, honoring the preserved Open-Question-(c)
// guard: a later notification is ignored when raidDifficultyID >= zoneID
// and a difficulty is already set (spec.md §6; SPEC_FULL.md §9 supplement 5
// — the two ids are deliberately from different spaces; this is a known
// latent quirk in the upstream protocol, preserved rather than "fixed").
func (s *State) SetDifficultyFromZoneLevel(zoneLevel, raidDifficultyID, zoneID int32) {
	if s.difficultyLocked && raidDifficultyID >= zoneID {
		return
	}
	s.Difficulty = model.DifficultyFromZoneLevel(zoneLevel)
	s.difficultyLocked = true
}
