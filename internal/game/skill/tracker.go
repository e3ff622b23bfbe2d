// Package skill records per-cast timestamps and projects them onto the
// projectiles/traps a cast spawns, so damage dealt by a transient can be
// back-dated to the cast that created it (spec.md §3, §4.4). Grounded on
// the teacher's cast-lifecycle bookkeeping
// (_examples/udisondev-la2go/internal/game/skill/cast_manager.go).
// Single-writer: only the dispatcher goroutine calls Tracker.
package skill

type castKey struct {
	entityID uint64
	skillID  uint32
}

// Tracker maps (caster_entity_id, skill_id) to the most recent cast
// timestamp, and projectile_id/trap_object_id to that same timestamp.
type Tracker struct {
	castTimestamps      map[castKey]int64
	projectileTimestamp map[uint64]int64
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		castTimestamps:      make(map[castKey]int64),
		projectileTimestamp: make(map[uint64]int64),
	}
}

// RecordCast writes the cast-start timestamp for (entityID, skillID)
// (SkillStartNotify/SkillCastNotify, spec.md §4.4).
func (t *Tracker) RecordCast(entityID uint64, skillID uint32, timestamp int64) {
	t.castTimestamps[castKey{entityID, skillID}] = timestamp
}

// CastTimestamp returns the most recent cast-start timestamp for
// (entityID, skillID), if any.
func (t *Tracker) CastTimestamp(entityID uint64, skillID uint32) (int64, bool) {
	ts, ok := t.castTimestamps[castKey{entityID, skillID}]
	return ts, ok
}

// LinkProjectile copies the (entityID, skillID) cast timestamp onto
// projectileID, so the damage handler can back-date hits from that
// transient (spec.md §4.4). A no-op when the cast is unknown.
func (t *Tracker) LinkProjectile(projectileID, entityID uint64, skillID uint32) {
	if ts, ok := t.CastTimestamp(entityID, skillID); ok {
		t.projectileTimestamp[projectileID] = ts
	}
}

// ProjectileTimestamp resolves a projectile/trap id back to its originating
// cast timestamp.
func (t *Tracker) ProjectileTimestamp(projectileID uint64) (int64, bool) {
	ts, ok := t.projectileTimestamp[projectileID]
	return ts, ok
}

// PruneObject drops the projectile/trap timestamp entry for a removed
// object (spec.md §3: "pruned with the encounter or the owning object").
func (t *Tracker) PruneObject(projectileID uint64) {
	delete(t.projectileTimestamp, projectileID)
}

// Reset clears all cast and projectile bookkeeping (encounter reset).
func (t *Tracker) Reset() {
	t.castTimestamps = make(map[castKey]int64)
	t.projectileTimestamp = make(map[uint64]int64)
}
