// Package entity is the authoritative catalog of live entities: players,
// NPCs, bosses, Esthers, and the transients (projectiles, traps, summons)
// spawned against them (spec.md §4.1). Grounded on the teacher's
// accessor-method entity type
// (_examples/udisondev-la2go/internal/model/worldobject.go), generalized
// from a concurrent live-world object to this spec's single-writer
// catalog: only the dispatcher goroutine calls Tracker.
package entity

import (
	"github.com/kestrelmeter/engine/internal/game/idtrack"
	"github.com/kestrelmeter/engine/internal/game/party"
	"github.com/kestrelmeter/engine/internal/model"
	"github.com/kestrelmeter/engine/internal/packet"
)

// maxOwnerChainHops bounds the owner-chain walk (spec.md §8 invariant 2:
// "terminates in ≤ 4 hops").
const maxOwnerChainHops = 4

// Tracker is the entity catalog keyed by entity_id.
type Tracker struct {
	entities map[uint64]*model.Entity
	ids      *idtrack.Tracker
	localID  uint64 // the local player's current entity_id
}

// New returns an empty Tracker backed by the given IdTracker (spec.md §2:
// EntityTracker consults IdTracker).
func New(ids *idtrack.Tracker) *Tracker {
	return &Tracker{
		entities: make(map[uint64]*model.Entity),
		ids:      ids,
	}
}

// Get returns the catalog entry for entityID, if known.
func (t *Tracker) Get(entityID uint64) (*model.Entity, bool) {
	e, ok := t.entities[entityID]
	return e, ok
}

// All returns every tracked entity. Callers must not retain the slice
// across a reset.
func (t *Tracker) All() []*model.Entity {
	out := make([]*model.Entity, 0, len(t.entities))
	for _, e := range t.entities {
		out = append(out, e)
	}
	return out
}

// InitEnv remaps the local player's entity_id to the id reported by the
// packet, clears stale references, and purges every other entity
// (spec.md §4.1).
func (t *Tracker) InitEnv(newLocalID uint64) {
	var local *model.Entity
	if t.localID != 0 {
		local = t.entities[t.localID]
	}
	t.entities = make(map[uint64]*model.Entity)
	t.ids.Reset()
	if local != nil {
		local.EntityID = newLocalID
		t.entities[newLocalID] = local
		if local.CharacterID != 0 {
			t.ids.Set(newLocalID, local.CharacterID)
		}
	}
	t.localID = newLocalID
}

// InitPC / NewPC register a Player (spec.md §4.1).
func (t *Tracker) InitPC(entityID, characterID uint64, name string, classID int32, gearLevel float64, currentHP, maxHP int64) *model.Entity {
	e := &model.Entity{
		EntityID:    entityID,
		CharacterID: characterID,
		Name:        name,
		Type:        model.EntityPlayer,
		ClassID:     classID,
		GearLevel:   gearLevel,
		CurrentHP:   currentHP,
		MaxHP:       maxHP,
	}
	e.Lock()
	t.entities[entityID] = e
	t.ids.Set(entityID, characterID)
	if t.localID == 0 {
		t.localID = entityID
	}
	return e
}

// NewPC is an alias for InitPC: both packets register a Player the same
// way (spec.md §4.1).
func (t *Tracker) NewPC(entityID, characterID uint64, name string, classID int32, gearLevel float64, currentHP, maxHP int64) *model.Entity {
	return t.InitPC(entityID, characterID, name, classID, gearLevel, currentHP, maxHP)
}

// MigrationExecute updates the local player's character_id after a server
// migration, preserving the entity record (spec.md §4.1).
func (t *Tracker) MigrationExecute(localPlayerID, newCharacterID uint64) {
	e, ok := t.entities[localPlayerID]
	if !ok {
		e = &model.Entity{EntityID: localPlayerID, Type: model.EntityPlayer}
		e.Lock()
		t.entities[localPlayerID] = e
	}
	e.CharacterID = newCharacterID
	t.ids.Set(localPlayerID, newCharacterID)
	t.localID = localPlayerID
}

// NewNpc registers an NPC or Boss, classified by the boss-or-gate
// predicate over typeID (spec.md §4.1).
func (t *Tracker) NewNpc(entityID uint64, typeID int32, name string, maxHP int64, isEsther bool) *model.Entity {
	entityType := model.EntityNpc
	switch {
	case isEsther:
		entityType = model.EntityEsther
	case IsBossType(typeID):
		entityType = model.EntityBoss
	}
	e := &model.Entity{
		EntityID: entityID,
		Name:     name,
		Type:     entityType,
		MaxHP:    maxHP,
		CurrentHP: maxHP,
	}
	t.entities[entityID] = e
	return e
}

// NewNpcSummon registers a summon with its controlling owner (spec.md §4.1).
func (t *Tracker) NewNpcSummon(entityID, ownerID uint64, typeID int32, name string, maxHP int64) *model.Entity {
	e := &model.Entity{
		EntityID:  entityID,
		Name:      name,
		Type:      model.EntitySummon,
		MaxHP:     maxHP,
		CurrentHP: maxHP,
		OwnerID:   ownerID,
	}
	t.entities[entityID] = e
	return e
}

// NewProjectile / NewTrap register a transient with an owner and spawning
// skill (spec.md §4.1).
func (t *Tracker) NewProjectile(entityID, ownerID uint64, skillID uint32) *model.Entity {
	e := &model.Entity{EntityID: entityID, Type: model.EntityProjectile, OwnerID: ownerID, SkillID: skillID}
	t.entities[entityID] = e
	return e
}

func (t *Tracker) NewTrap(entityID, ownerID uint64, skillID uint32) *model.Entity {
	e := &model.Entity{EntityID: entityID, Type: model.EntityTrap, OwnerID: ownerID, SkillID: skillID}
	t.entities[entityID] = e
	return e
}

// EnsurePlaceholder returns the catalog entry for entityID, creating an
// Unknown-type placeholder when it is not yet known (spec.md §7: "Missing
// cross-reference ... create a placeholder entity of Unknown type rather
// than dropping the event"). A subsequent identifying packet replaces the
// placeholder with a full record via the normal New*/Init* calls.
func (t *Tracker) EnsurePlaceholder(entityID uint64) *model.Entity {
	if e, ok := t.entities[entityID]; ok {
		return e
	}
	e := &model.Entity{EntityID: entityID, Type: model.EntityUnknown}
	t.entities[entityID] = e
	return e
}

// RemoveObject / ZoneObjectUnpublish destroy an entity (spec.md §3 lifecycle).
func (t *Tracker) RemoveObject(entityID uint64) {
	delete(t.entities, entityID)
	t.ids.Remove(entityID)
}

// GetSourceEntity resolves id to the attributable actor: if id names a
// Projectile/Trap/Summon, walk owner_id until a Player or non-owned NPC is
// reached, bounded to maxOwnerChainHops with short-cycle detection
// (spec.md §4.1, §8 invariant 2). A chain that cannot resolve to a known
// owner returns the transient itself (spec.md §4.1 "Failure").
func (t *Tracker) GetSourceEntity(id uint64) *model.Entity {
	visited := make(map[uint64]bool, maxOwnerChainHops)
	current, ok := t.entities[id]
	if !ok {
		return nil
	}
	start := current
	for hops := 0; hops < maxOwnerChainHops; hops++ {
		if !current.Type.IsOwned() {
			return current
		}
		if visited[current.EntityID] {
			return current // short-cycle detected; return wherever we are
		}
		visited[current.EntityID] = true

		owner, ok := t.entities[current.OwnerID]
		if !ok {
			return current // unresolved owner; attribute to the transient itself
		}
		current = owner
	}
	if current.Type.IsOwned() {
		return start
	}
	return current
}

// skillIDPlayerRangeStart/End bound the skill-id space reserved for player
// casts (catalog-dependent; supplied by the external skill catalog in a
// real deployment). Used only by GuessIsPlayer's reclassification heuristic.
const (
	skillIDPlayerRangeStart = 10000
	skillIDPlayerRangeEnd   = 99999
)

func skillIDInPlayerRange(skillID uint32) bool {
	return skillID >= skillIDPlayerRangeStart && skillID <= skillIDPlayerRangeEnd
}

// GuessIsPlayer reclassifies an entity whose type is still Unknown or Npc
// as Player when a cast packet arrives for a skill in the player range.
// The first successful reclassification locks the type; later packets do
// not downgrade it (spec.md §4.1).
func (t *Tracker) GuessIsPlayer(entityID uint64, skillID uint32) {
	e, ok := t.entities[entityID]
	if !ok || e.Locked() {
		return
	}
	if e.Type != model.EntityUnknown && e.Type != model.EntityNpc {
		return
	}
	if !skillIDInPlayerRange(skillID) {
		return
	}
	e.Type = model.EntityPlayer
	e.Lock()
}

// IsBossType reports whether a catalog subtype id classifies as a Boss or
// raid gate (spec.md §4.1 "boss-or-gate predicate"). The id set here is a
// placeholder for the external NPC catalog's boss/gate flag.
func IsBossType(typeID int32) bool {
	return typeID >= 60000 && typeID < 70000
}

// PartyInfo records party membership for every roster entry and ensures a
// catalog slot exists for each entry whose entity_id is given or already
// known through the id map, updating display names from localPlayersCache
// when available (spec.md §4.1). An entry whose entity_id is not known gets
// no catalog slot; only its party membership by character_id is recorded.
func (t *Tracker) PartyInfo(members []packet.PartyMember, partyTracker *party.Tracker, raidInstanceID, partyID uint64, localPlayersCache map[uint64]string) {
	for _, m := range members {
		partyTracker.Add(raidInstanceID, partyID, m.EntityID, m.CharacterID)

		entityID := m.EntityID
		if entityID == 0 {
			if known, ok := t.ids.EntityID(m.CharacterID); ok {
				entityID = known
			}
		}

		name := m.Name
		if name == "" && localPlayersCache != nil {
			if cached, ok := localPlayersCache[m.CharacterID]; ok {
				name = cached
			}
		}

		if entityID == 0 {
			continue // no known entity_id yet; membership alone was recorded above
		}

		e, ok := t.entities[entityID]
		if !ok {
			e = &model.Entity{EntityID: entityID, CharacterID: m.CharacterID, Type: model.EntityPlayer, Name: name}
			e.Lock()
			t.entities[entityID] = e
			t.ids.Set(entityID, m.CharacterID)
			continue
		}
		if name != "" {
			e.Name = name
		}
		if e.CharacterID == 0 {
			e.CharacterID = m.CharacterID
			t.ids.Set(entityID, m.CharacterID)
		}
	}
}
