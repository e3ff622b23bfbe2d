// Package party tracks party membership keyed by raid/party instance
// (spec.md §4.3). Grounded on the teacher's party manager
// (_examples/udisondev-la2go/internal/game/party/manager.go) but adapted
// from a concurrent multi-writer live-party manager to this spec's
// single-writer membership tables: only the dispatcher goroutine calls
// Tracker, so no mutex is needed (SPEC_FULL.md §5).
package party

// Tracker maintains entity_id -> party_id, character_id -> party_id, and
// raid_instance_id -> {party_id} (spec.md §3, §4.3).
type Tracker struct {
	entityToParty map[uint64]uint64
	charToParty   map[uint64]uint64
	raidToParties map[uint64]map[uint64]bool
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		entityToParty: make(map[uint64]uint64),
		charToParty:   make(map[uint64]uint64),
		raidToParties: make(map[uint64]map[uint64]bool),
	}
}

// Add records that entityID (0 if not yet known) and characterID belong to
// partyID within raidInstanceID. When entityID is 0 the entity-id side is
// populated lazily the first time it becomes known (spec.md §4.3).
func (t *Tracker) Add(raidInstanceID, partyID, entityID, characterID uint64) {
	if entityID != 0 {
		t.entityToParty[entityID] = partyID
	}
	if characterID != 0 {
		t.charToParty[characterID] = partyID
	}
	if t.raidToParties[raidInstanceID] == nil {
		t.raidToParties[raidInstanceID] = make(map[uint64]bool)
	}
	t.raidToParties[raidInstanceID][partyID] = true
}

// BindEntity populates the entity-id side lazily once it becomes known for
// a character already tracked by party_id (spec.md §4.3).
func (t *Tracker) BindEntity(entityID, characterID uint64) {
	if partyID, ok := t.charToParty[characterID]; ok {
		t.entityToParty[entityID] = partyID
	}
}

// Remove clears both mappings for one participant atomically (spec.md §3:
// "when a member leaves, both mappings for that participant are cleared
// atomically").
func (t *Tracker) Remove(entityID, characterID uint64) {
	delete(t.entityToParty, entityID)
	delete(t.charToParty, characterID)
}

// PartyByEntity resolves a party_id from an entity_id.
func (t *Tracker) PartyByEntity(entityID uint64) (uint64, bool) {
	id, ok := t.entityToParty[entityID]
	return id, ok
}

// PartyByCharacter resolves a party_id from a character_id.
func (t *Tracker) PartyByCharacter(characterID uint64) (uint64, bool) {
	id, ok := t.charToParty[characterID]
	return id, ok
}

// Parties returns the set of party ids registered for a raid instance.
func (t *Tracker) Parties(raidInstanceID uint64) []uint64 {
	parties := t.raidToParties[raidInstanceID]
	out := make([]uint64, 0, len(parties))
	for id := range parties {
		out = append(out, id)
	}
	return out
}

// ResetPartyMappings clears all membership state (InitEnv or environment
// reset — spec.md §3, §4.3). A single member leaving goes through Remove.
func (t *Tracker) ResetPartyMappings() {
	t.entityToParty = make(map[uint64]uint64)
	t.charToParty = make(map[uint64]uint64)
	t.raidToParties = make(map[uint64]map[uint64]bool)
}
