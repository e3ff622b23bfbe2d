// Package status registers and resolves StatusEffect instances across the
// Local (entity_id) and Party (character_id) registries (spec.md §3, §4.2).
// Single-writer: only the dispatcher goroutine calls Tracker.
package status

import "github.com/kestrelmeter/engine/internal/model"

// categoryLeftWorkshop is the effect category whose expiry signals that a
// character needs a fresh stats refresh (spec.md §4.2). Value chosen to
// match the original parser's workshop-buff category constant.
const categoryLeftWorkshop int32 = 101

// Tracker holds the two parallel status-effect registries.
type Tracker struct {
	local map[uint64][]model.StatusEffect // keyed by entity_id
	party map[uint64][]model.StatusEffect // keyed by character_id
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		local: make(map[uint64][]model.StatusEffect),
		party: make(map[uint64][]model.StatusEffect),
	}
}

func registryFor(t *Tracker, target model.TargetType) map[uint64][]model.StatusEffect {
	if target == model.TargetParty {
		return t.party
	}
	return t.local
}

// Register inserts effect into the registry selected by target_type,
// replacing any existing effect with the same instance id (spec.md §4.2).
func (t *Tracker) Register(effect model.StatusEffect, target model.TargetType) {
	registry := registryFor(t, target)
	list := registry[effect.TargetID]
	for i, existing := range list {
		if existing.InstanceID == effect.InstanceID {
			list[i] = effect
			registry[effect.TargetID] = list
			return
		}
	}
	registry[effect.TargetID] = append(list, effect)
}

// RemoveResult reports what Remove found, for the boss-shield and
// stats-refresh bookkeeping in EncounterState (spec.md §4.2).
type RemoveResult struct {
	Removed      []model.StatusEffect
	IsShield     bool
	LeftWorkshop bool
}

// Remove deletes the named effect ids from targetID's registry.
func (t *Tracker) Remove(targetID uint64, effectIDs []uint64, target model.TargetType) RemoveResult {
	registry := registryFor(t, target)
	list := registry[targetID]
	if len(list) == 0 {
		return RemoveResult{}
	}

	wanted := make(map[uint64]bool, len(effectIDs))
	for _, id := range effectIDs {
		wanted[id] = true
	}

	var result RemoveResult
	kept := list[:0:0]
	for _, effect := range list {
		if wanted[effect.InstanceID] {
			result.Removed = append(result.Removed, effect)
			if effect.Type == model.EffectShield {
				result.IsShield = true
			}
			if effect.Category == categoryLeftWorkshop {
				result.LeftWorkshop = true
			}
			continue
		}
		kept = append(kept, effect)
	}
	if len(kept) == 0 {
		delete(registry, targetID)
	} else {
		registry[targetID] = kept
	}
	return result
}

// SyncStatusEffect locates an effect across both registries — Party first
// when characterID is known, else Local by objectID — and applies
// newValue, returning the updated effect and its previous value. A missing
// effect returns (nil, 0) (spec.md §4.2).
func (t *Tracker) SyncStatusEffect(instanceID, characterID, objectID uint64, newValue float64) (*model.StatusEffect, float64) {
	if characterID != 0 {
		if list := t.party[characterID]; list != nil {
			for i := range list {
				if list[i].InstanceID == instanceID {
					old := list[i].Value
					list[i].Value = newValue
					return &list[i], old
				}
			}
		}
	}
	if list := t.local[objectID]; list != nil {
		for i := range list {
			if list[i].InstanceID == instanceID {
				old := list[i].Value
				list[i].Value = newValue
				return &list[i], old
			}
		}
	}
	return nil, 0
}

// UpdateStatusDuration idempotently refreshes an effect's expiration tick
// (spec.md §4.2).
func (t *Tracker) UpdateStatusDuration(instanceID, targetID uint64, expirationTick int64, target model.TargetType) {
	registry := registryFor(t, target)
	list := registry[targetID]
	for i := range list {
		if list[i].InstanceID == instanceID {
			list[i].ExpirationTick = expirationTick
			return
		}
	}
}

// GetStatusEffects returns the effects attached to owner (source) and to
// target, for stamping onto a damage event (spec.md §4.2). Party effects
// on the source are merged with its Local effects, deduplicated by
// effect_instance_id with Local winning ties.
func (t *Tracker) GetStatusEffects(ownerEntityID, targetEntityID, ownerCharacterID uint64) (onSource, onTarget []model.StatusEffect) {
	onSource = t.mergedSourceEffects(ownerEntityID, ownerCharacterID)
	onTarget = append([]model.StatusEffect(nil), t.local[targetEntityID]...)
	return onSource, onTarget
}

func (t *Tracker) mergedSourceEffects(entityID, characterID uint64) []model.StatusEffect {
	seen := make(map[uint64]bool)
	merged := make([]model.StatusEffect, 0, len(t.local[entityID]))
	for _, e := range t.local[entityID] {
		merged = append(merged, e)
		seen[e.InstanceID] = true
	}
	if characterID != 0 {
		for _, e := range t.party[characterID] {
			if seen[e.InstanceID] {
				continue
			}
			merged = append(merged, e)
			seen[e.InstanceID] = true
		}
	}
	return merged
}

// RemoveLocalObject purges all Local effects indexed to a removed entity
// (spec.md §4.2).
func (t *Tracker) RemoveLocalObject(entityID uint64) {
	delete(t.local, entityID)
}
