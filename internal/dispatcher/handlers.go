package dispatcher

import (
	"context"
	"fmt"

	"github.com/kestrelmeter/engine/internal/game/encounter"
	"github.com/kestrelmeter/engine/internal/model"
	"github.com/kestrelmeter/engine/internal/packet"
)

// dispatch routes one decoded packet to the trackers and EncounterState
// (spec.md §4.9, §6 "complete list"). A payload type assertion failure is
// treated as a decode failure (spec.md §7): logged upstream, packet
// dropped.
func (d *Dispatcher) dispatch(ctx context.Context, env packet.Envelope) error {
	switch env.Opcode {
	case packet.OpInitEnv:
		p, ok := env.Payload.(packet.InitEnvPacket)
		if !ok {
			return fmt.Errorf("InitEnv: unexpected payload type %T", env.Payload)
		}
		d.hardReset(p.LocalPlayerID)
		return nil

	case packet.OpInitPC:
		p, ok := env.Payload.(packet.PCPacket)
		if !ok {
			return fmt.Errorf("InitPC: unexpected payload type %T", env.Payload)
		}
		d.trackers.Entities.InitPC(p.EntityID, p.CharacterID, p.Name, p.ClassID, p.GearLevel, p.CurrentHP, p.MaxHP)
		d.onPlayerRegistered(ctx, p.EntityID, p.CharacterID, p.Name)
		return nil

	case packet.OpNewPC:
		p, ok := env.Payload.(packet.PCPacket)
		if !ok {
			return fmt.Errorf("NewPC: unexpected payload type %T", env.Payload)
		}
		d.trackers.Entities.NewPC(p.EntityID, p.CharacterID, p.Name, p.ClassID, p.GearLevel, p.CurrentHP, p.MaxHP)
		d.onPlayerRegistered(ctx, p.EntityID, p.CharacterID, p.Name)
		return nil

	case packet.OpMigrationExecute:
		p, ok := env.Payload.(packet.MigrationExecutePacket)
		if !ok {
			return fmt.Errorf("MigrationExecute: unexpected payload type %T", env.Payload)
		}
		d.trackers.Entities.MigrationExecute(p.LocalPlayerID, p.NewCharacterID)
		return nil

	case packet.OpNewNpc:
		p, ok := env.Payload.(packet.NewNpcPacket)
		if !ok {
			return fmt.Errorf("NewNpc: unexpected payload type %T", env.Payload)
		}
		e := d.trackers.Entities.NewNpc(p.EntityID, p.TypeID, p.Name, p.MaxHP, p.IsEsther)
		if e.Type == model.EntityBoss {
			// A boss sighting registers its aggregate so shield and stagger
			// updates have a record to land on before the first hit.
			d.state.EntityByName(e.Name, e.Type, e.ClassID)
		}
		if e.Type == model.EntityBoss && d.state.CurrentBossName == "" {
			d.state.CurrentBossName = e.Name
		}
		return nil

	case packet.OpNewNpcSummon:
		p, ok := env.Payload.(packet.NewNpcSummonPacket)
		if !ok {
			return fmt.Errorf("NewNpcSummon: unexpected payload type %T", env.Payload)
		}
		d.trackers.Entities.NewNpcSummon(p.EntityID, p.OwnerID, p.TypeID, p.Name, p.MaxHP)
		return nil

	case packet.OpNewProjectile:
		p, ok := env.Payload.(packet.NewProjectilePacket)
		if !ok {
			return fmt.Errorf("NewProjectile: unexpected payload type %T", env.Payload)
		}
		d.trackers.Entities.NewProjectile(p.EntityID, p.OwnerID, p.SkillID)
		d.trackers.Skill.LinkProjectile(p.EntityID, p.OwnerID, p.SkillID)
		return nil

	case packet.OpNewTrap:
		p, ok := env.Payload.(packet.NewTrapPacket)
		if !ok {
			return fmt.Errorf("NewTrap: unexpected payload type %T", env.Payload)
		}
		d.trackers.Entities.NewTrap(p.EntityID, p.OwnerID, p.SkillID)
		d.trackers.Skill.LinkProjectile(p.EntityID, p.OwnerID, p.SkillID)
		return nil

	case packet.OpRemoveObject:
		p, ok := env.Payload.(packet.RemoveObjectPacket)
		if !ok {
			return fmt.Errorf("RemoveObject: unexpected payload type %T", env.Payload)
		}
		d.removeObject(p.EntityID)
		return nil

	case packet.OpZoneObjectUnpublishNotify:
		p, ok := env.Payload.(packet.ZoneObjectUnpublishNotifyPacket)
		if !ok {
			return fmt.Errorf("ZoneObjectUnpublishNotify: unexpected payload type %T", env.Payload)
		}
		d.removeObject(p.EntityID)
		return nil

	case packet.OpSkillStartNotify:
		p, ok := env.Payload.(packet.SkillStartNotifyPacket)
		if !ok {
			return fmt.Errorf("SkillStartNotify: unexpected payload type %T", env.Payload)
		}
		d.trackers.Skill.RecordCast(p.SourceID, p.SkillID, p.Timestamp)
		d.trackers.Entities.GuessIsPlayer(p.SourceID, p.SkillID)
		return nil

	case packet.OpSkillCastNotify:
		p, ok := env.Payload.(packet.SkillCastNotifyPacket)
		if !ok {
			return fmt.Errorf("SkillCastNotify: unexpected payload type %T", env.Payload)
		}
		d.trackers.Skill.RecordCast(p.SourceID, p.SkillID, p.Timestamp)
		d.trackers.Entities.GuessIsPlayer(p.SourceID, p.SkillID)
		return nil

	case packet.OpSkillDamageNotify, packet.OpSkillDamageAbnormalMoveNotify:
		p, ok := env.Payload.(packet.SkillDamageNotifyPacket)
		if !ok {
			return fmt.Errorf("SkillDamageNotify: unexpected payload type %T", env.Payload)
		}
		d.handleSkillDamage(p)
		return nil

	case packet.OpPartyInfo:
		p, ok := env.Payload.(packet.PartyInfoPacket)
		if !ok {
			return fmt.Errorf("PartyInfo: unexpected payload type %T", env.Payload)
		}
		d.trackers.Entities.PartyInfo(p.Members, d.trackers.Party, p.RaidInstanceID, p.PartyID, d.names.Snapshot())
		for _, m := range p.Members {
			if m.Name != "" {
				d.names.Put(m.CharacterID, m.Name)
			}
		}
		return nil

	case packet.OpPartyLeaveResult:
		p, ok := env.Payload.(packet.PartyLeaveResultPacket)
		if !ok {
			return fmt.Errorf("PartyLeaveResult: unexpected payload type %T", env.Payload)
		}
		var entityID uint64
		if id, ok := d.trackers.IDs.EntityID(p.CharacterID); ok {
			entityID = id
		}
		d.trackers.Party.Remove(entityID, p.CharacterID)
		return nil

	case packet.OpPartyStatusEffectResultNotify:
		p, ok := env.Payload.(packet.PartyStatusEffectResultNotifyPacket)
		if !ok {
			return fmt.Errorf("PartyStatusEffectResultNotify: unexpected payload type %T", env.Payload)
		}
		d.trackers.Party.Add(p.RaidInstanceID, p.PartyID, 0, p.CharacterID)
		if entityID, ok := d.trackers.IDs.EntityID(p.CharacterID); ok {
			d.trackers.Party.BindEntity(entityID, p.CharacterID)
		}
		return nil

	case packet.OpStatusEffectAddNotify:
		p, ok := env.Payload.(packet.StatusEffectAddNotifyPacket)
		if !ok {
			return fmt.Errorf("StatusEffectAddNotify: unexpected payload type %T", env.Payload)
		}
		d.handleStatusEffectAdd(p.TargetID, p.Effect, model.TargetLocal)
		return nil

	case packet.OpPartyStatusEffectAddNotify:
		p, ok := env.Payload.(packet.PartyStatusEffectAddNotifyPacket)
		if !ok {
			return fmt.Errorf("PartyStatusEffectAddNotify: unexpected payload type %T", env.Payload)
		}
		d.handleStatusEffectAdd(p.CharacterID, p.Effect, model.TargetParty)
		return nil

	case packet.OpStatusEffectRemoveNotify:
		p, ok := env.Payload.(packet.StatusEffectRemoveNotifyPacket)
		if !ok {
			return fmt.Errorf("StatusEffectRemoveNotify: unexpected payload type %T", env.Payload)
		}
		d.trackers.Status.Remove(p.TargetID, p.EffectIDs, model.TargetLocal)
		return nil

	case packet.OpPartyStatusEffectRemoveNotify:
		p, ok := env.Payload.(packet.PartyStatusEffectRemoveNotifyPacket)
		if !ok {
			return fmt.Errorf("PartyStatusEffectRemoveNotify: unexpected payload type %T", env.Payload)
		}
		result := d.trackers.Status.Remove(p.CharacterID, p.EffectIDs, model.TargetParty)
		if result.LeftWorkshop {
			d.refreshStats(ctx, p.CharacterID)
		}
		return nil

	case packet.OpStatusEffectSyncDataNotify:
		p, ok := env.Payload.(packet.StatusEffectSyncDataNotifyPacket)
		if !ok {
			return fmt.Errorf("StatusEffectSyncDataNotify: unexpected payload type %T", env.Payload)
		}
		d.handleStatusEffectSync(p.InstanceID, p.CharacterID, p.ObjectID, p.Value)
		return nil

	case packet.OpTroopMemberUpdateMinNotify:
		p, ok := env.Payload.(packet.TroopMemberUpdateMinNotifyPacket)
		if !ok {
			return fmt.Errorf("TroopMemberUpdateMinNotify: unexpected payload type %T", env.Payload)
		}
		d.handleStatusEffectSync(p.InstanceID, p.CharacterID, 0, p.Value)
		return nil

	case packet.OpStatusEffectDurationNotify:
		p, ok := env.Payload.(packet.StatusEffectDurationNotifyPacket)
		if !ok {
			return fmt.Errorf("StatusEffectDurationNotify: unexpected payload type %T", env.Payload)
		}
		d.trackers.Status.UpdateStatusDuration(p.InstanceID, p.TargetID, p.ExpirationTick, p.TargetType)
		return nil

	case packet.OpTriggerBossBattleStatus:
		p, ok := env.Payload.(packet.TriggerBossBattleStatusPacket)
		if !ok {
			return fmt.Errorf("TriggerBossBattleStatus: unexpected payload type %T", env.Payload)
		}
		if d.state.OnTriggerBossBattleStatus(p.BossName) {
			d.state.CurrentBossName = p.BossName
		}
		return nil

	case packet.OpTriggerStartNotify:
		p, ok := env.Payload.(packet.TriggerStartNotifyPacket)
		if !ok {
			return fmt.Errorf("TriggerStartNotify: unexpected payload type %T", env.Payload)
		}
		d.state.OnTriggerStartNotify(p.Signal, d.clock())
		return nil

	case packet.OpRaidBegin:
		p, ok := env.Payload.(packet.RaidBeginPacket)
		if !ok {
			return fmt.Errorf("RaidBegin: unexpected payload type %T", env.Payload)
		}
		d.state.SetDifficultyFromRaidBegin(p.RaidID)
		return nil

	case packet.OpRaidBossKillNotify:
		d.state.OnRaidBossKillNotify(d.clock())
		return nil

	case packet.OpRaidResult:
		d.state.OnRaidResult(d.clock())
		d.pendingFinalize = true
		return nil

	case packet.OpZoneMemberLoadStatusNotify:
		p, ok := env.Payload.(packet.ZoneMemberLoadStatusNotifyPacket)
		if !ok {
			return fmt.Errorf("ZoneMemberLoadStatusNotify: unexpected payload type %T", env.Payload)
		}
		d.state.SetDifficultyFromZoneLevel(p.ZoneLevel, p.RaidDifficultyID, p.ZoneID)
		return nil

	case packet.OpCounterAttackNotify:
		p, ok := env.Payload.(packet.CounterAttackNotifyPacket)
		if !ok {
			return fmt.Errorf("CounterAttackNotify: unexpected payload type %T", env.Payload)
		}
		e := d.trackers.Entities.EnsurePlaceholder(p.EntityID)
		d.state.OnCounterattack(e)
		return nil

	case packet.OpDeathNotify:
		p, ok := env.Payload.(packet.DeathNotifyPacket)
		if !ok {
			return fmt.Errorf("DeathNotify: unexpected payload type %T", env.Payload)
		}
		e := d.trackers.Entities.EnsurePlaceholder(p.EntityID)
		d.state.OnDeath(e, p.Timestamp)
		return nil

	case packet.OpIdentityGaugeChangeNotify:
		p, ok := env.Payload.(packet.IdentityGaugeChangeNotifyPacket)
		if !ok {
			return fmt.Errorf("IdentityGaugeChangeNotify: unexpected payload type %T", env.Payload)
		}
		if e, ok := d.trackers.Entities.Get(p.ObjectID); ok {
			d.state.OnIdentityGain(e, p.Gauge1, p.Gauge2, p.Gauge3, d.clock())
			if d.control.detailsEnabled() {
				d.sink.Emit(packet.EventIdentityUpdate, packet.IdentityUpdatePayload{Gauge1: p.Gauge1, Gauge2: p.Gauge2, Gauge3: p.Gauge3})
			}
		}
		return nil

	case packet.OpIdentityStanceChangeNotify:
		p, ok := env.Payload.(packet.IdentityStanceChangeNotifyPacket)
		if !ok {
			return fmt.Errorf("IdentityStanceChangeNotify: unexpected payload type %T", env.Payload)
		}
		if e, ok := d.trackers.Entities.Get(p.EntityID); ok {
			e.Stance = p.Stance
		}
		return nil

	case packet.OpParalyzationStateNotify:
		p, ok := env.Payload.(packet.ParalyzationStateNotifyPacket)
		if !ok {
			return fmt.Errorf("ParalyzationStateNotify: unexpected payload type %T", env.Payload)
		}
		d.state.OnStaggerChange(p.StaggerCurrent, p.StaggerMax, d.clock())
		return nil

	case packet.OpEquipChangeNotify:
		p, ok := env.Payload.(packet.EquipChangeNotifyPacket)
		if !ok {
			return fmt.Errorf("EquipChangeNotify: unexpected payload type %T", env.Payload)
		}
		if e, ok := d.trackers.Entities.Get(p.EntityID); ok {
			e.GearLevel = p.GearLevel
		}
		return nil

	case packet.OpInitItem:
		p, ok := env.Payload.(packet.InitItemPacket)
		if !ok {
			return fmt.Errorf("InitItem: unexpected payload type %T", env.Payload)
		}
		if e, ok := d.trackers.Entities.Get(p.EntityID); ok {
			e.GearLevel = p.GearLevel
		}
		return nil

	default:
		return fmt.Errorf("unhandled opcode %s", env.Opcode)
	}
}

// removeObject tears down every tracker's record of a destroyed entity
// (spec.md §3 lifecycle, §4.2 "remove_local_object", §4.4 "pruned ... or
// the owning object").
func (d *Dispatcher) removeObject(entityID uint64) {
	d.trackers.Entities.RemoveObject(entityID)
	d.trackers.Status.RemoveLocalObject(entityID)
	d.trackers.Skill.PruneObject(entityID)
	delete(d.lastHitSource, entityID)
}

// onPlayerRegistered wires the id<->party lazy binding (spec.md §4.3) and
// kicks off an async stats-API sync once the zone's region is known
// (spec.md §4.8 "if valid_zone is set and state.region is known").
func (d *Dispatcher) onPlayerRegistered(ctx context.Context, entityID, characterID uint64, name string) {
	d.trackers.Party.BindEntity(entityID, characterID)
	if name != "" {
		d.names.Put(characterID, name)
	}
	if d.state.Region != "" {
		d.stats.Sync(ctx, characterID, name, d.state.Region)
	}
}

// refreshStats re-syncs one character's stats-API cache entry, used when a
// status effect removal signals "left_workshop" (spec.md §4.2).
func (d *Dispatcher) refreshStats(ctx context.Context, characterID uint64) {
	if d.state.Region == "" {
		return
	}
	name := ""
	if entityID, ok := d.trackers.IDs.EntityID(characterID); ok {
		if e, ok := d.trackers.Entities.Get(entityID); ok {
			name = e.Name
		}
	}
	d.stats.Sync(ctx, characterID, name, d.state.Region)
}

// handleStatusEffectAdd registers an effect. For a shield it feeds
// on_shield_applied when the shield's source is a known entity, and
// on_boss_shield when the shield lands on the current boss (spec.md §4.2,
// §4.7, §8 scenario 5).
func (d *Dispatcher) handleStatusEffectAdd(targetID uint64, effect model.StatusEffect, target model.TargetType) {
	d.trackers.Status.Register(effect, target)
	if effect.Type != model.EffectShield {
		return
	}

	if source, ok := d.trackers.Entities.Get(effect.SourceID); ok {
		d.state.OnShieldApplied(source, int64(effect.Value))
	}

	if d.isCurrentBoss(targetID, target) {
		d.state.OnBossShield(int64(effect.Value))
	}
}

// handleStatusEffectSync resolves and updates an effect's magnitude, then
// feeds the boss-shield-remaining/shield-absorbed bookkeeping when the
// synced effect is a Shield on the current boss (spec.md §4.2, §8
// scenario 5: "StatusEffectSyncDataNotify(value=400) ... on_shield_used
// invoked against the source of the shield breaker").
func (d *Dispatcher) handleStatusEffectSync(instanceID, characterID, objectID uint64, newValue float64) {
	effect, oldValue := d.trackers.Status.SyncStatusEffect(instanceID, characterID, objectID, newValue)
	if effect == nil || effect.Type != model.EffectShield {
		return
	}

	targetID := objectID
	target := model.TargetLocal
	if characterID != 0 {
		targetID = characterID
		target = model.TargetParty
	}
	if !d.isCurrentBoss(targetID, target) {
		return
	}

	d.state.OnBossShield(int64(newValue))
	if absorbed := oldValue - newValue; absorbed > 0 {
		breaker := d.lastHitSource[objectID]
		d.state.OnShieldUsed(breaker, int64(absorbed))
	}
}

// isCurrentBoss resolves a status-effect target (local entity_id or party
// character_id) to an entity and reports whether it is the current boss.
func (d *Dispatcher) isCurrentBoss(targetID uint64, target model.TargetType) bool {
	if d.state.CurrentBossName == "" {
		return false
	}
	var e *model.Entity
	if target == model.TargetParty {
		if entityID, ok := d.trackers.IDs.EntityID(targetID); ok {
			e, _ = d.trackers.Entities.Get(entityID)
		}
	} else {
		e, _ = d.trackers.Entities.Get(targetID)
	}
	return e != nil && e.Type == model.EntityBoss && e.Name == d.state.CurrentBossName
}

// handleSkillDamage implements spec.md §4.6: owner-chain attribution,
// projectile/trap cast back-dating, and status-effect stamping, one hit at
// a time (an AoE swing reports multiple hits sharing source/target).
func (d *Dispatcher) handleSkillDamage(p packet.SkillDamageNotifyPacket) {
	if p.SourceID == 0 {
		return // unknown owner: dropped (spec.md §4.6)
	}

	source := d.trackers.Entities.EnsurePlaceholder(p.SourceID)
	owner := d.trackers.Entities.GetSourceEntity(p.SourceID)
	target := d.trackers.Entities.EnsurePlaceholder(p.TargetID)

	ownerCharID, _ := d.trackers.IDs.CharacterID(owner.EntityID)
	onSource, onTarget := d.trackers.Status.GetStatusEffects(owner.EntityID, target.EntityID, ownerCharID)

	timestamp := p.Timestamp
	if source.Type.IsOwned() {
		if ts, ok := d.trackers.Skill.ProjectileTimestamp(source.EntityID); ok {
			timestamp = ts // back-date to the originating cast (spec.md §4.6 rule 5)
		}
	}

	for _, hit := range p.Hits {
		applied := d.state.ApplyDamage(encounterDamageInput(owner, source, target, hit, timestamp, onSource, onTarget))
		if applied {
			d.lastHitSource[target.EntityID] = owner
		}
	}
}

// encounterDamageInput adapts one decoded DamageHit into encounter.DamageInput.
func encounterDamageInput(owner, source, target *model.Entity, hit packet.DamageHit, timestamp int64, onSource, onTarget []model.StatusEffect) encounter.DamageInput {
	return encounter.DamageInput{
		Owner:           owner,
		Source:          source,
		Target:          target,
		SkillID:         hit.SkillID,
		SkillEffectID:   hit.SkillEffectID,
		Damage:          hit.Damage,
		Modifier:        hit.Modifier,
		TargetCurrentHP: hit.TargetCurrentHP,
		TargetMaxHP:     hit.TargetMaxHP,
		DamageAttribute: hit.DamageAttribute,
		DamageType:      hit.DamageType,
		TargetCount:     hit.TargetCount,
		Timestamp:       timestamp,
		StatusOnSource:  onSource,
		StatusOnTarget:  onTarget,
	}
}
