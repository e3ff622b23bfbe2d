package packet

import "github.com/kestrelmeter/engine/internal/model"

// StatPair is one named base-stat value carried by InitPC/NewPC (spec.md §4.1).
type StatPair struct {
	Name  string
	Value int64
}

// PCPacket registers a Player (InitPC and NewPC share this shape, spec.md §4.1).
type PCPacket struct {
	EntityID    uint64
	CharacterID uint64
	Name        string
	ClassID     int32
	GearLevel   float64
	CurrentHP   int64
	MaxHP       int64
	Stats       []StatPair
}

// InitEnvPacket remaps the local player's entity_id on zone entry (spec.md §4.1).
type InitEnvPacket struct {
	LocalPlayerID uint64
}

// MigrationExecutePacket updates the local player's character_id after a
// server migration, preserving the entity record (spec.md §4.1).
type MigrationExecutePacket struct {
	LocalPlayerID  uint64
	NewCharacterID uint64
}

// NewNpcPacket registers an NPC or Boss (spec.md §4.1). TypeID is the raw
// catalog subtype the boss-or-gate predicate classifies.
type NewNpcPacket struct {
	EntityID uint64
	TypeID   int32
	Name     string
	MaxHP    int64
	IsEsther bool
}

// NewNpcSummonPacket registers a summon with a controlling owner.
type NewNpcSummonPacket struct {
	EntityID uint64
	OwnerID  uint64
	TypeID   int32
	Name     string
	MaxHP    int64
}

// NewProjectilePacket registers a transient with an owner and spawning skill.
type NewProjectilePacket struct {
	EntityID uint64
	OwnerID  uint64
	SkillID  uint32
}

// NewTrapPacket registers a transient with an owner and spawning skill.
type NewTrapPacket struct {
	EntityID uint64
	OwnerID  uint64
	SkillID  uint32
}

// RemoveObjectPacket / ZoneObjectUnpublishNotifyPacket destroy an entity.
type RemoveObjectPacket struct{ EntityID uint64 }
type ZoneObjectUnpublishNotifyPacket struct{ EntityID uint64 }

// SkillStartNotifyPacket / SkillCastNotifyPacket write the cast timeline
// entry (spec.md §3, §4.4).
type SkillStartNotifyPacket struct {
	SourceID  uint64
	SkillID   uint32
	Timestamp int64
}
type SkillCastNotifyPacket struct {
	SourceID  uint64
	SkillID   uint32
	Timestamp int64
}

// DamageHit is one attributable hit within a SkillDamageNotify /
// SkillDamageAbnormalMoveNotify packet (spec.md §4.6).
type DamageHit struct {
	SkillID         uint32
	SkillEffectID   uint32
	Damage          int64
	Modifier        uint32
	TargetCurrentHP int64
	TargetMaxHP     int64
	DamageAttribute int32
	DamageType      int32
	TargetCount     int
}

// SkillDamageNotifyPacket carries one or more hits from a single source to
// a single target (an AoE swing reports multiple hits with the same
// target_count).
type SkillDamageNotifyPacket struct {
	SourceID  uint64
	TargetID  uint64
	Timestamp int64
	Hits      []DamageHit
}

// PartyMember is one roster entry inside a PartyInfo packet.
type PartyMember struct {
	EntityID    uint64
	CharacterID uint64
	Name        string
}

// PartyInfoPacket populates party membership (spec.md §4.3).
type PartyInfoPacket struct {
	RaidInstanceID uint64
	PartyID        uint64
	Members        []PartyMember
}

// PartyLeaveResultPacket clears one member's party mappings.
type PartyLeaveResultPacket struct {
	PartyID     uint64
	CharacterID uint64
}

// PartyStatusEffectResultNotifyPacket confirms a party-member's presence,
// used (alongside PartyInfo) to populate party membership (spec.md §3).
type PartyStatusEffectResultNotifyPacket struct {
	RaidInstanceID uint64
	PartyID        uint64
	CharacterID    uint64
}

// StatusEffectAddNotifyPacket / PartyStatusEffectAddNotifyPacket register a
// new status effect in the Local or Party registry respectively.
type StatusEffectAddNotifyPacket struct {
	TargetID uint64
	Effect   model.StatusEffect
}
type PartyStatusEffectAddNotifyPacket struct {
	CharacterID uint64
	Effect      model.StatusEffect
}

// StatusEffectRemoveNotifyPacket / PartyStatusEffectRemoveNotifyPacket
// remove one or more effects by instance id.
type StatusEffectRemoveNotifyPacket struct {
	TargetID  uint64
	EffectIDs []uint64
	Reason    int32
}
type PartyStatusEffectRemoveNotifyPacket struct {
	CharacterID uint64
	EffectIDs   []uint64
	Reason      int32
}

// StatusEffectSyncDataNotifyPacket refreshes an effect's magnitude
// (spec.md §4.2); character_id is 0 when the effect is only known locally.
type StatusEffectSyncDataNotifyPacket struct {
	InstanceID        uint64
	CharacterID       uint64
	ObjectID          uint64
	Value             float64
	LocalCharacterID  uint64
}

// TroopMemberUpdateMinNotifyPacket is the party-wide analog of
// StatusEffectSyncDataNotify (spec.md §3).
type TroopMemberUpdateMinNotifyPacket struct {
	CharacterID uint64
	InstanceID  uint64
	Value       float64
}

// StatusEffectDurationNotifyPacket idempotently refreshes an effect's
// expiration tick.
type StatusEffectDurationNotifyPacket struct {
	TargetID       uint64
	InstanceID     uint64
	ExpirationTick int64
	TargetType     model.TargetType
}

// RaidBeginPacket carries the raid_id used for difficulty inference (spec.md §6).
type RaidBeginPacket struct{ RaidID int32 }

// RaidBossKillNotifyPacket / RaidResultPacket drive phase transitions
// (spec.md §4.5); both are pure triggers with no payload.
type RaidBossKillNotifyPacket struct{}
type RaidResultPacket struct{}

// TriggerStartNotifyPacket carries the raid clear/wipe signal id (spec.md §4.5).
type TriggerStartNotifyPacket struct{ Signal int32 }

// TriggerBossBattleStatusPacket reports the current boss name for the
// Resetting-phase workaround (spec.md §4.5, Open Question (b)).
type TriggerBossBattleStatusPacket struct{ BossName string }

// ZoneMemberLoadStatusNotifyPacket carries both the zone_level used for
// difficulty inference and the two mismatched id spaces compared by the
// preserved Open-Question-(c) guard (spec.md §6).
type ZoneMemberLoadStatusNotifyPacket struct {
	ZoneLevel        int32
	RaidDifficultyID int32
	ZoneID           int32
}

// CounterAttackNotifyPacket / DeathNotifyPacket drive the "other event
// handlers" in spec.md §4.7.
type CounterAttackNotifyPacket struct{ EntityID uint64 }
type DeathNotifyPacket struct {
	EntityID  uint64
	Timestamp int64
}

// IdentityGaugeChangeNotifyPacket feeds on_identity_gain (spec.md §4.7).
type IdentityGaugeChangeNotifyPacket struct {
	ObjectID uint64
	Gauge1   float64
	Gauge2   float64
	Gauge3   float64
}

// IdentityStanceChangeNotifyPacket updates an entity's stance.
type IdentityStanceChangeNotifyPacket struct {
	EntityID uint64
	Stance   int32
}

// ParalyzationStateNotifyPacket feeds on_stagger_change (spec.md §4.7).
type ParalyzationStateNotifyPacket struct {
	EntityID       uint64
	StaggerCurrent int64
	StaggerMax     int64
}

// EquipChangeNotifyPacket / InitItemPacket update an entity's gear score.
type EquipChangeNotifyPacket struct {
	EntityID  uint64
	GearLevel float64
}
type InitItemPacket struct {
	EntityID  uint64
	GearLevel float64
}
