// Package packet defines the wire-level contract between the external
// packet decoder and this engine: the opcode enum, one payload struct per
// opcode the core consumes (spec.md §6), the inbound Envelope carried by the
// capture channel, and the outbound event names and payloads sent to the
// presentation layer. Nothing here decodes bytes.
package packet

// Opcode enumerates every packet kind the dispatcher routes (spec.md §6,
// "complete list").
type Opcode int

const (
	OpUnknown Opcode = iota
	OpCounterAttackNotify
	OpDeathNotify
	OpEquipChangeNotify
	OpIdentityGaugeChangeNotify
	OpIdentityStanceChangeNotify
	OpInitEnv
	OpInitPC
	OpInitItem
	OpMigrationExecute
	OpNewPC
	OpNewNpc
	OpNewNpcSummon
	OpNewProjectile
	OpNewTrap
	OpParalyzationStateNotify
	OpRaidBegin
	OpRaidBossKillNotify
	OpRaidResult
	OpRemoveObject
	OpSkillCastNotify
	OpSkillStartNotify
	OpSkillDamageNotify
	OpSkillDamageAbnormalMoveNotify
	OpPartyInfo
	OpPartyLeaveResult
	OpPartyStatusEffectAddNotify
	OpPartyStatusEffectRemoveNotify
	OpPartyStatusEffectResultNotify
	OpStatusEffectAddNotify
	OpStatusEffectDurationNotify
	OpStatusEffectRemoveNotify
	OpStatusEffectSyncDataNotify
	OpTroopMemberUpdateMinNotify
	OpTriggerBossBattleStatus
	OpTriggerStartNotify
	OpZoneMemberLoadStatusNotify
	OpZoneObjectUnpublishNotify
)

var opcodeNames = map[Opcode]string{
	OpCounterAttackNotify:           "CounterAttackNotify",
	OpDeathNotify:                   "DeathNotify",
	OpEquipChangeNotify:             "EquipChangeNotify",
	OpIdentityGaugeChangeNotify:     "IdentityGaugeChangeNotify",
	OpIdentityStanceChangeNotify:    "IdentityStanceChangeNotify",
	OpInitEnv:                       "InitEnv",
	OpInitPC:                       "InitPC",
	OpInitItem:                      "InitItem",
	OpMigrationExecute:              "MigrationExecute",
	OpNewPC:                         "NewPC",
	OpNewNpc:                        "NewNpc",
	OpNewNpcSummon:                  "NewNpcSummon",
	OpNewProjectile:                 "NewProjectile",
	OpNewTrap:                       "NewTrap",
	OpParalyzationStateNotify:       "ParalyzationStateNotify",
	OpRaidBegin:                     "RaidBegin",
	OpRaidBossKillNotify:            "RaidBossKillNotify",
	OpRaidResult:                    "RaidResult",
	OpRemoveObject:                  "RemoveObject",
	OpSkillCastNotify:               "SkillCastNotify",
	OpSkillStartNotify:              "SkillStartNotify",
	OpSkillDamageNotify:             "SkillDamageNotify",
	OpSkillDamageAbnormalMoveNotify: "SkillDamageAbnormalMoveNotify",
	OpPartyInfo:                     "PartyInfo",
	OpPartyLeaveResult:              "PartyLeaveResult",
	OpPartyStatusEffectAddNotify:    "PartyStatusEffectAddNotify",
	OpPartyStatusEffectRemoveNotify: "PartyStatusEffectRemoveNotify",
	OpPartyStatusEffectResultNotify: "PartyStatusEffectResultNotify",
	OpStatusEffectAddNotify:         "StatusEffectAddNotify",
	OpStatusEffectDurationNotify:    "StatusEffectDurationNotify",
	OpStatusEffectRemoveNotify:      "StatusEffectRemoveNotify",
	OpStatusEffectSyncDataNotify:    "StatusEffectSyncDataNotify",
	OpTroopMemberUpdateMinNotify:    "TroopMemberUpdateMinNotify",
	OpTriggerBossBattleStatus:       "TriggerBossBattleStatus",
	OpTriggerStartNotify:            "TriggerStartNotify",
	OpZoneMemberLoadStatusNotify:    "ZoneMemberLoadStatusNotify",
	OpZoneObjectUnpublishNotify:     "ZoneObjectUnpublishNotify",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "Unknown"
}

// Envelope is one item off the capture channel: an opcode plus its
// already-decoded payload. The concrete type of Payload matches the
// opcode (see packets.go); the dispatcher type-asserts it.
type Envelope struct {
	Opcode  Opcode
	Payload any
}
