package model

// TargetType selects which of StatusTracker's two parallel registries a
// StatusEffect lives in (spec.md §3): Local is keyed by entity_id, Party
// by character_id.
type TargetType int

const (
	TargetLocal TargetType = iota
	TargetParty
)

func (t TargetType) String() string {
	if t == TargetParty {
		return "Party"
	}
	return "Local"
}

// EffectType classifies a StatusEffect's gameplay role.
type EffectType int

const (
	EffectOther EffectType = iota
	EffectShield
	EffectBuff
	EffectDebuff
)

func (t EffectType) String() string {
	switch t {
	case EffectShield:
		return "Shield"
	case EffectBuff:
		return "Buff"
	case EffectDebuff:
		return "Debuff"
	default:
		return "Other"
	}
}

// StatusEffect is a timed modifier (buff, debuff, shield) attached to an
// entity or party member. An effect exists in exactly one of
// StatusTracker's two registries at a time.
type StatusEffect struct {
	InstanceID     uint64
	StatusEffectID uint32
	SourceID       uint64
	TargetID       uint64 // entity_id (Local) or character_id (Party)
	TargetType     TargetType
	Type           EffectType
	Value          float64
	ExpirationTick int64
	Category       int32
}
