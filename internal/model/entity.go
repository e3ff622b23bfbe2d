// Package model holds the plain value and aggregate types shared across
// the tracker packages: entities, status effects, difficulty, and phase
// codes. Nothing in this package touches the packet channel or does I/O.
package model

// EntityType classifies a live object observed on the wire.
type EntityType int

const (
	EntityUnknown EntityType = iota
	EntityPlayer
	EntityNpc
	EntityBoss
	EntityEsther
	EntityProjectile
	EntityTrap
	EntitySummon
)

func (t EntityType) String() string {
	switch t {
	case EntityPlayer:
		return "Player"
	case EntityNpc:
		return "Npc"
	case EntityBoss:
		return "Boss"
	case EntityEsther:
		return "Esther"
	case EntityProjectile:
		return "Projectile"
	case EntityTrap:
		return "Trap"
	case EntitySummon:
		return "Summon"
	default:
		return "Unknown"
	}
}

// IsOwned reports whether entities of this type always resolve to a
// controlling owner (spec.md §3: Projectile/Trap/Summon).
func (t EntityType) IsOwned() bool {
	return t == EntityProjectile || t == EntityTrap || t == EntitySummon
}

// Entity is the catalog record for one live object in the current zone
// session. Only the dispatcher goroutine mutates it, through EntityTracker,
// the dispatcher's own packet handlers (stance, gear level) and
// encounter.State (death bookkeeping) (SPEC_FULL.md §5).
type Entity struct {
	EntityID    uint64
	CharacterID uint64 // 0 when unknown; stable across zones, players only
	Name        string
	Type        EntityType
	ClassID     int32
	GearLevel   float64
	Stance      int32
	CurrentHP   int64
	MaxHP       int64
	OwnerID     uint64 // projectiles/traps/summons: controlling entity
	SkillID     uint32 // skill that spawned this object, 0 if none

	// typeLocked is set the first time a reclassification away from
	// Unknown/Npc succeeds (guess_is_player, spec.md §4.1). Once locked,
	// later packets may not downgrade the type back.
	typeLocked bool

	DeadAt     int64 // unix-ish tick of death, 0 if alive
	Dead       bool
	DeathCount int
}

// Lock freezes the entity's classification so later packets cannot
// downgrade it (spec.md §4.1: "the earliest reclassification wins").
func (e *Entity) Lock() { e.typeLocked = true }

// Locked reports whether the entity's type has been frozen.
func (e *Entity) Locked() bool { return e.typeLocked }
