package encounter

import "github.com/kestrelmeter/engine/internal/model"

// Modifier bit flags (spec.md §4.6: "the low nibbles encode hit qualifier
// flags"). Packed across the low byte of the wire modifier value.
const (
	ModifierCritical      uint32 = 1 << 0
	ModifierBackAttack    uint32 = 1 << 1
	ModifierFrontAttack   uint32 = 1 << 2
	ModifierMultiHit      uint32 = 1 << 3
	ModifierAreaOfEffect  uint32 = 1 << 4
)

// ModifierFlags is the decoded form of a wire modifier value.
type ModifierFlags struct {
	Critical     bool
	BackAttack   bool
	FrontAttack  bool
	MultiHit     bool
	AreaOfEffect bool
}

// DecodeModifier unpacks the hit-qualifier bits (spec.md §4.6).
func DecodeModifier(modifier uint32) ModifierFlags {
	return ModifierFlags{
		Critical:     modifier&ModifierCritical != 0,
		BackAttack:   modifier&ModifierBackAttack != 0,
		FrontAttack:  modifier&ModifierFrontAttack != 0,
		MultiHit:     modifier&ModifierMultiHit != 0,
		AreaOfEffect: modifier&ModifierAreaOfEffect != 0,
	}
}

// DamageInput is the damage handler's input (spec.md §4.6). Timestamp is
// already back-dated to the originating cast by the caller when Source is
// a projectile/trap with a known cast timestamp (spec.md §4.6 rule 5) —
// this package has no dependency on the skill tracker.
type DamageInput struct {
	Owner  *model.Entity // attributable actor (spec.md §4.1 get_source_entity)
	Source *model.Entity // immediate striker, may be a projectile/trap
	Target *model.Entity

	SkillID         uint32
	SkillEffectID   uint32
	Damage          int64
	Modifier        uint32
	TargetCurrentHP int64
	TargetMaxHP     int64
	DamageAttribute int32
	DamageType      int32
	TargetCount     int
	Timestamp       int64

	StatusOnSource []model.StatusEffect
	StatusOnTarget []model.StatusEffect
}

// ApplyDamage implements the attribution rules in spec.md §4.6. It returns
// false when the hit was dropped entirely (unknown owner, self-inflicted
// environmental) or suppressed by the raid-end cooldown (spec.md §4.5,
// §8 invariant 7); it returns true whenever the hit was at least recorded
// for diagnostics, matching rule 1's "not included in headline totals but
// still recorded".
func (s *State) ApplyDamage(in DamageInput) bool {
	if in.Owner == nil {
		return false // unknown owner: dropped (spec.md §4.6)
	}
	if in.Owner.Type == model.EntityUnknown && in.Owner.EntityID == 0 {
		return false // self-inflicted environmental: dropped
	}
	if s.InCooldown(in.Timestamp) {
		return false // raid-end cooldown: mutates nothing (spec.md §8 invariant 7)
	}

	s.EnterFight(in.Timestamp)

	flags := DecodeModifier(in.Modifier)
	ownerStats := s.EntityByName(in.Owner.Name, in.Owner.Type, in.Owner.ClassID)

	headline := !(s.BossOnlyDamage && in.Target != nil && in.Target.Type != model.EntityBoss)

	if headline {
		ownerStats.DamageDealt += in.Damage
		ownerStats.HitCount++
		if flags.Critical {
			ownerStats.CritCount++
			ownerStats.CritDamage += in.Damage
		}
		if flags.BackAttack {
			ownerStats.BackAttackCount++
		}
		if flags.FrontAttack {
			ownerStats.FrontAttackCount++
		}
		if flags.MultiHit {
			ownerStats.MultiHitCount++
		}
		if flags.AreaOfEffect {
			ownerStats.AreaOfEffectCount++
		}

		key := SkillKey{SkillID: in.SkillID, SkillEffectID: in.SkillEffectID}
		ownerStats.skill(key).recordHit(SkillHit{
			Timestamp: in.Timestamp,
			Damage:    in.Damage,
			Crit:      flags.Critical,
		})

		if in.Timestamp >= s.FightStartedAt {
			bucket := (in.Timestamp - s.FightStartedAt) / 1000
			ownerStats.DPSBuckets[bucket] += in.Damage
		}
	} else {
		ownerStats.DiagnosticDamage += in.Damage
	}

	if in.Target != nil {
		targetStats := s.EntityByName(in.Target.Name, in.Target.Type, in.Target.ClassID)
		targetStats.DamageTaken += in.Damage

		if in.TargetCurrentHP <= 0 && !targetStats.Dead {
			targetStats.Dead = true
			targetStats.DeathAt = in.Timestamp
			targetStats.DeathCount++
			in.Target.Dead = true
			in.Target.DeadAt = in.Timestamp
			in.Target.DeathCount++
			if in.Target.Type == model.EntityBoss {
				s.BossDeadUpdate = true
			}
		}
	}

	return true
}
