package encounter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelmeter/engine/internal/model"
)

func TestDamage_DecodeModifierUnpacksAllFlags(t *testing.T) {
	flags := DecodeModifier(ModifierCritical | ModifierBackAttack | ModifierAreaOfEffect)

	assert.True(t, flags.Critical)
	assert.True(t, flags.BackAttack)
	assert.False(t, flags.FrontAttack)
	assert.False(t, flags.MultiHit)
	assert.True(t, flags.AreaOfEffect)
}

func TestDamage_CriticalHitAccumulatesCritDamage(t *testing.T) {
	s := New()
	hero := player("Hero", 202)

	s.ApplyDamage(DamageInput{
		Owner: hero, Target: boss("Valtan"), Damage: 500,
		Modifier: ModifierCritical, Timestamp: 1,
	})

	stats := s.Entities["Hero"]
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats.CritCount)
	assert.Equal(t, int64(500), stats.CritDamage)
	assert.Equal(t, int64(1), stats.HitCount)
}

func TestDamage_EntersFightOnFirstHit(t *testing.T) {
	s := New()
	hero := player("Hero", 202)

	s.ApplyDamage(DamageInput{Owner: hero, Target: boss("Valtan"), Damage: 1, Timestamp: 777})

	assert.True(t, s.FightStarted)
	assert.Equal(t, int64(777), s.FightStartedAt)
	assert.Equal(t, model.PhaseInFight, s.Phase)
}

func TestDamage_DPSBucketsKeyedBySecondSinceFightStart(t *testing.T) {
	s := New()
	hero := player("Hero", 202)

	s.ApplyDamage(DamageInput{Owner: hero, Target: boss("Valtan"), Damage: 100, Timestamp: 1000})
	s.ApplyDamage(DamageInput{Owner: hero, Target: boss("Valtan"), Damage: 50, Timestamp: 2500})

	stats := s.Entities["Hero"]
	assert.Equal(t, int64(100), stats.DPSBuckets[0])
	assert.Equal(t, int64(50), stats.DPSBuckets[1])
}

func TestDamage_SelfInflictedEnvironmentalDropped(t *testing.T) {
	s := New()
	owner := &model.Entity{Type: model.EntityUnknown, EntityID: 0}

	applied := s.ApplyDamage(DamageInput{Owner: owner, Target: boss("Valtan"), Damage: 10, Timestamp: 1})

	assert.False(t, applied)
	assert.Empty(t, s.Entities)
}

func TestDamage_SkillSubtotalsAccumulateAcrossHits(t *testing.T) {
	s := New()
	hero := player("Hero", 202)
	key := SkillKey{SkillID: 100, SkillEffectID: 1}

	s.ApplyDamage(DamageInput{Owner: hero, Target: boss("Valtan"), SkillID: 100, SkillEffectID: 1, Damage: 10, Timestamp: 1})
	s.ApplyDamage(DamageInput{Owner: hero, Target: boss("Valtan"), SkillID: 100, SkillEffectID: 1, Damage: 20, Modifier: ModifierCritical, Timestamp: 2})

	skill := s.Entities["Hero"].Skills[key]
	require.NotNil(t, skill)
	assert.Equal(t, int64(30), skill.Damage)
	assert.Equal(t, int64(2), skill.Hits)
	assert.Equal(t, int64(1), skill.Crits)
	assert.Equal(t, int64(20), skill.CritDamage)
	assert.Len(t, skill.HitLog, 2)
}

func TestDamage_HitLogCappedAtHistoryLimit(t *testing.T) {
	s := New()
	hero := player("Hero", 202)
	key := SkillKey{SkillID: 1}

	for i := 0; i < skillHitHistoryCap+10; i++ {
		s.ApplyDamage(DamageInput{Owner: hero, Target: boss("Valtan"), SkillID: 1, Damage: 1, Timestamp: int64(i)})
	}

	skill := s.Entities["Hero"].Skills[key]
	assert.Len(t, skill.HitLog, skillHitHistoryCap)
	assert.Equal(t, int64(10), skill.HitLog[0].Timestamp, "oldest entries are evicted first")
}
