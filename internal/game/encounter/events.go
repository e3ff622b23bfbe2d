package encounter

import "github.com/kestrelmeter/engine/internal/model"

// OnCounterattack increments the counterattack counter for entity
// (spec.md §4.7).
func (s *State) OnCounterattack(e *model.Entity) {
	s.EntityByName(e.Name, e.Type, e.ClassID).Counterattacks++
}

// OnDeath records a death timestamp and increments the death counter; Boss
// deaths also flag BossDeadUpdate so the dispatcher flushes a snapshot
// immediately (spec.md §4.7).
func (s *State) OnDeath(e *model.Entity, timestamp int64) {
	stats := s.EntityByName(e.Name, e.Type, e.ClassID)
	if !stats.Dead {
		stats.Dead = true
	}
	stats.DeathAt = timestamp
	stats.DeathCount++
	e.Dead = true
	e.DeadAt = timestamp
	e.DeathCount++
	if e.Type == model.EntityBoss {
		s.BossDeadUpdate = true
	}
}

// OnIdentityGain pushes a sample into the identity histogram of the
// matching player (spec.md §4.7).
func (s *State) OnIdentityGain(e *model.Entity, gauge1, gauge2, gauge3 float64, timestamp int64) {
	stats := s.EntityByName(e.Name, e.Type, e.ClassID)
	stats.IdentityGauge1, stats.IdentityGauge2, stats.IdentityGauge3 = gauge1, gauge2, gauge3
	stats.IdentityHistory = append(stats.IdentityHistory, IdentitySample{
		Timestamp: timestamp, Gauge1: gauge1, Gauge2: gauge2, Gauge3: gauge3,
	})
}

// OnStaggerChange pushes to the current boss's stagger series (spec.md §4.7).
func (s *State) OnStaggerChange(current, max int64, timestamp int64) {
	if s.CurrentBossName == "" {
		return
	}
	stats, ok := s.Entities[s.CurrentBossName]
	if !ok {
		return
	}
	stats.StaggerHistory = append(stats.StaggerHistory, StaggerSample{
		Timestamp: timestamp, Current: current, Max: max,
	})
}

// OnBossShield updates the current boss's shield remaining (spec.md §4.7).
func (s *State) OnBossShield(value int64) {
	if s.CurrentBossName == "" {
		return
	}
	if stats, ok := s.Entities[s.CurrentBossName]; ok {
		stats.ShieldRemaining = value
	}
}

// OnShieldApplied records a player's shield contribution onto the target
// (spec.md §4.7 on_shield_applied).
func (s *State) OnShieldApplied(source *model.Entity, value int64) {
	if source == nil {
		return
	}
	s.EntityByName(source.Name, source.Type, source.ClassID).ShieldGiven += value
}

// OnShieldUsed records shield absorption against the source of the shield
// breaker — the damage that would have landed had the shield not absorbed
// it (spec.md §4.7 on_shield_used, §8 scenario 5).
func (s *State) OnShieldUsed(breaker *model.Entity, change int64) {
	if breaker == nil {
		return
	}
	s.EntityByName(breaker.Name, breaker.Type, breaker.ClassID).DiagnosticDamage += change
}
