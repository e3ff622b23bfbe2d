package encounter

import "github.com/kestrelmeter/engine/internal/model"

// clearSignals / wipeSignals are the TriggerStartNotify signal ids that
// drive the Cleared/Wiped transitions (spec.md §4.5).
var clearSignals = map[int32]bool{57: true, 59: true, 61: true, 63: true, 74: true, 76: true}
var wipeSignals = map[int32]bool{58: true, 60: true, 62: true, 64: true, 75: true, 77: true}

// bossBattleStatusWorkarounds names the bosses whose TriggerBossBattleStatus
// sighting forces a Resetting transition even when a different boss is
// already current (spec.md §9 Open Question (b): a spawn-order quirk,
// preserved literally rather than generalized per the spec's instruction
// to confirm before generalizing — see SPEC_FULL.md §9 supplement 1).
var bossBattleStatusWorkarounds = map[string]bool{"Saydon": true}

// OnRaidBossKillNotify transitions InFight -> BossDead, marking the
// encounter for finalization (spec.md §4.5).
func (s *State) OnRaidBossKillNotify(timestamp int64) {
	if s.Phase != model.PhaseInFight {
		return
	}
	s.Phase = model.PhaseBossDead
	s.BossDeadUpdate = true
	s.EndedAt = timestamp
}

// OnTriggerStartNotify transitions InFight -> Cleared or Wiped depending on
// the signal id, freezing the party and starting the raid-end cooldown
// (spec.md §4.5). Unrecognized signals are ignored.
func (s *State) OnTriggerStartNotify(signal int32, timestamp int64) bool {
	if s.Phase != model.PhaseInFight {
		return false
	}
	switch {
	case clearSignals[signal]:
		s.Phase = model.PhaseCleared
	case wipeSignals[signal]:
		s.Phase = model.PhaseWiped
	default:
		return false
	}
	s.PartyFrozen = true
	s.CooldownUntil = timestamp + cooldownMillis
	s.EndedAt = timestamp
	return true
}

// OnTriggerBossBattleStatus transitions InFight -> Resetting when no boss
// is current yet, or when the sighted boss matches a known workaround name
// (spec.md §4.5, Open Question (b)).
func (s *State) OnTriggerBossBattleStatus(bossName string) bool {
	if s.Phase != model.PhaseInFight {
		return false
	}
	if s.CurrentBossName != "" && !bossBattleStatusWorkarounds[bossName] {
		return false
	}
	s.Phase = model.PhaseResetting
	s.Resetting = true
	return true
}

// OnRaidResult finalizes the encounter (spec.md §4.5 "Any end -> RaidResult
// -> Finalized"). The current phase is not checked, so a RaidResult
// finalizes from any phase, Idle and InFight included. The caller is responsible for the
// synchronous stats-API fetch and persistence side effect (spec.md §4.7).
func (s *State) OnRaidResult(timestamp int64) {
	s.Phase = model.PhaseFinalized
	s.Saved = true
	s.EndedAt = timestamp
	s.CooldownUntil = timestamp + cooldownMillis
}
