package model

// Difficulty is inferred from two independent packets (SPEC_FULL.md §6):
// RaidBegin's raid_id table yields Trial/Challenge/Unknown; a later
// ZoneMemberLoadStatusNotify's zone_level yields the rest. Both write into
// the same field on EncounterState.
type Difficulty int

const (
	DifficultyUnknown Difficulty = iota
	DifficultyNormal
	DifficultyHard
	DifficultyInferno
	DifficultyChallenge
	DifficultySpecial
	DifficultyTheFirst
	DifficultyTrial
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyNormal:
		return "Normal"
	case DifficultyHard:
		return "Hard"
	case DifficultyInferno:
		return "Inferno"
	case DifficultyChallenge:
		return "Challenge"
	case DifficultySpecial:
		return "Special"
	case DifficultyTheFirst:
		return "The First"
	case DifficultyTrial:
		return "Trial"
	default:
		return "Unknown"
	}
}

// trialRaidIDs and challengeRaidIDs back DifficultyFromRaidID (spec.md §6).
var trialRaidIDs = map[int32]bool{
	308226: true, 308227: true, 308239: true, 308339: true,
}

var challengeRaidIDs = map[int32]bool{
	308428: true, 308429: true, 308420: true, 308410: true, 308411: true,
	308414: true, 308422: true, 308424: true, 308421: true, 308412: true,
	308423: true, 308426: true, 308416: true, 308419: true, 308415: true,
	308437: true, 308417: true, 308418: true, 308425: true, 308430: true,
}

// DifficultyFromRaidID implements the RaidBegin raid_id -> Difficulty table
// in spec.md §6.
func DifficultyFromRaidID(raidID int32) Difficulty {
	switch {
	case trialRaidIDs[raidID]:
		return DifficultyTrial
	case challengeRaidIDs[raidID]:
		return DifficultyChallenge
	default:
		return DifficultyUnknown
	}
}

// DifficultyFromZoneLevel implements the ZoneMemberLoadStatusNotify
// zone_level -> Difficulty table in spec.md §6.
func DifficultyFromZoneLevel(zoneLevel int32) Difficulty {
	switch zoneLevel {
	case 0:
		return DifficultyNormal
	case 1:
		return DifficultyHard
	case 2:
		return DifficultyInferno
	case 3:
		return DifficultyChallenge
	case 4:
		return DifficultySpecial
	case 5:
		return DifficultyTheFirst
	default:
		return DifficultyUnknown
	}
}
