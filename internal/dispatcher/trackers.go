package dispatcher

import (
	"github.com/kestrelmeter/engine/internal/game/entity"
	"github.com/kestrelmeter/engine/internal/game/idtrack"
	"github.com/kestrelmeter/engine/internal/game/party"
	"github.com/kestrelmeter/engine/internal/game/skill"
	"github.com/kestrelmeter/engine/internal/game/status"
)

// Trackers bundles the four identity/membership/status/cast trackers the
// dispatcher owns exclusively (spec.md §2, §5). EntityTracker consults
// IdTracker directly (spec.md §2); the other cross-references (StatusTracker
// consulting PartyTracker, spec.md §4.2) are resolved by the dispatcher
// passing the needed tracker into a handler call rather than the trackers
// holding references to one another, per SPEC_FULL.md §5's exclusive-owner
// design.
type Trackers struct {
	IDs      *idtrack.Tracker
	Entities *entity.Tracker
	Status   *status.Tracker
	Party    *party.Tracker
	Skill    *skill.Tracker
}

// NewTrackers wires a fresh, empty set of trackers.
func NewTrackers() *Trackers {
	ids := idtrack.New()
	return &Trackers{
		IDs:      ids,
		Entities: entity.New(ids),
		Status:   status.New(),
		Party:    party.New(),
		Skill:    skill.New(),
	}
}
