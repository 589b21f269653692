package rules

import "strings"

// Event records what happened to a cell during Update. Several bits can be
// set for one cell in one tick.
type Event uint16

const (
	EventVacated Event = 1 << iota
	EventEntered
	EventRefused
	EventIncubated
	EventDropped
	EventDestroyed
	EventObliterated
	EventSpawnedOrganism
	EventSpawnedBirth
	EventSpawnedDeath
	EventMutated
)

var eventNames = []string{
	"vacated",
	"entered",
	"refused",
	"incubated",
	"dropped",
	"destroyed",
	"obliterated",
	"spawned_organism",
	"spawned_birth",
	"spawned_death",
	"mutated",
}

func (e Event) Has(flag Event) bool { return e&flag != 0 }

func (e Event) String() string {
	if e == 0 {
		return "none"
	}
	var parts []string
	for i, name := range eventNames {
		if e&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}
