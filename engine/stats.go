package engine

import (
	"time"

	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/rules"
)

// Census counts the cell population after a tick.
type Census struct {
	Organisms    int64
	BirthBlocks  int64
	DeathBlocks  int64
	Empty        int64
	HoldingBirth int64
	HoldingDeath int64
}

func (c *Census) observe(v *cell.Cell) {
	switch v.Kind {
	case cell.KindOrganism:
		c.Organisms++
		switch v.Life.Holding {
		case cell.Birth:
			c.HoldingBirth++
		case cell.Death:
			c.HoldingDeath++
		}
	case cell.KindBlock:
		if v.Block == cell.Birth {
			c.BirthBlocks++
		} else {
			c.DeathBlocks++
		}
	default:
		c.Empty++
	}
}

func (c *Census) add(o Census) {
	c.Organisms += o.Organisms
	c.BirthBlocks += o.BirthBlocks
	c.DeathBlocks += o.DeathBlocks
	c.Empty += o.Empty
	c.HoldingBirth += o.HoldingBirth
	c.HoldingDeath += o.HoldingDeath
}

// Events counts Update outcomes over a tick.
type Events struct {
	Vacated          int64
	Entered          int64
	Refused          int64
	Incubated        int64
	Dropped          int64
	Destroyed        int64
	Obliterated      int64
	SpawnedOrganisms int64
	SpawnedBirths    int64
	SpawnedDeaths    int64
	Mutated          int64
}

func (e *Events) observe(ev rules.Event) {
	if ev == 0 {
		return
	}
	counters := []struct {
		flag rules.Event
		n    *int64
	}{
		{rules.EventVacated, &e.Vacated},
		{rules.EventEntered, &e.Entered},
		{rules.EventRefused, &e.Refused},
		{rules.EventIncubated, &e.Incubated},
		{rules.EventDropped, &e.Dropped},
		{rules.EventDestroyed, &e.Destroyed},
		{rules.EventObliterated, &e.Obliterated},
		{rules.EventSpawnedOrganism, &e.SpawnedOrganisms},
		{rules.EventSpawnedBirth, &e.SpawnedBirths},
		{rules.EventSpawnedDeath, &e.SpawnedDeaths},
		{rules.EventMutated, &e.Mutated},
	}
	for _, c := range counters {
		if ev.Has(c.flag) {
			*c.n++
		}
	}
}

func (e *Events) add(o Events) {
	e.Vacated += o.Vacated
	e.Entered += o.Entered
	e.Refused += o.Refused
	e.Incubated += o.Incubated
	e.Dropped += o.Dropped
	e.Destroyed += o.Destroyed
	e.Obliterated += o.Obliterated
	e.SpawnedOrganisms += o.SpawnedOrganisms
	e.SpawnedBirths += o.SpawnedBirths
	e.SpawnedDeaths += o.SpawnedDeaths
	e.Mutated += o.Mutated
}

// Stats summarizes one completed tick.
type Stats struct {
	Tick     uint64
	Duration time.Duration
	Census   Census
	Events   Events
}
