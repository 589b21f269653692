package rules

import (
	"math/rand/v2"

	"github.com/brensch/evoblock/brain"
	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/grid"
)

// Tally counts the claims addressed to one cell.
type Tally struct {
	Incubate int
	Drop     int
	Enter    int
	Destroy  int
}

// Claims is the number of proposals that compete for the cell.
func (t Tally) Claims() int { return t.Incubate + t.Drop + t.Enter }

func CountMoves(incoming grid.Neighbors[Move]) Tally {
	var t Tally
	for _, m := range incoming {
		switch m.Kind {
		case MoveIncubate:
			t.Incubate++
		case MoveDrop:
			t.Drop++
		case MoveEnter:
			t.Enter++
		case MoveDestroy:
			t.Destroy++
		}
	}
	return t
}

// Update is the mutating phase for one cell. incoming[d] is the Move the
// neighbor in direction d addressed to this cell. rng drives spawn-in and
// mutation and must not be shared with a concurrent caller.
func Update(c *cell.Cell, diff Diff, incoming grid.Neighbors[Move], p Params, rng *rand.Rand) Event {
	var ev Event

	if c.IsOrganism() {
		switch diff.Kind {
		case DiffUpdate:
			c.Life.Brain.Hiddens = diff.Hiddens
			c.Life.Holding = diff.Holding
		case DiffDestroy:
			*c = cell.Empty()
			ev |= EventVacated
		}
	}

	wasBirth := c.IsBlock(cell.Birth)
	wasDeath := c.IsBlock(cell.Death)
	wasOrganism := c.IsOrganism()

	t := CountMoves(incoming)

	// More than one claimant, or life landing on death, clears the cell so
	// no direction is favored by iteration order.
	if t.Claims() > 1 || (t.Enter == 1 && wasDeath) {
		*c = cell.Empty()
		ev |= EventObliterated
	} else {
		ev |= resolve(c, incoming, t, wasBirth, wasOrganism)
	}

	ev |= spawnIn(c, p, rng)

	if c.IsOrganism() && c.Life.Brain.Mutate(p.Mutation(), rng) {
		ev |= EventMutated
	}
	return ev
}

// resolve applies the single remaining claim, if any. A refused enter or an
// incubate on anything but a Birth block applies nothing, so a Destroy
// arriving in the same tick still clears an organism.
func resolve(c *cell.Cell, incoming grid.Neighbors[Move], t Tally, wasBirth, wasOrganism bool) Event {
	var ev Event
	for _, m := range incoming {
		switch m.Kind {
		case MoveEnter:
			if c.IsAnyBlock() {
				*c = cell.NewLife(m.Brain, c.Block)
				return EventEntered
			}
			if !wasOrganism {
				*c = cell.NewLife(m.Brain, m.Holding)
				return EventEntered
			}
			ev |= EventRefused
		case MoveIncubate:
			if wasBirth {
				*c = cell.NewLife(m.Brain, cell.NoBlock)
				return EventIncubated
			}
		case MoveDrop:
			c.Give(m.Block)
			return EventDropped
		}
	}

	if t.Destroy > 0 && c.IsOrganism() {
		*c = cell.Empty()
		ev |= EventDestroyed
	}
	return ev
}

// spawnIn runs the three independent spawn events in order. Later events
// may overwrite earlier ones.
func spawnIn(c *cell.Cell, p Params, rng *rand.Rand) Event {
	var ev Event
	if bernoulli(rng, p.SpawnOrganism) {
		*c = cell.NewLife(brain.NewRandom(rng, p.BrainParams()), cell.NoBlock)
		ev |= EventSpawnedOrganism
	}
	if bernoulli(rng, p.SpawnBirth) {
		c.Give(cell.Birth)
		ev |= EventSpawnedBirth
	}
	if bernoulli(rng, p.SpawnDeath) {
		c.Give(cell.Death)
		ev |= EventSpawnedDeath
	}
	return ev
}

func bernoulli(rng *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	return rng.Float64() < p
}
