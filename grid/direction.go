// Package grid provides the fixed-size toroidal grid and the 8-direction
// Moore neighborhood the simulation runs on.
//
// Coordinates follow the same convention as the rest of the repo: (0,0) is
// bottom-left and Up increases Y.
package grid

// Direction is one of the eight Moore neighborhood directions.
//
// Directions are ordered counter-clockwise starting at Right. The order is
// part of the contract: choosers break ties by the lowest Direction value.
type Direction uint8

const (
	Right Direction = iota
	UpRight
	Up
	UpLeft
	Left
	DownLeft
	Down
	DownRight
)

// NumDirections is the arity of every neighborhood.
const NumDirections = 8

// Directions lists every direction in index order.
var Directions = [NumDirections]Direction{Right, UpRight, Up, UpLeft, Left, DownLeft, Down, DownRight}

var directionNames = [NumDirections]string{"Right", "UpRight", "Up", "UpLeft", "Left", "DownLeft", "Down", "DownRight"}

var directionDeltas = [NumDirections][2]int{
	{1, 0},
	{1, 1},
	{0, 1},
	{-1, 1},
	{-1, 0},
	{-1, -1},
	{0, -1},
	{1, -1},
}

func (d Direction) String() string {
	if int(d) >= NumDirections {
		return "Invalid"
	}
	return directionNames[d]
}

// Opposite returns the direction pointing back the other way.
func (d Direction) Opposite() Direction {
	return (d + NumDirections/2) % NumDirections
}

// Delta returns the (dx, dy) offset of the direction.
func (d Direction) Delta() (dx, dy int) {
	delta := directionDeltas[d%NumDirections]
	return delta[0], delta[1]
}

// Neighbors holds one value per direction, indexed by Direction.
type Neighbors[T any] [NumDirections]T

// NewNeighbors builds a Neighbors by calling fn once per direction in order.
func NewNeighbors[T any](fn func(Direction) T) Neighbors[T] {
	var n Neighbors[T]
	for _, d := range Directions {
		n[d] = fn(d)
	}
	return n
}
