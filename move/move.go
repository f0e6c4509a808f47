// Package move defines the four sliding directions of a 2048 board.
package move

import (
	"fmt"
	"strings"
)

// Direction is a move direction. Its ordinal is the value sent over the wire.
type Direction uint8

const (
	Left Direction = iota
	Right
	Up
	Down
)

const NumDirections = 4

// AllDirections lists every direction in enumeration order. Rankers iterate
// over it, so ties resolve towards the front of this list.
var AllDirections = [NumDirections]Direction{Left, Right, Up, Down}

var directionNames = [NumDirections]string{"left", "right", "up", "down"}

func (d Direction) Valid() bool {
	return d < NumDirections
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// MarshalText lets the direction serialize as its name in YAML and JSON.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FromString parses a direction name, its first letter, or its ordinal.
func FromString(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l", "0":
		return Left, nil
	case "right", "r", "1":
		return Right, nil
	case "up", "u", "2":
		return Up, nil
	case "down", "d", "3":
		return Down, nil
	}
	return 0, fmt.Errorf("unrecognized direction %q", s)
}

// FromOrdinal converts a wire ordinal into a Direction.
func FromOrdinal(n int) (Direction, error) {
	if n < 0 || n >= NumDirections {
		return 0, fmt.Errorf("direction ordinal %d out of range", n)
	}
	return Direction(n), nil
}
