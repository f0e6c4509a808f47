package move

import (
	"testing"

	"github.com/matryer/is"
)

func TestOrdinals(t *testing.T) {
	is := is.New(t)
	is.Equal(int(Left), 0)
	is.Equal(int(Right), 1)
	is.Equal(int(Up), 2)
	is.Equal(int(Down), 3)
	is.Equal(AllDirections, [NumDirections]Direction{Left, Right, Up, Down})
}

func TestFromString(t *testing.T) {
	is := is.New(t)
	cases := map[string]Direction{
		"left": Left, "L": Left, "0": Left,
		"Right": Right, "r": Right, "1": Right,
		"up": Up, "u": Up, "2": Up,
		" DOWN ": Down, "d": Down, "3": Down,
	}
	for s, expected := range cases {
		d, err := FromString(s)
		is.NoErr(err)
		is.Equal(d, expected)
	}
	_, err := FromString("sideways")
	is.True(err != nil)
}

func TestFromOrdinal(t *testing.T) {
	is := is.New(t)
	d, err := FromOrdinal(3)
	is.NoErr(err)
	is.Equal(d, Down)
	_, err = FromOrdinal(4)
	is.True(err != nil)
	_, err = FromOrdinal(-1)
	is.True(err != nil)
}

func TestTextRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, d := range AllDirections {
		txt, err := d.MarshalText()
		is.NoErr(err)
		is.Equal(string(txt), d.String())
		var back Direction
		is.NoErr(back.UnmarshalText(txt))
		is.Equal(back, d)
	}
	_, err := Direction(9).MarshalText()
	is.True(err != nil)
	is.Equal(Direction(9).String(), "direction(9)")
}
