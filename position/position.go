// Package position converts boards to and from the game state message that
// move clients and the bot exchange. The message is encoded in protobuf
// wire format:
//
//	message GameStateMessage {
//	  string game_state = 1; // 64 chars of '0'/'1', most significant bit first
//	  int32 score = 2;
//	  optional int32 move = 3; // responses only
//	  string error = 4;        // responses only
//	}
package position

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/move"
)

const (
	fieldGameState protowire.Number = 1
	fieldScore     protowire.Number = 2
	fieldMove      protowire.Number = 3
	fieldError     protowire.Number = 4
)

// GridWidth is the length of a textual game state.
const GridWidth = 64

var (
	ErrBadGridWidth  = errors.New("game state must be 64 characters")
	ErrBadGridChar   = errors.New("game state may only contain 0 and 1")
	ErrNegativeScore = errors.New("score must not be negative")
)

// Message is a GameStateMessage. HasMove reports whether Move was present
// on the wire; Left is the zero direction, so it cannot be inferred from
// Move alone.
type Message struct {
	GameState string
	Score     int32
	Move      int32
	HasMove   bool
	Error     string
}

// Marshal encodes m. Empty strings and a zero score are omitted.
func (m *Message) Marshal() []byte {
	var b []byte
	if m.GameState != "" {
		b = protowire.AppendTag(b, fieldGameState, protowire.BytesType)
		b = protowire.AppendString(b, m.GameState)
	}
	if m.Score != 0 {
		b = protowire.AppendTag(b, fieldScore, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Score)))
	}
	if m.HasMove {
		b = protowire.AppendTag(b, fieldMove, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Move)))
	}
	if m.Error != "" {
		b = protowire.AppendTag(b, fieldError, protowire.BytesType)
		b = protowire.AppendString(b, m.Error)
	}
	return b
}

// Unmarshal decodes data into m, resetting it first. Unknown fields are
// skipped.
func (m *Message) Unmarshal(data []byte) error {
	*m = Message{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("reading tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldGameState && typ == protowire.BytesType:
			m.GameState, n = protowire.ConsumeString(data)
		case num == fieldScore && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(data)
			m.Score = int32(v)
		case num == fieldMove && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(data)
			m.Move = int32(v)
			m.HasMove = true
		case num == fieldError && typ == protowire.BytesType:
			m.Error, n = protowire.ConsumeString(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("reading field %d: %w", num, protowire.ParseError(n))
		}
		data = data[n:]
	}
	return nil
}

// Direction returns the move carried by m, if any.
func (m *Message) Direction() (move.Direction, bool, error) {
	if !m.HasMove {
		return move.Left, false, nil
	}
	d, err := move.FromOrdinal(int(m.Move))
	if err != nil {
		return move.Left, true, err
	}
	return d, true, nil
}

// ParseGrid reads a 64-character game state. The first character is the
// most significant bit of the packed grid.
func ParseGrid(s string) (board.Grid, error) {
	if len(s) != GridWidth {
		return 0, fmt.Errorf("%w, got %d", ErrBadGridWidth, len(s))
	}
	var g uint64
	for i := 0; i < len(s); i++ {
		g <<= 1
		switch s[i] {
		case '0':
		case '1':
			g |= 1
		default:
			return 0, fmt.Errorf("%w: %q at position %d", ErrBadGridChar, s[i], i)
		}
	}
	return board.Grid(g), nil
}

// ToBoard validates m and builds the board it describes.
func (m *Message) ToBoard() (*board.Board, error) {
	g, err := ParseGrid(m.GameState)
	if err != nil {
		return nil, err
	}
	if m.Score < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeScore, m.Score)
	}
	return board.FromState(g, int(m.Score)), nil
}

// FromBoard describes b as a request message.
func FromBoard(b *board.Board) *Message {
	return &Message{
		GameState: b.Grid().BitString(),
		Score:     int32(b.Score()),
	}
}

// Response describes b after direction d was played on it.
func Response(b *board.Board, d move.Direction) *Message {
	m := FromBoard(b)
	m.Move = int32(d)
	m.HasMove = true
	return m
}

// ErrorResponse carries a failure back to the requester.
func ErrorResponse(message string, err error) *Message {
	if err != nil {
		message = fmt.Sprintf("%s: %s", message, err.Error())
	}
	return &Message{Error: message}
}

// Decode is Unmarshal followed by ToBoard.
func Decode(data []byte) (*board.Board, error) {
	var m Message
	if err := m.Unmarshal(data); err != nil {
		return nil, err
	}
	return m.ToBoard()
}

// Encode is FromBoard followed by Marshal.
func Encode(b *board.Board) []byte {
	return FromBoard(b).Marshal()
}
