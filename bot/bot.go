package bot

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mc2048/montecarlo"
	"github.com/domino14/mc2048/position"
)

// Bot answers move requests: it decodes the position, ranks it, plays the
// best direction and replies with the resulting position.
type Bot struct {
	ranker *montecarlo.Ranker
}

func NewBot(ranker *montecarlo.Ranker) *Bot {
	return &Bot{ranker: ranker}
}

// LambdaEvent is the payload of a serverless move request. The move is sent
// to ReplyChannel over NATS.
type LambdaEvent struct {
	GameID       string `json:"game_id"`
	GameState    string `json:"game_state"`
	Score        int32  `json:"score"`
	ReplyChannel string `json:"reply_channel"`
}

// Message turns the event into a request message.
func (evt LambdaEvent) Message() *position.Message {
	return &position.Message{GameState: evt.GameState, Score: evt.Score}
}

// Handle decodes a request, plays the best move and encodes the reply.
// Failures are reported in the reply's error field.
func (bot *Bot) Handle(ctx context.Context, data []byte) []byte {
	var req position.Message
	if err := req.Unmarshal(data); err != nil {
		return position.ErrorResponse("could not parse request", err).Marshal()
	}
	return bot.Respond(ctx, &req).Marshal()
}

// Respond plays the best move for the position in req.
func (bot *Bot) Respond(ctx context.Context, req *position.Message) *position.Message {
	b, err := req.ToBoard()
	if err != nil {
		return position.ErrorResponse("invalid game state", err)
	}
	ranking, err := bot.ranker.Rank(ctx, b)
	if err != nil {
		return position.ErrorResponse("could not rank moves", err)
	}
	changed := b.MakeMove(ranking.Best)
	log.Info().Stringer("move", ranking.Best).Bool("changed", changed).
		Int("score", b.Score()).Msg("generated-move")
	return position.Response(b, ranking.Best)
}

// Main serves move requests on channel until ctx is done.
func Main(ctx context.Context, nc *nats.Conn, channel string, bot *Bot) error {
	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		resp := bot.Handle(ctx, m.Data)
		if err := m.Respond(resp); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Msgf("Listening on [%s]", channel)

	<-ctx.Done()
	log.Info().Msg("draining bot subscription")
	return sub.Drain()
}
