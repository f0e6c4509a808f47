package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mc2048/bot"
	"github.com/domino14/mc2048/config"
	"github.com/domino14/mc2048/montecarlo"
)

var cfg *config.Config
var nc *nats.Conn

const HardTimeLimit = 30 * time.Second // max time per move

// ackTimeout is how long a reply waits for the listener's acknowledgement.
const ackTimeout = 3 * time.Second

func newRanker() (*montecarlo.Ranker, error) {
	r, err := montecarlo.NewRanker(cfg.GetInt(config.ConfigSimsPerMove),
		cfg.GetInt(config.ConfigThreads), cfg.GetInt(config.ConfigMaxPlies))
	if err != nil {
		return nil, err
	}
	if cfg.Seeded() {
		r.SetSeed(cfg.GetUint64(config.ConfigSeed))
	}
	r.SetResampleFirstSpawn(cfg.GetBool(config.ConfigResampleFirstSpawn))
	return r, nil
}

func HandleRequest(ctx context.Context, evt bot.LambdaEvent) (string, error) {
	// Return something but we have to block till we're done.

	logger := log.With().
		Str("gameID", evt.GameID).
		Logger()

	ctx, cancel := context.WithTimeout(logger.WithContext(ctx), HardTimeLimit)
	defer cancel()

	ranker, err := newRanker()
	if err != nil {
		return "", err
	}
	defer ranker.Close()

	resp := bot.NewBot(ranker).Respond(ctx, evt.Message())
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	d, _, err := resp.Direction()
	if err != nil {
		return "", err
	}
	logger.Info().Stringer("move", d).Int32("score", resp.Score).Msg("move-generated")

	// It doesn't fully matter what we return here. We will be sending the
	// move on the reply channel in NATS, and that's what the game server
	// should be listening to.
	if evt.ReplyChannel != "" && nc != nil {
		logger.Info().Msg("move-success-sending-via-nats")
		data := resp.Marshal()
		err = retry.Do(
			func() error {
				// We're just waiting for an acknowledgement. The actual
				// data doesn't matter.
				_, err := nc.Request(evt.ReplyChannel, data, ackTimeout)
				return err
			},
			retry.Attempts(bot.DefaultAttempts),
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).
					Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("bot-move-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	return d.String(), nil
}

func main() {
	cfg = &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad arguments")
	}
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var err error
	nc, err = nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}
