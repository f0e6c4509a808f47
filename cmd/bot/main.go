package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mc2048/bot"
	"github.com/domino14/mc2048/config"
	"github.com/domino14/mc2048/montecarlo"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ranker, err := montecarlo.NewRanker(cfg.GetInt(config.ConfigSimsPerMove),
		cfg.GetInt(config.ConfigThreads), cfg.GetInt(config.ConfigMaxPlies))
	if err != nil {
		log.Fatal().Err(err).Msg("bad ranker settings")
	}
	defer ranker.Close()
	if cfg.Seeded() {
		ranker.SetSeed(cfg.GetUint64(config.ConfigSeed))
	}
	ranker.SetResampleFirstSpawn(cfg.GetBool(config.ConfigResampleFirstSpawn))

	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	if err := bot.Main(ctx, nc, cfg.GetString(config.ConfigBotChannel), bot.NewBot(ranker)); err != nil {
		log.Error().Err(err).Msg("bot exited")
		return
	}
	log.Info().Msg("server gracefully shutting down")
}
