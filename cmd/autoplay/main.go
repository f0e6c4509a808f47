package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mc2048/automatic"
	"github.com/domino14/mc2048/config"
	"github.com/domino14/mc2048/montecarlo"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = logger
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	ranker, err := montecarlo.NewRanker(cfg.GetInt(config.ConfigSimsPerMove),
		cfg.GetInt(config.ConfigThreads), cfg.GetInt(config.ConfigMaxPlies))
	if err != nil {
		log.Fatal().Err(err).Msg("bad ranker settings")
	}
	defer ranker.Close()
	ranker.SetResampleFirstSpawn(cfg.GetBool(config.ConfigResampleFirstSpawn))

	newBoard := automatic.RandomBoards
	if cfg.Seeded() {
		ranker.SetSeed(cfg.GetUint64(config.ConfigSeed))
		newBoard = automatic.SeededBoards(cfg.GetUint64(config.ConfigSeed))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	summary, err := automatic.StartGames(ctx, ranker, cfg.GetInt(config.ConfigAutoplayGames), 1,
		newBoard, cfg.GetString(config.ConfigAutoplayLog))
	if summary != nil {
		fmt.Print(summary.String())
	}
	if err != nil {
		log.Error().Err(err).Msg("autoplay stopped")
	}
}
