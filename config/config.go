package config

import (
	"runtime"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug              = "debug"
	ConfigSimsPerMove        = "sims-per-move"
	ConfigThreads            = "threads"
	ConfigMaxPlies           = "max-plies"
	ConfigSeed               = "seed"
	ConfigResampleFirstSpawn = "resample-first-spawn"
	ConfigNatsURL            = "nats-url"
	ConfigBotChannel         = "bot-channel"
	ConfigCPUProfile         = "cpu-profile"
	ConfigAutoplayGames      = "autoplay-games"
	ConfigAutoplayLog        = "autoplay-log"
)

const EnvPrefix = "MC2048"

type Config struct {
	*viper.Viper
	args []string
}

// DefaultConfig returns a config holding only the defaults. Tests use it.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigSimsPerMove, 400)
	c.SetDefault(ConfigThreads, runtime.NumCPU())
	c.SetDefault(ConfigMaxPlies, 2000)
	c.SetDefault(ConfigSeed, uint64(0))
	c.SetDefault(ConfigResampleFirstSpawn, false)
	c.SetDefault(ConfigNatsURL, nats.DefaultURL)
	c.SetDefault(ConfigBotChannel, "mc2048.bot")
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigAutoplayGames, 10)
	c.SetDefault(ConfigAutoplayLog, "")
}

// Load reads flags from args, then MC2048_* environment variables. Flags
// that were set win over the environment, which wins over the defaults.
// Arguments left after flag parsing are available from Args.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := pflag.NewFlagSet("mc2048", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigSimsPerMove, 400, "rollouts per direction")
	fs.Int(ConfigThreads, runtime.NumCPU(), "worker goroutines used for rollouts")
	fs.Int(ConfigMaxPlies, 2000, "turns after which a rollout is cut off")
	fs.Uint64(ConfigSeed, 0, "seed for reproducible rankings; 0 uses OS entropy")
	fs.Bool(ConfigResampleFirstSpawn, false, "draw the candidate move's spawned tile anew for every rollout")
	fs.String(ConfigNatsURL, nats.DefaultURL, "the NATS server URL")
	fs.String(ConfigBotChannel, "mc2048.bot", "the NATS subject the bot listens on")
	fs.String(ConfigCPUProfile, "", "file to write a CPU profile to")
	fs.Int(ConfigAutoplayGames, 10, "games to play in autoplay")
	fs.String(ConfigAutoplayLog, "", "file to write autoplay game results to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix(EnvPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	c.args = fs.Args()
	return nil
}

// Args returns the positional arguments from the last Load.
func (c *Config) Args() []string {
	return c.args
}

// Seeded reports whether a fixed seed was configured.
func (c *Config) Seeded() bool {
	return c.GetUint64(ConfigSeed) != 0
}

// SanitizedSettings returns the settings for logging. There is nothing
// secret in them except possibly credentials embedded in the NATS URL.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	if u, ok := settings[ConfigNatsURL].(string); ok {
		if at := strings.LastIndex(u, "@"); at >= 0 {
			if scheme := strings.Index(u, "://"); scheme >= 0 && scheme < at {
				settings[ConfigNatsURL] = u[:scheme+3] + "***" + u[at:]
			}
		}
	}
	return settings
}
