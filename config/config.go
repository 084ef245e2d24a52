// Package config loads yomi settings and defines the search engine
// configuration records.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug      = "debug"
	ConfigConfigFile = "config-file"
	ConfigSFEN       = "sfen"
	ConfigDepth      = "depth"
	ConfigTimeMillis = "time-ms"
	ConfigThreads    = "threads"
	ConfigHashMB     = "hash-mb"
	ConfigTraceFile  = "trace-file"
	ConfigCPUProfile = "cpu-profile"
)

// Config holds application settings. Search tuning lives under the
// "search" key of an optional YAML config file.
type Config struct {
	*viper.Viper
}

// DefaultConfig returns a config with only the built-in defaults.
func DefaultConfig() *Config {
	c := &Config{}
	c.Viper = viper.New()
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigSFEN, "startpos")
	c.SetDefault(ConfigDepth, 6)
	c.SetDefault(ConfigTimeMillis, 10000)
	c.SetDefault(ConfigThreads, DefaultParallelConfig().Threads)
	c.SetDefault(ConfigHashMB, DefaultTranspositionConfig().SizeMB)
}

// Load reads flags from args, then YOMI_ environment variables, then the
// config file named by --config-file. Flags win over the environment,
// which wins over the file.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := pflag.NewFlagSet("yomi", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigConfigFile, "", "path to a YAML config file")
	fs.String(ConfigSFEN, "startpos", "position to search, in SFEN")
	fs.Int(ConfigDepth, 6, "search depth")
	fs.Int(ConfigTimeMillis, 10000, "time limit in milliseconds")
	fs.Int(ConfigThreads, DefaultParallelConfig().Threads, "number of search threads")
	fs.Int(ConfigHashMB, DefaultTranspositionConfig().SizeMB, "transposition table size in MB")
	fs.String(ConfigTraceFile, "", "write a YAML trace of each iteration to this file")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	c.SetEnvPrefix("yomi")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if f := c.GetString(ConfigConfigFile); f != "" {
		c.SetConfigFile(f)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", f, err)
		}
	}
	return nil
}

// SearchConfig builds the search configuration. Keys under "search" in
// the config file override the defaults field by field; the threads and
// hash-mb settings override their records. Out-of-range values are
// clamped.
func (c *Config) SearchConfig() (SearchConfig, error) {
	sc := DefaultSearchConfig()
	if c.IsSet("search") {
		if err := c.UnmarshalKey("search", &sc); err != nil {
			return sc, fmt.Errorf("decoding search config: %w", err)
		}
	}
	if c.IsSet(ConfigThreads) {
		sc.Parallel.Threads = c.GetInt(ConfigThreads)
	}
	if c.IsSet(ConfigHashMB) {
		sc.Transposition.SizeMB = c.GetInt(ConfigHashMB)
	}
	return NewValidatedSearchConfig(sc), nil
}
