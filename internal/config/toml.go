// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Task   TaskConfig   `toml:"task"`
	Keys   KeysConfig   `toml:"keys"`
	Output OutputConfig `toml:"output"`
}

// TaskConfig maps timing, repetition and design settings. Durations are
// strings accepted by time.ParseDuration.
type TaskConfig struct {
	Blocks         *int    `toml:"blocks"`
	Reps           *int    `toml:"reps"`
	PracticeReps   *int    `toml:"practice-reps"`
	ITI            *string `toml:"iti"`
	MaxRT          *string `toml:"max-rt"`
	SSD            *string `toml:"ssd"`
	SSDStep        *string `toml:"ssd-step"`
	DrawLatency    *string `toml:"draw-latency"`
	Feedback       *string `toml:"feedback"`
	Break          *string `toml:"break"`
	Ready          *string `toml:"ready"`
	PollInterval   *string `toml:"poll-interval"`
	NoSignalWeight *int    `toml:"nosignal-weight"`
	SignalWeight   *int    `toml:"signal-weight"`
	Instructions   *string `toml:"instructions"`
}

// KeysConfig maps logical keys to terminal key names.
type KeysConfig struct {
	Left     []string `toml:"left"`
	Right    []string `toml:"right"`
	Abort    []string `toml:"abort"`
	Continue []string `toml:"continue"`
}

// OutputConfig maps output locations.
type OutputConfig struct {
	Dir   *string `toml:"dir"`
	Store *bool   `toml:"store"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
