// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/playdecoder/pkg/adapters/filesink"
	"github.com/user/playdecoder/pkg/bufferpool"
	"github.com/user/playdecoder/pkg/decoder"
	"github.com/user/playdecoder/pkg/playback"
	"github.com/user/playdecoder/pkg/ports"
)

var (
	// ErrInvalidPoolSize is returned for a pool size below one.
	ErrInvalidPoolSize = errors.New("config: pool_size must be positive")
	// ErrInvalidFormat is returned for an unknown snapshot format.
	ErrInvalidFormat = errors.New("config: snapshot format must be png or jpeg")
)

// Config represents the full configuration for playdecoder.
type Config struct {
	// Decoder
	PoolSize   int    `yaml:"pool_size"`
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Output
	LogLevel string `yaml:"log_level"`

	// Playback script
	Seeks      []int64 `yaml:"seeks"`
	SeekEvery  int     `yaml:"seek_every"`
	PauseMs    int64   `yaml:"pause_ms"`
	PauseForMs int64   `yaml:"pause_for_ms"`
	Loops      int     `yaml:"loops"`

	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// SnapshotConfig controls the frame snapshot sink.
type SnapshotConfig struct {
	Dir             string `yaml:"dir"`
	Every           int    `yaml:"every"`
	Width           int    `yaml:"width"`
	Format          string `yaml:"format"`
	Quality         int    `yaml:"quality"`
	Annotate        bool   `yaml:"annotate"`
	TextColor       string `yaml:"text_color"`
	BackgroundColor string `yaml:"background_color"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		PoolSize:  bufferpool.DefaultSize,
		LogLevel:  "info",
		SeekEvery: 5,

		Snapshot: SnapshotConfig{
			Every:           30,
			Width:           320,
			Format:          "png",
			Quality:         85,
			Annotate:        true,
			TextColor:       "#ffffff",
			BackgroundColor: "#000000",
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
// Keys missing from the file keep their default values.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would make the decoder or sinks misbehave.
func (c Config) Validate() error {
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPoolSize, c.PoolSize)
	}
	if _, ok := ports.ParseImageFormat(c.Snapshot.Format); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Snapshot.Format)
	}
	if c.Loops < 0 {
		return fmt.Errorf("config: negative loops %d", c.Loops)
	}
	for _, ms := range c.Seeks {
		if ms < 0 {
			return fmt.Errorf("config: negative seek position %d", ms)
		}
	}
	return nil
}

// ParseColor parses a hex color string to color.Color.
func ParseColor(hex string) color.Color {
	if len(hex) == 0 {
		return color.Black
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return color.Black
	}

	return color.RGBA{
		R: hexValue(hex[0])<<4 | hexValue(hex[1]),
		G: hexValue(hex[2])<<4 | hexValue(hex[3]),
		B: hexValue(hex[4])<<4 | hexValue(hex[5]),
		A: 255,
	}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// LogLevelValue returns the parsed log level.
func (c Config) LogLevelValue() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

// ToDecoderConfig converts Config to decoder.Config.
func (c Config) ToDecoderConfig() decoder.Config {
	return decoder.Config{PoolSize: c.PoolSize}
}

// ToPlaybackConfig converts Config to playback.Config.
func (c Config) ToPlaybackConfig() playback.Config {
	return playback.Config{
		Decoder:   c.ToDecoderConfig(),
		Seeks:     append([]int64(nil), c.Seeks...),
		SeekEvery: c.SeekEvery,
		PauseAtMs: c.PauseMs,
		PauseFor:  time.Duration(c.PauseForMs) * time.Millisecond,
		Loops:     c.Loops,
	}
}

// SnapshotsEnabled reports whether a snapshot directory is configured.
func (c Config) SnapshotsEnabled() bool {
	return c.Snapshot.Dir != ""
}

// ToSnapshotConfig converts the snapshot section to filesink.Config.
func (c Config) ToSnapshotConfig() filesink.Config {
	format, _ := ports.ParseImageFormat(c.Snapshot.Format)
	return filesink.Config{
		Dir:      c.Snapshot.Dir,
		Every:    c.Snapshot.Every,
		Width:    c.Snapshot.Width,
		Format:   format,
		Quality:  c.Snapshot.Quality,
		Annotate: c.Snapshot.Annotate,
		Style: ports.TextStyle{
			FontSize:   14,
			Color:      ParseColor(c.Snapshot.TextColor),
			Background: ParseColor(c.Snapshot.BackgroundColor),
		},
	}
}
