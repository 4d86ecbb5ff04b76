// Package main provides the CLI entry point for playdecoder.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/playdecoder/pkg/adapters/filesink"
	"github.com/user/playdecoder/pkg/adapters/ggrenderer"
	"github.com/user/playdecoder/pkg/adapters/logger"
	"github.com/user/playdecoder/pkg/adapters/mp4engine"
	"github.com/user/playdecoder/pkg/adapters/nullsink"
	"github.com/user/playdecoder/pkg/adapters/osfilesystem"
	"github.com/user/playdecoder/pkg/config"
	"github.com/user/playdecoder/pkg/playback"
	"github.com/user/playdecoder/pkg/ports"
	"github.com/user/playdecoder/pkg/summarizer"
)

var version = "dev"

// Flag categories
var (
	categoryInput    = "Input"
	categoryPlayback = "Playback"
	categorySnapshot = "Snapshots"
	categoryOutput   = "Output"
	categoryLogging  = "Logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "playdecoder",
		Usage:   l10n.T("Decode and play MP4 files through a bounded buffer pool"),
		Version: version,
		Description: l10n.T("playdecoder decodes the video and audio samples of an MP4 file on a background decoder, " +
			"renders them in order and reports what was played."),
		Commands: []*cli.Command{
			{
				Name:      "play",
				Usage:     l10n.T("Play a media file"),
				ArgsUsage: "<file>",
				Flags:     playFlags(),
				Action:    playAction,
			},
			{
				Name:      "probe",
				Usage:     l10n.T("Show the structure of a media file"),
				ArgsUsage: "<file>",
				Action:    probeAction,
			},
		},
	}
}

func playFlags() []cli.Flag {
	return []cli.Flag{
		// Input
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T(categoryInput), Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "ffmpeg-path", Category: l10n.T(categoryInput), Usage: l10n.T("Path to the ffmpeg binary used for H.264")},

		// Playback
		&cli.IntFlag{Name: "pool-size", Aliases: []string{"p"}, Category: l10n.T(categoryPlayback), Usage: l10n.T("Number of decode buffers")},
		&cli.Int64SliceFlag{Name: "seek", Aliases: []string{"s"}, Category: l10n.T(categoryPlayback), Usage: l10n.T("Seek to this position in milliseconds (repeatable)")},
		&cli.IntFlag{Name: "seek-every", Category: l10n.T(categoryPlayback), Usage: l10n.T("Video frames to render between seeks")},
		&cli.Int64Flag{Name: "pause-at", Category: l10n.T(categoryPlayback), Usage: l10n.T("Pause once at this position in milliseconds")},
		&cli.DurationFlag{Name: "pause-for", Category: l10n.T(categoryPlayback), Usage: l10n.T("How long to stay paused")},
		&cli.IntFlag{Name: "loops", Category: l10n.T(categoryPlayback), Usage: l10n.T("Replay the file this many extra times")},

		// Snapshots
		&cli.StringFlag{Name: "snapshot-dir", Category: l10n.T(categorySnapshot), Usage: l10n.T("Directory for frame snapshots (disabled when empty)")},
		&cli.IntFlag{Name: "snapshot-every", Category: l10n.T(categorySnapshot), Usage: l10n.T("Save every Nth video frame")},
		&cli.IntFlag{Name: "snapshot-width", Category: l10n.T(categorySnapshot), Usage: l10n.T("Snapshot width in pixels (0 keeps the frame size)")},
		&cli.StringFlag{Name: "snapshot-format", Category: l10n.T(categorySnapshot), Usage: l10n.T("Snapshot image format (png, jpeg)")},

		// Output
		&cli.StringFlag{Name: "summary", Category: l10n.T(categoryOutput), Usage: l10n.T("Write a Markdown playback summary to this file")},

		// Logging
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T(categoryLogging), Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Category: l10n.T(categoryLogging), Usage: l10n.T("Suppress all log output")},
	}
}

// loadConfig reads the configuration file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("pool-size") {
		cfg.PoolSize = c.Int("pool-size")
	}
	if c.IsSet("seek") {
		cfg.Seeks = c.Int64Slice("seek")
	}
	if c.IsSet("seek-every") {
		cfg.SeekEvery = c.Int("seek-every")
	}
	if c.IsSet("pause-at") {
		cfg.PauseMs = c.Int64("pause-at")
	}
	if c.IsSet("pause-for") {
		cfg.PauseForMs = c.Duration("pause-for").Milliseconds()
	}
	if c.IsSet("loops") {
		cfg.Loops = c.Int("loops")
	}
	if c.IsSet("snapshot-dir") {
		cfg.Snapshot.Dir = c.String("snapshot-dir")
	}
	if c.IsSet("snapshot-every") {
		cfg.Snapshot.Every = c.Int("snapshot-every")
	}
	if c.IsSet("snapshot-width") {
		cfg.Snapshot.Width = c.Int("snapshot-width")
	}
	if c.IsSet("snapshot-format") {
		cfg.Snapshot.Format = c.String("snapshot-format")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func playAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit(l10n.T("Missing media file"), 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Create logger
	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(cfg.LogLevelValue())
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	media, err := mp4engine.Open(path, mp4engine.Options{FFmpegPath: cfg.FFmpegPath})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer media.Close()

	info := media.Info()
	log.Info("Opened %s: %s %dx%d, %d ms", path, string(info.Codec), info.Width, info.Height, info.DurationMs)

	fs := osfilesystem.New()
	var sink ports.FrameSink
	if cfg.SnapshotsEnabled() {
		if err := fs.MkdirAll(cfg.Snapshot.Dir); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
		sink = filesink.New(cfg.ToSnapshotConfig(), fs, ggrenderer.New(), log)
	} else {
		sink = nullsink.New()
	}
	defer sink.Close()

	session := playback.New(media, mp4engine.NewEngine(), sink, log, cfg.ToPlaybackConfig())
	result, runErr := session.Run(ctx)

	printResult(c.App.Writer, result)

	if out := c.String("summary"); out != "" {
		writer := summarizer.NewWriter(
			summarizer.NewMarkdownFormatter().WithTranslator(l10n.T).WithVersion(version),
			fs,
		)
		if err := writer.Write(out, buildSummary(path, info, cfg, result)); err != nil {
			return err
		}
		log.Info("Summary saved to %s", out)
	}

	return runErr
}

func probeAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit(l10n.T("Missing media file"), 2)
	}

	info, err := mp4engine.Probe(path)
	if err != nil {
		return fmt.Errorf("probe %s: %w", path, err)
	}
	printInfo(c.App.Writer, path, info)
	return nil
}

func printInfo(w io.Writer, path string, info mp4engine.Info) {
	layout := l10n.T("progressive")
	if info.Fragmented {
		layout = l10n.T("fragmented")
	}
	fmt.Fprintf(w, "%s (%s)\n", path, layout)
	if info.HasVideo() {
		fmt.Fprintln(w, l10n.F("  video: %s %dx%d, %s samples, %s keyframes",
			string(info.Codec), info.Width, info.Height,
			humanize.Comma(int64(info.VideoSamples)), humanize.Comma(int64(info.Keyframes))))
	}
	if info.HasAudio() {
		fmt.Fprintln(w, l10n.F("  audio: %s, %s samples", info.AudioCodec, humanize.Comma(int64(info.AudioSamples))))
	}
	fmt.Fprintln(w, l10n.F("  duration: %s", summarizer.FormatMs(info.DurationMs)))
}

func printResult(w io.Writer, s playback.Summary) {
	fmt.Fprintln(w, l10n.F("Played %s video and %s audio frames (%s) in %s",
		humanize.Comma(int64(s.VideoFrames)), humanize.Comma(int64(s.AudioFrames)),
		summarizer.FormatBytes(s.Bytes), s.Elapsed.Round(time.Millisecond)))
	if s.Seeks > 0 || s.Loops > 0 || s.Pauses > 0 {
		fmt.Fprintln(w, l10n.F("Seeks: %d (%d failed), dropped frames: %d, pauses: %d, loops: %d",
			s.Seeks, s.SeekFailures, s.Dropped, s.Pauses, s.Loops))
	}
	if s.SinkErrors > 0 {
		fmt.Fprintln(w, l10n.F("Sink errors: %d", s.SinkErrors))
	}
}

func buildSummary(path string, info mp4engine.Info, cfg config.Config, s playback.Summary) *summarizer.Summary {
	return summarizer.NewBuilder().
		WithMedia(summarizer.MediaInfo{
			Path:         path,
			Codec:        string(info.Codec),
			Backend:      string(info.Backend),
			AudioCodec:   info.AudioCodec,
			Width:        info.Width,
			Height:       info.Height,
			DurationMs:   info.DurationMs,
			VideoSamples: info.VideoSamples,
			AudioSamples: info.AudioSamples,
			Fragmented:   info.Fragmented,
		}).
		WithSettings(summarizer.Settings{
			PoolSize:    cfg.PoolSize,
			Seeks:       cfg.Seeks,
			Loops:       cfg.Loops,
			SnapshotDir: cfg.Snapshot.Dir,
		}).
		WithPlayback(summarizer.PlaybackInfo{
			SessionID:    s.SessionID,
			VideoFrames:  s.VideoFrames,
			AudioFrames:  s.AudioFrames,
			Bytes:        s.Bytes,
			LastVideoMs:  s.LastVideoMs,
			Seeks:        s.Seeks,
			SeekFailures: s.SeekFailures,
			Dropped:      s.Dropped,
			SinkErrors:   s.SinkErrors,
			Elapsed:      s.Elapsed,
		}).
		Build()
}
