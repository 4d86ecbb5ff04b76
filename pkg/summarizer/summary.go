// Package summarizer renders playback reports.
package summarizer

import "time"

// Summary contains the data collected during one playback.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input file
	Media MediaInfo

	// Decoder and script settings
	Settings Settings

	// Playback results
	Playback PlaybackInfo
}

// MediaInfo describes the played file.
type MediaInfo struct {
	Path         string
	Codec        string
	Backend      string
	AudioCodec   string
	Width        int
	Height       int
	DurationMs   int64
	VideoSamples int
	AudioSamples int
	Fragmented   bool
}

// Settings contains the playback configuration.
type Settings struct {
	PoolSize    int
	Seeks       []int64
	Loops       int
	SnapshotDir string // empty when snapshots are disabled
}

// PlaybackInfo contains the counters of the session.
type PlaybackInfo struct {
	SessionID    string
	VideoFrames  int
	AudioFrames  int
	Bytes        int64
	LastVideoMs  int64
	Seeks        int
	SeekFailures int
	Dropped      int
	SinkErrors   int
	Elapsed      time.Duration
}

// FramesPerSecond returns the rendered video frame rate.
func (p PlaybackInfo) FramesPerSecond() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.VideoFrames) / p.Elapsed.Seconds()
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithMedia sets the input file description.
func (b *Builder) WithMedia(media MediaInfo) *Builder {
	b.summary.Media = media
	return b
}

// WithSettings sets playback settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithPlayback sets the session counters.
func (b *Builder) WithPlayback(playback PlaybackInfo) *Builder {
	b.summary.Playback = playback
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
