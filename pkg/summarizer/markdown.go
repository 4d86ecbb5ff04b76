package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// NewMarkdownFormatter creates a formatter with untranslated labels.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
}

// WithTranslator sets the function used for every label.
func (f *MarkdownFormatter) WithTranslator(t func(string) string) *MarkdownFormatter {
	f.translate = t
	return f
}

// WithVersion adds a footer naming the generating version.
func (f *MarkdownFormatter) WithVersion(version string) *MarkdownFormatter {
	f.version = version
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Playback Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## %s\n\n", t("Media"))
	f.header(&b)
	f.row(&b, "File", s.Media.Path)
	codec := s.Media.Codec
	if codec == "" {
		codec = t("None")
	} else if s.Media.Backend != "" {
		codec = fmt.Sprintf("%s (%s)", codec, s.Media.Backend)
	}
	f.row(&b, "Video Codec", codec)
	if s.Media.AudioCodec != "" {
		f.row(&b, "Audio Codec", s.Media.AudioCodec)
	}
	if s.Media.Width > 0 {
		f.row(&b, "Resolution", fmt.Sprintf("%dx%d", s.Media.Width, s.Media.Height))
	}
	f.row(&b, "Duration", FormatMs(s.Media.DurationMs))
	f.row(&b, "Samples", fmt.Sprintf("%s / %s", humanize.Comma(int64(s.Media.VideoSamples)), humanize.Comma(int64(s.Media.AudioSamples))))
	layout := "progressive"
	if s.Media.Fragmented {
		layout = "fragmented"
	}
	f.row(&b, "Layout", t(layout))
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.header(&b)
	f.row(&b, "Buffer Pool", humanize.Comma(int64(s.Settings.PoolSize)))
	seeks := t("None")
	if len(s.Settings.Seeks) > 0 {
		parts := make([]string, len(s.Settings.Seeks))
		for i, ms := range s.Settings.Seeks {
			parts[i] = FormatMs(ms)
		}
		seeks = strings.Join(parts, ", ")
	}
	f.row(&b, "Seeks", seeks)
	f.row(&b, "Loops", humanize.Comma(int64(s.Settings.Loops)))
	snapshots := t("None")
	if s.Settings.SnapshotDir != "" {
		snapshots = s.Settings.SnapshotDir
	}
	f.row(&b, "Snapshots", snapshots)
	b.WriteString("\n")

	p := s.Playback
	fmt.Fprintf(&b, "## %s\n\n", t("Results"))
	f.header(&b)
	f.row(&b, "Session", p.SessionID)
	f.row(&b, "Video Frames", humanize.Comma(int64(p.VideoFrames)))
	f.row(&b, "Audio Frames", humanize.Comma(int64(p.AudioFrames)))
	f.row(&b, "Data", FormatBytes(p.Bytes))
	f.row(&b, "Last Frame", FormatMs(p.LastVideoMs))
	f.row(&b, "Seeks", fmt.Sprintf("%d (%d %s)", p.Seeks, p.SeekFailures, t("failed")))
	f.row(&b, "Dropped Frames", humanize.Comma(int64(p.Dropped)))
	f.row(&b, "Sink Errors", humanize.Comma(int64(p.SinkErrors)))
	f.row(&b, "Elapsed", p.Elapsed.Round(time.Millisecond).String())
	f.row(&b, "Frame Rate", fmt.Sprintf("%s fps", humanize.FtoaWithDigits(p.FramesPerSecond(), 1)))

	if f.version != "" {
		fmt.Fprintf(&b, "\n---\n%s playdecoder %s\n", t("Generated by"), f.version)
	}
	return b.String()
}

func (f *MarkdownFormatter) header(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate(label), value)
}

// FormatBytes renders a byte count in SI units, e.g. "1.0 MB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatMs renders milliseconds as seconds with millisecond precision.
func FormatMs(ms int64) string {
	return fmt.Sprintf("%.3f s", float64(ms)/1000)
}

var _ Formatter = (*MarkdownFormatter)(nil)
