package mp4engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/user/playdecoder/pkg/adapters/codecdetect"
	"github.com/user/playdecoder/pkg/adapters/framedecoder"
	"github.com/user/playdecoder/pkg/ports"
)

// ErrClosed is returned when using a closed Media.
var ErrClosed = errors.New("mp4engine: media closed")

// Options configures Open.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string

	// NewDecoder overrides frame decoder selection.
	NewDecoder func(codec codecdetect.Codec) (ports.FrameDecoder, error)
}

// Info describes an opened file.
type Info struct {
	Fragmented   bool
	Codec        codecdetect.Codec // video codec, empty without video
	Backend      framedecoder.Backend
	AudioCodec   string // sample entry type, e.g. "mp4a"
	Width        int
	Height       int
	DurationMs   int64
	VideoSamples int
	AudioSamples int
	Keyframes    int
}

// HasVideo reports whether the file has a video track.
func (i Info) HasVideo() bool { return i.Codec != "" }

// HasAudio reports whether the file has an audio track.
func (i Info) HasAudio() bool { return i.AudioCodec != "" }

// Media is an opened file and its playback cursor.
type Media struct {
	mu      sync.Mutex
	c       *container
	info    Info
	decoder ports.FrameDecoder
	started bool // decoder initialized
	cursor  int
	closed  bool
}

// Open demuxes the file at path and selects a decoder for its video track.
func Open(path string, opts Options) (*Media, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return OpenReader(f, opts)
}

// OpenReader is Open for an io.ReadSeeker. All samples are read before it
// returns, so r may be closed afterwards.
func OpenReader(r io.ReadSeeker, opts Options) (*Media, error) {
	c, err := demux(r)
	if err != nil {
		return nil, err
	}

	m := &Media{c: c, info: describe(c)}
	if c.video == nil {
		return m, nil
	}

	if opts.NewDecoder != nil {
		m.decoder, err = opts.NewDecoder(c.video.codec)
	} else {
		var info framedecoder.Info
		m.decoder, info, err = framedecoder.NewForCodec(c.video.codec, framedecoder.Options{FFmpegPath: opts.FFmpegPath})
		m.info.Backend = info.Backend
	}
	if err != nil {
		return nil, fmt.Errorf("select decoder: %w", err)
	}
	return m, nil
}

// Probe reads the structure of a file without selecting a decoder.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	c, err := demux(f)
	if err != nil {
		return Info{}, err
	}
	return describe(c), nil
}

func describe(c *container) Info {
	info := Info{Fragmented: c.fragmented}
	if c.video != nil {
		info.Codec = c.video.codec
		info.Width = c.video.width
		info.Height = c.video.height
	}
	if c.audio != nil {
		info.AudioCodec = c.audio.entry
	}
	for _, s := range c.samples {
		switch s.kind {
		case ports.KindVideo:
			info.VideoSamples++
			if s.key {
				info.Keyframes++
			}
		case ports.KindAudio:
			info.AudioSamples++
		}
		if end := s.tsMs + s.durMs; end > info.DurationMs {
			info.DurationMs = end
		}
	}
	return info
}

// Info returns the file description.
func (m *Media) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// Rewind moves the cursor back to the first sample.
func (m *Media) Rewind() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = 0
	m.stopDecoderLocked()
}

// Position returns the index of the next sample to decode.
func (m *Media) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// Close releases the frame decoder. Later decodes fail.
func (m *Media) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.stopDecoderLocked()
	return nil
}

func (m *Media) stopDecoderLocked() {
	if m.started {
		m.decoder.Close()
		m.started = false
	}
}

func (m *Media) startDecoderLocked() error {
	if m.decoder == nil {
		return framedecoder.ErrNoDecoderAvailable
	}
	if m.started {
		return nil
	}
	if err := m.decoder.Init(); err != nil {
		return err
	}
	m.started = true
	return nil
}

func (m *Media) decodeNext(ctx context.Context, f *Frame) ports.RawStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || ctx.Err() != nil {
		return ports.StatusFail
	}
	if m.cursor >= len(m.c.samples) {
		f.reset()
		return ports.StatusEnd
	}

	s := m.c.samples[m.cursor]
	m.cursor++

	if s.kind == ports.KindAudio {
		f.setAudio(s.data, s.tsMs)
		return ports.StatusSuccess
	}

	if err := m.startDecoderLocked(); err != nil {
		return ports.StatusFail
	}
	img, err := m.decoder.DecodeFrame(s.data)
	if err != nil || img == nil {
		return ports.StatusFail
	}
	f.setVideo(img, s.tsMs)
	return ports.StatusSuccess
}

// seek decodes from the last keyframe at or before targetMs up to the first
// video frame at or after it. Audio-only media jump to the first audio
// sample at or after targetMs.
func (m *Media) seek(ctx context.Context, f *Frame, targetMs int64) ports.RawStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || ctx.Err() != nil {
		return ports.StatusFail
	}

	if m.c.video == nil {
		idx := m.indexAtOrAfter(ports.KindAudio, targetMs)
		if idx < 0 {
			return ports.StatusFail
		}
		f.setAudio(m.c.samples[idx].data, m.c.samples[idx].tsMs)
		m.cursor = idx + 1
		return ports.StatusSuccess
	}

	idx := m.indexAtOrAfter(ports.KindVideo, targetMs)
	if idx < 0 {
		idx = m.lastIndex(ports.KindVideo)
	}
	if idx < 0 {
		return ports.StatusFail
	}
	key := m.keyframeAtOrBefore(idx)

	m.stopDecoderLocked()
	if err := m.startDecoderLocked(); err != nil {
		return ports.StatusFail
	}

	var last int = -1
	for i := key; i <= idx; i++ {
		s := m.c.samples[i]
		if s.kind != ports.KindVideo {
			continue
		}
		if ctx.Err() != nil {
			m.stopDecoderLocked()
			return ports.StatusFail
		}
		img, err := m.decoder.DecodeFrame(s.data)
		if err != nil || img == nil {
			continue
		}
		f.setVideo(img, s.tsMs)
		last = i
	}
	if last != idx {
		m.stopDecoderLocked()
		return ports.StatusFail
	}

	m.cursor = idx + 1
	return ports.StatusSuccess
}

func (m *Media) indexAtOrAfter(kind ports.MediaKind, targetMs int64) int {
	for i, s := range m.c.samples {
		if s.kind == kind && s.tsMs >= targetMs {
			return i
		}
	}
	return -1
}

func (m *Media) lastIndex(kind ports.MediaKind) int {
	for i := len(m.c.samples) - 1; i >= 0; i-- {
		if m.c.samples[i].kind == kind {
			return i
		}
	}
	return -1
}

func (m *Media) keyframeAtOrBefore(idx int) int {
	first := -1
	for i := idx; i >= 0; i-- {
		s := m.c.samples[i]
		if s.kind != ports.KindVideo {
			continue
		}
		if s.key {
			return i
		}
		first = i
	}
	return first
}
