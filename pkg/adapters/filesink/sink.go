// Package filesink saves decoded video frames as image snapshots.
package filesink

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/user/playdecoder/pkg/ports"
)

// ErrClosed is returned by Consume after Close.
var ErrClosed = errors.New("filesink: closed")

// Config controls which frames are saved and how.
type Config struct {
	Dir      string
	Every    int // save every Nth video frame; 1 when zero
	Width    int // resize width, 0 keeps the frame size
	Format   ports.ImageFormat
	Quality  int
	Annotate bool // draw the timestamp on the snapshot
	Style    ports.TextStyle
}

// Sink writes every Nth video frame to Config.Dir.
// Seek frames are always saved. Audio frames are ignored.
type Sink struct {
	cfg      Config
	fs       ports.FileSystem
	renderer ports.Renderer
	logger   ports.Logger

	mu     sync.Mutex
	seen   int
	saved  []string
	closed bool
}

// New creates a new snapshot sink.
func New(cfg Config, fs ports.FileSystem, renderer ports.Renderer, logger ports.Logger) *Sink {
	if cfg.Every <= 0 {
		cfg.Every = 1
	}
	return &Sink{
		cfg:      cfg,
		fs:       fs,
		renderer: renderer,
		logger:   logger.WithComponent("snapshot"),
	}
}

// Consume saves frame when it is due.
func (s *Sink) Consume(ctx context.Context, frame ports.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if frame.Kind != ports.KindVideo {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	n := s.seen
	s.seen++
	s.mu.Unlock()

	if n%s.cfg.Every != 0 && !frame.Seek {
		return nil
	}

	img, err := toImage(frame)
	if err != nil {
		return err
	}
	if s.cfg.Width > 0 && s.cfg.Width != frame.Width {
		img = s.renderer.ResizeImage(img, s.cfg.Width, 0)
	}
	if s.cfg.Annotate {
		img = s.renderer.Annotate(img, FormatTimestamp(frame.TimestampMs), s.cfg.Style)
	}

	data, err := s.renderer.EncodeImage(img, s.cfg.Format, s.cfg.Quality)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path := filepath.Join(s.cfg.Dir, fmt.Sprintf("frame-%06d-%08dms.%s", n, frame.TimestampMs, s.cfg.Format.Extension()))
	if err := s.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.logger.Debug("Wrote snapshot %s", path)

	s.mu.Lock()
	s.saved = append(s.saved, path)
	s.mu.Unlock()
	return nil
}

// Saved returns the paths written so far.
func (s *Sink) Saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saved...)
}

// Close stops accepting frames.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FormatTimestamp renders milliseconds as mm:ss.mmm.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}

func toImage(frame ports.Frame) (image.Image, error) {
	if frame.Width <= 0 || frame.Height <= 0 || len(frame.Data) < frame.Width*frame.Height*4 {
		return nil, fmt.Errorf("filesink: invalid frame %dx%d with %d bytes", frame.Width, frame.Height, len(frame.Data))
	}
	return &image.RGBA{
		Pix:    frame.Data,
		Stride: frame.Width * 4,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}, nil
}

var _ ports.FrameSink = (*Sink)(nil)
