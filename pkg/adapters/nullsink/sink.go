// Package nullsink provides a frame sink that only counts what it receives.
package nullsink

import (
	"context"

	"go.uber.org/atomic"

	"github.com/user/playdecoder/pkg/ports"
)

// Sink discards frames and keeps counters.
type Sink struct {
	video  atomic.Int64
	audio  atomic.Int64
	bytes  atomic.Int64
	lastTs atomic.Int64
}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Consume counts frame.
func (s *Sink) Consume(ctx context.Context, frame ports.Frame) error {
	switch frame.Kind {
	case ports.KindVideo:
		s.video.Inc()
		s.lastTs.Store(frame.TimestampMs)
	case ports.KindAudio:
		s.audio.Inc()
	}
	s.bytes.Add(int64(len(frame.Data)))
	return nil
}

// Close does nothing.
func (s *Sink) Close() error {
	return nil
}

// VideoFrames returns the number of video frames consumed.
func (s *Sink) VideoFrames() int64 { return s.video.Load() }

// AudioFrames returns the number of audio frames consumed.
func (s *Sink) AudioFrames() int64 { return s.audio.Load() }

// Bytes returns the total payload size consumed.
func (s *Sink) Bytes() int64 { return s.bytes.Load() }

// LastVideoTimestampMs returns the timestamp of the latest video frame.
func (s *Sink) LastVideoTimestampMs() int64 { return s.lastTs.Load() }

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)
