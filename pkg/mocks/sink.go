package mocks

import (
	"context"
	"sync"

	"github.com/user/playdecoder/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	mu sync.Mutex

	ConsumeFunc func(ctx context.Context, frame ports.Frame) error
	CloseFunc   func() error

	// Recorded calls for verification
	frames []ports.Frame
	closed bool
}

func (m *FrameSink) Consume(ctx context.Context, frame ports.Frame) error {
	m.mu.Lock()
	m.frames = append(m.frames, frame)
	m.mu.Unlock()
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, frame)
	}
	return nil
}

func (m *FrameSink) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Frames returns the consumed frames.
func (m *FrameSink) Frames() []ports.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Frame(nil), m.frames...)
}

// VideoTimestamps returns the timestamps of consumed video frames.
func (m *FrameSink) VideoTimestamps() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts []int64
	for _, f := range m.frames {
		if f.Kind == ports.KindVideo {
			ts = append(ts, f.TimestampMs)
		}
	}
	return ts
}

// Closed reports whether Close was called.
func (m *FrameSink) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ ports.FrameSink = (*FrameSink)(nil)
