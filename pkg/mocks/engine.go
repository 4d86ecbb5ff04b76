package mocks

import (
	"context"
	"sync"

	"github.com/user/playdecoder/pkg/ports"
)

// NativeBuffer is the native buffer handed out by Engine.
type NativeBuffer struct {
	Video       bool
	Audio       bool
	TimestampMs int64
	Width       int
	Height      int
	Data        []byte
}

// Engine is a mock implementation of ports.Engine.
//
// Without overrides DecodeInto returns Statuses in order and StatusEnd once
// they are used up. Successful decodes fill a video frame whose timestamp
// advances by FrameDurationMs.
type Engine struct {
	mu sync.Mutex

	Statuses        []ports.RawStatus
	SeekStatus      ports.RawStatus
	FrameDurationMs int64
	FrameWidth      int
	FrameHeight     int

	DecodeIntoFunc func(ctx context.Context, player ports.PlayerHandle, buf *NativeBuffer) ports.RawStatus
	SeekIntoFunc   func(ctx context.Context, player ports.PlayerHandle, buf *NativeBuffer, targetMs int64) ports.RawStatus

	// Recorded calls for verification
	decodeCalls int
	seekCalls   []int64
	allocated   int
	freed       int
	nextTs      int64
}

// NewEngine creates a mock engine that plays the given statuses.
func NewEngine(statuses ...ports.RawStatus) *Engine {
	return &Engine{
		Statuses:        statuses,
		FrameDurationMs: 40,
		FrameWidth:      64,
		FrameHeight:     36,
	}
}

// Load replaces the remaining statuses and restarts timestamps at zero.
func (m *Engine) Load(statuses ...ports.RawStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses = statuses
	m.nextTs = 0
}

func (m *Engine) AllocBuffer() ports.NativeBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocated++
	return &NativeBuffer{}
}

func (m *Engine) FreeBuffer(buf ports.NativeBuffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freed++
}

func (m *Engine) DecodeInto(ctx context.Context, player ports.PlayerHandle, buf ports.NativeBuffer) ports.RawStatus {
	nb := buf.(*NativeBuffer)

	m.mu.Lock()
	m.decodeCalls++
	fn := m.DecodeIntoFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, player, nb)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	status := ports.StatusEnd
	if len(m.Statuses) > 0 {
		status = m.Statuses[0]
		m.Statuses = m.Statuses[1:]
	}
	switch status {
	case ports.StatusSuccess:
		m.fillLocked(nb, m.nextTs)
		m.nextTs += m.FrameDurationMs
	case ports.StatusEnd:
		*nb = NativeBuffer{}
	}
	return status
}

func (m *Engine) SeekInto(ctx context.Context, player ports.PlayerHandle, buf ports.NativeBuffer, targetMs int64) ports.RawStatus {
	nb := buf.(*NativeBuffer)

	m.mu.Lock()
	m.seekCalls = append(m.seekCalls, targetMs)
	fn := m.SeekIntoFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, player, nb, targetMs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SeekStatus == ports.StatusSuccess {
		m.fillLocked(nb, targetMs)
		m.nextTs = targetMs + m.FrameDurationMs
	}
	return m.SeekStatus
}

func (m *Engine) fillLocked(nb *NativeBuffer, ts int64) {
	*nb = NativeBuffer{
		Video:       true,
		TimestampMs: ts,
		Width:       m.FrameWidth,
		Height:      m.FrameHeight,
		Data:        make([]byte, m.FrameWidth*m.FrameHeight*4),
	}
}

func (m *Engine) IsVideo(buf ports.NativeBuffer) bool { return buf.(*NativeBuffer).Video }
func (m *Engine) IsAudio(buf ports.NativeBuffer) bool { return buf.(*NativeBuffer).Audio }
func (m *Engine) Width(buf ports.NativeBuffer) int    { return buf.(*NativeBuffer).Width }
func (m *Engine) Height(buf ports.NativeBuffer) int   { return buf.(*NativeBuffer).Height }

func (m *Engine) VideoTimestampMs(buf ports.NativeBuffer) int64 {
	return buf.(*NativeBuffer).TimestampMs
}

func (m *Engine) AudioTimestampMs(buf ports.NativeBuffer) int64 {
	return buf.(*NativeBuffer).TimestampMs
}

func (m *Engine) VideoBytes(buf ports.NativeBuffer) []byte {
	nb := buf.(*NativeBuffer)
	if !nb.Video {
		return nil
	}
	return nb.Data
}

func (m *Engine) AudioBytes(buf ports.NativeBuffer) []byte {
	nb := buf.(*NativeBuffer)
	if !nb.Audio {
		return nil
	}
	return nb.Data
}

// DecodeCalls returns the number of DecodeInto calls.
func (m *Engine) DecodeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decodeCalls
}

// SeekCalls returns the targets of all SeekInto calls.
func (m *Engine) SeekCalls() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.seekCalls...)
}

// Allocated returns the number of allocated native buffers.
func (m *Engine) Allocated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocated
}

// Freed returns the number of freed native buffers.
func (m *Engine) Freed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.freed
}

var _ ports.Engine = (*Engine)(nil)
