package mocks

import (
	"sync"

	"github.com/user/playdecoder/pkg/bufferpool"
	"github.com/user/playdecoder/pkg/decoder"
	"github.com/user/playdecoder/pkg/ports"
)

// Player is a mock implementation of decoder.Player.
type Player struct {
	mu sync.Mutex

	// Unavailable makes Handle report that the media is gone.
	Unavailable bool

	HandleFunc           func() (ports.PlayerHandle, bool)
	DecodeProgressedFunc func()
	DecodeEndedFunc      func()
	HandleSeekResultFunc func(buf *bufferpool.DecodeBuffer, result decoder.OptResult)

	// Recorded calls for verification
	progressed  int
	ended       int
	seekResults []SeekResultCall
}

// SeekResultCall records a call to HandleSeekResult.
type SeekResultCall struct {
	Buffer *bufferpool.DecodeBuffer
	Result decoder.OptResult
}

func (m *Player) Handle() (ports.PlayerHandle, bool) {
	if m.HandleFunc != nil {
		return m.HandleFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return nil, false
	}
	return "media", true
}

func (m *Player) DecodeProgressed() {
	m.mu.Lock()
	m.progressed++
	m.mu.Unlock()
	if m.DecodeProgressedFunc != nil {
		m.DecodeProgressedFunc()
	}
}

func (m *Player) DecodeEnded() {
	m.mu.Lock()
	m.ended++
	m.mu.Unlock()
	if m.DecodeEndedFunc != nil {
		m.DecodeEndedFunc()
	}
}

func (m *Player) HandleSeekResult(buf *bufferpool.DecodeBuffer, result decoder.OptResult) {
	m.mu.Lock()
	m.seekResults = append(m.seekResults, SeekResultCall{Buffer: buf, Result: result})
	m.mu.Unlock()
	if m.HandleSeekResultFunc != nil {
		m.HandleSeekResultFunc(buf, result)
	}
}

// SetUnavailable toggles Unavailable under the mock's lock.
func (m *Player) SetUnavailable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unavailable = v
}

// Progressed returns the number of DecodeProgressed calls.
func (m *Player) Progressed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progressed
}

// Ended returns the number of DecodeEnded calls.
func (m *Player) Ended() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// SeekResults returns the recorded HandleSeekResult calls.
func (m *Player) SeekResults() []SeekResultCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SeekResultCall(nil), m.seekResults...)
}

var _ decoder.Player = (*Player)(nil)
