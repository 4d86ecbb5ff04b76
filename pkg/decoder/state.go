// Package decoder runs the asynchronous decode loop of a player.
//
// An Actor owns one worker goroutine and a bounded buffer pool. Callers
// post commands (prepare, decode, pause, seek, release) that the worker
// executes in order; none of the exported methods block.
package decoder

import (
	"errors"

	"github.com/user/playdecoder/pkg/bufferpool"
	"github.com/user/playdecoder/pkg/ports"
)

// State is the lifecycle state of an Actor.
type State int32

const (
	StateNotInit State = iota
	StatePrepared
	StateDecoding
	StatePaused
	StateWaitingRender
	StateDecodingEnd
	StateReleased
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotInit:
		return "NotInit"
	case StatePrepared:
		return "Prepared"
	case StateDecoding:
		return "Decoding"
	case StatePaused:
		return "Paused"
	case StateWaitingRender:
		return "WaitingRender"
	case StateDecodingEnd:
		return "DecodingEnd"
	case StateReleased:
		return "Released"
	default:
		return "unknown"
	}
}

// DecodeResult classifies a raw decode status.
type DecodeResult int

const (
	ResultSuccess DecodeResult = iota
	ResultDecodingEnd
	ResultFail
)

// String returns the string representation of the result.
func (r DecodeResult) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultDecodingEnd:
		return "DecodingEnd"
	default:
		return "Fail"
	}
}

// ResultFromRaw maps 0 to Success, 1 to DecodingEnd and anything else to Fail.
func ResultFromRaw(raw ports.RawStatus) DecodeResult {
	switch raw {
	case ports.StatusSuccess:
		return ResultSuccess
	case ports.StatusEnd:
		return ResultDecodingEnd
	default:
		return ResultFail
	}
}

// OptResult classifies a raw seek status.
type OptResult int

const (
	OptSuccess OptResult = iota
	OptFail
)

// String returns the string representation of the result.
func (r OptResult) String() string {
	if r == OptSuccess {
		return "Success"
	}
	return "Fail"
}

// OptResultFromRaw maps 0 to Success and anything else to Fail.
func OptResultFromRaw(raw ports.RawStatus) OptResult {
	if raw == ports.StatusSuccess {
		return OptSuccess
	}
	return OptFail
}

// ErrEngineUnavailable is logged when the player no longer has an engine handle.
var ErrEngineUnavailable = errors.New("decoder: engine unavailable")

// Player is the callback surface of the player that owns an Actor.
//
// Callbacks run on the actor goroutine and must not block on the actor.
type Player interface {
	// Handle returns the engine handle, or false once the media is gone.
	Handle() (ports.PlayerHandle, bool)

	// DecodeProgressed is called after each frame published to the ready queue.
	DecodeProgressed()

	// DecodeEnded is called once the end-of-stream buffer has been published.
	DecodeEnded()

	// HandleSeekResult receives the buffer filled by a seek. On OptSuccess the
	// player owns buf and must return it to the pool once rendered. On OptFail
	// the actor returns it after the call. A seek rejected before a buffer
	// was acquired reports OptFail with a nil buf.
	HandleSeekResult(buf *bufferpool.DecodeBuffer, result OptResult)
}

// Config configures an Actor.
type Config struct {
	PoolSize int // number of decode buffers; bufferpool.DefaultSize when zero
}
