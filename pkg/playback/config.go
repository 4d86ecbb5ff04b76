// Package playback runs a decoder.Actor against a media handle and consumes
// its ready buffers into a ports.FrameSink.
package playback

import (
	"time"

	"github.com/user/playdecoder/pkg/decoder"
)

// Config contains the playback script of a Session.
type Config struct {
	Decoder decoder.Config

	// Seeks are issued in order. Each one waits until SeekEvery video frames
	// have been rendered since the start or since the previous seek frame.
	Seeks     []int64
	SeekEvery int

	// PauseAtMs pauses decoding once when a rendered video frame reaches it.
	// Zero disables the pause.
	PauseAtMs int64
	PauseFor  time.Duration

	// Loops replays the media this many extra times. The handle must
	// implement Rewinder.
	Loops int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		SeekEvery: 5,
	}
}

// Rewinder is implemented by handles that can restart from the beginning.
type Rewinder interface {
	Rewind()
}
