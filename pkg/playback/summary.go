package playback

import "time"

// Summary holds the counters of a finished or running Session.
type Summary struct {
	SessionID string

	VideoFrames  int
	AudioFrames  int
	EmptyFrames  int // end-of-stream buffers
	Bytes        int64
	LastVideoMs  int64
	Seeks        int
	SeekFailures int
	Dropped      int // stale ready buffers discarded by seeks
	SinkErrors   int
	Pauses       int
	Loops        int

	Elapsed time.Duration
}

// Frames returns the number of video and audio frames delivered to the sink.
func (s Summary) Frames() int {
	return s.VideoFrames + s.AudioFrames
}
