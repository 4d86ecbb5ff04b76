package ports

import (
	"context"
)

// MediaKind tells what a decoded frame carries.
type MediaKind int

const (
	KindOther MediaKind = iota
	KindVideo
	KindAudio
)

// String returns the string representation of the media kind.
func (k MediaKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "other"
	}
}

// Frame is a consumer-owned copy of a decoded buffer.
type Frame struct {
	Kind        MediaKind
	TimestampMs int64
	Width       int
	Height      int
	Data        []byte // RGBA pixels for video, coded payload for audio
	Seek        bool   // true for the frame produced by a seek
}

// FrameSink consumes decoded frames on the render side.
type FrameSink interface {
	// Consume handles one frame. The sink may keep frame.Data.
	Consume(ctx context.Context, frame Frame) error

	// Close flushes and releases the sink.
	Close() error
}
