package ports

import (
	"image"
)

// FrameDecoder abstracts a single-frame video codec.
type FrameDecoder interface {
	// Init prepares the decoder. It is called again after Close to restart
	// decoding from a keyframe.
	Init() error

	// DecodeFrame decodes one coded sample. A nil image with a nil error
	// means the decoder needs more input.
	DecodeFrame(data []byte) (image.Image, error)

	// Close releases decoder resources.
	Close()
}
