// Package framedecoder selects a frame decoder for a video codec.
package framedecoder

import (
	"errors"
	"fmt"

	"github.com/user/playdecoder/pkg/adapters/av1decoder"
	"github.com/user/playdecoder/pkg/adapters/codecdetect"
	"github.com/user/playdecoder/pkg/adapters/h264decoder"
	"github.com/user/playdecoder/pkg/ports"
)

// Codec represents the video codec type (re-exported from codecdetect).
type Codec = codecdetect.Codec

const (
	CodecH264    = codecdetect.CodecH264
	CodecAV1     = codecdetect.CodecAV1
	CodecUnknown = codecdetect.CodecUnknown
)

// Backend represents the decoding backend used.
type Backend string

const (
	// BackendFFmpeg decodes H.264 through an ffmpeg process.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendLibaom decodes AV1 with libaom.
	BackendLibaom Backend = "libaom"
)

// Info describes the selected decoder.
type Info struct {
	Codec   Codec
	Backend Backend
}

// Options configures decoder selection.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
}

var (
	// ErrUnsupportedCodec is returned when the codec is not supported.
	ErrUnsupportedCodec = errors.New("framedecoder: unsupported codec")
	// ErrNoDecoderAvailable is returned when no decoder is available for the codec.
	ErrNoDecoderAvailable = errors.New("framedecoder: no decoder available")
)

// NewForCodec creates an uninitialized decoder for codec.
//
// The selection flow:
//   - AV1: libaom
//   - H.264: ffmpeg, which must be reachable
func NewForCodec(codec Codec, opts Options) (ports.FrameDecoder, Info, error) {
	if opts.FFmpegPath != "" {
		h264decoder.SetFFmpegPath(opts.FFmpegPath)
	}

	switch codec {
	case CodecAV1:
		return av1decoder.New(), Info{Codec: CodecAV1, Backend: BackendLibaom}, nil

	case CodecH264:
		if !h264decoder.IsAvailable() {
			return nil, Info{}, fmt.Errorf("%w: %s needs ffmpeg", ErrNoDecoderAvailable, codec)
		}
		return h264decoder.New(), Info{Codec: CodecH264, Backend: BackendFFmpeg}, nil

	default:
		return nil, Info{}, fmt.Errorf("%w: %s", ErrUnsupportedCodec, codec)
	}
}

// IsH264Available checks if H.264 decoding is available.
func IsH264Available() bool {
	return h264decoder.IsAvailable()
}

// IsAV1Available always returns true (libaom is always linked).
func IsAV1Available() bool {
	return true
}
