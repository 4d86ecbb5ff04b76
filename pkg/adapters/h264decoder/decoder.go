// Package h264decoder decodes H.264 access units through an external ffmpeg
// process.
//
// The decoder keeps the coded group of pictures since the last IDR frame so
// predicted frames can be reconstructed.
package h264decoder

import (
	"errors"
	"image"
	"sync"

	"github.com/user/playdecoder/pkg/ports"
)

var (
	// ErrNotInitialized is returned when decoder methods are called before initialization.
	ErrNotInitialized = errors.New("h264decoder: decoder not initialized")

	// ErrDecodeFailed is returned when decoding a frame fails.
	ErrDecodeFailed = errors.New("h264decoder: decode failed")

	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = errors.New("h264decoder: ffmpeg not found in PATH")
)

var (
	pathMu           sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath overrides the ffmpeg binary used by new decoders.
// An empty path restores the PATH lookup.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpegPath = path
}

func ffmpegPathOverride() string {
	pathMu.RLock()
	defer pathMu.RUnlock()
	return customFFmpegPath
}

// IsAvailable reports whether an ffmpeg binary can be found.
func IsAvailable() bool {
	_, err := findFFmpeg()
	return err == nil
}

// Decoder decodes Annex B H.264 access units.
type Decoder struct {
	mu          sync.Mutex
	ffmpegPath  string
	gop         []byte
	initialized bool
}

// New creates a new H.264 decoder.
func New() *Decoder {
	return &Decoder{}
}

// Init locates ffmpeg and clears the coded picture history.
func (d *Decoder) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, err := findFFmpeg()
	if err != nil {
		return err
	}
	d.ffmpegPath = path
	d.gop = d.gop[:0]
	d.initialized = true
	return nil
}

// DecodeFrame decodes one Annex B access unit and returns the picture it
// produces.
func (d *Decoder) DecodeFrame(data []byte) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, ErrNotInitialized
	}
	if len(data) == 0 {
		return nil, ErrDecodeFailed
	}

	if isIDR(data) {
		d.gop = d.gop[:0]
	}
	d.gop = append(d.gop, data...)

	return runFFmpeg(d.ffmpegPath, d.gop)
}

// Close releases decoder resources.
func (d *Decoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	d.gop = nil
}

// isIDR reports whether an Annex B access unit contains an IDR slice or a
// sequence parameter set.
func isIDR(data []byte) bool {
	for i := 0; i+3 < len(data); i++ {
		if data[i] != 0 || data[i+1] != 0 {
			continue
		}
		var header int
		switch {
		case data[i+2] == 1:
			header = i + 3
		case data[i+2] == 0 && data[i+3] == 1 && i+4 < len(data):
			header = i + 4
		default:
			continue
		}
		switch data[header] & 0x1F {
		case 5, 7:
			return true
		}
		i = header
	}
	return false
}

var _ ports.FrameDecoder = (*Decoder)(nil)
