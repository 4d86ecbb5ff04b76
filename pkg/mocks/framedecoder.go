package mocks

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/user/playdecoder/pkg/ports"
)

// ErrFrameDecoderClosed is returned by FrameDecoder.DecodeFrame before Init.
var ErrFrameDecoderClosed = errors.New("mock frame decoder not initialized")

// FrameDecoder is a mock implementation of ports.FrameDecoder.
// By default each sample decodes to a Width x Height image whose red
// channel is the first byte of the sample.
type FrameDecoder struct {
	mu sync.Mutex

	Width  int
	Height int

	InitFunc        func() error
	DecodeFrameFunc func(data []byte) (image.Image, error)

	// Recorded calls for verification
	inits   int
	closes  int
	decoded [][]byte
	open    bool
}

// NewFrameDecoder creates a mock decoder producing w x h images.
func NewFrameDecoder(w, h int) *FrameDecoder {
	return &FrameDecoder{Width: w, Height: h}
}

func (m *FrameDecoder) Init() error {
	m.mu.Lock()
	m.inits++
	m.mu.Unlock()
	if m.InitFunc != nil {
		if err := m.InitFunc(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.open = true
	m.mu.Unlock()
	return nil
}

func (m *FrameDecoder) DecodeFrame(data []byte) (image.Image, error) {
	m.mu.Lock()
	open := m.open
	m.decoded = append(m.decoded, append([]byte(nil), data...))
	w, h := m.Width, m.Height
	m.mu.Unlock()

	if !open {
		return nil, ErrFrameDecoderClosed
	}
	if m.DecodeFrameFunc != nil {
		return m.DecodeFrameFunc(data)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var red uint8
	if len(data) > 0 {
		red = data[0]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: red, A: 255})
		}
	}
	return img, nil
}

func (m *FrameDecoder) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	m.open = false
}

// Inits returns the number of Init calls.
func (m *FrameDecoder) Inits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits
}

// Decoded returns the samples passed to DecodeFrame.
func (m *FrameDecoder) Decoded() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.decoded...)
}

var _ ports.FrameDecoder = (*FrameDecoder)(nil)
