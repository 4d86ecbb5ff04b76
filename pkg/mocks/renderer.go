package mocks

import (
	"image"
	"sync"

	"github.com/user/playdecoder/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	mu sync.Mutex

	EncodeImageFunc func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc func(img image.Image, width, height int) image.Image
	AnnotateFunc    func(img image.Image, text string, style ports.TextStyle) image.Image

	// Recorded calls for verification
	encoded     []ports.ImageFormat
	annotations []string
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	m.mu.Lock()
	m.encoded = append(m.encoded, format)
	m.mu.Unlock()
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte(format.Extension()), nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func (m *Renderer) Annotate(img image.Image, text string, style ports.TextStyle) image.Image {
	m.mu.Lock()
	m.annotations = append(m.annotations, text)
	m.mu.Unlock()
	if m.AnnotateFunc != nil {
		return m.AnnotateFunc(img, text, style)
	}
	return img
}

// Encoded returns the formats passed to EncodeImage.
func (m *Renderer) Encoded() []ports.ImageFormat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ImageFormat(nil), m.encoded...)
}

// Annotations returns the labels passed to Annotate.
func (m *Renderer) Annotations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.annotations...)
}

var _ ports.Renderer = (*Renderer)(nil)
