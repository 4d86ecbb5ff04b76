package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts the image processing used for frame snapshots.
type Renderer interface {
	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image

	// Annotate draws a text label onto a copy of img.
	Annotate(img image.Image, text string, style TextStyle) image.Image
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	FontSize   float64
	FontPath   string
	Color      color.Color
	Background color.Color
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// ParseImageFormat parses "png" or "jpeg"/"jpg".
func ParseImageFormat(s string) (ImageFormat, bool) {
	switch s {
	case "png":
		return FormatPNG, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	default:
		return FormatPNG, false
	}
}

// Extension returns the file extension for the format.
func (f ImageFormat) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}
