// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/playdecoder/pkg/ports"
)

const labelPadding = 4.0

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resizes an image to the specified dimensions.
// A zero height keeps the aspect ratio of img.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if height <= 0 && b.Dx() > 0 {
		height = max(1, b.Dy()*width/b.Dx())
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Annotate draws text on a filled box in the bottom-left corner of a copy of img.
func (r *Renderer) Annotate(img image.Image, text string, style ports.TextStyle) image.Image {
	dc := gg.NewContextForImage(img)

	if style.FontPath != "" && style.FontSize > 0 {
		// The built-in face is kept when the font cannot be loaded.
		_ = dc.LoadFontFace(style.FontPath, style.FontSize)
	}

	w, h := dc.MeasureString(text)
	y := float64(dc.Height()) - h - 2*labelPadding

	if style.Background != nil {
		dc.SetColor(style.Background)
		dc.DrawRectangle(0, y, w+2*labelPadding, h+2*labelPadding)
		dc.Fill()
	}

	fg := style.Color
	if fg == nil {
		fg = color.White
	}
	dc.SetColor(fg)
	dc.DrawStringAnchored(text, labelPadding, y+labelPadding+h/2, 0, 0.5)

	return dc.Image()
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)
