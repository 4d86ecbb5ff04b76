// Package mp4engine implements ports.Engine on top of MP4 files.
//
// A *Media returned by Open is the player handle; *Frame values are the
// native buffers. Video samples are decoded to RGBA through a
// ports.FrameDecoder, audio samples are delivered as coded payloads.
package mp4engine

import (
	"context"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/playdecoder/pkg/ports"
)

// Frame is the native buffer filled by the engine.
type Frame struct {
	kind        ports.MediaKind
	timestampMs int64
	width       int
	height      int
	pix         []byte
	audio       []byte
}

func (f *Frame) reset() {
	f.kind = ports.KindOther
	f.timestampMs = 0
	f.width, f.height = 0, 0
	f.pix = f.pix[:0]
	f.audio = f.audio[:0]
}

// setVideo copies img into the frame's RGBA storage, reusing it when large enough.
func (f *Frame) setVideo(img image.Image, tsMs int64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n := w * h * 4
	if cap(f.pix) < n {
		f.pix = make([]byte, n)
	}
	f.pix = f.pix[:n]

	if src, ok := img.(*image.RGBA); ok && src.Stride == w*4 && b.Min == (image.Point{}) {
		copy(f.pix, src.Pix[:n])
	} else {
		dst := &image.RGBA{Pix: f.pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	}

	f.kind = ports.KindVideo
	f.timestampMs = tsMs
	f.width, f.height = w, h
	f.audio = f.audio[:0]
}

func (f *Frame) setAudio(data []byte, tsMs int64) {
	f.kind = ports.KindAudio
	f.timestampMs = tsMs
	f.width, f.height = 0, 0
	f.audio = append(f.audio[:0], data...)
	f.pix = f.pix[:0]
}

// Engine adapts Media handles and Frame buffers to ports.Engine.
type Engine struct{}

// NewEngine creates an engine.
func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) AllocBuffer() ports.NativeBuffer {
	return &Frame{}
}

func (e *Engine) FreeBuffer(buf ports.NativeBuffer) {
	if f, ok := buf.(*Frame); ok {
		*f = Frame{}
	}
}

// DecodeInto fills buf with the next sample of the media.
func (e *Engine) DecodeInto(ctx context.Context, player ports.PlayerHandle, buf ports.NativeBuffer) ports.RawStatus {
	m, f, ok := unwrap(player, buf)
	if !ok {
		return ports.StatusFail
	}
	return m.decodeNext(ctx, f)
}

// SeekInto fills buf with the frame at or after targetMs.
func (e *Engine) SeekInto(ctx context.Context, player ports.PlayerHandle, buf ports.NativeBuffer, targetMs int64) ports.RawStatus {
	m, f, ok := unwrap(player, buf)
	if !ok {
		return ports.StatusFail
	}
	return m.seek(ctx, f, targetMs)
}

func unwrap(player ports.PlayerHandle, buf ports.NativeBuffer) (*Media, *Frame, bool) {
	m, ok := player.(*Media)
	if !ok || m == nil {
		return nil, nil, false
	}
	f, ok := buf.(*Frame)
	if !ok || f == nil {
		return nil, nil, false
	}
	return m, f, true
}

func frame(buf ports.NativeBuffer) *Frame {
	if f, ok := buf.(*Frame); ok && f != nil {
		return f
	}
	return &Frame{}
}

func (e *Engine) IsVideo(buf ports.NativeBuffer) bool { return frame(buf).kind == ports.KindVideo }
func (e *Engine) IsAudio(buf ports.NativeBuffer) bool { return frame(buf).kind == ports.KindAudio }
func (e *Engine) Width(buf ports.NativeBuffer) int    { return frame(buf).width }
func (e *Engine) Height(buf ports.NativeBuffer) int   { return frame(buf).height }

func (e *Engine) VideoTimestampMs(buf ports.NativeBuffer) int64 {
	f := frame(buf)
	if f.kind != ports.KindVideo {
		return 0
	}
	return f.timestampMs
}

func (e *Engine) AudioTimestampMs(buf ports.NativeBuffer) int64 {
	f := frame(buf)
	if f.kind != ports.KindAudio {
		return 0
	}
	return f.timestampMs
}

func (e *Engine) VideoBytes(buf ports.NativeBuffer) []byte {
	f := frame(buf)
	if f.kind != ports.KindVideo {
		return nil
	}
	return f.pix
}

func (e *Engine) AudioBytes(buf ports.NativeBuffer) []byte {
	f := frame(buf)
	if f.kind != ports.KindAudio {
		return nil
	}
	return f.audio
}

var _ ports.Engine = (*Engine)(nil)
