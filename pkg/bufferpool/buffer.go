// Package bufferpool provides the fixed-size pool of reusable decode buffers
// shared by the decode loop and the render side.
package bufferpool

import (
	"context"

	"github.com/xaionaro-go/xsync"

	"github.com/user/playdecoder/pkg/ports"
)

// FrameInfo is the metadata of a filled buffer.
type FrameInfo struct {
	Kind        ports.MediaKind
	TimestampMs int64
	Width       int // video only
	Height      int // video only
}

// DecodeBuffer wraps one native engine buffer and the lock guarding its contents.
//
// The native buffer and the metadata may only be touched from inside Do.
type DecodeBuffer struct {
	id     int
	native ports.NativeBuffer
	locker xsync.Mutex

	info   FrameInfo
	filled bool
}

func newDecodeBuffer(id int, native ports.NativeBuffer) *DecodeBuffer {
	return &DecodeBuffer{
		id:     id,
		native: native,
	}
}

// ID returns the buffer's index within its pool.
func (b *DecodeBuffer) ID() int {
	return b.id
}

// Do runs fn while holding the buffer lock.
func (b *DecodeBuffer) Do(ctx context.Context, fn func(native ports.NativeBuffer)) {
	b.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		fn(b.native)
	})
}

// CaptureLocked reads the frame metadata of the native buffer through the engine
// accessors and stores it. The caller must hold the lock.
func (b *DecodeBuffer) CaptureLocked(e ports.Engine) FrameInfo {
	var info FrameInfo
	switch {
	case e.IsVideo(b.native):
		info = FrameInfo{
			Kind:        ports.KindVideo,
			TimestampMs: e.VideoTimestampMs(b.native),
			Width:       e.Width(b.native),
			Height:      e.Height(b.native),
		}
	case e.IsAudio(b.native):
		info = FrameInfo{
			Kind:        ports.KindAudio,
			TimestampMs: e.AudioTimestampMs(b.native),
		}
	default:
		info = FrameInfo{Kind: ports.KindOther}
	}
	b.info = info
	b.filled = true
	return info
}

// InfoLocked returns the metadata captured by the last fill. The caller must
// hold the lock.
func (b *DecodeBuffer) InfoLocked() (FrameInfo, bool) {
	return b.info, b.filled
}

// Info is InfoLocked taking the lock itself.
func (b *DecodeBuffer) Info(ctx context.Context) (FrameInfo, bool) {
	var (
		info   FrameInfo
		filled bool
	)
	b.Do(ctx, func(ports.NativeBuffer) {
		info, filled = b.info, b.filled
	})
	return info, filled
}

// CopyFrameLocked copies the buffer contents into a consumer-owned frame.
// The caller must hold the lock.
func (b *DecodeBuffer) CopyFrameLocked(e ports.Engine) ports.Frame {
	frame := ports.Frame{
		Kind:        b.info.Kind,
		TimestampMs: b.info.TimestampMs,
		Width:       b.info.Width,
		Height:      b.info.Height,
	}
	switch b.info.Kind {
	case ports.KindVideo:
		frame.Data = append([]byte(nil), e.VideoBytes(b.native)...)
	case ports.KindAudio:
		frame.Data = append([]byte(nil), e.AudioBytes(b.native)...)
	}
	return frame
}

func (b *DecodeBuffer) clearLocked() {
	b.info = FrameInfo{}
	b.filled = false
}
