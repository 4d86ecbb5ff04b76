// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// RawStatus is the status code returned by an engine decode or seek call.
//
// Decode calls return 0 on success, 1 at end of stream and any other value on
// failure. Seek calls return 0 on success and any other value on failure.
type RawStatus int

const (
	StatusSuccess RawStatus = 0
	StatusEnd     RawStatus = 1
	StatusFail    RawStatus = 2
)

// PlayerHandle is the engine's opaque handle of an opened media.
type PlayerHandle any

// NativeBuffer is the engine's opaque handle of one decode buffer.
type NativeBuffer any

// BufferAllocator allocates and frees native decode buffers.
type BufferAllocator interface {
	// AllocBuffer allocates one empty native buffer.
	AllocBuffer() NativeBuffer

	// FreeBuffer releases a buffer returned by AllocBuffer.
	FreeBuffer(buf NativeBuffer)
}

// Engine abstracts the decode/seek primitive driven by the decoder.
// Every call that takes a NativeBuffer must be made while holding that
// buffer's lock.
type Engine interface {
	BufferAllocator

	// DecodeInto decodes the next frame of the media into buf.
	DecodeInto(ctx context.Context, player PlayerHandle, buf NativeBuffer) RawStatus

	// SeekInto seeks to targetMs and decodes the frame found there into buf.
	SeekInto(ctx context.Context, player PlayerHandle, buf NativeBuffer, targetMs int64) RawStatus

	// IsVideo reports whether buf holds a video frame.
	IsVideo(buf NativeBuffer) bool

	// IsAudio reports whether buf holds audio data.
	IsAudio(buf NativeBuffer) bool

	// Width returns the width of the video frame in buf.
	Width(buf NativeBuffer) int

	// Height returns the height of the video frame in buf.
	Height(buf NativeBuffer) int

	// VideoTimestampMs returns the presentation timestamp of the video frame in buf.
	VideoTimestampMs(buf NativeBuffer) int64

	// AudioTimestampMs returns the presentation timestamp of the audio data in buf.
	AudioTimestampMs(buf NativeBuffer) int64

	// VideoBytes returns the RGBA pixels of the video frame in buf.
	VideoBytes(buf NativeBuffer) []byte

	// AudioBytes returns the audio payload in buf.
	AudioBytes(buf NativeBuffer) []byte
}
