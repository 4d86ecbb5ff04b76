package mp4engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/playdecoder/pkg/adapters/codecdetect"
	"github.com/user/playdecoder/pkg/mocks"
	"github.com/user/playdecoder/pkg/ports"
)

// buildAV1 returns a fragmented av01 file with n 40ms samples and a
// keyframe every 3 samples. Sample i carries the single byte i.
func buildAV1(t *testing.T, n int) []byte {
	t.Helper()

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(1000, "video", "en")
	init.Moov.Trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("av01", 64, 36, &mp4.Av1CBox{
		CodecConfRec: av1.CodecConfRec{Version: 1, ChromaSubsamplingX: 1, ChromaSubsamplingY: 1},
	}))

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	for i := 0; i < n; i++ {
		flags := mp4.NonSyncSampleFlags
		if i%3 == 0 {
			flags = mp4.SyncSampleFlags
		}
		frag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: flags, Size: 1, Dur: 40},
			DecodeTime: uint64(i * 40),
			Data:       []byte{byte(i)},
		})
	}

	var buf bytes.Buffer
	if err := mp4.NewFtyp("isom", 0x200, []string{"isom", "av01"}).Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}
	return buf.Bytes()
}

func openAV1(t *testing.T, n int) (*Media, *mocks.FrameDecoder) {
	t.Helper()

	dec := mocks.NewFrameDecoder(4, 2)
	m, err := OpenReader(bytes.NewReader(buildAV1(t, n)), Options{
		NewDecoder: func(codec codecdetect.Codec) (ports.FrameDecoder, error) {
			if codec != codecdetect.CodecAV1 {
				t.Errorf("expected av1 decoder request, got %s", codec)
			}
			return dec, nil
		},
	})
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	return m, dec
}

func red(t *testing.T, e *Engine, buf ports.NativeBuffer) uint8 {
	t.Helper()
	pix := e.VideoBytes(buf)
	if len(pix) < 4 {
		t.Fatalf("expected RGBA pixels, got %d bytes", len(pix))
	}
	return pix[0]
}

func TestOpenReader_Info(t *testing.T) {
	m, _ := openAV1(t, 6)
	info := m.Info()

	if !info.Fragmented {
		t.Error("expected fragmented file")
	}
	if info.Codec != codecdetect.CodecAV1 {
		t.Errorf("expected av1, got %s", info.Codec)
	}
	if info.Width != 64 || info.Height != 36 {
		t.Errorf("expected 64x36, got %dx%d", info.Width, info.Height)
	}
	if info.VideoSamples != 6 || info.Keyframes != 2 {
		t.Errorf("expected 6 samples and 2 keyframes, got %d and %d", info.VideoSamples, info.Keyframes)
	}
	if info.DurationMs != 240 {
		t.Errorf("expected duration 240ms, got %d", info.DurationMs)
	}
	if !info.HasVideo() || info.HasAudio() {
		t.Errorf("expected video only, got %+v", info)
	}
}

func TestOpenReader_Invalid(t *testing.T) {
	if _, err := OpenReader(bytes.NewReader([]byte("not an mp4")), Options{}); err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, buildAV1(t, 4), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.VideoSamples != 4 || info.Codec != codecdetect.CodecAV1 {
		t.Errorf("unexpected info %+v", info)
	}
	if info.Backend != "" {
		t.Errorf("expected no backend from Probe, got %s", info.Backend)
	}

	if _, err := Probe(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEngine_DecodeSequence(t *testing.T) {
	m, dec := openAV1(t, 4)
	e := NewEngine()
	buf := e.AllocBuffer()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if status := e.DecodeInto(ctx, m, buf); status != ports.StatusSuccess {
			t.Fatalf("decode %d: expected success, got %d", i, status)
		}
		if !e.IsVideo(buf) || e.IsAudio(buf) {
			t.Fatalf("decode %d: expected a video frame", i)
		}
		if ts := e.VideoTimestampMs(buf); ts != int64(i*40) {
			t.Errorf("decode %d: expected timestamp %d, got %d", i, i*40, ts)
		}
		if e.Width(buf) != 4 || e.Height(buf) != 2 {
			t.Errorf("decode %d: expected 4x2, got %dx%d", i, e.Width(buf), e.Height(buf))
		}
		if got := red(t, e, buf); got != uint8(i) {
			t.Errorf("decode %d: expected red %d, got %d", i, i, got)
		}
	}

	if status := e.DecodeInto(ctx, m, buf); status != ports.StatusEnd {
		t.Fatalf("expected end of stream, got %d", status)
	}
	if e.IsVideo(buf) || e.VideoBytes(buf) != nil {
		t.Error("expected an empty buffer at end of stream")
	}
	if dec.Inits() != 1 {
		t.Errorf("expected one decoder init, got %d", dec.Inits())
	}
}

func TestEngine_DecodeFailureAdvances(t *testing.T) {
	m, dec := openAV1(t, 3)
	dec.DecodeFrameFunc = func(data []byte) (image.Image, error) {
		if data[0] == 1 {
			return nil, errors.New("corrupt")
		}
		return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
	}
	e := NewEngine()
	buf := e.AllocBuffer()
	ctx := context.Background()

	want := []ports.RawStatus{ports.StatusSuccess, ports.StatusFail, ports.StatusSuccess, ports.StatusEnd}
	for i, w := range want {
		if got := e.DecodeInto(ctx, m, buf); got != w {
			t.Errorf("decode %d: expected %d, got %d", i, w, got)
		}
	}
}

func TestEngine_SeekDecodesFromKeyframe(t *testing.T) {
	m, dec := openAV1(t, 6)
	e := NewEngine()
	buf := e.AllocBuffer()
	ctx := context.Background()

	// 170ms lands on sample 5 (200ms); its keyframe is sample 3.
	if status := e.SeekInto(ctx, m, buf, 170); status != ports.StatusSuccess {
		t.Fatalf("expected seek success, got %d", status)
	}
	if ts := e.VideoTimestampMs(buf); ts != 200 {
		t.Errorf("expected timestamp 200, got %d", ts)
	}
	if got := red(t, e, buf); got != 5 {
		t.Errorf("expected red 5, got %d", got)
	}
	decoded := dec.Decoded()
	if len(decoded) != 3 || decoded[0][0] != 3 || decoded[2][0] != 5 {
		t.Errorf("expected samples 3..5 decoded, got %v", decoded)
	}
	if m.Position() != 6 {
		t.Errorf("expected cursor after the sought sample, got %d", m.Position())
	}
	if status := e.DecodeInto(ctx, m, buf); status != ports.StatusEnd {
		t.Errorf("expected end of stream after seeking to the last frame, got %d", status)
	}
}

func TestEngine_SeekExactKeyframe(t *testing.T) {
	m, dec := openAV1(t, 6)
	e := NewEngine()
	buf := e.AllocBuffer()

	if status := e.SeekInto(context.Background(), m, buf, 120); status != ports.StatusSuccess {
		t.Fatalf("expected seek success, got %d", status)
	}
	if decoded := dec.Decoded(); len(decoded) != 1 || decoded[0][0] != 3 {
		t.Errorf("expected only the keyframe decoded, got %v", decoded)
	}
	if status := e.DecodeInto(context.Background(), m, buf); status != ports.StatusSuccess {
		t.Fatalf("expected decode after seek, got %d", status)
	}
	if ts := e.VideoTimestampMs(buf); ts != 160 {
		t.Errorf("expected next frame at 160, got %d", ts)
	}
}

func TestEngine_SeekPastEndClamps(t *testing.T) {
	m, _ := openAV1(t, 4)
	e := NewEngine()
	buf := e.AllocBuffer()

	if status := e.SeekInto(context.Background(), m, buf, 10_000); status != ports.StatusSuccess {
		t.Fatalf("expected seek success, got %d", status)
	}
	if ts := e.VideoTimestampMs(buf); ts != 120 {
		t.Errorf("expected last frame at 120, got %d", ts)
	}
}

func TestEngine_SeekFailureKeepsCursor(t *testing.T) {
	m, dec := openAV1(t, 6)
	e := NewEngine()
	buf := e.AllocBuffer()
	ctx := context.Background()

	if status := e.DecodeInto(ctx, m, buf); status != ports.StatusSuccess {
		t.Fatalf("expected decode success, got %d", status)
	}
	dec.DecodeFrameFunc = func(data []byte) (image.Image, error) {
		return nil, errors.New("broken")
	}
	if status := e.SeekInto(ctx, m, buf, 200); status != ports.StatusFail {
		t.Fatalf("expected seek failure, got %d", status)
	}
	if m.Position() != 1 {
		t.Errorf("expected cursor unchanged, got %d", m.Position())
	}
}

func TestEngine_SeekCancelled(t *testing.T) {
	m, _ := openAV1(t, 3)
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if status := e.SeekInto(ctx, m, e.AllocBuffer(), 0); status != ports.StatusFail {
		t.Errorf("expected failure for cancelled context, got %d", status)
	}
}

func TestEngine_DecoderInitFailure(t *testing.T) {
	m, dec := openAV1(t, 2)
	dec.InitFunc = func() error { return errors.New("no codec") }
	e := NewEngine()

	if status := e.DecodeInto(context.Background(), m, e.AllocBuffer()); status != ports.StatusFail {
		t.Errorf("expected failure, got %d", status)
	}
}

func TestEngine_WrongHandles(t *testing.T) {
	m, _ := openAV1(t, 2)
	e := NewEngine()

	if status := e.DecodeInto(context.Background(), "media", e.AllocBuffer()); status != ports.StatusFail {
		t.Errorf("expected failure for foreign handle, got %d", status)
	}
	if status := e.SeekInto(context.Background(), m, []byte{}, 0); status != ports.StatusFail {
		t.Errorf("expected failure for foreign buffer, got %d", status)
	}
	if e.IsVideo(42) || e.Width(nil) != 0 {
		t.Error("expected zero values for foreign buffers")
	}
}

func TestMedia_RewindRestartsDecoder(t *testing.T) {
	m, dec := openAV1(t, 3)
	e := NewEngine()
	buf := e.AllocBuffer()
	ctx := context.Background()

	e.DecodeInto(ctx, m, buf)
	e.DecodeInto(ctx, m, buf)
	m.Rewind()

	if status := e.DecodeInto(ctx, m, buf); status != ports.StatusSuccess {
		t.Fatalf("expected decode after rewind, got %d", status)
	}
	if ts := e.VideoTimestampMs(buf); ts != 0 {
		t.Errorf("expected first frame after rewind, got %d", ts)
	}
	if dec.Inits() != 2 {
		t.Errorf("expected decoder restart, got %d inits", dec.Inits())
	}
}

func TestMedia_Close(t *testing.T) {
	m, _ := openAV1(t, 2)
	e := NewEngine()

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := m.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if status := e.DecodeInto(context.Background(), m, e.AllocBuffer()); status != ports.StatusFail {
		t.Errorf("expected failure after close, got %d", status)
	}
}

func audioMedia() *Media {
	c := &container{
		video: &track{kind: ports.KindVideo},
		audio: &track{kind: ports.KindAudio, entry: "mp4a"},
		samples: []sample{
			{kind: ports.KindVideo, tsMs: 0, key: true, data: []byte{10}},
			{kind: ports.KindAudio, tsMs: 0, data: []byte{0xa0}},
			{kind: ports.KindAudio, tsMs: 21, data: []byte{0xa1}},
			{kind: ports.KindVideo, tsMs: 40, data: []byte{11}},
			{kind: ports.KindAudio, tsMs: 42, data: []byte{0xa2}},
		},
	}
	return &Media{c: c, info: describe(c), decoder: mocks.NewFrameDecoder(2, 2)}
}

func TestEngine_InterleavedAudio(t *testing.T) {
	m := audioMedia()
	e := NewEngine()
	buf := e.AllocBuffer()
	ctx := context.Background()

	wantKinds := []bool{true, false, false, true, false}
	for i, video := range wantKinds {
		if status := e.DecodeInto(ctx, m, buf); status != ports.StatusSuccess {
			t.Fatalf("decode %d: expected success, got %d", i, status)
		}
		if e.IsVideo(buf) != video || e.IsAudio(buf) == video {
			t.Errorf("decode %d: expected video=%v", i, video)
		}
	}
	if got := e.AudioBytes(buf); !bytes.Equal(got, []byte{0xa2}) {
		t.Errorf("expected last audio payload, got %x", got)
	}
	if ts := e.AudioTimestampMs(buf); ts != 42 {
		t.Errorf("expected audio timestamp 42, got %d", ts)
	}
	if e.VideoTimestampMs(buf) != 0 || e.VideoBytes(buf) != nil {
		t.Error("expected no video data in an audio buffer")
	}

	info := m.Info()
	if info.AudioSamples != 3 || info.AudioCodec != "mp4a" {
		t.Errorf("unexpected audio info %+v", info)
	}
}

func TestEngine_AudioOnlySeek(t *testing.T) {
	c := &container{
		audio: &track{kind: ports.KindAudio, entry: "mp4a"},
		samples: []sample{
			{kind: ports.KindAudio, tsMs: 0, data: []byte{1}},
			{kind: ports.KindAudio, tsMs: 21, data: []byte{2}},
			{kind: ports.KindAudio, tsMs: 42, data: []byte{3}},
		},
	}
	m := &Media{c: c, info: describe(c)}
	e := NewEngine()
	buf := e.AllocBuffer()

	if status := e.SeekInto(context.Background(), m, buf, 20); status != ports.StatusSuccess {
		t.Fatalf("expected seek success, got %d", status)
	}
	if ts := e.AudioTimestampMs(buf); ts != 21 {
		t.Errorf("expected audio at 21, got %d", ts)
	}
	if status := e.SeekInto(context.Background(), m, buf, 100); status != ports.StatusFail {
		t.Errorf("expected failure past the last audio sample, got %d", status)
	}
	if m.Position() != 2 {
		t.Errorf("expected cursor after the sought sample, got %d", m.Position())
	}
}

func TestFrame_SetVideoConverts(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(1, 1, color.Gray{Y: 200})

	var f Frame
	f.setVideo(gray, 80)

	if f.width != 3 || f.height != 2 || len(f.pix) != 24 {
		t.Fatalf("unexpected frame geometry %dx%d with %d bytes", f.width, f.height, len(f.pix))
	}
	off := (1*3 + 1) * 4
	if f.pix[off] != 200 || f.pix[off+3] != 255 {
		t.Errorf("expected converted gray pixel, got %v", f.pix[off:off+4])
	}

	// Smaller frames reuse the storage.
	before := &f.pix[0]
	f.setVideo(image.NewRGBA(image.Rect(0, 0, 1, 1)), 120)
	if &f.pix[0] != before || len(f.pix) != 4 {
		t.Error("expected pixel storage to be reused")
	}
}
