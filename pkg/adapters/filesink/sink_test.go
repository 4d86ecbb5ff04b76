package filesink

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/playdecoder/pkg/mocks"
	"github.com/user/playdecoder/pkg/ports"
)

var testDir = filepath.Join("snapshots")

func videoFrame(ts int64) ports.Frame {
	return ports.Frame{Kind: ports.KindVideo, TimestampMs: ts, Width: 4, Height: 2, Data: make([]byte, 4*2*4)}
}

func newSink(cfg Config) (*Sink, *mocks.FileSystem, *mocks.Renderer) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	if cfg.Dir == "" {
		cfg.Dir = testDir
	}
	return New(cfg, fs, renderer, mocks.NewLogger()), fs, renderer
}

func TestSink_EveryNth(t *testing.T) {
	sink, fs, _ := newSink(Config{Every: 2, Format: ports.FormatPNG})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := sink.Consume(ctx, videoFrame(int64(i*40))); err != nil {
			t.Fatalf("Consume failed: %v", err)
		}
	}

	want := []string{
		filepath.Join(testDir, "frame-000000-00000000ms.png"),
		filepath.Join(testDir, "frame-000002-00000080ms.png"),
		filepath.Join(testDir, "frame-000004-00000160ms.png"),
	}
	got := fs.Paths()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if data, _ := fs.GetFile(want[0]); string(data) != "png" {
		t.Errorf("expected encoded data from renderer, got %q", data)
	}
	if len(sink.Saved()) != 3 {
		t.Errorf("expected 3 saved paths, got %d", len(sink.Saved()))
	}
}

func TestSink_SeekFramesAlwaysSaved(t *testing.T) {
	sink, fs, _ := newSink(Config{Every: 10, Format: ports.FormatJPEG})
	ctx := context.Background()

	sink.Consume(ctx, videoFrame(0))
	f := videoFrame(5000)
	f.Seek = true
	sink.Consume(ctx, f)
	sink.Consume(ctx, videoFrame(5040))

	got := fs.Paths()
	if len(got) != 2 || got[1] != filepath.Join(testDir, "frame-000001-00005000ms.jpg") {
		t.Errorf("expected the seek frame to be saved, got %v", got)
	}
}

func TestSink_IgnoresAudio(t *testing.T) {
	sink, fs, _ := newSink(Config{})

	if err := sink.Consume(context.Background(), ports.Frame{Kind: ports.KindAudio, Data: []byte{1}}); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if len(fs.Paths()) != 0 {
		t.Error("expected no snapshot for audio")
	}
}

func TestSink_ResizeAndAnnotate(t *testing.T) {
	sink, _, renderer := newSink(Config{Width: 2, Annotate: true})
	var resized bool
	renderer.ResizeImageFunc = func(img image.Image, width, height int) image.Image {
		resized = width == 2 && height == 0
		return img
	}

	if err := sink.Consume(context.Background(), videoFrame(61_234)); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !resized {
		t.Error("expected resize to width 2 with aspect kept")
	}
	if got := renderer.Annotations(); len(got) != 1 || got[0] != "01:01.234" {
		t.Errorf("expected timestamp label, got %v", got)
	}
}

func TestSink_InvalidFrame(t *testing.T) {
	sink, _, _ := newSink(Config{})
	f := videoFrame(0)
	f.Data = f.Data[:3]

	if err := sink.Consume(context.Background(), f); err == nil {
		t.Error("expected error for truncated frame")
	}
}

func TestSink_Errors(t *testing.T) {
	sink, fs, renderer := newSink(Config{})
	ctx := context.Background()

	renderer.EncodeImageFunc = func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
		return nil, errors.New("encoder broken")
	}
	if err := sink.Consume(ctx, videoFrame(0)); err == nil {
		t.Error("expected encode error")
	}

	renderer.EncodeImageFunc = nil
	fs.WriteFileFunc = func(path string, data []byte) error { return errors.New("disk full") }
	if err := sink.Consume(ctx, videoFrame(40)); err == nil {
		t.Error("expected write error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := sink.Consume(cancelled, videoFrame(80)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error, got %v", err)
	}

	sink.Close()
	if err := sink.Consume(ctx, videoFrame(120)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00.000"},
		{1_200, "00:01.200"},
		{61_234, "01:01.234"},
		{-5, "00:00.000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.ms); got != tt.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
