package bufferpool

import (
	"context"
	"sync"
	"testing"

	"github.com/user/playdecoder/pkg/ports"
)

// testAllocator hands out distinct native buffers and records frees.
type testAllocator struct {
	mu        sync.Mutex
	allocated int
	freed     []ports.NativeBuffer
}

type testNative struct {
	n int
}

func (a *testAllocator) AllocBuffer() ports.NativeBuffer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocated++
	return &testNative{n: a.allocated}
}

func (a *testAllocator) FreeBuffer(buf ports.NativeBuffer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.freed = append(a.freed, buf)
}

func newBuiltPool(t *testing.T, size int) (*Pool, *testAllocator) {
	t.Helper()
	alloc := &testAllocator{}
	p := New(alloc, size)
	if err := p.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	return p, alloc
}

// checkInvariants verifies that every buffer is in exactly one location.
func checkInvariants(t *testing.T, p *Pool) {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[*DecodeBuffer]bool)
	for _, b := range p.free {
		if seen[b] {
			t.Fatalf("buffer %d listed twice", b.ID())
		}
		seen[b] = true
		if p.where[b] != locFree {
			t.Fatalf("buffer %d in free queue but marked %d", b.ID(), p.where[b])
		}
	}
	for _, b := range p.ready {
		if seen[b] {
			t.Fatalf("buffer %d is both free and ready", b.ID())
		}
		seen[b] = true
		if p.where[b] != locReady {
			t.Fatalf("buffer %d in ready queue but marked %d", b.ID(), p.where[b])
		}
	}
	if len(p.where) != len(p.buffers) {
		t.Fatalf("tracked %d buffers, own %d", len(p.where), len(p.buffers))
	}
	checkedOut := 0
	for _, loc := range p.where {
		if loc != locFree && loc != locReady {
			checkedOut++
		}
	}
	if len(p.free)+len(p.ready)+checkedOut != len(p.buffers) {
		t.Fatalf("free %d + ready %d + checked out %d != %d",
			len(p.free), len(p.ready), checkedOut, len(p.buffers))
	}
}

func TestPool_PrepareAllocatesOnce(t *testing.T) {
	p, alloc := newBuiltPool(t, 4)

	if err := p.Prepare(); err != nil {
		t.Fatalf("second Prepare failed: %v", err)
	}
	if alloc.allocated != 4 {
		t.Errorf("expected 4 allocations, got %d", alloc.allocated)
	}
	stats := p.Stats()
	if stats.Capacity != 4 || stats.Free != 4 {
		t.Errorf("unexpected stats after prepare: %+v", stats)
	}
	checkInvariants(t, p)
}

func TestPool_DefaultSize(t *testing.T) {
	p := New(&testAllocator{}, 0)
	if p.Size() != DefaultSize {
		t.Errorf("expected default size %d, got %d", DefaultSize, p.Size())
	}
}

func TestPool_AcquireBeforePrepare(t *testing.T) {
	p := New(&testAllocator{}, 2)

	if buf := p.AcquireForDecode(); buf != nil {
		t.Error("expected nil from unbuilt pool")
	}
	if buf := p.AcquireForDecodeForced(); buf != nil {
		t.Error("expected nil forced acquisition from unbuilt pool")
	}
}

func TestPool_NoDoubleHandOut(t *testing.T) {
	p, _ := newBuiltPool(t, 8)

	seen := make(map[*DecodeBuffer]bool)
	for i := 0; i < 8; i++ {
		buf := p.AcquireForDecode()
		if buf == nil {
			t.Fatalf("acquire %d returned nil", i)
		}
		if seen[buf] {
			t.Fatalf("buffer %d handed out twice", buf.ID())
		}
		seen[buf] = true
		checkInvariants(t, p)
	}
}

func TestPool_Backpressure(t *testing.T) {
	const size = 5
	p, _ := newBuiltPool(t, size)

	for i := 0; i < size; i++ {
		if p.AcquireForDecode() == nil {
			t.Fatalf("acquire %d returned nil", i)
		}
	}
	if buf := p.AcquireForDecode(); buf != nil {
		t.Errorf("expected nil after %d acquisitions, got buffer %d", size, buf.ID())
	}
	if stats := p.Stats(); stats.Decoding != size {
		t.Errorf("expected %d decoding buffers, got %+v", size, stats)
	}
	checkInvariants(t, p)
}

func TestPool_SizeTwoScenario(t *testing.T) {
	p, _ := newBuiltPool(t, 2)

	first := p.AcquireForDecode()
	second := p.AcquireForDecode()
	if first == nil || second == nil {
		t.Fatal("expected two successful acquisitions")
	}
	if p.AcquireForDecode() != nil {
		t.Fatal("third acquisition should return nil")
	}

	if !p.PublishReady(first) {
		t.Fatal("PublishReady failed")
	}
	if !p.ReturnFree(second) {
		t.Fatal("ReturnFree failed")
	}
	checkInvariants(t, p)

	again := p.AcquireForDecode()
	if again != second {
		t.Fatalf("expected the returned buffer back, got %v", again)
	}
	if p.AcquireForDecode() != nil {
		t.Error("only one buffer should have been available")
	}
	checkInvariants(t, p)
}

func TestPool_ReadyOrderAndRender(t *testing.T) {
	p, _ := newBuiltPool(t, 3)

	var published []*DecodeBuffer
	for i := 0; i < 3; i++ {
		buf := p.AcquireForDecode()
		p.PublishReady(buf)
		published = append(published, buf)
	}

	select {
	case <-p.Notify():
	default:
		t.Error("expected a notification after publish")
	}

	for i, want := range published {
		got := p.AcquireForRender()
		if got != want {
			t.Fatalf("render %d: expected buffer %d, got %v", i, want.ID(), got)
		}
		checkInvariants(t, p)
	}
	if p.AcquireForRender() != nil {
		t.Error("expected no ready buffer left")
	}
	if stats := p.Stats(); stats.Rendering != 3 {
		t.Errorf("expected 3 rendering buffers, got %+v", stats)
	}
}

func TestPool_ReturnFreeTwice(t *testing.T) {
	p, _ := newBuiltPool(t, 2)

	buf := p.AcquireForDecode()
	if !p.ReturnFree(buf) {
		t.Fatal("first ReturnFree should succeed")
	}
	if p.ReturnFree(buf) {
		t.Error("second ReturnFree should be rejected")
	}
	if stats := p.Stats(); stats.Free != 2 {
		t.Errorf("expected 2 free buffers, got %+v", stats)
	}
	checkInvariants(t, p)
}

func TestPool_ReturnFreeForeignBuffer(t *testing.T) {
	p, _ := newBuiltPool(t, 1)
	other, _ := newBuiltPool(t, 1)

	foreign := other.AcquireForDecode()
	if p.ReturnFree(foreign) {
		t.Error("foreign buffer should be rejected")
	}
	if p.PublishReady(foreign) {
		t.Error("foreign buffer should not be published")
	}
	checkInvariants(t, p)
}

func TestPool_PublishRequiresCheckout(t *testing.T) {
	p, _ := newBuiltPool(t, 2)

	buf := p.AcquireForDecode()
	p.ReturnFree(buf)
	if p.PublishReady(buf) {
		t.Error("a free buffer must not be published")
	}
	checkInvariants(t, p)
}

func TestPool_ForcedPrefersFree(t *testing.T) {
	p, _ := newBuiltPool(t, 2)

	held := p.AcquireForDecode()
	forced := p.AcquireForDecodeForced()
	if forced == nil || forced == held {
		t.Fatalf("expected the remaining free buffer, got %v", forced)
	}
	if stats := p.Stats(); stats.Seeking != 1 || stats.Overflow != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	checkInvariants(t, p)
}

func TestPool_ForcedEvictsOldestReady(t *testing.T) {
	p, _ := newBuiltPool(t, 3)

	var order []*DecodeBuffer
	for i := 0; i < 3; i++ {
		buf := p.AcquireForDecode()
		p.PublishReady(buf)
		order = append(order, buf)
	}

	forced := p.AcquireForDecodeForced()
	if forced != order[0] {
		t.Fatalf("expected oldest ready buffer %d, got %v", order[0].ID(), forced)
	}
	if next := p.AcquireForRender(); next != order[1] {
		t.Errorf("expected ready queue to continue with buffer %d, got %v", order[1].ID(), next)
	}
	checkInvariants(t, p)
}

func TestPool_ForcedNeverFails(t *testing.T) {
	p, alloc := newBuiltPool(t, 2)

	// Every buffer held by decode or the consumer.
	a := p.AcquireForDecode()
	b := p.AcquireForDecode()
	p.PublishReady(b)
	p.AcquireForRender()

	forced := p.AcquireForDecodeForced()
	if forced == nil {
		t.Fatal("forced acquisition returned nil")
	}
	if forced == a || forced == b {
		t.Fatal("forced acquisition handed out a held buffer")
	}
	stats := p.Stats()
	if stats.Capacity != 3 || stats.Overflow != 1 {
		t.Errorf("expected one overflow buffer, got %+v", stats)
	}
	if alloc.allocated != 3 {
		t.Errorf("expected 3 allocations, got %d", alloc.allocated)
	}
	checkInvariants(t, p)

	if !p.ReturnFree(forced) {
		t.Error("overflow buffer should be returnable")
	}
	checkInvariants(t, p)

	stats = p.Stats()
	if stats.Capacity != p.Size() || stats.Overflow != 0 {
		t.Errorf("pool should shrink back to %d buffers, got %+v", p.Size(), stats)
	}
	if len(alloc.freed) != 1 {
		t.Errorf("expected the retired buffer to be freed, got %d frees", len(alloc.freed))
	}
	if p.ReturnFree(forced) {
		t.Error("a retired buffer must not be returnable again")
	}
}

func TestPool_ResetRetiresOverflow(t *testing.T) {
	p, alloc := newBuiltPool(t, 1)

	held := p.AcquireForDecode()
	for i := 0; i < 5; i++ {
		p.PublishReady(p.AcquireForDecodeForced())
	}
	// Each forced acquisition after the first reclaims the ready buffer.
	if stats := p.Stats(); stats.Capacity != 2 || stats.Overflow != 1 {
		t.Fatalf("expected a single overflow buffer, got %+v", stats)
	}

	if dropped := p.Reset(); dropped != 1 {
		t.Errorf("expected 1 dropped buffer, got %d", dropped)
	}
	checkInvariants(t, p)
	if stats := p.Stats(); stats.Capacity != 1 || stats.Overflow != 0 || stats.Decoding != 1 {
		t.Errorf("expected only the held buffer to remain, got %+v", stats)
	}
	if len(alloc.freed) != 1 {
		t.Errorf("expected 1 free, got %d", len(alloc.freed))
	}

	if !p.ReturnFree(held) {
		t.Fatal("held buffer should be returnable")
	}
	if stats := p.Stats(); stats.Free != 1 || stats.Capacity != 1 {
		t.Errorf("expected one free buffer, got %+v", stats)
	}
}

func TestPool_ResetDropsReady(t *testing.T) {
	p, _ := newBuiltPool(t, 4)

	for i := 0; i < 3; i++ {
		p.PublishReady(p.AcquireForDecode())
	}
	rendering := p.AcquireForRender()

	if dropped := p.Reset(); dropped != 2 {
		t.Errorf("expected 2 dropped buffers, got %d", dropped)
	}
	stats := p.Stats()
	if stats.Ready != 0 || stats.Free != 3 || stats.Rendering != 1 {
		t.Errorf("unexpected stats after reset: %+v", stats)
	}
	checkInvariants(t, p)

	if !p.ReturnFree(rendering) {
		t.Error("rendering buffer should be returnable after reset")
	}
	checkInvariants(t, p)
}

func TestPool_Close(t *testing.T) {
	p, alloc := newBuiltPool(t, 3)
	p.AcquireForDecode()

	p.Close(context.Background())
	p.Close(context.Background())

	if len(alloc.freed) != 3 {
		t.Errorf("expected 3 frees, got %d", len(alloc.freed))
	}
	if p.AcquireForDecode() != nil || p.AcquireForDecodeForced() != nil || p.AcquireForRender() != nil {
		t.Error("closed pool should not hand out buffers")
	}
	if err := p.Prepare(); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestPool_ConcurrentProducerConsumer(t *testing.T) {
	p, _ := newBuiltPool(t, 4)

	const frames = 500
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for produced := 0; produced < frames; {
			if buf := p.AcquireForDecode(); buf != nil {
				p.PublishReady(buf)
				produced++
			}
		}
	}()

	go func() {
		defer wg.Done()
		for consumed := 0; consumed < frames; {
			if buf := p.AcquireForRender(); buf != nil {
				p.ReturnFree(buf)
				consumed++
			}
		}
	}()

	wg.Wait()
	stats := p.Stats()
	if stats.Free != 4 {
		t.Errorf("expected all buffers free at the end, got %+v", stats)
	}
	checkInvariants(t, p)
}
