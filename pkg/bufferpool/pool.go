package bufferpool

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/xaionaro-go/xsync"

	"github.com/user/playdecoder/pkg/ports"
)

// DefaultSize is the number of buffers allocated when no size is given.
const DefaultSize = 15

var (
	// ErrClosed is returned when preparing a pool that has been closed.
	ErrClosed = errors.New("bufferpool: pool closed")
)

type location int

const (
	locFree location = iota
	locReady
	locDecoding
	locSeeking
	locRendering
)

// Stats is a snapshot of where every buffer currently is.
type Stats struct {
	Capacity  int // total buffers, overflow included
	Overflow  int // buffers beyond the configured size, retired once they come back
	Free      int
	Ready     int
	Decoding  int
	Seeking   int
	Rendering int
}

// CheckedOut returns the number of buffers held outside the free and ready sets.
func (s Stats) CheckedOut() int {
	return s.Decoding + s.Seeking + s.Rendering
}

// Pool partitions a fixed set of DecodeBuffers into a free queue, a ready
// queue (decode order) and checked-out buffers.
//
// A buffer is always in exactly one location. The pool mutex guards the
// locations; each buffer's own lock guards its contents.
type Pool struct {
	alloc ports.BufferAllocator
	size  int

	mu       sync.Mutex
	buffers  []*DecodeBuffer
	where    map[*DecodeBuffer]location
	free     []*DecodeBuffer
	ready    []*DecodeBuffer
	overflow int
	nextID   int
	built    bool
	closed   bool

	notify chan struct{}
}

// New creates an unbuilt pool of size buffers. Buffers are allocated on the
// first Prepare.
func New(alloc ports.BufferAllocator, size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		alloc:  alloc,
		size:   size,
		where:  make(map[*DecodeBuffer]location),
		notify: make(chan struct{}, 1),
	}
}

// Size returns the configured number of buffers.
func (p *Pool) Size() int {
	return p.size
}

// Prepare allocates the buffers on first use and resets the pool afterwards.
func (p *Pool) Prepare() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if !p.built {
		for i := 0; i < p.size; i++ {
			p.addLocked()
		}
		p.built = true
		p.mu.Unlock()
		return nil
	}
	_, retired := p.resetLocked()
	p.mu.Unlock()

	p.retire(retired...)
	return nil
}

func (p *Pool) addLocked() *DecodeBuffer {
	buf := newDecodeBuffer(p.nextID, p.alloc.AllocBuffer())
	p.nextID++
	p.buffers = append(p.buffers, buf)
	p.where[buf] = locFree
	p.free = append(p.free, buf)
	return buf
}

// AcquireForDecode checks out the oldest free buffer, or returns nil when
// none is free.
func (p *Pool) AcquireForDecode() *DecodeBuffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.free) == 0 {
		return nil
	}
	return p.popFreeLocked(locDecoding)
}

// AcquireForDecodeForced checks out a buffer for a seek. It prefers a free
// buffer, then reclaims the oldest ready buffer, and as a last resort
// allocates an overflow buffer. It only returns nil on an unbuilt or closed pool.
func (p *Pool) AcquireForDecodeForced() *DecodeBuffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || !p.built {
		return nil
	}
	if len(p.free) > 0 {
		return p.popFreeLocked(locSeeking)
	}
	if len(p.ready) > 0 {
		buf := p.ready[0]
		p.ready = slices.Delete(p.ready, 0, 1)
		p.where[buf] = locSeeking
		return buf
	}
	buf := p.addLocked()
	p.free = p.free[:len(p.free)-1]
	p.where[buf] = locSeeking
	p.overflow++
	return buf
}

func (p *Pool) popFreeLocked(to location) *DecodeBuffer {
	buf := p.free[0]
	p.free = slices.Delete(p.free, 0, 1)
	p.where[buf] = to
	return buf
}

// PublishReady appends a buffer checked out for decode or seek to the ready
// queue. It returns false if the buffer was not checked out from this pool.
func (p *Pool) PublishReady(buf *DecodeBuffer) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	loc, ok := p.where[buf]
	if !ok || p.closed {
		return false
	}
	switch loc {
	case locDecoding, locSeeking:
	default:
		return false
	}
	p.where[buf] = locReady
	p.ready = append(p.ready, buf)

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return true
}

// AcquireForRender checks out the oldest ready buffer for the consumer, or
// returns nil when nothing is ready.
func (p *Pool) AcquireForRender() *DecodeBuffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.ready) == 0 {
		return nil
	}
	buf := p.ready[0]
	p.ready = slices.Delete(p.ready, 0, 1)
	p.where[buf] = locRendering
	return buf
}

// ReturnFree moves a buffer back to the free queue. It returns false when the
// buffer is already free or does not belong to this pool, so a repeated
// return never duplicates a buffer. While the pool holds overflow buffers the
// returned buffer is retired instead, shrinking the pool back to its size.
func (p *Pool) ReturnFree(buf *DecodeBuffer) bool {
	p.mu.Lock()
	loc, ok := p.where[buf]
	if !ok || p.closed || loc == locFree {
		p.mu.Unlock()
		return false
	}
	if loc == locReady {
		p.removeReadyLocked(buf)
	}
	retired := p.freeLocked(buf)
	p.mu.Unlock()

	p.retire(retired)
	return true
}

// freeLocked moves buf to the free queue, or drops it from the pool and
// returns it when the pool is above its configured size.
func (p *Pool) freeLocked(buf *DecodeBuffer) *DecodeBuffer {
	if p.overflow > 0 {
		delete(p.where, buf)
		if i := slices.Index(p.buffers, buf); i >= 0 {
			p.buffers = slices.Delete(p.buffers, i, i+1)
		}
		p.overflow--
		return buf
	}
	p.where[buf] = locFree
	p.free = append(p.free, buf)
	return nil
}

// retire frees the native buffers of dropped buffers, each under its own lock.
func (p *Pool) retire(bufs ...*DecodeBuffer) {
	for _, buf := range bufs {
		if buf == nil {
			continue
		}
		buf.Do(xsync.WithNoLogging(context.Background(), true), func(native ports.NativeBuffer) {
			p.alloc.FreeBuffer(native)
			buf.native = nil
			buf.clearLocked()
		})
	}
}

func (p *Pool) removeReadyLocked(buf *DecodeBuffer) {
	if i := slices.Index(p.ready, buf); i >= 0 {
		p.ready = slices.Delete(p.ready, i, i+1)
	}
}

// Reset returns every ready buffer to the free queue and reports how many
// were dropped. Checked-out buffers stay with their holders.
func (p *Pool) Reset() int {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0
	}
	dropped, retired := p.resetLocked()
	p.mu.Unlock()

	p.retire(retired...)
	return dropped
}

func (p *Pool) resetLocked() (int, []*DecodeBuffer) {
	dropped := len(p.ready)
	var retired []*DecodeBuffer
	for _, buf := range p.ready {
		if r := p.freeLocked(buf); r != nil {
			retired = append(retired, r)
		}
	}
	p.ready = p.ready[:0]
	return dropped, retired
}

// Notify returns a channel that receives a value after a buffer is published.
// Wake-ups are coalesced.
func (p *Pool) Notify() <-chan struct{} {
	return p.notify
}

// Stats returns a snapshot of the buffer locations.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Capacity: len(p.buffers),
		Overflow: p.overflow,
	}
	for _, loc := range p.where {
		switch loc {
		case locFree:
			s.Free++
		case locReady:
			s.Ready++
		case locDecoding:
			s.Decoding++
		case locSeeking:
			s.Seeking++
		case locRendering:
			s.Rendering++
		}
	}
	return s
}

// Close frees every native buffer, each under its own lock. Later acquires
// return nil and Prepare fails with ErrClosed.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	buffers := p.buffers
	p.buffers = nil
	p.where = make(map[*DecodeBuffer]location)
	p.free = nil
	p.ready = nil
	p.mu.Unlock()

	for _, buf := range buffers {
		buf.Do(ctx, func(native ports.NativeBuffer) {
			p.alloc.FreeBuffer(native)
			buf.native = nil
			buf.clearLocked()
		})
	}
}
