package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/xaionaro-go/xsync"

	"github.com/user/playdecoder/pkg/bufferpool"
	"github.com/user/playdecoder/pkg/decoder"
	"github.com/user/playdecoder/pkg/ports"
)

var (
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("playback: session already running")
	// ErrDecoderStopped is returned when the decoder exits before playback ends.
	ErrDecoderStopped = errors.New("playback: decoder stopped")
)

// Session plays one media handle. It implements decoder.Player for its own
// Actor and renders ready buffers into a FrameSink from the Run goroutine.
type Session struct {
	id      string
	handle  ports.PlayerHandle
	engine  ports.Engine
	sink    ports.FrameSink
	logger  ports.Logger
	cfg     Config
	lockCtx context.Context

	available atomic.Bool
	running   atomic.Bool

	// mu guards the fields below. Player callbacks take it from the decoder
	// goroutine, so it is never held while calling into the actor.
	mu           sync.Mutex
	actor        *decoder.Actor
	pool         *bufferpool.Pool
	pendingSeeks []*bufferpool.DecodeBuffer
	seekInFlight bool
	ended        bool
	restart      bool // a seek landed after the end of stream
	summary      Summary

	wake chan struct{}
}

// New creates a session for handle.
func New(handle ports.PlayerHandle, engine ports.Engine, sink ports.FrameSink, logger ports.Logger, cfg Config) *Session {
	if cfg.SeekEvery <= 0 {
		cfg.SeekEvery = 1
	}
	id := uuid.New().String()
	s := &Session{
		id:      id,
		handle:  handle,
		engine:  engine,
		sink:    sink,
		logger:  logger.WithComponent("session " + id[:8]),
		cfg:     cfg,
		lockCtx: xsync.WithNoLogging(context.Background(), true),
		wake:    make(chan struct{}, 1),
	}
	s.available.Store(true)
	s.summary.SessionID = id
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Detach makes Handle report that the media is gone.
func (s *Session) Detach() {
	s.available.Store(false)
}

// State returns the decoder state, StateNotInit before Run.
func (s *Session) State() decoder.State {
	s.mu.Lock()
	actor := s.actor
	s.mu.Unlock()
	if actor == nil {
		return decoder.StateNotInit
	}
	return actor.State()
}

// Summary returns a snapshot of the counters.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Handle implements decoder.Player.
func (s *Session) Handle() (ports.PlayerHandle, bool) {
	return s.handle, s.available.Load()
}

// DecodeProgressed implements decoder.Player. The pool notification already
// wakes the render loop.
func (s *Session) DecodeProgressed() {}

// DecodeEnded implements decoder.Player.
func (s *Session) DecodeEnded() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	s.signal()
}

// HandleSeekResult implements decoder.Player. On success the frames queued
// before the seek are dropped and buf is rendered before anything decoded
// after it.
func (s *Session) HandleSeekResult(buf *bufferpool.DecodeBuffer, result decoder.OptResult) {
	s.mu.Lock()
	s.seekInFlight = false
	if result != decoder.OptSuccess {
		s.summary.SeekFailures++
		s.mu.Unlock()
		s.signal()
		return
	}
	dropped := s.pool.Reset()
	s.summary.Dropped += dropped
	s.pendingSeeks = append(s.pendingSeeks, buf)
	if s.ended {
		s.restart = true
	}
	s.ended = false
	s.mu.Unlock()

	s.logger.Debug("Seek reconciled, dropped %d stale frames", dropped)
	s.signal()
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run plays the media until the end of the stream (and every configured
// seek and loop) has been rendered, or until ctx is cancelled.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return s.Summary(), ErrAlreadyRunning
	}
	start := time.Now()

	actor := decoder.New(ctx, s.engine, s, s.logger, s.cfg.Decoder)
	s.mu.Lock()
	s.actor = actor
	s.pool = actor.Pool()
	s.mu.Unlock()
	defer func() {
		actor.Release()
		<-actor.Done()
	}()

	s.logger.Info("Session %s started", s.id)
	actor.Prepare()
	actor.Decode()

	var (
		nextSeek   int
		sinceSeek  int
		paused     bool
		pausedOnce bool
		resume     <-chan time.Time
		loops      int
	)
	for {
		for {
			buf, seek := s.next()
			if buf == nil {
				break
			}
			frame := s.render(ctx, actor, buf, seek)
			if frame.Kind == ports.KindVideo {
				sinceSeek++
				if s.cfg.PauseAtMs > 0 && !pausedOnce && frame.TimestampMs >= s.cfg.PauseAtMs {
					pausedOnce, paused = true, true
					actor.Pause()
					s.mu.Lock()
					s.summary.Pauses++
					s.mu.Unlock()
					s.logger.Info("Paused at %d ms", frame.TimestampMs)
					if s.cfg.PauseFor > 0 {
						resume = time.After(s.cfg.PauseFor)
					} else {
						paused = false
						s.resume(actor)
						s.logger.Info("Resumed")
					}
				}
			}
			if seek {
				sinceSeek = 0
				if !paused {
					s.resume(actor)
				}
			}
		}

		s.mu.Lock()
		inFlight, ended, pending := s.seekInFlight, s.ended, len(s.pendingSeeks)
		s.mu.Unlock()

		if !inFlight && nextSeek < len(s.cfg.Seeks) && (sinceSeek >= s.cfg.SeekEvery || ended) {
			target := s.cfg.Seeks[nextSeek]
			nextSeek++
			s.mu.Lock()
			s.seekInFlight = true
			s.summary.Seeks++
			s.mu.Unlock()
			s.logger.Info("Seeking to %d ms", target)
			actor.SeekTo(target)
			continue
		}

		if ended && !inFlight && !paused && pending == 0 && nextSeek == len(s.cfg.Seeks) && s.pool.Stats().Ready == 0 {
			if loops >= s.cfg.Loops {
				break
			}
			r, ok := s.handle.(Rewinder)
			if !ok {
				s.logger.Warn("Media cannot be replayed")
				break
			}
			loops++
			r.Rewind()
			s.mu.Lock()
			s.ended = false
			s.restart = false
			s.summary.Loops++
			s.mu.Unlock()
			s.logger.Info("Replaying (%d/%d)", loops, s.cfg.Loops)
			actor.Prepare()
			actor.Decode()
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Warn("Session cancelled")
			return s.finish(start), ctx.Err()
		case <-actor.Done():
			if err := ctx.Err(); err != nil {
				return s.finish(start), err
			}
			return s.finish(start), ErrDecoderStopped
		case <-s.pool.Notify():
		case <-s.wake:
		case <-resume:
			resume = nil
			paused = false
			s.resume(actor)
			s.logger.Info("Resumed")
		}
	}

	summary := s.finish(start)
	s.logger.Info("Playback finished: %d video frames, %d audio frames", summary.VideoFrames, summary.AudioFrames)
	return summary, nil
}

// resume restarts the decode loop. The actor stays in DecodingEnd across a
// seek, so a seek after the end of stream needs a Prepare first.
func (s *Session) resume(actor *decoder.Actor) {
	s.mu.Lock()
	restart := s.restart
	s.restart = false
	s.mu.Unlock()
	if restart {
		actor.Prepare()
	}
	actor.Decode()
}

// next returns a pending seek frame, or else the oldest ready buffer.
func (s *Session) next() (*bufferpool.DecodeBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pendingSeeks) > 0 {
		buf := s.pendingSeeks[0]
		s.pendingSeeks = s.pendingSeeks[1:]
		return buf, true
	}
	return s.pool.AcquireForRender(), false
}

// render copies buf, gives it back to the pool and hands the copy to the sink.
func (s *Session) render(ctx context.Context, actor *decoder.Actor, buf *bufferpool.DecodeBuffer, seek bool) ports.Frame {
	var frame ports.Frame
	buf.Do(s.lockCtx, func(ports.NativeBuffer) {
		frame = buf.CopyFrameLocked(s.engine)
	})
	frame.Seek = seek
	s.pool.ReturnFree(buf)
	actor.CheckIfWaitingAndResume()

	s.mu.Lock()
	switch frame.Kind {
	case ports.KindVideo:
		s.summary.VideoFrames++
		s.summary.LastVideoMs = frame.TimestampMs
	case ports.KindAudio:
		s.summary.AudioFrames++
	default:
		s.summary.EmptyFrames++
	}
	s.summary.Bytes += int64(len(frame.Data))
	s.mu.Unlock()

	if frame.Kind == ports.KindOther {
		return frame
	}
	if err := s.sink.Consume(ctx, frame); err != nil {
		s.mu.Lock()
		s.summary.SinkErrors++
		s.mu.Unlock()
		s.logger.Warn("Failed to write frame: %s", err.Error())
	}
	return frame
}

func (s *Session) finish(start time.Time) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Elapsed = time.Since(start)
	return s.summary
}

var _ decoder.Player = (*Session)(nil)
