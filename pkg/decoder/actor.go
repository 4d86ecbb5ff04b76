package decoder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/xaionaro-go/xsync"

	"github.com/user/playdecoder/pkg/bufferpool"
	"github.com/user/playdecoder/pkg/ports"
)

// Actor drives an Engine from a single worker goroutine.
type Actor struct {
	engine ports.Engine
	player Player
	logger ports.Logger
	pool   *bufferpool.Pool
	inbox  *inbox

	state    atomic.Int32
	released atomic.Bool

	ctx     context.Context
	cancel  context.CancelFunc
	lockCtx context.Context

	releaseOnce sync.Once
	ready       chan struct{}
	done        chan struct{}
}

// New starts the worker goroutine and returns once it is running.
// Cancelling ctx has the same effect as Release.
func New(ctx context.Context, engine ports.Engine, player Player, logger ports.Logger, cfg Config) *Actor {
	actorCtx, cancel := context.WithCancel(ctx)
	a := &Actor{
		engine:  engine,
		player:  player,
		logger:  logger.WithComponent("decoder"),
		pool:    bufferpool.New(engine, cfg.PoolSize),
		inbox:   newInbox(),
		ctx:     actorCtx,
		cancel:  cancel,
		lockCtx: xsync.WithNoLogging(context.Background(), true),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	a.state.Store(int32(StateNotInit))
	context.AfterFunc(actorCtx, a.Release)

	go a.run()
	<-a.ready
	return a
}

// State returns the current state. It reports StateReleased as soon as
// Release has been called.
func (a *Actor) State() State {
	if a.released.Load() {
		return StateReleased
	}
	return State(a.state.Load())
}

// Pool returns the buffer pool shared with the consumer.
func (a *Actor) Pool() *bufferpool.Pool {
	return a.pool
}

// Done is closed once the worker has exited and the pool is closed.
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

// Prepare drops queued decode and pause requests and (re)builds the pool.
func (a *Actor) Prepare() {
	if a.released.Load() {
		a.logger.Error("Prepare ignored, decoder released")
		return
	}
	if n := a.inbox.remove(isFlushedByPrepare); n > 0 {
		a.logger.Debug("Dropped %d queued requests", n)
	}
	a.inbox.post(prepareCmd{})
}

// Decode starts or resumes the decode loop.
func (a *Actor) Decode() {
	if a.released.Load() {
		return
	}
	a.inbox.post(decodeCmd{})
}

// Pause stops the decode loop after the current step.
func (a *Actor) Pause() {
	if a.released.Load() {
		return
	}
	a.inbox.post(pauseCmd{})
}

// SeekTo positions the engine at targetMs and hands the resulting frame to
// the player.
func (a *Actor) SeekTo(targetMs int64) {
	if a.released.Load() {
		return
	}
	a.inbox.post(seekCmd{targetMs: targetMs})
}

// CheckIfWaitingAndResume resumes the loop if it stopped for lack of free
// buffers. The consumer calls it after returning a buffer.
func (a *Actor) CheckIfWaitingAndResume() {
	if a.released.Load() {
		return
	}
	a.inbox.postUnique(decodeCmd{resume: true}, isResume)
}

// Release stops the worker and frees the pool. Queued commands are dropped
// and later calls are no-ops.
func (a *Actor) Release() {
	a.releaseOnce.Do(func() {
		a.released.Store(true)
		a.inbox.close()
		a.cancel()
	})
}

func (a *Actor) run() {
	defer close(a.done)
	defer func() {
		a.pool.Close(a.lockCtx)
		a.state.Store(int32(StateReleased))
		a.logger.Debug("Decoder released")
	}()

	close(a.ready)
	for {
		cmd, ok := a.inbox.next()
		if !ok || a.released.Load() {
			return
		}
		a.dispatch(cmd)
	}
}

func (a *Actor) dispatch(cmd command) {
	state := a.current()
	if state == StateReleased {
		return
	}

	switch c := cmd.(type) {
	case prepareCmd:
		a.handlePrepare()
	case decodeCmd:
		a.handleDecode(state, c.resume)
	case decodeStepCmd:
		a.handleStep(state)
	case pauseCmd:
		a.handlePause(state)
	case seekCmd:
		a.handleSeek(state, c.targetMs)
	}
}

func (a *Actor) current() State {
	return State(a.state.Load())
}

func (a *Actor) setState(s State) {
	a.state.Store(int32(s))
}

func (a *Actor) postStep() {
	a.inbox.postUnique(decodeStepCmd{}, isDecodeStep)
}

func (a *Actor) handlePrepare() {
	if err := a.pool.Prepare(); err != nil {
		a.logger.Error("Failed to prepare buffer pool: %s", err.Error())
		return
	}
	a.setState(StatePrepared)
	a.logger.Info("Decoder prepared with %d buffers", a.pool.Size())
}

func (a *Actor) handleDecode(state State, resume bool) {
	if resume && state != StateWaitingRender {
		return
	}
	switch state {
	case StatePrepared, StatePaused, StateWaitingRender:
		a.setState(StateDecoding)
		a.postStep()
	default:
		a.logger.Debug("Skip decode request in state %s", state.String())
	}
}

func (a *Actor) handlePause(state State) {
	switch state {
	case StateDecoding, StateWaitingRender:
		a.setState(StatePaused)
	default:
		a.logger.Debug("Skip pause request in state %s", state.String())
	}
}

func (a *Actor) handleStep(state State) {
	if state != StateDecoding {
		a.logger.Debug("Skip decode step in state %s", state.String())
		return
	}

	buf := a.pool.AcquireForDecode()
	if buf == nil {
		a.setState(StateWaitingRender)
		a.logger.Debug("Waiting for a free buffer")
		return
	}

	handle, ok := a.player.Handle()
	if !ok {
		a.pool.ReturnFree(buf)
		a.logger.Error("Decode step aborted: %s", ErrEngineUnavailable.Error())
		return
	}

	var (
		result    = ResultFail
		cancelled bool
	)
	buf.Do(a.lockCtx, func(native ports.NativeBuffer) {
		if a.released.Load() {
			cancelled = true
			return
		}
		result = ResultFromRaw(a.engine.DecodeInto(a.ctx, handle, native))
		if result != ResultFail {
			buf.CaptureLocked(a.engine)
		}
	})
	if cancelled {
		a.pool.ReturnFree(buf)
		return
	}

	switch result {
	case ResultSuccess:
		a.pool.PublishReady(buf)
		a.player.DecodeProgressed()
		a.postStep()
	case ResultDecodingEnd:
		a.pool.PublishReady(buf)
		a.setState(StateDecodingEnd)
		a.logger.Info("Decode reached end of stream")
		a.player.DecodeEnded()
	default:
		a.pool.ReturnFree(buf)
		a.logger.Warn("Decode failed, retrying")
		a.postStep()
	}
}

func (a *Actor) handleSeek(state State, targetMs int64) {
	if state == StateNotInit {
		a.logger.Debug("Skip seek request in state %s", state.String())
		a.player.HandleSeekResult(nil, OptFail)
		return
	}

	handle, ok := a.player.Handle()
	if !ok {
		a.logger.Error("Seek to %d ms aborted: %s", targetMs, ErrEngineUnavailable.Error())
		a.player.HandleSeekResult(nil, OptFail)
		return
	}

	buf := a.pool.AcquireForDecodeForced()
	if buf == nil {
		a.logger.Error("Seek to %d ms aborted: no buffer available", targetMs)
		a.player.HandleSeekResult(nil, OptFail)
		return
	}

	start := time.Now()
	var (
		result    = OptFail
		cancelled bool
	)
	buf.Do(a.lockCtx, func(native ports.NativeBuffer) {
		if a.released.Load() {
			cancelled = true
			return
		}
		result = OptResultFromRaw(a.engine.SeekInto(a.ctx, handle, native, targetMs))
		if result == OptSuccess {
			buf.CaptureLocked(a.engine)
		}
	})
	if cancelled {
		a.pool.ReturnFree(buf)
		return
	}
	elapsed := time.Since(start).Milliseconds()

	if result == OptSuccess {
		a.logger.Info("Seek to %d ms succeeded in %d ms", targetMs, elapsed)
		a.player.HandleSeekResult(buf, result)
		return
	}

	a.logger.Warn("Seek to %d ms failed after %d ms", targetMs, elapsed)
	a.player.HandleSeekResult(buf, result)
	a.pool.ReturnFree(buf)
}
