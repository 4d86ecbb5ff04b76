package decoder

import "sync"

// command is one message for the actor goroutine.
type command interface {
	command()
}

type prepareCmd struct{}

// decodeCmd starts the loop. With resume set it only applies in WaitingRender.
type decodeCmd struct {
	resume bool
}

type decodeStepCmd struct{}

type pauseCmd struct{}

type seekCmd struct {
	targetMs int64
}

func (prepareCmd) command()    {}
func (decodeCmd) command()     {}
func (decodeStepCmd) command() {}
func (pauseCmd) command()      {}
func (seekCmd) command()       {}

// inbox is an unbounded FIFO of commands with a blocking receive.
type inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []command
	closed bool
}

func newInbox() *inbox {
	q := &inbox{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// post appends cmd. It returns false once the inbox is closed.
func (q *inbox) post(cmd command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.queue = append(q.queue, cmd)
	q.cond.Signal()
	return true
}

// postUnique appends cmd unless a queued command matches.
func (q *inbox) postUnique(cmd command, match func(command) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	for _, queued := range q.queue {
		if match(queued) {
			return true
		}
	}
	q.queue = append(q.queue, cmd)
	q.cond.Signal()
	return true
}

// remove drops every queued command matching and returns how many were dropped.
func (q *inbox) remove(match func(command) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.queue[:0]
	for _, cmd := range q.queue {
		if !match(cmd) {
			kept = append(kept, cmd)
		}
	}
	dropped := len(q.queue) - len(kept)
	clear(q.queue[len(kept):])
	q.queue = kept
	return dropped
}

// next blocks until a command is available. It returns false once the inbox
// is closed.
func (q *inbox) next() (command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.queue) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}
	cmd := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return cmd, true
}

// close drops everything queued and wakes the receiver.
func (q *inbox) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.queue = nil
	q.cond.Broadcast()
}

func (q *inbox) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

func isDecodeStep(cmd command) bool {
	_, ok := cmd.(decodeStepCmd)
	return ok
}

func isResume(cmd command) bool {
	d, ok := cmd.(decodeCmd)
	return ok && d.resume
}

func isFlushedByPrepare(cmd command) bool {
	switch cmd.(type) {
	case decodeCmd, decodeStepCmd, pauseCmd:
		return true
	}
	return false
}
