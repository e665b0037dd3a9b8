// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// flushTimeout bounds one background synchronization pass. It must cover a
// find-or-create round-trip per provisional selection entry.
const flushTimeout = 30 * time.Second

// FlushFunc runs one synchronization pass for a session. Errors are handled
// by the autosaver (logged, never retried automatically).
type FlushFunc func(context context.Context, session Session) error

/*
Autosaver debounces draft synchronization on the trailing edge.

# Behaviour

  - Each Schedule restarts the session's quiet-period timer, so a burst of
    edits produces exactly one flush after the last one.
  - Flushes for one session never overlap. A Schedule firing while a flush
    is in progress is coalesced into one follow-up flush.
  - Distinct sessions flush independently.

Flush failures are logged and swallowed: the working state is still in
Redis, and the next edit schedules another attempt.
*/
type Autosaver struct {
	flush FlushFunc
	quiet time.Duration
	base  context.Context
	log   *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]Session
	running map[string]bool
	rerun   map[string]Session
	closed  bool

	// inFlight tracks sessions whose flush loop is running so Close can
	// wait for them instead of letting shutdown abort a write midway.
	inFlight sync.WaitGroup
}

// NewAutosaver creates an autosaver flushing through the given function.
// The base context is the process lifetime; cancelling it aborts in-flight
// flushes during shutdown.
func NewAutosaver(base context.Context, quiet time.Duration, flush FlushFunc, logger *slog.Logger) *Autosaver {
	return &Autosaver{
		flush:   flush,
		quiet:   quiet,
		base:    base,
		log:     logger,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]Session),
		running: make(map[string]bool),
		rerun:   make(map[string]Session),
	}
}

// Schedule (re)arms the session's debounce timer. The pending flush, if
// any, is pushed out by a full quiet period.
func (saver *Autosaver) Schedule(session Session) {
	saver.mu.Lock()
	defer saver.mu.Unlock()

	if saver.closed {
		return
	}
	if timer, ok := saver.timers[session.Key]; ok {
		timer.Stop()
	}
	saver.pending[session.Key] = session
	saver.timers[session.Key] = time.AfterFunc(saver.quiet, func() {
		saver.fire(session)
	})
}

// Cancel drops any pending flush for the session. Used when the draft is
// cleared so a stale timer cannot resurrect it.
func (saver *Autosaver) Cancel(key string) {
	saver.mu.Lock()
	defer saver.mu.Unlock()

	if timer, ok := saver.timers[key]; ok {
		timer.Stop()
		delete(saver.timers, key)
	}
	delete(saver.pending, key)
	delete(saver.rerun, key)
}

// Close drains the autosaver: pending debounce timers are stopped and
// their sessions flushed immediately, then Close blocks until in-flight
// flush loops finish. Call before tearing down the stores.
func (saver *Autosaver) Close() {
	saver.mu.Lock()
	saver.closed = true

	drained := make([]Session, 0, len(saver.pending))
	for key, timer := range saver.timers {
		timer.Stop()
		delete(saver.timers, key)
		session, ok := saver.pending[key]
		if !ok {
			continue
		}
		delete(saver.pending, key)

		// A session mid-flush gets its final pass from its own loop so
		// flushes for one session still never overlap.
		if saver.running[key] {
			saver.rerun[key] = session
			continue
		}
		drained = append(drained, session)
	}
	saver.mu.Unlock()

	for _, session := range drained {
		flushContext, cancel := context.WithTimeout(saver.base, flushTimeout)
		if err := saver.flush(flushContext, session); err != nil {
			saver.log.Warn("draft_autosave_drain_failed",
				slog.String("session_key", session.Key),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}

	saver.inFlight.Wait()
}

// fire runs when a quiet period elapses. It either starts the session's
// flush loop or, when one is already running, records a follow-up.
func (saver *Autosaver) fire(session Session) {
	saver.mu.Lock()
	delete(saver.timers, session.Key)
	delete(saver.pending, session.Key)
	if saver.closed {
		// Close is draining; it flushes the session itself.
		saver.mu.Unlock()
		return
	}
	if saver.running[session.Key] {
		saver.rerun[session.Key] = session
		saver.mu.Unlock()
		return
	}
	saver.running[session.Key] = true
	saver.inFlight.Add(1)
	saver.mu.Unlock()

	saver.run(session)
}

// run flushes until no follow-up is pending for the session.
func (saver *Autosaver) run(session Session) {
	for {
		flushContext, cancel := context.WithTimeout(saver.base, flushTimeout)
		err := saver.flush(flushContext, session)
		cancel()

		if err != nil {
			saver.log.Warn("draft_autosave_failed",
				slog.String("session_key", session.Key),
				slog.String("error", err.Error()),
			)
		}

		saver.mu.Lock()
		next, pending := saver.rerun[session.Key]
		if !pending {
			delete(saver.running, session.Key)
			saver.inFlight.Done()
			saver.mu.Unlock()
			return
		}
		delete(saver.rerun, session.Key)
		saver.mu.Unlock()

		session = next
	}
}
