// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/apchapcomputing/newsletter2paper/internal/core/draft"
)

// flushRecorder counts flush invocations and can hold a flush open to
// exercise the overlap coalescing path.
type flushRecorder struct {
	mu      sync.Mutex
	count   int
	keys    []string
	release chan struct{}
}

func (f *flushRecorder) flush(_ context.Context, session draft.Session) error {
	f.mu.Lock()
	f.count++
	f.keys = append(f.keys, session.Key)
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	return nil
}

func (f *flushRecorder) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

/*
TestAutosaver_DebouncesBursts checks that a burst of schedules produces
exactly one flush after the quiet period.
*/
func TestAutosaver_DebouncesBursts(t *testing.T) {
	recorder := &flushRecorder{}
	saver := draft.NewAutosaver(context.Background(), 20*time.Millisecond, recorder.flush, testLogger())
	defer saver.Close()

	session := draft.Session{Key: "guest-1"}
	for i := 0; i < 10; i++ {
		saver.Schedule(session)
		time.Sleep(2 * time.Millisecond)
	}

	waitFor(t, func() bool { return recorder.total() == 1 })

	// No trailing extra flush shows up later.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, recorder.total())
}

/*
TestAutosaver_CancelDropsPendingFlush ensures a cancelled session never
flushes.
*/
func TestAutosaver_CancelDropsPendingFlush(t *testing.T) {
	recorder := &flushRecorder{}
	saver := draft.NewAutosaver(context.Background(), 20*time.Millisecond, recorder.flush, testLogger())
	defer saver.Close()

	session := draft.Session{Key: "guest-1"}
	saver.Schedule(session)
	saver.Cancel(session.Key)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, recorder.total())
}

/*
TestAutosaver_CoalescesOverlappingFlushes checks that schedules landing
while a flush is in progress collapse into one follow-up flush.
*/
func TestAutosaver_CoalescesOverlappingFlushes(t *testing.T) {
	recorder := &flushRecorder{release: make(chan struct{})}
	saver := draft.NewAutosaver(context.Background(), 10*time.Millisecond, recorder.flush, testLogger())
	defer saver.Close()

	session := draft.Session{Key: "guest-1"}
	saver.Schedule(session)
	waitFor(t, func() bool { return recorder.total() == 1 })

	// Three more quiet periods elapse while the first flush is held open.
	for i := 0; i < 3; i++ {
		saver.Schedule(session)
		time.Sleep(25 * time.Millisecond)
	}

	// Releasing the first flush lets the coalesced follow-up run.
	recorder.mu.Lock()
	release := recorder.release
	recorder.release = nil
	recorder.mu.Unlock()
	close(release)

	waitFor(t, func() bool { return recorder.total() == 2 })

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, recorder.total(), "overlapping schedules must coalesce into one follow-up")
}

/*
TestAutosaver_SessionsFlushIndependently checks per-session isolation.
*/
func TestAutosaver_SessionsFlushIndependently(t *testing.T) {
	recorder := &flushRecorder{}
	saver := draft.NewAutosaver(context.Background(), 10*time.Millisecond, recorder.flush, testLogger())
	defer saver.Close()

	saver.Schedule(draft.Session{Key: "guest-1"})
	saver.Schedule(draft.Session{Key: "guest-2"})

	waitFor(t, func() bool { return recorder.total() == 2 })

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.ElementsMatch(t, []string{"guest-1", "guest-2"}, recorder.keys)
}

/*
TestAutosaver_ClosedSchedulesAreIgnored ensures schedules landing after
Close never flush.
*/
func TestAutosaver_ClosedSchedulesAreIgnored(t *testing.T) {
	recorder := &flushRecorder{}
	saver := draft.NewAutosaver(context.Background(), 10*time.Millisecond, recorder.flush, testLogger())

	saver.Close()
	saver.Schedule(draft.Session{Key: "guest-1"})

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, recorder.total())
}

/*
TestAutosaver_CloseFlushesPending ensures shutdown does not drop edits that
were still waiting out their quiet period.
*/
func TestAutosaver_CloseFlushesPending(t *testing.T) {
	recorder := &flushRecorder{}
	saver := draft.NewAutosaver(context.Background(), time.Hour, recorder.flush, testLogger())

	saver.Schedule(draft.Session{Key: "guest-1"})
	saver.Schedule(draft.Session{Key: "guest-2"})
	saver.Close()

	assert.Equal(t, 2, recorder.total())
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.ElementsMatch(t, []string{"guest-1", "guest-2"}, recorder.keys)
}

/*
TestAutosaver_CloseWaitsForInFlightFlush ensures Close blocks until a
flush that was already running has finished its write.
*/
func TestAutosaver_CloseWaitsForInFlightFlush(t *testing.T) {
	recorder := &flushRecorder{release: make(chan struct{})}
	saver := draft.NewAutosaver(context.Background(), 5*time.Millisecond, recorder.flush, testLogger())

	saver.Schedule(draft.Session{Key: "guest-1"})
	waitFor(t, func() bool { return recorder.total() == 1 })

	closed := make(chan struct{})
	go func() {
		saver.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a flush was still running")
	case <-time.After(30 * time.Millisecond):
	}

	recorder.mu.Lock()
	release := recorder.release
	recorder.release = nil
	recorder.mu.Unlock()
	close(release)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close never returned after the flush finished")
	}
}
