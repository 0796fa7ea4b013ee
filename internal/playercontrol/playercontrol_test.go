package playercontrol

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/halcyon-audio/mpdcore/internal/song"
)

// fakeBackend is a deterministic stand-in for a real decoder/output
// pair: IsTrackComplete reports true only once armed, letting tests
// control exactly when a track "ends" without a real timer race.
type fakeBackend struct {
	mu       sync.Mutex
	complete bool
	elapsed  time.Duration
	prepared []string
}

func (f *fakeBackend) PrepareTrack(s song.DetachedSong) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepared = append(f.prepared, s.URI)
	f.complete = false
	return nil
}
func (f *fakeBackend) StartPlayback() error { return nil }
func (f *fakeBackend) Play() error          { return nil }
func (f *fakeBackend) Pause() error         { return nil }
func (f *fakeBackend) Stop() error          { return nil }
func (f *fakeBackend) Seek(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elapsed = d
	return nil
}
func (f *fakeBackend) ElapsedTime() (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed, nil
}
func (f *fakeBackend) TrackDuration() (time.Duration, error) { return 3 * time.Minute, nil }
func (f *fakeBackend) IsTrackComplete() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.complete, nil
}
func (f *fakeBackend) Close() {}

func (f *fakeBackend) armComplete() {
	f.mu.Lock()
	f.complete = true
	f.mu.Unlock()
}

func newTestControl(t *testing.T) (*Control, *fakeBackend, context.CancelFunc) {
	t.Helper()
	backend := &fakeBackend{}
	notified := make([]string, 0)
	var mu sync.Mutex
	notify := func(s string) {
		mu.Lock()
		notified = append(notified, s)
		mu.Unlock()
	}
	c := New(backend, notify)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	return c, backend, cancel
}

func TestPlayTransitionsToPlayState(t *testing.T) {
	c, backend, cancel := newTestControl(t)
	defer cancel()

	c.Play(song.DetachedSong{URI: "a.mp3"}, 1)
	st := c.GetStatus()
	if st.State != StatePlay {
		t.Fatalf("expected StatePlay after Play, got %v", st.State)
	}
	if len(backend.prepared) != 1 || backend.prepared[0] != "a.mp3" {
		t.Fatalf("expected backend to prepare a.mp3, got %v", backend.prepared)
	}
}

func TestStopReturnsToStopState(t *testing.T) {
	c, _, cancel := newTestControl(t)
	defer cancel()

	c.Play(song.DetachedSong{URI: "a.mp3"}, 1)
	c.Stop()
	st := c.GetStatus()
	if st.State != StateStop {
		t.Fatalf("expected StateStop after Stop, got %v", st.State)
	}
}

func TestPauseThenResumeRoundTrips(t *testing.T) {
	c, _, cancel := newTestControl(t)
	defer cancel()

	c.Play(song.DetachedSong{URI: "a.mp3"}, 1)
	c.SetPause(true)
	if st := c.GetStatus(); st.State != StatePause {
		t.Fatalf("expected StatePause, got %v", st.State)
	}
	c.SetPause(false)
	if st := c.GetStatus(); st.State != StatePlay {
		t.Fatalf("expected StatePlay after resume, got %v", st.State)
	}
}

func TestPauseWhileStoppedIsNoOp(t *testing.T) {
	c, _, cancel := newTestControl(t)
	defer cancel()

	c.SetPause(true)
	if st := c.GetStatus(); st.State != StateStop {
		t.Fatalf("pausing a stopped player must stay stopped, got %v", st.State)
	}
}

func TestSetErrorFirstErrorWins(t *testing.T) {
	c, _, cancel := newTestControl(t)
	defer cancel()

	c.SetError(ErrorDecoder, "boom")
	c.SetError(ErrorOutput, "second")
	st := c.GetStatus()
	if st.ErrorKind != ErrorDecoder || st.ErrorMessage != "boom" {
		t.Fatalf("expected first error to win, got kind=%v msg=%q", st.ErrorKind, st.ErrorMessage)
	}
	c.ClearError()
	st = c.GetStatus()
	if st.ErrorKind != ErrorNone {
		t.Fatalf("expected error cleared, got %v", st.ErrorKind)
	}
}

func TestBorderPauseOnRunOut(t *testing.T) {
	c, backend, cancel := newTestControl(t)
	defer cancel()

	c.SetBorderPause(true)
	c.Play(song.DetachedSong{URI: "a.mp3"}, 1)
	backend.armComplete()

	deadline := time.After(2 * time.Second)
	for {
		st := c.GetStatus()
		if st.State == StatePause {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected border-pause to kick in, state stuck at %v", st.State)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
