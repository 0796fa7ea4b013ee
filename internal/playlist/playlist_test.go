package playlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/halcyon-audio/mpdcore/internal/playercontrol"
	"github.com/halcyon-audio/mpdcore/internal/queue"
	"github.com/halcyon-audio/mpdcore/internal/song"
)

type fakeBackend struct {
	mu       sync.Mutex
	complete bool
}

func (f *fakeBackend) PrepareTrack(song.DetachedSong) error { return nil }
func (f *fakeBackend) StartPlayback() error                 { return nil }
func (f *fakeBackend) Play() error                          { return nil }
func (f *fakeBackend) Pause() error                         { return nil }
func (f *fakeBackend) Stop() error                          { return nil }
func (f *fakeBackend) Seek(time.Duration) error             { return nil }
func (f *fakeBackend) ElapsedTime() (time.Duration, error)  { return 0, nil }
func (f *fakeBackend) TrackDuration() (time.Duration, error) {
	return time.Minute, nil
}
func (f *fakeBackend) IsTrackComplete() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.complete, nil
}
func (f *fakeBackend) Close() {}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	q := queue.New(100)
	backend := &fakeBackend{}
	var notified []string
	var mu sync.Mutex
	notify := func(s string) {
		mu.Lock()
		notified = append(notified, s)
		mu.Unlock()
	}
	pc := playercontrol.New(backend, notify)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	pc.Start(ctx)
	return New(q, pc, notify)
}

func addSongs(t *testing.T, c *Controller, uris ...string) {
	t.Helper()
	for _, u := range uris {
		if _, err := c.Queue.Append(song.DetachedSong{URI: u}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPlayOrderStartsAtRequestedOrder(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b", "c")
	if err := c.PlayOrder(1); err != nil {
		t.Fatal(err)
	}
	if c.CurrentOrder() != 1 {
		t.Fatalf("expected current order 1, got %d", c.CurrentOrder())
	}
}

func TestNextAdvancesAndStopsAtEndWithoutRepeat(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b")
	if err := c.PlayOrder(0); err != nil {
		t.Fatal(err)
	}
	if err := c.Next(); err != nil {
		t.Fatal(err)
	}
	if c.CurrentOrder() != 1 {
		t.Fatalf("expected order 1, got %d", c.CurrentOrder())
	}
	if err := c.Next(); err != nil {
		t.Fatal(err)
	}
	if c.CurrentOrder() != -1 {
		t.Fatalf("expected playback to stop at end of queue, got order %d", c.CurrentOrder())
	}
}

func TestNextWrapsWithRepeat(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b")
	c.SetRepeat(true)
	if err := c.PlayOrder(1); err != nil {
		t.Fatal(err)
	}
	if err := c.Next(); err != nil {
		t.Fatal(err)
	}
	if c.CurrentOrder() != 0 {
		t.Fatalf("expected wraparound to order 0 under repeat, got %d", c.CurrentOrder())
	}
}

func TestSingleWithoutRepeatStopsAfterOneSong(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b", "c")
	c.SetSingle(true)
	if err := c.PlayOrder(0); err != nil {
		t.Fatal(err)
	}
	if err := c.Next(); err != nil {
		t.Fatal(err)
	}
	if c.CurrentOrder() != -1 {
		t.Fatalf("expected single mode to stop playback, got order %d", c.CurrentOrder())
	}
}

func TestSingleWithRepeatRepeatsCurrentSong(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b", "c")
	c.SetSingle(true)
	c.SetRepeat(true)
	if err := c.PlayOrder(1); err != nil {
		t.Fatal(err)
	}
	if err := c.Next(); err != nil {
		t.Fatal(err)
	}
	if c.CurrentOrder() != 1 {
		t.Fatalf("expected single+repeat to repeat order 1, got %d", c.CurrentOrder())
	}
}

func TestUpdateQueuedSongTracksNextOrder(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b", "c")
	if err := c.PlayOrder(0); err != nil {
		t.Fatal(err)
	}
	c.UpdateQueuedSong()
	if c.queued != 1 {
		t.Fatalf("expected queued order 1, got %d", c.queued)
	}
}

func TestOnPlayerStartedNextAdvancesCurrent(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b")
	if err := c.PlayOrder(0); err != nil {
		t.Fatal(err)
	}
	c.UpdateQueuedSong()
	c.OnPlayerStartedNext()
	if c.CurrentOrder() != 1 {
		t.Fatalf("expected current order to become 1, got %d", c.CurrentOrder())
	}
}

func TestConsumeRemovesPlayedSong(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b")
	c.SetConsume(true)
	if err := c.PlayOrder(0); err != nil {
		t.Fatal(err)
	}
	c.UpdateQueuedSong()
	c.OnPlayerStartedNext()
	if c.Queue.Length() != 1 {
		t.Fatalf("expected consume to remove the played song, queue length %d", c.Queue.Length())
	}
	entry, err := c.Queue.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Song.URI != "b" {
		t.Fatalf("expected remaining song to be 'b', got %q", entry.Song.URI)
	}
}

func TestStopClearsCurrentAndQueued(t *testing.T) {
	c := newTestController(t)
	addSongs(t, c, "a", "b")
	if err := c.PlayOrder(0); err != nil {
		t.Fatal(err)
	}
	c.Stop()
	if c.CurrentOrder() != -1 {
		t.Fatalf("expected stop to clear current order, got %d", c.CurrentOrder())
	}
}
