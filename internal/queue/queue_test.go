package queue

import (
	"math/rand"
	"testing"

	"github.com/halcyon-audio/mpdcore/internal/song"
)

func mustSong(uri string) song.DetachedSong {
	return song.DetachedSong{URI: uri}
}

func TestAppendAssignsIncreasingIDsAndPositions(t *testing.T) {
	q := New(10)
	id1, err := q.Append(mustSong("a.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := q.Append(mustSong("b.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d and %d", id1, id2)
	}
	if q.Length() != 2 {
		t.Fatalf("expected length 2, got %d", q.Length())
	}
	if err := q.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
}

func TestAppendRejectsOverMaxLength(t *testing.T) {
	q := New(1)
	if _, err := q.Append(mustSong("a.mp3")); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Append(mustSong("b.mp3")); err == nil {
		t.Fatal("expected error appending beyond max length")
	}
}

func TestDeletePositionRenumbersOrder(t *testing.T) {
	q := New(10)
	for _, u := range []string{"a", "b", "c"} {
		if _, err := q.Append(mustSong(u)); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.DeletePosition(1); err != nil {
		t.Fatal(err)
	}
	if q.Length() != 2 {
		t.Fatalf("expected length 2 after delete, got %d", q.Length())
	}
	entry, err := q.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Song.URI != "a" {
		t.Fatalf("expected first entry to remain 'a', got %q", entry.Song.URI)
	}
	entry, err = q.At(1)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Song.URI != "c" {
		t.Fatalf("expected second entry to be 'c', got %q", entry.Song.URI)
	}
	if err := q.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
}

func TestMoveRangePreservesOrderRank(t *testing.T) {
	q := New(10)
	for _, u := range []string{"a", "b", "c", "d"} {
		if _, err := q.Append(mustSong(u)); err != nil {
			t.Fatal(err)
		}
	}
	// order == position initially (random off), so order rank for "b"
	// is 1. Move position 1 ("b") to position 3.
	if err := q.MoveRange(1, 2, 3); err != nil {
		t.Fatal(err)
	}
	entry, err := q.At(3)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Song.URI != "b" {
		t.Fatalf("expected 'b' at position 3, got %q", entry.Song.URI)
	}
	order, err := q.OrderForPosition(3)
	if err != nil {
		t.Fatal(err)
	}
	if order != 1 {
		t.Fatalf("expected 'b' to keep order rank 1, got %d", order)
	}
	if err := q.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
}

func TestSwapPositionsSwapsOrderToo(t *testing.T) {
	q := New(10)
	for _, u := range []string{"a", "b", "c"} {
		if _, err := q.Append(mustSong(u)); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.SwapPositions(0, 2); err != nil {
		t.Fatal(err)
	}
	first, _ := q.At(0)
	last, _ := q.At(2)
	if first.Song.URI != "c" || last.Song.URI != "a" {
		t.Fatalf("swap did not exchange entries: got %q, %q", first.Song.URI, last.Song.URI)
	}
	if o, _ := q.OrderForPosition(0); o != 2 {
		t.Fatalf("expected position 0 to carry 'c's order rank 2, got %d", o)
	}
	if o, _ := q.OrderForPosition(2); o != 0 {
		t.Fatalf("expected position 2 to carry 'a's order rank 0, got %d", o)
	}
	if err := q.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
}

func TestPriorityMovesHigherPriorityEarlierInOrder(t *testing.T) {
	q := New(10)
	for _, u := range []string{"a", "b", "c"} {
		if _, err := q.Append(mustSong(u)); err != nil {
			t.Fatal(err)
		}
	}
	// Give "c" (position 2) top priority; it should become order 0.
	if err := q.SetPriorityRange(2, 3, 200); err != nil {
		t.Fatal(err)
	}
	entry, pos, err := q.AtOrder(0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Song.URI != "c" || pos != 2 {
		t.Fatalf("expected 'c' to be first in play order, got %q at pos %d", entry.Song.URI, pos)
	}
	if err := q.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
}

func TestPriorityRespectsFrozenHeadDuringPlayback(t *testing.T) {
	q := New(10)
	for _, u := range []string{"a", "b", "c"} {
		if _, err := q.Append(mustSong(u)); err != nil {
			t.Fatal(err)
		}
	}
	// "a" (order 0) is playing; a later priority boost on "a" itself
	// (a position at or before the frozen head) must not move the
	// in-progress order out from under the player.
	q.SetCurrentOrder(0)
	if err := q.SetPriorityRange(0, 1, 255); err != nil {
		t.Fatal(err)
	}
	order, err := q.OrderForPosition(0)
	if err != nil {
		t.Fatal(err)
	}
	if order != 0 {
		t.Fatalf("expected currently-playing entry to stay at order 0, got %d", order)
	}
	if err := q.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
}

func TestShuffleIsBijectionAndRespectsCurrent(t *testing.T) {
	q := New(10)
	for i := 0; i < 6; i++ {
		if _, err := q.Append(mustSong(string(rune('a' + i)))); err != nil {
			t.Fatal(err)
		}
	}
	q.SetRandSource(rand.New(rand.NewSource(42)))
	q.SetCurrentOrder(1)
	q.ShuffleOrder()
	if err := q.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
	// Order 0 and 1 (already played/playing) must be untouched by the
	// shuffle since only current+1.. is mutable.
	order, err := q.OrderForPosition(1)
	if err != nil {
		t.Fatal(err)
	}
	if order != 1 {
		t.Fatalf("shuffle disturbed the frozen head: order for position 1 is now %d", order)
	}
}

func TestChangesSinceReturnsOnlyNewerVersions(t *testing.T) {
	q := New(10)
	if _, err := q.Append(mustSong("a")); err != nil {
		t.Fatal(err)
	}
	v1 := q.Version()
	if _, err := q.Append(mustSong("b")); err != nil {
		t.Fatal(err)
	}
	changes := q.ChangesSince(v1)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change since v1, got %d", len(changes))
	}
	if changes[0].Entry.Song.URI != "b" {
		t.Fatalf("expected changed entry to be 'b', got %q", changes[0].Entry.Song.URI)
	}
}

func TestDeleteRangeRejectsInvalidBounds(t *testing.T) {
	q := New(10)
	if _, err := q.Append(mustSong("a")); err != nil {
		t.Fatal(err)
	}
	if err := q.DeleteRange(0, 5); err == nil {
		t.Fatal("expected error deleting out-of-range")
	}
}
