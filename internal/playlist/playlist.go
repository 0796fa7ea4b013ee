// Package playlist implements the playlist controller: the glue
// between a queue.Queue and a playercontrol.Control that decides which
// order index plays next, advances on completion, and applies the
// repeat/single/random/consume mode flags to that decision.
package playlist

import (
	"fmt"
	"time"

	"github.com/halcyon-audio/mpdcore/internal/playercontrol"
	"github.com/halcyon-audio/mpdcore/internal/queue"
)

// Controller binds one Queue to one playercontrol.Control and tracks
// which order index is "current" (playing or paused) and which is
// "queued" (handed to Control as the next song, not yet playing).
type Controller struct {
	Queue   *queue.Queue
	Player  *playercontrol.Control
	notify  func(subsystem string)

	current int // order index, -1 if none
	queued  int // order index, -1 if none
}

// New constructs a Controller over q and p.
func New(q *queue.Queue, p *playercontrol.Control, notify func(string)) *Controller {
	return &Controller{Queue: q, Player: p, notify: notify, current: -1, queued: -1}
}

// PlayOrder starts playback at the given order index. order == -1
// means "resume/start at the current order if any, else order 0".
func (c *Controller) PlayOrder(order int) error {
	n := c.Queue.Length()
	if n == 0 {
		return fmt.Errorf("queue is empty")
	}
	if order == -1 {
		if c.current >= 0 {
			order = c.current
		} else {
			order = 0
		}
	}
	if order < 0 || order >= n {
		return fmt.Errorf("order %d out of range", order)
	}

	entry, _, err := c.Queue.AtOrder(order)
	if err != nil {
		return err
	}
	c.current = order
	c.queued = -1
	c.Queue.SetCurrentOrder(order)
	c.Player.Play(entry.Song, int32(entry.ID))
	c.notifyPlaylist()
	return nil
}

// PlayID starts playback at the entry with the given ID.
func (c *Controller) PlayID(id queue.SongID) error {
	_, pos, err := c.Queue.ByID(id)
	if err != nil {
		return err
	}
	order, err := c.Queue.OrderForPosition(pos)
	if err != nil {
		return err
	}
	return c.PlayOrder(order)
}

// Stop halts playback and clears current/queued bookkeeping.
func (c *Controller) Stop() {
	c.Player.Stop()
	c.current = -1
	c.queued = -1
	c.Queue.SetCurrentOrder(-1)
	c.notifyPlaylist()
}

// SetPause pauses or resumes playback in place.
func (c *Controller) SetPause(pause bool) {
	c.Player.SetPause(pause)
}

// Next advances to the order after current, applying single/repeat
// boundary rules the same way UpdateQueuedSong does (both use nextOrder).
func (c *Controller) Next() error {
	next, ok := c.nextOrder()
	if !ok {
		c.Stop()
		return nil
	}
	return c.PlayOrder(next)
}

// Previous moves to the order before current, wrapping to the last
// order under repeat mode, mirroring Next's boundary handling.
func (c *Controller) Previous() error {
	if c.current <= 0 {
		repeat, _, _, _ := c.Queue.Modes()
		n := c.Queue.Length()
		if repeat && n > 0 {
			return c.PlayOrder(n - 1)
		}
		return fmt.Errorf("no previous song")
	}
	return c.PlayOrder(c.current - 1)
}

// Seek seeks within the song at the given order (or the current song
// if order == -1) to the given position in milliseconds.
func (c *Controller) Seek(order int, positionMS int64) error {
	if order == -1 {
		order = c.current
	}
	entry, _, err := c.Queue.AtOrder(order)
	if err != nil {
		return err
	}
	if order != c.current {
		c.current = order
		c.queued = -1
		c.Queue.SetCurrentOrder(order)
	}
	return c.Player.Seek(entry.Song, int32(entry.ID), time.Duration(positionMS)*time.Millisecond)
}

// CurrentOrder returns the order index of the playing/paused song, or
// -1 if stopped.
func (c *Controller) CurrentOrder() int { return c.current }

// UpdateQueuedSong recomputes what should be handed to the player as
// the "next" song and pushes it down if it changed, called after any
// queue mutation that could affect the upcoming song (add, delete,
// move, priority change, mode flag change). Only the identity of the
// queued song matters, not a full re-enqueue, to avoid interrupting an
// in-flight cross-fade.
func (c *Controller) UpdateQueuedSong() {
	if c.current < 0 {
		return
	}
	next, ok := c.nextOrder()
	if !ok {
		if c.queued >= 0 {
			c.Player.Cancel()
			c.queued = -1
		}
		return
	}
	if next == c.queued {
		return
	}
	entry, _, err := c.Queue.AtOrder(next)
	if err != nil {
		return
	}
	c.queued = next
	c.Player.EnqueueSong(entry.Song, int32(entry.ID))
}

// nextOrder computes the order that should follow c.current under the
// current repeat/single flags. Random mode needs no special
// case here: the queue's order
// permutation already encodes the random sequence, so "current+1" is
// correct whether or not random is enabled.
func (c *Controller) nextOrder() (int, bool) {
	repeat, single, _, _ := c.Queue.Modes()
	n := c.Queue.Length()
	if n == 0 {
		return 0, false
	}
	if single && !repeat {
		return 0, false
	}
	if single && repeat {
		return c.current, true
	}
	next := c.current + 1
	if next >= n {
		if repeat {
			return 0, true
		}
		return 0, false
	}
	return next, true
}

// OnPlayerStartedNext is the player's advance callback (wired by
// partition.New), run from the player's poll goroutine when the
// player moved on to the queued song on its own, keeping current/queued in sync without a
// second source of truth for "what's playing".
func (c *Controller) OnPlayerStartedNext() {
	if c.queued < 0 {
		return
	}
	consume := c.consumeEnabled()
	prev := c.current
	c.current = c.queued
	c.queued = -1
	c.Queue.SetCurrentOrder(c.current)
	if consume {
		c.consumePlayedOrder(prev)
	}
	c.notifyPlaylist()
}

// OnPlayerStopped is the player's stop callback (wired by
// partition.New), run from the player's poll goroutine when the
// player returned to the stop state on its own (e.g. ran off the end of the
// queue without border-pause).
func (c *Controller) OnPlayerStopped() {
	consume := c.consumeEnabled()
	prev := c.current
	c.current = -1
	c.queued = -1
	c.Queue.SetCurrentOrder(-1)
	if consume && prev >= 0 {
		c.consumePlayedOrder(prev)
	}
	c.notifyPlaylist()
}

func (c *Controller) consumeEnabled() bool {
	_, _, _, consume := c.Queue.Modes()
	return consume
}

// consumePlayedOrder removes the entry that was just played, per the
// `consume` mode flag. Deleting compacts the order numbering, so a
// current order index after the removed one is shifted down by one.
func (c *Controller) consumePlayedOrder(order int) {
	pos, err := c.Queue.PositionForOrder(order)
	if err != nil {
		return
	}
	_ = c.Queue.DeletePosition(pos)
	if c.current > order {
		c.current--
	}
}

func (c *Controller) SetRepeat(v bool) {
	if c.Queue.SetRepeat(v) {
		c.UpdateQueuedSong()
		c.notifyOptions()
	}
}

func (c *Controller) SetSingle(v bool) {
	if c.Queue.SetSingle(v) {
		c.UpdateQueuedSong()
		c.notifyOptions()
	}
}

func (c *Controller) SetConsume(v bool) {
	if c.Queue.SetConsume(v) {
		c.notifyOptions()
	}
}

func (c *Controller) SetRandom(v bool) {
	if c.Queue.SetRandom(v) {
		c.UpdateQueuedSong()
		c.notifyOptions()
	}
}

func (c *Controller) notifyPlaylist() {
	if c.notify != nil {
		c.notify("playlist")
		c.notify("player")
	}
}

func (c *Controller) notifyOptions() {
	if c.notify != nil {
		c.notify("options")
	}
}

