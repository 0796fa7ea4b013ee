// Package idle implements the process-global "what changed" bus that
// makes the MPD `idle` command work: a bitmask of pending event
// classes, set from any goroutine, drained by the server loop, with
// masked per-client fan-out so a waiting client only wakes for the
// subsystems it asked about.
package idle

import "sync"

// Flag identifies one event class. Bits may be combined with OR to
// subscribe to several classes at once.
type Flag uint32

const (
	Database Flag = 1 << iota
	StoredPlaylist
	Queue
	Player
	Mixer
	Output
	Options
	Sticker
	Subscription
	Message
	Update
	Neighbor
	Partition
	Mount

	All = Database | StoredPlaylist | Queue | Player | Mixer | Output |
		Options | Sticker | Subscription | Message | Update | Neighbor |
		Partition | Mount
)

var names = map[Flag]string{
	Database:       "database",
	StoredPlaylist:  "stored_playlist",
	Queue:           "playlist",
	Player:          "player",
	Mixer:           "mixer",
	Output:          "output",
	Options:         "options",
	Sticker:         "sticker",
	Subscription:    "subscription",
	Message:         "message",
	Update:          "update",
	Neighbor:        "neighbor",
	Partition:       "partition",
	Mount:           "mount",
}

// orderedFlags fixes the bit-to-name iteration order used when
// emitting "changed:" lines, so test fixtures can assert exact output.
var orderedFlags = []Flag{
	Database, StoredPlaylist, Queue, Player, Mixer, Output, Options,
	Sticker, Subscription, Message, Update, Neighbor, Partition, Mount,
}

// Name returns the wire-protocol subsystem name for a single bit. It
// returns "" for a flag that isn't exactly one bit or isn't known.
func Name(f Flag) string { return names[f] }

// ParseName returns the Flag for a wire-protocol subsystem name.
func ParseName(s string) (Flag, bool) {
	for f, n := range names {
		if n == s {
			return f, true
		}
	}
	return 0, false
}

// Names splits mask into its component subsystem names, in the fixed
// order above, so that repeated drains with the same bits produce
// identical output (property 8.1.3, idle coalescing).
func Names(mask Flag) []string {
	var out []string
	for _, f := range orderedFlags {
		if mask&f != 0 {
			out = append(out, names[f])
		}
	}
	return out
}

// Bus is the global pending-event bitmask. The zero value is usable.
type Bus struct {
	mu      sync.Mutex
	pending Flag

	// wake receives one value each time pending transitions from
	// "nothing new" to "something new is available", waking the
	// server loop without it having to poll. Buffered to 1: a single
	// pending wakeup is always enough context, since the loop drains
	// the whole mask on each wakeup.
	wake chan struct{}
}

// New constructs a Bus ready for concurrent use.
func New() *Bus {
	return &Bus{wake: make(chan struct{}, 1)}
}

// Wake returns the channel the server loop selects on to be notified
// of new idle activity. A receive on this channel does not itself
// clear anything; callers must still call Drain.
func (b *Bus) Wake() <-chan struct{} { return b.wake }

// Add sets flags in the pending mask. Safe to call from any goroutine
// (the player thread, a background update worker, …). If any bit
// transitions from 0 to 1, a wakeup is posted to the server loop.
func (b *Bus) Add(flags Flag) {
	if flags == 0 {
		return
	}
	b.mu.Lock()
	before := b.pending
	b.pending |= flags
	changed := b.pending != before
	b.mu.Unlock()

	if changed {
		select {
		case b.wake <- struct{}{}:
		default:
		}
	}
}

// Drain atomically reads and clears the pending mask, returning what
// was pending. Intended to be called once per wakeup from the server
// loop only.
func (b *Bus) Drain() Flag {
	b.mu.Lock()
	defer b.mu.Unlock()
	local := b.pending
	b.pending = 0
	return local
}

// Peek returns the current pending mask without clearing it. Useful
// for diagnostics; the server loop should use Drain.
func (b *Bus) Peek() Flag {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}
