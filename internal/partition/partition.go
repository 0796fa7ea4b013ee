// Package partition groups the per-partition state a running instance
// owns: one queue, one playlist controller, the set of clients
// attached to it, and the mixer "memento" that remembers output
// volumes across output toggles.
package partition

import (
	"fmt"
	"sync"

	"github.com/halcyon-audio/mpdcore/internal/idle"
	"github.com/halcyon-audio/mpdcore/internal/playercontrol"
	"github.com/halcyon-audio/mpdcore/internal/playlist"
	"github.com/halcyon-audio/mpdcore/internal/queue"
	"github.com/halcyon-audio/mpdcore/internal/session"
)

// Database is the collaborator interface for resolving
// database-relative URIs. Filesystem and tag-cache crawling are out of
// scope for this core, and no command handler consults a Database:
// the database commands answer NoExist unconditionally.
type Database interface {
	Exists(uri string) bool
}

// Output represents one audio output sink known to a partition. Only
// the bookkeeping MPD's `outputs`/`enableoutput`/`disableoutput`
// commands need is modeled; actual audio rendering is out of scope.
type Output struct {
	ID      int
	Name    string
	Plugin  string
	Enabled bool
}

// MixerMemento remembers the last-known volume per output. Enabling,
// disabling or toggling an output does not consult it; Recall is the
// only way to read a remembered volume back.
type MixerMemento struct {
	mu      sync.Mutex
	volumes map[int]int
}

func newMixerMemento() *MixerMemento {
	return &MixerMemento{volumes: make(map[int]int)}
}

// Remember stores the volume for an output.
func (m *MixerMemento) Remember(outputID, volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes[outputID] = volume
}

// Recall returns the last remembered volume for an output, or 100 if none.
func (m *MixerMemento) Recall(outputID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.volumes[outputID]; ok {
		return v
	}
	return 100
}

// Partition is one independently-controlled playback context: its own
// queue, player, output set, and connected clients.
type Partition struct {
	Name string

	Queue    *queue.Queue
	Player   *playercontrol.Control
	Playlist *playlist.Controller
	Idle     *idle.Bus
	Mixer    *MixerMemento
	Database Database

	mu      sync.Mutex
	outputs []*Output
	volume  int // -1 means "no outputs support hardware volume"

	clients map[*session.Session]bool
}

// New constructs an empty Partition named name, wiring the queue and
// player control through a playlist.Controller whose notify callback
// feeds the given idle bus.
func New(name string, maxQueueLength int, backend playercontrol.Backend, bus *idle.Bus) *Partition {
	q := queue.New(maxQueueLength)
	notify := func(subsystem string) {
		if f, ok := idle.ParseName(subsystem); ok {
			bus.Add(f)
		}
	}
	pc := playercontrol.New(backend, notify)
	pl := playlist.New(q, pc, notify)
	pc.SetAdvanceCallbacks(pl.OnPlayerStartedNext, pl.OnPlayerStopped)
	return &Partition{
		Name:     name,
		Queue:    q,
		Player:   pc,
		Playlist: pl,
		Idle:     bus,
		Mixer:    newMixerMemento(),
		volume:   -1,
		clients:  make(map[*session.Session]bool),
	}
}

// AddClient registers a client as attached to this partition.
func (p *Partition) AddClient(c *session.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[c] = true
}

// RemoveClient detaches a client.
func (p *Partition) RemoveClient(c *session.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.clients, c)
}

// ClientCount returns the number of clients currently attached.
func (p *Partition) ClientCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// AllSessionsSubscribedTo returns every currently-attached session
// subscribed to the given channel, for sendmessage fan-out.
func (p *Partition) AllSessionsSubscribedTo(channel string) []*session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*session.Session
	for c := range p.clients {
		if c.IsSubscribed(channel) {
			out = append(out, c)
		}
	}
	return out
}

// AddOutput registers an output sink with this partition.
func (p *Partition) AddOutput(o *Output) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputs = append(p.outputs, o)
}

// Outputs returns a copy of the output list.
func (p *Partition) Outputs() []Output {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Output, len(p.outputs))
	for i, o := range p.outputs {
		out[i] = *o
	}
	return out
}

// EnableOutput enables the output with the given ID.
func (p *Partition) EnableOutput(id int) error {
	return p.setOutputEnabled(id, true)
}

// DisableOutput disables the output with the given ID.
func (p *Partition) DisableOutput(id int) error {
	return p.setOutputEnabled(id, false)
}

// ToggleOutput flips the enabled state of the output with the given ID.
func (p *Partition) ToggleOutput(id int) error {
	p.mu.Lock()
	for _, o := range p.outputs {
		if o.ID == id {
			p.mu.Unlock()
			return p.setOutputEnabled(id, !o.Enabled)
		}
	}
	p.mu.Unlock()
	return fmt.Errorf("no such output: %d", id)
}

func (p *Partition) setOutputEnabled(id int, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.outputs {
		if o.ID == id {
			o.Enabled = enabled
			p.Idle.Add(idle.Output)
			return nil
		}
	}
	return fmt.Errorf("no such output: %d", id)
}

// SetVolume sets the partition's hardware mixer volume (0-100),
// remembering it per-output through the MixerMemento.
func (p *Partition) SetVolume(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("volume %d out of range [0,100]", v)
	}
	p.mu.Lock()
	p.volume = v
	for _, o := range p.outputs {
		p.Mixer.Remember(o.ID, v)
	}
	p.mu.Unlock()
	p.Idle.Add(idle.Mixer)
	return nil
}

// Volume returns the current volume, or -1 if unknown/unsupported.
func (p *Partition) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}
