// Package server wires every other package into a running daemon: it
// owns the partitions, accepts connections, and runs the
// goroutine-per-connection event loop that reads command lines,
// dispatches them, and writes responses.
//
// One goroutine per connection synchronizes through the idle.Bus and
// partition-owned mutexes rather than a single poll loop multiplexing
// every socket. Startup/shutdown orchestration of the listener
// goroutine and the background housekeeping goroutine uses
// golang.org/x/sync/errgroup to combine their cancellation and error
// paths.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/halcyon-audio/mpdcore/internal/config"
	"github.com/halcyon-audio/mpdcore/internal/dispatch"
	"github.com/halcyon-audio/mpdcore/internal/idle"
	"github.com/halcyon-audio/mpdcore/internal/partition"
	"github.com/halcyon-audio/mpdcore/internal/playercontrol"
	"github.com/halcyon-audio/mpdcore/internal/session"
	"github.com/halcyon-audio/mpdcore/internal/song"
)

const greeting = "OK MPD 0.24.0\n"

// NullBackend is a playercontrol.Backend that does nothing; it exists
// so an Instance can be constructed and exercised, including by
// tests, without a real decoder or output plugin. Every call succeeds
// instantly and a track never reports itself complete on its own, so
// tests drive completion explicitly through the player's command
// protocol instead.
type NullBackend struct{}

func (NullBackend) PrepareTrack(_ song.DetachedSong) error    { return nil }
func (NullBackend) StartPlayback() error                      { return nil }
func (NullBackend) Play() error                                { return nil }
func (NullBackend) Pause() error                                { return nil }
func (NullBackend) Stop() error                                { return nil }
func (NullBackend) Seek(_ time.Duration) error                  { return nil }
func (NullBackend) ElapsedTime() (time.Duration, error)         { return 0, nil }
func (NullBackend) TrackDuration() (time.Duration, error)       { return 0, nil }
func (NullBackend) IsTrackComplete() (bool, error)              { return false, nil }
func (NullBackend) Close()                                      {}

// Instance owns every partition and the shared command table,
// replacing scattered global mutable state with one top-level value.
type Instance struct {
	cfg        config.Config
	partitions map[string]*partition.Partition
	table      *dispatch.Table

	passwordPerms map[string]uint8

	listener net.Listener
	nextConn uint64
}

// NewInstance builds an Instance from cfg, creating one Partition per
// cfg.Partitions entry and registering the full command table.
func NewInstance(cfg config.Config, backendFactory func(partitionName string) playercontrol.Backend) *Instance {
	inst := &Instance{
		cfg:           cfg,
		partitions:    make(map[string]*partition.Partition),
		passwordPerms: make(map[string]uint8),
	}
	for _, pc := range cfg.Partitions {
		bus := idle.New()
		backend := backendFactory(pc.Name)
		inst.partitions[pc.Name] = partition.New(pc.Name, pc.MaxQueueLength, backend, bus)
	}
	for _, p := range cfg.Passwords {
		inst.passwordPerms[p.Password] = config.ParsePermissions(p.Permissions)
	}
	inst.table = dispatch.NewTable()
	registerCommands(inst.table)
	return inst
}

func (inst *Instance) defaultPartition() *partition.Partition {
	return inst.partitions["default"]
}

// Run starts the listener and blocks until ctx is canceled or a fatal
// error occurs, then shuts every partition's player down cleanly.
func (inst *Instance) Run(ctx context.Context) error {
	ln, err := net.Listen(inst.cfg.ListenNetwork, inst.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s %s: %w", inst.cfg.ListenNetwork, inst.cfg.ListenAddress, err)
	}
	inst.listener = ln
	log.Printf("listening on %s %s", inst.cfg.ListenNetwork, inst.cfg.ListenAddress)

	for _, p := range inst.partitions {
		p.Player.Start(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return inst.acceptLoop(gctx) })
	g.Go(func() error { return inst.housekeeping(gctx) })

	<-gctx.Done()
	ln.Close()
	for _, p := range inst.partitions {
		p.Player.Kill(context.Background())
	}
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (inst *Instance) acceptLoop(ctx context.Context) error {
	for {
		conn, err := inst.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		inst.nextConn++
		id := inst.nextConn
		go inst.handleConnection(ctx, id, conn)
	}
}

// housekeeping runs on a fixed tick for future periodic maintenance
// work; connection idle timeouts are already enforced per-connection
// inside handleConnection's read loop via a read deadline, so this
// loop currently just waits out ctx.
func (inst *Instance) housekeeping(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (inst *Instance) handleConnection(ctx context.Context, id uint64, conn net.Conn) {
	defer conn.Close()

	perms := config.ParsePermissions(inst.cfg.DefaultPermissions)
	sess := session.New(id, conn, session.Permission(perms))
	sess.SetTimeout(inst.cfg.ConnectionTimeout())
	sess.SetOutputBufferMax(inst.cfg.MaxOutputBufferSize)

	p := inst.defaultPartition()
	p.AddClient(sess)
	defer p.RemoveClient(sess)

	idleNotify := make(chan idle.Flag, 1)
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go watchIdle(p.Idle, sess, idleNotify, stopWatch)

	if err := sess.WriteLine(strings.TrimSuffix(greeting, "\n")); err != nil {
		return
	}
	sess.Flush()

	lines := make(chan lineResult, 1)
	go readLines(sess, lines)

	rearmDeadline(conn, sess)

	for {
		select {
		case <-ctx.Done():
			return
		case ready := <-idleNotify:
			inst.emitIdleResult(sess, ready)
			if err := sess.Flush(); err != nil {
				return
			}
			rearmDeadline(conn, sess)
		case res := <-lines:
			if res.err != nil {
				return
			}
			sess.Touch(time.Now())
			if res.line != "" {
				_, closeConn := inst.handleLine(p, sess, res.line, idleNotify)
				if err := sess.Flush(); err != nil {
					return
				}
				if closeConn {
					return
				}
			}
			rearmDeadline(conn, sess)
		}
	}
}

// lineResult is one line read off the connection, paired with any
// error that ended the read loop.
type lineResult struct {
	line string
	err  error
}

// readLines feeds lines from sess into out until a read fails. It runs
// on its own goroutine so handleConnection's main loop can select
// between new input and asynchronous idle wakeups instead of blocking
// solely on the socket.
func readLines(sess *session.Session, out chan<- lineResult) {
	for {
		line, err := sess.ReadLine()
		out <- lineResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// rearmDeadline sets the connection's read deadline ahead of the next
// command, or disarms it entirely while the client is blocked in
// `idle`: that wait is intentionally unbounded until an event arrives
// or `noidle` cancels it, not subject to the connection timeout.
func rearmDeadline(conn net.Conn, sess *session.Session) {
	if sess.IsIdleWaiting() {
		conn.SetReadDeadline(time.Time{})
		return
	}
	conn.SetReadDeadline(time.Now().Add(sess.IdleTimeout()))
}

// watchIdle relays bus wakeups into per-connection idle delivery.
// Every connection shares one Bus per partition, so each watcher must
// independently decide (via Session.NotifyIdle) whether the wakeup
// matters to it, and forwards the matched flags so the connection's
// read loop can emit them without re-deriving what was ready.
func watchIdle(bus *idle.Bus, sess *session.Session, notify chan<- idle.Flag, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-bus.Wake():
			flags := bus.Peek()
			if ready, should := sess.NotifyIdle(flags); should {
				select {
				case notify <- ready:
				default:
				}
			}
		}
	}
}

// handleLine processes exactly one input line, which may be a bare
// command, a command-list member line, or `idle`/`noidle`. It returns
// whether the connection should close.
func (inst *Instance) handleLine(p *partition.Partition, sess *session.Session, line string, idleNotify <-chan idle.Flag) (dispatch.Result, bool) {
	// noidle is checked before any other idle-state or command-list
	// decision, so it is never appended to a pending command list.
	if strings.TrimSpace(line) == "noidle" {
		sess.CancelIdle()
		return dispatch.ResultOK, false
	}
	switch {
	case line == "command_list_begin":
		sess.BeginList(false)
		return dispatch.ResultOK, false
	case line == "command_list_ok_begin":
		sess.BeginList(true)
		return dispatch.ResultOK, false
	case line == "command_list_end":
		return inst.flushCommandList(p, sess)
	case sess.InList():
		sess.AppendToList(line)
		return dispatch.ResultOK, false
	}

	args, err := session.SplitLine(line)
	if err != nil {
		sess.WriteLine(dispatch.FormatAck(dispatch.AckArg, 0, "", err.Error()))
		return dispatch.ResultOK, false
	}
	if len(args) == 0 {
		return dispatch.ResultOK, false
	}
	name := args[0]

	if name == "idle" {
		return inst.handleIdleCommand(p, sess, args[1:])
	}

	return inst.runCommand(p, sess, name, args[1:], 0)
}

func (inst *Instance) handleIdleCommand(p *partition.Partition, sess *session.Session, args []string) (dispatch.Result, bool) {
	var mask idle.Flag
	for _, a := range args {
		f, ok := idle.ParseName(a)
		if !ok {
			sess.WriteLine(dispatch.FormatAck(dispatch.AckArg, 0, "idle", "unknown subsystem "+a))
			return dispatch.ResultOK, false
		}
		mask |= f
	}
	ready, blocked := sess.BeginIdle(mask)
	if !blocked {
		inst.emitIdleResult(sess, ready)
		return dispatch.ResultOK, false
	}
	return dispatch.ResultOK, false
}

func (inst *Instance) emitIdleResult(sess *session.Session, flags idle.Flag) {
	for _, n := range idle.Names(flags) {
		sess.WriteLine("changed: " + n)
	}
	sess.WriteLine("OK")
}

func (inst *Instance) runCommand(p *partition.Partition, sess *session.Session, name string, args []string, index int) (dispatch.Result, bool) {
	ctx := &dispatch.Context{
		Args:    args,
		Binding: &binding{partition: p, session: sess, instance: inst},
		Write:   func(l string) { sess.WriteLine(l) },
	}
	result, err := dispatch.Dispatch(inst.table, name, index, dispatch.Permission(sess.Permissions), ctx)
	if err != nil {
		code := dispatch.AckSystem
		if ae, ok := err.(*dispatch.AckError); ok {
			code = ae.Code
		}
		sess.WriteLine(dispatch.FormatAck(code, index, name, err.Error()))
		return result, result == dispatch.ResultClose || result == dispatch.ResultKill
	}
	if index == 0 {
		// Single bare command (not inside a list): emit OK here;
		// command-list framing is handled by flushCommandList instead.
		sess.WriteLine("OK")
	}
	return result, result == dispatch.ResultClose || result == dispatch.ResultKill
}

func (inst *Instance) flushCommandList(p *partition.Partition, sess *session.Session) (dispatch.Result, bool) {
	lines, wantOK := sess.EndList()
	for i, line := range lines {
		args, err := session.SplitLine(line)
		if err != nil || len(args) == 0 {
			sess.WriteLine(dispatch.FormatAck(dispatch.AckArg, i, "", "bad command in list"))
			return dispatch.ResultOK, false
		}
		ctxWrite := func(l string) { sess.WriteLine(l) }
		result, err := dispatch.Dispatch(inst.table, args[0], i, dispatch.Permission(sess.Permissions), &dispatch.Context{
			Args:    args[1:],
			Binding: &binding{partition: p, session: sess, instance: inst},
			Write:   ctxWrite,
		})
		if err != nil {
			code := dispatch.AckSystem
			if ae, ok := err.(*dispatch.AckError); ok {
				code = ae.Code
			}
			sess.WriteLine(dispatch.FormatAck(code, i, args[0], err.Error()))
			return dispatch.ResultOK, false
		}
		if wantOK {
			sess.WriteLine("list_OK")
		}
		if result == dispatch.ResultClose || result == dispatch.ResultKill {
			sess.WriteLine("OK")
			return result, true
		}
	}
	sess.WriteLine("OK")
	return dispatch.ResultOK, false
}

// binding is the concrete value handed to dispatch.Context.Binding;
// handler functions in commands.go type-assert to this.
type binding struct {
	partition *partition.Partition
	session   *session.Session
	instance  *Instance
}

// parseIntArg parses a decimal argument, wrapping strconv's error as
// an AckError with AckArg.
func parseIntArg(name, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, dispatch.NewAckError(dispatch.AckArg, "need a number for %s, got %q", name, val)
	}
	return n, nil
}

// parseRange parses "START:END" or a single position "N" (meaning
// [N, N+1)), matching the wire grammar used by delete/playlistinfo/etc.
func parseRange(s string, length int) (start, end int, err error) {
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		start, err = parseIntArg("range", s[:idx])
		if err != nil {
			return 0, 0, err
		}
		if idx+1 == len(s) {
			end = length
		} else {
			end, err = parseIntArg("range", s[idx+1:])
			if err != nil {
				return 0, 0, err
			}
		}
		return start, end, nil
	}
	n, err := parseIntArg("position", s)
	if err != nil {
		return 0, 0, err
	}
	return n, n + 1, nil
}
