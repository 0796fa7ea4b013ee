// Package dispatch implements the command table and ACK error
// framing: the static name -> (arity, permission, handler) lookup
// every inbound command line goes through, and the OK/ACK response
// codes defined by the wire protocol.
package dispatch

import "fmt"

// AckCode is one of the wire protocol's numeric error codes.
type AckCode int

const (
	AckNotList         AckCode = 1
	AckArg             AckCode = 2
	AckPassword        AckCode = 3
	AckPermission      AckCode = 4
	AckUnknown         AckCode = 5
	AckNoExist         AckCode = 50
	AckPlaylistMax     AckCode = 51
	AckSystem          AckCode = 52
	AckPlaylistLoad    AckCode = 53
	AckUpdateAlready   AckCode = 54
	AckPlayerSync      AckCode = 55
	AckExist           AckCode = 56
)

// AckError pairs an AckCode with a human-readable message; Error()
// renders only the message, matching how handlers build up error text
// before the dispatcher adds the "ACK [code@index] {cmd}" envelope.
type AckError struct {
	Code    AckCode
	Message string
}

func (e *AckError) Error() string { return e.Message }

// NewAckError constructs an *AckError, accepting printf-style args.
func NewAckError(code AckCode, format string, args ...any) *AckError {
	return &AckError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Permission mirrors session.Permission; duplicated here (rather than
// imported) to keep this package importable by session without a
// cycle.
type Permission uint8

const PermNone Permission = 0

const (
	PermRead Permission = 1 << iota
	PermAdd
	PermControl
	PermAdmin
)

// Result tells the caller what to do after a handler returns.
type Result int

const (
	ResultOK Result = iota
	ResultClose
	ResultKill
)

// Context is everything a handler needs: already-tokenized args (not
// including the command name) and a way to write response lines.
type Context struct {
	Args   []string
	Write  func(line string)
	// Binding is an opaque per-connection/per-partition handle a
	// handler type-asserts to whatever concrete type the server wires
	// in (typically a *partition.Partition plus *session.Session);
	// dispatch itself has no business knowing the concrete shape.
	Binding any
}

// Handler executes one command, writing zero or more response lines
// via ctx.Write and returning a Result plus an error (nil on success).
// An *AckError carries a specific AckCode; any other error is reported
// as AckSystem.
type Handler func(ctx *Context) (Result, error)

// Command is one row of the command table.
type Command struct {
	Name       string
	MinArgs    int
	MaxArgs    int // -1 means unbounded
	Permission Permission
	Handler    Handler
}

// Table is the full set of known commands, keyed by name.
type Table struct {
	commands map[string]*Command
}

// NewTable builds an empty table.
func NewTable() *Table {
	return &Table{commands: make(map[string]*Command)}
}

// Register adds a command, panicking on duplicate registration since
// that can only be a programming error in server wiring.
func (t *Table) Register(c Command) {
	if _, exists := t.commands[c.Name]; exists {
		panic("dispatch: duplicate command " + c.Name)
	}
	t.commands[c.Name] = &c
}

// Lookup returns the command for name, or nil if unknown.
func (t *Table) Lookup(name string) *Command {
	return t.commands[name]
}

// Names returns every registered command name, used by the
// `commands`/`notcommands` introspection commands.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.commands))
	for n := range t.commands {
		out = append(out, n)
	}
	return out
}

// Dispatch looks up name, validates arity and permission, and invokes
// the handler. index is the zero-based position of this command
// within the current command list (0 outside a list), used to build
// the ACK envelope's "@index" field.
func Dispatch(t *Table, name string, index int, perms Permission, ctx *Context) (Result, error) {
	cmd := t.Lookup(name)
	if cmd == nil {
		return ResultOK, &AckError{Code: AckUnknown, Message: fmt.Sprintf("unknown command %q", name)}
	}
	if perms&cmd.Permission != cmd.Permission {
		return ResultOK, &AckError{Code: AckPermission, Message: "you don't have permission for \"" + name + "\""}
	}
	n := len(ctx.Args)
	if n < cmd.MinArgs || (cmd.MaxArgs >= 0 && n > cmd.MaxArgs) {
		return ResultOK, &AckError{Code: AckArg, Message: "wrong number of arguments for \"" + name + "\""}
	}
	return cmd.Handler(ctx)
}

// FormatAck renders an ACK line per the wire grammar:
// "ACK [code@index] {command} message".
func FormatAck(code AckCode, index int, command, message string) string {
	return fmt.Sprintf("ACK [%d@%d] {%s} %s", code, index, command, message)
}
