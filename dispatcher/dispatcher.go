// Package dispatcher maps command names to handler functions over the
// engine, validating arity and recovering from handler panics, matching
// the name->handler table pattern of the teacher's database.DBExecutor
// cmdHandlers map.
package dispatcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/vaultkv/vaultkv/codec"
	"github.com/vaultkv/vaultkv/engine"
)

// HandlerFunc implements one command's logic directly against the engine.
// now is the wall-clock time the owning executor sampled for this command,
// threaded through rather than read fresh so TTL math stays self-consistent
// across a single command's handler body.
type HandlerFunc func(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message

// spec describes one command's arity and read/write classification. minArgs
// counts the command name itself; -1 means "at least minArgs, unbounded".
type spec struct {
	handler  HandlerFunc
	minArgs  int
	maxArgs  int // -1 = unbounded
	readOnly bool
}

// Dispatcher is the name->handler table. It holds no engine reference and
// no lock of its own; Dispatch is called by the executor, which owns both.
type Dispatcher struct {
	table map[string]spec
}

func New() *Dispatcher {
	d := &Dispatcher{table: make(map[string]spec)}
	d.registerString()
	d.registerMisc()
	d.registerZSet()
	return d
}

func (d *Dispatcher) add(name string, minArgs, maxArgs int, readOnly bool, h HandlerFunc) {
	d.table[name] = spec{handler: h, minArgs: minArgs, maxArgs: maxArgs, readOnly: readOnly}
}

// Count reports the number of registered commands, for COMMAND COUNT.
func (d *Dispatcher) Count() int {
	return len(d.table)
}

// IsReadOnly reports whether name is a registered command that never
// mutates the engine, so the executor can take a read lock instead of a
// write lock. Unknown commands report false (conservatively serialized).
func (d *Dispatcher) IsReadOnly(name string) bool {
	s, ok := d.table[strings.ToLower(name)]
	return ok && s.readOnly
}

// Dispatch looks up args[0] as the command name, validates arity, recovers
// from any handler panic as an error reply, and runs the handler.
func (d *Dispatcher) Dispatch(eng *engine.Engine, args [][]byte, now time.Time) (reply *codec.Message) {
	if len(args) == 0 {
		return codec.NewErrorString("ERR empty command")
	}
	name := strings.ToLower(string(args[0]))

	s, ok := d.table[name]
	if !ok {
		return codec.NewErrorString(fmt.Sprintf("ERR unknown command '%s'", name))
	}
	if len(args) < s.minArgs || (s.maxArgs >= 0 && len(args) > s.maxArgs) {
		return codec.NewErrorString(fmt.Sprintf("ERR wrong number of arguments for '%s'", name))
	}

	defer func() {
		if r := recover(); r != nil {
			reply = codec.NewErrorString(fmt.Sprintf("ERR internal error processing '%s': %v", name, r))
		}
	}()

	eng.RecordCommand()
	return s.handler(eng, args, now)
}
