package dispatcher

import (
	"strconv"
	"strings"
	"time"

	"github.com/vaultkv/vaultkv/codec"
	"github.com/vaultkv/vaultkv/engine"
)

func (d *Dispatcher) registerString() {
	d.add("get", 2, 2, true, cmdGet)
	d.add("set", 3, 5, false, cmdSet)
	d.add("del", 2, -1, false, cmdDel)
	d.add("exists", 2, -1, true, cmdExists)
	d.add("keys", 2, 2, true, cmdKeys)
	d.add("append", 3, 3, false, cmdAppend)
	d.add("strlen", 2, 2, true, cmdStrlen)
	d.add("rename", 3, 3, false, cmdRename)
	d.add("type", 2, 2, true, cmdType)
}

func cmdGet(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	value, ok := eng.Get(string(args[1]))
	if !ok {
		return codec.NewNull()
	}
	return codec.NewBulkString(value)
}

// cmdSet implements SET key value [EX seconds]. The optional trailing
// clause mirrors the teacher's datastore Set handler.
func cmdSet(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	key, value := string(args[1]), args[2]

	if len(args) == 3 {
		eng.Set(key, value)
		return codec.NewSimpleString([]byte("OK"))
	}

	if len(args) != 5 || !strings.EqualFold(string(args[3]), "EX") {
		return codec.NewErrorString("ERR syntax error")
	}
	seconds, err := strconv.ParseInt(string(args[4]), 10, 64)
	if err != nil || seconds <= 0 {
		return codec.NewErrorString("ERR invalid expire time in 'set' command")
	}
	eng.SetWithTTL(key, value, time.Duration(seconds)*time.Second, now)
	return codec.NewSimpleString([]byte("OK"))
}

func cmdDel(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	var deleted int64
	for _, key := range args[1:] {
		if eng.Del(string(key)) {
			deleted++
		}
	}
	return codec.NewInteger(deleted)
}

func cmdExists(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	var count int64
	for _, key := range args[1:] {
		if eng.Exists(string(key)) {
			count++
		}
	}
	return codec.NewInteger(count)
}

func cmdKeys(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	matches := eng.Keys(string(args[1]))
	elems := make([]*codec.Message, len(matches))
	for i, key := range matches {
		elems[i] = codec.NewBulkString([]byte(key))
	}
	return codec.NewArray(elems)
}

func cmdAppend(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return codec.NewInteger(int64(eng.Append(string(args[1]), args[2])))
}

func cmdStrlen(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return codec.NewInteger(int64(eng.Strlen(string(args[1]))))
}

func cmdRename(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	if !eng.Rename(string(args[1]), string(args[2])) {
		return codec.NewErrorString("ERR no such key")
	}
	return codec.NewSimpleString([]byte("OK"))
}

func cmdType(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return codec.NewSimpleString([]byte(eng.Type(string(args[1]))))
}
