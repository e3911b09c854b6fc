package dispatcher

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vaultkv/vaultkv/codec"
	"github.com/vaultkv/vaultkv/engine"
)

func (d *Dispatcher) registerMisc() {
	d.add("ping", 1, 2, true, cmdPing)
	d.add("echo", 2, 2, true, cmdEcho)
	d.add("flushdb", 1, 1, false, cmdFlushdb)
	d.add("dbsize", 1, 1, true, cmdDbsize)
	d.add("info", 1, 1, true, cmdInfo)
	d.add("expire", 3, 3, false, cmdExpire)
	d.add("pexpire", 3, 3, false, cmdPexpire)
	d.add("ttl", 2, 2, true, cmdTTL)
	d.add("pttl", 2, 2, true, cmdPTTL)
	d.add("persist", 2, 2, false, cmdPersist)
	d.add("command", 1, 2, true, func(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
		return cmdCommand(d, args)
	})
}

func cmdPing(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	if len(args) == 2 {
		return codec.NewBulkString(args[1])
	}
	return codec.NewSimpleString([]byte("PONG"))
}

func cmdEcho(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return codec.NewBulkString(args[1])
}

func cmdFlushdb(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	eng.Flush()
	return codec.NewSimpleString([]byte("OK"))
}

func cmdDbsize(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return codec.NewInteger(int64(eng.DBSize()))
}

func cmdInfo(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	stats := eng.Stats()
	info := fmt.Sprintf(
		"commands_processed:%d\r\nexpired_keys:%d\r\ndb_size:%d\r\nhash_buckets:%d\r\nhash_load_factor:%.4f\r\n",
		eng.CommandsProcessed(), eng.ExpiredKeys(), eng.DBSize(), stats.BucketCount, stats.LoadFactor,
	)
	return codec.NewBulkString([]byte(info))
}

func cmdExpire(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return expireWithUnit(eng, args, now, time.Second)
}

func cmdPexpire(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return expireWithUnit(eng, args, now, time.Millisecond)
}

func expireWithUnit(eng *engine.Engine, args [][]byte, now time.Time, unit time.Duration) *codec.Message {
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return codec.NewErrorString("ERR value is not an integer or out of range")
	}
	if !eng.SetTTL(string(args[1]), time.Duration(n)*unit, now) {
		return codec.NewInteger(0)
	}
	return codec.NewInteger(1)
}

func cmdTTL(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return codec.NewInteger(eng.GetTTL(string(args[1]), now))
}

func cmdPTTL(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	seconds := eng.GetTTL(string(args[1]), now)
	if seconds < 0 {
		return codec.NewInteger(seconds)
	}
	return codec.NewInteger(seconds * 1000)
}

func cmdPersist(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	if eng.Persist(string(args[1])) {
		return codec.NewInteger(1)
	}
	return codec.NewInteger(0)
}

func cmdCommand(d *Dispatcher, args [][]byte) *codec.Message {
	if len(args) == 2 && strings.EqualFold(string(args[1]), "count") {
		return codec.NewInteger(int64(d.Count()))
	}
	return codec.NewErrorString("ERR unsupported COMMAND subcommand")
}
