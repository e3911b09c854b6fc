package dispatcher

import (
	"strconv"
	"strings"
	"time"

	"github.com/vaultkv/vaultkv/codec"
	"github.com/vaultkv/vaultkv/engine"
)

func (d *Dispatcher) registerZSet() {
	d.add("zadd", 4, -1, false, cmdZAdd)
	d.add("zrem", 3, 3, false, cmdZRem)
	d.add("zscore", 3, 3, true, cmdZScore)
	d.add("zrank", 3, 3, true, cmdZRank)
	d.add("zrevrank", 3, 3, true, cmdZRevRank)
	d.add("zcard", 2, 2, true, cmdZCard)
	d.add("zrange", 4, 5, true, cmdZRange)
	d.add("zrevrange", 4, 5, true, cmdZRevRange)
	d.add("zrangebyscore", 4, 4, true, cmdZRangeByScore)
	d.add("zcount", 4, 4, true, cmdZCount)
}

// cmdZAdd implements ZADD key score member [score member ...], matching the
// resolved Open Question that ZADD takes score-then-member pairs.
func cmdZAdd(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	pairs := args[2:]
	if len(pairs)%2 != 0 {
		return codec.NewErrorString("ERR syntax error")
	}

	entries := make([]engine.Entry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		score, err := strconv.ParseFloat(string(pairs[i]), 64)
		if err != nil {
			return codec.NewErrorString("ERR value is not a valid float")
		}
		entries = append(entries, engine.Entry{Score: score, Member: string(pairs[i+1])})
	}

	added, err := eng.ZAdd(string(args[1]), entries)
	if err != nil {
		return codec.NewErrorString("WRONGTYPE " + err.Error())
	}
	return codec.NewInteger(int64(added))
}

func cmdZRem(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	if eng.ZRem(string(args[1]), string(args[2])) {
		return codec.NewInteger(1)
	}
	return codec.NewInteger(0)
}

func cmdZScore(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	score, ok := eng.ZScore(string(args[1]), string(args[2]))
	if !ok {
		return codec.NewNull()
	}
	return codec.NewBulkString([]byte(formatScore(score)))
}

func cmdZRank(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	rank, ok := eng.ZRank(string(args[1]), string(args[2]))
	if !ok {
		return codec.NewNull()
	}
	return codec.NewInteger(int64(rank))
}

func cmdZRevRank(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	rank, ok := eng.ZRevRank(string(args[1]), string(args[2]))
	if !ok {
		return codec.NewNull()
	}
	return codec.NewInteger(int64(rank))
}

func cmdZCard(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	return codec.NewInteger(int64(eng.ZCard(string(args[1]))))
}

func cmdZRange(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	start, stop, err := parseRange(args[2], args[3])
	if err != nil {
		return codec.NewErrorString("ERR value is not an integer or out of range")
	}
	withScores, errReply := parseWithScores(args)
	if errReply != nil {
		return errReply
	}
	entries := eng.ZRange(string(args[1]), start, stop)
	if withScores {
		return entriesToArray(entries)
	}
	return membersToArray(entries)
}

func cmdZRevRange(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	start, stop, err := parseRange(args[2], args[3])
	if err != nil {
		return codec.NewErrorString("ERR value is not an integer or out of range")
	}
	withScores, errReply := parseWithScores(args)
	if errReply != nil {
		return errReply
	}
	entries := eng.ZRevRange(string(args[1]), start, stop)
	if withScores {
		return entriesToArray(entries)
	}
	return membersToArray(entries)
}

// parseWithScores reports whether the optional 5th argument is the
// WITHSCORES literal, erroring on anything else unrecognized.
func parseWithScores(args [][]byte) (withScores bool, errReply *codec.Message) {
	if len(args) < 5 {
		return false, nil
	}
	if !strings.EqualFold(string(args[4]), "WITHSCORES") {
		return false, codec.NewErrorString("ERR syntax error")
	}
	return true, nil
}

func cmdZRangeByScore(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	min, max, err := parseScoreRange(args[2], args[3])
	if err != nil {
		return codec.NewErrorString("ERR min or max is not a float")
	}
	return entriesToArray(eng.ZRangeByScore(string(args[1]), min, max))
}

func cmdZCount(eng *engine.Engine, args [][]byte, now time.Time) *codec.Message {
	min, max, err := parseScoreRange(args[2], args[3])
	if err != nil {
		return codec.NewErrorString("ERR min or max is not a float")
	}
	return codec.NewInteger(int64(eng.ZCount(string(args[1]), min, max)))
}

func parseRange(rawStart, rawStop []byte) (int, int, error) {
	start, err := strconv.Atoi(string(rawStart))
	if err != nil {
		return 0, 0, err
	}
	stop, err := strconv.Atoi(string(rawStop))
	if err != nil {
		return 0, 0, err
	}
	return start, stop, nil
}

func parseScoreRange(rawMin, rawMax []byte) (float64, float64, error) {
	min, err := strconv.ParseFloat(string(rawMin), 64)
	if err != nil {
		return 0, 0, err
	}
	max, err := strconv.ParseFloat(string(rawMax), 64)
	if err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

// entriesToArray flattens [member, score] pairs into a single bulk-string
// array, the conventional WITHSCORES shape.
func entriesToArray(entries []engine.Entry) *codec.Message {
	elems := make([]*codec.Message, 0, len(entries)*2)
	for _, e := range entries {
		elems = append(elems, codec.NewBulkString([]byte(e.Member)))
		elems = append(elems, codec.NewBulkString([]byte(formatScore(e.Score))))
	}
	return codec.NewArray(elems)
}

// membersToArray returns a plain array of member bulk strings, for ZRANGE
// calls without WITHSCORES.
func membersToArray(entries []engine.Entry) *codec.Message {
	elems := make([]*codec.Message, len(entries))
	for i, e := range entries {
		elems[i] = codec.NewBulkString([]byte(e.Member))
	}
	return codec.NewArray(elems)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'g', -1, 64)
}
