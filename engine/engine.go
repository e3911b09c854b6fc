// Package engine implements the in-memory data containers: the chained
// hash map (C2), the AVL-backed sorted set (C3), and the TTL min-heap (C4),
// unified behind a single Engine type. Engine carries no lock of its own —
// the executor shares it between connection goroutines behind a
// reader/writer lock, which callers must hold around every method.
package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ValueType names the kind of value stored at a key, for the TYPE command.
type ValueType string

const (
	TypeNone   ValueType = "none"
	TypeString ValueType = "string"
	TypeZSet   ValueType = "zset"
)

// Engine is the single owner of all server state: the string KV table, the
// named sorted sets, and the TTL tracker shared across both.
type Engine struct {
	strings *HashMap
	zsets   map[string]*SortedSet
	expiry  *ExpiryHeap

	commandsProcessed atomic.Uint64
	expiredKeys       uint64
}

func New() *Engine {
	return &Engine{
		strings: NewHashMap(),
		zsets:   make(map[string]*SortedSet),
		expiry:  NewExpiryHeap(),
	}
}

// --- string KV -----------------------------------------------------------

func (e *Engine) Get(key string) ([]byte, bool) {
	return e.strings.Get(key)
}

// Set stores value under key, clearing any TTL previously attached to it
// (matching the convention that a bare SET drops expiry).
func (e *Engine) Set(key string, value []byte) SetResult {
	res := e.strings.Set(key, value)
	e.expiry.RemoveTTL(key)
	return res
}

// SetWithTTL stores value under key and arms a TTL in the same step, for
// SET ... EX <seconds>.
func (e *Engine) SetWithTTL(key string, value []byte, ttl time.Duration, now time.Time) SetResult {
	res := e.strings.Set(key, value)
	e.expiry.SetTTL(key, ttl, now)
	return res
}

func (e *Engine) Del(key string) bool {
	deleted := e.strings.Del(key)
	if _, isZSet := e.zsets[key]; isZSet {
		delete(e.zsets, key)
		deleted = true
	}
	e.expiry.RemoveTTL(key)
	return deleted
}

func (e *Engine) Exists(key string) bool {
	if e.strings.Exists(key) {
		return true
	}
	_, ok := e.zsets[key]
	return ok
}

func (e *Engine) Keys(pattern string) []string {
	out := e.strings.Keys(pattern)
	for key := range e.zsets {
		if matchGlob(pattern, key) {
			out = append(out, key)
		}
	}
	return out
}

func (e *Engine) Flush() {
	e.strings.Clear()
	e.zsets = make(map[string]*SortedSet)
	e.expiry = NewExpiryHeap()
}

func (e *Engine) DBSize() int {
	return e.strings.Len() + len(e.zsets)
}

func (e *Engine) Type(key string) ValueType {
	if e.strings.Exists(key) {
		return TypeString
	}
	if _, ok := e.zsets[key]; ok {
		return TypeZSet
	}
	return TypeNone
}

// Rename moves key's value (string or zset) to newKey, carrying its TTL
// along. Returns false if key does not exist.
func (e *Engine) Rename(key, newKey string) bool {
	if key == newKey {
		return e.Exists(key)
	}

	if value, ok := e.strings.Get(key); ok {
		e.strings.Del(key)
		e.strings.Set(newKey, value)
		e.moveTTL(key, newKey)
		delete(e.zsets, newKey)
		return true
	}
	if zs, ok := e.zsets[key]; ok {
		delete(e.zsets, key)
		e.zsets[newKey] = zs
		e.moveTTL(key, newKey)
		e.strings.Del(newKey)
		return true
	}
	return false
}

func (e *Engine) moveTTL(from, to string) {
	e.expiry.Rename(from, to)
}

// Append appends suffix to key's existing string value (treating a missing
// key as empty), returning the resulting length.
func (e *Engine) Append(key string, suffix []byte) int {
	existing, _ := e.strings.Get(key)
	combined := append(append([]byte{}, existing...), suffix...)
	e.strings.Set(key, combined)
	return len(combined)
}

func (e *Engine) Strlen(key string) int {
	value, ok := e.strings.Get(key)
	if !ok {
		return 0
	}
	return len(value)
}

// --- TTL -------------------------------------------------------------

// SetTTL arms or clears key's expiry. Returns false if key does not exist
// in either container.
func (e *Engine) SetTTL(key string, ttl time.Duration, now time.Time) bool {
	if !e.Exists(key) {
		return false
	}
	e.expiry.SetTTL(key, ttl, now)
	return true
}

// GetTTL returns the remaining seconds on key's TTL: -1 if key exists with
// no TTL, -2 if key does not exist or its TTL has elapsed but it has not
// yet been swept.
func (e *Engine) GetTTL(key string, now time.Time) int64 {
	if !e.Exists(key) {
		return -2
	}
	return e.expiry.GetTTL(key, now)
}

func (e *Engine) Persist(key string) bool {
	return e.expiry.RemoveTTL(key)
}

// Sweep removes every key whose TTL has elapsed as of now, from whichever
// container holds it, and returns how many were removed.
func (e *Engine) Sweep(now time.Time) int {
	expired := e.expiry.Sweep(now)
	for _, key := range expired {
		e.strings.Del(key)
		delete(e.zsets, key)
	}
	e.expiredKeys += uint64(len(expired))
	return len(expired)
}

// --- sorted sets -----------------------------------------------------

func (e *Engine) zsetFor(key string) *SortedSet {
	zs, ok := e.zsets[key]
	if !ok {
		zs = NewSortedSet()
		e.zsets[key] = zs
	}
	return zs
}

// ZAdd adds or updates (score, member) pairs in key's sorted set, creating
// it if absent. Returns the count of newly inserted members.
func (e *Engine) ZAdd(key string, entries []Entry) (int, error) {
	if e.strings.Exists(key) {
		return 0, fmt.Errorf("value at key %q is not a sorted set", key)
	}
	zs := e.zsetFor(key)
	added := 0
	for _, entry := range entries {
		if zs.Add(entry.Score, entry.Member) {
			added++
		}
	}
	return added, nil
}

func (e *Engine) ZRem(key, member string) bool {
	zs, ok := e.zsets[key]
	if !ok {
		return false
	}
	removed := zs.Rem(member)
	if removed && zs.Card() == 0 {
		delete(e.zsets, key)
		e.expiry.RemoveTTL(key)
	}
	return removed
}

func (e *Engine) ZScore(key, member string) (float64, bool) {
	zs, ok := e.zsets[key]
	if !ok {
		return 0, false
	}
	return zs.Score(member)
}

func (e *Engine) ZRank(key, member string) (int, bool) {
	zs, ok := e.zsets[key]
	if !ok {
		return 0, false
	}
	return zs.Rank(member)
}

// ZRevRank returns member's 0-based rank in descending order.
func (e *Engine) ZRevRank(key, member string) (int, bool) {
	zs, ok := e.zsets[key]
	if !ok {
		return 0, false
	}
	rank, ok := zs.Rank(member)
	if !ok {
		return 0, false
	}
	return zs.Card() - 1 - rank, true
}

func (e *Engine) ZCard(key string) int {
	zs, ok := e.zsets[key]
	if !ok {
		return 0
	}
	return zs.Card()
}

func (e *Engine) ZRange(key string, start, stop int) []Entry {
	zs, ok := e.zsets[key]
	if !ok {
		return nil
	}
	return zs.RangeByRank(start, stop)
}

// ZRevRange is ZRange with the result order reversed.
func (e *Engine) ZRevRange(key string, start, stop int) []Entry {
	zs, ok := e.zsets[key]
	if !ok {
		return nil
	}
	entries := zs.RangeByRank(start, stop)
	reverse(entries)
	return entries
}

func (e *Engine) ZRangeByScore(key string, min, max float64) []Entry {
	zs, ok := e.zsets[key]
	if !ok {
		return nil
	}
	return zs.RangeByScore(min, max)
}

func (e *Engine) ZCount(key string, min, max float64) int {
	zs, ok := e.zsets[key]
	if !ok {
		return 0
	}
	return zs.CountByScore(min, max)
}

func reverse(entries []Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}

// Stats exposes the hash map's bucket occupancy for introspection commands.
func (e *Engine) Stats() BucketStats {
	return e.strings.Stats()
}

func (e *Engine) CommandsProcessed() uint64 {
	return e.commandsProcessed.Load()
}

func (e *Engine) ExpiredKeys() uint64 {
	return e.expiredKeys
}

// RecordCommand increments the processed-command counter; the dispatcher
// calls this once per handled command regardless of outcome. It is atomic
// because read-only commands call it while holding only a read lock.
func (e *Engine) RecordCommand() {
	e.commandsProcessed.Add(1)
}
