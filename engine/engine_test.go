package engine

import (
	"testing"
	"time"
)

func TestEngineSetGetDel(t *testing.T) {
	e := New()
	e.Set("k", []byte("v"))

	value, ok := e.Get("k")
	if !ok || string(value) != "v" {
		t.Fatalf("Get(k) = %q, %v", value, ok)
	}
	if !e.Del("k") {
		t.Fatal("Del(k) should report true")
	}
	if _, ok := e.Get("k"); ok {
		t.Fatal("Get after Del should miss")
	}
}

func TestEngineSetClearsExistingTTL(t *testing.T) {
	e := New()
	now := time.Unix(1000, 0)
	e.SetWithTTL("k", []byte("v"), 10*time.Second, now)
	if ttl := e.GetTTL("k", now); ttl != 10 {
		t.Fatalf("GetTTL = %d, want 10", ttl)
	}

	e.Set("k", []byte("v2"))
	if ttl := e.GetTTL("k", now); ttl != -1 {
		t.Fatalf("GetTTL after bare Set = %d, want -1", ttl)
	}
}

func TestEngineGetTTLMissingKeyIsMinusTwo(t *testing.T) {
	e := New()
	if ttl := e.GetTTL("missing", time.Unix(0, 0)); ttl != -2 {
		t.Fatalf("GetTTL(missing) = %d, want -2", ttl)
	}
}

func TestEngineSweepRemovesFromStrings(t *testing.T) {
	e := New()
	now := time.Unix(1000, 0)
	e.SetWithTTL("k", []byte("v"), time.Second, now)

	if n := e.Sweep(now.Add(2 * time.Second)); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if e.Exists("k") {
		t.Fatal("swept key should no longer exist")
	}
	if e.ExpiredKeys() != 1 {
		t.Fatalf("ExpiredKeys() = %d, want 1", e.ExpiredKeys())
	}
}

func TestEngineKeysAcrossStringsAndZSets(t *testing.T) {
	e := New()
	e.Set("user:1", []byte("a"))
	if _, err := e.ZAdd("user:2", []Entry{{Member: "m", Score: 1}}); err != nil {
		t.Fatalf("ZAdd: %v", err)
	}

	keys := e.Keys("user:*")
	if len(keys) != 2 {
		t.Fatalf("Keys(user:*) = %v, want 2 entries", keys)
	}
}

func TestEngineTypeAndRename(t *testing.T) {
	e := New()
	e.Set("str", []byte("v"))
	if typ := e.Type("str"); typ != TypeString {
		t.Fatalf("Type(str) = %v, want string", typ)
	}
	if typ := e.Type("missing"); typ != TypeNone {
		t.Fatalf("Type(missing) = %v, want none", typ)
	}

	now := time.Unix(1000, 0)
	e.SetWithTTL("str", []byte("v"), 10*time.Second, now)
	if !e.Rename("str", "str2") {
		t.Fatal("Rename should report true")
	}
	if e.Exists("str") {
		t.Fatal("old key should be gone after Rename")
	}
	value, ok := e.Get("str2")
	if !ok || string(value) != "v" {
		t.Fatalf("Get(str2) = %q, %v", value, ok)
	}
	if ttl := e.GetTTL("str2", now); ttl != 10 {
		t.Fatalf("GetTTL(str2) = %d, want 10 (TTL should carry over Rename)", ttl)
	}
}

func TestEngineAppendAndStrlen(t *testing.T) {
	e := New()
	if n := e.Append("k", []byte("hello")); n != 5 {
		t.Fatalf("Append on missing key = %d, want 5", n)
	}
	if n := e.Append("k", []byte(" world")); n != 11 {
		t.Fatalf("Append = %d, want 11", n)
	}
	if n := e.Strlen("k"); n != 11 {
		t.Fatalf("Strlen = %d, want 11", n)
	}
}

func TestEnginePersist(t *testing.T) {
	e := New()
	now := time.Unix(1000, 0)
	e.SetWithTTL("k", []byte("v"), 10*time.Second, now)
	if !e.Persist("k") {
		t.Fatal("Persist should report true when a TTL existed")
	}
	if ttl := e.GetTTL("k", now); ttl != -1 {
		t.Fatalf("GetTTL after Persist = %d, want -1", ttl)
	}
}

func TestEngineZAddRejectsStringKey(t *testing.T) {
	e := New()
	e.Set("k", []byte("v"))
	if _, err := e.ZAdd("k", []Entry{{Member: "m", Score: 1}}); err == nil {
		t.Fatal("ZAdd on a string key should error")
	}
}

func TestEngineZSetLifecycle(t *testing.T) {
	e := New()
	added, err := e.ZAdd("z", []Entry{{Member: "a", Score: 1}, {Member: "b", Score: 2}})
	if err != nil {
		t.Fatalf("ZAdd: %v", err)
	}
	if added != 2 {
		t.Fatalf("ZAdd added = %d, want 2", added)
	}

	if card := e.ZCard("z"); card != 2 {
		t.Fatalf("ZCard = %d, want 2", card)
	}

	score, ok := e.ZScore("z", "a")
	if !ok || score != 1 {
		t.Fatalf("ZScore(a) = %v, %v, want 1, true", score, ok)
	}

	rank, ok := e.ZRank("z", "b")
	if !ok || rank != 1 {
		t.Fatalf("ZRank(b) = %d, %v, want 1, true", rank, ok)
	}
	revRank, ok := e.ZRevRank("z", "b")
	if !ok || revRank != 0 {
		t.Fatalf("ZRevRank(b) = %d, %v, want 0, true", revRank, ok)
	}

	entries := e.ZRange("z", 0, -1)
	if len(entries) != 2 || entries[0].Member != "a" || entries[1].Member != "b" {
		t.Fatalf("ZRange(0,-1) = %v", entries)
	}

	rev := e.ZRevRange("z", 0, -1)
	if len(rev) != 2 || rev[0].Member != "b" || rev[1].Member != "a" {
		t.Fatalf("ZRevRange(0,-1) = %v", rev)
	}

	if n := e.ZCount("z", 1, 1); n != 1 {
		t.Fatalf("ZCount(1,1) = %d, want 1", n)
	}

	if !e.ZRem("z", "a") {
		t.Fatal("ZRem(a) should report true")
	}
	if !e.ZRem("z", "b") {
		t.Fatal("ZRem(b) should report true")
	}
	if e.Exists("z") {
		t.Fatal("empty sorted set should be removed entirely")
	}
}

func TestEngineFlushAndDBSize(t *testing.T) {
	e := New()
	e.Set("a", []byte("1"))
	e.ZAdd("z", []Entry{{Member: "m", Score: 1}})
	if size := e.DBSize(); size != 2 {
		t.Fatalf("DBSize = %d, want 2", size)
	}
	e.Flush()
	if size := e.DBSize(); size != 0 {
		t.Fatalf("DBSize after Flush = %d, want 0", size)
	}
}
