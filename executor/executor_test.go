package executor

import (
	"testing"
	"time"

	"github.com/vaultkv/vaultkv/codec"
)

func TestExecutorSetGet(t *testing.T) {
	e := New(50*time.Millisecond, nil)

	reply := e.Execute([][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	if reply.Kind != codec.KindSimpleString {
		t.Fatalf("SET = %v, want +OK", reply)
	}

	reply = e.Execute([][]byte{[]byte("GET"), []byte("k")})
	if reply.Kind != codec.KindBulkString || string(reply.Str) != "v" {
		t.Fatalf("GET = %v, want $v", reply)
	}
}

func TestExecutorSweepExpiresKeys(t *testing.T) {
	e := New(20*time.Millisecond, nil)
	e.Run()
	defer e.Close()

	e.Execute([][]byte{[]byte("SET"), []byte("k"), []byte("v"), []byte("EX"), []byte("1")})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		reply := e.Execute([][]byte{[]byte("EXISTS"), []byte("k")})
		if reply.Int == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("key was never swept after its TTL elapsed")
}

func TestExecutorEmptyCommand(t *testing.T) {
	e := New(50*time.Millisecond, nil)
	reply := e.Execute(nil)
	if reply.Kind != codec.KindError {
		t.Fatalf("empty command = %v, want error", reply)
	}
}

func TestExecutorCloseStopsTicker(t *testing.T) {
	e := New(10*time.Millisecond, nil)
	e.Run()
	e.Close()
}
