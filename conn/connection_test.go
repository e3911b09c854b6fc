package conn

import (
	"net"
	"testing"
	"time"

	"github.com/vaultkv/vaultkv/codec"
	"github.com/vaultkv/vaultkv/executor"
)

func testConfig() Config {
	return Config{
		ReadBufferCapBytes:        1 << 20,
		WriteBufferHighWaterBytes: 16 << 20,
		WriteBufferLowWaterBytes:  4 << 20,
	}
}

// serverClientPair wires a Connection up against a real loopback TCP pair
// so reads/writes exercise actual socket semantics rather than an in-memory
// pipe's synchronous handoff.
func serverClientPair(t *testing.T) (serverConn net.Conn, client net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	acceptc := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		acceptc <- c
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	serverConn = <-acceptc
	return serverConn, client
}

func sendCommand(t *testing.T, client net.Conn, args ...string) {
	t.Helper()
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	frame := codec.Serialize(codec.MakeCommand(raw))
	if _, err := client.Write(frame); err != nil {
		t.Fatalf("client write: %v", err)
	}
}

// replyParsers keeps one parser per client connection so bytes of later
// pipelined replies, read in the same chunk as an earlier one, are kept
// for the next readReply call.
var replyParsers = map[net.Conn]*codec.Parser{}

func readReply(t *testing.T, client net.Conn) *codec.Message {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	parser, ok := replyParsers[client]
	if !ok {
		parser = codec.NewParser()
		replyParsers[client] = parser
	}
	buf := make([]byte, 4096)
	for {
		msg, perr := parser.TryParse()
		if perr != nil {
			t.Fatalf("reply parse error: %v", perr)
		}
		if msg != nil {
			return msg
		}
		n, err := client.Read(buf)
		if n > 0 {
			parser.Feed(buf[:n])
			continue
		}
		if err != nil {
			t.Fatalf("client read: %v", err)
		}
	}
}

func TestConnectionPingPong(t *testing.T) {
	serverSide, client := serverClientPair(t)
	defer client.Close()

	exec := executor.New(100*time.Millisecond, nil)
	c := New(serverSide, exec, testConfig(), nil)
	go c.Serve()

	sendCommand(t, client, "PING")
	reply := readReply(t, client)
	if reply.Kind != codec.KindSimpleString || string(reply.Str) != "PONG" {
		t.Fatalf("PING reply = %v, want +PONG", reply)
	}
}

func TestConnectionPreservesPipelineOrder(t *testing.T) {
	serverSide, client := serverClientPair(t)
	defer client.Close()

	exec := executor.New(100*time.Millisecond, nil)
	c := New(serverSide, exec, testConfig(), nil)
	go c.Serve()

	sendCommand(t, client, "SET", "a", "1")
	sendCommand(t, client, "SET", "b", "2")
	sendCommand(t, client, "GET", "a")
	sendCommand(t, client, "GET", "b")

	for _, want := range []string{"OK", "OK"} {
		reply := readReply(t, client)
		if reply.Kind != codec.KindSimpleString || string(reply.Str) != want {
			t.Fatalf("SET reply = %v, want +%s", reply, want)
		}
	}
	for _, want := range []string{"1", "2"} {
		reply := readReply(t, client)
		if reply.Kind != codec.KindBulkString || string(reply.Str) != want {
			t.Fatalf("GET reply = %v, want $%s", reply, want)
		}
	}
}

func TestConnectionClosesOnProtocolPoison(t *testing.T) {
	serverSide, client := serverClientPair(t)
	defer client.Close()

	exec := executor.New(100*time.Millisecond, nil)
	c := New(serverSide, exec, testConfig(), nil)
	go c.Serve()

	// An unknown type code (0xFF) with a plausible length poisons the parser.
	garbage := []byte{0xFF, 0x00, 0x00, 0x00, 0x00}
	if _, err := client.Write(garbage); err != nil {
		t.Fatalf("client write: %v", err)
	}

	reply := readReply(t, client)
	if reply.Kind != codec.KindError {
		t.Fatalf("poison reply = %v, want an error message", reply)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	if _, err := client.Read(buf); err == nil {
		t.Fatal("expected connection to close after protocol poison")
	}
}
