// Package conn implements the per-connection I/O state machine (C6): a
// reader goroutine that feeds the wire parser and dispatches commands, and
// a writer goroutine that drains the resulting response queue, the two
// coordinated through a shared condition variable so a full write queue
// backs off reads, and a drained queue wakes a backed-off reader.
//
// The pending-response queue itself is an edwingeng/deque/v2 Deque used as
// a FIFO (PushFront/PopBack), the same queue shape and library the teacher
// pack's metapipe-memcached client uses to preserve request/response order
// on a single TCP connection.
package conn

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/edwingeng/deque/v2"

	"github.com/vaultkv/vaultkv/codec"
	"github.com/vaultkv/vaultkv/executor"
	"github.com/vaultkv/vaultkv/log"
	"github.com/vaultkv/vaultkv/metrics"
)

// Config carries the connection-level tuning knobs from the engine config.
type Config struct {
	ReadBufferCapBytes        int
	WriteBufferHighWaterBytes int
	WriteBufferLowWaterBytes  int
}

// Connection owns one accepted socket's read/dispatch/write cycle.
type Connection struct {
	conn net.Conn
	exec *executor.Executor
	cfg  Config
	met  *metrics.Collector

	parser *codec.Parser

	mu          sync.Mutex
	cond        *sync.Cond
	queue       *deque.Deque[[]byte]
	queuedBytes int
	paused      bool
	stopping    bool
	writerDone  chan struct{}
}

func New(c net.Conn, exec *executor.Executor, cfg Config, met *metrics.Collector) *Connection {
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	conn := &Connection{
		conn:       c,
		exec:       exec,
		cfg:        cfg,
		met:        met,
		parser:     codec.NewParser(),
		queue:      deque.NewDeque[[]byte](),
		writerDone: make(chan struct{}),
	}
	conn.cond = sync.NewCond(&conn.mu)
	return conn
}

// Serve runs the read/dispatch loop on the calling goroutine (the pool
// worker assigned to this connection) and a paired writer goroutine, until
// the peer disconnects, a hard I/O error occurs, or the protocol is
// poisoned by malformed input. It always closes the underlying socket
// before returning.
func (c *Connection) Serve() {
	if c.met != nil {
		c.met.ConnectionsActive.Inc()
		defer c.met.ConnectionsActive.Dec()
	}
	defer c.conn.Close()

	go c.writeLoop()
	c.readLoop()

	c.mu.Lock()
	c.stopping = true
	c.cond.Broadcast()
	c.mu.Unlock()
	<-c.writerDone
}

func (c *Connection) readLoop() {
	buf := make([]byte, c.cfg.ReadBufferCapBytes)

	for {
		c.mu.Lock()
		for c.paused {
			c.cond.Wait()
		}
		c.mu.Unlock()

		n, err := c.conn.Read(buf)
		if n > 0 {
			c.parser.Feed(buf[:n])
			if c.parser.Buffered() > c.cfg.ReadBufferCapBytes {
				c.enqueue(codec.Serialize(codec.NewErrorString("ERR read buffer limit exceeded")))
				return
			}
			if !c.drainParsed() {
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debugf("connection read error: %s", err.Error())
			}
			return
		}
	}
}

// drainParsed repeatedly calls TryParse, dispatching every fully-buffered
// command, until the parser runs out of complete frames. It returns false
// when the parser has been poisoned and the connection should close after
// the poison reply is flushed.
func (c *Connection) drainParsed() bool {
	for {
		msg, err := c.parser.TryParse()
		if err != nil {
			c.enqueue(codec.Serialize(codec.NewErrorString("ERR protocol error: " + err.Error())))
			return false
		}
		if msg == nil {
			return true
		}

		args, ok := codec.ParseCommand(msg)
		var reply *codec.Message
		if !ok {
			reply = codec.NewErrorString("ERR invalid command format")
		} else {
			reply = c.exec.Execute(args)
		}
		c.enqueue(codec.Serialize(reply))
	}
}

func (c *Connection) enqueue(frame []byte) {
	c.mu.Lock()
	c.queue.PushFront(frame)
	c.queuedBytes += len(frame)
	if c.queuedBytes > c.cfg.WriteBufferHighWaterBytes {
		c.paused = true
	}
	c.cond.Broadcast()
	c.mu.Unlock()
}

func (c *Connection) writeLoop() {
	defer close(c.writerDone)

	for {
		c.mu.Lock()
		for c.queue.Len() == 0 && !c.stopping {
			c.cond.Wait()
		}
		if c.queue.Len() == 0 {
			c.mu.Unlock()
			return
		}
		frame := c.queue.PopBack()
		c.queuedBytes -= len(frame)
		if c.paused && c.queuedBytes <= c.cfg.WriteBufferLowWaterBytes {
			c.paused = false
			c.cond.Broadcast()
		}
		c.mu.Unlock()

		if _, err := c.conn.Write(frame); err != nil {
			log.Debugf("connection write error: %s", err.Error())
			c.mu.Lock()
			c.stopping = true
			c.cond.Broadcast()
			c.mu.Unlock()
			return
		}
	}
}
