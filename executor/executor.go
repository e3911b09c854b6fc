// Package executor owns the single Engine value shared by every
// connection goroutine and serializes access to it, playing the role the
// teacher's database.DBExecutor plays around its DataStore — minus the
// channel indirection, since the concurrency model here is a shared
// engine guarded by a reader/writer lock rather than a single goroutine
// draining a command channel.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/vaultkv/vaultkv/codec"
	"github.com/vaultkv/vaultkv/dispatcher"
	"github.com/vaultkv/vaultkv/engine"
	"github.com/vaultkv/vaultkv/log"
	"github.com/vaultkv/vaultkv/metrics"
)

// Executor serializes command execution against one Engine: read-only
// commands take a read lock, mutating commands take a write lock. A
// background ticker performs the periodic expiry sweep under a write lock.
type Executor struct {
	mu   sync.RWMutex
	eng  *engine.Engine
	disp *dispatcher.Dispatcher
	met  *metrics.Collector

	tickInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func New(tickInterval time.Duration, met *metrics.Collector) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		eng:          engine.New(),
		disp:         dispatcher.New(),
		met:          met,
		tickInterval: tickInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Run starts the background expiry-sweep ticker. Call once, before serving
// connections.
func (e *Executor) Run() {
	e.wg.Add(1)
	go e.tick()
}

func (e *Executor) tick() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case now := <-ticker.C:
			e.sweep(now)
		}
	}
}

func (e *Executor) sweep(now time.Time) {
	e.mu.Lock()
	expired := e.eng.Sweep(now)
	var stats engine.BucketStats
	if e.met != nil {
		stats = e.eng.Stats()
	}
	e.mu.Unlock()

	if e.met != nil {
		for chainLen, buckets := range stats.Histogram {
			for i := 0; i < buckets; i++ {
				e.met.BucketOccupancy.Observe(float64(chainLen))
			}
		}
	}

	if expired > 0 {
		log.Debugf("expiry sweep removed %d key(s)", expired)
		if e.met != nil {
			e.met.ExpiredKeysTotal.Add(float64(expired))
		}
	}
}

// Execute parses args[0] as a command name and runs it against the shared
// engine, taking the lock level the dispatcher reports for that command.
func (e *Executor) Execute(args [][]byte) *codec.Message {
	if len(args) == 0 {
		return codec.NewErrorString("ERR empty command")
	}
	now := time.Now()
	name := string(args[0])

	if e.disp.IsReadOnly(name) {
		e.mu.RLock()
		reply := e.disp.Dispatch(e.eng, args, now)
		e.mu.RUnlock()
		e.record(name, reply)
		return reply
	}

	e.mu.Lock()
	reply := e.disp.Dispatch(e.eng, args, now)
	e.mu.Unlock()
	e.record(name, reply)
	return reply
}

func (e *Executor) record(name string, reply *codec.Message) {
	if e.met == nil {
		return
	}
	outcome := "ok"
	if reply != nil && reply.Kind == codec.KindError {
		outcome = "error"
	}
	e.met.RecordCommand(name, outcome)
}

// Close stops the background ticker and waits for it to exit.
func (e *Executor) Close() {
	e.cancel()
	e.wg.Wait()
}
