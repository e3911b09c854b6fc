// Package server runs the accept loop: it listens on the configured
// address, hands each accepted connection to the bounded goroutine pool for
// its own read/dispatch/write cycle (conn.Connection), and reacts to
// SIGINT/SIGTERM/SIGHUP/SIGQUIT with a graceful shutdown — the same signal
// set and close-channel pattern as the teacher's server/server.go.
package server

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vaultkv/vaultkv/conn"
	"github.com/vaultkv/vaultkv/executor"
	"github.com/vaultkv/vaultkv/lib/pool"
	"github.com/vaultkv/vaultkv/log"
	"github.com/vaultkv/vaultkv/metrics"
)

// Server owns the listening socket and the shared Executor.
type Server struct {
	runOnce  sync.Once
	stopOnce sync.Once

	exec   *executor.Executor
	connCfg conn.Config
	met    *metrics.Collector

	stopc chan struct{}
}

func New(exec *executor.Executor, connCfg conn.Config, met *metrics.Collector) *Server {
	return &Server{
		exec:    exec,
		connCfg: connCfg,
		met:     met,
		stopc:   make(chan struct{}),
	}
}

// Serve blocks, accepting connections on address until Stop is called or a
// non-timeout Accept error occurs.
func (s *Server) Serve(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	s.exec.Run()

	var serveErr error
	s.runOnce.Do(func() {
		closec := s.watchSignals()
		serveErr = s.listenAndServe(listener, closec)
	})
	return serveErr
}

// Metrics returns the server's Prometheus collector, or nil when metrics
// are disabled in configuration.
func (s *Server) Metrics() *metrics.Collector {
	return s.met
}

// Stop requests a graceful shutdown; Serve returns once the listener is
// closed and in-flight connections have had a chance to drain.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopc)
	})
}

func (s *Server) watchSignals() chan struct{} {
	exitSignals := []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, exitSignals...)

	closec := make(chan struct{}, 1)
	pool.Submit(func() {
		select {
		case sig := <-sigc:
			log.Warnf("received signal %s, shutting down", sig.String())
			closec <- struct{}{}
		case <-s.stopc:
			closec <- struct{}{}
		}
	})
	return closec
}

func (s *Server) listenAndServe(listener net.Listener, closec chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)

	pool.Submit(func() {
		select {
		case <-closec:
			log.Warnf("server closing")
		case err := <-errc:
			log.Errorf("server accept error: %s", err.Error())
		}
		cancel()
		s.exec.Close()
		if err := listener.Close(); err != nil {
			log.Errorf("server close listener err: %s", err.Error())
		}
	})

	log.Infof("server listening on %s", listener.Addr().String())

	var wg sync.WaitGroup
	for {
		c, err := listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			select {
			case errc <- err:
			default:
			}
			break
		}

		wg.Add(1)
		connection := conn.New(c, s.exec, s.connCfg, s.met)
		pool.Submit(func() {
			defer wg.Done()
			connection.Serve()
		})

		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		default:
		}
	}

	wg.Wait()
	return nil
}
