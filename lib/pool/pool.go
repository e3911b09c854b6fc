// Package pool provides the bounded goroutine pool every connection
// handler and background loop in this server runs on.
package pool

import (
	"runtime/debug"
	"strings"

	"github.com/panjf2000/ants"

	"github.com/vaultkv/vaultkv/log"
)

const defaultPoolSize = 5000

var workers *ants.Pool

func init() {
	var err error
	workers, err = ants.NewPool(defaultPoolSize, ants.WithPanicHandler(
		func(i interface{}) {
			stack := strings.ReplaceAll(string(debug.Stack()), "\n", " ")
			log.Errorf("[pool] recovered panic: %v, stack: %s", i, stack)
		}))
	if err != nil {
		log.Fatal(err)
	}
}

// Submit schedules task to run on the pool. If the pool is saturated the
// caller blocks until a worker frees up.
func Submit(task func()) {
	_ = workers.Submit(task)
}

// Running returns the number of workers currently executing a task.
func Running() int {
	return workers.Running()
}
