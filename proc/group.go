// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package proc tracks the live per-connection workers of a process and the single shutdown signal that ends
them all.
*/
package proc

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("dhxfer/proc")

var (
	ErrShutdown = errors.New("dhxfer/proc: group is shutting down")
)

type DisplayId uint64

var nextIdStorage uint64

func nextId() DisplayId {
	return DisplayId(atomic.AddUint64(&nextIdStorage, uint64(1)))
}

func (id DisplayId) String() string {
	return fmt.Sprintf("#%d", uint64(id))
}

// A Group is a registry of running workers, each owning one closable resource, plus a shutdown Event.
// Tripping the shutdown closes every registered resource so that workers blocked on I/O fail promptly.
// Workers never touch each other's resources directly.
type Group struct {
	Shutdown *Event

	mu      sync.Mutex
	closers map[DisplayId]io.Closer
	wg      sync.WaitGroup
}

func NewGroup() *Group {
	return &Group{
		Shutdown: NewEvent(),
		closers:  make(map[DisplayId]io.Closer),
	}
}

// Go registers closer and runs fn on a new goroutine with a fresh display id.  The registration is dropped
// when fn returns.  If the group is already shutting down, closer is closed immediately, fn is not run, and
// ErrShutdown is returned.
func (g *Group) Go(closer io.Closer, fn func(id DisplayId)) (DisplayId, error) {
	id := nextId()

	g.mu.Lock()
	if g.Shutdown.Tripped() {
		g.mu.Unlock()
		_ = closer.Close()
		return id, ErrShutdown
	}
	g.closers[id] = closer
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		defer g.remove(id)
		fn(id)
	}()
	return id, nil
}

func (g *Group) remove(id DisplayId) {
	g.mu.Lock()
	delete(g.closers, id)
	g.mu.Unlock()
}

// Len returns the number of registered workers.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.closers)
}

// Kill trips the shutdown event with reason and closes every registered resource.  Only the first call has
// any effect; it returns whether this call was the one.
func (g *Group) Kill(reason interface{}) bool {
	g.mu.Lock()
	if !g.Shutdown.Trip(reason) {
		g.mu.Unlock()
		return false
	}
	victims := make(map[DisplayId]io.Closer, len(g.closers))
	for id, c := range g.closers {
		victims[id] = c
	}
	g.mu.Unlock()

	log.Infof("shutting down %d worker(s): %v", len(victims), reason)
	for id, c := range victims {
		if err := c.Close(); err != nil {
			log.Debugf("closing %v: %v", id, err)
		}
	}
	return true
}

// Wait blocks until every worker started by Go has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
