// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package proc

import (
	"sync"
)

// An Event is a one-shot signal carrying a value.  The first Trip wins; later ones are ignored.
type Event struct {
	once sync.Once
	val  interface{}
	trig chan struct{}
}

func NewEvent() *Event {
	return &Event{trig: make(chan struct{})}
}

// Trip sets the event's value and closes its channel.  It returns false if the event had already tripped.
func (ev *Event) Trip(val interface{}) (tripped bool) {
	ev.once.Do(func() {
		ev.val = val
		close(ev.trig)
		tripped = true
	})
	return
}

// Done returns a channel that is closed once the event trips.
func (ev *Event) Done() <-chan struct{} {
	return ev.trig
}

func (ev *Event) Tripped() bool {
	select {
	case <-ev.trig:
		return true
	default:
		return false
	}
}

// Val returns the value given to the winning Trip, or nil if the event has not tripped.
func (ev *Event) Val() interface{} {
	if !ev.Tripped() {
		return nil
	}
	return ev.val
}
