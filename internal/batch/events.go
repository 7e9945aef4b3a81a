package batch

import (
	"sync"
	"time"
)

// Progress is sent once per finished file. Completed grows by exactly one
// per event and ends at Total.
type Progress struct {
	JobID     string
	Completed int
	Total     int
	// Path is the file that just finished; empty for the single event of an
	// empty batch.
	Path string
	// Err is the skip reason, nil when a record was produced.
	Err error
}

// Summary is sent once when a batch finishes.
type Summary struct {
	JobID    string
	Records  int
	Skipped  int
	Total    int
	Canceled bool
	Duration time.Duration
}

// Observer receives batch events. All calls for one run come from a single
// goroutine, in order.
type Observer interface {
	OnProgress(Progress)
	OnFinish(Summary)
}

// ObserverFuncs adapts plain functions to an Observer. Nil fields are
// ignored.
type ObserverFuncs struct {
	Progress func(Progress)
	Finish   func(Summary)
}

func (f ObserverFuncs) OnProgress(p Progress) {
	if f.Progress != nil {
		f.Progress(p)
	}
}

func (f ObserverFuncs) OnFinish(s Summary) {
	if f.Finish != nil {
		f.Finish(s)
	}
}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnProgress(p Progress) {
	for _, o := range m {
		o.OnProgress(p)
	}
}

func (m MultiObserver) OnFinish(s Summary) {
	for _, o := range m {
		o.OnFinish(s)
	}
}

// Event is one item delivered by a ChannelObserver. Exactly one field is
// set.
type Event struct {
	Progress *Progress
	Summary  *Summary
}

// ChannelObserver forwards events to a channel, for front ends that consume
// progress on their own goroutine. The channel is closed after the finish
// event, so a ChannelObserver serves a single run.
type ChannelObserver struct {
	events chan Event
	once   sync.Once
}

// NewChannelObserver creates an observer with the given channel buffer.
// Sends block when the buffer is full.
func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelObserver{events: make(chan Event, buffer)}
}

// Events returns the receive side of the channel.
func (c *ChannelObserver) Events() <-chan Event {
	return c.events
}

func (c *ChannelObserver) OnProgress(p Progress) {
	c.events <- Event{Progress: &p}
}

func (c *ChannelObserver) OnFinish(s Summary) {
	c.once.Do(func() {
		c.events <- Event{Summary: &s}
		close(c.events)
	})
}

type nopObserver struct{}

func (nopObserver) OnProgress(Progress) {}
func (nopObserver) OnFinish(Summary)    {}
