// Copyright (c) 2024-2025, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package dispatcher

import (
	"time"

	"github.com/pkg/errors"

	"github.com/cellsim/cellsim/logger"
	. "github.com/cellsim/cellsim/types"
)

// Scheduler is the discrete-event core of the simulation. Callbacks run one at a time, in non-decreasing
// timestamp order; callbacks with equal timestamps run in the order they were scheduled.
type Scheduler struct {
	curTime    SimTime
	seq        uint64
	queue      eventQueue
	running    bool
	halted     bool
	dispatched uint64

	// OnDispatch, if set, is called before each callback is executed.
	OnDispatch func(ts SimTime)
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		queue: eventQueue{},
	}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() SimTime {
	return s.curTime
}

// Pending returns the number of queued callbacks, including cancelled ones not yet discarded.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}

// Dispatched returns the number of callbacks executed so far.
func (s *Scheduler) Dispatched() uint64 {
	return s.dispatched
}

// NextTimestamp returns the time of the next queued callback, or Ever if none.
func (s *Scheduler) NextTimestamp() SimTime {
	return s.queue.nextTimestamp()
}

// Schedule enqueues cb to fire at Now() + delay. A negative delay is rejected.
func (s *Scheduler) Schedule(delay time.Duration, cb func()) (*EventHandle, error) {
	if delay < 0 {
		return nil, NewConfigurationError("delay", delay, "must not be negative")
	}
	return s.ScheduleAt(s.curTime+DurationToSimTime(delay), cb)
}

// ScheduleAt enqueues cb to fire at absolute time ts, which must not be in the past.
func (s *Scheduler) ScheduleAt(ts SimTime, cb func()) (*EventHandle, error) {
	if cb == nil {
		return nil, errors.New("schedule: nil callback")
	}
	if ts < s.curTime {
		return nil, errors.Errorf("schedule: timestamp %v is before current time %v", ts, s.curTime)
	}
	h := &EventHandle{
		ts:    ts,
		seq:   s.seq,
		cb:    cb,
		index: -1,
	}
	s.seq++
	s.queue.add(h)
	return h, nil
}

// Cancel cancels a scheduled callback. It returns false if the callback already fired or was cancelled.
func (s *Scheduler) Cancel(h *EventHandle) bool {
	if h == nil || h.cancelled || h.fired {
		return false
	}
	h.cancelled = true
	s.queue.remove(h)
	return true
}

// Halt makes a running Run or Advance return after the current callback completes.
func (s *Scheduler) Halt() {
	s.halted = true
}

// Run dispatches all callbacks scheduled up to and including stop, then discards any remaining ones.
// On return Now() equals stop, unless the run was halted earlier.
func (s *Scheduler) Run(stop SimTime) {
	s.runUntil(stop)
	if n := s.discardAll(); n > 0 {
		logger.Debugf("scheduler: discarded %d events after stop time %v", n, stop)
	}
}

// Advance dispatches callbacks for the next duration d of simulated time. Later callbacks stay queued.
func (s *Scheduler) Advance(d time.Duration) SimTime {
	logger.AssertTrue(d >= 0)
	until := s.curTime + DurationToSimTime(d)
	if until > Ever || until < s.curTime {
		until = Ever
	}
	s.runUntil(until)
	return s.curTime
}

func (s *Scheduler) runUntil(stop SimTime) {
	logger.AssertFalse(s.running) // no reentrant run from within a callback
	s.running = true
	s.halted = false
	defer func() {
		s.running = false
	}()

	for s.queue.Len() > 0 && s.queue.nextTimestamp() <= stop && !s.halted {
		h := s.queue.popNext()
		if h.cancelled {
			continue
		}
		logger.AssertTrue(h.ts >= s.curTime)
		s.curTime = h.ts
		h.fired = true
		if s.OnDispatch != nil {
			s.OnDispatch(h.ts)
		}
		s.dispatched++
		h.cb()
	}

	if !s.halted && stop != Ever && stop > s.curTime {
		s.curTime = stop
	}
}

func (s *Scheduler) discardAll() int {
	n := 0
	for s.queue.Len() > 0 {
		h := s.queue.popNext()
		if !h.cancelled {
			h.cancelled = true
			n++
		}
	}
	return n
}
