package dispatcher

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/cellsim/cellsim/types"
)

func TestDispatchOrderWithTies(t *testing.T) {
	s := NewScheduler()
	var order []string
	add := func(delay time.Duration, name string) {
		_, err := s.Schedule(delay, func() {
			order = append(order, name)
		})
		require.NoError(t, err)
	}
	add(5*time.Microsecond, "a@5")
	add(5*time.Microsecond, "b@5")
	add(3*time.Microsecond, "c@3")

	s.Run(10)
	assert.Equal(t, []string{"c@3", "a@5", "b@5"}, order)
	assert.Equal(t, SimTime(10), s.Now())
	assert.Equal(t, uint64(3), s.Dispatched())
}

func TestNegativeDelayRejected(t *testing.T) {
	s := NewScheduler()
	h, err := s.Schedule(-time.Millisecond, func() {})
	assert.Nil(t, h)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "delay", cfgErr.Param)
}

func TestCancelledCallbackIsNoop(t *testing.T) {
	s := NewScheduler()
	fired := false
	h, err := s.Schedule(time.Millisecond, func() { fired = true })
	require.NoError(t, err)
	assert.True(t, h.IsPending())

	assert.True(t, s.Cancel(h))
	assert.False(t, s.Cancel(h))
	assert.False(t, h.IsPending())

	s.Run(SimTime(time.Second / time.Microsecond))
	assert.False(t, fired)
	assert.Equal(t, uint64(0), s.Dispatched())
}

func TestNextTimestamp(t *testing.T) {
	s := NewScheduler()
	assert.Equal(t, Ever, s.NextTimestamp())

	late, err := s.Schedule(7*time.Microsecond, func() {})
	require.NoError(t, err)
	early, err := s.Schedule(4*time.Microsecond, func() {})
	require.NoError(t, err)
	assert.Equal(t, SimTime(7), late.Timestamp())
	assert.Equal(t, SimTime(4), early.Timestamp())
	assert.Equal(t, SimTime(4), s.NextTimestamp())

	s.Run(5)
	assert.Equal(t, SimTime(7), s.NextTimestamp())
	s.Run(10)
	assert.Equal(t, Ever, s.NextTimestamp())
}

func TestTrailingEventsDiscarded(t *testing.T) {
	s := NewScheduler()
	var times []SimTime
	for _, d := range []time.Duration{1, 2, 3, 4} {
		_, err := s.Schedule(d*time.Second, func() { times = append(times, s.Now()) })
		require.NoError(t, err)
	}
	s.Run(SimTime(2500000))
	assert.Equal(t, []SimTime{1000000, 2000000}, times)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, SimTime(2500000), s.Now())
}

func TestScheduleFromCallback(t *testing.T) {
	s := NewScheduler()
	count := 0
	var tick func()
	tick = func() {
		count++
		_, err := s.Schedule(100*time.Millisecond, tick)
		require.NoError(t, err)
	}
	_, err := s.Schedule(0, tick)
	require.NoError(t, err)

	s.Run(SimTime(time.Second / time.Microsecond))
	// fires at 0, 100ms, ..., 1000ms
	assert.Equal(t, 11, count)
}

func TestEqualTimestampFromCallbackRunsAfterQueued(t *testing.T) {
	s := NewScheduler()
	var order []string
	_, _ = s.Schedule(time.Millisecond, func() {
		order = append(order, "first")
		_, _ = s.Schedule(0, func() { order = append(order, "nested") })
	})
	_, _ = s.Schedule(time.Millisecond, func() { order = append(order, "second") })
	s.Run(Ever)
	assert.Equal(t, []string{"first", "second", "nested"}, order)
}

func TestAdvanceKeepsLaterEvents(t *testing.T) {
	s := NewScheduler()
	fired := 0
	_, _ = s.Schedule(2*time.Second, func() { fired++ })
	assert.Equal(t, SimTime(1000000), s.Advance(time.Second))
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, s.Pending())
	s.Advance(time.Second)
	assert.Equal(t, 1, fired)
}

func TestScheduleAtPastRejected(t *testing.T) {
	s := NewScheduler()
	s.Advance(time.Second)
	_, err := s.ScheduleAt(10, func() {})
	assert.Error(t, err)
}

func TestHalt(t *testing.T) {
	s := NewScheduler()
	fired := 0
	_, _ = s.Schedule(time.Millisecond, func() { fired++; s.Halt() })
	_, _ = s.Schedule(2*time.Millisecond, func() { fired++ })
	s.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, SimTime(1000), s.Now())
}
