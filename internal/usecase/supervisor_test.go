package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

func newTestSupervisor(clock clockwork.Clock) (*Supervisor, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewSupervisor(NewProcessTable(), pub, clock, zap.NewNop()), pub
}

func TestSupervisor_EmitsOneEventWithDuration(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	sup, pub := newTestSupervisor(clock)
	handle := newFakeHandle(42)

	sup.Watch(domain.RunningProcess{InstanceID: "elden", PID: 42, StartedAt: clock.Now()}, handle)
	require.Equal(t, 1, sup.Table().Len())

	clock.Advance(90*time.Second + 700*time.Millisecond)
	handle.exit(nil)
	sup.Wait()

	assert.Equal(t, []domain.CompletionEvent{{InstanceID: "elden", DurationSec: 90}}, pub.all())
	assert.Equal(t, 0, sup.Table().Len())
}

func TestSupervisor_WaitFailureIsLoggedNotPublished(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zapcore.ErrorLevel)
	pub := &recordingPublisher{}
	sup := NewSupervisor(NewProcessTable(), pub, clockwork.NewFakeClock(), zap.New(core))
	handle := newFakeHandle(7)

	sup.Watch(domain.RunningProcess{InstanceID: "broken", PID: 7}, handle)
	handle.exit(errors.New("no child processes"))
	sup.Wait()

	assert.Empty(t, pub.all())
	assert.Equal(t, 0, sup.Table().Len())

	entries := logs.All()
	require.Len(t, entries, 1)
	err, ok := entries[0].ContextMap()["error"].(string)
	require.True(t, ok)
	assert.Contains(t, err, domain.ErrWaitFailed.Error())
	assert.Equal(t, "broken", entries[0].ContextMap()["instance_id"])
}

func TestSupervisor_ConcurrentInstancesNeverCrossDeliver(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	sup, pub := newTestSupervisor(clock)

	a := newFakeHandle(1)
	sup.Watch(domain.RunningProcess{InstanceID: "A", PID: 1, StartedAt: clock.Now()}, a)
	clock.Advance(10 * time.Second)

	b := newFakeHandle(2)
	sup.Watch(domain.RunningProcess{InstanceID: "B", PID: 2, StartedAt: clock.Now()}, b)
	clock.Advance(5 * time.Second)

	b.exit(nil)
	a.exit(nil)
	sup.Wait()

	got := make(map[string]uint64)
	for _, e := range pub.all() {
		_, dup := got[e.InstanceID]
		require.False(t, dup, "more than one event for %s", e.InstanceID)
		got[e.InstanceID] = e.DurationSec
	}
	assert.Equal(t, map[string]uint64{"A": 15, "B": 5}, got)
}

func TestSupervisor_PublishErrorDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	sup, pub := newTestSupervisor(clock)
	pub.err = errors.New("bus closed")
	handle := newFakeHandle(3)

	sup.Watch(domain.RunningProcess{InstanceID: "x", PID: 3, StartedAt: clock.Now()}, handle)
	handle.exit(nil)
	sup.Wait()

	assert.Len(t, pub.all(), 1)
}

func TestSupervisor_RelaunchKeepsNewerEntry(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	sup, _ := newTestSupervisor(clock)

	first := newFakeHandle(10)
	second := newFakeHandle(11)
	sup.Watch(domain.RunningProcess{InstanceID: "same", PID: 10, StartedAt: clock.Now()}, first)
	sup.Watch(domain.RunningProcess{InstanceID: "same", PID: 11, StartedAt: clock.Now()}, second)

	first.exit(nil)
	assert.Eventually(t, func() bool {
		proc, ok := sup.Table().Get("same")
		return ok && proc.PID == 11
	}, time.Second, 10*time.Millisecond)

	second.exit(nil)
	sup.Wait()
	_, ok := sup.Table().Get("same")
	assert.False(t, ok)
}

func TestWholeSeconds_ClockSkewIsZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	proc := domain.RunningProcess{StartedAt: clock.Now().Add(time.Minute)}

	assert.Equal(t, uint64(0), wholeSeconds(clock, proc))
}

func TestProcessTable_ListOrder(t *testing.T) {
	table := NewProcessTable()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	table.Add(domain.RunningProcess{InstanceID: "late", PID: 3, StartedAt: base.Add(time.Minute)})
	table.Add(domain.RunningProcess{InstanceID: "b", PID: 2, StartedAt: base})
	table.Add(domain.RunningProcess{InstanceID: "a", PID: 1, StartedAt: base})

	var ids []string
	for _, p := range table.List() {
		ids = append(ids, p.InstanceID)
	}
	assert.Equal(t, []string{"a", "b", "late"}, ids)

	assert.False(t, table.Remove("a", 99))
	assert.True(t, table.Remove("a", 1))
	assert.Equal(t, 2, table.Len())
}
