package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fired struct {
	mu    sync.Mutex
	chats []int64
}

func (f *fired) fire(_ context.Context, chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chatID)
}

func (f *fired) got() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.chats...)
}

func TestEnableIsIdempotent(t *testing.T) {
	s := New(DefaultSlots, func(context.Context, int64) {})

	require.NoError(t, s.Enable(-100))
	require.NoError(t, s.Enable(-100))

	triggers := s.Triggers(-100)
	require.Len(t, triggers, len(DefaultSlots))
	assert.Equal(t, len(DefaultSlots), s.Len())
	assert.Equal(t, "afternoon--100", triggers[0].Name)
	assert.Equal(t, "evening--100", triggers[1].Name)
	assert.Equal(t, "morning--100", triggers[2].Name)
	assert.Len(t, s.cron.Entries(), len(DefaultSlots))
}

func TestDisable(t *testing.T) {
	s := New(DefaultSlots, func(context.Context, int64) {})

	assert.ErrorIs(t, s.Disable(42), ErrNotScheduled)

	require.NoError(t, s.Enable(42))
	require.NoError(t, s.Enable(7))
	require.NoError(t, s.Disable(42))

	assert.Empty(t, s.Triggers(42))
	assert.Len(t, s.Triggers(7), len(DefaultSlots))
	assert.ErrorIs(t, s.Disable(42), ErrNotScheduled)
	assert.Len(t, s.cron.Entries(), len(DefaultSlots))
}

func TestEnableWithoutSlots(t *testing.T) {
	s := New(nil, func(context.Context, int64) {})

	assert.ErrorIs(t, s.Enable(42), ErrNoSlots)
	assert.Zero(t, s.Len())
	assert.Empty(t, s.cron.Entries())
}

func TestRehydrate(t *testing.T) {
	s := New(DefaultSlots, func(context.Context, int64) {})

	require.NoError(t, s.Rehydrate([]int64{1, 2, 3}))
	assert.Equal(t, 3*len(DefaultSlots), s.Len())
	for _, id := range []int64{1, 2, 3} {
		assert.Len(t, s.Triggers(id), len(DefaultSlots))
	}
}

func TestTriggerFiresWithBoundChat(t *testing.T) {
	f := &fired{}
	s := New(DefaultSlots, f.fire)
	require.NoError(t, s.Enable(11))
	require.NoError(t, s.Enable(22))

	for _, tr := range s.Triggers(22) {
		s.mu.Lock()
		id := s.jobs[tr.Name].id
		s.mu.Unlock()
		s.cron.Entry(id).WrappedJob.Run()
	}

	assert.Equal(t, []int64{22, 22, 22}, f.got())
}

func TestFiringRecoversFromPanic(t *testing.T) {
	s := New([]Slot{{Label: "noon", Hour: 12}}, func(context.Context, int64) {
		panic("boom")
	})
	require.NoError(t, s.Enable(1))

	id := s.jobs[JobName("noon", 1)].id
	assert.NotPanics(t, func() { s.cron.Entry(id).WrappedJob.Run() })
}

func TestFiringSkippedAfterContextDone(t *testing.T) {
	f := &fired{}
	s := New([]Slot{{Label: "noon", Hour: 12}}, f.fire)
	require.NoError(t, s.Enable(1))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	<-s.Stop().Done()

	id := s.jobs[JobName("noon", 1)].id
	s.cron.Entry(id).WrappedJob.Run()
	assert.Empty(t, f.got())
}

func TestTriggerNextUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	s := New([]Slot{{Label: "morning", Hour: 9}}, func(context.Context, int64) {}, WithLocation(loc))
	require.NoError(t, s.Enable(5))

	tr := s.Triggers(5)
	require.Len(t, tr, 1)
	next := tr[0].Next.In(loc)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("evening", "18:30")
	require.NoError(t, err)
	assert.Equal(t, Slot{Label: "evening", Hour: 18, Minute: 30}, s)
	assert.Equal(t, "30 18 * * *", s.spec())

	_, err = ParseSlot("evening", "25:00")
	assert.Error(t, err)
	_, err = ParseSlot("", "06:00")
	assert.Error(t, err)
}

func TestJobName(t *testing.T) {
	assert.Equal(t, "morning--1001234", JobName("morning", -1001234))
}
