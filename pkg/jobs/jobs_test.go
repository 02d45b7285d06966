package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesFailedTasks(t *testing.T) {
	var calls int32
	done := make(chan string, 1)
	q := NewQueue("test", func(ctx context.Context, task Task[string]) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("boom")
		}
		done <- task.Payload
		return nil
	}, QueueConfig{RetryDelay: time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task[string]{ID: "1", Payload: "2024-03-04"}))
	select {
	case got := <-done:
		assert.Equal(t, "2024-03-04", got)
	case <-time.After(2 * time.Second):
		t.Fatal("task never succeeded")
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Task[int]) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Task[int]{ID: "x"}))
}

func TestDailyNext(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	d, err := NewDaily("18:00", loc, nil)
	require.NoError(t, err)

	before := time.Date(2024, 3, 4, 10, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 4, 18, 0, 0, 0, loc), d.Next(before))

	at := time.Date(2024, 3, 4, 18, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 5, 18, 0, 0, 0, loc), d.Next(at))

	// 12:00 UTC is 19:00 in WIB, past the firing time
	utc := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 5, 18, 0, 0, 0, loc), d.Next(utc))

	_, err = NewDaily("6pm", loc, nil)
	assert.Error(t, err)
}

func TestDailyRunFiresWithLocalDay(t *testing.T) {
	loc := time.UTC
	d, err := NewDaily("18:00", loc, nil)
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2024, 3, 4, 17, 0, 0, 0, loc) }
	fired := make(chan time.Time)
	d.after = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx, func(day time.Time) {
		select {
		case fired <- day:
		case <-ctx.Done():
		}
	})

	day := <-fired
	cancel()
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, loc), day)
}
