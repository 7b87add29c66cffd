package directory

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls int32
	var last atomic.Value

	for _, v := range []string{"a", "ah", "ahm", "ahme"} {
		v := v
		d.Trigger(func() {
			atomic.AddInt32(&calls, 1)
			last.Store(v)
		})
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "ahme", last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_FlushAndStop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	ran := false
	d.Trigger(func() { ran = true })
	assert.True(t, d.Pending())

	assert.True(t, d.Flush())
	assert.True(t, ran)
	assert.False(t, d.Flush())

	d.Trigger(func() { t.Fatal("stopped call must not run") })
	d.Stop()
	assert.False(t, d.Pending())
}

func TestDebouncer_DefaultDelay(t *testing.T) {
	d := NewDebouncer(0)
	assert.Equal(t, DefaultDebounce, d.delay)
}

func TestSession_NameIsDebouncedJobIsImmediate(t *testing.T) {
	e := NewEngine(sample())
	s := NewSession(e, 40*time.Millisecond)
	defer s.Close()

	var mu sync.Mutex
	var seen []Criteria
	s.OnChange(func(_ []listing, c Criteria) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})

	s.SetName("a")
	s.SetName("ah")
	s.SetName("ahmed")
	// nothing applied yet
	assert.Len(t, s.Results(), 5)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"1", "3", "5"}, ids(s.Results()))

	s.SetJob("نجار")
	mu.Lock()
	assert.Len(t, seen, 2)
	assert.Equal(t, Criteria{Name: "ahmed", Job: "نجار"}, seen[1])
	mu.Unlock()
	assert.Equal(t, []string{"5"}, ids(s.Results()))
}

func TestSession_JobFoldsPendingName(t *testing.T) {
	s := NewSession(NewEngine(sample()), time.Hour)
	defer s.Close()

	s.SetName("mona")
	s.SetJob("نجار")
	assert.Equal(t, []string{"2"}, ids(s.Results()))
}

func TestSession_ClearCancelsPending(t *testing.T) {
	e := NewEngine(sample())
	s := NewSession(e, 20*time.Millisecond)
	defer s.Close()

	s.SetJob("سباك")
	s.SetName("karim")
	s.Clear()

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, s.Results(), 5)
	assert.True(t, e.Criteria().IsZero())
}

func TestSession_Flush(t *testing.T) {
	s := NewSession(NewEngine(sample()), time.Hour)
	defer s.Close()

	s.SetName("sara")
	s.Flush()
	assert.Equal(t, []string{"5"}, ids(s.Results()))
}
