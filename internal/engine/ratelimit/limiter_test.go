package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(start time.Time) (*Limiter, *time.Time) {
	current := start
	l := NewLimiter()
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllow_MinuteBoundary(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000000, 0))
	limits := Limits{PerMinute: 3, PerHour: 100, PerDay: 1000}

	// Exactly at the limit is allowed
	for i := 0; i < 3; i++ {
		if !l.Allow("key1", limits) {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	// limit+1 is denied
	if l.Allow("key1", limits) {
		t.Error("Request over the minute limit should be denied")
	}
}

func TestAllow_MinuteWindowResets(t *testing.T) {
	l, clock := newTestLimiter(time.Unix(1000000, 0))
	limits := Limits{PerMinute: 2, PerHour: 100, PerDay: 1000}

	l.Allow("key1", limits)
	l.Allow("key1", limits)
	if l.Allow("key1", limits) {
		t.Fatal("Third request within the minute should be denied")
	}

	*clock = clock.Add(61 * time.Second)
	if !l.Allow("key1", limits) {
		t.Error("Request after the minute window should be allowed again")
	}
}

func TestAllow_HourCeiling(t *testing.T) {
	l, clock := newTestLimiter(time.Unix(1000000, 0))
	limits := Limits{PerMinute: 10, PerHour: 15, PerDay: 1000}

	consumed := 0
	for m := 0; m < 2; m++ {
		for i := 0; i < 10; i++ {
			if l.Allow("key1", limits) {
				consumed++
			}
		}
		*clock = clock.Add(61 * time.Second)
	}

	if consumed != 15 {
		t.Errorf("Expected hour ceiling to cap consumption at 15, got %d", consumed)
	}
}

// Only the day boundary advances lastReset: minute and hour resets stay
// anchored to the original mark, so after the first minute has elapsed the
// minute counter is rezeroed on every check until a day passes.
func TestAllow_ResetAnchoring(t *testing.T) {
	start := time.Unix(1000000, 0)
	l, clock := newTestLimiter(start)
	limits := Limits{PerMinute: 1, PerHour: 100, PerDay: 1000}

	if !l.Allow("key1", limits) {
		t.Fatal("First request should be allowed")
	}
	if l.Allow("key1", limits) {
		t.Fatal("Second request in the same minute should be denied")
	}

	*clock = start.Add(2 * time.Minute)
	if !l.Allow("key1", limits) {
		t.Fatal("Request after the minute window should be allowed")
	}
	// Elapsed since the anchor is still >= 1 minute, so the counter is
	// zeroed again on the very next check.
	if !l.Allow("key1", limits) {
		t.Error("Anchored reset should rezero the minute counter on every check")
	}

	st := l.state["key1"]
	if !st.lastReset.Equal(start) {
		t.Errorf("lastReset advanced before the day boundary: %v", st.lastReset)
	}
}

func TestAllow_DayBoundaryAdvancesLastReset(t *testing.T) {
	start := time.Unix(1000000, 0)
	l, clock := newTestLimiter(start)
	limits := Limits{PerMinute: 100, PerHour: 100, PerDay: 2}

	l.Allow("key1", limits)
	l.Allow("key1", limits)
	if l.Allow("key1", limits) {
		t.Fatal("Request over the day limit should be denied")
	}

	*clock = start.Add(25 * time.Hour)
	if !l.Allow("key1", limits) {
		t.Fatal("Request after the day window should be allowed")
	}

	st := l.state["key1"]
	if !st.lastReset.Equal(start.Add(25 * time.Hour)) {
		t.Errorf("lastReset should advance at the day boundary, got %v", st.lastReset)
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000000, 0))
	limits := Limits{PerMinute: 1, PerHour: 10, PerDay: 100}

	if !l.Allow("key1", limits) {
		t.Fatal("key1 should be allowed")
	}
	if !l.Allow("key2", limits) {
		t.Error("key2 should not share key1's counters")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := NewLimiter()
	limits := Limits{PerMinute: 50, PerHour: 1000, PerDay: 10000}

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("key1", limits)
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Errorf("Expected exactly 50 allowed under concurrency, got %d", count)
	}
}
