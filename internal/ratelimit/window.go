// Package ratelimit caps outbound model calls with two fixed counting
// windows. Each window resets once its length has elapsed since it started,
// so capacity holds per window rather than over every rolling span: near a
// reset up to twice the burst capacity can be admitted within a short
// interval.
package ratelimit

import (
	"sync"
	"time"
)

// Window is a fixed-length counting window.
type Window struct {
	Capacity int
	Length   time.Duration

	count int
	start time.Time
}

// WindowState is a point-in-time view of one window.
type WindowState struct {
	Capacity  int           `json:"capacity"`
	Used      int           `json:"used"`
	Remaining int           `json:"remaining"`
	Length    time.Duration `json:"length"`
	ResetsAt  time.Time     `json:"resets_at"`
}

// Config holds the capacities of the two windows.
type Config struct {
	BurstLimit    int           `koanf:"burst"`
	BurstWindow   time.Duration `koanf:"burstwindow"`
	Requests      int           `koanf:"requests"`
	RequestWindow time.Duration `koanf:"window"`
}

// DefaultConfig returns 5 requests per 10s and 60 requests per minute.
func DefaultConfig() Config {
	return Config{
		BurstLimit:    5,
		BurstWindow:   10 * time.Second,
		Requests:      60,
		RequestWindow: time.Minute,
	}
}

// Limiter admits or rejects call attempts against a burst window and a
// sustained window. A request is admitted only if both windows have room.
type Limiter struct {
	mu        sync.Mutex
	burst     Window
	sustained Window
	clk       func() time.Time
}

// New builds a limiter; clk may be nil to use time.Now.
func New(cfg Config, clk func() time.Time) *Limiter {
	if clk == nil {
		clk = time.Now
	}
	def := DefaultConfig()
	if cfg.BurstLimit <= 0 {
		cfg.BurstLimit = def.BurstLimit
	}
	if cfg.BurstWindow <= 0 {
		cfg.BurstWindow = def.BurstWindow
	}
	if cfg.Requests <= 0 {
		cfg.Requests = def.Requests
	}
	if cfg.RequestWindow <= 0 {
		cfg.RequestWindow = def.RequestWindow
	}
	return &Limiter{
		burst:     Window{Capacity: cfg.BurstLimit, Length: cfg.BurstWindow},
		sustained: Window{Capacity: cfg.Requests, Length: cfg.RequestWindow},
		clk:       clk,
	}
}

// TryAdmit reports whether a new attempt may proceed. Admission increments
// both windows; rejection leaves both untouched.
func (l *Limiter) TryAdmit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk()
	l.burst.roll(now)
	l.sustained.roll(now)

	if l.burst.full() || l.sustained.full() {
		return false
	}
	l.burst.count++
	l.sustained.count++
	return true
}

// Snapshot returns the burst and sustained window states.
func (l *Limiter) Snapshot() (burst, sustained WindowState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst.state(), l.sustained.state()
}

func (w *Window) roll(now time.Time) {
	if now.Sub(w.start) > w.Length {
		w.count = 0
		w.start = now
	}
}

func (w *Window) full() bool {
	return w.count >= w.Capacity
}

func (w *Window) state() WindowState {
	remaining := w.Capacity - w.count
	if remaining < 0 {
		remaining = 0
	}
	return WindowState{
		Capacity:  w.Capacity,
		Used:      w.count,
		Remaining: remaining,
		Length:    w.Length,
		ResetsAt:  w.start.Add(w.Length),
	}
}
