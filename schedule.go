package mosaicc

import "time"

// Playback schedules frame-by-frame display of one FrameSet. It advances
// frames at the payload's declared frame delay, holds on the last frame
// once the sequence is exhausted, and tracks the dwell deadline that
// triggers the next fetch. All timing comes from the caller's clock.
type Playback struct {
	frames FrameSet
	delay  time.Duration

	index       int
	started     bool
	lastAdvance time.Time
	deadline    time.Time
}

// Tick is the outcome of one Playback.Tick call.
type Tick struct {
	// Frame is the pixel buffer to push to the screen, or nil if no
	// render is due.
	Frame []byte
	// DwellExpired reports that the dwell period is over and fresh
	// content should be fetched. Never set together with Frame: a due
	// frame is always flushed first and expiry reported on the next tick.
	DwellExpired bool
}

// Load installs a new frame set, discarding the previous one. Playback
// restarts at frame zero and the dwell deadline is set to now+dwell.
// This is the only way the live set changes.
func (p *Playback) Load(set FrameSet, delay, dwell time.Duration, now time.Time) {
	p.frames = set
	p.delay = delay
	p.index = 0
	p.started = false
	p.lastAdvance = now
	p.deadline = now.Add(dwell)
}

// Live reports whether a frame set is loaded.
func (p *Playback) Live() bool { return p.frames != nil }

// Tick advances playback to now. The first tick after Load emits frame
// zero; later ticks emit the next frame once the frame delay has elapsed.
// Once the last frame is reached no further frames are emitted, and ticks
// at or past the dwell deadline report expiry instead.
func (p *Playback) Tick(now time.Time) Tick {
	if p.frames == nil {
		return Tick{}
	}

	if !p.started {
		p.started = true
		p.lastAdvance = now
		return Tick{Frame: p.frames[0]}
	}

	if p.index < len(p.frames)-1 && now.Sub(p.lastAdvance) >= p.delay {
		p.index++
		p.lastAdvance = now
		return Tick{Frame: p.frames[p.index]}
	}

	if !now.Before(p.deadline) {
		return Tick{DwellExpired: true}
	}

	return Tick{}
}

// NextEvent returns how long until the next frame advance or the dwell
// deadline, whichever comes first. The client loop sleeps for exactly this
// long between ticks so animation timing stays accurate without spinning.
func (p *Playback) NextEvent(now time.Time) time.Duration {
	if p.frames == nil || !p.started {
		return 0
	}

	until := p.deadline.Sub(now)
	if p.index < len(p.frames)-1 {
		if d := p.lastAdvance.Add(p.delay).Sub(now); d < until {
			until = d
		}
	}
	if until < 0 {
		until = 0
	}
	return until
}
