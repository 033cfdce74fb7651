// Package progress reports decompression and parse progress as discrete
// messages on a caller-owned channel.
package progress

import "sync/atomic"

// Update is one progress message. Percent never decreases over the life
// of the reporter (or chain of windowed reporters) that produced it.
type Update struct {
	Percent float64
	Bytes   int64 // Bytes processed so far within the current stage
}

// Reporter accumulates processed bytes and publishes updates whenever the
// percentage advances. A nil Reporter is valid and discards everything,
// so callers never need to special-case "no progress wanted".
type Reporter struct {
	ch        chan<- Update
	total     int64
	lo, hi    float64
	processed atomic.Int64
	lastPct   atomic.Int64 // Scaled percent*100 for lock-free monotonicity
}

// NewReporter maps completion of total bytes onto the full 0-100 range.
func NewReporter(ch chan<- Update, total int64) *Reporter {
	return NewWindowed(ch, total, 0, 100)
}

// NewWindowed maps completion of total bytes onto the [lo, hi] percent
// range. Sequential pipeline stages can share one channel by claiming
// adjacent windows without the reported percentage ever moving backwards.
func NewWindowed(ch chan<- Update, total int64, lo, hi float64) *Reporter {
	if total <= 0 {
		total = 1
	}
	if hi < lo {
		hi = lo
	}
	r := &Reporter{ch: ch, total: total, lo: lo, hi: hi}
	r.lastPct.Store(int64(lo * 100))
	return r
}

// Add records n more processed bytes and publishes an update if the
// percentage advanced. The send never blocks; a slow consumer only
// misses intermediate updates, never the ordering guarantee.
func (r *Reporter) Add(n int64) {
	if r == nil || n <= 0 {
		return
	}
	processed := r.processed.Add(n)
	if processed > r.total {
		processed = r.total
	}
	r.publish(processed)
}

// Done publishes the terminal update for this reporter's window.
func (r *Reporter) Done() {
	if r == nil {
		return
	}
	r.processed.Store(r.total)
	r.publish(r.total)
}

func (r *Reporter) publish(processed int64) {
	pct := r.lo + (r.hi-r.lo)*float64(processed)/float64(r.total)
	scaled := int64(pct * 100)
	for {
		last := r.lastPct.Load()
		if scaled <= last {
			return
		}
		if r.lastPct.CompareAndSwap(last, scaled) {
			break
		}
	}
	if r.ch == nil {
		return
	}
	select {
	case r.ch <- Update{Percent: pct, Bytes: processed}:
	default:
	}
}
