package netlog

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// Summary provides basic statistics about a recorded run.
type Summary struct {
	NumEvents      int
	NumInputs      int
	NumFirings     int
	NumErrors      int
	NumTransitions int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	AvgInterFiring time.Duration
}

// FiringCounts returns how often each transition fired.
func (l *Log) FiringCounts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range l.events {
		if e.Kind == KindFire {
			counts[e.Transition]++
		}
	}
	return counts
}

// InterFiringTimes returns the gaps between consecutive firings, in event
// order.
func (l *Log) InterFiringTimes() []time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var gaps []time.Duration
	var prev time.Time
	first := true
	for _, e := range l.events {
		if e.Kind != KindFire {
			continue
		}
		if !first {
			gaps = append(gaps, e.Time.Sub(prev))
		}
		prev = e.Time
		first = false
	}
	return gaps
}

// Summarize computes summary statistics for the recorded events.
func (l *Log) Summarize() Summary {
	l.mu.RLock()
	events := append([]Event(nil), l.events...)
	l.mu.RUnlock()

	summary := Summary{NumEvents: len(events)}
	if len(events) == 0 {
		return summary
	}

	transitions := make(map[string]bool)
	var firstFire, lastFire time.Time
	firings := 0

	summary.StartTime = events[0].Time
	summary.EndTime = events[0].Time
	for _, e := range events {
		if e.Time.Before(summary.StartTime) {
			summary.StartTime = e.Time
		}
		if e.Time.After(summary.EndTime) {
			summary.EndTime = e.Time
		}

		switch e.Kind {
		case KindInput:
			summary.NumInputs++
		case KindError:
			summary.NumErrors++
		case KindFire:
			summary.NumFirings++
			transitions[e.Transition] = true
			if firings == 0 {
				firstFire = e.Time
			}
			lastFire = e.Time
			firings++
		}
	}

	summary.NumTransitions = len(transitions)
	summary.Duration = summary.EndTime.Sub(summary.StartTime)
	if firings > 1 {
		summary.AvgInterFiring = lastFire.Sub(firstFire) / time.Duration(firings-1)
	}
	return summary
}

// Print writes a human-readable summary.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Net Run Summary ===")
	fmt.Fprintf(w, "Events: %d\n", s.NumEvents)
	fmt.Fprintf(w, "Inputs: %d\n", s.NumInputs)
	fmt.Fprintf(w, "Firings: %d (%d distinct transitions)\n", s.NumFirings, s.NumTransitions)
	fmt.Fprintf(w, "Failed firings: %d\n", s.NumErrors)
	fmt.Fprintf(w, "Time range: %s to %s\n",
		s.StartTime.Format("2006-01-02 15:04:05"),
		s.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Total duration: %v\n", s.Duration)
	if s.AvgInterFiring > 0 {
		fmt.Fprintf(w, "Avg time between firings: %v\n", s.AvgInterFiring)
	}
}

// TopTransitions returns transition names ordered by firing count, most
// frequent first; ties break alphabetically.
func (l *Log) TopTransitions() []string {
	counts := l.FiringCounts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
