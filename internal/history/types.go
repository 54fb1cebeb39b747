// Package history aggregates per-case elapsed times across repeated
// judging sessions. It is a non-core feature: nothing in internal/judging,
// internal/scheduler, internal/runner, or internal/classify imports it, and
// the core judging pipeline runs identically whether or not a session is
// ever recorded (SPEC_FULL.md §6.2 — "no persisted state" remains true of
// the judging core itself).
package history

import (
	"math"
	"sort"
	"time"

	"github.com/jpequegn/cpjudge/internal/judging"
)

// CaseTiming is one test case's elapsed time within a single session.
type CaseTiming struct {
	Name    string
	Verdict judging.VerdictKind
	Elapsed time.Duration
}

// Session is one complete `cpjudge run` invocation.
type Session struct {
	ID        int64
	Suite     string
	Timestamp time.Time
	Timings   []CaseTiming
}

// FromBatch builds a Session's timings from a judged batch.
func FromBatch(suite string, timestamp time.Time, outcome judging.BatchOutcome) Session {
	timings := make([]CaseTiming, len(outcome.Verdicts))
	for i, v := range outcome.Verdicts {
		timings[i] = CaseTiming{Name: v.TestCaseName, Verdict: v.Kind, Elapsed: v.Elapsed}
	}
	return Session{Suite: suite, Timestamp: timestamp, Timings: timings}
}

// Stats is the aggregated timing statistics for one test case name across
// a set of sessions.
type Stats struct {
	Name    string
	Mean    time.Duration
	Median  time.Duration
	Min     time.Duration
	Max     time.Duration
	StdDev  time.Duration
	Samples int
}

// Aggregate computes per-case Stats across all sessions, keyed by case
// name. Timings of cases that never completed (TimelimitExceeded carries a
// zero Elapsed, per judging.Verdict.HasOutput) are skipped entirely: they
// count neither toward the statistics nor toward Samples, and a case with
// only TimelimitExceeded timings gets no Stats entry. Callers that want
// TLE rates should consult the raw sessions instead.
func Aggregate(sessions []Session) []Stats {
	byName := make(map[string][]time.Duration)
	order := make([]string, 0)
	for _, s := range sessions {
		for _, t := range s.Timings {
			if t.Verdict == judging.TimelimitExceeded {
				continue
			}
			if _, seen := byName[t.Name]; !seen {
				order = append(order, t.Name)
			}
			byName[t.Name] = append(byName[t.Name], t.Elapsed)
		}
	}

	stats := make([]Stats, 0, len(order))
	for _, name := range order {
		stats = append(stats, computeStats(name, byName[name]))
	}
	return stats
}

func computeStats(name string, samples []time.Duration) Stats {
	s := Stats{Name: name, Samples: len(samples)}
	if len(samples) == 0 {
		return s
	}

	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = sorted[len(sorted)/2]

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	s.Mean = sum / time.Duration(len(sorted))

	var variance float64
	meanNs := float64(s.Mean)
	for _, d := range sorted {
		diff := float64(d) - meanNs
		variance += diff * diff
	}
	variance /= float64(len(sorted))
	s.StdDev = time.Duration(math.Sqrt(variance))

	return s
}

// Regression flags a case whose most recent timing exceeds its historical
// mean by more than threshold standard deviations (slowdowns only) — a z-score
// check adapted from the teacher's percentage-delta regression test.
type Regression struct {
	Name   string
	ZScore float64
	Latest time.Duration
	Mean   time.Duration
}

// DetectRegressions compares the most recent session against Stats
// computed from all prior sessions.
func DetectRegressions(history []Session, threshold float64) []Regression {
	if len(history) < 2 {
		return nil
	}
	latest := history[len(history)-1]
	prior := Aggregate(history[:len(history)-1])

	byName := make(map[string]Stats, len(prior))
	for _, s := range prior {
		byName[s.Name] = s
	}

	var regressions []Regression
	for _, t := range latest.Timings {
		if t.Verdict == judging.TimelimitExceeded {
			continue
		}
		s, ok := byName[t.Name]
		if !ok || s.Samples < 2 {
			continue
		}
		// A perfectly steady history has zero spread; a 1ns floor keeps the
		// z-score finite while still flagging any slowdown from it.
		z := float64(t.Elapsed-s.Mean) / math.Max(float64(s.StdDev), 1)
		if z > threshold {
			regressions = append(regressions, Regression{Name: t.Name, ZScore: z, Latest: t.Elapsed, Mean: s.Mean})
		}
	}
	return regressions
}
