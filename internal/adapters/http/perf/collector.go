// Package perf keeps a bounded window of request and query timings for the
// admin timing report.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultWindow is the number of samples kept per kind.
const DefaultWindow = 4096

// Kind separates HTTP requests from database calls.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

func (k Kind) String() string {
	if k == KindQuery {
		return "query"
	}
	return "request"
}

// Sample is one timed operation.
type Sample struct {
	Kind   Kind
	Label  string // "GET /path" or the database call
	Status int    // HTTP status, 0 for queries
	Took   time.Duration
	At     time.Time
}

type window struct {
	samples []Sample
	next    int
	full    bool
}

func (w *window) add(s Sample) {
	w.samples[w.next] = s
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

func (w *window) copyOut() []Sample {
	if !w.full {
		return append([]Sample(nil), w.samples[:w.next]...)
	}
	out := make([]Sample, 0, len(w.samples))
	out = append(out, w.samples[w.next:]...)
	return append(out, w.samples[:w.next]...)
}

// Collector stores the most recent samples of each kind. Older samples are
// overwritten once a window is full.
type Collector struct {
	mu      sync.Mutex
	windows [2]window
	total   atomic.Int64
}

// NewCollector returns a collector keeping size samples per kind.
// PRE: size > 0, otherwise DefaultWindow is used
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultWindow
	}
	c := &Collector{}
	for i := range c.windows {
		c.windows[i].samples = make([]Sample, size)
	}
	return c
}

// Record stores s.
func (c *Collector) Record(s Sample) {
	if int(s.Kind) >= len(c.windows) {
		return
	}
	c.mu.Lock()
	c.windows[s.Kind].add(s)
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded returns how many samples were ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// LabelStat aggregates the samples sharing a label.
type LabelStat struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	AvgMs float64 `json:"avgMs"`
	MaxMs float64 `json:"maxMs"`
}

// KindReport summarises one kind of sample.
type KindReport struct {
	Count   int         `json:"count"`
	P50Ms   float64     `json:"p50Ms"`
	P95Ms   float64     `json:"p95Ms"`
	P99Ms   float64     `json:"p99Ms"`
	Slowest []LabelStat `json:"slowest"`
}

// Report is the aggregate served to admins.
type Report struct {
	Since    time.Time  `json:"since"`
	Total    int64      `json:"total"`
	Requests KindReport `json:"requests"`
	Queries  KindReport `json:"queries"`
}

// Report aggregates the samples taken at or after since, listing the top
// slowest labels by average duration.
func (c *Collector) Report(since time.Time, top int) Report {
	c.mu.Lock()
	reqs := c.windows[KindRequest].copyOut()
	queries := c.windows[KindQuery].copyOut()
	c.mu.Unlock()

	return Report{
		Since:    since,
		Total:    c.TotalRecorded(),
		Requests: summarise(reqs, since, top),
		Queries:  summarise(queries, since, top),
	}
}

func summarise(samples []Sample, since time.Time, top int) KindReport {
	var durations []float64
	byLabel := map[string]*LabelStat{}
	for _, s := range samples {
		if s.At.Before(since) {
			continue
		}
		ms := toMs(s.Took)
		durations = append(durations, ms)
		st, ok := byLabel[s.Label]
		if !ok {
			st = &LabelStat{Label: s.Label}
			byLabel[s.Label] = st
		}
		st.Count++
		st.AvgMs += ms
		st.MaxMs = math.Max(st.MaxMs, ms)
	}

	rep := KindReport{Count: len(durations)}
	if len(durations) == 0 {
		return rep
	}
	sort.Float64s(durations)
	rep.P50Ms = quantile(durations, 0.50)
	rep.P95Ms = quantile(durations, 0.95)
	rep.P99Ms = quantile(durations, 0.99)

	rep.Slowest = make([]LabelStat, 0, len(byLabel))
	for _, st := range byLabel {
		st.AvgMs /= float64(st.Count)
		rep.Slowest = append(rep.Slowest, *st)
	}
	sort.Slice(rep.Slowest, func(i, j int) bool {
		if rep.Slowest[i].AvgMs == rep.Slowest[j].AvgMs {
			return rep.Slowest[i].Label < rep.Slowest[j].Label
		}
		return rep.Slowest[i].AvgMs > rep.Slowest[j].AvgMs
	})
	if top > 0 && len(rep.Slowest) > top {
		rep.Slowest = rep.Slowest[:top]
	}
	return rep
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func toMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
