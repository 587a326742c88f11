package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phases recorded by the cross-validator
const (
	PhaseLoad     = "load"
	PhaseTrain    = "train"
	PhaseClassify = "classify"
)

// Profiler collects durations per phase. It is safe for concurrent use.
type Profiler struct {
	mu    sync.RWMutex
	times map[string][]time.Duration
}

// NewProfiler creates a new profiler
func NewProfiler() *Profiler {
	return &Profiler{
		times: make(map[string][]time.Duration),
	}
}

// Timer measures one occurrence of a phase
type Timer struct {
	profiler *Profiler
	phase    string
	start    time.Time
}

// Start begins timing a phase. A nil profiler returns a timer that records nothing.
func (p *Profiler) Start(phase string) *Timer {
	return &Timer{
		profiler: p,
		phase:    phase,
		start:    time.Now(),
	}
}

// Stop records the elapsed time and returns it
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	t.profiler.Record(t.phase, d)
	return d
}

// Record adds a duration to phase
func (p *Profiler) Record(phase string, d time.Duration) {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.times[phase] = append(p.times[phase], d)
	p.mu.Unlock()
}

// Stats contains timing statistics of one phase
type Stats struct {
	Phase   string        `json:"phase"`
	Count   int           `json:"count"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Median  time.Duration `json:"median"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
}

// Stats returns statistics for phase. Count is 0 if nothing was recorded.
func (p *Profiler) Stats(phase string) Stats {
	p.mu.RLock()
	sorted := append([]time.Duration(nil), p.times[phase]...)
	p.mu.RUnlock()

	if len(sorted) == 0 {
		return Stats{Phase: phase}
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var total time.Duration
	samples := make([]float64, len(sorted))
	for i, d := range sorted {
		total += d
		samples[i] = float64(d)
	}

	quantile := func(q float64) time.Duration {
		return time.Duration(stat.Quantile(q, stat.Empirical, samples, nil))
	}

	return Stats{
		Phase:   phase,
		Count:   len(sorted),
		Total:   total,
		Average: total / time.Duration(len(sorted)),
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Median:  quantile(0.5),
		P95:     quantile(0.95),
		P99:     quantile(0.99),
	}
}

// AllStats returns statistics for every recorded phase, ordered by name
func (p *Profiler) AllStats() []Stats {
	p.mu.RLock()
	phases := make([]string, 0, len(p.times))
	for phase := range p.times {
		phases = append(phases, phase)
	}
	p.mu.RUnlock()

	sort.Strings(phases)

	stats := make([]Stats, 0, len(phases))
	for _, phase := range phases {
		stats = append(stats, p.Stats(phase))
	}

	return stats
}

// PrintReport writes a timing table to w
func (p *Profiler) PrintReport(w io.Writer) {
	stats := p.AllStats()

	if len(stats) == 0 {
		fmt.Fprintln(w, "No timing data available")
		return
	}

	fmt.Fprintf(w, "⏱️  Phase Timings\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "%-10s %6s %10s %9s %9s %9s %9s\n",
		"Phase", "Count", "Total", "Avg", "Min", "Max", "P95")
	fmt.Fprintf(w, "───────────────────────────────────────────────────────────────\n")

	for _, s := range stats {
		fmt.Fprintf(w, "%-10s %6d %10s %9s %9s %9s %9s\n",
			s.Phase,
			s.Count,
			formatDuration(s.Total),
			formatDuration(s.Average),
			formatDuration(s.Min),
			formatDuration(s.Max),
			formatDuration(s.P95),
		)
	}

	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1e3)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}
