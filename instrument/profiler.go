package instrument

import (
	"sync"
	"time"
)

// Record is the accumulated time of one named section during the current frame.
type Record struct {
	Name       string
	Elapsed    time.Duration
	MaxElapsed time.Duration
}

// ElapsedMS returns Elapsed in milliseconds.
func (r Record) ElapsedMS() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// MaxElapsedMS returns MaxElapsed in milliseconds.
func (r Record) MaxElapsedMS() float64 {
	return float64(r.MaxElapsed) / float64(time.Millisecond)
}

// Profiler times named sections. Begin and End pair by name; a section timed
// several times during one frame accumulates.
type Profiler struct {
	mu      sync.Mutex
	now     func() time.Time
	open    map[string]time.Time
	records []Record
	index   map[string]int
	max     map[string]time.Duration
}

// NewProfiler returns an empty profiler using the wall clock.
func NewProfiler() *Profiler {
	return NewProfilerWithClock(time.Now)
}

// NewProfilerWithClock returns a profiler reading time from now.
func NewProfilerWithClock(now func() time.Time) *Profiler {
	return &Profiler{
		now:   now,
		open:  make(map[string]time.Time),
		index: make(map[string]int),
		max:   make(map[string]time.Duration),
	}
}

// Begin starts timing the section name.
func (p *Profiler) Begin(name string) {
	p.mu.Lock()
	p.open[name] = p.now()
	p.mu.Unlock()
}

// End stops timing the section name. End without a matching Begin is ignored.
func (p *Profiler) End(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start, ok := p.open[name]
	if !ok {
		return
	}
	delete(p.open, name)
	elapsed := p.now().Sub(start)

	i, ok := p.index[name]
	if !ok {
		i = len(p.records)
		p.index[name] = i
		p.records = append(p.records, Record{Name: name})
	}
	r := &p.records[i]
	r.Elapsed += elapsed
	if r.Elapsed > p.max[name] {
		p.max[name] = r.Elapsed
	}
	r.MaxElapsed = p.max[name]
}

// Records returns a copy of the records of the current frame, in first-seen order.
func (p *Profiler) Records() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, len(p.records))
	copy(out, p.records)
	return out
}

// Clear drops the records of the current frame. Running maxima are kept.
func (p *Profiler) Clear() {
	p.mu.Lock()
	p.records = p.records[:0]
	clear(p.index)
	p.mu.Unlock()
}
