package usecase

import (
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/platform/resilience"
)

// StepOptions is the uniform flag set every pipeline step accepts.
type StepOptions struct {
	DryRun bool
	// Limit caps the number of items processed. 0 means unlimited.
	Limit int
	Force bool
	// Delay is the pause between consecutive external requests.
	Delay time.Duration
}

func (o StepOptions) pacer() *resilience.Pacer {
	return resilience.NewPacer(o.Delay)
}

// Tally is an insertion-ordered set of counters.
type Tally struct {
	keys   []string
	counts map[string]int
}

func (t *Tally) Add(key string, n int) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.counts[key] += n
}

func (t *Tally) Inc(key string) {
	t.Add(key, 1)
}

func (t *Tally) Get(key string) int {
	return t.counts[key]
}

func (t *Tally) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *Tally) Map() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// logArgs flattens the counters into logger key/value pairs.
func (t *Tally) logArgs() []any {
	out := make([]any, 0, len(t.keys)*2)
	for _, k := range t.keys {
		out = append(out, k, t.counts[k])
	}
	return out
}

// StepReport is the per-run summary a step returns instead of raising.
type StepReport struct {
	Step   string
	DryRun bool
	Counts Tally
}

func newReport(step string, opts StepOptions) StepReport {
	return StepReport{Step: step, DryRun: opts.DryRun}
}
