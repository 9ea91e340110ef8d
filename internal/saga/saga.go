// Package saga runs a sequence of dependent remote writes and reports which
// of them took effect when one fails.
package saga

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/goalkeeper/internal/logger"
)

// Step is one write. Compensate undoes Do and may be nil.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

type Mode int

const (
	// StopOnError stops at the first failure and compensates completed steps
	// in reverse order.
	StopOnError Mode = iota
	// ContinueOnError runs every step and reports all failures. Nothing is
	// compensated.
	ContinueOnError
)

type Saga struct {
	Name  string
	Steps []Step
	Mode  Mode
}

// New returns a StopOnError saga.
func New(name string, steps ...Step) *Saga {
	return &Saga{Name: name, Steps: steps}
}

// PartialFailure describes a saga that did not complete. Completed lists the
// steps whose writes are still in effect.
type PartialFailure struct {
	Saga             string
	Completed        []string
	Failed           []string
	Errs             map[string]error
	Compensated      []string
	CompensationErrs map[string]error
}

func (p *PartialFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d step(s) failed", p.Saga, len(p.Failed))
	for _, name := range p.Failed {
		fmt.Fprintf(&b, "; %s: %v", name, p.Errs[name])
	}
	if len(p.CompensationErrs) > 0 {
		names := make([]string, 0, len(p.CompensationErrs))
		for name := range p.CompensationErrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "; undo %s: %v", name, p.CompensationErrs[name])
		}
	}
	return b.String()
}

// Unwrap exposes the step errors to errors.Is and errors.As.
func (p *PartialFailure) Unwrap() []error {
	out := make([]error, 0, len(p.Failed))
	for _, name := range p.Failed {
		out = append(out, p.Errs[name])
	}
	return out
}

// Orphaned reports whether writes from a failed saga remain in effect.
func (p *PartialFailure) Orphaned() bool {
	return len(p.Completed) > 0 || len(p.CompensationErrs) > 0
}

// Run executes the steps in order. It returns nil when every step succeeded
// and a *PartialFailure otherwise.
func (s *Saga) Run(ctx context.Context) error {
	pf := &PartialFailure{Saga: s.Name, Errs: map[string]error{}}
	var done []Step

	for _, step := range s.Steps {
		if err := ctx.Err(); err != nil && s.Mode == StopOnError {
			pf.Failed = append(pf.Failed, step.Name)
			pf.Errs[step.Name] = err
			break
		}
		if err := step.Do(ctx); err != nil {
			logger.Warn("Saga step failed", "saga", s.Name, "step", step.Name, "error", err)
			pf.Failed = append(pf.Failed, step.Name)
			pf.Errs[step.Name] = err
			if s.Mode == StopOnError {
				break
			}
			continue
		}
		done = append(done, step)
	}

	if len(pf.Failed) == 0 {
		return nil
	}

	if s.Mode == StopOnError {
		s.compensate(ctx, done, pf)
	} else {
		for _, step := range done {
			pf.Completed = append(pf.Completed, step.Name)
		}
	}
	return pf
}

// compensate undoes done in reverse. Steps without a Compensate, and steps
// whose Compensate fails, stay in Completed.
func (s *Saga) compensate(ctx context.Context, done []Step, pf *PartialFailure) {
	// Compensation must run even when ctx was the cause of the failure.
	ctx = context.WithoutCancel(ctx)
	var kept []string
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			kept = append(kept, step.Name)
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			logger.Error("Saga compensation failed", "saga", s.Name, "step", step.Name, "error", err)
			if pf.CompensationErrs == nil {
				pf.CompensationErrs = map[string]error{}
			}
			pf.CompensationErrs[step.Name] = err
			kept = append(kept, step.Name)
			continue
		}
		pf.Compensated = append(pf.Compensated, step.Name)
	}
	for i := len(kept) - 1; i >= 0; i-- {
		pf.Completed = append(pf.Completed, kept[i])
	}
}
