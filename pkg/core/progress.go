package core

import "context"

// Progress receives coarse progress reports from long-running loads.
// Reporting is best-effort; cancellation travels on the context, not here.
type Progress interface {
	// BeginTask announces a task and its total step count (0 if unknown).
	BeginTask(name string, total int)

	// Worked reports n completed steps.
	Worked(n int)

	// Done marks the current task finished.
	Done()
}

// NopProgress discards all reports.
type NopProgress struct{}

func (NopProgress) BeginTask(string, int) {}
func (NopProgress) Worked(int)            {}
func (NopProgress) Done()                 {}

type progressKey struct{}

// WithProgress attaches a Progress reporter to the context.
func WithProgress(ctx context.Context, p Progress) context.Context {
	return context.WithValue(ctx, progressKey{}, p)
}

// ProgressFromContext returns the attached Progress reporter, or NopProgress.
func ProgressFromContext(ctx context.Context) Progress {
	if p, ok := ctx.Value(progressKey{}).(Progress); ok {
		return p
	}
	return NopProgress{}
}
