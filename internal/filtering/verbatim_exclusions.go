package filtering

import (
	"context"
	"strings"

	"github.com/spigell/jd-tailor/internal/keywords"
)

type verbatimExclusionsFilter struct {
	disabled bool
	reason   string
}

// NewVerbatimExclusions creates a filter that drops exclusion phrases not found in the job description.
// Matching is case-insensitive and against the full job description.
func NewVerbatimExclusions() Filter {
	return &verbatimExclusionsFilter{}
}

func (f *verbatimExclusionsFilter) Name() string { return "verbatim_exclusions" }

func (f *verbatimExclusionsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *verbatimExclusionsFilter) IsEnabled() bool { return !f.disabled }

func (f *verbatimExclusionsFilter) Apply(_ context.Context, jd string, t *keywords.Taxonomy) (*keywords.Taxonomy, Step) {
	initial := len(t.Exclude)
	haystack := strings.ToLower(jd)

	kept := make([]string, 0, initial)
	for _, phrase := range t.Exclude {
		if strings.Contains(haystack, strings.ToLower(phrase)) {
			kept = append(kept, phrase)
		}
	}
	t.Exclude = kept

	return t, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

func (f *verbatimExclusionsFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
