package filtering

import (
	"context"
	"strconv"

	"github.com/spigell/jd-tailor/internal/keywords"
)

type groupSizeFilter struct {
	max int
}

// NewGroupSize creates a filter that keeps the first limit synonyms of each group.
func NewGroupSize(limit int) Filter {
	return &groupSizeFilter{max: limit}
}

func (f *groupSizeFilter) Name() string { return "group_size" }

func (f *groupSizeFilter) Disable(string) {}

func (f *groupSizeFilter) IsEnabled() bool { return true }

func (f *groupSizeFilter) Apply(_ context.Context, _ string, t *keywords.Taxonomy) (*keywords.Taxonomy, Step) {
	initial := countTerms(t)

	for i, group := range t.Groups {
		if len(group) > f.max {
			t.Groups[i] = group[:f.max]
		}
	}

	left := countTerms(t)
	return t, Step{Initial: initial, Dropped: initial - left, Left: left}
}

func (f *groupSizeFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{"max": strconv.Itoa(f.max)}}
}
