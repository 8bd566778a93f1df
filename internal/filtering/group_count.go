package filtering

import (
	"context"
	"strconv"

	"github.com/spigell/jd-tailor/internal/keywords"
)

type groupCountFilter struct {
	max int
}

// NewGroupCount creates a filter that keeps the first limit groups.
func NewGroupCount(limit int) Filter {
	return &groupCountFilter{max: limit}
}

func (f *groupCountFilter) Name() string { return "group_count" }

func (f *groupCountFilter) Disable(string) {}

func (f *groupCountFilter) IsEnabled() bool { return true }

func (f *groupCountFilter) Apply(_ context.Context, _ string, t *keywords.Taxonomy) (*keywords.Taxonomy, Step) {
	initial := len(t.Groups)
	if initial > f.max {
		t.Groups = t.Groups[:f.max]
	}
	return t, Step{Initial: initial, Dropped: initial - len(t.Groups), Left: len(t.Groups)}
}

func (f *groupCountFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{"max": strconv.Itoa(f.max)}}
}
