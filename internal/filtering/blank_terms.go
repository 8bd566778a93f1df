package filtering

import (
	"context"
	"strings"

	"github.com/spigell/jd-tailor/internal/keywords"
)

type blankTermsFilter struct{}

// NewBlankTerms creates a filter that trims terms and drops blank terms, blank exclusions and empty groups.
func NewBlankTerms() Filter {
	return &blankTermsFilter{}
}

func (f *blankTermsFilter) Name() string { return "blank_terms" }

func (f *blankTermsFilter) Disable(string) {}

func (f *blankTermsFilter) IsEnabled() bool { return true }

func (f *blankTermsFilter) Apply(_ context.Context, _ string, t *keywords.Taxonomy) (*keywords.Taxonomy, Step) {
	initial := countTerms(t) + len(t.Exclude)

	groups := make([]keywords.Group, 0, len(t.Groups))
	for _, group := range t.Groups {
		kept := make(keywords.Group, 0, len(group))
		for _, term := range group {
			if term = strings.TrimSpace(term); term != "" {
				kept = append(kept, term)
			}
		}
		if len(kept) > 0 {
			groups = append(groups, kept)
		}
	}

	exclude := make([]string, 0, len(t.Exclude))
	for _, phrase := range t.Exclude {
		if phrase = strings.TrimSpace(phrase); phrase != "" {
			exclude = append(exclude, phrase)
		}
	}

	out := &keywords.Taxonomy{Groups: groups, Exclude: exclude}
	left := countTerms(out) + len(out.Exclude)

	return out, Step{Initial: initial, Dropped: initial - left, Left: left}
}
