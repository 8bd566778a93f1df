package keywords

const (
	MaxGroups        = 7
	MaxTermsPerGroup = 3
)

// Group is one skill concept expressed as 1-3 synonyms.
type Group []string

// Taxonomy is the grouped keyword view of a job description together with explicit exclusions.
type Taxonomy struct {
	Groups  []Group  `json:"groups" mapstructure:"groups"`
	Exclude []string `json:"exclude" mapstructure:"exclude"`
}

// Empty reports whether the taxonomy has neither groups nor exclusions.
func (t *Taxonomy) Empty() bool {
	return t == nil || (len(t.Groups) == 0 && len(t.Exclude) == 0)
}

// Clone returns a deep copy so refinement never mutates a caller's value.
func (t *Taxonomy) Clone() *Taxonomy {
	if t == nil {
		return &Taxonomy{}
	}

	out := &Taxonomy{
		Groups:  make([]Group, 0, len(t.Groups)),
		Exclude: append([]string{}, t.Exclude...),
	}
	for _, g := range t.Groups {
		out.Groups = append(out.Groups, append(Group{}, g...))
	}
	return out
}

// TaxonomyResult is what ExtractTaxonomy hands back to callers. Err is set on failure and
// the taxonomy is then empty.
type TaxonomyResult struct {
	Taxonomy *Taxonomy
	Err      error
}

// RankedResult carries the ranked keyword list, most important first.
type RankedResult struct {
	Keywords []string
	Err      error
}
