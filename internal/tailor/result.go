package tailor

import "github.com/spigell/jd-tailor/internal/ai"

// Result is the outcome of one rewrite. On failure MatchScore is 0, lists are empty and Error is set.
type Result struct {
	MatchScore     int      `json:"match_score"`
	RoleTitle      string   `json:"role_title,omitempty"`
	RoleType       string   `json:"role_type,omitempty"`
	Level          string   `json:"level,omitempty"`
	Bullets        []string `json:"updated_pointers"`
	KeywordsUsed   []string `json:"keywords_used"`
	KeywordsMissed []string `json:"keywords_missed"`
	Error          string   `json:"error,omitempty"`

	// Kind classifies Error for metrics and callers; it is not serialized.
	Kind ai.ErrorKind `json:"-"`
}

func failure(err error) Result {
	return Result{
		MatchScore:     0,
		Bullets:        []string{},
		KeywordsUsed:   []string{},
		KeywordsMissed: []string{},
		Error:          err.Error(),
		Kind:           ai.KindOf(err),
	}
}

// Role types and levels offered to the oracle for classification.
var (
	RoleTypes = []string{"Strategic", "Technical", "Mixed", "Support", "Analytical", "People-facing"}
	Levels    = []string{"Entry-Level", "IC", "Team Lead", "Manager", "Director", "VP"}
)
