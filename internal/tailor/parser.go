package tailor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	// DefaultFallbackScore is used when the response carries no readable score.
	// It is a heuristic sentinel, not a computed value.
	DefaultFallbackScore = 70
	DefaultUnknownValue  = "Unknown"
	MaxBullets           = 10
	bulletGlyph          = '•'
)

var (
	matchScoreRe = regexp.MustCompile(`Match Score:[ \t]*(\d{1,3})\b`)
	roleTitleRe  = regexp.MustCompile(`ROLE TITLE:[ \t]*([^\r\n]*)`)
	roleTypeRe   = regexp.MustCompile(`ROLE TYPE:[ \t]*([^\r\n]*)`)
	levelRe      = regexp.MustCompile(`LEVEL:[ \t]*([^\r\n]*)`)
)

// Parser turns the free-text rewrite answer into a Result. It never fails: every field has a default.
type Parser struct {
	FallbackScore int
	UnknownValue  string
}

// NewParser returns a parser with the default sentinels.
func NewParser() Parser {
	return Parser{FallbackScore: DefaultFallbackScore, UnknownValue: DefaultUnknownValue}
}

// Parse extracts score, classification, bullets and reconciles selected keywords against the bullets.
func (p Parser) Parse(raw string, selected []string) Result {
	bullets := parseBullets(raw)
	used, missed := reconcile(selected, bullets)

	return Result{
		MatchScore:     p.score(raw),
		RoleTitle:      p.field(roleTitleRe, raw),
		RoleType:       p.field(roleTypeRe, raw),
		Level:          p.field(levelRe, raw),
		Bullets:        bullets,
		KeywordsUsed:   used,
		KeywordsMissed: missed,
	}
}

func (p Parser) score(raw string) int {
	m := matchScoreRe.FindStringSubmatch(raw)
	if m == nil {
		return p.FallbackScore
	}

	score, err := strconv.Atoi(m[1])
	if err != nil || score < 0 || score > 100 {
		return p.FallbackScore
	}
	return score
}

func (p Parser) field(re *regexp.Regexp, raw string) string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return p.UnknownValue
	}

	value := strings.TrimFunc(m[1], func(r rune) bool {
		return unicode.IsSpace(r) || r == '*'
	})
	if value == "" {
		return p.UnknownValue
	}
	return value
}

func parseBullets(raw string) []string {
	bullets := make([]string, 0, MaxBullets)
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, string(bulletGlyph)) {
			continue
		}

		text := strings.TrimFunc(trimmed, func(r rune) bool {
			return r == bulletGlyph || r == '-' || unicode.IsSpace(r)
		})
		if text == "" {
			continue
		}

		bullets = append(bullets, text)
		if len(bullets) == MaxBullets {
			break
		}
	}
	return bullets
}

// reconcile splits the selected keywords into those found in any bullet (case-insensitive
// substring) and the rest. Duplicates are reconciled once; selection order is kept.
func reconcile(selected, bullets []string) (used, missed []string) {
	lowered := make([]string, len(bullets))
	for i, b := range bullets {
		lowered[i] = strings.ToLower(b)
	}

	used = []string{}
	missed = []string{}
	seen := make(map[string]struct{}, len(selected))

	for _, kw := range selected {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}

		needle := strings.ToLower(kw)
		found := false
		for _, b := range lowered {
			if strings.Contains(b, needle) {
				found = true
				break
			}
		}

		if found {
			used = append(used, kw)
		} else {
			missed = append(missed, kw)
		}
	}

	return used, missed
}
