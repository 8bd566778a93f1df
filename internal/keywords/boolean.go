package keywords

import (
	"fmt"
	"strings"
)

// BuildQuery renders the taxonomy as a boolean search string:
// ("a" OR "b") AND ("c") AND NOT ("x" OR "y").
// Order is preserved, nothing is deduplicated or normalized.
func BuildQuery(t *Taxonomy) string {
	if t == nil {
		return ""
	}

	parts := make([]string, 0, len(t.Groups))
	for _, group := range t.Groups {
		if len(group) == 0 {
			continue
		}
		parts = append(parts, "("+quoteJoin(group)+")")
	}

	query := strings.Join(parts, " AND ")

	if len(t.Exclude) > 0 {
		query += fmt.Sprintf(" AND NOT (%s)", quoteJoin(t.Exclude))
	}

	return query
}

func quoteJoin(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " OR ")
}
