package keywords

import (
	_ "embed"
	"strings"
)

const (
	taxonomySystemPrompt = "You extract keywords and exclusions from job descriptions."
	rankedSystemPrompt   = "Extract keywords only from the JD."

	jobDescriptionPlaceholder = "{{JOB_DESCRIPTION}}"
)

//go:embed taxonomy_prompt.md
var taxonomyPromptTemplate string

//go:embed ranked_prompt.md
var rankedPromptTemplate string

func buildTaxonomyPrompt(jd string) string {
	template := taxonomyPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Return {\"groups\": [[...]], \"exclude\": [...]} as JSON for this Job Description:\n" + jobDescriptionPlaceholder
	}
	return strings.ReplaceAll(template, jobDescriptionPlaceholder, jd)
}

func buildRankedPrompt(jd string) string {
	template := rankedPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Return a JSON array of 10-15 keywords for this Job Description:\n" + jobDescriptionPlaceholder
	}
	return strings.ReplaceAll(template, jobDescriptionPlaceholder, jd)
}
