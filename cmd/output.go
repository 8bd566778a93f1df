package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spigell/jd-tailor/internal/keywords"
)

type taxonomyOutput struct {
	Groups       []keywords.Group `json:"groups"`
	Exclude      []string         `json:"exclude"`
	BooleanQuery *string          `json:"boolean_query,omitempty"`
	Error        string           `json:"error,omitempty"`
}

type booleanOutput struct {
	BooleanQuery string `json:"boolean_query"`
}

func newTaxonomyOutput(res keywords.TaxonomyResult) taxonomyOutput {
	out := taxonomyOutput{Groups: []keywords.Group{}, Exclude: []string{}}
	if res.Taxonomy != nil {
		if res.Taxonomy.Groups != nil {
			out.Groups = res.Taxonomy.Groups
		}
		if res.Taxonomy.Exclude != nil {
			out.Exclude = res.Taxonomy.Exclude
		}
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dumpToTmpFile writes v as indented JSON to a new temp file and returns its name.
func dumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := writeJSON(file, v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
