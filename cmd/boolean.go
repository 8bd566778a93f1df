package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/keywords"
)

var booleanCmd = &cobra.Command{
	Use:   "boolean",
	Short: "Build a boolean search query from a taxonomy JSON file",
	Run: func(cmd *cobra.Command, _ []string) {
		l := newLogger()

		path, _ := cmd.Flags().GetString("taxonomy")

		taxonomy, err := readTaxonomy(path)
		if err != nil {
			l.Fatal("reading taxonomy", zap.Error(err))
		}

		if err := writeJSON(cmd.OutOrStdout(), booleanOutput{BooleanQuery: keywords.BuildQuery(taxonomy)}); err != nil {
			l.Fatal("writing result", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(booleanCmd)

	booleanCmd.Flags().StringP("taxonomy", "t", "-", "taxonomy JSON file with groups and exclude ('-' for stdin)")
}

func readTaxonomy(path string) (*keywords.Taxonomy, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var taxonomy keywords.Taxonomy
	if err := json.NewDecoder(r).Decode(&taxonomy); err != nil {
		return nil, fmt.Errorf("decode taxonomy %s: %w", path, err)
	}
	return &taxonomy, nil
}
