package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/keywords"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract keyword groups and exclusions from a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		extract(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("jd", "", "job description file (pdf or text, '-' for stdin)")
	extractCmd.Flags().BoolP("boolean", "b", false, "also build a boolean search query from the result")
	extractCmd.MarkFlagRequired("jd")
}

func extract(cmd *cobra.Command) {
	ctx := context.Background()

	l := newLogger()
	p := newPipeline(ctx, l)

	jdPath, _ := cmd.Flags().GetString("jd")
	withBoolean, _ := cmd.Flags().GetBool("boolean")

	jd, err := readDocument(jdPath, p.config.Server.MaxPages)
	if err != nil {
		l.Fatal("reading job description", zap.Error(err))
	}

	res := p.extractor.ExtractTaxonomy(ctx, jd)

	out := newTaxonomyOutput(res)
	if withBoolean && res.Err == nil {
		query := keywords.BuildQuery(res.Taxonomy)
		out.BooleanQuery = &query
	}

	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		l.Fatal("writing result", zap.Error(err))
	}

	if res.Err != nil {
		l.Fatal("taxonomy extraction failed", zap.Error(res.Err))
	}
}
