package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/tailor"
)

const (
	PromptShowBullets  = "Show bullets"
	PromptShowKeywords = "Show keywords"
	PromptPrintJSON    = "Print JSON"
	PromptDumpToFile   = "Dump result to file"
	PromptExit         = "Exit"
	defaultTarget      = "80"
)

var errExit = errors.New("exit requested")

var resultPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowBullets, PromptShowKeywords, PromptPrintJSON, PromptDumpToFile, PromptExit},
}

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Rewrite resume bullets toward a job description at a target keyword match",
	Run: func(cmd *cobra.Command, _ []string) {
		tailorResume(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tailorCmd)

	tailorCmd.Flags().String("jd", "", "job description file (pdf or text, '-' for stdin)")
	tailorCmd.Flags().String("resume", "", "resume file (pdf or text)")
	tailorCmd.Flags().IntP("target", "t", tailor.MaxMatchPercent, "target keyword match percent, clamped to 50..100 (asked interactively when unset)")
	tailorCmd.Flags().BoolP("yes", "y", false, "do not ask anything, print the result as JSON")
	tailorCmd.MarkFlagRequired("jd")
	tailorCmd.MarkFlagRequired("resume")
}

func tailorResume(cmd *cobra.Command) {
	ctx := context.Background()

	l := newLogger()
	p := newPipeline(ctx, l)

	jdPath, _ := cmd.Flags().GetString("jd")
	resumePath, _ := cmd.Flags().GetString("resume")
	yes, _ := cmd.Flags().GetBool("yes")

	jd, err := readDocument(jdPath, p.config.Server.MaxPages)
	if err != nil {
		l.Fatal("reading job description", zap.Error(err))
	}
	resume, err := readDocument(resumePath, p.config.Server.MaxPages)
	if err != nil {
		l.Fatal("reading resume", zap.Error(err))
	}

	target, _ := cmd.Flags().GetInt("target")
	if !cmd.Flags().Changed("target") && !yes {
		target, err = askTarget()
		if err != nil {
			l.Fatal("exiting", zap.Error(err))
		}
	}

	l.Info("tailoring resume", zap.Int("target", target), zap.Int("clamped", tailor.ClampPercent(target)))

	result := p.rewriter.Rewrite(ctx, jd, resume, target)
	if result.Error != "" {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			l.Fatal("writing result", zap.Error(err))
		}
		l.Fatal("tailoring failed", zap.String("error", result.Error))
	}

	if yes {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			l.Fatal("writing result", zap.Error(err))
		}
		return
	}

	l.Info("resume tailored",
		zap.Int("match_score", result.MatchScore),
		zap.String("role_title", result.RoleTitle),
		zap.String("role_type", result.RoleType),
		zap.String("level", result.Level),
	)

	for {
		_, action, err := resultPrompt.Run()
		if err != nil {
			l.Fatal("exiting", zap.Error(err))
		}

		if err := handleResultAction(action, result, cmd.OutOrStdout(), l); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			l.Fatal("exiting", zap.Error(err))
		}
	}
}

func askTarget() (int, error) {
	prompt := promptui.Prompt{
		Label:    fmt.Sprintf("Target keyword match %% (%d-%d)", tailor.MinMatchPercent, tailor.MaxMatchPercent),
		Default:  defaultTarget,
		Validate: validateTarget,
	}

	input, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(input))
}

func validateTarget(input string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(input)); err != nil {
		return errors.New("enter a whole number")
	}
	return nil
}

func handleResultAction(action string, result tailor.Result, out io.Writer, l *zap.Logger) error {
	switch action {
	case PromptShowBullets:
		fmt.Fprintf(out, "Match Score: %d%%\n%s / %s / %s\n\n", result.MatchScore, result.RoleTitle, result.RoleType, result.Level)
		for _, bullet := range result.Bullets {
			fmt.Fprintf(out, "• %s\n", bullet)
		}
		return nil
	case PromptShowKeywords:
		fmt.Fprintf(out, "used (%d): %s\n", len(result.KeywordsUsed), strings.Join(result.KeywordsUsed, ", "))
		fmt.Fprintf(out, "missed (%d): %s\n", len(result.KeywordsMissed), strings.Join(result.KeywordsMissed, ", "))
		return nil
	case PromptPrintJSON:
		return writeJSON(out, result)
	case PromptDumpToFile:
		filename, err := dumpToTmpFile("jd-tailor_*.json", result)
		if err != nil {
			return fmt.Errorf("dump result to file: %w", err)
		}
		l.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		l.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}
