package tailor

import (
	"context"
	_ "embed"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/ai"
	"github.com/spigell/jd-tailor/internal/keywords"
	"github.com/spigell/jd-tailor/internal/textutil"
)

const (
	rewriteSystemPrompt  = "You rewrite resumes based on job descriptions."
	DefaultMaxInputChars = 3000
	defaultMaxLogLength  = 200
)

//go:embed prompt.md
var promptTemplate string

// KeywordRanker supplies the ranked keyword list for a job description.
type KeywordRanker interface {
	ExtractRankedKeywords(ctx context.Context, jd string) keywords.RankedResult
}

// Config tunes the rewriter. Zero values fall back to defaults.
type Config struct {
	MaxInputChars int
	MaxLogLength  int
	FallbackScore *int
	UnknownValue  string
}

// Rewriter tailors resume bullets to a job description.
type Rewriter struct {
	oracle    ai.Oracle
	ranker    KeywordRanker
	parser    Parser
	logger    *zap.Logger
	maxInput  int
	maxLogLen int
}

func NewRewriter(oracle ai.Oracle, ranker KeywordRanker, cfg Config, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}

	parser := NewParser()
	if cfg.FallbackScore != nil {
		parser.FallbackScore = *cfg.FallbackScore
	}
	if v := strings.TrimSpace(cfg.UnknownValue); v != "" {
		parser.UnknownValue = v
	}

	maxInput := cfg.MaxInputChars
	if maxInput <= 0 {
		maxInput = DefaultMaxInputChars
	}
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Rewriter{
		oracle:    oracle,
		ranker:    ranker,
		parser:    parser,
		logger:    logger,
		maxInput:  maxInput,
		maxLogLen: maxLogLen,
	}
}

// Rewrite ranks job description keywords, selects the budgeted subset, asks the oracle for
// tailored bullets and parses the answer. Failures come back as a zero-score Result.
func (r *Rewriter) Rewrite(ctx context.Context, jd, resume string, targetMatch int) Result {
	ranked := r.ranker.ExtractRankedKeywords(ctx, jd)
	if ranked.Err != nil {
		r.logger.Warn("keyword extraction failed, skipping rewrite", zap.Error(ranked.Err))
		return failure(ranked.Err)
	}

	budget := SelectBudget(targetMatch, ranked.Keywords)

	r.logger.Info("keyword budget selected",
		zap.Int("requested_percent", targetMatch),
		zap.Int("percent", budget.Percent),
		zap.Int("ranked", len(ranked.Keywords)),
		zap.Int("selected", budget.K),
	)

	prompt := buildPrompt(budget, textutil.Head(jd, r.maxInput), textutil.Head(resume, r.maxInput))

	r.logger.Debug("rewrite request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", textutil.TruncateForLog(prompt, r.maxLogLen)),
	)

	if r.oracle == nil {
		return failure(ai.NewError(ai.KindOracleUnavailable, "oracle is not configured", nil))
	}

	raw, err := r.oracle.Complete(ctx, rewriteSystemPrompt, prompt)
	if err != nil {
		r.logger.Warn("rewrite oracle call failed", zap.Error(err))
		return failure(ai.ClassifyOracleError(err))
	}

	r.logger.Debug("rewrite response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", textutil.TruncateForLog(raw, r.maxLogLen)),
	)

	if strings.TrimSpace(raw) == "" {
		return failure(ai.NewError(ai.KindEmptyResponse, "oracle returned empty response", nil))
	}

	result := r.parser.Parse(raw, budget.Selected)

	r.logger.Info("resume rewritten",
		zap.Int("match_score", result.MatchScore),
		zap.Int("bullets", len(result.Bullets)),
		zap.Int("keywords_used", len(result.KeywordsUsed)),
		zap.Int("keywords_missed", len(result.KeywordsMissed)),
	)

	return result
}

func buildPrompt(budget Budget, jd, resume string) string {
	replacer := strings.NewReplacer(
		"{{ROLE_TYPES}}", quotedList(RoleTypes),
		"{{LEVELS}}", quotedList(Levels),
		"{{MAX_BULLETS}}", strconv.Itoa(MaxBullets),
		"{{TARGET_PERCENT}}", strconv.Itoa(budget.Percent),
		"{{KEYWORD_COUNT}}", strconv.Itoa(budget.K),
		"{{KEYWORDS}}", strings.Join(budget.Selected, ", "),
		"{{JOB_DESCRIPTION}}", jd,
		"{{RESUME}}", resume,
	)

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Keywords ({{KEYWORD_COUNT}}, target {{TARGET_PERCENT}}%): {{KEYWORDS}}\n\nJD:\n{{JOB_DESCRIPTION}}\n\nResume:\n{{RESUME}}"
	}
	return replacer.Replace(template)
}

func quotedList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, strconv.Quote(item))
	}
	return strings.Join(quoted, ", ")
}
