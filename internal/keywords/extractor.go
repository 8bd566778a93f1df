package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/ai"
	"github.com/spigell/jd-tailor/internal/textutil"
)

const (
	// DefaultMaxInputChars bounds the job description text sent to the oracle.
	DefaultMaxInputChars = 3000
	defaultMaxLogLength  = 200
)

// Refiner post-processes a freshly parsed taxonomy. jd is the full, untruncated job description.
type Refiner interface {
	Refine(ctx context.Context, jd string, t *Taxonomy) *Taxonomy
}

// Extractor asks the oracle for job description keywords and parses its answers.
type Extractor struct {
	oracle    ai.Oracle
	refiner   Refiner
	logger    *zap.Logger
	maxInput  int
	maxLogLen int
}

type Option func(*Extractor)

// WithRefiner runs r over every successfully parsed taxonomy.
func WithRefiner(r Refiner) Option {
	return func(e *Extractor) { e.refiner = r }
}

func WithMaxInputChars(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxInput = n
		}
	}
}

func WithMaxLogLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxLogLen = n
		}
	}
}

func NewExtractor(oracle ai.Oracle, logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Extractor{
		oracle:    oracle,
		logger:    logger,
		maxInput:  DefaultMaxInputChars,
		maxLogLen: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractTaxonomy returns grouped keywords and exclusions for the job description.
// Failures are reported in the result with an empty taxonomy; the method never panics on oracle output.
func (e *Extractor) ExtractTaxonomy(ctx context.Context, jd string) TaxonomyResult {
	prompt := buildTaxonomyPrompt(textutil.Head(jd, e.maxInput))

	raw, err := e.complete(ctx, "taxonomy", taxonomySystemPrompt, prompt)
	if err != nil {
		return TaxonomyResult{Taxonomy: emptyTaxonomy(), Err: ai.ClassifyOracleError(err)}
	}

	taxonomy, err := parseTaxonomy(raw)
	if err != nil {
		e.logger.Warn("parsing taxonomy response failed",
			zap.Error(err),
			zap.String("response_preview", textutil.TruncateForLog(raw, e.maxLogLen)),
		)
		return TaxonomyResult{Taxonomy: emptyTaxonomy(), Err: err}
	}

	if e.refiner != nil {
		taxonomy = e.refiner.Refine(ctx, jd, taxonomy)
	}

	e.logger.Info("taxonomy extracted",
		zap.Int("groups", len(taxonomy.Groups)),
		zap.Int("exclusions", len(taxonomy.Exclude)),
	)

	return TaxonomyResult{Taxonomy: taxonomy}
}

// ExtractRankedKeywords returns keywords ordered by importance, most important first.
func (e *Extractor) ExtractRankedKeywords(ctx context.Context, jd string) RankedResult {
	prompt := buildRankedPrompt(textutil.Head(jd, e.maxInput))

	raw, err := e.complete(ctx, "ranked", rankedSystemPrompt, prompt)
	if err != nil {
		return RankedResult{Keywords: []string{}, Err: ai.ClassifyOracleError(err)}
	}

	ranked, err := parseRanked(raw)
	if err != nil {
		e.logger.Warn("parsing ranked keywords response failed",
			zap.Error(err),
			zap.String("response_preview", textutil.TruncateForLog(raw, e.maxLogLen)),
		)
		return RankedResult{Keywords: []string{}, Err: err}
	}

	e.logger.Info("ranked keywords extracted", zap.Int("count", len(ranked)))

	return RankedResult{Keywords: ranked}
}

func (e *Extractor) complete(ctx context.Context, kind, system, prompt string) (string, error) {
	if e.oracle == nil {
		return "", fmt.Errorf("%w: oracle is not configured", ai.ErrOracleUnavailable)
	}

	e.logger.Debug("keyword extraction request",
		zap.String("kind", kind),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", textutil.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.oracle.Complete(ctx, system, prompt)
	if err != nil {
		e.logger.Warn("keyword extraction oracle call failed", zap.String("kind", kind), zap.Error(err))
		return "", err
	}

	e.logger.Debug("keyword extraction response",
		zap.String("kind", kind),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", textutil.TruncateForLog(raw, e.maxLogLen)),
	)

	return raw, nil
}

func parseTaxonomy(raw string) (*Taxonomy, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, ai.NewError(ai.KindEmptyResponse, "oracle returned empty response", nil)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, ai.NewError(ai.KindMalformedJSON, "invalid JSON format from oracle", err)
	}

	taxonomy := emptyTaxonomy()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           taxonomy,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, ai.NewError(ai.KindMalformedJSON, "build taxonomy decoder", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, ai.NewError(ai.KindMalformedJSON, "unexpected taxonomy shape", err)
	}

	if taxonomy.Groups == nil {
		taxonomy.Groups = []Group{}
	}
	if taxonomy.Exclude == nil {
		taxonomy.Exclude = []string{}
	}

	return taxonomy, nil
}

func parseRanked(raw string) ([]string, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, ai.NewError(ai.KindEmptyResponse, "oracle returned empty response", nil)
	}

	var items []string
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, ai.NewError(ai.KindMalformedList, "keyword list is not a JSON array of strings", err)
	}

	ranked := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			ranked = append(ranked, item)
		}
	}

	if len(ranked) == 0 {
		return nil, ai.NewError(ai.KindMalformedList, "keyword list is empty", nil)
	}

	return ranked, nil
}

// extractJSON strips markdown code fences the oracle tends to add around JSON.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func emptyTaxonomy() *Taxonomy {
	return &Taxonomy{Groups: []Group{}, Exclude: []string{}}
}
