package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/keywords"
)

// Filter represents a single refinement step applied to an extracted taxonomy.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, jd string, t *keywords.Taxonomy) (*keywords.Taxonomy, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains settings consumed by the default steps.
type Config struct {
	MaxGroups          int
	MaxTermsPerGroup   int
	VerbatimExclusions bool
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Filtering runs steps in order. It implements keywords.Refiner.
type Filtering struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, logger *zap.Logger) *Filtering {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filtering{steps: steps, logger: logger}
}

// Default returns the standard refinement steps in the order they must run.
func Default(cfg Config) []Filter {
	maxGroups := cfg.MaxGroups
	if maxGroups <= 0 {
		maxGroups = keywords.MaxGroups
	}
	maxTerms := cfg.MaxTermsPerGroup
	if maxTerms <= 0 {
		maxTerms = keywords.MaxTermsPerGroup
	}

	verbatim := NewVerbatimExclusions()
	if !cfg.VerbatimExclusions {
		verbatim.Disable("disabled by configuration")
	}

	return []Filter{
		NewBlankTerms(),
		NewGroupSize(maxTerms),
		NewGroupCount(maxGroups),
		verbatim,
	}
}

// Refine applies every enabled step to a copy of t and returns the result.
func (f *Filtering) Refine(ctx context.Context, jd string, t *keywords.Taxonomy) *keywords.Taxonomy {
	current := t.Clone()

	for _, step := range f.steps {
		if !step.IsEnabled() {
			f.logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info := step.Apply(ctx, jd, current)
		current = next

		if info.Dropped > 0 {
			f.logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}
	}

	return current
}

// Steps returns the configured steps.
func (f *Filtering) Steps() []Filter {
	return f.steps
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

func countTerms(t *keywords.Taxonomy) int {
	n := 0
	for _, g := range t.Groups {
		n += len(g)
	}
	return n
}
