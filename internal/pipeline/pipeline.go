// Package pipeline implements the ten-step underwriting pipeline that turns
// a raw broker email into a complete insurance quote.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/llm"
	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/retrieval"
	"github.com/sells-group/underwriting-cli/internal/store"
)

// Version is stamped onto every generated quote.
const Version = "1.0.0"

// StepStatus is reported through the progress callback as each step moves
// through its lifecycle.
type StepStatus string

const (
	StepRunning  StepStatus = "running"
	StepComplete StepStatus = "complete"
	StepFailed   StepStatus = "failed"
)

// ProgressFunc receives step lifecycle updates: the 1-based step number, its
// display name, and the new status.
type ProgressFunc func(step int, name string, status StepStatus)

// Pipeline orchestrates the ten underwriting steps in strict order.
type Pipeline struct {
	gen       llm.Generator
	search    retrieval.Searcher
	store     store.Store
	topK      int
	validDays int
	timeout   time.Duration
	progress  ProgressFunc
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore enables persisting successful results.
func WithStore(st store.Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithTopK sets how many reference documents each retrieval step uses.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithQuoteValidDays sets the validity window stamped on generated quotes.
func WithQuoteValidDays(days int) Option {
	return func(p *Pipeline) {
		if days > 0 {
			p.validDays = days
		}
	}
}

// WithTimeout bounds a whole pipeline run. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithClock overrides the time source, used by tests for deterministic
// timestamps and quote dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline around the given model generator and document
// searcher.
func New(gen llm.Generator, search retrieval.Searcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:       gen,
		search:    search,
		topK:      5,
		validDays: 30,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) report(step int, name string, status StepStatus) {
	if p.progress != nil {
		p.progress(step, name, status)
	}
}

// Process runs an email through all ten steps. It never returns an error:
// a stage failure produces a partial result with Success=false and the
// failure recorded in Errors. Successful results are persisted when a store
// is configured.
func (p *Pipeline) Process(ctx context.Context, emailContent string) *model.PipelineResult {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	log := zap.L()
	log.Info("pipeline: starting underwriting run")

	// Per-run counting wrappers so metrics never bleed across runs.
	gen := &llm.CountingGenerator{Inner: p.gen}
	search := &retrieval.CountingSearcher{Inner: p.search}

	parser := NewEmailParser(gen)
	classifier := NewClassifier(gen, search, p.topK)
	rateDiscovery := NewRateDiscovery(gen, search, p.topK)
	revenueEstimator := NewRevenueEstimator()
	premiumCalculator := NewPremiumCalculator()
	modifierEngine := NewModifierEngine(gen, search, p.topK)
	coverageAnalyst := NewCoverageAnalyst(gen, search, p.topK)
	riskAssessor := NewRiskAssessor(gen, search, p.topK)
	quoteGenerator := NewQuoteGenerator(gen, p.validDays)

	start := p.now()
	durations := make(map[string]float64, 10)
	result := &model.PipelineResult{}

	runStep := func(num int, key, name string, fn func(context.Context) error) bool {
		p.report(num, name, StepRunning)
		stepStart := time.Now()
		err := fn(ctx)
		durations[key] = round2(time.Since(stepStart).Seconds())

		if err != nil {
			p.report(num, name, StepFailed)
			log.Error("pipeline: step failed",
				zap.Int("step", num),
				zap.String("name", name),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, err.Error())
			return false
		}

		p.report(num, name, StepComplete)
		log.Info("pipeline: step complete",
			zap.Int("step", num),
			zap.String("name", name),
			zap.Float64("duration_s", durations[key]),
		)
		return true
	}

	var (
		profile   *model.ClientProfile
		industry  *model.IndustryClassification
		rates     []model.RateInfo
		estimate  *model.RevenueEstimate
		calc      *model.PremiumCalculation
		mods      *model.ModifierResult
		authority *model.AuthorityCheck
		coverage  *model.CoverageAnalysis
		risk      *model.RiskAssessment
		quote     *model.GeneratedQuote
	)

	steps := []struct {
		num  int
		key  string
		name string
		fn   func(context.Context) error
	}{
		{1, "email_parser", "Email Parser", func(ctx context.Context) error {
			var err error
			profile, err = parser.Parse(ctx, emailContent)
			if err != nil {
				return err
			}
			result.ClientProfile = profile
			return nil
		}},
		{2, "industry_classifier", "Industry Classifier", func(ctx context.Context) error {
			var err error
			industry, err = classifier.Classify(ctx, profile)
			if err != nil {
				return err
			}
			result.IndustryClassification = industry
			return nil
		}},
		{3, "rate_discovery", "Rate Discovery", func(ctx context.Context) error {
			var err error
			rates, err = rateDiscovery.Discover(ctx, profile, industry)
			if err != nil {
				return err
			}
			result.RateInfo = rates
			return nil
		}},
		{4, "revenue_estimation", "Revenue Estimation", func(context.Context) error {
			estimate = revenueEstimator.Estimate(profile, industry)
			result.RevenueEstimate = estimate
			if estimate != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Revenue estimated at %s - requires verification", dollars(estimate.EstimatedRevenue)))
			}
			return nil
		}},
		{5, "premium_calculation", "Premium Calculation", func(context.Context) error {
			calc = premiumCalculator.Calculate(profile, rates, estimate, p.now())
			result.PremiumCalculation = calc
			return nil
		}},
		{6, "modifiers", "Modifiers", func(ctx context.Context) error {
			var err error
			mods, err = modifierEngine.Apply(ctx, profile, industry, calc)
			if err != nil {
				return err
			}
			result.ModifierResult = mods
			return nil
		}},
		{7, "authority_check", "Authority Check", func(context.Context) error {
			authority = CheckAuthority(profile, industry, mods)
			result.AuthorityCheck = authority
			if authority.RequiresApproval {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Requires %s approval", authority.ApproverRole))
			}
			return nil
		}},
		{8, "coverage_analysis", "Coverage Analysis", func(ctx context.Context) error {
			var err error
			coverage, err = coverageAnalyst.Analyze(ctx, profile, industry)
			if err != nil {
				return err
			}
			result.CoverageAnalysis = coverage
			return nil
		}},
		{9, "risk_assessment", "Risk Assessment", func(ctx context.Context) error {
			var err error
			risk, err = riskAssessor.Assess(ctx, profile, industry, mods)
			if err != nil {
				return err
			}
			result.RiskAssessment = risk
			return nil
		}},
		{10, "quote_generation", "Quote Generation", func(ctx context.Context) error {
			var err error
			quote, err = quoteGenerator.Generate(ctx, QuoteInput{
				Profile:   profile,
				Premium:   calc,
				Modifiers: mods,
				Coverage:  coverage,
				Risk:      risk,
				Authority: authority,
			}, p.now())
			if err != nil {
				return err
			}
			result.GeneratedQuote = quote
			result.QuoteID = quote.QuoteID
			return nil
		}},
	}

	completed := true
	for _, step := range steps {
		if !runStep(step.num, step.key, step.name, step.fn) {
			completed = false
			break
		}
	}
	result.Success = completed

	result.Metrics = &model.PipelineMetrics{
		TotalDurationSeconds: round2(p.now().Sub(start).Seconds()),
		StepDurations:        durations,
		LLMCalls:             int(gen.Calls()),
		VectorSearches:       int(search.Searches()),
		DocumentsRetrieved:   int(search.Retrieved()),
	}

	if result.Success && p.store != nil {
		if _, err := p.store.SaveResult(context.WithoutCancel(ctx), result); err != nil {
			log.Warn("pipeline: failed to save quote result",
				zap.String("quote_id", result.QuoteID),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: quote saved", zap.String("quote_id", result.QuoteID))
		}
	}

	if result.Success {
		log.Info("pipeline: run complete",
			zap.String("quote_id", result.QuoteID),
			zap.Float64("total_premium", mods.AdjustedPremium),
			zap.Float64("duration_s", result.Metrics.TotalDurationSeconds),
		)
	}

	return result
}
