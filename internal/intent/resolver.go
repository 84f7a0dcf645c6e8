package intent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"credgen/internal/domain"
)

// EntityProbe is the slice of the entity extractor the resolver needs for
// its low-confidence fallback.
type EntityProbe interface {
	Extract(text string) map[string]domain.Value
}

// stageBoosts up-weights contextually likely intents. In the offer stage a
// bare "yes" must win over greeting-flavored similarity noise.
var stageBoosts = map[domain.Stage]map[domain.Intent]float64{
	domain.StageOffer: {
		domain.IntentAcceptOffer:    1.3,
		domain.IntentRejectOffer:    1.3,
		domain.IntentNegotiateTerms: 1.2,
	},
	domain.StageRejectionCounseling: {
		domain.IntentAcceptOffer:    1.3,
		domain.IntentRejectOffer:    1.3,
		domain.IntentNegotiateTerms: 1.2,
	},
}

var (
	exitPattern     = regexp.MustCompile(`\b(?:bye|goodbye|exit|quit)\b|\b(?:stop|end)\s+(?:chat|this|it|now)\b`)
	ratePattern     = regexp.MustCompile(`\b(?:interest|rate|rates|roi|apr|percentage)\b`)
	questionPattern = regexp.MustCompile(`^(?:how|what|why|when|can you explain|explain|help)\b|\?$`)
)

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver turns (text, stage) into an intent and a confidence. Resolution
// is deterministic for identical inputs and identical scorer output.
type Resolver struct {
	scorer    Scorer
	probe     EntityProbe
	threshold float64
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]map[domain.Intent]float64
}

// NewResolver creates a resolver. threshold is the confidence below which
// the entity-extraction fallback kicks in.
func NewResolver(scorer Scorer, probe EntityProbe, threshold float64, opts ...Option) *Resolver {
	r := &Resolver{
		scorer:    scorer,
		probe:     probe,
		threshold: threshold,
		logger:    slog.Default(),
		cache:     make(map[string]map[domain.Intent]float64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies text in the context of the current stage.
func (r *Resolver) Resolve(ctx context.Context, text string, stage domain.Stage) (domain.Intent, float64) {
	normalized := normalize(text)
	if normalized == "" {
		return domain.IntentUnclear, 0
	}

	scores := r.scoredWithCache(ctx, normalized)

	// Boosting is applied per call and never cached: the same text boosts
	// differently in different stages.
	for it, factor := range stageBoosts[stage] {
		if s, ok := scores[it]; ok {
			scores[it] = min(s*factor, 1.0)
		}
	}

	best, confidence := argmax(scores)

	// Rule overrides, in precedence order. Statistics miss short templated
	// phrases; rules catch them.
	if exitPattern.MatchString(normalized) {
		return domain.IntentExit, 0.95
	}
	if questionPattern.MatchString(normalized) {
		if ratePattern.MatchString(normalized) {
			return domain.IntentRateInquiry, max(confidence, 0.8)
		}
		return domain.IntentHelpGeneral, max(confidence, 0.7)
	}
	if confidence < r.threshold {
		if entities := r.probe.Extract(text); len(entities) > 0 {
			// Weak similarity but concrete data: the user is feeding the
			// application, not chatting.
			if stage == domain.StageGreeting {
				return domain.IntentLoanApplication, 0.7
			}
			return domain.IntentProvideInfo, 0.7
		}
		return domain.IntentUnclear, confidence
	}

	return best, confidence
}

// scoredWithCache returns a mutable copy of the stage-independent score
// vector for normalized text, consulting the scorer at most once per
// distinct input. Scorer failure degrades to keyword-only scoring and is
// never visible to the caller.
func (r *Resolver) scoredWithCache(ctx context.Context, normalized string) map[domain.Intent]float64 {
	r.mu.RLock()
	cached, ok := r.cache[normalized]
	r.mu.RUnlock()
	if ok {
		return cloneScores(cached)
	}

	scores, err := r.scorer.Score(ctx, normalized)
	if err != nil {
		r.logger.Warn("intent scorer failed, falling back to keyword rules",
			slog.String("error", err.Error()))
		return keywordOnlyScores(normalized)
	}

	r.mu.Lock()
	r.cache[normalized] = scores
	r.mu.Unlock()
	return cloneScores(scores)
}

// keywordOnlyScores is the rule-only fallback used when the scorer errors.
// Failures are not cached so a recovered scorer is used again.
func keywordOnlyScores(normalized string) map[domain.Intent]float64 {
	tokens := tokenSet(normalized)
	scores := make(map[domain.Intent]float64, len(domain.Intents))
	for it, keywords := range intentKeywords {
		for _, keyword := range keywords {
			if _, ok := tokens[keyword]; ok {
				scores[it] = keywordScore
				break
			}
		}
	}
	return scores
}

// argmax picks the best-scoring intent, iterating the closed intent list so
// ties break deterministically.
func argmax(scores map[domain.Intent]float64) (domain.Intent, float64) {
	best := domain.IntentUnclear
	var bestScore float64
	for _, it := range domain.Intents {
		if s, ok := scores[it]; ok && s > bestScore {
			best, bestScore = it, s
		}
	}
	return best, bestScore
}

func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '?':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func cloneScores(scores map[domain.Intent]float64) map[domain.Intent]float64 {
	out := make(map[domain.Intent]float64, len(scores))
	for it, s := range scores {
		out[it] = s
	}
	return out
}
