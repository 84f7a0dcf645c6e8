// Package intent classifies user utterances. A pluggable Scorer produces a
// per-intent similarity vector; the Resolver layers stage-aware boosting and
// rule overrides on top, because short loan-domain phrases ("yes", "lower
// it") are ambiguous without conversational context.
package intent

import (
	"context"
	"strings"

	"credgen/internal/domain"
)

// Scorer scores raw text against every known intent. Implementations must be
// pure: identical text yields identical scores, which is what makes the
// resolver's cache sound.
type Scorer interface {
	Score(ctx context.Context, text string) (map[domain.Intent]float64, error)
}

// intentTemplates holds example phrasings per intent. The lexical scorer
// compares token overlap against these.
var intentTemplates = map[domain.Intent][]string{
	domain.IntentGreeting: {
		"hello", "hi there", "good morning", "hey", "namaste",
	},
	domain.IntentLoanApplication: {
		"i need a loan", "i want to apply for a loan",
		"can i borrow money", "give me a loan",
	},
	domain.IntentProvideInfo: {
		"my name is", "my income is", "my salary is",
		"i am years old", "my loan amount is",
	},
	domain.IntentRateInquiry: {
		"what is the interest rate", "how much interest will i pay",
		"tell me about the rates",
	},
	domain.IntentNegotiateTerms: {
		"can you reduce the rate", "i want a better offer",
		"lower the interest",
	},
	domain.IntentAcceptOffer: {
		"i accept the offer", "yes i agree", "proceed with the loan",
	},
	domain.IntentRejectOffer: {
		"i reject this offer", "no thanks", "not interested",
	},
	domain.IntentHelpGeneral: {
		"i need help", "how does this work", "explain the process",
	},
	domain.IntentExit: {
		"goodbye", "exit", "stop", "end chat",
	},
}

// intentKeywords are single-token triggers, weaker evidence than a template
// match but enough to classify terse replies.
var intentKeywords = map[domain.Intent][]string{
	domain.IntentGreeting:        {"hi", "hello", "hey", "namaste"},
	domain.IntentLoanApplication: {"loan", "borrow", "apply", "credit"},
	domain.IntentRateInquiry:     {"interest", "rate", "percentage", "roi", "apr"},
	domain.IntentNegotiateTerms:  {"reduce", "lower", "discount", "negotiate", "cheaper"},
	domain.IntentAcceptOffer:     {"accept", "yes", "proceed", "ok", "okay", "agree", "confirm", "sure"},
	domain.IntentRejectOffer:     {"reject", "no", "cancel", "decline"},
	domain.IntentHelpGeneral:     {"help", "how", "what", "explain", "process"},
	domain.IntentExit:            {"bye", "goodbye", "exit", "quit", "stop", "end"},
}

const keywordScore = 0.75

// LexicalScorer is the default in-process scorer: token-overlap similarity
// against the intent templates, with a keyword floor for one-word replies.
// It stands in for an external embedding service and never fails.
type LexicalScorer struct{}

// NewLexicalScorer creates the default scorer.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{}
}

// Score computes a similarity per intent in [0,1].
func (*LexicalScorer) Score(_ context.Context, text string) (map[domain.Intent]float64, error) {
	tokens := tokenSet(text)
	scores := make(map[domain.Intent]float64, len(domain.Intents))
	for _, it := range domain.Intents {
		scores[it] = scoreIntent(it, tokens)
	}
	return scores, nil
}

func scoreIntent(it domain.Intent, tokens map[string]struct{}) float64 {
	var best float64
	for _, template := range intentTemplates[it] {
		if s := overlap(tokens, tokenSet(template)); s > best {
			best = s
		}
	}
	for _, keyword := range intentKeywords[it] {
		if _, ok := tokens[keyword]; ok && keywordScore > best {
			best = keywordScore
		}
	}
	return best
}

// overlap is the shared-token fraction relative to the larger phrase, so a
// three-word reply does not score highly against a one-word template it
// merely contains.
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for token := range a {
		if _, ok := b[token]; ok {
			shared++
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}

// stopTokens are function words ignored during scoring; they would otherwise
// make unrelated sentences look similar. No intent keyword may appear here.
var stopTokens = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "i": {}, "am": {},
	"my": {}, "me": {}, "to": {}, "of": {}, "for": {}, "and": {}, "it": {},
	"this": {}, "that": {}, "with": {}, "will": {},
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(text) {
		if _, stop := stopTokens[token]; stop {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}
