// Package fraud scores applicant integrity from three independent signals:
// name consistency across supplied documents, age plausibility from the date
// of birth, and declared-income plausibility. It is a pure rule engine: it
// always produces a score, degrading missing inputs to their worst case
// instead of erroring.
package fraud

import (
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"credgen/internal/domain"
)

// Date layouts accepted for the date of birth.
var dobLayouts = []string{"2006-01-02", "02-01-2006"}

// Thresholds for the individual signals.
const (
	minPairwiseSimilarity = 0.8
	minPlausibleAge       = 18
	maxPlausibleAge       = 80
	borderlineYoungAge    = 21
	borderlineOldAge      = 60
	minPlausibleIncome    = 10_000.0
	maxPlausibleIncome    = 10_000_000.0
)

// Input is the entity subset the fraud engine consumes.
type Input struct {
	// Names holds the applicant name as it appears across documents.
	Names []string
	// DateOfBirth is the raw DOB string; empty means not supplied.
	DateOfBirth string
	// DeclaredIncome is nil when the applicant never declared an income.
	DeclaredIncome *float64
}

// Engine evaluates fraud signals. The clock is injectable so age scoring is
// deterministic under test.
type Engine struct {
	now func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the evaluation clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New constructs a fraud engine.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate produces the composite fraud result. The composite is the mean of
// the three component scores; the flag is the worst component flag. No
// single component vetoes here -- acceptance thresholds belong to the
// orchestrator.
func (e *Engine) Evaluate(in Input) domain.FraudResult {
	nameScore, nameFlag := e.nameScore(in.Names)
	ageScore := e.ageScore(in.DateOfBirth)
	incomeScore, incomeFlag := e.incomeScore(in.DeclaredIncome)

	flag := nameFlag.Worse(incomeFlag).Worse(ageFlag(ageScore))

	return domain.FraudResult{
		Components: domain.FraudComponents{
			Name:   nameScore,
			Age:    ageScore,
			Income: incomeScore,
		},
		Composite: (nameScore + ageScore + incomeScore) / 3,
		Flag:      flag,
	}
}

// nameScore compares every pair of supplied name variants. Fewer than two
// usable variants carries no signal and scores 1.0. The flag follows the
// worst pair, not the average: one badly mismatched document is
// disqualifying even when the others agree.
func (e *Engine) nameScore(names []string) (float64, domain.FraudFlag) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) < 2 {
		return 1.0, domain.FraudFlagLow
	}

	sum, minSim := 0.0, 1.0
	pairs := 0
	for i := 0; i < len(cleaned); i++ {
		for j := i + 1; j < len(cleaned); j++ {
			sim := tokenSetSimilarity(cleaned[i], cleaned[j])
			sum += sim
			if sim < minSim {
				minSim = sim
			}
			pairs++
		}
	}

	flag := domain.FraudFlagLow
	if minSim < minPairwiseSimilarity {
		flag = domain.FraudFlagHigh
	}
	return sum / float64(pairs), flag
}

// ageScore parses the DOB and grades the implied age: 0 outside [18,80],
// 0.5 in the borderline bands [18,21] and [60,80], 1 otherwise. Missing or
// unparsable input is worst-cased to 0.
func (e *Engine) ageScore(dob string) float64 {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return 0
	}

	var birth time.Time
	var err error
	for _, layout := range dobLayouts {
		if birth, err = time.Parse(layout, dob); err == nil {
			break
		}
	}
	if err != nil {
		return 0
	}

	age := ageAt(birth, e.now())
	switch {
	case age < minPlausibleAge || age > maxPlausibleAge:
		return 0
	case age <= borderlineYoungAge || age >= borderlineOldAge:
		return 0.5
	default:
		return 1
	}
}

func (e *Engine) incomeScore(income *float64) (float64, domain.FraudFlag) {
	if income == nil || *income <= 0 {
		return 0, domain.FraudFlagHigh
	}
	if *income < minPlausibleIncome || *income > maxPlausibleIncome {
		return 0.3, domain.FraudFlagMedium
	}
	return 1, domain.FraudFlagLow
}

func ageFlag(score float64) domain.FraudFlag {
	switch score {
	case 0:
		return domain.FraudFlagHigh
	case 0.5:
		return domain.FraudFlagMedium
	default:
		return domain.FraudFlagLow
	}
}

func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// tokenSetSimilarity is a token-set ratio: word order and duplicated tokens
// do not count against the match, so "riya sharma" and "sharma riya" score
// 1.0. The residual comparison uses normalized Levenshtein similarity.
func tokenSetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var common, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	// One side fully contained in the other is a perfect set match.
	if len(onlyA) == 0 || len(onlyB) == 0 {
		if len(common) > 0 {
			return 1.0
		}
	}

	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	full := func(extra []string) string {
		if base == "" {
			return strings.Join(extra, " ")
		}
		if len(extra) == 0 {
			return base
		}
		return base + " " + strings.Join(extra, " ")
	}

	sab := levenshteinSimilarity(full(onlyA), full(onlyB))
	sa := levenshteinSimilarity(base, full(onlyA))
	sb := levenshteinSimilarity(base, full(onlyB))

	return max(sab, max(sa, sb))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func levenshteinSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
