// Package extraction pulls structured applicant fields out of free-form chat
// text with field-specific patterns. Extraction is deliberately conservative:
// a value only enters the result when it matches a field pattern AND passes
// the schema validator, so garbage never reaches session state.
package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"credgen/internal/domain"
	"credgen/internal/fields"
)

// Extractor extracts applicant entities from raw user text.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

var (
	currencyAmountPattern = regexp.MustCompile(`(?i)(?:\x{20b9}|rs\.?|inr)\s*(\d[\d,]*(?:\.\d+)?)\s*(lakhs?|lacs?|crores?|k)?`)
	unitAmountPattern     = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*(lakhs?|lacs?|crores?)\b`)
	contextAmountPattern  = regexp.MustCompile(`(?i)\b(?:loan(?:\s+amount)?|borrow|amount)\b\D{0,16}?(\d[\d,]*(?:\.\d+)?)\b`)

	incomePattern = regexp.MustCompile(`(?i)\b(?:income|salary|earn(?:ing)?s?|ctc)\b\D{0,16}?(\d[\d,]*(?:\.\d+)?)\s*(lakhs?|lacs?|crores?|k)?\s*(per\s+month|monthly|per\s+annum|per\s+year|annually|yearly)?`)

	tenurePattern = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(months?|mos?|years?|yrs?)\b(\s*old)?`)

	ageKeywordPattern = regexp.MustCompile(`(?i)\bage\D{0,6}?(\d{1,3})\b`)
	ageYearsPattern   = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:years?|yrs?)\s*old\b`)
	ageSelfPattern    = regexp.MustCompile(`(?i)\bi\s*(?:am|'m)\s+(\d{1,3})\b`)

	namePattern     = regexp.MustCompile(`(?i)\b(?:my name is|name\s*[:\-])\s*([a-z]+(?:\s+[a-z]+){0,3})`)
	nameSelfPattern = regexp.MustCompile(`(?i)\b(?:i am|i'm|this is)\s+([a-z]{2,}(?:\s+[a-z]{2,}){0,3})\b`)

	panPattern     = regexp.MustCompile(`(?i)\b([a-z]{5}\d{4}[a-z])\b`)
	aadhaarPattern = regexp.MustCompile(`\b(\d{4})[ -]?(\d{4})[ -]?(\d{4})\b`)
	pincodePattern = regexp.MustCompile(`(?i)\b(?:pin\s*code|pincode|pin|zip)\D{0,6}?([1-9]\d{5})\b`)
	barePincode    = regexp.MustCompile(`\b([1-9]\d{5})\b`)
	addressPattern = regexp.MustCompile(`(?i)\baddress\s*[:\s]\s*(.+?)(?:\.|$)`)
	dobPattern     = regexp.MustCompile(`(?i)\b(?:dob|date of birth|born(?:\s+on)?)\D{0,8}?(\d{4}-\d{2}-\d{2}|\d{2}[-/]\d{2}[-/]\d{4})\b`)
	isoDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

	purposePatterns = []struct {
		pattern   *regexp.Regexp
		canonical string
	}{
		{regexp.MustCompile(`(?i)\b(?:home|house|flat|apartment)\b`), "home"},
		{regexp.MustCompile(`(?i)\b(?:car|vehicle|bike|auto)\b`), "vehicle"},
		{regexp.MustCompile(`(?i)\b(?:education|study|studies|college|university|tuition)\b`), "education"},
		{regexp.MustCompile(`(?i)\b(?:wedding|marriage)\b`), "wedding"},
		{regexp.MustCompile(`(?i)\b(?:medical|hospital|surgery|treatment)\b`), "medical"},
		{regexp.MustCompile(`(?i)\b(?:travel|vacation|trip|holiday)\b`), "travel"},
		{regexp.MustCompile(`(?i)\b(?:renovation|repair)\b`), "renovation"},
		{regexp.MustCompile(`(?i)\bbusiness\b`), "business"},
		{regexp.MustCompile(`(?i)\bpersonal\b`), "personal"},
	}

	employmentPatterns = []struct {
		pattern   *regexp.Regexp
		canonical string
	}{
		{regexp.MustCompile(`(?i)\bsalaried\b`), "salaried"},
		{regexp.MustCompile(`(?i)\bself[- ]employed\b`), "self-employed"},
		{regexp.MustCompile(`(?i)\bfreelan(?:ce|cer)\b`), "self-employed"},
		{regexp.MustCompile(`(?i)\bbusiness(?:\s*(?:man|woman|owner))?\b`), "business"},
		{regexp.MustCompile(`(?i)\bstudent\b`), "student"},
		{regexp.MustCompile(`(?i)\bretired\b`), "retired"},
		{regexp.MustCompile(`(?i)\bunemployed\b`), "unemployed"},
	}

	// Words that follow "I am ..." without being a name.
	nameStopwords = map[string]struct{}{
		"salaried": {}, "self": {}, "employed": {}, "unemployed": {},
		"retired": {}, "student": {}, "looking": {}, "interested": {},
		"applying": {}, "here": {}, "not": {}, "sorry": {}, "ready": {},
		"done": {}, "years": {}, "year": {}, "old": {},
	}
)

// Extract returns every field the text yields. Absent keys mean the text
// said nothing valid about that field.
func (x *Extractor) Extract(text string) map[string]domain.Value {
	out := make(map[string]domain.Value)

	// An income statement like "salary of 6 lakhs" must not double as a
	// loan amount, so the income match span is excluded from amount
	// extraction.
	incomeSpan := incomePattern.FindStringIndex(text)

	if amount, ok := extractAmount(text, incomeSpan); ok && fields.ValidAmount(amount) {
		out[fields.LoanAmount] = domain.NumberValue(amount)
	}
	if tenure, ok := extractTenure(text); ok && fields.ValidTenure(tenure) {
		out[fields.TenureMonths] = domain.NumberValue(float64(tenure))
	}
	if age, ok := extractAge(text); ok && fields.ValidAge(age) {
		out[fields.Age] = domain.NumberValue(float64(age))
	}
	if income, ok := extractIncome(text); ok && income > 0 {
		out[fields.Income] = domain.NumberValue(income)
	}
	if name, ok := extractName(text); ok {
		out[fields.Name] = domain.TextValue(name)
	}
	if employment, ok := matchFirst(text, employmentPatterns); ok {
		out[fields.EmploymentType] = domain.TextValue(employment)
	}
	if purpose, ok := matchFirst(text, purposePatterns); ok {
		out[fields.Purpose] = domain.TextValue(purpose)
	}
	if m := panPattern.FindStringSubmatch(text); m != nil {
		pan := strings.ToUpper(m[1])
		if fields.ValidPAN(pan) {
			out[fields.PAN] = domain.TextValue(pan)
		}
	}
	if m := aadhaarPattern.FindStringSubmatch(text); m != nil {
		aadhaar := m[1] + m[2] + m[3]
		if fields.ValidAadhaar(aadhaar) {
			out[fields.Aadhaar] = domain.TextValue(aadhaar)
		}
	}
	if pin, ok := extractPincode(text); ok {
		out[fields.Pincode] = domain.TextValue(pin)
	}
	if m := addressPattern.FindStringSubmatch(text); m != nil {
		if addr := strings.TrimSpace(m[1]); addr != "" {
			out[fields.Address] = domain.TextValue(addr)
		}
	}
	if dob, ok := extractDOB(text); ok {
		out[fields.DateOfBirth] = domain.TextValue(dob)
	}

	return out
}

func extractAmount(text string, exclude []int) (float64, bool) {
	for _, p := range []*regexp.Regexp{currencyAmountPattern, unitAmountPattern, contextAmountPattern} {
		for _, idx := range p.FindAllStringSubmatchIndex(text, -1) {
			if exclude != nil && idx[0] < exclude[1] && idx[1] > exclude[0] {
				continue
			}
			raw := text[idx[2]:idx[3]]
			unit := ""
			if len(idx) >= 6 && idx[4] >= 0 {
				unit = text[idx[4]:idx[5]]
			}
			return parseNumber(raw, unit)
		}
	}
	return 0, false
}

func extractIncome(text string) (float64, bool) {
	m := incomePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	income, ok := parseNumber(m[1], m[2])
	if !ok {
		return 0, false
	}
	// Monthly figures are annualized; income is stored per annum.
	period := strings.ToLower(m[3])
	if strings.Contains(period, "month") {
		income *= 12
	}
	return income, true
}

func extractTenure(text string) (int, bool) {
	for _, m := range tenurePattern.FindAllStringSubmatch(text, -1) {
		if m[3] != "" {
			// "30 years old" is an age, not a tenure.
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		unit := strings.ToLower(m[2])
		if strings.HasPrefix(unit, "y") {
			n *= 12
		}
		return n, true
	}
	return 0, false
}

func extractAge(text string) (int, bool) {
	for _, p := range []*regexp.Regexp{ageKeywordPattern, ageYearsPattern, ageSelfPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func extractName(text string) (string, bool) {
	m := namePattern.FindStringSubmatch(text)
	if m == nil {
		m = nameSelfPattern.FindStringSubmatch(text)
	}
	if m == nil {
		return "", false
	}
	tokens := strings.Fields(strings.ToLower(m[1]))
	for _, token := range tokens {
		if _, stop := nameStopwords[token]; stop {
			return "", false
		}
	}
	for i, token := range tokens {
		tokens[i] = strings.ToUpper(token[:1]) + token[1:]
	}
	return strings.Join(tokens, " "), true
}

func extractPincode(text string) (string, bool) {
	if m := pincodePattern.FindStringSubmatch(text); m != nil && fields.ValidPincode(m[1]) {
		return m[1], true
	}
	// A bare six-digit number only counts inside an address mention.
	if strings.Contains(strings.ToLower(text), "address") {
		if m := barePincode.FindStringSubmatch(text); m != nil && fields.ValidPincode(m[1]) {
			return m[1], true
		}
	}
	return "", false
}

func extractDOB(text string) (string, bool) {
	m := dobPattern.FindStringSubmatch(text)
	if m == nil {
		m = isoDatePattern.FindStringSubmatch(text)
	}
	if m == nil {
		return "", false
	}
	date := strings.ReplaceAll(m[1], "/", "-")
	for _, layout := range []string{"2006-01-02", "02-01-2006"} {
		if _, err := time.Parse(layout, date); err == nil {
			return date, true
		}
	}
	return "", false
}

func matchFirst(text string, patterns []struct {
	pattern   *regexp.Regexp
	canonical string
}) (string, bool) {
	for _, p := range patterns {
		if p.pattern.MatchString(text) {
			return p.canonical, true
		}
	}
	return "", false
}

func parseNumber(raw, unit string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(unit, "s"), "e")) {
	case "lakh", "lac":
		n *= 100_000
	case "cror", "crore":
		n *= 10_000_000
	case "k":
		n *= 1_000
	}
	return n, true
}
