package classify

import (
	"regexp"
	"strings"
)

// Analysis is an advisory summary of input text. It feeds the prompt
// builder as extra context and is never persisted.
type Analysis struct {
	ContentType    string   `json:"content_type"` // general, social_media, academic, business, technical, news
	Complexity     string   `json:"complexity"`   // low, medium, high
	Names          []string `json:"names"`
	Numbers        []string `json:"numbers"`
	TechnicalTerms []string `json:"technical_terms"`
	MainPoints     []string `json:"main_points"`
}

// threadIndicators are the patterns counted by IsThreadLike. Numbered
// post markers ("1/5"), mentions, hashtags, the thread emoji, and the
// literal word "thread".
var threadIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+/\d+\b`),
	regexp.MustCompile(`@\w+`),
	regexp.MustCompile(`#\w+`),
	regexp.MustCompile(`🧵`),
	regexp.MustCompile(`(?i)\bthread\b`),
}

var threadURLPattern = regexp.MustCompile(`https?://(?:www\.)?(?:x\.com|twitter\.com)/[^/\s]+/status/\d+`)

// IsThreadLike reports whether text looks like social thread content,
// based on the total count of indicator matches. More than 2 matches
// classifies as thread-like. This is a heuristic with no weighting;
// false positives and negatives are an accepted trade-off.
func IsThreadLike(text string) bool {
	count := 0
	for _, pattern := range threadIndicators {
		count += len(pattern.FindAllString(text, -1))
	}
	return count > 2
}

// ExtractThreadURLs returns every embeddable thread URL found in text,
// in first-occurrence order, duplicates preserved.
func ExtractThreadURLs(text string) []string {
	return threadURLPattern.FindAllString(text, -1)
}

var (
	namePattern   = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)?\b`)
	numberPattern = regexp.MustCompile(`\$?\d[\d,]*(?:\.\d+)?%?`)

	academicPattern  = regexp.MustCompile(`(?i)\b(study|research|hypothesis|methodology|peer.review|findings|abstract|thesis)\b`)
	businessPattern  = regexp.MustCompile(`(?i)\b(revenue|profit|quarterly|earnings|market share|acquisition|stakeholder|ROI)\b`)
	technicalPattern = regexp.MustCompile(`(?i)\b(API|algorithm|database|deployment|protocol|framework|backend|compiler|kubernetes)\b`)
	newsPattern      = regexp.MustCompile(`(?i)\b(breaking|reported|according to|announced|officials|sources say)\b`)

	sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)
)

// technicalTerms is a small fixed lexicon; matches are reported to the
// prompt builder so the model preserves them verbatim.
var technicalTerms = []string{
	"API", "AI", "ML", "LLM", "blockchain", "crypto", "DeFi", "NFT",
	"smart contract", "protocol", "algorithm", "token", "staking",
	"database", "framework", "open source", "encryption",
}

// sentence markers that suggest a main point
var mainPointPattern = regexp.MustCompile(`(?i)\b(key|important|main|takeaway|in short|bottom line|tl;?dr|conclusion)\b`)

// Analyze derives an advisory Analysis from raw input text.
func Analyze(text string) *Analysis {
	a := &Analysis{
		ContentType: detectContentType(text),
		Complexity:  detectComplexity(text),
	}

	a.Names = dedupe(namePattern.FindAllString(text, 10))
	a.Numbers = dedupe(numberPattern.FindAllString(text, 10))

	lower := strings.ToLower(text)
	for _, term := range technicalTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			a.TechnicalTerms = append(a.TechnicalTerms, term)
		}
	}

	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if mainPointPattern.MatchString(sentence) && len(a.MainPoints) < 3 {
			a.MainPoints = append(a.MainPoints, sentence)
		}
	}

	return a
}

func detectContentType(text string) string {
	if IsThreadLike(text) {
		return "social_media"
	}
	switch {
	case academicPattern.MatchString(text):
		return "academic"
	case businessPattern.MatchString(text):
		return "business"
	case technicalPattern.MatchString(text):
		return "technical"
	case newsPattern.MatchString(text):
		return "news"
	default:
		return "general"
	}
}

func detectComplexity(text string) string {
	sentences := sentenceSplit.Split(text, -1)
	words := strings.Fields(text)
	if len(sentences) == 0 || len(words) == 0 {
		return "low"
	}
	avgWords := len(words) / len(sentences)
	switch {
	case avgWords > 25:
		return "high"
	case avgWords > 12:
		return "medium"
	default:
		return "low"
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
