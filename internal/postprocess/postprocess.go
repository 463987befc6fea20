package postprocess

import (
	"regexp"
	"strings"
	"unicode"
)

// FallbackMessage replaces output that came back too short or without
// any letters after cleaning.
const FallbackMessage = "Sorry, I couldn't produce a readable summary for that. Please try again."

const (
	minCleanedLength = 10
	minSentenceWords = 3
	// a first sentence at least this long is kept even without
	// recognizable subject/verb tokens
	reasonableFirstSentenceWords = 6
	truncateTrailingWords        = 2
)

var leadInPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is| are)(?: a| the| your)?(?: quick| brief| short)?(?: summary| breakdown| explanation| rundown| take)?(?: of[^:,.]*)?\s*[:,-]?\s*`),
	regexp.MustCompile(`(?i)^this is(?: a| the)?(?: summary| breakdown| explanation)(?: of[^:,.]*)?\s*[:,-]?\s*`),
	regexp.MustCompile(`(?i)^(?:sure|certainly|of course|absolutely|okay|ok)[,!.]?\s+`),
	regexp.MustCompile(`(?i)^(?:as requested|in summary|to summarize)[,:]?\s+`),
}

var (
	hedgePattern       = regexp.MustCompile(`(?i)\b(?:i think|i believe|i guess|maybe|perhaps|possibly|it seems(?: like)?|sort of|kind of)\b[,]?\s*`)
	doubledIntensifier = regexp.MustCompile(`(?i)\b(very|really|so|quite|super)\s+(?:very|really|so|quite|super)\b`)
	fillerPattern      = regexp.MustCompile(`(?i)\b(?:um|uh|erm|basically|honestly|literally)\b[,]?\s*`)
	trailingEllipsis   = regexp.MustCompile(`(?:\.{3,}|…)\s*$`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	missingSpaceAfter  = regexp.MustCompile(`([.!?,])([A-Za-z])`)
	camelBoundary      = regexp.MustCompile(`([a-z])([A-Z])`)
	leadingNonWord     = regexp.MustCompile(`^[^\p{L}\p{N}"']+`)
	letterPattern      = regexp.MustCompile(`\p{L}`)
)

// simpleSubstitutions maps formal words to plainer synonyms for the
// "simple" tone. Hand-picked and English-specific.
var simpleSubstitutions = map[string]string{
	"utilize":       "use",
	"demonstrate":   "show",
	"facilitate":    "help",
	"subsequently":  "later",
	"approximately": "about",
	"numerous":      "many",
	"additionally":  "also",
	"commence":      "start",
	"terminate":     "end",
	"endeavor":      "try",
}

// Clean normalizes raw LLM output: strips boilerplate lead-ins, hedging
// and filler, repairs spacing and casing, and applies tone-specific
// word substitutions. Falls back to a fixed message when the result is
// too short or contains no letters.
func Clean(raw, tone string) string {
	text := strings.TrimSpace(raw)

	for changed := true; changed; {
		changed = false
		for _, pattern := range leadInPatterns {
			if stripped := pattern.ReplaceAllString(text, ""); stripped != text {
				text = stripped
				changed = true
			}
		}
	}

	text = hedgePattern.ReplaceAllString(text, "")
	text = doubledIntensifier.ReplaceAllString(text, "$1")
	text = fillerPattern.ReplaceAllString(text, "")
	text = trailingEllipsis.ReplaceAllString(text, "")
	text = leadingNonWord.ReplaceAllString(text, "")

	text = missingSpaceAfter.ReplaceAllString(text, "$1 $2")
	text = camelBoundary.ReplaceAllString(text, "$1 $2")
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if tone == "simple" {
		text = applySubstitutions(text, simpleSubstitutions)
	}

	text = capitalizeFirst(text)

	if len(text) < minCleanedLength || !letterPattern.MatchString(text) {
		return FallbackMessage
	}
	return text
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)

// subjectWords and verbWords are coarse keyword lists, not
// part-of-speech tagging. Best-effort filter only.
var subjectWords = map[string]bool{
	"i": true, "you": true, "we": true, "they": true, "he": true,
	"she": true, "it": true, "this": true, "that": true, "these": true,
	"those": true, "there": true, "everyone": true, "people": true,
	"someone": true, "nothing": true, "everything": true,
}

var verbWords = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "has": true, "have": true, "had": true, "will": true,
	"would": true, "can": true, "could": true, "should": true,
	"do": true, "does": true, "did": true, "makes": true, "made": true,
	"gets": true, "getting": true, "got": true, "goes": true,
	"went": true, "says": true, "said": true, "shows": true,
	"means": true, "keeps": true, "looks": true, "seems": true,
	"works": true, "happened": true, "happens": true,
}

var trailingConnectives = map[string]bool{
	"and": true, "but": true, "or": true, "so": true, "because": true,
	"with": true, "about": true, "for": true, "to": true, "in": true,
	"on": true, "at": true, "of": true, "the": true, "a": true,
	"an": true, "which": true, "that": true,
}

// EnsureCompleteSentence repairs output that was cut off mid-sentence.
// Idempotent: applying it to its own output changes nothing.
func EnsureCompleteSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	if endsWithTerminal(text) {
		last := lastSentence(text)
		if wordCount(last) >= minSentenceWords || wordCount(text) <= minSentenceWords {
			return text
		}
	}

	sentences := sentencePattern.FindAllString(text, -1)
	var kept []string
	for i, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if isCompleteSentence(sentence) {
			kept = append(kept, terminated(sentence))
			continue
		}
		// leniency: a reasonably long opening sentence survives even
		// when the keyword check rejects it
		if i == 0 && wordCount(sentence) >= reasonableFirstSentenceWords {
			kept = append(kept, terminated(sentence))
		}
	}

	if len(kept) > 0 {
		return strings.Join(kept, " ")
	}

	return trimDangling(text)
}

// isCompleteSentence requires terminal punctuation, a minimum word
// count, and at least one subject-like and one verb-like token.
func isCompleteSentence(sentence string) bool {
	if !endsWithTerminal(sentence) {
		return false
	}
	words := strings.Fields(sentence)
	if len(words) < minSentenceWords {
		return false
	}
	hasSubject := false
	hasVerb := false
	for _, word := range words {
		w := strings.ToLower(strings.Trim(word, ".,!?;:\"'"))
		if subjectWords[w] {
			hasSubject = true
		}
		if verbWords[w] {
			hasVerb = true
		}
	}
	// a capitalized token also counts as a subject
	if !hasSubject {
		for _, word := range words {
			trimmed := strings.Trim(word, ".,!?;:\"'")
			if trimmed != "" && unicode.IsUpper(rune(trimmed[0])) {
				hasSubject = true
				break
			}
		}
	}
	return hasSubject && hasVerb
}

// trimDangling keeps punctuated sentences verbatim and repairs only the
// trailing fragment: drop it at the last connective, or failing that
// truncate a fixed number of trailing words. Text without a fragment is
// returned unchanged so repeated passes converge.
func trimDangling(text string) string {
	sentences := sentencePattern.FindAllString(text, -1)
	var prefix []string
	var fragment string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if endsWithTerminal(sentence) {
			prefix = append(prefix, sentence)
		} else {
			fragment = sentence
		}
	}
	if fragment == "" {
		return text
	}

	words := strings.Fields(fragment)
	var repaired string
	for i := len(words) - 1; i > 0; i-- {
		if trailingConnectives[strings.ToLower(words[i])] {
			repaired = terminated(strings.Join(words[:i], " "))
			break
		}
	}
	if repaired == "" {
		keep := len(words)
		if keep > truncateTrailingWords {
			keep -= truncateTrailingWords
		}
		repaired = terminated(strings.Join(words[:keep], " "))
	}
	return strings.Join(append(prefix, repaired), " ")
}

func endsWithTerminal(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?")
}

func terminated(text string) string {
	text = strings.TrimRight(text, ".!?, ")
	if text == "" {
		return text
	}
	return text + "."
}

func lastSentence(text string) string {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return text
	}
	return strings.TrimSpace(sentences[len(sentences)-1])
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func applySubstitutions(text string, subs map[string]string) string {
	words := strings.Fields(text)
	for i, word := range words {
		trimmed := strings.ToLower(strings.Trim(word, ".,!?;:"))
		if replacement, ok := subs[trimmed]; ok {
			words[i] = strings.Replace(word, strings.Trim(word, ".,!?;:"), matchCase(word, replacement), 1)
		}
	}
	return strings.Join(words, " ")
}

func matchCase(original, replacement string) string {
	core := strings.Trim(original, ".,!?;:")
	if core != "" && unicode.IsUpper(rune(core[0])) {
		return capitalizeFirst(replacement)
	}
	return replacement
}

func capitalizeFirst(text string) string {
	for i, r := range text {
		if unicode.IsLetter(r) {
			if i == 0 {
				return strings.ToUpper(string(r)) + text[len(string(r)):]
			}
			return text
		}
		// first letter found past position 0 stays as-is
		break
	}
	return text
}
