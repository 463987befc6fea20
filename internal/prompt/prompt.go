package prompt

import (
	"fmt"
	"strings"

	"github.com/threadwise/threadwise/internal/classify"
)

// mandatory constraints appended to every summarization prompt
const constraints = `Rules:
- Preserve every named person, number, and technical term exactly as written
- No meta-commentary about the task or the content
- Never ask clarifying questions
- Write in a natural voice, not like a form letter`

// Build creates the instruction string sent to the LLM. Pure and
// deterministic; an unrecognized tone is not rejected, it falls through
// to the default template where the raw tone string becomes free-form
// guidance for the model.
func Build(tone, length, content string, isThread bool, analysis *classify.Analysis) string {
	var b strings.Builder

	if isThread {
		b.WriteString("The following is a social media thread, a sequence of short numbered posts by one or more authors. Read it as one continuous piece.\n\n")
	}

	if analysis != nil {
		writeAnalysis(&b, analysis)
	}

	switch tone {
	case "simple":
		b.WriteString(fmt.Sprintf("Summarize the content below in %s using plain, everyday words a 12-year-old would understand. Short sentences. No jargon.\n\n", length))
	case "professional":
		b.WriteString(fmt.Sprintf("Summarize the content below in %s using a polished, professional register suitable for a business briefing.\n\n", length))
	case "conversational":
		b.WriteString(fmt.Sprintf("Summarize the content below in %s the way you'd explain it to a friend over coffee. Relaxed, direct, a little informal.\n\n", length))
	case "shitpost":
		b.WriteString(fmt.Sprintf("Summarize the content below in %s as an unhinged but accurate shitpost. Be funny, be chaotic, keep the facts straight.\n\n", length))
	case "infographics":
		b.WriteString(fmt.Sprintf("Summarize the content below in %s structured as punchy infographic copy: short labeled fragments, one fact per line, emoji markers welcome.\n\n", length))
	default:
		b.WriteString(fmt.Sprintf("Summarize the content below in %s with a %s tone.\n\n", length, tone))
	}

	b.WriteString(constraints)
	b.WriteString("\n\nContent:\n")
	b.WriteString(content)

	return b.String()
}

// BuildTermExplanation creates the instruction string for the crypto
// term explainer.
func BuildTermExplanation(term string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Explain the crypto/web3 term %q in 2-3 plain sentences for someone new to the space. ", term))
	b.WriteString("Give one concrete example if it helps. No hype, no price speculation, no meta-commentary.")
	return b.String()
}

func writeAnalysis(b *strings.Builder, analysis *classify.Analysis) {
	var hints []string
	if len(analysis.Names) > 0 {
		hints = append(hints, "people/entities mentioned: "+strings.Join(analysis.Names, ", "))
	}
	if len(analysis.Numbers) > 0 {
		hints = append(hints, "figures mentioned: "+strings.Join(analysis.Numbers, ", "))
	}
	if len(analysis.TechnicalTerms) > 0 {
		hints = append(hints, "technical terms: "+strings.Join(analysis.TechnicalTerms, ", "))
	}
	if len(hints) == 0 {
		return
	}
	b.WriteString("Context detected in the content (keep these accurate): ")
	b.WriteString(strings.Join(hints, "; "))
	b.WriteString(".\n\n")
}
