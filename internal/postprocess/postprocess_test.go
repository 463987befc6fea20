package postprocess

import (
	"testing"
)

func TestCleanStripsLeadIns(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "heres a summary",
			raw:  "Here's a summary: the market dropped hard on Tuesday.",
			want: "The market dropped hard on Tuesday.",
		},
		{
			name: "sure prefix",
			raw:  "Sure! The market dropped hard on Tuesday.",
			want: "The market dropped hard on Tuesday.",
		},
		{
			name: "stacked lead-ins",
			raw:  "Sure! Here's the breakdown: the market dropped hard.",
			want: "The market dropped hard.",
		},
		{
			name: "clean input unchanged",
			raw:  "AI is getting better fast.",
			want: "AI is getting better fast.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.raw, "professional"); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanRemovesHedgingAndFiller(t *testing.T) {
	got := Clean("I think the rollout was basically a disaster for the team.", "professional")
	want := "The rollout was a disaster for the team."
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanCollapsesDoubledIntensifiers(t *testing.T) {
	got := Clean("The launch was very very successful overall.", "professional")
	want := "The launch was very successful overall."
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanSimpleToneSubstitutions(t *testing.T) {
	got := Clean("They utilize the tool to demonstrate results.", "simple")
	want := "They use the tool to show results."
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanRepairsSpacing(t *testing.T) {
	got := Clean("It   works.Next step is testing.", "professional")
	want := "It works. Next step is testing."
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanFallsBackOnGarbage(t *testing.T) {
	tests := []string{"", "...", "12 34", "!?"}
	for _, raw := range tests {
		if got := Clean(raw, "simple"); got != FallbackMessage {
			t.Errorf("Clean(%q) = %q, want fallback message", raw, got)
		}
	}
}

func TestCleanStripsTrailingEllipsis(t *testing.T) {
	got := EnsureCompleteSentence(Clean("The plan worked out in the end...", "professional"))
	want := "The plan worked out in the end."
	if got != want {
		t.Errorf("Clean+EnsureCompleteSentence = %q, want %q", got, want)
	}
}

func TestEnsureCompleteSentenceKeepsCompleteText(t *testing.T) {
	text := "AI is getting better fast."
	if got := EnsureCompleteSentence(text); got != text {
		t.Errorf("EnsureCompleteSentence(%q) = %q, want unchanged", text, got)
	}
}

func TestEnsureCompleteSentenceDropsTrailingFragment(t *testing.T) {
	got := EnsureCompleteSentence("The model is impressive. It can also")
	want := "The model is impressive."
	if got != want {
		t.Errorf("EnsureCompleteSentence() = %q, want %q", got, want)
	}
}

func TestEnsureCompleteSentenceTrimsAtConnective(t *testing.T) {
	got := EnsureCompleteSentence("Prices kept falling and")
	want := "Prices kept falling."
	if got != want {
		t.Errorf("EnsureCompleteSentence() = %q, want %q", got, want)
	}
}

func TestEnsureCompleteSentenceKeepsLeadingSentencesWhenTrimming(t *testing.T) {
	got := EnsureCompleteSentence("Foo bar. Baz qux and")
	want := "Foo bar. Baz qux."
	if got != want {
		t.Errorf("EnsureCompleteSentence() = %q, want %q", got, want)
	}
}

func TestEnsureCompleteSentenceLenientFirstSentence(t *testing.T) {
	// no subject/verb keyword hits, but long enough to keep
	got := EnsureCompleteSentence("Seven quick brown foxes jumping over lazy hedgehogs today")
	want := "Seven quick brown foxes jumping over lazy hedgehogs today."
	if got != want {
		t.Errorf("EnsureCompleteSentence() = %q, want %q", got, want)
	}
}

func TestEnsureCompleteSentenceIdempotent(t *testing.T) {
	inputs := []string{
		"AI is getting better fast.",
		"The model is impressive. It can also",
		"Prices kept falling and",
		"Seven quick brown foxes jumping over lazy hedgehogs today",
		"Hello and",
		"word",
		"",
		"It works. Sort of done but",
		"Foo bar. Baz qux and",
		"It works. Alpha beta gamma",
		"One two three. Alpha beta gamma and",
	}

	for _, input := range inputs {
		once := EnsureCompleteSentence(input)
		twice := EnsureCompleteSentence(once)
		if once != twice {
			t.Errorf("Not idempotent for %q: once %q, twice %q", input, once, twice)
		}
	}
}
