package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	blockedWords = []string{"nojoya1", "nojoya2", "scam"}
	blacklist    = []string{"badsite.com", "spam.example"}
)

func TestFilter_Check(t *testing.T) {
	req := require.New(t)
	filter, err := NewFilter(blockedWords, blacklist)
	req.NoError(err)

	tests := []struct {
		name   string
		input  string
		kind   VerdictKind
		match  string
		reason string
	}{
		{
			name:   "Plain text is clean",
			input:  "hello everyone",
			kind:   Clean,
			reason: "",
		},
		{
			name:   "Blocked word is found case-insensitively",
			input:  "this is NOJOYA2 content",
			kind:   BlockedWord,
			match:  "nojoya2",
			reason: "bad_word:nojoya2",
		},
		{
			name:   "Blocked word inside another word still matches",
			input:  "what a scammer",
			kind:   BlockedWord,
			match:  "scam",
			reason: "bad_word:scam",
		},
		{
			name:   "Blacklisted domain in an http link",
			input:  "visit http://badsite.com now",
			kind:   BlockedDomain,
			match:  "badsite.com",
			reason: "bad_domain:badsite.com",
		},
		{
			name:   "Blacklisted domain in a www link with uppercase",
			input:  "go to WWW.Spam.Example/offer",
			kind:   BlockedDomain,
			match:  "spam.example",
			reason: "bad_domain:spam.example",
		},
		{
			name:   "Link without blacklist hit is only a warning",
			input:  "check www.example.org",
			kind:   LinkWarning,
			reason: "link_warn",
		},
		{
			name:   "Blacklisted domain outside a link is not a domain hit",
			input:  "badsite.com is mentioned without scheme",
			kind:   Clean,
			reason: "",
		},
		{
			name:   "Empty text",
			input:  "",
			kind:   Clean,
			reason: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			verdict := filter.Check(tt.input)
			req.Equal(tt.kind, verdict.Kind, "input=%q", tt.input)
			req.Equal(tt.match, verdict.Match)
			req.Equal(tt.reason, verdict.Reason())
		})
	}
}

func TestFilter_BlockedWord_Wins_Over_BlockedDomain(t *testing.T) {
	req := require.New(t)
	filter, err := NewFilter(blockedWords, blacklist)
	req.NoError(err)

	// Given a message with both a blocked word and a blacklisted domain
	verdict := filter.Check("nojoya1 see https://badsite.com/page")

	// Then the blocked word verdict is returned
	req.Equal(BlockedWord, verdict.Kind)
	req.Equal("nojoya1", verdict.Match)
	req.True(verdict.Removes())
}

func TestFilter_Removes(t *testing.T) {
	req := require.New(t)
	req.True(Verdict{Kind: BlockedWord}.Removes())
	req.True(Verdict{Kind: BlockedDomain}.Removes())
	req.False(Verdict{Kind: LinkWarning}.Removes())
	req.False(Verdict{Kind: Clean}.Removes())
}

func TestFilter_Empty_Policy(t *testing.T) {
	req := require.New(t)

	// Given no words and no domains
	filter, err := NewFilter(nil, []string{"", "  "})
	req.NoError(err)

	// Then nothing is blocked and links are still flagged
	req.Equal(Clean, filter.Check("nojoya1").Kind)
	req.Equal(LinkWarning, filter.Check("https://badsite.com").Kind)
}

func TestFilter_Leet_Folding(t *testing.T) {
	req := require.New(t)

	strict, err := NewFilter([]string{"spammer"}, nil)
	req.NoError(err)
	folded, err := NewFilter([]string{"spammer"}, nil, WithLeetFolding(true))
	req.NoError(err)

	// Given a leet-speak spelling
	input := "you are a 5p4mmer"

	// Then only the folding filter catches it
	req.Equal(Clean, strict.Check(input).Kind)
	verdict := folded.Check(input)
	req.Equal(BlockedWord, verdict.Kind)
	req.Equal("spammer", verdict.Match)
}

func TestExtractURLs(t *testing.T) {
	req := require.New(t)
	urls := ExtractURLs("see HTTPS://A.example/x and www.B.example, plus text")
	req.Equal([]string{"https://a.example/x", "www.b.example,"}, urls)
	req.Empty(ExtractURLs("no links here"))
}
