package moderation

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

var urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)

type VerdictKind int

// Kinds are ordered by priority, the highest wins.
const (
	Clean VerdictKind = iota
	LinkWarning
	BlockedDomain
	BlockedWord
)

func (k VerdictKind) String() string {
	switch k {
	case LinkWarning:
		return "link_warning"
	case BlockedDomain:
		return "blocked_domain"
	case BlockedWord:
		return "blocked_word"
	default:
		return "clean"
	}
}

// Verdict is the classification of one message.
// Match holds the blocked word or blacklisted domain that triggered it.
type Verdict struct {
	Kind  VerdictKind
	Match string
	URLs  []string
}

// Removes reports whether the message must be deleted.
func (v Verdict) Removes() bool {
	return v.Kind == BlockedWord || v.Kind == BlockedDomain
}

// Reason is the audit reason code of the verdict, empty for clean messages.
func (v Verdict) Reason() string {
	switch v.Kind {
	case BlockedWord:
		return "bad_word:" + v.Match
	case BlockedDomain:
		return "bad_domain:" + v.Match
	case LinkWarning:
		return "link_warn"
	default:
		return ""
	}
}

type Filter struct {
	matcher  *goahocorasick.Machine
	patterns map[string]string
	domains  []string
	foldLeet bool
}

type Option func(*Filter)

// WithLeetFolding maps common leet speak characters back to letters on both the words and the text.
func WithLeetFolding(enabled bool) Option {
	return func(f *Filter) { f.foldLeet = enabled }
}

// NewFilter builds the Aho-Corasick automaton over the normalized blocked words
// and keeps the blacklisted domains sorted so the first match is stable.
func NewFilter(words, domains []string, opts ...Option) (*Filter, error) {
	f := &Filter{patterns: make(map[string]string)}
	for _, opt := range opts {
		opt(f)
	}

	var patterns [][]rune
	for _, word := range words {
		original := strings.ToLower(strings.TrimSpace(word))
		normalized := f.normalize(original)
		if len(normalized) == 0 {
			continue
		}
		if _, ok := f.patterns[string(normalized)]; ok {
			continue
		}
		f.patterns[string(normalized)] = original
		patterns = append(patterns, normalized)
	}

	if len(patterns) > 0 {
		m := new(goahocorasick.Machine)
		if err := m.Build(patterns); err != nil {
			return nil, err
		}
		f.matcher = m
	}

	seen := make(map[string]struct{})
	for _, domain := range domains {
		d := strings.ToLower(strings.TrimSpace(domain))
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		f.domains = append(f.domains, d)
	}
	sort.Strings(f.domains)
	return f, nil
}

// Check classifies the text. Blocked words win over blacklisted domains,
// which win over plain links.
func (f *Filter) Check(text string) Verdict {
	if word, ok := f.blockedWord(text); ok {
		return Verdict{Kind: BlockedWord, Match: word}
	}

	urls := ExtractURLs(text)
	if len(urls) == 0 {
		return Verdict{Kind: Clean}
	}
	for _, url := range urls {
		for _, domain := range f.domains {
			if strings.Contains(url, domain) {
				return Verdict{Kind: BlockedDomain, Match: domain, URLs: urls}
			}
		}
	}
	return Verdict{Kind: LinkWarning, URLs: urls}
}

// ExtractURLs returns the lowercased http(s):// and www. tokens of the text.
func ExtractURLs(text string) []string {
	found := urlPattern.FindAllString(text, -1)
	for i := range found {
		found[i] = strings.ToLower(found[i])
	}
	return found
}

func (f *Filter) blockedWord(text string) (string, bool) {
	if f.matcher == nil {
		return "", false
	}
	normalized := f.normalize(text)
	if len(normalized) == 0 {
		return "", false
	}
	terms := f.matcher.MultiPatternSearch(normalized, true)
	if len(terms) == 0 {
		return "", false
	}
	return f.patterns[string(terms[0].Word)], true
}

func (f *Filter) normalize(input string) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if f.foldLeet {
			r = simplifyRune(r)
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}

// simplifyRune maps common Leet speak characters back to their standard alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
