package bot

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/garyellow/lpnu-schedule-bot/internal/stringutil"
)

// maxGroupLength bounds group names; LPNU codes look like "АВ-11" or "КН-110мп".
const maxGroupLength = 24

// Plain-text shortcuts for the commands, e.g. "розклад КН-21".
var (
	rozkladKeywords = []string{"розклад", "rozklad", "schedule"}
	groupKeywords   = []string{"група", "group"}

	rozkladRegex = BuildKeywordRegex(rozkladKeywords)
	groupRegex   = BuildKeywordRegex(groupKeywords)
)

// BuildKeywordRegex matches any of keywords at the start of a text, followed
// by whitespace or the end of the text. Longer keywords are tried first.
// Panics if keywords is empty.
//
//	MatchKeyword(BuildKeywordRegex([]string{"розклад"}), "Розклад АВ-11") // "Розклад"
//	MatchKeyword(BuildKeywordRegex([]string{"розклад"}), "розкладу")      // ""
func BuildKeywordRegex(keywords []string) *regexp.Regexp {
	if len(keywords) == 0 {
		panic("BuildKeywordRegex: keywords cannot be empty")
	}

	sorted := make([]string, len(keywords))
	for i, k := range keywords {
		sorted[i] = regexp.QuoteMeta(k)
	}
	slices.SortFunc(sorted, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})

	return regexp.MustCompile(`(?i)^(` + strings.Join(sorted, "|") + `)(?:\s|$)`)
}

// MatchKeyword returns the keyword as written in text, or "" without a match.
func MatchKeyword(re *regexp.Regexp, text string) string {
	match := re.FindStringSubmatch(strings.TrimSpace(text))
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// ExtractArgument returns what follows a leading keyword.
func ExtractArgument(text, keyword string) string {
	text = strings.TrimSpace(text)
	if keyword == "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(text, keyword))
}

var (
	errGroupEmpty   = errors.New("group name is empty")
	errGroupTooLong = errors.New("group name is too long")
	errGroupChars   = errors.New("group name has unexpected characters")
	errGroupDigits  = errors.New("group name has no letters")
)

var upperUkrainian = cases.Upper(language.Ukrainian)

// NormalizeGroup cleans a typed group name: whitespace collapsed, dashes
// unified, letters upper-cased ("ав – 11" becomes "АВ-11"). Only letters,
// digits and dashes are accepted.
func NormalizeGroup(raw string) (string, error) {
	s := strings.Join(strings.Fields(raw), " ")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '–', '—', '‐', '‑', '−', '_':
			return '-'
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, " - ", "-")
	s = strings.ReplaceAll(s, " -", "-")
	s = strings.ReplaceAll(s, "- ", "-")

	switch {
	case s == "":
		return "", errGroupEmpty
	case utf8.RuneCountInString(s) > maxGroupLength:
		return "", errGroupTooLong
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != ' ' {
			return "", errGroupChars
		}
	}
	// "11" or "11-2" is a number, not a group abbreviation.
	if stringutil.IsNumeric(strings.NewReplacer("-", "", " ", "").Replace(s)) {
		return "", errGroupDigits
	}
	return upperUkrainian.String(s), nil
}
