package schedule

import (
	"regexp"
	"strings"
)

// subgroupMarkers holds, per subgroup, the textual forms the site uses to
// tag a lesson for one subgroup only: "(1)", "підгр. 1", "1 п/г", "1-а підгрупа".
var subgroupMarkers = map[Subgroup]*regexp.Regexp{
	Subgroup1: subgroupMarkerRe("1"),
	Subgroup2: subgroupMarkerRe("2"),
}

func subgroupMarkerRe(n string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` +
		`\(\s*` + n + `\s*\)` + // (1)
		`|п[іi]дгр(?:упа|\.)?\s*№?\s*` + n + `(?:\D|$)` + // підгр. 1, підгрупа 1
		`|подгр(?:уппа|\.)?\s*№?\s*` + n + `(?:\D|$)` + // подгр. 1
		`|(?:^|\D)` + n + `\s*(?:-?\s*[аa]\s*)?(?:п/г|пг|п[іi]дгр|подгр)` + // 1 п/г, 1-а підгрупа
		`|(?:^|[^\p{L}])sub[_\-\s]?` + n + `(?:\D|$)`) // sub_1 (structural)
}

// hasSubgroupMarker reports whether text carries a marker for subgroup s.
func hasSubgroupMarker(text string, s Subgroup) bool {
	re, ok := subgroupMarkers[s]
	if !ok {
		return false
	}
	return re.MatchString(text)
}

// IsExcludedBySubgroup reports whether a lesson must be hidden from the
// requested subgroup. A lesson is hidden only when its text names the other
// subgroup and does not also name the requested one. Untagged lessons belong
// to the whole group.
func IsExcludedBySubgroup(body string, requested Subgroup) bool {
	if requested == SubgroupAll {
		return false
	}
	other := requested.Complement()
	if !hasSubgroupMarker(body, other) {
		return false
	}
	return !hasSubgroupMarker(body, requested)
}

// excludedBySubgroup applies the subgroup policy to an entry. The body text
// decides; structural markers (ids like "sub_2_full") are consulted only when
// the text carries no subgroup marker at all.
func excludedBySubgroup(e Entry, requested Subgroup) bool {
	if requested == SubgroupAll {
		return false
	}
	if hasSubgroupMarker(e.Body, Subgroup1) || hasSubgroupMarker(e.Body, Subgroup2) {
		return IsExcludedBySubgroup(e.Body, requested)
	}
	return IsExcludedBySubgroup(strings.Join(e.Markers, " "), requested)
}

// parityTokens maps structural marker fragments to the week parity they assert.
// The site uses transliterated ids ("group_chys", "sub_1_znam") and classes.
var parityTokens = []struct {
	fragment string
	parity   WeekParity
}{
	{"chys", ParityNumerator},
	{"chis", ParityNumerator},
	{"numerator", ParityNumerator},
	{"чис", ParityNumerator},
	{"znam", ParityDenominator},
	{"denominator", ParityDenominator},
	{"знам", ParityDenominator},
}

// markerParities collects the parities asserted by a set of markers.
func markerParities(markers []string) (numerator, denominator bool) {
	for _, m := range markers {
		m = strings.ToLower(m)
		for _, tok := range parityTokens {
			if !strings.Contains(m, tok.fragment) {
				continue
			}
			switch tok.parity {
			case ParityNumerator:
				numerator = true
			case ParityDenominator:
				denominator = true
			}
		}
	}
	return numerator, denominator
}

// IsExcludedByWeek reports whether a lesson must be hidden for the requested
// week parity. Only lessons marked exclusively for the opposite parity are
// hidden; lessons with no parity marker, or with both, run every week.
func IsExcludedByWeek(markers []string, requested WeekParity) bool {
	if requested == ParityAll {
		return false
	}
	numerator, denominator := markerParities(markers)
	switch requested {
	case ParityNumerator:
		return denominator && !numerator
	case ParityDenominator:
		return numerator && !denominator
	}
	return false
}
