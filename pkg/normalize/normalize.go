// Package normalize turns raw listing titles into comparable catalog keys.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Version patterns tried in order; the first capturing group of the
// first matching pattern wins.
var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)v?(\d+\.\d+(?:\.\d+)?(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)version\s+(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)ver\s+(\d+\.\d+(?:\.\d+)?)`),
}

var (
	reVersionToken = regexp.MustCompile(`(?i)v?\d+\.\d+(?:\.\d+)?(?:\.\d+)?`)
	reBrackets     = regexp.MustCompile(`\[[^\]]*\]`)
	reParens       = regexp.MustCompile(`\([^)]*\)`)
	reNoiseWords   = regexp.MustCompile(`(?i)\b(pro|premium|nulled|free|download|wordpress|plugin|theme|version)\b`)
	reSeparatorCut = regexp.MustCompile(`\s+[-–|]\s+.*$`)
)

// ExtractVersion returns the first version number found in text, trying
// bare vN.N[.N[.N]] forms before "version N.N" and "ver N.N" prefixed
// ones. Empty string means no version present.
func ExtractVersion(text string) string {
	for _, p := range versionPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// CleanName reduces a listing title to its comparison key: Unicode is
// decomposed and combining marks dropped, version tokens, bracketed
// content and noise words are removed, everything after a " - ", "–" or
// "|" separator is cut, then the rest is trimmed, whitespace-collapsed
// and lowercased. Empty string means the title had no usable name.
func CleanName(title string) string {
	name := stripMarks(norm.NFKD.String(title))
	name = reVersionToken.ReplaceAllString(name, "")
	name = reBrackets.ReplaceAllString(name, "")
	name = reParens.ReplaceAllString(name, "")
	name = reNoiseWords.ReplaceAllString(name, "")
	name = reSeparatorCut.ReplaceAllString(name, "")
	name = strings.Trim(name, " -–|:")
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func stripMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
