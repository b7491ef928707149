// internal/slug/slug.go
//
// Slug and token helpers.
//
// • Make(title) ─ converts arbitrary display text into a single URL-safe
//   path segment restricted to a-z, 0-9, “_”, “-”, and %xx octets.
// • IDPrefixed / IDSuffixed ─ build the composite “<id>-<slug>” and
//   “<slug>-<id>” tokens used by module and category paths.
// • ParseIDPrefix / ParseIDSuffix ─ recover the numeric id from a token.
//
// Rules (Make)
// ------------
// 1. Strip markup tags and HTML entities.
// 2. Fold accents (NFD, drop combining marks), then lower-case.
// 3. Keep %xx escaped octets as-is, drop any other “%”.
// 4. Whitespace, “.”, and “-” runs become one “-”.
// 5. Drop everything else outside [a-z0-9_].
// 6. Trim leading / trailing “-”.
//
// Notes
// -----
// • Slugs are decoration.  Resolution always anchors on an id or a lookup,
//   so case-insensitive collisions are acceptable.
// • Slugs are max 100 bytes.

package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLen = 100

var (
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	entityRe = regexp.MustCompile(`&#?[a-zA-Z0-9]+;`)
)

// Make converts title → lower-kebab ASCII.  Returns "" when nothing
// survives.
func Make(title string) string {
	s := tagRe.ReplaceAllString(title, " ")
	s = entityRe.ReplaceAllString(s, "")
	s = fold(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))

	rs := []rune(s)
	lastWasDash := false
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastWasDash = false
		case r == '%' && i+2 < len(rs) && isHex(rs[i+1]) && isHex(rs[i+2]):
			b.WriteRune('%')
			b.WriteRune(rs[i+1])
			b.WriteRune(rs[i+2])
			i += 2
			lastWasDash = false
		case unicode.IsSpace(r), r == '-', r == '.':
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	return truncate(strings.Trim(b.String(), "-"))
}

// truncate cuts s to maxLen bytes without splitting a %xx octet.
func truncate(s string) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for i := cut - 1; i >= cut-2; i-- {
		if s[i] == '%' {
			cut = i
			break
		}
	}
	return strings.TrimRight(s[:cut], "-")
}

// IDPrefixed returns "<id>-<slug>", or just "<id>" when the name has no
// sluggable characters.
func IDPrefixed(id int64, name string) string {
	s := Make(name)
	if s == "" {
		return strconv.FormatInt(id, 10)
	}
	return strconv.FormatInt(id, 10) + "-" + s
}

// IDSuffixed returns "<slug>-<id>", or just "<id>".
func IDSuffixed(name string, id int64) string {
	s := Make(name)
	if s == "" {
		return strconv.FormatInt(id, 10)
	}
	return s + "-" + strconv.FormatInt(id, 10)
}

// ParseIDPrefix splits token at the first dash and parses the head.  The
// tail is the cosmetic slug.
func ParseIDPrefix(token string) (id int64, rest string, ok bool) {
	head, tail, _ := strings.Cut(token, "-")
	n, err := strconv.ParseInt(head, 10, 64)
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, tail, true
}

// ParseIDSuffix splits token at the last dash and parses the tail.
func ParseIDSuffix(token string) (id int64, rest string, ok bool) {
	head, tail := "", token
	if i := strings.LastIndexByte(token, '-'); i >= 0 {
		head, tail = token[:i], token[i+1:]
	}
	n, err := strconv.ParseInt(tail, 10, 64)
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, head, true
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
