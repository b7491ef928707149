// internal/slug/slug_test.go
//
// Table tests for Make and the id token helpers.

package slug

import (
	"regexp"
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"A Test Forum", "a-test-forum"},
		{"Sciences", "sciences"},
		{"CompSci", "compsci"},
		{"<b>Bold</b> Title", "bold-title"},
		{"Q&amp;A session", "qa-session"},
		{"Café déjà vu", "cafe-deja-vu"},
		{"100%25 sure", "100%25-sure"},
		{"50% off", "50-off"},
		{"  --Hello   World--  ", "hello-world"},
		{"version 1.2", "version-1-2"},
		{"snake_case name", "snake_case-name"},
		{"It's (really) great!", "its-really-great"},
		{"???", ""},
	}
	for _, c := range cases {
		if got := Make(c.in); got != c.want {
			t.Errorf("Make(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMakeIsDeterministic(t *testing.T) {
	in := "Week 1: Introduction to <i>Go</i>"
	if Make(in) != Make(in) {
		t.Fatalf("Make is not deterministic")
	}
}

func TestMakeTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "word "
	}
	got := Make(long)
	if len(got) > maxLen {
		t.Fatalf("len = %d, want ≤ %d", len(got), maxLen)
	}
	if got[len(got)-1] == '-' {
		t.Fatalf("trailing dash after truncation: %q", got)
	}
}

func TestMakeTruncatesWholeOctets(t *testing.T) {
	octet := regexp.MustCompile(`%[0-9a-f]{2}`)
	for _, tc := range []struct {
		pad  int
		want int
	}{
		{pad: 97, want: 100}, // "%2f" ends exactly at the limit
		{pad: 98, want: 98},  // limit falls after "%2"
		{pad: 99, want: 99},  // limit falls after "%"
	} {
		got := Make(strings.Repeat("a", tc.pad) + "%2f%2f")
		if len(got) != tc.want {
			t.Errorf("pad %d: len = %d, want %d (%q)", tc.pad, len(got), tc.want, got)
		}
		if strings.Contains(octet.ReplaceAllString(got, ""), "%") {
			t.Errorf("pad %d: partial escape left in %q", tc.pad, got)
		}
	}
}

func TestIDTokens(t *testing.T) {
	if got := IDPrefixed(12, "A Test Forum"); got != "12-a-test-forum" {
		t.Fatalf("IDPrefixed = %q", got)
	}
	if got := IDSuffixed("Sciences", 3); got != "sciences-3" {
		t.Fatalf("IDSuffixed = %q", got)
	}
	if got := IDPrefixed(4, "!!!"); got != "4" {
		t.Fatalf("IDPrefixed empty slug = %q", got)
	}

	id, rest, ok := ParseIDPrefix("12-a-test-forum")
	if !ok || id != 12 || rest != "a-test-forum" {
		t.Fatalf("ParseIDPrefix = %d %q %v", id, rest, ok)
	}
	if _, _, ok := ParseIDPrefix("a-test-forum"); ok {
		t.Fatalf("ParseIDPrefix accepted a bare slug")
	}

	id, rest, ok = ParseIDSuffix("comp-sci-9")
	if !ok || id != 9 || rest != "comp-sci" {
		t.Fatalf("ParseIDSuffix = %d %q %v", id, rest, ok)
	}
	id, _, ok = ParseIDSuffix("9")
	if !ok || id != 9 {
		t.Fatalf("ParseIDSuffix bare id = %d %v", id, ok)
	}
	if _, _, ok := ParseIDSuffix("sciences"); ok {
		t.Fatalf("ParseIDSuffix accepted a bare slug")
	}
}
