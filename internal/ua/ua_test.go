package ua

import "testing"

func TestClass(t *testing.T) {
	cases := map[string]string{
		"": Other,
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)":                                                 Bot,
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.6422.60 Safari/537.36": Browser,
	}
	for raw, want := range cases {
		if got := Class(raw); got != want {
			t.Errorf("Class(%q) = %q, want %q", raw, got, want)
		}
	}
}
