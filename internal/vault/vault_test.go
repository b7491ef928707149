package vault

import (
	"errors"
	"testing"
)

func TestParseRef(t *testing.T) {
	path, key, err := ParseRef("vault:kv/cleanurls/db#password")
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if path != "kv/cleanurls/db" || key != "password" {
		t.Fatalf("got %q %q", path, key)
	}

	for _, bad := range []string{
		"kv/cleanurls/db#password",
		"vault:kv/cleanurls/db",
		"vault:#password",
		"vault:kv#password",
		"vault:kv/x#",
	} {
		if _, _, err := ParseRef(bad); !errors.Is(err, ErrBadRef) {
			t.Errorf("%q: want ErrBadRef, got %v", bad, err)
		}
	}
}

func TestIsRef(t *testing.T) {
	if !IsRef("vault:kv/a#b") || IsRef("hunter2") {
		t.Fatal("IsRef misclassified")
	}
}
