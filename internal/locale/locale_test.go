// internal/locale/locale_test.go
//
// Normalisation rules for two-letter codes.

package locale

import (
	"errors"
	"testing"
)

func TestNormalize_Valid(t *testing.T) {
	cases := map[string]Code{
		"en":     "en",
		"cs":     "cs",
		" DE ":   "de",
		"En":     "en",
		"cs-CZ":  "cs",
		"en-us":  "en",
		"pt_BR":  "pt",
		"sk-SK ": "sk",
		"en-AB":  "en",
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []string{"", "e", "eng", "xx9", "1a", "en-", "en-1", "é1", "en--US", "-US", "en-USA", "en-840", "en-419", "en-U", "en-US-x"} {
		_, err := Normalize(in)
		if err == nil {
			t.Fatalf("Normalize(%q) succeeded, want error", in)
		}
		if !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("Normalize(%q) error %v does not wrap ErrInvalidFormat", in, err)
		}
		var fe *FormatError
		if !errors.As(err, &fe) || fe.Input != in {
			t.Fatalf("Normalize(%q) error does not carry input: %v", in, err)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"en", "CS", "de-AT", " fr "} {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once.String())
		if err != nil {
			t.Fatalf("Normalize(%q): %v", once, err)
		}
		if once != twice {
			t.Fatalf("not idempotent: %q → %q → %q", in, once, twice)
		}
	}
}

func TestCode_Valid(t *testing.T) {
	if !Code("en").Valid() {
		t.Fatal(`Code("en") should be valid`)
	}
	for _, c := range []Code{"", "EN", "eng", "e1"} {
		if c.Valid() {
			t.Fatalf("Code(%q) should be invalid", c)
		}
	}
}

func TestNormalizeAll_StopsAtFirstFailure(t *testing.T) {
	if _, err := NormalizeAll([]string{"en", "bad!", "cs"}); err == nil {
		t.Fatal("expected error")
	}
	got, err := NormalizeAll([]string{"EN", "cs-CZ"})
	if err != nil {
		t.Fatalf("NormalizeAll: %v", err)
	}
	if len(got) != 2 || got[0] != "en" || got[1] != "cs" {
		t.Fatalf("NormalizeAll = %v", got)
	}
}
