package site

import (
	"errors"
	"strings"
	"testing"

	"github.com/yanizio/adept-locale/internal/locale"
)

func TestNormalizeHost(t *testing.T) {
	ok := map[string]string{
		"example.com":        "example.com",
		"www.example.com":    "example.com",
		"localhost":          "localhost",
		"www.localhost":      "localhost",
		"beta.my-site.co.uk": "beta.my-site.co.uk",
		"WWW.EXAMPLE.CZ":     "example.cz",
	}
	for in, want := range ok {
		got, err := NormalizeHost(in)
		if err != nil {
			t.Fatalf("NormalizeHost(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeHost(%q) = %q, want %q", in, got, want)
		}
	}

	bad := []string{"", "example", "-bad.com", "bad-.com", "exa mple.com", "example.c", "example.toolongtld", "a..com"}
	for _, in := range bad {
		if _, err := NormalizeHost(in); !errors.Is(err, ErrValidation) {
			t.Fatalf("NormalizeHost(%q) = %v, want ErrValidation", in, err)
		}
	}

	long := strings.Repeat("a", 250) + ".com"
	if _, err := NormalizeHost(long); !errors.Is(err, ErrValidation) {
		t.Fatalf("over-length host accepted: %v", err)
	}
}

func TestParseEnvironment(t *testing.T) {
	for _, e := range []string{"localhost", "beta", "production"} {
		if _, err := ParseEnvironment(e); err != nil {
			t.Fatalf("ParseEnvironment(%q): %v", e, err)
		}
	}
	if _, err := ParseEnvironment("staging"); !errors.Is(err, ErrValidation) {
		t.Fatalf("staging accepted: %v", err)
	}
}

func TestNewDomain(t *testing.T) {
	loc := &Locale{ID: 3, Code: "cs"}
	d, err := NewDomain("www.example.cz", loc, EnvProduction)
	if err != nil {
		t.Fatal(err)
	}
	if d.Host != "example.cz" {
		t.Fatalf("Host = %q", d.Host)
	}
	code, err := d.Locale()
	if err != nil || code != "cs" {
		t.Fatalf("Locale = %q, %v", code, err)
	}
	if d.UpdatedAt.IsZero() {
		t.Fatal("setters should touch UpdatedAt")
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := NewDomain("example.cz", loc, "qa"); err == nil {
		t.Fatal("invalid environment accepted")
	}
}

func TestDomain_LocaleMissing(t *testing.T) {
	d := &Domain{Host: "example.com"}
	if _, err := d.Locale(); !errors.Is(err, ErrDomainLocaleMissing) {
		t.Fatalf("want ErrDomainLocaleMissing, got %v", err)
	}
	empty := locale.Code("")
	d.LocaleCode = &empty
	if _, err := d.Locale(); !errors.Is(err, ErrDomainLocaleMissing) {
		t.Fatalf("empty code: want ErrDomainLocaleMissing, got %v", err)
	}
}

func TestDomain_Scheme(t *testing.T) {
	if (&Domain{HTTPS: true}).Scheme() != "https" || (&Domain{}).Scheme() != "http" {
		t.Fatal("scheme mapping wrong")
	}
}
