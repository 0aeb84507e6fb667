package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/yanizio/adept-locale/internal/cache"
	"github.com/yanizio/adept-locale/internal/locale"
	"github.com/yanizio/adept-locale/internal/site"
	"github.com/yanizio/adept-locale/internal/snapshot"
)

type fakeRepo struct {
	domains []site.Domain
	locales []site.Locale
	saved   map[uint64]string
}

func (f *fakeRepo) ListDomains(context.Context) ([]site.Domain, error)       { return f.domains, nil }
func (f *fakeRepo) ListActiveLocales(context.Context) ([]site.Locale, error) { return f.locales, nil }

func (f *fakeRepo) DomainByHost(_ context.Context, host string) (*site.Domain, error) {
	for i := range f.domains {
		if f.domains[i].Host == host {
			d := f.domains[i]
			return &d, nil
		}
	}
	return nil, site.ErrNotFound
}

func (f *fakeRepo) UpdateProtectedPasswordHash(_ context.Context, id uint64, hash string) error {
	f.saved[id] = hash
	for i := range f.domains {
		if f.domains[i].ID == id {
			f.domains[i].ProtectedPasswordHash = &hash
		}
	}
	return nil
}

func (f *fakeRepo) LocaleByCode(_ context.Context, code locale.Code) (*site.Locale, error) {
	for i := range f.locales {
		if f.locales[i].Code == code {
			l := f.locales[i]
			return &l, nil
		}
	}
	return nil, site.ErrNotFound
}

func (f *fakeRepo) DomainsByLocale(_ context.Context, code locale.Code) ([]site.Domain, error) {
	var out []site.Domain
	for _, d := range f.domains {
		if d.LocaleCode != nil && *d.LocaleCode == code {
			out = append(out, d)
		}
	}
	return out, nil
}

func codep(c string) *locale.Code {
	v := locale.Code(c)
	return &v
}

func testApp(t *testing.T, stdin string) (*app, *bytes.Buffer, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{
		domains: []site.Domain{
			{ID: 1, Host: "a.com", LocaleCode: codep("en"), Environment: site.EnvProduction},
			{ID: 2, Host: "beta.a.com", LocaleCode: codep("en"), Environment: site.EnvBeta, Protected: true},
		},
		locales: []site.Locale{
			{ID: 1, Code: "en", Active: true, IsDefault: true},
			{ID: 2, Code: "de", Active: true, Position: 2},
		},
		saved: map[uint64]string{},
	}
	mem := cache.NewMemory()
	t.Cleanup(func() { _ = mem.Close() })

	out := &bytes.Buffer{}
	return &app{
		out:    out,
		in:     strings.NewReader(stdin),
		store:  snapshot.NewStore(mem, repo),
		repo:   repo,
		hasher: site.Hasher{Cost: 4},
	}, out, repo
}

func run(a *app, args ...string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestSnapshotCommand(t *testing.T) {
	a, out, _ := testApp(t, "")
	if err := run(a, "snapshot"); err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if err := json.Unmarshal(out.Bytes(), &body); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if body["defaultLocale"] != "en" {
		t.Fatalf("defaultLocale = %v", body["defaultLocale"])
	}

	out.Reset()
	if err := run(a, "snapshot", "--rebuild"); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Fatal("rebuild printed nothing")
	}
}

func TestInvalidateCommand(t *testing.T) {
	a, out, _ := testApp(t, "")
	if err := run(a, "invalidate"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "invalidated") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestResolveCommand(t *testing.T) {
	cases := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{[]string{"resolve", "www.A.com:8080"}, "locale:      en", false},
		{[]string{"resolve", "a.com", "--param", "de"}, "locale:      de", false},
		{[]string{"resolve", "a.com", "--param", "xx1", "--locale", "de"}, "ignored:", false},
		{[]string{"resolve", "nowhere.org"}, "", true},
		{[]string{"resolve", "nowhere.org", "--context", "de"}, "locale:      de", false},
	}
	for _, c := range cases {
		a, out, _ := testApp(t, "")
		err := run(a, c.args...)
		if c.wantErr {
			if err == nil {
				t.Errorf("%v: want error", c.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: %v", c.args, err)
			continue
		}
		if !strings.Contains(out.String(), c.want) {
			t.Errorf("%v: output %q lacks %q", c.args, out.String(), c.want)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	a, out, repo := testApp(t, "hunter2\n")
	if err := run(a, "hash-password", "--domain", "beta.a.com"); err != nil {
		t.Fatal(err)
	}
	if repo.saved[2] == "" {
		t.Fatal("hash not persisted")
	}
	if !strings.Contains(out.String(), "beta.a.com") {
		t.Fatalf("output = %q", out.String())
	}

	a.in = strings.NewReader("hunter2\n")
	out.Reset()
	if err := run(a, "verify-password", "beta.a.com"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if strings.TrimSpace(out.String()) != "ok" {
		t.Fatalf("verify output = %q", out.String())
	}

	a.in = strings.NewReader("wrong\n")
	if err := run(a, "verify-password", "beta.a.com"); !errors.Is(err, errDenied) {
		t.Fatalf("wrong password: %v", err)
	}
}

func TestHashPassword_PrintOnly(t *testing.T) {
	a, out, _ := testApp(t, "swordfish")
	if err := run(a, "hash-password"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "$2") {
		t.Fatalf("not a bcrypt hash: %q", out.String())
	}
}

func TestReadSecret_Empty(t *testing.T) {
	if _, err := readSecret(strings.NewReader("\n")); err == nil {
		t.Fatal("empty secret accepted")
	}
}

func TestLocaleCommand(t *testing.T) {
	a, out, _ := testApp(t, "")
	if err := run(a, "locale", "EN-us"); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"locale:   en (English)", "default:  true", "http://a.com", "http://beta.a.com"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}

	out.Reset()
	if err := run(a, "locale", "de"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "(none)") || !strings.Contains(out.String(), "German, Deutsch") {
		t.Fatalf("output = %q", out.String())
	}

	if err := run(a, "locale", "fr"); !errors.Is(err, site.ErrNotFound) {
		t.Fatalf("unknown locale: %v", err)
	}
	if err := run(a, "locale", "english"); err == nil {
		t.Fatal("malformed code accepted")
	}
}
