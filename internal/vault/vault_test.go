package vault

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeKV struct {
	data  map[string]map[string]any
	calls int
}

func (f *fakeKV) fetch(_ context.Context, mount, rel string) (map[string]any, error) {
	f.calls++
	d, ok := f.data[mount+"/"+rel]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return d, nil
}

func TestGetKV(t *testing.T) {
	kv := &fakeKV{data: map[string]map[string]any{
		"secret/adept/db": {"password": "s3cret", "port": 3306},
	}}
	c := newClient(kv.fetch)
	ctx := context.Background()

	got, err := c.GetKV(ctx, "secret/adept/db", "password", 0)
	if err != nil || got != "s3cret" {
		t.Fatalf("GetKV = %q, %v", got, err)
	}
	if _, err := c.GetKV(ctx, "secret/adept/db", "user", 0); err == nil {
		t.Fatal("missing key accepted")
	}
	if _, err := c.GetKV(ctx, "secret/adept/db", "port", 0); err == nil {
		t.Fatal("non-string value accepted")
	}
	if _, err := c.GetKV(ctx, "secret/adept/none", "password", 0); err == nil {
		t.Fatal("missing secret accepted")
	}
	if _, err := c.GetKV(ctx, "", "password", 0); !errors.Is(err, ErrEmptyRef) {
		t.Fatalf("empty path: %v", err)
	}
}

func TestGetKV_Cache(t *testing.T) {
	kv := &fakeKV{data: map[string]map[string]any{
		"secret/app": {"token": "a"},
	}}
	c := newClient(kv.fetch)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.GetKV(ctx, "secret/app", "token", time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	if kv.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", kv.calls)
	}

	kv.data["secret/app"]["token"] = "b"
	now = now.Add(2 * time.Minute)
	got, _ := c.GetKV(ctx, "secret/app", "token", time.Minute)
	if got != "b" || kv.calls != 2 {
		t.Fatalf("after expiry got %q calls %d", got, kv.calls)
	}
}

func TestSplitMount(t *testing.T) {
	cases := map[string][2]string{
		"secret/a/b": {"secret", "a/b"},
		"secret":     {"secret", ""},
		"":           {"", ""},
	}
	for in, want := range cases {
		m, r := splitMount(in)
		if m != want[0] || r != want[1] {
			t.Errorf("splitMount(%q) = %q, %q", in, m, r)
		}
	}
}
