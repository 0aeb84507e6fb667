package site

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

var (
	fastHasher = Hasher{Cost: bcrypt.MinCost}
	nextHasher = Hasher{Cost: bcrypt.MinCost + 1}
)

func TestSetProtectedPassword_StoresHashOnly(t *testing.T) {
	d := &Domain{Host: "beta.example.com", Protected: true}
	if err := d.SetProtectedPassword(fastHasher, strp("secret")); err != nil {
		t.Fatal(err)
	}
	if d.ProtectedPasswordHash == nil || *d.ProtectedPasswordHash == "secret" {
		t.Fatal("plaintext stored")
	}
	if err := d.SetProtectedPassword(fastHasher, strp("abc")); !errors.Is(err, ErrValidation) {
		t.Fatalf("short password: want ErrValidation, got %v", err)
	}
	if err := d.SetProtectedPassword(fastHasher, nil); err != nil || d.ProtectedPasswordHash != nil {
		t.Fatal("nil should clear the hash")
	}
}

func TestVerifyPassword_IsReadOnly(t *testing.T) {
	d := &Domain{}
	if err := d.SetProtectedPassword(fastHasher, strp("secret")); err != nil {
		t.Fatal(err)
	}
	before := *d.ProtectedPasswordHash

	v := d.VerifyPassword(fastHasher, "secret")
	if !v.OK || v.UpgradeRecommended {
		t.Fatalf("same cost: %+v", v)
	}

	v = d.VerifyPassword(nextHasher, "secret")
	if !v.OK || !v.UpgradeRecommended {
		t.Fatalf("different cost: %+v", v)
	}
	if *d.ProtectedPasswordHash != before {
		t.Fatal("VerifyPassword mutated the stored hash")
	}

	if d.VerifyPassword(fastHasher, "wrong").OK {
		t.Fatal("wrong password accepted")
	}
	if (&Domain{}).VerifyPassword(fastHasher, "secret").OK {
		t.Fatal("domain without hash accepted a password")
	}
}

func TestRehash(t *testing.T) {
	d := &Domain{}
	if err := d.SetProtectedPassword(fastHasher, strp("secret")); err != nil {
		t.Fatal(err)
	}
	if err := d.Rehash(nextHasher, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("want ErrPasswordMismatch, got %v", err)
	}
	if err := d.Rehash(nextHasher, "secret"); err != nil {
		t.Fatal(err)
	}
	v := d.VerifyPassword(nextHasher, "secret")
	if !v.OK || v.UpgradeRecommended {
		t.Fatalf("after rehash: %+v", v)
	}
}
