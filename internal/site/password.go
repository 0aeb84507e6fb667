// internal/site/password.go
//
// Protected-domain passwords.
//
// Context
// -------
// Beta domains can sit behind a shared password.  Only a bcrypt hash is
// ever stored.  Verification is a pure read that returns a Verdict; when the
// stored hash was produced with a different cost the Verdict recommends an
// upgrade, and the caller decides whether to call Rehash and persist the
// new hash through Repository.UpdateProtectedPasswordHash.
package site

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced on new passwords.
const MinPasswordLength = 5

// Hasher owns the bcrypt cost policy.
type Hasher struct {
	Cost int
}

// DefaultHasher uses bcrypt.DefaultCost.
var DefaultHasher = Hasher{Cost: bcrypt.DefaultCost}

func (h Hasher) cost() int {
	if h.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

// Hash returns a bcrypt hash of plain.
func (h Hasher) Hash(plain string) (string, error) {
	if utf8.RuneCountInString(plain) < MinPasswordLength {
		return "", invalid("password", "at least %d characters are required", MinPasswordLength)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost())
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", invalid("password", "at most 72 bytes are allowed")
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verdict is the outcome of a password check.
type Verdict struct {
	OK                 bool
	UpgradeRecommended bool
}

// Verify compares plain with hash.  It never mutates anything.
func (h Hasher) Verify(hash, plain string) Verdict {
	if hash == "" {
		return Verdict{}
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) != nil {
		return Verdict{}
	}
	cost, err := bcrypt.Cost([]byte(hash))
	return Verdict{OK: true, UpgradeRecommended: err != nil || cost != h.cost()}
}

// SetProtectedPassword hashes plain immediately; nil clears the password.
func (d *Domain) SetProtectedPassword(h Hasher, plain *string) error {
	if plain == nil {
		d.ProtectedPasswordHash = nil
		d.touch()
		return nil
	}
	hash, err := h.Hash(*plain)
	if err != nil {
		return err
	}
	d.ProtectedPasswordHash = &hash
	d.touch()
	return nil
}

// VerifyPassword checks plain against the stored hash.
func (d *Domain) VerifyPassword(h Hasher, plain string) Verdict {
	if d.ProtectedPasswordHash == nil {
		return Verdict{}
	}
	return h.Verify(*d.ProtectedPasswordHash, plain)
}

// Rehash replaces the stored hash with one produced under h's policy.  The
// caller persists the record afterwards.
func (d *Domain) Rehash(h Hasher, plain string) error {
	if !d.VerifyPassword(h, plain).OK {
		return ErrPasswordMismatch
	}
	return d.SetProtectedPassword(h, &plain)
}
